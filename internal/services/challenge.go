package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/repos"
	"github.com/skillquest/skillquest-backend/internal/types"
)

type ChallengeService interface {
	Create(ctx context.Context, challenge *types.Challenge) (*types.Challenge, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Challenge, error)
	List(ctx context.Context, filter repos.ChallengeFilter) ([]*types.Challenge, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.Challenge, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type challengeService struct {
	db            *gorm.DB
	log           *logger.Logger
	challengeRepo repos.ChallengeRepo
}

func NewChallengeService(db *gorm.DB, baseLog *logger.Logger, challengeRepo repos.ChallengeRepo) ChallengeService {
	return &challengeService{
		db:            db,
		log:           baseLog.With("service", "ChallengeService"),
		challengeRepo: challengeRepo,
	}
}

func validDifficulty(d string) bool {
	switch d {
	case types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard:
		return true
	}
	return false
}

func (s *challengeService) Create(ctx context.Context, challenge *types.Challenge) (*types.Challenge, error) {
	if challenge.Title == "" || challenge.XP <= 0 {
		return nil, fmt.Errorf("challenge requires title and positive xp: %w", apperrors.ErrInvalidArgument)
	}
	if !validDifficulty(challenge.Difficulty) {
		return nil, fmt.Errorf("unknown difficulty %q: %w", challenge.Difficulty, apperrors.ErrInvalidArgument)
	}
	challenge.ID = uuid.New()
	rows, err := s.challengeRepo.Create(ctx, nil, []*types.Challenge{challenge})
	if err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	return rows[0], nil
}

func (s *challengeService) Get(ctx context.Context, id uuid.UUID) (*types.Challenge, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if challenge == nil {
		return nil, fmt.Errorf("challenge %s: %w", id, apperrors.ErrNotFound)
	}
	return challenge, nil
}

func (s *challengeService) List(ctx context.Context, filter repos.ChallengeFilter) ([]*types.Challenge, error) {
	if filter.Difficulty != "" && !validDifficulty(filter.Difficulty) {
		return nil, fmt.Errorf("unknown difficulty %q: %w", filter.Difficulty, apperrors.ErrInvalidArgument)
	}
	return s.challengeRepo.List(ctx, nil, filter)
}

func (s *challengeService) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.Challenge, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d, ok := updates["difficulty"].(string); ok && !validDifficulty(d) {
		return nil, fmt.Errorf("unknown difficulty %q: %w", d, apperrors.ErrInvalidArgument)
	}
	updates["updated_at"] = time.Now().UTC()
	if err := s.challengeRepo.UpdateFields(ctx, nil, existing.ID, updates); err != nil {
		return nil, fmt.Errorf("update challenge: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *challengeService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.challengeRepo.DeleteByID(ctx, nil, id)
}
