package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/queue"
	"github.com/skillquest/skillquest-backend/internal/repos"
	"github.com/skillquest/skillquest-backend/internal/types"
)

type AttemptService interface {
	Start(ctx context.Context, userID, challengeID uuid.UUID) (*types.Attempt, error)
	Submit(ctx context.Context, userID, attemptID uuid.UUID, score int, solution string) (*types.Attempt, error)
	Get(ctx context.Context, attemptID uuid.UUID) (*types.Attempt, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Attempt, error)
}

type attemptService struct {
	db            *gorm.DB
	log           *logger.Logger
	attemptRepo   repos.AttemptRepo
	challengeRepo repos.ChallengeRepo
	jobRunRepo    repos.JobRunRepo
	queue         queue.AwardQueue
}

func NewAttemptService(
	db *gorm.DB,
	baseLog *logger.Logger,
	attemptRepo repos.AttemptRepo,
	challengeRepo repos.ChallengeRepo,
	jobRunRepo repos.JobRunRepo,
	q queue.AwardQueue,
) AttemptService {
	return &attemptService{
		db:            db,
		log:           baseLog.With("service", "AttemptService"),
		attemptRepo:   attemptRepo,
		challengeRepo: challengeRepo,
		jobRunRepo:    jobRunRepo,
		queue:         q,
	}
}

func (s *attemptService) Start(ctx context.Context, userID, challengeID uuid.UUID) (*types.Attempt, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, nil, challengeID)
	if err != nil {
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	if challenge == nil || !challenge.Published {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, apperrors.ErrNotFound)
	}
	attempt := &types.Attempt{
		ID:          uuid.New(),
		UserID:      userID,
		ChallengeID: challengeID,
		Status:      types.AttemptStatusStarted,
		StartedAt:   time.Now().UTC(),
	}
	rows, err := s.attemptRepo.Create(ctx, nil, []*types.Attempt{attempt})
	if err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}
	return rows[0], nil
}

// Submit records the solution and score and enqueues exactly one award job.
// The enqueue happens only after the state mutation is committed, so a crash
// in between leaves a submitted attempt for the reconciliation sweep to
// re-enqueue, never an award job for uncommitted state.
func (s *attemptService) Submit(ctx context.Context, userID, attemptID uuid.UUID, score int, solution string) (*types.Attempt, error) {
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("score %d outside [0,100]: %w", score, apperrors.ErrInvalidArgument)
	}
	attempt, err := s.attemptRepo.GetByID(ctx, nil, attemptID)
	if err != nil {
		return nil, fmt.Errorf("load attempt: %w", err)
	}
	if attempt == nil {
		return nil, fmt.Errorf("attempt %s: %w", attemptID, apperrors.ErrNotFound)
	}
	if attempt.UserID != userID {
		return nil, fmt.Errorf("attempt %s belongs to another user: %w", attemptID, apperrors.ErrUnauthorized)
	}
	if types.AttemptStatusTerminal(attempt.Status) {
		return nil, fmt.Errorf("attempt %s already %s: %w", attemptID, attempt.Status, apperrors.ErrInvalidState)
	}

	now := time.Now().UTC()
	// Re-submission before scoring just overwrites the pending solution.
	ok, err := s.attemptRepo.TransitionStatus(ctx, nil, attemptID,
		[]string{types.AttemptStatusStarted, types.AttemptStatusSubmitted},
		map[string]interface{}{
			"status":       types.AttemptStatusSubmitted,
			"score":        score,
			"solution":     solution,
			"submitted_at": now,
			"updated_at":   now,
		})
	if err != nil {
		return nil, fmt.Errorf("submit transition: %w", err)
	}
	if !ok {
		// Scored concurrently between our read and the update.
		return nil, fmt.Errorf("attempt %s already scored: %w", attemptID, apperrors.ErrInvalidState)
	}

	s.enqueueAwardJob(ctx, attempt.UserID, attemptID)

	updated, err := s.attemptRepo.GetByID(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *attemptService) enqueueAwardJob(ctx context.Context, userID, attemptID uuid.UUID) {
	job := queue.Job{AttemptID: attemptID}
	payload, _ := json.Marshal(job)
	if _, err := s.jobRunRepo.Create(ctx, nil, []*types.JobRun{{
		ID:          uuid.New(),
		AttemptID:   attemptID,
		OwnerUserID: userID,
		JobType:     "award_xp_and_badges",
		Status:      types.JobStatusQueued,
		Payload:     datatypes.JSON(payload),
	}}); err != nil {
		s.log.Warn("job run record failed", "attempt_id", attemptID, "error", err)
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		// The attempt stays submitted; the reconciliation sweep picks it up.
		s.log.Error("award job enqueue failed", "attempt_id", attemptID, "error", err)
	}
}

func (s *attemptService) Get(ctx context.Context, attemptID uuid.UUID) (*types.Attempt, error) {
	attempt, err := s.attemptRepo.GetByID(ctx, nil, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, fmt.Errorf("attempt %s: %w", attemptID, apperrors.ErrNotFound)
	}
	return attempt, nil
}

func (s *attemptService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Attempt, error) {
	return s.attemptRepo.GetByUserID(ctx, nil, userID, limit)
}
