package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillquest/skillquest-backend/internal/cache"
	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/repos"
	"github.com/skillquest/skillquest-backend/internal/types"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

type Progress struct {
	UserID           uuid.UUID        `json:"user_id"`
	Username         string           `json:"username"`
	TotalXP          int              `json:"total_xp"`
	Level            int              `json:"level"`
	XPToNextLevel    int              `json:"xp_to_next_level"`
	Rank             int64            `json:"rank,omitempty"`
	ChallengesPassed int64            `json:"challenges_passed"`
	BadgeCount       int64            `json:"badge_count"`
	RecentAttempts   []*types.Attempt `json:"recent_attempts"`
}

type LeaderboardEntry struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	TotalXP  int       `json:"total_xp"`
	Level    int       `json:"level"`
	Rank     int       `json:"rank"`
}

type ProgressService interface {
	GetProgress(ctx context.Context, userID uuid.UUID) (*Progress, error)
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type progressService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	attemptRepo   repos.AttemptRepo
	userBadgeRepo repos.UserBadgeRepo
	leaderboard   cache.Leaderboard
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	attemptRepo repos.AttemptRepo,
	userBadgeRepo repos.UserBadgeRepo,
	leaderboard cache.Leaderboard,
) ProgressService {
	return &progressService{
		db:            db,
		log:           baseLog.With("service", "ProgressService"),
		userRepo:      userRepo,
		attemptRepo:   attemptRepo,
		userBadgeRepo: userBadgeRepo,
		leaderboard:   leaderboard,
	}
}

func (s *progressService) GetProgress(ctx context.Context, userID uuid.UUID) (*Progress, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
	}

	var rank int64
	if r, err := s.leaderboard.RankOf(ctx, userID); err == nil {
		rank = r
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		// The cache is a projection; a read failure degrades the response
		// rather than failing it.
		s.log.Warn("rank lookup failed", "user_id", userID, "error", err)
	}

	passed, err := s.attemptRepo.CountByUserAndStatus(ctx, nil, userID, types.AttemptStatusPassed)
	if err != nil {
		return nil, fmt.Errorf("count passed attempts: %w", err)
	}
	badgeCount, err := s.userBadgeRepo.CountByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("count badges: %w", err)
	}
	recent, err := s.attemptRepo.GetByUserID(ctx, nil, userID, 5)
	if err != nil {
		return nil, fmt.Errorf("load recent attempts: %w", err)
	}

	return &Progress{
		UserID:           user.ID,
		Username:         user.Username,
		TotalXP:          user.TotalXP,
		Level:            user.Level,
		XPToNextLevel:    XPToNextLevel(user.TotalXP),
		Rank:             rank,
		ChallengesPassed: passed,
		BadgeCount:       badgeCount,
		RecentAttempts:   recent,
	}, nil
}

func (s *progressService) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	top, err := s.leaderboard.TopK(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard topK: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(top))
	for _, e := range top {
		ids = append(ids, e.UserID)
	}
	users, err := s.userRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate leaderboard users: %w", err)
	}
	byID := make(map[uuid.UUID]*types.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	entries := make([]LeaderboardEntry, 0, len(top))
	for i, e := range top {
		u := byID[e.UserID]
		if u == nil {
			// Cache entry for a deleted user; skip rather than surface it.
			continue
		}
		entries = append(entries, LeaderboardEntry{
			UserID:   e.UserID,
			Username: u.Username,
			TotalXP:  e.TotalXP,
			Level:    u.Level,
			Rank:     i + 1,
		})
	}
	return entries, nil
}
