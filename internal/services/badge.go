package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/repos"
	"github.com/skillquest/skillquest-backend/internal/types"
)

// Condition type tags are a compatibility surface with stored badge
// definitions and must not be renamed.
const (
	ConditionXP              = "xp"
	ConditionAttemptCount    = "attempt_count"
	ConditionConsecutiveDays = "consecutive_days"
)

// BadgeCondition is the closed tagged variant behind a badge's JSON
// condition column. Only the fields belonging to the tag are meaningful.
type BadgeCondition struct {
	Type      string `json:"type"`
	Threshold int    `json:"threshold,omitempty"`
	Count     int    `json:"count,omitempty"`
	Status    string `json:"status,omitempty"`
	Days      int    `json:"days,omitempty"`
}

func ParseCondition(raw []byte) (BadgeCondition, error) {
	var cond BadgeCondition
	if err := json.Unmarshal(raw, &cond); err != nil {
		return BadgeCondition{}, fmt.Errorf("parse badge condition: %w", err)
	}
	if cond.Type == "" {
		return BadgeCondition{}, fmt.Errorf("badge condition missing type tag: %w", apperrors.ErrInvalidArgument)
	}
	return cond, nil
}

type BadgeService interface {
	// Evaluate checks every badge the user has not yet earned against the
	// ledger's current state and persists the new awards. It returns the
	// badge IDs awarded by this call; redelivery returns an empty slice.
	Evaluate(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Create(ctx context.Context, badge *types.Badge) (*types.Badge, error)
	List(ctx context.Context) ([]*types.Badge, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Badge, error)
	GetUserBadges(ctx context.Context, userID uuid.UUID) ([]*types.UserBadge, error)
}

type badgeService struct {
	db            *gorm.DB
	log           *logger.Logger
	badgeRepo     repos.BadgeRepo
	userBadgeRepo repos.UserBadgeRepo
	attemptRepo   repos.AttemptRepo
	ledgerRepo    repos.LedgerRepo
}

func NewBadgeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	badgeRepo repos.BadgeRepo,
	userBadgeRepo repos.UserBadgeRepo,
	attemptRepo repos.AttemptRepo,
	ledgerRepo repos.LedgerRepo,
) BadgeService {
	return &badgeService{
		db:            db,
		log:           baseLog.With("service", "BadgeService"),
		badgeRepo:     badgeRepo,
		userBadgeRepo: userBadgeRepo,
		attemptRepo:   attemptRepo,
		ledgerRepo:    ledgerRepo,
	}
}

func (s *badgeService) Evaluate(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	allBadges, err := s.badgeRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load badge definitions: %w", err)
	}
	earnedIDs, err := s.userBadgeRepo.GetBadgeIDsByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("load earned badges: %w", err)
	}
	earned := make(map[uuid.UUID]bool, len(earnedIDs))
	for _, id := range earnedIDs {
		earned[id] = true
	}

	// Re-read the authoritative total here rather than trusting a value
	// computed earlier in the pipeline run; a sibling attempt for the same
	// user may have advanced it since.
	totalXP, err := s.ledgerRepo.GetTotalXP(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("read total xp: %w", err)
	}

	var newlyAwarded []uuid.UUID
	for _, badge := range allBadges {
		if earned[badge.ID] {
			continue
		}
		ok, err := s.conditionMet(ctx, userID, totalXP, badge)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		created, err := s.userBadgeRepo.InsertIfAbsent(ctx, nil, &types.UserBadge{
			ID:        uuid.New(),
			UserID:    userID,
			BadgeID:   badge.ID,
			AwardedAt: time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("award badge %s: %w", badge.Name, err)
		}
		if created {
			s.log.Info("badge awarded", "user_id", userID, "badge", badge.Name)
			newlyAwarded = append(newlyAwarded, badge.ID)
		}
	}
	return newlyAwarded, nil
}

func (s *badgeService) conditionMet(ctx context.Context, userID uuid.UUID, totalXP int, badge *types.Badge) (bool, error) {
	cond, err := ParseCondition(badge.Condition)
	if err != nil {
		s.log.Warn("skipping badge with unparsable condition", "badge", badge.Name, "error", err)
		return false, nil
	}
	switch cond.Type {
	case ConditionXP:
		return totalXP >= cond.Threshold, nil
	case ConditionAttemptCount:
		status := cond.Status
		if status == "" {
			status = types.AttemptStatusPassed
		}
		count, err := s.attemptRepo.CountByUserAndStatus(ctx, nil, userID, status)
		if err != nil {
			return false, fmt.Errorf("count attempts: %w", err)
		}
		return count >= int64(cond.Count), nil
	case ConditionConsecutiveDays:
		times, err := s.attemptRepo.GetTerminalSubmitTimes(ctx, nil, userID)
		if err != nil {
			return false, fmt.Errorf("load attempt dates: %w", err)
		}
		return streakEndingAtLatest(times) >= cond.Days, nil
	default:
		s.log.Warn("unknown badge condition type", "badge", badge.Name, "type", cond.Type)
		return false, nil
	}
}

// streakEndingAtLatest collapses timestamps to distinct UTC calendar dates
// and counts how many consecutive dates end at the most recent one. A
// calendar-date streak, not a rolling 24h window.
func streakEndingAtLatest(times []time.Time) int {
	if len(times) == 0 {
		return 0
	}
	seen := make(map[string]time.Time, len(times))
	for _, ts := range times {
		day := ts.UTC().Truncate(24 * time.Hour)
		seen[day.Format("2006-01-02")] = day
	}
	days := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			streak++
			continue
		}
		break
	}
	return streak
}

func (s *badgeService) Create(ctx context.Context, badge *types.Badge) (*types.Badge, error) {
	if badge.Name == "" || len(badge.Condition) == 0 {
		return nil, fmt.Errorf("badge requires name and condition: %w", apperrors.ErrInvalidArgument)
	}
	if _, err := ParseCondition(badge.Condition); err != nil {
		return nil, err
	}
	badge.ID = uuid.New()
	rows, err := s.badgeRepo.Create(ctx, nil, []*types.Badge{badge})
	if err != nil {
		return nil, fmt.Errorf("create badge: %w", err)
	}
	return rows[0], nil
}

func (s *badgeService) List(ctx context.Context) ([]*types.Badge, error) {
	return s.badgeRepo.GetAll(ctx, nil)
}

func (s *badgeService) Get(ctx context.Context, id uuid.UUID) (*types.Badge, error) {
	badge, err := s.badgeRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if badge == nil {
		return nil, fmt.Errorf("badge %s: %w", id, apperrors.ErrNotFound)
	}
	return badge, nil
}

func (s *badgeService) GetUserBadges(ctx context.Context, userID uuid.UUID) ([]*types.UserBadge, error) {
	return s.userBadgeRepo.GetByUserID(ctx, nil, userID)
}
