package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillquest/skillquest-backend/internal/cache"
	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/repos"
	"github.com/skillquest/skillquest-backend/internal/types"
)

// AwardPipeline turns a submitted attempt into its terminal state, credits
// XP, refreshes the leaderboard projection and evaluates badges. Process may
// be called more than once per attempt and concurrently with other attempts
// of the same user; every step is individually idempotent, so a partially
// failed run is resumed, not corrupted, by the next delivery.
type AwardPipeline interface {
	Process(ctx context.Context, attemptID uuid.UUID) error
}

type awardPipeline struct {
	db               *gorm.DB
	log              *logger.Logger
	attemptRepo      repos.AttemptRepo
	challengeRepo    repos.ChallengeRepo
	ledgerRepo       repos.LedgerRepo
	userRepo         repos.UserRepo
	badgeService     BadgeService
	leaderboard      cache.Leaderboard
	passingThreshold int
	cacheRetries     int
}

func NewAwardPipeline(
	db *gorm.DB,
	baseLog *logger.Logger,
	attemptRepo repos.AttemptRepo,
	challengeRepo repos.ChallengeRepo,
	ledgerRepo repos.LedgerRepo,
	userRepo repos.UserRepo,
	badgeService BadgeService,
	leaderboard cache.Leaderboard,
	passingThreshold int,
) AwardPipeline {
	if passingThreshold <= 0 {
		passingThreshold = DefaultPassingThreshold
	}
	return &awardPipeline{
		db:               db,
		log:              baseLog.With("service", "AwardPipeline"),
		attemptRepo:      attemptRepo,
		challengeRepo:    challengeRepo,
		ledgerRepo:       ledgerRepo,
		userRepo:         userRepo,
		badgeService:     badgeService,
		leaderboard:      leaderboard,
		passingThreshold: passingThreshold,
		cacheRetries:     3,
	}
}

func (p *awardPipeline) Process(ctx context.Context, attemptID uuid.UUID) error {
	log := p.log.With("attempt_id", attemptID)

	attempt, err := p.attemptRepo.GetByID(ctx, nil, attemptID)
	if err != nil {
		return fmt.Errorf("load attempt: %w", err)
	}
	if attempt == nil {
		return fmt.Errorf("attempt %s: %w", attemptID, apperrors.ErrNotFound)
	}
	if types.AttemptStatusTerminal(attempt.Status) {
		log.Debug("attempt already terminal, skipping redelivery", "status", attempt.Status)
		return nil
	}
	if attempt.Status != types.AttemptStatusSubmitted {
		return fmt.Errorf("attempt %s is %q, not submitted: %w", attemptID, attempt.Status, apperrors.ErrInvalidState)
	}

	challenge, err := p.challengeRepo.GetByID(ctx, nil, attempt.ChallengeID)
	if err != nil {
		return fmt.Errorf("load challenge: %w", err)
	}
	if challenge == nil {
		return fmt.Errorf("challenge %s: %w", attempt.ChallengeID, apperrors.ErrNotFound)
	}

	score := 0
	if attempt.Score != nil {
		score = *attempt.Score
	}
	xpAwarded := CalculateXP(challenge.XP, score)
	terminalStatus := types.AttemptStatusFailed
	if IsPassing(score, p.passingThreshold) {
		terminalStatus = types.AttemptStatusPassed
	}

	// Optimistic terminal transition: exactly one delivery wins; the loser
	// observes zero rows and resumes from whatever the winner persisted.
	won, err := p.attemptRepo.TransitionStatus(ctx, nil, attemptID,
		[]string{types.AttemptStatusSubmitted},
		map[string]interface{}{
			"status":     terminalStatus,
			"xp_awarded": xpAwarded,
			"updated_at": time.Now().UTC(),
		})
	if err != nil {
		return fmt.Errorf("terminal transition: %w", err)
	}
	if !won {
		// Another delivery finished the transition between our read and the
		// update. Our xpAwarded may be stale (the attempt can be re-submitted
		// with a new score while still in "submitted"), so adopt the winner's
		// persisted values before resuming the remaining steps.
		log.Debug("lost terminal transition race, resuming with persisted values")
		attempt, err = p.attemptRepo.GetByID(ctx, nil, attemptID)
		if err != nil {
			return fmt.Errorf("reload attempt: %w", err)
		}
		if attempt == nil || !types.AttemptStatusTerminal(attempt.Status) {
			return nil
		}
		xpAwarded = attempt.XPAwarded
		terminalStatus = attempt.Status
	}

	// Ledger award is keyed by attemptID, so redelivery after a crash here
	// resumes with the same delta instead of double-crediting.
	total, applied, err := p.ledgerRepo.ApplyAward(ctx, nil, attempt.UserID, attemptID, xpAwarded)
	if err != nil {
		return fmt.Errorf("apply ledger award: %w", err)
	}
	if applied {
		log.Info("xp awarded",
			"user_id", attempt.UserID,
			"challenge_id", attempt.ChallengeID,
			"xp", xpAwarded,
			"total_xp", total,
			"status", terminalStatus,
		)
	}

	if err := p.userRepo.RaiseLevel(ctx, nil, attempt.UserID, LevelForXP(total)); err != nil {
		return fmt.Errorf("raise level: %w", err)
	}

	if err := p.updateLeaderboard(ctx, attempt.UserID, total); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	if _, err := p.badgeService.Evaluate(ctx, attempt.UserID); err != nil {
		return fmt.Errorf("evaluate badges: %w", err)
	}
	return nil
}

// updateLeaderboard retries the cache write alone, re-reading the ledger's
// authoritative total each time. A crash here leaves the cache stale, never
// wrong: the next award for this user overwrites with the current total.
func (p *awardPipeline) updateLeaderboard(ctx context.Context, userID uuid.UUID, total int) error {
	var lastErr error
	for i := 0; i <= p.cacheRetries; i++ {
		if i > 0 {
			current, err := p.ledgerRepo.GetTotalXP(ctx, nil, userID)
			if err != nil {
				lastErr = err
				continue
			}
			total = current
		}
		if err := p.leaderboard.Update(ctx, userID, total); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", apperrors.ErrTransient, lastErr)
}
