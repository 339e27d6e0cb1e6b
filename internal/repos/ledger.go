package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/types"
)

type LedgerRepo interface {
	// ApplyAward credits delta XP to the user, idempotently per attemptID.
	// It returns the user's total after the award and whether this call was
	// the one that applied it (false means a prior delivery already did).
	ApplyAward(ctx context.Context, tx *gorm.DB, userID, attemptID uuid.UUID, delta int) (int, bool, error)
	GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) (*types.LedgerEntry, error)
	GetTotalXP(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
}

type ledgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	return &ledgerRepo{db: db, log: baseLog.With("repo", "LedgerRepo")}
}

func (r *ledgerRepo) ApplyAward(ctx context.Context, tx *gorm.DB, userID, attemptID uuid.UUID, delta int) (int, bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if delta < 0 {
		return 0, false, fmt.Errorf("negative award delta %d for attempt %s", delta, attemptID)
	}

	var total int
	applied := false
	err := t.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		entry := &types.LedgerEntry{
			ID:        uuid.New(),
			AttemptID: attemptID,
			UserID:    userID,
			Delta:     delta,
		}
		// The unique attempt_id index and DO NOTHING make the insert the
		// single atomic check-and-claim; no read precedes it.
		res := txx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}},
			DoNothing: true,
		}).Create(entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			prior, err := r.GetByAttemptID(ctx, txx, attemptID)
			if err != nil {
				return err
			}
			if prior == nil {
				return fmt.Errorf("ledger entry for attempt %s vanished mid-transaction", attemptID)
			}
			total = prior.TotalAfter
			return nil
		}

		// Single-statement increment; never read-modify-write.
		if err := txx.Model(&types.User{}).
			Where("id = ?", userID).
			UpdateColumns(map[string]interface{}{
				"total_xp":   gorm.Expr("total_xp + ?", delta),
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		var user types.User
		if err := txx.Select("total_xp").First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		total = user.TotalXP

		if err := txx.Model(&types.LedgerEntry{}).
			Where("attempt_id = ?", attemptID).
			UpdateColumn("total_after", total).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return total, applied, nil
}

func (r *ledgerRepo) GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uuid.UUID) (*types.LedgerEntry, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var row types.LedgerEntry
	err := t.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *ledgerRepo) GetTotalXP(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var user types.User
	if err := t.WithContext(ctx).Select("total_xp").First(&user, "id = ?", userID).Error; err != nil {
		return 0, err
	}
	return user.TotalXP, nil
}
