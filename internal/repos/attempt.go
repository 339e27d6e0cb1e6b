package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/types"
)

type AttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Attempt) ([]*types.Attempt, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Attempt, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Attempt, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatuses []string, updates map[string]interface{}) (bool, error)
	CountByUserAndStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) (int64, error)
	GetTerminalSubmitTimes(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]time.Time, error)
	GetStuckSubmitted(ctx context.Context, tx *gorm.DB, olderThan time.Time, limit int) ([]*types.Attempt, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return &attemptRepo{db: db, log: baseLog.With("repo", "AttemptRepo")}
}

func (r *attemptRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Attempt) ([]*types.Attempt, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Attempt{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *attemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Attempt, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var row types.Attempt
	if err := t.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *attemptRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Attempt, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).Where("user_id = ?", userID).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []*types.Attempt
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// TransitionStatus is a conditional update keyed on the attempt still being
// in one of fromStatuses. It returns false when zero rows matched, which is
// how concurrent deliveries discover they lost the race.
func (r *attemptRepo) TransitionStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(ctx).
		Model(&types.Attempt{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *attemptRepo) CountByUserAndStatus(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status string) (int64, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(ctx).
		Model(&types.Attempt{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetTerminalSubmitTimes returns submitted_at for the user's passed and
// failed attempts. Collapsing to distinct calendar dates happens in the
// rule engine, which keeps this query portable across dialects.
func (r *attemptRepo) GetTerminalSubmitTimes(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]time.Time, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*types.Attempt
	if err := t.WithContext(ctx).
		Select("submitted_at").
		Where("user_id = ? AND status IN ? AND submitted_at IS NOT NULL", userID, []string{types.AttemptStatusPassed, types.AttemptStatusFailed}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(rows))
	for _, a := range rows {
		if a.SubmittedAt != nil {
			out = append(out, *a.SubmittedAt)
		}
	}
	return out, nil
}

// GetStuckSubmitted finds attempts that were submitted before olderThan but
// never reached a terminal state, meaning their award job was lost.
func (r *attemptRepo) GetStuckSubmitted(ctx context.Context, tx *gorm.DB, olderThan time.Time, limit int) ([]*types.Attempt, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).
		Where("status = ? AND submitted_at < ?", types.AttemptStatusSubmitted, olderThan).
		Order("submitted_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []*types.Attempt
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
