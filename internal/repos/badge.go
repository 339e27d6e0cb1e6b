package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/types"
)

type BadgeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Badge) ([]*types.Badge, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Badge, error)
	GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Badge, error)
}

type badgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return &badgeRepo{db: db, log: baseLog.With("repo", "BadgeRepo")}
}

func (r *badgeRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Badge) ([]*types.Badge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Badge{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *badgeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Badge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var row types.Badge
	if err := t.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *badgeRepo) GetAll(ctx context.Context, tx *gorm.DB) ([]*types.Badge, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []*types.Badge
	if err := t.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
