package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserBadge records that a user earned a badge. The (user_id, badge_id)
// unique index is what makes awarding idempotent.
type UserBadge struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_badge,unique" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	BadgeID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_badge,unique" json:"badge_id"`
	Badge     *Badge         `gorm:"constraint:OnDelete:CASCADE;foreignKey:BadgeID;references:ID" json:"badge,omitempty"`
	AwardedAt time.Time      `gorm:"column:awarded_at;not null" json:"awarded_at"`
	Metadata  datatypes.JSON `gorm:"column:badge_metadata" json:"badge_metadata,omitempty"`
}

func (UserBadge) TableName() string { return "user_badges" }
