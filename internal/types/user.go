package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;not null;column:username" json:"username"`
	Email        string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	PasswordHash string         `gorm:"not null;column:password_hash" json:"-"`
	TotalXP      int            `gorm:"column:total_xp;not null;default:0;index" json:"total_xp"`
	Level        int            `gorm:"column:level;not null;default:1" json:"level"`
	Profile      datatypes.JSON `gorm:"column:profile" json:"profile,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }
