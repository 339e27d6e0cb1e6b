package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Challenge struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Description string         `gorm:"not null;column:description" json:"description"`
	XP          int            `gorm:"column:xp;not null" json:"xp"`
	Difficulty  string         `gorm:"column:difficulty;not null;index" json:"difficulty"`
	Tags        datatypes.JSON `gorm:"column:tags" json:"tags,omitempty"`
	CreatedBy   *uuid.UUID     `gorm:"type:uuid;column:created_by" json:"created_by,omitempty"`
	Published   bool           `gorm:"column:published;not null" json:"published"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Challenge) TableName() string { return "challenges" }
