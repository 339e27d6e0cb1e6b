package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Badge condition is stored as JSON and is a compatibility surface with
// previously stored definitions. The three recognized tags are
// {"type":"xp","threshold":N}, {"type":"attempt_count","count":N,"status":S}
// and {"type":"consecutive_days","days":N}.
type Badge struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Description string         `gorm:"not null;column:description" json:"description"`
	Condition   datatypes.JSON `gorm:"not null;column:condition" json:"condition"`
	IconURL     string         `gorm:"column:icon_url" json:"icon_url,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Badge) TableName() string { return "badges" }
