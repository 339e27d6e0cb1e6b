package types

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntry is the idempotency record for one attempt's XP award. The
// unique attempt_id index closes the race between concurrent redeliveries:
// whichever delivery inserts the row applies the increment, the other
// observes the conflict and reads back TotalAfter.
type LedgerEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AttemptID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"attempt_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Delta      int       `gorm:"column:delta;not null" json:"delta"`
	TotalAfter int       `gorm:"column:total_after;not null" json:"total_after"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (LedgerEntry) TableName() string { return "xp_ledger" }
