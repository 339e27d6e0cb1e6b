package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	AttemptStatusStarted   = "started"
	AttemptStatusSubmitted = "submitted"
	AttemptStatusPassed    = "passed"
	AttemptStatusFailed    = "failed"
)

// AttemptStatusTerminal reports whether status is one of the two terminal
// states. Terminal attempts are immutable: xp_awarded is set exactly once,
// by the award pipeline, together with the terminal transition.
func AttemptStatusTerminal(status string) bool {
	return status == AttemptStatusPassed || status == AttemptStatusFailed
}

type Attempt struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ChallengeID uuid.UUID      `gorm:"type:uuid;not null;index" json:"challenge_id"`
	Challenge   *Challenge     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChallengeID;references:ID" json:"challenge,omitempty"`
	Status      string         `gorm:"column:status;not null;default:'started';index" json:"status"`
	Score       *int           `gorm:"column:score" json:"score,omitempty"`
	XPAwarded   int            `gorm:"column:xp_awarded;not null;default:0" json:"xp_awarded"`
	Solution    string         `gorm:"column:solution" json:"solution,omitempty"`
	StartedAt   time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	SubmittedAt *time.Time     `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	Metadata    datatypes.JSON `gorm:"column:attempt_metadata" json:"attempt_metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Attempt) TableName() string { return "attempts" }
