package app

import (
	"gorm.io/gorm"

	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/repos"
)

type Repos struct {
	User      repos.UserRepo
	Challenge repos.ChallengeRepo
	Attempt   repos.AttemptRepo
	Badge     repos.BadgeRepo
	UserBadge repos.UserBadgeRepo
	Ledger    repos.LedgerRepo
	JobRun    repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		Challenge: repos.NewChallengeRepo(db, log),
		Attempt:   repos.NewAttemptRepo(db, log),
		Badge:     repos.NewBadgeRepo(db, log),
		UserBadge: repos.NewUserBadgeRepo(db, log),
		Ledger:    repos.NewLedgerRepo(db, log),
		JobRun:    repos.NewJobRunRepo(db, log),
	}
}
