package app

import (
	"gorm.io/gorm"

	"github.com/skillquest/skillquest-backend/internal/cache"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/queue"
	"github.com/skillquest/skillquest-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	User      services.UserService
	Challenge services.ChallengeService
	Attempt   services.AttemptService
	Badge     services.BadgeService
	Progress  services.ProgressService

	Pipeline   services.AwardPipeline
	Dispatcher *services.Dispatcher

	Leaderboard cache.Leaderboard
	AwardQueue  queue.AwardQueue
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, clients Clients) Services {
	log.Info("Wiring services...")

	leaderboard := cache.NewLeaderboard(log, clients.Redis, cfg.LeaderboardMinXP)
	awardQueue := queue.NewAwardQueue(log, clients.Redis)

	badgeService := services.NewBadgeService(db, log, r.Badge, r.UserBadge, r.Attempt, r.Ledger)
	pipeline := services.NewAwardPipeline(db, log, r.Attempt, r.Challenge, r.Ledger, r.User, badgeService, leaderboard, cfg.PassingThreshold)
	dispatcher := services.NewDispatcher(db, log, awardQueue, pipeline, r.JobRun, r.Attempt, services.DispatcherConfig{
		Workers:     cfg.DispatcherWorkers,
		MaxAttempts: cfg.DispatcherMaxAttempts,
		BaseBackoff: cfg.DispatcherBaseBackoff,
		MaxBackoff:  cfg.DispatcherMaxBackoff,
	})

	return Services{
		Auth:      services.NewAuthService(db, log, r.User, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		User:      services.NewUserService(db, log, r.User),
		Challenge: services.NewChallengeService(db, log, r.Challenge),
		Attempt:   services.NewAttemptService(db, log, r.Attempt, r.Challenge, r.JobRun, awardQueue),
		Badge:     badgeService,
		Progress:  services.NewProgressService(db, log, r.User, r.Attempt, r.UserBadge, leaderboard),

		Pipeline:   pipeline,
		Dispatcher: dispatcher,

		Leaderboard: leaderboard,
		AwardQueue:  awardQueue,
	}
}
