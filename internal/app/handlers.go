package app

import (
	"github.com/skillquest/skillquest-backend/internal/handlers"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Challenge   *handlers.ChallengeHandler
	Attempt     *handlers.AttemptHandler
	Badge       *handlers.BadgeHandler
	Leaderboard *handlers.LeaderboardHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:        handlers.NewAuthHandler(services.Auth),
		User:        handlers.NewUserHandler(services.User),
		Challenge:   handlers.NewChallengeHandler(services.Challenge),
		Attempt:     handlers.NewAttemptHandler(services.Attempt),
		Badge:       handlers.NewBadgeHandler(services.Badge),
		Leaderboard: handlers.NewLeaderboardHandler(services.Progress),
	}
}
