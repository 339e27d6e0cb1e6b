package app

import (
	"github.com/gin-gonic/gin"

	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/server"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:                log,
		AuthHandler:        handlers.Auth,
		AuthMiddleware:     middleware.Auth,
		UserHandler:        handlers.User,
		ChallengeHandler:   handlers.Challenge,
		AttemptHandler:     handlers.Attempt,
		BadgeHandler:       handlers.Badge,
		LeaderboardHandler: handlers.Leaderboard,
		CORSOrigins:        cfg.CORSOrigins,
	})
}
