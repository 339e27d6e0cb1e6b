package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/skillquest/skillquest-backend/internal/handlers"
	"github.com/skillquest/skillquest-backend/internal/middleware"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log                *logger.Logger
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	UserHandler        *handlers.UserHandler
	ChallengeHandler   *handlers.ChallengeHandler
	AttemptHandler     *handlers.AttemptHandler
	BadgeHandler       *handlers.BadgeHandler
	LeaderboardHandler *handlers.LeaderboardHandler
	CORSOrigins        []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:8000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
		api.POST("/auth/refresh", cfg.AuthHandler.Refresh)

		api.GET("/leaderboard", cfg.LeaderboardHandler.Get)
		api.GET("/challenges", cfg.ChallengeHandler.List)
		api.GET("/challenges/:id", cfg.ChallengeHandler.Get)
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.GET("/users/me", cfg.UserHandler.GetMe)
		protected.GET("/users/:id/progress", cfg.LeaderboardHandler.GetProgress)
		protected.GET("/users/:id/badges", cfg.BadgeHandler.ListForUser)

		protected.POST("/attempts", cfg.AttemptHandler.Start)
		protected.POST("/attempts/:id/submit", cfg.AttemptHandler.Submit)
		protected.GET("/attempts", cfg.AttemptHandler.ListMine)

		protected.POST("/challenges", cfg.ChallengeHandler.Create)
		protected.PUT("/challenges/:id", cfg.ChallengeHandler.Update)
		protected.DELETE("/challenges/:id", cfg.ChallengeHandler.Delete)

		protected.GET("/badges", cfg.BadgeHandler.List)
		protected.GET("/badges/:id", cfg.BadgeHandler.Get)
		protected.POST("/badges", cfg.BadgeHandler.Create)
	}

	return router
}
