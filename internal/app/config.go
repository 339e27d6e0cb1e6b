package app

import (
	"strings"
	"time"

	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/utils"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	RedisAddr        string
	PassingThreshold int
	LeaderboardMinXP int
	CORSOrigins      []string

	DispatcherWorkers     int
	DispatcherMaxAttempts int
	DispatcherBaseBackoff time.Duration
	DispatcherMaxBackoff  time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	redisAddr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	passingThreshold := utils.GetEnvAsInt("PASSING_THRESHOLD", 70, log)
	leaderboardMinXP := utils.GetEnvAsInt("LEADERBOARD_MIN_XP", 0, log)
	corsOrigins := utils.GetEnv("CORS_ORIGINS", "http://localhost:3000", log)

	dispatcherWorkers := utils.GetEnvAsInt("AWARD_WORKERS", 4, log)
	dispatcherMaxAttempts := utils.GetEnvAsInt("AWARD_MAX_ATTEMPTS", 5, log)
	dispatcherBaseBackoffMS := utils.GetEnvAsInt("AWARD_BASE_BACKOFF_MS", 500, log)
	dispatcherMaxBackoffMS := utils.GetEnvAsInt("AWARD_MAX_BACKOFF_MS", 30000, log)

	return Config{
		JWTSecretKey:    jwtSecretKey,
		AccessTokenTTL:  time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTokenTTLSeconds) * time.Second,

		RedisAddr:        redisAddr,
		PassingThreshold: passingThreshold,
		LeaderboardMinXP: leaderboardMinXP,
		CORSOrigins:      splitOrigins(corsOrigins),

		DispatcherWorkers:     dispatcherWorkers,
		DispatcherMaxAttempts: dispatcherMaxAttempts,
		DispatcherBaseBackoff: time.Duration(dispatcherBaseBackoffMS) * time.Millisecond,
		DispatcherMaxBackoff:  time.Duration(dispatcherMaxBackoffMS) * time.Millisecond,
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
