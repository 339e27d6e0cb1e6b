package app

import (
	goredis "github.com/redis/go-redis/v9"

	"github.com/skillquest/skillquest-backend/internal/cache"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
)

type Clients struct {
	Redis *goredis.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	rdb, err := cache.NewRedisClient(log, cfg.RedisAddr)
	if err != nil {
		return Clients{}, err
	}
	return Clients{Redis: rdb}, nil
}
