package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
)

const leaderboardKey = "leaderboard"

type Entry struct {
	UserID  uuid.UUID `json:"user_id"`
	TotalXP int       `json:"total_xp"`
}

// Leaderboard is a read-optimized projection of the XP ledger, backed by a
// redis sorted set. Writers always store the ledger's current total
// (overwrite, not increment), so a redelivered update is naturally
// idempotent here. ZADD/ZREVRANK keep update and rank-of logarithmic in the
// member count.
type Leaderboard interface {
	Update(ctx context.Context, userID uuid.UUID, totalXP int) error
	TopK(ctx context.Context, k int) ([]Entry, error)
	RankOf(ctx context.Context, userID uuid.UUID) (int64, error)
	Score(ctx context.Context, userID uuid.UUID) (int, error)
	Remove(ctx context.Context, userID uuid.UUID) error
	Close() error
}

type redisLeaderboard struct {
	log   *logger.Logger
	rdb   *goredis.Client
	key   string
	minXP int
}

func NewLeaderboard(log *logger.Logger, rdb *goredis.Client, minXP int) Leaderboard {
	return &redisLeaderboard{
		log:   log.With("service", "Leaderboard"),
		rdb:   rdb,
		key:   leaderboardKey,
		minXP: minXP,
	}
}

// NewRedisClient dials REDIS_ADDR and verifies the connection.
func NewRedisClient(log *logger.Logger, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (l *redisLeaderboard) Update(ctx context.Context, userID uuid.UUID, totalXP int) error {
	if totalXP <= l.minXP {
		// Below the floor the user has no entry at all; drop any stale one.
		return l.Remove(ctx, userID)
	}
	return l.rdb.ZAdd(ctx, l.key, goredis.Z{
		Score:  float64(totalXP),
		Member: userID.String(),
	}).Err()
}

func (l *redisLeaderboard) TopK(ctx context.Context, k int) ([]Entry, error) {
	if k <= 0 {
		return []Entry{}, nil
	}
	zs, err := l.rdb.ZRevRangeWithScores(ctx, l.key, 0, int64(k-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(member)
		if err != nil {
			l.log.Warn("non-uuid member in leaderboard zset", "member", member)
			continue
		}
		out = append(out, Entry{UserID: id, TotalXP: int(z.Score)})
	}
	return out, nil
}

// RankOf returns the 1-based descending rank.
func (l *redisLeaderboard) RankOf(ctx context.Context, userID uuid.UUID) (int64, error) {
	rank, err := l.rdb.ZRevRank(ctx, l.key, userID.String()).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, apperrors.ErrNotFound
		}
		return 0, err
	}
	return rank + 1, nil
}

func (l *redisLeaderboard) Score(ctx context.Context, userID uuid.UUID) (int, error) {
	score, err := l.rdb.ZScore(ctx, l.key, userID.String()).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, apperrors.ErrNotFound
		}
		return 0, err
	}
	return int(score), nil
}

func (l *redisLeaderboard) Remove(ctx context.Context, userID uuid.UUID) error {
	return l.rdb.ZRem(ctx, l.key, userID.String()).Err()
}

func (l *redisLeaderboard) Close() error {
	return l.rdb.Close()
}
