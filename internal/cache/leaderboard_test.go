package cache

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
)

func redisLeaderboardForTest(t *testing.T) Leaderboard {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	rdb, err := NewRedisClient(log, addr)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	lb := NewLeaderboard(log, rdb, 0)
	t.Cleanup(func() {
		rdb.Del(context.Background(), leaderboardKey)
		_ = lb.Close()
	})
	return lb
}

func TestLeaderboardUpdateAndTopK(t *testing.T) {
	lb := redisLeaderboardForTest(t)
	ctx := context.Background()

	gold := uuid.New()
	silver := uuid.New()
	bronze := uuid.New()
	for _, pair := range []struct {
		id uuid.UUID
		xp int
	}{{gold, 300}, {silver, 200}, {bronze, 100}} {
		if err := lb.Update(ctx, pair.id, pair.xp); err != nil {
			t.Fatalf("update %s: %v", pair.id, err)
		}
	}

	top, err := lb.TopK(ctx, 2)
	if err != nil {
		t.Fatalf("topK: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("topK size = %d, want 2", len(top))
	}
	if top[0].UserID != gold || top[0].TotalXP != 300 {
		t.Fatalf("top entry = %+v, want gold at 300", top[0])
	}
	if top[1].UserID != silver {
		t.Fatalf("second entry = %+v, want silver", top[1])
	}

	rank, err := lb.RankOf(ctx, bronze)
	if err != nil {
		t.Fatalf("rank of bronze: %v", err)
	}
	if rank != 3 {
		t.Fatalf("bronze rank = %d, want 3", rank)
	}
}

func TestLeaderboardUpdateOverwrites(t *testing.T) {
	lb := redisLeaderboardForTest(t)
	ctx := context.Background()

	user := uuid.New()
	if err := lb.Update(ctx, user, 50); err != nil {
		t.Fatalf("first update: %v", err)
	}
	// Redelivered totals overwrite, they never add.
	if err := lb.Update(ctx, user, 50); err != nil {
		t.Fatalf("second update: %v", err)
	}
	score, err := lb.Score(ctx, user)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 50 {
		t.Fatalf("score = %d, want 50", score)
	}
}

func TestLeaderboardFloorRemovesEntry(t *testing.T) {
	lb := redisLeaderboardForTest(t)
	ctx := context.Background()

	user := uuid.New()
	if err := lb.Update(ctx, user, 10); err != nil {
		t.Fatalf("update: %v", err)
	}
	// At or below the floor the entry disappears.
	if err := lb.Update(ctx, user, 0); err != nil {
		t.Fatalf("floor update: %v", err)
	}
	if _, err := lb.RankOf(ctx, user); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("rank of removed user: got %v, want ErrNotFound", err)
	}
	if _, err := lb.Score(ctx, uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("score of unknown user: got %v, want ErrNotFound", err)
	}
}
