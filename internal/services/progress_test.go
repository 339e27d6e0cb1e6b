package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/repos"
	"github.com/skillquest/skillquest-backend/internal/testutil"
	"github.com/skillquest/skillquest-backend/internal/types"
)

func TestGetProgress(t *testing.T) {
	env := newPipelineEnv(t)
	log := testutil.Logger(t)
	svc := NewProgressService(env.db, log,
		env.users, env.attempts,
		repos.NewUserBadgeRepo(env.db, log),
		env.leaderboard)
	ctx := context.Background()

	user := testutil.SeedUser(t, env.db, "tracked")
	challenge := testutil.SeedChallenge(t, env.db, "c1", 100)
	attempt := testutil.SeedAttempt(t, env.db, user.ID, challenge.ID, types.AttemptStatusSubmitted, testutil.IntPtr(80))
	if err := env.pipeline.Process(ctx, attempt.ID); err != nil {
		t.Fatalf("process: %v", err)
	}

	progress, err := svc.GetProgress(ctx, user.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if progress.TotalXP != 80 {
		t.Fatalf("total xp = %d, want 80", progress.TotalXP)
	}
	if progress.ChallengesPassed != 1 {
		t.Fatalf("challenges passed = %d, want 1", progress.ChallengesPassed)
	}
	if progress.Rank != 1 {
		t.Fatalf("rank = %d, want 1", progress.Rank)
	}
	if progress.XPToNextLevel != 20 {
		t.Fatalf("xp to next level = %d, want 20", progress.XPToNextLevel)
	}
	if len(progress.RecentAttempts) != 1 {
		t.Fatalf("recent attempts = %d, want 1", len(progress.RecentAttempts))
	}

	if _, err := svc.GetProgress(ctx, uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("missing user: got %v, want ErrNotFound", err)
	}
}

func TestGetLeaderboardHydratesUsers(t *testing.T) {
	env := newPipelineEnv(t)
	log := testutil.Logger(t)
	svc := NewProgressService(env.db, log,
		env.users, env.attempts,
		repos.NewUserBadgeRepo(env.db, log),
		env.leaderboard)
	ctx := context.Background()

	first := testutil.SeedUser(t, env.db, "gold")
	second := testutil.SeedUser(t, env.db, "silver")
	if err := env.leaderboard.Update(ctx, first.ID, 300); err != nil {
		t.Fatalf("seed first score: %v", err)
	}
	if err := env.leaderboard.Update(ctx, second.ID, 150); err != nil {
		t.Fatalf("seed second score: %v", err)
	}
	// A stale cache entry for a user that no longer exists is dropped.
	if err := env.leaderboard.Update(ctx, uuid.New(), 999); err != nil {
		t.Fatalf("seed ghost score: %v", err)
	}

	entries, err := svc.GetLeaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Username != "gold" || entries[0].TotalXP != 300 {
		t.Fatalf("top entry = %+v, want gold at 300", entries[0])
	}
	if entries[1].Username != "silver" {
		t.Fatalf("second entry = %+v, want silver", entries[1])
	}
}
