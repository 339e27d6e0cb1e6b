package repos

import (
	"context"
	"testing"
	"time"

	"github.com/skillquest/skillquest-backend/internal/testutil"
	"github.com/skillquest/skillquest-backend/internal/types"
)

func TestTransitionStatus(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	attempts := NewAttemptRepo(gdb, log)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "tr_user")
	challenge := testutil.SeedChallenge(t, gdb, "c1", 100)
	attempt := testutil.SeedAttempt(t, gdb, user.ID, challenge.ID, types.AttemptStatusSubmitted, testutil.IntPtr(90))

	won, err := attempts.TransitionStatus(ctx, nil, attempt.ID,
		[]string{types.AttemptStatusSubmitted},
		map[string]interface{}{"status": types.AttemptStatusPassed, "xp_awarded": 90})
	if err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if !won {
		t.Fatal("first transition must win")
	}

	// A second delivery observes zero matching rows.
	won, err = attempts.TransitionStatus(ctx, nil, attempt.ID,
		[]string{types.AttemptStatusSubmitted},
		map[string]interface{}{"status": types.AttemptStatusFailed})
	if err != nil {
		t.Fatalf("second transition: %v", err)
	}
	if won {
		t.Fatal("second transition must lose")
	}

	got, err := attempts.GetByID(ctx, nil, attempt.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.AttemptStatusPassed {
		t.Fatalf("status = %q, want passed", got.Status)
	}
	if got.XPAwarded != 90 {
		t.Fatalf("xp_awarded = %d, want 90", got.XPAwarded)
	}
}

func TestCountByUserAndStatus(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	attempts := NewAttemptRepo(gdb, log)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "count_user")
	other := testutil.SeedUser(t, gdb, "count_other")
	challenge := testutil.SeedChallenge(t, gdb, "c1", 100)

	for i := 0; i < 3; i++ {
		testutil.SeedAttempt(t, gdb, user.ID, challenge.ID, types.AttemptStatusPassed, testutil.IntPtr(80))
	}
	testutil.SeedAttempt(t, gdb, user.ID, challenge.ID, types.AttemptStatusFailed, testutil.IntPtr(10))
	testutil.SeedAttempt(t, gdb, other.ID, challenge.ID, types.AttemptStatusPassed, testutil.IntPtr(80))

	count, err := attempts.CountByUserAndStatus(ctx, nil, user.ID, types.AttemptStatusPassed)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("passed count = %d, want 3", count)
	}
}

func TestGetTerminalSubmitTimes(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	attempts := NewAttemptRepo(gdb, log)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "times_user")
	challenge := testutil.SeedChallenge(t, gdb, "c1", 100)

	testutil.SeedAttempt(t, gdb, user.ID, challenge.ID, types.AttemptStatusPassed, testutil.IntPtr(90))
	testutil.SeedAttempt(t, gdb, user.ID, challenge.ID, types.AttemptStatusFailed, testutil.IntPtr(20))
	// Non-terminal attempts are excluded.
	testutil.SeedAttempt(t, gdb, user.ID, challenge.ID, types.AttemptStatusStarted, nil)
	testutil.SeedAttempt(t, gdb, user.ID, challenge.ID, types.AttemptStatusSubmitted, testutil.IntPtr(50))

	times, err := attempts.GetTerminalSubmitTimes(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("get times: %v", err)
	}
	if len(times) != 2 {
		t.Fatalf("terminal submit times = %d, want 2", len(times))
	}
}

func TestGetStuckSubmitted(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	attempts := NewAttemptRepo(gdb, log)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "stuck_user")
	challenge := testutil.SeedChallenge(t, gdb, "c1", 100)

	old := testutil.SeedAttempt(t, gdb, user.ID, challenge.ID, types.AttemptStatusSubmitted, testutil.IntPtr(50))
	stale := time.Now().UTC().Add(-10 * time.Minute)
	if err := gdb.Model(&types.Attempt{}).Where("id = ?", old.ID).
		UpdateColumn("submitted_at", stale).Error; err != nil {
		t.Fatalf("age attempt: %v", err)
	}
	// Fresh submissions and terminal attempts are not stuck.
	testutil.SeedAttempt(t, gdb, user.ID, challenge.ID, types.AttemptStatusSubmitted, testutil.IntPtr(50))
	testutil.SeedAttempt(t, gdb, user.ID, challenge.ID, types.AttemptStatusPassed, testutil.IntPtr(90))

	stuck, err := attempts.GetStuckSubmitted(ctx, nil, time.Now().UTC().Add(-5*time.Minute), 10)
	if err != nil {
		t.Fatalf("get stuck: %v", err)
	}
	if len(stuck) != 1 {
		t.Fatalf("stuck attempts = %d, want 1", len(stuck))
	}
	if stuck[0].ID != old.ID {
		t.Fatalf("wrong attempt flagged as stuck: %s", stuck[0].ID)
	}
}
