package repos

import (
	"context"
	"testing"

	"github.com/skillquest/skillquest-backend/internal/testutil"
)

func TestRaiseLevelIsMonotone(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	users := NewUserRepo(gdb, log)
	ctx := context.Background()

	user := testutil.SeedUser(t, gdb, "leveler")

	if err := users.RaiseLevel(ctx, nil, user.ID, 3); err != nil {
		t.Fatalf("raise to 3: %v", err)
	}
	got, err := users.GetByID(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Level != 3 {
		t.Fatalf("level = %d, want 3", got.Level)
	}

	// A stale writer that computed a smaller level cannot lower it.
	if err := users.RaiseLevel(ctx, nil, user.ID, 2); err != nil {
		t.Fatalf("stale raise: %v", err)
	}
	got, err = users.GetByID(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Level != 3 {
		t.Fatalf("level after stale raise = %d, want 3", got.Level)
	}
}

func TestUniquenessLookups(t *testing.T) {
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	users := NewUserRepo(gdb, log)
	ctx := context.Background()

	testutil.SeedUser(t, gdb, "taken")

	exists, err := users.UsernameExists(ctx, nil, "taken")
	if err != nil {
		t.Fatalf("username exists: %v", err)
	}
	if !exists {
		t.Fatal("seeded username should exist")
	}

	exists, err = users.EmailExists(ctx, nil, "taken@example.com")
	if err != nil {
		t.Fatalf("email exists: %v", err)
	}
	if !exists {
		t.Fatal("seeded email should exist")
	}

	exists, err = users.UsernameExists(ctx, nil, "free")
	if err != nil {
		t.Fatalf("free username: %v", err)
	}
	if exists {
		t.Fatal("unseeded username should not exist")
	}

	user, err := users.GetByEmail(ctx, nil, "nobody@example.com")
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if user != nil {
		t.Fatal("missing user lookup must return nil")
	}
}
