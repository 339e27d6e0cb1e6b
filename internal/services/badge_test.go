package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/skillquest/skillquest-backend/internal/repos"
	"github.com/skillquest/skillquest-backend/internal/testutil"
	"github.com/skillquest/skillquest-backend/internal/types"
)

func TestParseCondition(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    BadgeCondition
		wantErr bool
	}{
		{
			name: "xp threshold",
			raw:  `{"type":"xp","threshold":1000}`,
			want: BadgeCondition{Type: ConditionXP, Threshold: 1000},
		},
		{
			name: "attempt count with status",
			raw:  `{"type":"attempt_count","count":10,"status":"passed"}`,
			want: BadgeCondition{Type: ConditionAttemptCount, Count: 10, Status: "passed"},
		},
		{
			name: "consecutive days",
			raw:  `{"type":"consecutive_days","days":7}`,
			want: BadgeCondition{Type: ConditionConsecutiveDays, Days: 7},
		},
		{
			name:    "missing type",
			raw:     `{"threshold":100}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			raw:     `{"type":`,
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCondition([]byte(tc.raw))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCondition(%q): %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("ParseCondition(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 30, 0, 0, time.UTC)
}

func TestStreakEndingAtLatest(t *testing.T) {
	cases := []struct {
		name  string
		times []time.Time
		want  int
	}{
		{"empty", nil, 0},
		{"single day", []time.Time{day(2026, 3, 10, 9)}, 1},
		{
			"same day twice counts once",
			[]time.Time{day(2026, 3, 10, 9), day(2026, 3, 10, 22)},
			1,
		},
		{
			"three consecutive days",
			[]time.Time{day(2026, 3, 8, 9), day(2026, 3, 9, 13), day(2026, 3, 10, 23)},
			3,
		},
		{
			"gap resets to latest run",
			[]time.Time{day(2026, 3, 1, 9), day(2026, 3, 2, 9), day(2026, 3, 9, 9), day(2026, 3, 10, 9)},
			2,
		},
		{
			"old streak does not count",
			[]time.Time{day(2026, 2, 1, 9), day(2026, 2, 2, 9), day(2026, 2, 3, 9), day(2026, 3, 10, 9)},
			1,
		},
		{
			"unordered input",
			[]time.Time{day(2026, 3, 10, 9), day(2026, 3, 8, 9), day(2026, 3, 9, 9)},
			3,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := streakEndingAtLatest(tc.times); got != tc.want {
				t.Fatalf("streakEndingAtLatest = %d, want %d", got, tc.want)
			}
		})
	}
}

func newBadgeServiceForTest(t *testing.T) (BadgeService, *testFixtures) {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	f := &testFixtures{
		db:        gdb,
		badge:     repos.NewBadgeRepo(gdb, log),
		userBadge: repos.NewUserBadgeRepo(gdb, log),
		attempt:   repos.NewAttemptRepo(gdb, log),
		ledger:    repos.NewLedgerRepo(gdb, log),
	}
	svc := NewBadgeService(gdb, log, f.badge, f.userBadge, f.attempt, f.ledger)
	return svc, f
}

func TestEvaluateXPBadge(t *testing.T) {
	svc, f := newBadgeServiceForTest(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, f.db, "xp_hunter")
	testutil.SeedBadge(t, f.db, "Centurion", `{"type":"xp","threshold":100}`)

	awarded, err := svc.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate below threshold: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("expected no badges below threshold, got %d", len(awarded))
	}

	challenge := testutil.SeedChallenge(t, f.db, "c1", 150)
	attempt := testutil.SeedAttempt(t, f.db, user.ID, challenge.ID, types.AttemptStatusPassed, testutil.IntPtr(100))
	if _, _, err := f.ledger.ApplyAward(ctx, nil, user.ID, attempt.ID, 150); err != nil {
		t.Fatalf("apply award: %v", err)
	}

	awarded, err = svc.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate above threshold: %v", err)
	}
	if len(awarded) != 1 {
		t.Fatalf("expected exactly one badge, got %d", len(awarded))
	}

	// Redelivery awards nothing a second time.
	awarded, err = svc.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("expected no new badges on re-evaluate, got %d", len(awarded))
	}

	count, err := f.userBadge.CountByUserID(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("count user badges: %v", err)
	}
	if count != 1 {
		t.Fatalf("user should hold exactly one badge, got %d", count)
	}
}

func TestEvaluateAttemptCountBadge(t *testing.T) {
	svc, f := newBadgeServiceForTest(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, f.db, "counter")
	challenge := testutil.SeedChallenge(t, f.db, "c1", 50)
	testutil.SeedBadge(t, f.db, "Hat Trick", `{"type":"attempt_count","count":3,"status":"passed"}`)

	for i := 0; i < 2; i++ {
		testutil.SeedAttempt(t, f.db, user.ID, challenge.ID, types.AttemptStatusPassed, testutil.IntPtr(90))
	}
	// Failed attempts do not count toward a passed-status condition.
	testutil.SeedAttempt(t, f.db, user.ID, challenge.ID, types.AttemptStatusFailed, testutil.IntPtr(10))

	awarded, err := svc.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate at two passes: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("expected no badge at two passes, got %d", len(awarded))
	}

	testutil.SeedAttempt(t, f.db, user.ID, challenge.ID, types.AttemptStatusPassed, testutil.IntPtr(95))
	awarded, err = svc.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate at three passes: %v", err)
	}
	if len(awarded) != 1 {
		t.Fatalf("expected badge at three passes, got %d", len(awarded))
	}
}

func TestEvaluateSkipsUnknownAndBrokenConditions(t *testing.T) {
	svc, f := newBadgeServiceForTest(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, f.db, "edge")
	testutil.SeedBadge(t, f.db, "Mystery", `{"type":"lunar_phase","days":3}`)
	testutil.SeedBadge(t, f.db, "Broken", `{"threshold":5}`)

	awarded, err := svc.Evaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("evaluate with unknown conditions: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("unknown conditions must never award, got %d", len(awarded))
	}
}

func TestBadgeCreateRejectsInvalidCondition(t *testing.T) {
	svc, _ := newBadgeServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &types.Badge{
		Name:        "Bad",
		Description: "no type tag",
		Condition:   []byte(`{"threshold":1}`),
	})
	if err == nil {
		t.Fatal("expected error for condition without type tag")
	}
}

type testFixtures struct {
	db        *gorm.DB
	badge     repos.BadgeRepo
	userBadge repos.UserBadgeRepo
	attempt   repos.AttemptRepo
	ledger    repos.LedgerRepo
}
