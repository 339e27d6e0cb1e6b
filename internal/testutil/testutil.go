// Package testutil provides shared helpers for database-backed tests. With
// TEST_POSTGRES_DSN set the tests run against that database; otherwise each
// test gets an isolated in-memory sqlite database, which the models migrate
// onto cleanly because they avoid dialect-specific column defaults.
package testutil

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/skillquest/skillquest-backend/internal/data/db"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/types"
)

func Logger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

func DB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &gorm.Config{
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var (
		gdb      *gorm.DB
		err      error
		shared   bool
		pgDSN    = os.Getenv("TEST_POSTGRES_DSN")
		memoryID = uuid.New().String()
	)
	if pgDSN != "" {
		gdb, err = gorm.Open(postgres.Open(pgDSN), cfg)
		shared = true
	} else {
		gdb, err = gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", memoryID)), cfg)
	}
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	t.Cleanup(func() {
		if shared {
			gdb.Exec("DELETE FROM user_badges")
			gdb.Exec("DELETE FROM xp_ledger")
			gdb.Exec("DELETE FROM job_runs")
			gdb.Exec("DELETE FROM attempts")
			gdb.Exec("DELETE FROM badges")
			gdb.Exec("DELETE FROM challenges")
			gdb.Exec("DELETE FROM users")
		}
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// RequirePostgres skips tests that only make sense against a real postgres,
// such as true write concurrency.
func RequirePostgres(t *testing.T) {
	t.Helper()
	if os.Getenv("TEST_POSTGRES_DSN") == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
}

func IntPtr(v int) *int { return &v }

func SeedUser(t *testing.T, gdb *gorm.DB, username string) *types.User {
	t.Helper()
	user := &types.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Level:        1,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func SeedChallenge(t *testing.T, gdb *gorm.DB, title string, xp int) *types.Challenge {
	t.Helper()
	challenge := &types.Challenge{
		ID:          uuid.New(),
		Title:       title,
		Description: "test challenge",
		XP:          xp,
		Difficulty:  types.DifficultyEasy,
		Published:   true,
	}
	if err := gdb.Create(challenge).Error; err != nil {
		t.Fatalf("seed challenge %s: %v", title, err)
	}
	return challenge
}

func SeedAttempt(t *testing.T, gdb *gorm.DB, userID, challengeID uuid.UUID, status string, score *int) *types.Attempt {
	t.Helper()
	now := time.Now().UTC()
	attempt := &types.Attempt{
		ID:          uuid.New(),
		UserID:      userID,
		ChallengeID: challengeID,
		Status:      status,
		Score:       score,
		StartedAt:   now,
	}
	if status != types.AttemptStatusStarted {
		attempt.SubmittedAt = &now
	}
	if err := gdb.Create(attempt).Error; err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
	return attempt
}

func SeedBadge(t *testing.T, gdb *gorm.DB, name string, condition string) *types.Badge {
	t.Helper()
	badge := &types.Badge{
		ID:          uuid.New(),
		Name:        name,
		Description: "test badge",
		Condition:   datatypes.JSON(condition),
	}
	if err := gdb.Create(badge).Error; err != nil {
		t.Fatalf("seed badge %s: %v", name, err)
	}
	return badge
}
