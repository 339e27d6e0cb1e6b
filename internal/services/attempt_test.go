package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/queue"
	"github.com/skillquest/skillquest-backend/internal/repos"
	"github.com/skillquest/skillquest-backend/internal/testutil"
	"github.com/skillquest/skillquest-backend/internal/types"
)

// memQueue stands in for the redis-backed award queue in tests.
type memQueue struct {
	jobs chan queue.Job

	mu   sync.Mutex
	dead []queue.DeadLetter
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: make(chan queue.Job, 128)}
}

func (q *memQueue) Enqueue(ctx context.Context, job queue.Job) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return errors.New("queue full")
	}
}

func (q *memQueue) Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error) {
	select {
	case job := <-q.jobs:
		return &job, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *memQueue) DeadLetter(ctx context.Context, job queue.Job, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, queue.DeadLetter{
		AttemptID: job.AttemptID,
		Attempts:  job.Attempts,
		Reason:    reason,
		FailedAt:  time.Now().UTC(),
	})
	return nil
}

func (q *memQueue) Len(ctx context.Context) (int64, error) {
	return int64(len(q.jobs)), nil
}

func (q *memQueue) deadLetters() []queue.DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]queue.DeadLetter, len(q.dead))
	copy(out, q.dead)
	return out
}

type attemptEnv struct {
	db      *gorm.DB
	queue   *memQueue
	jobRuns repos.JobRunRepo
	svc     AttemptService
}

func newAttemptEnv(t *testing.T) *attemptEnv {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	q := newMemQueue()
	jobRuns := repos.NewJobRunRepo(gdb, log)
	svc := NewAttemptService(gdb, log,
		repos.NewAttemptRepo(gdb, log),
		repos.NewChallengeRepo(gdb, log),
		jobRuns, q)
	return &attemptEnv{db: gdb, queue: q, jobRuns: jobRuns, svc: svc}
}

func TestStartAttempt(t *testing.T) {
	env := newAttemptEnv(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, env.db, "starter")
	challenge := testutil.SeedChallenge(t, env.db, "c1", 100)

	attempt, err := env.svc.Start(ctx, user.ID, challenge.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if attempt.Status != types.AttemptStatusStarted {
		t.Fatalf("status = %q, want started", attempt.Status)
	}
	if attempt.UserID != user.ID || attempt.ChallengeID != challenge.ID {
		t.Fatal("attempt not bound to user and challenge")
	}
}

func TestStartRejectsUnpublishedChallenge(t *testing.T) {
	env := newAttemptEnv(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, env.db, "starter")
	challenge := testutil.SeedChallenge(t, env.db, "hidden", 100)
	if err := env.db.Model(&types.Challenge{}).Where("id = ?", challenge.ID).
		UpdateColumn("published", false).Error; err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if _, err := env.svc.Start(ctx, user.ID, challenge.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("unpublished challenge: got %v, want ErrNotFound", err)
	}
	if _, err := env.svc.Start(ctx, user.ID, uuid.New()); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("missing challenge: got %v, want ErrNotFound", err)
	}
}

func TestSubmitEnqueuesAwardJob(t *testing.T) {
	env := newAttemptEnv(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, env.db, "submitter")
	challenge := testutil.SeedChallenge(t, env.db, "c1", 100)
	attempt, err := env.svc.Start(ctx, user.ID, challenge.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	updated, err := env.svc.Submit(ctx, user.ID, attempt.ID, 85, "solution text")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if updated.Status != types.AttemptStatusSubmitted {
		t.Fatalf("status = %q, want submitted", updated.Status)
	}
	if updated.Score == nil || *updated.Score != 85 {
		t.Fatalf("score = %v, want 85", updated.Score)
	}
	if updated.SubmittedAt == nil {
		t.Fatal("submitted_at not set")
	}

	job, err := env.queue.Dequeue(ctx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if job == nil || job.AttemptID != attempt.ID {
		t.Fatalf("expected award job for attempt %s, got %+v", attempt.ID, job)
	}

	run, err := env.jobRuns.GetLatestByAttempt(ctx, nil, attempt.ID)
	if err != nil {
		t.Fatalf("get job run: %v", err)
	}
	if run == nil {
		t.Fatal("job run record not created")
	}
	if run.Status != types.JobStatusQueued {
		t.Fatalf("job run status = %q, want queued", run.Status)
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newAttemptEnv(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, env.db, "validator")
	intruder := testutil.SeedUser(t, env.db, "intruder")
	challenge := testutil.SeedChallenge(t, env.db, "c1", 100)
	attempt, err := env.svc.Start(ctx, user.ID, challenge.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := env.svc.Submit(ctx, user.ID, attempt.ID, 101, ""); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("score 101: got %v, want ErrInvalidArgument", err)
	}
	if _, err := env.svc.Submit(ctx, user.ID, attempt.ID, -1, ""); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("score -1: got %v, want ErrInvalidArgument", err)
	}
	if _, err := env.svc.Submit(ctx, intruder.ID, attempt.ID, 50, ""); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("other user's attempt: got %v, want ErrUnauthorized", err)
	}
	if _, err := env.svc.Submit(ctx, user.ID, uuid.New(), 50, ""); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("missing attempt: got %v, want ErrNotFound", err)
	}

	terminal := testutil.SeedAttempt(t, env.db, user.ID, challenge.ID, types.AttemptStatusPassed, testutil.IntPtr(90))
	if _, err := env.svc.Submit(ctx, user.ID, terminal.ID, 50, ""); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("terminal attempt: got %v, want ErrInvalidState", err)
	}
}

func TestResubmitBeforeScoringOverwrites(t *testing.T) {
	env := newAttemptEnv(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, env.db, "resubmitter")
	challenge := testutil.SeedChallenge(t, env.db, "c1", 100)
	attempt, err := env.svc.Start(ctx, user.ID, challenge.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := env.svc.Submit(ctx, user.ID, attempt.ID, 50, "draft"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	updated, err := env.svc.Submit(ctx, user.ID, attempt.ID, 80, "final")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if updated.Score == nil || *updated.Score != 80 {
		t.Fatalf("score = %v, want 80 after resubmit", updated.Score)
	}
	if updated.Solution != "final" {
		t.Fatalf("solution = %q, want final", updated.Solution)
	}
}
