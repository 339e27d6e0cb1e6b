package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/skillquest/skillquest-backend/internal/pkg/backoff"
	apperrors "github.com/skillquest/skillquest-backend/internal/pkg/errors"
	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
	"github.com/skillquest/skillquest-backend/internal/queue"
	"github.com/skillquest/skillquest-backend/internal/repos"
	"github.com/skillquest/skillquest-backend/internal/types"
)

type DispatcherConfig struct {
	Workers           int
	MaxAttempts       int
	BaseBackoff       time.Duration
	MaxBackoff        time.Duration
	DequeueTimeout    time.Duration
	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
	ReconcileBatch    int
}

func (c *DispatcherConfig) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.DequeueTimeout <= 0 {
		c.DequeueTimeout = 2 * time.Second
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = 1 * time.Minute
	}
	if c.ReconcileAfter <= 0 {
		c.ReconcileAfter = 5 * time.Minute
	}
	if c.ReconcileBatch <= 0 {
		c.ReconcileBatch = 100
	}
}

// Dispatcher pulls award jobs off the queue and runs them through the
// pipeline on a fixed worker pool. Delivery is at-least-once: a failed job
// is re-enqueued with backoff until its retry budget runs out, then
// dead-lettered. It never cancels an in-flight run.
type Dispatcher struct {
	log         *logger.Logger
	db          *gorm.DB
	queue       queue.AwardQueue
	pipeline    AwardPipeline
	jobRunRepo  repos.JobRunRepo
	attemptRepo repos.AttemptRepo
	cfg         DispatcherConfig

	group *errgroup.Group
}

func NewDispatcher(
	db *gorm.DB,
	baseLog *logger.Logger,
	q queue.AwardQueue,
	pipeline AwardPipeline,
	jobRunRepo repos.JobRunRepo,
	attemptRepo repos.AttemptRepo,
	cfg DispatcherConfig,
) *Dispatcher {
	cfg.applyDefaults()
	return &Dispatcher{
		log:         baseLog.With("service", "Dispatcher"),
		db:          db,
		queue:       q,
		pipeline:    pipeline,
		jobRunRepo:  jobRunRepo,
		attemptRepo: attemptRepo,
		cfg:         cfg,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	d.group = g
	for i := 0; i < d.cfg.Workers; i++ {
		worker := i
		g.Go(func() error {
			d.runWorker(gctx, worker)
			return nil
		})
	}
	g.Go(func() error {
		d.runReconciler(gctx)
		return nil
	})
	d.log.Info("dispatcher started", "workers", d.cfg.Workers)
}

// Wait blocks until all workers have exited after context cancellation.
func (d *Dispatcher) Wait() {
	if d.group != nil {
		_ = d.group.Wait()
	}
}

func (d *Dispatcher) runWorker(ctx context.Context, worker int) {
	log := d.log.With("worker", worker)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job, err := d.queue.Dequeue(ctx, d.cfg.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("dequeue failed", "error", err)
			_ = backoff.Sleep(ctx, backoff.Jitter(d.cfg.BaseBackoff))
			continue
		}
		if job == nil {
			continue
		}
		d.handle(ctx, log, *job)
	}
}

func (d *Dispatcher) handle(ctx context.Context, log *logger.Logger, job queue.Job) {
	log = log.With("attempt_id", job.AttemptID, "delivery", job.Attempts+1)
	d.markJobRun(ctx, job, map[string]interface{}{
		"status":     types.JobStatusRunning,
		"attempts":   job.Attempts + 1,
		"started_at": time.Now().UTC(),
	})

	err := d.pipeline.Process(ctx, job.AttemptID)
	if err == nil {
		d.markJobRun(ctx, job, map[string]interface{}{
			"status":      types.JobStatusSucceeded,
			"finished_at": time.Now().UTC(),
		})
		return
	}
	if ctx.Err() != nil {
		// Shutdown mid-run; the job was consumed, so put it back untouched
		// for the next process to redeliver.
		d.requeue(job, err)
		return
	}

	job.Attempts++
	// A timeout can wrap a permanent sentinel in its chain when a lookup was
	// cut short; never dead-letter work the backend may still accept.
	permanent := !backoff.IsRetryableError(err) &&
		(errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidState))
	if permanent || job.Attempts >= d.cfg.MaxAttempts {
		log.Error("award job dead-lettered", "error", err, "attempts", job.Attempts)
		if dlErr := d.queue.DeadLetter(context.WithoutCancel(ctx), job, err.Error()); dlErr != nil {
			log.Error("dead-letter write failed", "error", dlErr)
		}
		d.markJobRun(ctx, job, map[string]interface{}{
			"status":      types.JobStatusDeadLetter,
			"last_error":  err.Error(),
			"finished_at": time.Now().UTC(),
		})
		return
	}

	log.Warn("award job failed, retrying", "error", err, "attempts", job.Attempts)
	d.markJobRun(ctx, job, map[string]interface{}{
		"status":     types.JobStatusFailed,
		"last_error": err.Error(),
	})
	_ = backoff.Sleep(ctx, backoff.Jitter(backoff.Exponential(job.Attempts, d.cfg.BaseBackoff, d.cfg.MaxBackoff)))
	d.requeue(job, err)
}

func (d *Dispatcher) requeue(job queue.Job, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.queue.Enqueue(ctx, job); err != nil {
		// The attempt stays submitted; the reconciliation sweep will
		// re-enqueue it once it notices the missing terminal state.
		d.log.Error("re-enqueue failed, relying on reconciliation",
			"attempt_id", job.AttemptID, "cause", cause, "error", err)
	}
}

// runReconciler is the safety net behind the at-least-once queue: any
// attempt still submitted well past its enqueue went missing (crash between
// commit and enqueue, dropped payload, lost redis node) and gets re-enqueued.
// Double delivery is harmless; the pipeline is idempotent.
func (d *Dispatcher) runReconciler(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.reconcile(ctx)
		}
	}
}

func (d *Dispatcher) reconcile(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-d.cfg.ReconcileAfter)
	stuck, err := d.attemptRepo.GetStuckSubmitted(ctx, nil, cutoff, d.cfg.ReconcileBatch)
	if err != nil {
		d.log.Warn("reconcile query failed", "error", err)
		return
	}
	for _, attempt := range stuck {
		if err := d.queue.Enqueue(ctx, queue.Job{AttemptID: attempt.ID}); err != nil {
			d.log.Warn("reconcile enqueue failed", "attempt_id", attempt.ID, "error", err)
			return
		}
		d.log.Info("re-enqueued stuck attempt", "attempt_id", attempt.ID, "submitted_at", attempt.SubmittedAt)
	}
}

func (d *Dispatcher) markJobRun(ctx context.Context, job queue.Job, updates map[string]interface{}) {
	run, err := d.jobRunRepo.GetLatestByAttempt(ctx, nil, job.AttemptID)
	if err != nil || run == nil {
		return
	}
	if err := d.jobRunRepo.UpdateFields(ctx, nil, run.ID, updates); err != nil {
		d.log.Warn("job run update failed", "attempt_id", job.AttemptID, "error", err)
	}
}
