package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/skillquest/skillquest-backend/internal/pkg/logger"
)

const (
	queueKey      = "award:queue"
	deadLetterKey = "award:dead_letter"
)

// Job is the unit of work the dispatcher hands to pipeline workers. The
// queue only references the attempt; all state lives in the database, which
// is what makes redelivery safe.
type Job struct {
	AttemptID uuid.UUID `json:"attempt_id"`
	Attempts  int       `json:"attempts"`
}

type DeadLetter struct {
	AttemptID uuid.UUID `json:"attempt_id"`
	Attempts  int       `json:"attempts"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

// AwardQueue is an at-least-once delivery channel. It guarantees neither
// ordering nor exactly-once; the pipeline's idempotency carries that load.
type AwardQueue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks up to timeout and returns nil when nothing arrived.
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
	DeadLetter(ctx context.Context, job Job, reason string) error
	Len(ctx context.Context) (int64, error)
}

type redisAwardQueue struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewAwardQueue(log *logger.Logger, rdb *goredis.Client) AwardQueue {
	return &redisAwardQueue{
		log: log.With("service", "AwardQueue"),
		rdb: rdb,
	}
}

func (q *redisAwardQueue) Enqueue(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, queueKey, raw).Err()
}

func (q *redisAwardQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	vals, err := q.rdb.BRPop(ctx, timeout, queueKey).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(vals) != 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(vals[1]), &job); err != nil {
		q.log.Warn("dropping malformed award job payload", "payload", vals[1], "error", err)
		return nil, nil
	}
	return &job, nil
}

func (q *redisAwardQueue) DeadLetter(ctx context.Context, job Job, reason string) error {
	raw, err := json.Marshal(DeadLetter{
		AttemptID: job.AttemptID,
		Attempts:  job.Attempts,
		Reason:    reason,
		FailedAt:  time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, deadLetterKey, raw).Err()
}

func (q *redisAwardQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, queueKey).Result()
}
