package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kevinluu/screenline/internal/domain"
)

// Sentinel errors for the task queue.
var (
	ErrQueueUnavailable = errors.New("task queue unavailable")
	ErrTaskNotFound     = errors.New("task not found")
)

// Retention windows for finished task records.
const (
	completedRetention = 24 * time.Hour
	failedRetention    = 7 * 24 * time.Hour
)

// TaskRecord is the durable queue-side view of a task: the payload plus
// attempt tracking, progress checkpoints, and the last failure.
type TaskRecord struct {
	Task domain.AnalysisTask `json:"task"`

	State       domain.TaskState `json:"state"`
	Attempts    int              `json:"attempts"`
	MaxAttempts int              `json:"max_attempts"`

	Progress   int    `json:"progress"`
	Checkpoint string `json:"checkpoint,omitempty"`
	LastError  string `json:"last_error,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Config holds the queue's retry policy.
type Config struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// TaskQueue is a reliable Redis-list queue with delayed retries.
// Claim moves a task ID from the pending list to the processing list in one
// step, so a crashed worker leaves the ID recoverable. Retries park the ID
// in a sorted set scored by its due time; a promoter loop moves due IDs back
// to pending. Dead tasks keep their record for a week for inspection.
type TaskQueue struct {
	rdb         *redis.Client
	maxAttempts int
	backoffBase time.Duration
}

const (
	pendingKey    = "screenline:queue:pending"
	processingKey = "screenline:queue:processing"
	delayedKey    = "screenline:queue:delayed"
	deadKey       = "screenline:queue:dead"
	taskKeyPrefix = "screenline:task:"
)

// NewTaskQueue creates a TaskQueue on an existing Redis client.
func NewTaskQueue(rdb *redis.Client, cfg Config) *TaskQueue {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = 5 * time.Second
	}
	return &TaskQueue{rdb: rdb, maxAttempts: maxAttempts, backoffBase: backoffBase}
}

func taskKey(taskID string) string {
	return taskKeyPrefix + taskID
}

// Enqueue stores the task record and pushes its ID onto the pending list.
// This is the sole programmatic entry point into the analysis core.
func (q *TaskQueue) Enqueue(ctx context.Context, task domain.AnalysisTask) (*TaskRecord, error) {
	now := time.Now().UTC()
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = now
	}

	rec := &TaskRecord{
		Task:        task,
		State:       domain.TaskStatePending,
		MaxAttempts: q.maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := q.saveRecord(ctx, rec, 0); err != nil {
		return nil, err
	}
	if err := q.rdb.LPush(ctx, pendingKey, task.TaskID).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return rec, nil
}

// Claim blocks up to timeout for a pending task, atomically moving its ID
// to the processing list. Returns the loaded record with the attempt counter
// already incremented. redis.Nil surfaces as ErrTaskNotFound on timeout.
func (q *TaskQueue) Claim(ctx context.Context, timeout time.Duration) (*TaskRecord, error) {
	taskID, err := q.rdb.BRPopLPush(ctx, pendingKey, processingKey, timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	rec, err := q.GetTask(ctx, taskID)
	if err != nil {
		// Record expired or was never written; drop the orphaned ID.
		_ = q.rdb.LRem(ctx, processingKey, 1, taskID).Err()
		return nil, err
	}

	rec.State = domain.TaskStateProcessing
	rec.Attempts++
	rec.Task.Attempt = rec.Attempts
	rec.UpdatedAt = time.Now().UTC()
	if err := q.saveRecord(ctx, rec, 0); err != nil {
		return nil, err
	}
	return rec, nil
}

// Complete acks the task and retains its record for the completed window.
func (q *TaskQueue) Complete(ctx context.Context, taskID string) error {
	rec, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rec.State = domain.TaskStateCompleted
	rec.Progress = 100
	rec.UpdatedAt = now
	rec.FinishedAt = &now
	if err := q.saveRecord(ctx, rec, completedRetention); err != nil {
		return err
	}

	if err := q.rdb.LRem(ctx, processingKey, 1, taskID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return nil
}

// Fail records a failed attempt. With attempts remaining the task is parked
// in the delayed set with exponential backoff (base, base*2, base*4, ...);
// otherwise it is marked dead and operators must re-enqueue manually.
// Returns whether a retry was scheduled.
func (q *TaskQueue) Fail(ctx context.Context, taskID, reason string) (bool, error) {
	rec, err := q.GetTask(ctx, taskID)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	rec.LastError = reason
	rec.UpdatedAt = now

	if err := q.rdb.LRem(ctx, processingKey, 1, taskID).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	if rec.Attempts < rec.MaxAttempts {
		delay := q.backoff(rec.Attempts)
		rec.State = domain.TaskStatePending
		if err := q.saveRecord(ctx, rec, 0); err != nil {
			return false, err
		}
		due := float64(now.Add(delay).UnixMilli())
		if err := q.rdb.ZAdd(ctx, delayedKey, redis.Z{Score: due, Member: taskID}).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
		}
		return true, nil
	}

	rec.State = domain.TaskStateFailed
	rec.FinishedAt = &now
	if err := q.saveRecord(ctx, rec, failedRetention); err != nil {
		return false, err
	}
	if err := q.rdb.LPush(ctx, deadKey, taskID).Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return false, nil
}

// backoff doubles per completed attempt: attempt 1 retries after base,
// attempt 2 after base*2.
func (q *TaskQueue) backoff(attempts int) time.Duration {
	d := q.backoffBase
	for i := 1; i < attempts; i++ {
		d *= 2
	}
	return d
}

// PromoteDelayed moves every due task ID from the delayed set back to the
// pending list. Returns how many were promoted.
func (q *TaskQueue) PromoteDelayed(ctx context.Context) (int, error) {
	now := strconv.FormatInt(time.Now().UTC().UnixMilli(), 10)
	ids, err := q.rdb.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	promoted := 0
	for _, id := range ids {
		removed, err := q.rdb.ZRem(ctx, delayedKey, id).Result()
		if err != nil {
			return promoted, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
		}
		if removed == 0 {
			// another promoter won the race for this ID
			continue
		}
		if err := q.rdb.LPush(ctx, pendingKey, id).Err(); err != nil {
			return promoted, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
		}
		promoted++
	}
	return promoted, nil
}

// SetProgress records a pipeline checkpoint. Progress only moves forward;
// it has no effect on control flow.
func (q *TaskQueue) SetProgress(ctx context.Context, taskID string, progress int, checkpoint string) error {
	rec, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if progress < rec.Progress {
		return nil
	}
	rec.Progress = progress
	rec.Checkpoint = checkpoint
	rec.UpdatedAt = time.Now().UTC()
	return q.saveRecord(ctx, rec, 0)
}

// GetTask loads a task record by ID.
func (q *TaskQueue) GetTask(ctx context.Context, taskID string) (*TaskRecord, error) {
	raw, err := q.rdb.Get(ctx, taskKey(taskID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	var rec TaskRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("%w: corrupt record for %s: %v", ErrQueueUnavailable, taskID, err)
	}
	return &rec, nil
}

// saveRecord writes the record, optionally with a retention TTL. A zero ttl
// keeps any TTL already on the key.
func (q *TaskQueue) saveRecord(ctx context.Context, rec *TaskRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal task record: %w", err)
	}

	key := taskKey(rec.Task.TaskID)
	if ttl > 0 {
		err = q.rdb.Set(ctx, key, data, ttl).Err()
	} else {
		err = q.rdb.Set(ctx, key, data, redis.KeepTTL).Err()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return nil
}

// Ping verifies the backing store is reachable.
func (q *TaskQueue) Ping(ctx context.Context) error {
	if err := q.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return nil
}
