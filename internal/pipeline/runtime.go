package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kevinluu/screenline/internal/domain"
	"github.com/kevinluu/screenline/internal/logger"
	"github.com/kevinluu/screenline/internal/queue"
)

// RuntimeConfig holds the queue connection and worker settings.
type RuntimeConfig struct {
	RedisURL string

	MaxAttempts int
	BackoffBase time.Duration

	Concurrency int
	RateLimit   int
	RateWindow  time.Duration
}

// Runtime owns the queue client, the worker pool, and their lifecycle.
// It is constructed explicitly and passed to whatever composes the process;
// there are no package-level singletons.
type Runtime struct {
	rdb      *redis.Client
	queue    *queue.TaskQueue
	pool     *queue.Pool
	analyzer *Analyzer

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

// NewRuntime connects to the queue backing store and wires the worker pool
// to the analyzer. The pool does not start until Start is called.
func NewRuntime(cfg RuntimeConfig, analyzer *Analyzer) (*Runtime, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	q := queue.NewTaskQueue(rdb, queue.Config{
		MaxAttempts: cfg.MaxAttempts,
		BackoffBase: cfg.BackoffBase,
	})

	rt := &Runtime{
		rdb:      rdb,
		queue:    q,
		analyzer: analyzer,
	}

	rt.pool = queue.NewPool(q, rt.handleTask, queue.PoolConfig{
		Concurrency: cfg.Concurrency,
		RateLimit:   cfg.RateLimit,
		RateWindow:  cfg.RateWindow,
	})

	return rt, nil
}

// Queue exposes the task queue for the ingress surface.
func (rt *Runtime) Queue() *queue.TaskQueue {
	return rt.queue
}

// EnqueueAnalysis creates and enqueues one analysis task for a candidate.
// This is the sole programmatic entry point into the analysis core.
func (rt *Runtime) EnqueueAnalysis(ctx context.Context, candidateID, cvPath, jobID string) (*queue.TaskRecord, error) {
	now := time.Now().UTC()
	task := domain.AnalysisTask{
		TaskID:      domain.NewTaskID(candidateID, now),
		CandidateID: candidateID,
		CVPath:      cvPath,
		JobID:       jobID,
		EnqueuedAt:  now,
	}
	return rt.queue.Enqueue(ctx, task)
}

// Start launches the worker pool in the background.
func (rt *Runtime) Start(ctx context.Context) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	rt.cancel = cancel
	rt.done = make(chan struct{})

	go func() {
		defer close(rt.done)
		rt.pool.Run(runCtx)
	}()
}

// Shutdown stops the workers, waits for in-flight tasks to finish, and
// closes the queue connection.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.mu.Lock()
	cancel := rt.cancel
	done := rt.done
	rt.cancel = nil
	rt.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			logger.FromContext(ctx).Warn("Shutdown deadline hit with tasks still in flight")
		}
	}

	return rt.rdb.Close()
}

// Ping verifies the queue backing store is reachable.
func (rt *Runtime) Ping(ctx context.Context) error {
	return rt.queue.Ping(ctx)
}

func (rt *Runtime) handleTask(ctx context.Context, rec *queue.TaskRecord) error {
	return rt.analyzer.Analyze(ctx, rec.Task, rt.queue)
}
