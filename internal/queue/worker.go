package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kevinluu/screenline/internal/logger"
)

// Handler processes one claimed task. A returned error counts as a failed
// attempt and triggers the queue's retry policy.
type Handler func(ctx context.Context, rec *TaskRecord) error

// taskSource is the queue surface the pool drives.
type taskSource interface {
	Claim(ctx context.Context, timeout time.Duration) (*TaskRecord, error)
	Complete(ctx context.Context, taskID string) error
	Fail(ctx context.Context, taskID, reason string) (bool, error)
	PromoteDelayed(ctx context.Context) (int, error)
}

// PoolConfig bounds the worker pool.
type PoolConfig struct {
	Concurrency int
	RateLimit   int           // max task starts per window, 0 disables
	RateWindow  time.Duration // rolling window for RateLimit
}

// Pool pulls tasks from the queue with bounded concurrency and a rolling
// rate limit on task starts, so a burst of uploads can not flood the
// scoring oracle.
type Pool struct {
	queue   taskSource
	handler Handler
	cfg     PoolConfig
	limiter *rollingLimiter

	claimTimeout time.Duration
	wg           sync.WaitGroup
}

// NewPool creates a worker pool. Concurrency defaults to 2.
func NewPool(queue *TaskQueue, handler Handler, cfg PoolConfig) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}

	var limiter *rollingLimiter
	if cfg.RateLimit > 0 {
		limiter = newRollingLimiter(cfg.RateLimit, cfg.RateWindow)
	}

	return &Pool{
		queue:        queue,
		handler:      handler,
		cfg:          cfg,
		limiter:      limiter,
		claimTimeout: 5 * time.Second,
	}
}

// Run starts the workers and the delayed-task promoter and blocks until the
// context is cancelled and all in-flight tasks have finished.
func (p *Pool) Run(ctx context.Context) {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "worker")
	log.WithFields(logger.Fields{
		"concurrency": p.cfg.Concurrency,
		"rate_limit":  p.cfg.RateLimit,
	}).Info("Worker pool started")

	p.wg.Add(1)
	go p.promoteLoop(ctx)

	for i := 0; i < p.cfg.Concurrency; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx, i+1)
	}

	p.wg.Wait()
	log.Info("Worker pool stopped")
}

func (p *Pool) workerLoop(ctx context.Context, n int) {
	defer p.wg.Done()
	log := logger.FromContext(ctx).WithFields(logger.Fields{
		logger.FieldComponent: "worker",
		"worker":              n,
	})

	for {
		if ctx.Err() != nil {
			return
		}

		rec, err := p.queue.Claim(ctx, p.claimTimeout)
		if err != nil {
			if errors.Is(err, ErrTaskNotFound) || ctx.Err() != nil {
				continue
			}
			log.WithError(err).Error("Failed to claim task")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		// The limit applies to task starts, not claim polls; a claimed
		// task always runs, or it would be left on the processing list.
		if p.limiter != nil {
			p.limiter.wait(ctx)
		}
		p.process(ctx, log, rec)
	}
}

func (p *Pool) process(ctx context.Context, log *logger.Logger, rec *TaskRecord) {
	taskCtx := logger.WithFields(ctx, logger.Fields{
		logger.FieldTaskID:      rec.Task.TaskID,
		logger.FieldCandidateID: rec.Task.CandidateID,
		logger.FieldAttempt:     rec.Attempts,
	})
	start := time.Now()

	err := p.handler(taskCtx, rec)
	if err == nil {
		if cErr := p.queue.Complete(ctx, rec.Task.TaskID); cErr != nil {
			log.WithError(cErr).WithField(logger.FieldTaskID, rec.Task.TaskID).Error("Failed to ack task")
		}
		log.WithFields(logger.Fields{
			logger.FieldTaskID:     rec.Task.TaskID,
			logger.FieldDurationMs: time.Since(start).Milliseconds(),
		}).Info("Task completed")
		return
	}

	retrying, fErr := p.queue.Fail(ctx, rec.Task.TaskID, err.Error())
	if fErr != nil {
		log.WithError(fErr).WithField(logger.FieldTaskID, rec.Task.TaskID).Error("Failed to record task failure")
		return
	}
	log.WithError(err).WithFields(logger.Fields{
		logger.FieldTaskID:  rec.Task.TaskID,
		logger.FieldAttempt: rec.Attempts,
		"retrying":          retrying,
	}).Error("Task failed")
}

// promoteLoop moves due delayed tasks back to the pending list.
func (p *Pool) promoteLoop(ctx context.Context) {
	defer p.wg.Done()
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "promoter")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.queue.PromoteDelayed(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.WithError(err).Error("Failed to promote delayed tasks")
				}
				continue
			}
			if n > 0 {
				log.WithField("promoted", n).Debug("Promoted delayed tasks")
			}
		}
	}
}

// rollingLimiter admits at most limit starts per rolling window.
type rollingLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	starts []time.Time
}

func newRollingLimiter(limit int, window time.Duration) *rollingLimiter {
	return &rollingLimiter{limit: limit, window: window}
}

// wait blocks until a start slot is available or the context is cancelled.
// Returns false only on cancellation.
func (l *rollingLimiter) wait(ctx context.Context) bool {
	for {
		l.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-l.window)
		kept := l.starts[:0]
		for _, t := range l.starts {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		l.starts = kept

		if len(l.starts) < l.limit {
			l.starts = append(l.starts, now)
			l.mu.Unlock()
			return true
		}
		retryAt := l.starts[0].Add(l.window)
		l.mu.Unlock()

		select {
		case <-time.After(time.Until(retryAt)):
		case <-ctx.Done():
			return false
		}
	}
}
