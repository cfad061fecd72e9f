package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kevinluu/screenline/internal/domain"
)

// fakeSource serves ErrTaskNotFound for a number of claims, then exactly one
// task, then blocks until the context is cancelled.
type fakeSource struct {
	mu          sync.Mutex
	emptyClaims int
	claims      int
	served      bool
}

func (f *fakeSource) Claim(ctx context.Context, timeout time.Duration) (*TaskRecord, error) {
	f.mu.Lock()
	f.claims++
	n := f.claims
	served := f.served
	if n > f.emptyClaims && !served {
		f.served = true
	}
	f.mu.Unlock()

	if n <= f.emptyClaims {
		return nil, ErrTaskNotFound
	}
	if served {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &TaskRecord{
		Task:     domain.AnalysisTask{TaskID: "task-1", CandidateID: "cand-1"},
		State:    domain.TaskStateProcessing,
		Attempts: 1,
	}, nil
}

func (f *fakeSource) Complete(ctx context.Context, taskID string) error { return nil }

func (f *fakeSource) Fail(ctx context.Context, taskID, reason string) (bool, error) {
	return false, nil
}

func (f *fakeSource) PromoteDelayed(ctx context.Context) (int, error) { return 0, nil }

func TestRollingLimiterAdmitsUpToLimit(t *testing.T) {
	l := newRollingLimiter(3, time.Minute)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if !l.wait(ctx) {
			t.Fatalf("wait() = false on start %d", i)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first %d starts took %v, expected immediate admission", 3, elapsed)
	}
}

func TestRollingLimiterBlocksWhenWindowFull(t *testing.T) {
	l := newRollingLimiter(2, 150*time.Millisecond)
	ctx := context.Background()

	l.wait(ctx)
	l.wait(ctx)

	start := time.Now()
	if !l.wait(ctx) {
		t.Fatal("wait() = false, want admission after window slides")
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("third start admitted after %v, expected to block until window slides", elapsed)
	}
}

func TestRollingLimiterReturnsFalseOnCancel(t *testing.T) {
	l := newRollingLimiter(1, time.Minute)
	l.wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if l.wait(ctx) {
		t.Fatal("wait() = true with a full window and cancelled context")
	}
}

func TestBackoffDoublesPerAttempt(t *testing.T) {
	q := NewTaskQueue(nil, Config{BackoffBase: 5 * time.Second})

	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{3, 20 * time.Second},
		{4, 40 * time.Second},
	}
	for _, tc := range cases {
		if got := q.backoff(tc.attempts); got != tc.want {
			t.Errorf("backoff(%d) = %v, want %v", tc.attempts, got, tc.want)
		}
	}
}

func TestRateLimitChargesTaskStartsNotClaimPolls(t *testing.T) {
	src := &fakeSource{emptyClaims: 5}
	handled := make(chan string, 1)
	pool := NewPool(nil, func(ctx context.Context, rec *TaskRecord) error {
		handled <- rec.Task.TaskID
		return nil
	}, PoolConfig{Concurrency: 1, RateLimit: 1, RateWindow: time.Hour})
	pool.queue = src
	pool.claimTimeout = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	// With a budget of one start per hour, the task only runs if the five
	// empty claim polls ahead of it consumed no budget.
	select {
	case id := <-handled:
		if id != "task-1" {
			t.Errorf("handled task = %q, want task-1", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task never started, claim polls exhausted the rate limit")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after cancellation")
	}
}

func TestQueueConfigDefaults(t *testing.T) {
	q := NewTaskQueue(nil, Config{})
	if q.maxAttempts != 3 {
		t.Errorf("maxAttempts = %d, want 3", q.maxAttempts)
	}
	if q.backoffBase != 5*time.Second {
		t.Errorf("backoffBase = %v, want 5s", q.backoffBase)
	}
	if got := q.backoff(2); got != 10*time.Second {
		t.Errorf("backoff(2) = %v, want 10s", got)
	}
}
