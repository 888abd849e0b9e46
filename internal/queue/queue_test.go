package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mugisham37/mobile-sync-engine/pkg/types"

	"go.uber.org/zap"
)

func newTestWorkers(t *testing.T) *Workers {
	t.Helper()
	w, err := NewWorkers(Config{PoolSize: 4, MaxPendingJobs: 16}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWorkers: %v", err)
	}
	t.Cleanup(w.Stop)
	return w
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestEnqueueRunsHandler(t *testing.T) {
	w := newTestWorkers(t)

	var ran atomic.Int32
	w.SetHandler(func(ctx context.Context, scheduleID string) error {
		if scheduleID != "s1" {
			t.Errorf("scheduleID = %q, want s1", scheduleID)
		}
		ran.Add(1)
		return nil
	})

	if err := w.Enqueue(Job{Name: JobExecuteSync, ScheduleID: "s1"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, time.Second, func() bool { return ran.Load() == 1 })
	waitFor(t, time.Second, func() bool { return w.Pending() == 0 })
}

func TestEnqueueWithoutHandler(t *testing.T) {
	w := newTestWorkers(t)
	if err := w.Enqueue(Job{Name: JobExecuteSync, ScheduleID: "s1"}); err != ErrNoHandler {
		t.Errorf("err = %v, want ErrNoHandler", err)
	}
}

func TestEnqueueRejectsEmptyScheduleID(t *testing.T) {
	w := newTestWorkers(t)
	w.SetHandler(func(context.Context, string) error { return nil })
	if err := w.Enqueue(Job{Name: JobExecuteSync}); err == nil {
		t.Error("empty schedule id should be rejected")
	}
}

func TestEnqueueDelay(t *testing.T) {
	w := newTestWorkers(t)

	var ranAt atomic.Int64
	w.SetHandler(func(context.Context, string) error {
		ranAt.Store(time.Now().UnixNano())
		return nil
	})

	start := time.Now()
	if err := w.Enqueue(Job{Name: JobExecuteSync, ScheduleID: "s1", Delay: 50 * time.Millisecond}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, time.Second, func() bool { return ranAt.Load() != 0 })
	if elapsed := time.Duration(ranAt.Load() - start.UnixNano()); elapsed < 40*time.Millisecond {
		t.Errorf("handler ran after %s, want at least the 50ms delay", elapsed)
	}
}

func TestRetriesUntilAttemptsExhausted(t *testing.T) {
	w := newTestWorkers(t)

	var calls atomic.Int32
	w.SetHandler(func(context.Context, string) error {
		calls.Add(1)
		return context.DeadlineExceeded
	})

	policy := types.RetryPolicy{
		MaxRetries:      3,
		BackoffStrategy: types.BackoffFixed,
		BaseDelay:       time.Millisecond,
		MaxDelay:        time.Millisecond,
	}
	if err := w.Enqueue(Job{Name: JobExecuteSync, ScheduleID: "s1", Attempts: 3, Policy: policy}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return calls.Load() == 3 })
	waitFor(t, 2*time.Second, func() bool { return w.Pending() == 0 })
	if calls.Load() != 3 {
		t.Errorf("handler ran %d times, want exactly 3", calls.Load())
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	w := newTestWorkers(t)

	var calls atomic.Int32
	w.SetHandler(func(context.Context, string) error {
		if calls.Add(1) == 1 {
			return context.DeadlineExceeded
		}
		return nil
	})

	policy := types.RetryPolicy{
		MaxRetries:      5,
		BackoffStrategy: types.BackoffFixed,
		BaseDelay:       time.Millisecond,
		MaxDelay:        time.Millisecond,
	}
	if err := w.Enqueue(Job{Name: JobExecuteSync, ScheduleID: "s1", Attempts: 5, Policy: policy}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return w.Pending() == 0 })
	if calls.Load() != 2 {
		t.Errorf("handler ran %d times, want 2 (one failure, one success)", calls.Load())
	}
}

func TestQueueFull(t *testing.T) {
	w, err := NewWorkers(Config{PoolSize: 1, MaxPendingJobs: 1}, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewWorkers: %v", err)
	}
	t.Cleanup(w.Stop)

	block := make(chan struct{})
	w.SetHandler(func(context.Context, string) error {
		<-block
		return nil
	})

	if err := w.Enqueue(Job{Name: JobExecuteSync, ScheduleID: "s1"}); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	if err := w.Enqueue(Job{Name: JobExecuteSync, ScheduleID: "s2"}); err != ErrQueueFull {
		t.Errorf("second Enqueue err = %v, want ErrQueueFull", err)
	}
	close(block)
}
