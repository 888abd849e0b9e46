// Package queue provides the delayed execution queue for sync schedules.
package queue

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mugisham37/mobile-sync-engine/internal/metrics"
	"github.com/mugisham37/mobile-sync-engine/internal/retry"
	"github.com/mugisham37/mobile-sync-engine/pkg/types"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// JobExecuteSync is the one job name the engine enqueues.
const JobExecuteSync = "execute-sync"

// Job is a delayed task carrying a schedule id. Attempts beyond the first
// are retried with the schedule's retry policy backoff.
type Job struct {
	Name       string
	ScheduleID string
	Delay      time.Duration
	Attempts   int
	Policy     types.RetryPolicy
}

// Handler is invoked when a job becomes due. A non-nil error marks the
// attempt failed and triggers the job's retry mechanism.
type Handler func(ctx context.Context, scheduleID string) error

// Queue accepts delayed jobs. Satisfied by Workers and by test fakes.
type Queue interface {
	Enqueue(job Job) error
}

// Config holds queue settings.
type Config struct {
	PoolSize       int `mapstructure:"pool_size"`
	MaxPendingJobs int `mapstructure:"max_pending_jobs"`
}

// Workers is an in-process delayed task queue on an ants worker pool. Each
// job occupies a worker only while its handler runs; delays are spent on a
// timer outside the pool.
type Workers struct {
	pool    *ants.Pool
	handler atomic.Pointer[Handler]
	metrics *metrics.Metrics
	logger  *zap.Logger
	maxPending int64
	pending    atomic.Int64
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkers creates the worker queue.
func NewWorkers(cfg Config, m *metrics.Metrics, logger *zap.Logger) (*Workers, error) {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 64
	}
	if cfg.MaxPendingJobs <= 0 {
		cfg.MaxPendingJobs = 10000
	}

	pool, err := ants.NewPool(cfg.PoolSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create worker pool")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Workers{
		pool:       pool,
		metrics:    m,
		logger:     logger,
		maxPending: int64(cfg.MaxPendingJobs),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// SetHandler installs the execution entry point. Must be called before the
// first Enqueue; the scheduler does this during construction.
func (w *Workers) SetHandler(h Handler) {
	w.handler.Store(&h)
}

// Enqueue implements Queue. The delay is spent on a timer, not a pool
// worker; only handler attempts occupy workers.
func (w *Workers) Enqueue(job Job) error {
	if w.handler.Load() == nil {
		return ErrNoHandler
	}
	if job.ScheduleID == "" {
		return errors.New("job has no schedule id")
	}
	if w.pending.Load() >= w.maxPending {
		return ErrQueueFull
	}

	w.pending.Add(1)
	w.metrics.RecordQueueJob()

	w.dispatch(job, 1, job.Delay)
	return nil
}

// Pending returns the number of jobs waiting or running.
func (w *Workers) Pending() int64 {
	return w.pending.Load()
}

// Stop cancels waiting jobs and releases the pool.
func (w *Workers) Stop() {
	w.cancel()
	w.pool.Release()
}

// dispatch submits an attempt to the pool after the given delay.
func (w *Workers) dispatch(job Job, attempt int, delay time.Duration) {
	submit := func() {
		if err := w.pool.Submit(func() { w.run(job, attempt) }); err != nil {
			w.pending.Add(-1)
			w.logger.Error("failed to submit job to pool",
				zap.String("job", job.Name),
				zap.String("schedule_id", job.ScheduleID),
				zap.Error(err))
		}
	}

	if delay <= 0 {
		submit()
		return
	}
	time.AfterFunc(delay, func() {
		if w.ctx.Err() != nil {
			w.pending.Add(-1)
			return
		}
		submit()
	})
}

func (w *Workers) run(job Job, attempt int) {
	if w.ctx.Err() != nil {
		w.pending.Add(-1)
		return
	}

	handler := w.handler.Load()
	if handler == nil {
		w.pending.Add(-1)
		return
	}

	err := (*handler)(w.ctx, job.ScheduleID)
	if err == nil {
		w.pending.Add(-1)
		return
	}

	w.logger.Warn("job attempt failed",
		zap.String("job", job.Name),
		zap.String("schedule_id", job.ScheduleID),
		zap.Int("attempt", attempt),
		zap.Error(err))

	attempts := job.Attempts
	if attempts < 1 {
		attempts = 1
	}
	if attempt >= attempts {
		w.pending.Add(-1)
		w.logger.Error("job exhausted its attempts",
			zap.String("job", job.Name),
			zap.String("schedule_id", job.ScheduleID),
			zap.Int("attempts", attempts))
		return
	}

	w.metrics.RecordQueueRetry()
	w.dispatch(job, attempt+1, retry.Jitter(retry.Delay(job.Policy, attempt)))
}

// Error definitions
var (
	ErrNoHandler = errors.New("queue handler not set")
	ErrQueueFull = errors.New("queue is full")
)
