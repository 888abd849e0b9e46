package scheduler

import (
	"context"
	"time"

	"github.com/mugisham37/mobile-sync-engine/pkg/types"
)

// Syncer performs the actual data transfer for a schedule. The engine
// treats it as a black box: it decides when to call, the Syncer decides
// what moving the data means.
type Syncer interface {
	Sync(ctx context.Context, schedule *types.SyncSchedule) *types.SyncOutcome
}

// SimulatedSyncer is the reference Syncer. It spends a duration
// proportional to the estimated payload and reports the estimate as the
// transferred volume.
type SimulatedSyncer struct {
	// BytesPerSecond controls the simulated throughput.
	BytesPerSecond int64
	// MaxDuration caps the simulation regardless of payload size.
	MaxDuration time.Duration
}

// NewSimulatedSyncer creates a simulated syncer with defaults.
func NewSimulatedSyncer() *SimulatedSyncer {
	return &SimulatedSyncer{
		BytesPerSecond: 2 * 1024 * 1024,
		MaxDuration:    10 * time.Second,
	}
}

// Sync implements Syncer.
func (s *SimulatedSyncer) Sync(ctx context.Context, schedule *types.SyncSchedule) *types.SyncOutcome {
	duration := time.Duration(float64(schedule.EstimatedUsage)/float64(s.BytesPerSecond)) * time.Second
	if duration < 100*time.Millisecond {
		duration = 100 * time.Millisecond
	}
	if duration > s.MaxDuration {
		duration = s.MaxDuration
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return &types.SyncOutcome{Success: false, Err: ctx.Err()}
	case <-timer.C:
		return &types.SyncOutcome{Success: true, DataUsed: schedule.EstimatedUsage}
	}
}
