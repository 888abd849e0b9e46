// Package timing computes the optimal future time to run a sync, deferring
// large or low-priority work to WiFi, charging or off-peak windows.
package timing

import (
	"time"

	"github.com/mugisham37/mobile-sync-engine/pkg/types"
)

// Thresholds that push a sync out of the default window.
const (
	defaultDelay       = 15 * time.Minute
	largePayloadBytes  = 10 * 1024 * 1024
	mediumPayloadBytes = 5 * 1024 * 1024
	businessHoursStart = 9
	businessHoursEnd   = 17
)

// Estimator predicts the next favorable device/network windows. Real
// implementations would feed on device telemetry; HeuristicEstimator stands
// in with fixed rules of thumb.
type Estimator interface {
	NextWiFiWindow(now time.Time, sctx *types.SyncContext) time.Time
	NextChargingWindow(now time.Time, sctx *types.SyncContext) time.Time
	NextOffPeak(now time.Time, sctx *types.SyncContext) time.Time
}

// HeuristicEstimator is the default window predictor: WiFi in two hours,
// charging at the next 22:00 local, off-peak at 06:00 the next day.
type HeuristicEstimator struct{}

// NextWiFiWindow implements Estimator.
func (HeuristicEstimator) NextWiFiWindow(now time.Time, _ *types.SyncContext) time.Time {
	return now.Add(2 * time.Hour)
}

// NextChargingWindow implements Estimator.
func (HeuristicEstimator) NextChargingWindow(now time.Time, _ *types.SyncContext) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), 22, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextOffPeak implements Estimator.
func (HeuristicEstimator) NextOffPeak(now time.Time, _ *types.SyncContext) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

// Adjuster is the extension point for caller-supplied adjustments applied
// after the built-in rules. The identity adjuster leaves the candidate
// unchanged.
type Adjuster func(candidate time.Time, sctx *types.SyncContext, conds []types.SyncCondition) time.Time

// Calculator computes optimal sync times.
type Calculator struct {
	estimator Estimator
	adjuster  Adjuster
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithEstimator replaces the default heuristic estimator.
func WithEstimator(e Estimator) Option {
	return func(c *Calculator) { c.estimator = e }
}

// WithAdjuster installs a caller-supplied adjustment step.
func WithAdjuster(a Adjuster) Option {
	return func(c *Calculator) { c.adjuster = a }
}

// NewCalculator creates a calculator with heuristic defaults.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{estimator: HeuristicEstimator{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OptimalTime returns the best time to run a sync, never earlier than now.
// Critical priority always returns now and skips every deferral rule. The
// deferral rules are a first-match chain, not cumulative: a large cellular
// payload defers to the WiFi window even if the device is also uncharged.
func (c *Calculator) OptimalTime(now time.Time, sctx *types.SyncContext, priority types.Priority, conds []types.SyncCondition, estimatedBytes int64) time.Time {
	if priority == types.PriorityCritical {
		return now
	}

	candidate := now.Add(defaultDelay)

	switch {
	case estimatedBytes > largePayloadBytes && sctx.ConnectionType != types.ConnectionWiFi:
		candidate = c.estimator.NextWiFiWindow(now, sctx)
	case !sctx.DeviceCharging && estimatedBytes > mediumPayloadBytes:
		candidate = c.estimator.NextChargingWindow(now, sctx)
	case priority == types.PriorityLow && sctx.TimeOfDay >= businessHoursStart && sctx.TimeOfDay <= businessHoursEnd:
		candidate = c.estimator.NextOffPeak(now, sctx)
	}

	if c.adjuster != nil {
		candidate = c.adjuster(candidate, sctx, conds)
	}

	if candidate.Before(now) {
		candidate = now
	}
	return candidate
}

// Windows returns the three deferral window candidates, used to build the
// alternative strategies of a recommendation.
func (c *Calculator) Windows(now time.Time, sctx *types.SyncContext) (wifi, charging, offPeak time.Time) {
	return c.estimator.NextWiFiWindow(now, sctx),
		c.estimator.NextChargingWindow(now, sctx),
		c.estimator.NextOffPeak(now, sctx)
}
