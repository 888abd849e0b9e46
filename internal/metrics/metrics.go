// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is a valid no-op
// receiver so library packages can run without a registry in tests.
type Metrics struct {
	// Schedule lifecycle
	SchedulesCreated   *prometheus.CounterVec
	SchedulesExecuted  *prometheus.CounterVec
	SchedulesCancelled prometheus.Counter
	Reschedules        prometheus.Counter
	SyncDuration       prometheus.Histogram
	ActiveSweepFound   prometheus.Gauge

	// Recommendations
	Recommendations *prometheus.CounterVec

	// Usage tracking
	TrackedBytes  *prometheus.CounterVec
	LimitWarnings *prometheus.CounterVec

	// Queue
	QueueJobs    prometheus.Counter
	QueueRetries prometheus.Counter
}

const namespace = "sync_engine"

// New creates a Metrics instance with registered metrics.
func New() *Metrics {
	return &Metrics{
		SchedulesCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schedules_created_total",
				Help:      "Total number of schedules created",
			},
			[]string{"priority"},
		),
		SchedulesExecuted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schedules_executed_total",
				Help:      "Total number of schedule executions by outcome",
			},
			[]string{"outcome"}, // success, failed, conditions_unmet, not_found, inactive
		),
		SchedulesCancelled: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schedules_cancelled_total",
				Help:      "Total number of schedules cancelled",
			},
		),
		Reschedules: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reschedules_total",
				Help:      "Total number of automatic reschedules after failed condition re-checks",
			},
		),
		SyncDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Wall-clock duration of sync executions",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		ActiveSweepFound: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sweep_due_schedules",
				Help:      "Due schedules found by the last maintenance sweep",
			},
		),
		Recommendations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_total",
				Help:      "Total recommendations issued by action",
			},
			[]string{"action"},
		),
		TrackedBytes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tracked_bytes_total",
				Help:      "Total bytes recorded by the usage tracker",
			},
			[]string{"operation"}, // upload, download
		),
		LimitWarnings: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "limit_warnings_total",
				Help:      "Usage limit threshold crossings by severity",
			},
			[]string{"severity"}, // warning, exceeded
		),
		QueueJobs: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queue_jobs_total",
				Help:      "Total jobs accepted by the execution queue",
			},
		),
		QueueRetries: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queue_retries_total",
				Help:      "Total job retry attempts dispatched by the execution queue",
			},
		),
	}
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordScheduleCreated records a schedule creation.
func (m *Metrics) RecordScheduleCreated(priority string) {
	if m == nil {
		return
	}
	m.SchedulesCreated.WithLabelValues(priority).Inc()
}

// RecordExecution records an execution outcome and its duration.
func (m *Metrics) RecordExecution(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SchedulesExecuted.WithLabelValues(outcome).Inc()
	m.SyncDuration.Observe(duration.Seconds())
}

// RecordCancellation records a schedule cancellation.
func (m *Metrics) RecordCancellation() {
	if m == nil {
		return
	}
	m.SchedulesCancelled.Inc()
}

// RecordReschedule records an automatic reschedule.
func (m *Metrics) RecordReschedule() {
	if m == nil {
		return
	}
	m.Reschedules.Inc()
}

// RecordSweep records how many due schedules a sweep found.
func (m *Metrics) RecordSweep(due int) {
	if m == nil {
		return
	}
	m.ActiveSweepFound.Set(float64(due))
}

// RecordRecommendation records a recommendation by action.
func (m *Metrics) RecordRecommendation(action string) {
	if m == nil {
		return
	}
	m.Recommendations.WithLabelValues(action).Inc()
}

// RecordTrackedBytes records bytes seen by the usage tracker.
func (m *Metrics) RecordTrackedBytes(operation string, bytes int64) {
	if m == nil {
		return
	}
	m.TrackedBytes.WithLabelValues(operation).Add(float64(bytes))
}

// RecordLimitWarning records a threshold crossing.
func (m *Metrics) RecordLimitWarning(severity string) {
	if m == nil {
		return
	}
	m.LimitWarnings.WithLabelValues(severity).Inc()
}

// RecordQueueJob records an accepted queue job.
func (m *Metrics) RecordQueueJob() {
	if m == nil {
		return
	}
	m.QueueJobs.Inc()
}

// RecordQueueRetry records a retry dispatch.
func (m *Metrics) RecordQueueRetry() {
	if m == nil {
		return
	}
	m.QueueRetries.Inc()
}
