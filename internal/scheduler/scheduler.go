// Package scheduler orchestrates intelligent sync scheduling: condition
// checks, optimal-time computation, persistence and deferred execution.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mugisham37/mobile-sync-engine/internal/cachestore"
	"github.com/mugisham37/mobile-sync-engine/internal/conditions"
	"github.com/mugisham37/mobile-sync-engine/internal/events"
	"github.com/mugisham37/mobile-sync-engine/internal/metrics"
	"github.com/mugisham37/mobile-sync-engine/internal/queue"
	"github.com/mugisham37/mobile-sync-engine/internal/ratelimit"
	"github.com/mugisham37/mobile-sync-engine/internal/retry"
	"github.com/mugisham37/mobile-sync-engine/internal/timing"
	"github.com/mugisham37/mobile-sync-engine/internal/usage"
	"github.com/mugisham37/mobile-sync-engine/pkg/types"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config holds orchestrator settings.
type Config struct {
	// SweepInterval is the cadence of the due-schedule maintenance sweep.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// ImmediateWindow is how close to now a computed time must be for the
	// schedule to be enqueued right away instead of waiting for the sweep.
	ImmediateWindow time.Duration `mapstructure:"immediate_window"`
	// DefaultUsageBytes is assumed when the caller gives no estimate.
	DefaultUsageBytes int64 `mapstructure:"default_usage_bytes"`
	// ScheduleTTL bounds how long schedule buckets live in the cache store.
	ScheduleTTL time.Duration `mapstructure:"schedule_ttl"`
}

// ScheduleRequest carries the inputs of ScheduleIntelligentSync.
type ScheduleRequest struct {
	UserID             string
	TenantID           string
	DeviceID           string
	DataType           string
	Priority           types.Priority
	Conditions         []types.SyncCondition
	EstimatedDataUsage int64
}

// Scheduler owns the public sync scheduling API. It holds no authoritative
// state of its own; the cache store is the single persistence owner and the
// in-memory owner index is a lookup shortcut only.
type Scheduler struct {
	store    cachestore.Store
	queue    queue.Queue
	syncer   Syncer
	contexts ContextProvider
	calc     *timing.Calculator
	usage    *usage.Tracker
	limiter  *ratelimit.Limiter
	bus      *events.Bus
	metrics  *metrics.Metrics
	logger   *zap.Logger
	cfg      Config

	owners   sync.Map // scheduleID -> bucket key, transient optimization
	bucketMu sync.Mutex

	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
}

// Options carries optional collaborators for NewScheduler.
type Options struct {
	Syncer   Syncer
	Contexts ContextProvider
	Calc     *timing.Calculator
	Usage    *usage.Tracker
	Limiter  *ratelimit.Limiter
	Bus      *events.Bus
	Metrics  *metrics.Metrics
	NowFunc  func() time.Time
}

// NewScheduler creates the orchestrator. Store and queue are required;
// every other collaborator has a working default.
func NewScheduler(store cachestore.Store, q queue.Queue, logger *zap.Logger, cfg Config, opts Options) *Scheduler {
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.ImmediateWindow == 0 {
		cfg.ImmediateWindow = 60 * time.Second
	}
	if cfg.DefaultUsageBytes <= 0 {
		cfg.DefaultUsageBytes = 1024 * 1024
	}
	if cfg.ScheduleTTL == 0 {
		cfg.ScheduleTTL = 7 * 24 * time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		store:    store,
		queue:    q,
		syncer:   opts.Syncer,
		contexts: opts.Contexts,
		calc:     opts.Calc,
		usage:    opts.Usage,
		limiter:  opts.Limiter,
		bus:      opts.Bus,
		metrics:  opts.Metrics,
		logger:   logger,
		cfg:      cfg,
		now:      opts.NowFunc,
		ctx:      ctx,
		cancel:   cancel,
	}
	if s.syncer == nil {
		s.syncer = NewSimulatedSyncer()
	}
	if s.calc == nil {
		s.calc = timing.NewCalculator()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Start launches the maintenance sweep loop.
func (s *Scheduler) Start() {
	go s.sweepLoop()
}

// Stop halts the sweep loop.
func (s *Scheduler) Stop() {
	s.cancel()
}

// HandleJob is the execution queue entry point. It returns an error only
// for transient sync failures so the queue's attempts mechanism can retry;
// terminal outcomes (not found, inactive, reschedule) absorb the failure.
func (s *Scheduler) HandleJob(ctx context.Context, scheduleID string) error {
	result := s.ExecuteSyncSchedule(ctx, scheduleID)
	if result.Success || result.Rescheduled {
		return nil
	}
	if result.Error == errScheduleNotFound || result.Error == errScheduleInactive {
		return nil
	}
	if result.Error != "" {
		return errors.New(result.Error)
	}
	return nil
}

// ScheduleIntelligentSync computes the optimal time for a sync, derives its
// retry policy, merges priority-default conditions and persists the
// schedule. Schedules due within the immediate window are enqueued at once.
func (s *Scheduler) ScheduleIntelligentSync(ctx context.Context, req ScheduleRequest) (*types.SyncSchedule, error) {
	if req.UserID == "" || req.TenantID == "" || req.DeviceID == "" {
		return nil, errors.New("user, tenant and device ids are required")
	}
	if req.DataType == "" {
		return nil, errors.New("data type is required")
	}
	if !req.Priority.Valid() {
		return nil, errors.Errorf("unknown priority %q", req.Priority)
	}

	estimated := req.EstimatedDataUsage
	if estimated <= 0 {
		estimated = s.cfg.DefaultUsageBytes
	}

	now := s.now()
	snapshot := s.snapshot(ctx, req.UserID, req.TenantID, req.DeviceID)
	merged := conditions.Merge(req.Conditions, req.Priority)
	optimal := s.calc.OptimalTime(now, snapshot, req.Priority, merged, estimated)

	schedule := &types.SyncSchedule{
		ID:                uuid.NewString(),
		UserID:            req.UserID,
		TenantID:          req.TenantID,
		DeviceID:          req.DeviceID,
		DataType:          req.DataType,
		Priority:          req.Priority,
		ScheduledTime:     optimal,
		EstimatedDuration: estimateDuration(estimated),
		EstimatedUsage:    estimated,
		Conditions:        merged,
		RetryPolicy:       retry.PolicyFor(req.Priority),
		IsActive:          true,
		CreatedAt:         now,
	}

	if err := s.upsert(ctx, schedule); err != nil {
		return nil, err
	}

	s.metrics.RecordScheduleCreated(string(req.Priority))
	s.emit(events.TopicScheduleCreated, schedule)

	if optimal.Sub(now) <= s.cfg.ImmediateWindow {
		s.enqueue(schedule, 0)
	}

	s.logger.Info("sync scheduled",
		zap.String("schedule_id", schedule.ID),
		zap.String("tenant_id", req.TenantID),
		zap.String("user_id", req.UserID),
		zap.String("data_type", req.DataType),
		zap.String("priority", string(req.Priority)),
		zap.Time("scheduled_time", optimal))

	return schedule, nil
}

// GetSyncRecommendation evaluates current conditions and recommends
// syncing now, scheduling later or deferring. It never fails: internal
// errors collapse into a conservative defer with a diagnostic reason.
func (s *Scheduler) GetSyncRecommendation(ctx context.Context, userID, tenantID, deviceID, dataType string, priority types.Priority) (rec *types.Recommendation) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recommendation computation panicked",
				zap.String("tenant_id", tenantID),
				zap.String("user_id", userID),
				zap.Any("panic", r))
			rec = &types.Recommendation{
				Action: types.ActionDefer,
				Reason: "internal error while computing recommendation",
			}
		}
		s.metrics.RecordRecommendation(string(rec.Action))
	}()

	if !priority.Valid() {
		priority = types.PriorityMedium
	}

	now := s.now()
	snapshot, err := s.contextSnapshot(ctx, userID, tenantID, deviceID)
	if err != nil {
		return &types.Recommendation{
			Action: types.ActionDefer,
			Reason: fmt.Sprintf("device context unavailable: %v", err),
		}
	}

	if reason, ok := s.canSyncNow(snapshot, priority); ok {
		return &types.Recommendation{Action: types.ActionSyncNow, Reason: reason}
	} else {
		merged := conditions.Merge(nil, priority)
		optimal := s.calc.OptimalTime(now, snapshot, priority, merged, s.cfg.DefaultUsageBytes)

		if optimal.Sub(now) > 24*time.Hour {
			return &types.Recommendation{
				Action: types.ActionDefer,
				Reason: fmt.Sprintf("no favorable window within 24 hours (%s)", reason),
			}
		}

		return &types.Recommendation{
			Action:           types.ActionScheduleLater,
			Reason:           reason,
			SuggestedTime:    &optimal,
			EstimatedSavings: s.waitingSavings(snapshot),
			Alternatives:     s.alternatives(now, snapshot),
		}
	}
}

// ExecuteSyncSchedule runs a due schedule. The outcome is always a
// structured result; nothing propagates past this boundary. A failed
// condition re-check reschedules the schedule (keeping it active) until
// its retry budget is exhausted; any executed sync, successful or not,
// deactivates it.
func (s *Scheduler) ExecuteSyncSchedule(ctx context.Context, scheduleID string) (result *types.ExecutionResult) {
	start := s.now()
	result = &types.ExecutionResult{ExecutedAt: start}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("schedule execution panicked",
				zap.String("schedule_id", scheduleID),
				zap.Any("panic", r))
			result = &types.ExecutionResult{
				ExecutedAt: start,
				Error:      "internal error during execution",
			}
		}
		result.Duration = s.now().Sub(start)
	}()

	schedule, err := s.findByID(ctx, scheduleID)
	if err != nil {
		s.logger.Warn("schedule lookup failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		result.Error = errScheduleNotFound
		s.metrics.RecordExecution("not_found", 0)
		return result
	}
	if schedule == nil {
		result.Error = errScheduleNotFound
		s.metrics.RecordExecution("not_found", 0)
		return result
	}
	if !schedule.IsActive {
		result.Error = errScheduleInactive
		s.metrics.RecordExecution("inactive", 0)
		return result
	}

	if s.limiter != nil && !s.limiter.AcquireSync(schedule.DeviceID) {
		// Too many concurrent syncs on this device; try again shortly
		// without burning the reschedule budget.
		s.enqueue(schedule, 30*time.Second)
		result.Error = "concurrent sync limit reached for device"
		result.Rescheduled = true
		return result
	}
	if s.limiter != nil {
		defer s.limiter.ReleaseSync(schedule.DeviceID)
	}

	snapshot := s.snapshot(ctx, schedule.UserID, schedule.TenantID, schedule.DeviceID)
	check := conditions.CheckAll(schedule.Conditions, snapshot)
	if !check.AllMet {
		return s.handleUnmetConditions(ctx, schedule, snapshot, check, result)
	}

	outcome := s.syncer.Sync(ctx, schedule)

	// Executed schedules terminate whether or not the transfer succeeded;
	// retries of transient failures are the queue's concern.
	schedule.IsActive = false
	if err := s.upsert(ctx, schedule); err != nil {
		s.logger.Error("failed to persist executed schedule",
			zap.String("schedule_id", schedule.ID), zap.Error(err))
	}

	result.Success = outcome.Success
	result.DataUsed = outcome.DataUsed
	if outcome.Err != nil {
		result.Error = outcome.Err.Error()
	}

	if s.usage != nil && outcome.DataUsed > 0 {
		if err := s.usage.Track(ctx, schedule.UserID, schedule.TenantID, types.OperationDownload, outcome.DataUsed, false); err != nil {
			s.logger.Warn("failed to track sync data usage",
				zap.String("schedule_id", schedule.ID), zap.Error(err))
		}
	}

	outcomeLabel := "success"
	if !outcome.Success {
		outcomeLabel = "failed"
	}
	s.metrics.RecordExecution(outcomeLabel, s.now().Sub(start))
	s.emit(events.TopicScheduleExecuted, schedule, result)

	s.logger.Info("sync executed",
		zap.String("schedule_id", schedule.ID),
		zap.String("tenant_id", schedule.TenantID),
		zap.Bool("success", outcome.Success),
		zap.Int64("data_used", outcome.DataUsed))

	return result
}

// GetActiveSyncSchedules returns the user's active, still-pending schedules.
func (s *Scheduler) GetActiveSyncSchedules(ctx context.Context, userID, tenantID string) ([]*types.SyncSchedule, error) {
	bucket, err := s.loadBucket(ctx, cachestore.ScheduleBucketKey(tenantID, userID))
	if err != nil {
		return nil, err
	}

	now := s.now()
	active := make([]*types.SyncSchedule, 0, len(bucket))
	for _, schedule := range bucket {
		if schedule.IsActive && schedule.ScheduledTime.After(now) {
			active = append(active, schedule)
		}
	}
	return active, nil
}

// CancelSyncSchedule deactivates a schedule. Returns false when the
// schedule does not exist or was already inactive, so a second cancel of
// the same id is a no-op.
func (s *Scheduler) CancelSyncSchedule(ctx context.Context, scheduleID string) bool {
	schedule, err := s.findByID(ctx, scheduleID)
	if err != nil {
		s.logger.Warn("cancel lookup failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		return false
	}
	if schedule == nil || !schedule.IsActive {
		return false
	}

	schedule.IsActive = false
	if err := s.upsert(ctx, schedule); err != nil {
		s.logger.Error("failed to persist cancellation",
			zap.String("schedule_id", scheduleID), zap.Error(err))
		return false
	}

	s.metrics.RecordCancellation()
	s.emit(events.TopicScheduleCancelled, schedule)
	return true
}

// ReportDeviceContext stores a device-reported context snapshot for later
// decision points.
func (s *Scheduler) ReportDeviceContext(ctx context.Context, userID, tenantID, deviceID string, snapshot *types.SyncContext) error {
	if snapshot == nil {
		return errors.New("nil context snapshot")
	}
	key := cachestore.DeviceContextKey(tenantID, userID, deviceID)
	if err := s.store.Set(ctx, key, snapshot, time.Hour); err != nil {
		return errors.Wrap(err, "failed to store device context")
	}
	return nil
}

// handleUnmetConditions reschedules to a freshly computed optimal time, or
// terminates the schedule once its retry budget is spent. Indefinite
// rescheduling loops are deliberately ruled out.
func (s *Scheduler) handleUnmetConditions(ctx context.Context, schedule *types.SyncSchedule, snapshot *types.SyncContext, check conditions.CheckResult, result *types.ExecutionResult) *types.ExecutionResult {
	failed := strings.Join(check.FailedConditions, "; ")

	if schedule.RescheduleCount >= schedule.RetryPolicy.MaxRetries {
		schedule.IsActive = false
		if err := s.upsert(ctx, schedule); err != nil {
			s.logger.Error("failed to persist exhausted schedule",
				zap.String("schedule_id", schedule.ID), zap.Error(err))
		}
		result.Error = fmt.Sprintf("conditions still unmet after %d reschedules: %s", schedule.RescheduleCount, failed)
		s.metrics.RecordExecution("conditions_exhausted", 0)
		s.logger.Warn("schedule terminated after exhausting reschedules",
			zap.String("schedule_id", schedule.ID),
			zap.String("failed_conditions", failed))
		return result
	}

	now := s.now()
	schedule.ScheduledTime = s.calc.OptimalTime(now, snapshot, schedule.Priority, schedule.Conditions, schedule.EstimatedUsage)
	schedule.RescheduleCount++
	if err := s.upsert(ctx, schedule); err != nil {
		s.logger.Error("failed to persist reschedule",
			zap.String("schedule_id", schedule.ID), zap.Error(err))
		result.Error = "failed to reschedule"
		s.metrics.RecordExecution("failed", 0)
		return result
	}

	if schedule.ScheduledTime.Sub(now) <= s.cfg.ImmediateWindow {
		s.enqueue(schedule, schedule.ScheduledTime.Sub(now))
	}

	result.Error = "conditions not met: " + failed
	result.Rescheduled = true
	s.metrics.RecordExecution("conditions_unmet", 0)
	s.metrics.RecordReschedule()
	s.emit(events.TopicScheduleRescheduled, schedule, check.FailedConditions)

	s.logger.Info("schedule pushed to a later window",
		zap.String("schedule_id", schedule.ID),
		zap.Time("new_time", schedule.ScheduledTime),
		zap.String("failed_conditions", failed))
	return result
}

// canSyncNow is the simplified immediate-sync gate used by
// recommendations: priority, battery floor, connectivity and data-limit
// proximity. Returns the reason either way.
func (s *Scheduler) canSyncNow(snapshot *types.SyncContext, priority types.Priority) (string, bool) {
	if priority == types.PriorityCritical {
		return "critical priority always syncs immediately", true
	}
	if snapshot.ConnectionType == types.ConnectionOffline {
		return "device is offline", false
	}

	floor := 20
	if priority == types.PriorityHigh {
		floor = 10
	}
	if snapshot.BatteryLevel != nil && *snapshot.BatteryLevel <= floor && !snapshot.DeviceCharging {
		return fmt.Sprintf("battery at %d%% is below the %d%% floor", *snapshot.BatteryLevel, floor), false
	}

	if snapshot.DataLimit != nil && *snapshot.DataLimit > 0 {
		usedPct := float64(snapshot.DataUsageToday) / float64(*snapshot.DataLimit) * 100
		if usedPct >= 90 && snapshot.ConnectionType != types.ConnectionWiFi {
			return fmt.Sprintf("daily data usage at %.0f%% of the limit", usedPct), false
		}
	}

	return "current conditions are favorable", true
}

// alternatives lists the deferral strategies a caller could choose instead.
func (s *Scheduler) alternatives(now time.Time, snapshot *types.SyncContext) []types.Alternative {
	wifi, charging, offPeak := s.calc.Windows(now, snapshot)

	var alts []types.Alternative
	if snapshot.ConnectionType != types.ConnectionWiFi {
		alts = append(alts, types.Alternative{
			Strategy:      "wait_for_wifi",
			SuggestedTime: wifi,
			Reason:        "avoid cellular data charges",
		})
	}
	if !snapshot.DeviceCharging {
		alts = append(alts, types.Alternative{
			Strategy:      "wait_for_charging",
			SuggestedTime: charging,
			Reason:        "preserve battery",
		})
	}
	if snapshot.TimeOfDay >= 9 && snapshot.TimeOfDay <= 17 {
		alts = append(alts, types.Alternative{
			Strategy:      "off_peak",
			SuggestedTime: offPeak,
			Reason:        "reduce load during business hours",
		})
	}
	return alts
}

// waitingSavings estimates bytes saved by waiting for a better window.
func (s *Scheduler) waitingSavings(snapshot *types.SyncContext) int64 {
	if snapshot.ConnectionType == types.ConnectionCellular {
		return s.cfg.DefaultUsageBytes / 2
	}
	return 0
}

// snapshot fetches a context snapshot, degrading to a benign default when
// the provider has nothing.
func (s *Scheduler) snapshot(ctx context.Context, userID, tenantID, deviceID string) *types.SyncContext {
	snapshot, err := s.contextSnapshot(ctx, userID, tenantID, deviceID)
	if err != nil {
		s.logger.Debug("device context unavailable, using fallback",
			zap.String("tenant_id", tenantID),
			zap.String("user_id", userID),
			zap.String("device_id", deviceID),
			zap.Error(err))
		return fallbackContext(s.now())
	}
	return snapshot
}

func (s *Scheduler) contextSnapshot(ctx context.Context, userID, tenantID, deviceID string) (*types.SyncContext, error) {
	if s.contexts == nil {
		return nil, ErrNoDeviceContext
	}
	return s.contexts.Snapshot(ctx, userID, tenantID, deviceID)
}

// sweepLoop periodically re-dispatches due schedules. The queue's delayed
// dispatch is the primary path; the sweep is at-least-once redundancy
// against dropped deliveries.
func (s *Scheduler) sweepLoop() {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.SweepInterval/2)
	defer cancel()

	keys, err := s.store.ScanKeys(ctx, cachestore.ScheduleBucketPrefix())
	if err != nil {
		s.logger.Warn("sweep scan failed", zap.Error(err))
		return
	}

	now := s.now()
	due := 0
	for _, key := range keys {
		bucket, err := s.loadBucket(ctx, key)
		if err != nil {
			s.logger.Warn("sweep bucket load failed", zap.String("key", key), zap.Error(err))
			continue
		}
		for _, schedule := range bucket {
			if schedule.IsActive && !schedule.ScheduledTime.After(now) {
				due++
				s.enqueue(schedule, 0)
			}
		}
	}

	s.metrics.RecordSweep(due)
	if due > 0 {
		s.logger.Debug("sweep dispatched due schedules", zap.Int("count", due))
	}
}

func (s *Scheduler) enqueue(schedule *types.SyncSchedule, delay time.Duration) {
	err := s.queue.Enqueue(queue.Job{
		Name:       queue.JobExecuteSync,
		ScheduleID: schedule.ID,
		Delay:      delay,
		Attempts:   schedule.RetryPolicy.MaxRetries,
		Policy:     schedule.RetryPolicy,
	})
	if err != nil {
		s.logger.Error("failed to enqueue execution",
			zap.String("schedule_id", schedule.ID), zap.Error(err))
	}
}

// Persistence helpers. Buckets are read-modify-write; a process-local mutex
// serializes writers in this process, cross-process races on the same
// bucket are bounded by per-user key scoping.

func (s *Scheduler) loadBucket(ctx context.Context, key string) ([]*types.SyncSchedule, error) {
	var bucket []*types.SyncSchedule
	if _, err := s.store.Get(ctx, key, &bucket); err != nil {
		return nil, errors.Wrap(err, "failed to load schedule bucket")
	}
	return bucket, nil
}

func (s *Scheduler) upsert(ctx context.Context, schedule *types.SyncSchedule) error {
	key := cachestore.ScheduleBucketKey(schedule.TenantID, schedule.UserID)

	s.bucketMu.Lock()
	defer s.bucketMu.Unlock()

	bucket, err := s.loadBucket(ctx, key)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range bucket {
		if existing.ID == schedule.ID {
			bucket[i] = schedule
			replaced = true
			break
		}
	}
	if !replaced {
		bucket = append(bucket, schedule)
	}

	if err := s.store.Set(ctx, key, bucket, s.cfg.ScheduleTTL); err != nil {
		return errors.Wrap(err, "failed to persist schedule bucket")
	}
	if err := s.store.Set(ctx, cachestore.ScheduleOwnerKey(schedule.ID), key, s.cfg.ScheduleTTL); err != nil {
		return errors.Wrap(err, "failed to persist schedule owner index")
	}

	s.owners.Store(schedule.ID, key)
	return nil
}

// findByID resolves a schedule through the owner index. Returns (nil, nil)
// when the schedule is unknown.
func (s *Scheduler) findByID(ctx context.Context, scheduleID string) (*types.SyncSchedule, error) {
	var key string
	if cached, ok := s.owners.Load(scheduleID); ok {
		key = cached.(string)
	} else {
		found, err := s.store.Get(ctx, cachestore.ScheduleOwnerKey(scheduleID), &key)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		s.owners.Store(scheduleID, key)
	}

	bucket, err := s.loadBucket(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, schedule := range bucket {
		if schedule.ID == scheduleID {
			return schedule, nil
		}
	}
	return nil, nil
}

func (s *Scheduler) emit(topic string, args ...interface{}) {
	if s.bus != nil {
		s.bus.Emit(topic, args...)
	}
}

// estimateDuration converts an estimated payload into a planning duration.
func estimateDuration(bytes int64) time.Duration {
	const assumedThroughput = 500 * 1024 // bytes per second
	d := time.Duration(bytes/assumedThroughput) * time.Second
	if d < 5*time.Second {
		d = 5 * time.Second
	}
	if d > 2*time.Minute {
		d = 2 * time.Minute
	}
	return d
}

// Failure strings surfaced in execution results.
const (
	errScheduleNotFound = "schedule not found"
	errScheduleInactive = "schedule is not active"
)
