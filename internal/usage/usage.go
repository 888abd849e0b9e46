// Package usage tracks per-tenant data usage counters and persisted limits.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/mugisham37/mobile-sync-engine/internal/cachestore"
	"github.com/mugisham37/mobile-sync-engine/internal/events"
	"github.com/mugisham37/mobile-sync-engine/internal/metrics"
	"github.com/mugisham37/mobile-sync-engine/pkg/types"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Counter field names inside one usage bucket.
const (
	fieldTotal        = "total"
	fieldUpload       = "upload"
	fieldDownload     = "download"
	fieldSavings      = "compression_savings"
	fieldCacheHits    = "cache_hits"
	fieldCacheLookups = "cache_lookups"
)

// Config holds usage tracker bucket TTLs.
type Config struct {
	HourTTL  time.Duration `mapstructure:"hour_ttl"`
	DayTTL   time.Duration `mapstructure:"day_ttl"`
	WeekTTL  time.Duration `mapstructure:"week_ttl"`
	MonthTTL time.Duration `mapstructure:"month_ttl"`
}

// Tracker accumulates byte counters into cache-store buckets. Increments go
// through the store's atomic counter primitive, so concurrent trackers for
// the same bucket never lose updates.
type Tracker struct {
	store   cachestore.Store
	bus     *events.Bus
	metrics *metrics.Metrics
	logger  *zap.Logger
	cfg     Config
	now     func() time.Time
}

// NewTracker creates a usage tracker.
func NewTracker(store cachestore.Store, bus *events.Bus, m *metrics.Metrics, logger *zap.Logger, cfg Config) *Tracker {
	if cfg.HourTTL == 0 {
		cfg.HourTTL = 2 * time.Hour
	}
	if cfg.DayTTL == 0 {
		cfg.DayTTL = 24 * time.Hour
	}
	if cfg.WeekTTL == 0 {
		cfg.WeekTTL = 7 * 24 * time.Hour
	}
	if cfg.MonthTTL == 0 {
		cfg.MonthTTL = 31 * 24 * time.Hour
	}

	return &Tracker{
		store:   store,
		bus:     bus,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock, for bucket-key tests.
func (t *Tracker) SetNowFunc(now func() time.Time) {
	t.now = now
}

// Track records transferred bytes for a user. When the transfer was
// compressed, savings are estimated as half the transferred size (the
// payload is assumed to have been 1.5x its wire size before compression).
// After updating, the (tenant, user) limit is checked against the day
// bucket and threshold crossings are logged and emitted.
func (t *Tracker) Track(ctx context.Context, userID, tenantID string, op types.UsageOperation, bytes int64, compressed bool) error {
	if bytes < 0 {
		return errors.Errorf("negative byte count %d", bytes)
	}

	opField := fieldDownload
	if op == types.OperationUpload {
		opField = fieldUpload
	}

	var savings int64
	if compressed {
		savings = bytes / 2
	}

	now := t.now()
	var dayTotal int64
	for _, period := range []types.UsagePeriod{types.PeriodHour, types.PeriodDay, types.PeriodWeek, types.PeriodMonth} {
		key := cachestore.UsageKey(tenantID, userID, string(period), t.bucketKey(period, now))
		ttl := t.bucketTTL(period)

		total, err := t.store.IncrField(ctx, key, fieldTotal, bytes, ttl)
		if err != nil {
			return errors.Wrapf(err, "failed to track usage for %s/%s", tenantID, userID)
		}
		if _, err := t.store.IncrField(ctx, key, opField, bytes, ttl); err != nil {
			return errors.Wrapf(err, "failed to track usage for %s/%s", tenantID, userID)
		}
		if savings > 0 {
			if _, err := t.store.IncrField(ctx, key, fieldSavings, savings, ttl); err != nil {
				return errors.Wrapf(err, "failed to track usage for %s/%s", tenantID, userID)
			}
		}

		if period == types.PeriodDay {
			dayTotal = total
		}
	}

	t.metrics.RecordTrackedBytes(string(op), bytes)
	t.checkThreshold(ctx, userID, tenantID, dayTotal)
	return nil
}

// TrackCacheAccess records a cache lookup outcome; hit rates feed the
// optimizer's recommendations.
func (t *Tracker) TrackCacheAccess(ctx context.Context, userID, tenantID string, hit bool) error {
	now := t.now()
	for _, period := range []types.UsagePeriod{types.PeriodHour, types.PeriodDay} {
		key := cachestore.UsageKey(tenantID, userID, string(period), t.bucketKey(period, now))
		ttl := t.bucketTTL(period)

		if _, err := t.store.IncrField(ctx, key, fieldCacheLookups, 1, ttl); err != nil {
			return errors.Wrap(err, "failed to track cache access")
		}
		if hit {
			if _, err := t.store.IncrField(ctx, key, fieldCacheHits, 1, ttl); err != nil {
				return errors.Wrap(err, "failed to track cache access")
			}
		}
	}
	return nil
}

// Stats reads the current bucket for a period. A missing bucket yields a
// zero-valued stats record, never an error.
func (t *Tracker) Stats(ctx context.Context, userID, tenantID string, period types.UsagePeriod) (*types.DataUsageStats, error) {
	if !period.Valid() {
		return nil, errors.Errorf("unknown usage period %q", period)
	}

	now := t.now()
	key := cachestore.UsageKey(tenantID, userID, string(period), t.bucketKey(period, now))
	counters, err := t.store.Counters(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read usage stats")
	}

	stats := &types.DataUsageStats{
		UserID:             userID,
		TenantID:           tenantID,
		Period:             period,
		TotalUsage:         counters[fieldTotal],
		UploadUsage:        counters[fieldUpload],
		DownloadUsage:      counters[fieldDownload],
		CompressionSavings: counters[fieldSavings],
		Timestamp:          now,
	}
	if lookups := counters[fieldCacheLookups]; lookups > 0 {
		stats.CacheHitRate = float64(counters[fieldCacheHits]) / float64(lookups) * 100
	}
	return stats, nil
}

// SetLimit overwrites the (tenant, user) usage cap. The reset date is fixed
// to the first day of the next calendar month at creation time.
func (t *Tracker) SetLimit(ctx context.Context, userID, tenantID string, dailyLimit, monthlyLimit int64, warningThreshold float64) (*types.DataUsageLimit, error) {
	if dailyLimit <= 0 || monthlyLimit <= 0 {
		return nil, errors.New("usage limits must be positive")
	}
	if warningThreshold <= 0 {
		warningThreshold = 80
	}

	now := t.now()
	limit := &types.DataUsageLimit{
		UserID:           userID,
		TenantID:         tenantID,
		DailyLimit:       dailyLimit,
		MonthlyLimit:     monthlyLimit,
		WarningThreshold: warningThreshold,
		ResetDate:        time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0),
		IsActive:         true,
	}

	if err := t.store.Set(ctx, cachestore.UsageLimitKey(tenantID, userID), limit, 0); err != nil {
		return nil, errors.Wrap(err, "failed to persist usage limit")
	}
	return limit, nil
}

// Limit returns the configured cap for a user, or nil when none is set.
func (t *Tracker) Limit(ctx context.Context, userID, tenantID string) (*types.DataUsageLimit, error) {
	var limit types.DataUsageLimit
	found, err := t.store.Get(ctx, cachestore.UsageLimitKey(tenantID, userID), &limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read usage limit")
	}
	if !found || !limit.IsActive {
		return nil, nil
	}
	return &limit, nil
}

// checkThreshold compares the day total against the configured limit.
// Escalation beyond logging and an event is a caller concern.
func (t *Tracker) checkThreshold(ctx context.Context, userID, tenantID string, dayTotal int64) {
	limit, err := t.Limit(ctx, userID, tenantID)
	if err != nil {
		t.logger.Warn("usage limit lookup failed during threshold check",
			zap.String("tenant_id", tenantID),
			zap.String("user_id", userID),
			zap.Error(err))
		return
	}
	if limit == nil || limit.DailyLimit <= 0 {
		return
	}

	// Refresh the advisory mirror; the bucket counters stay authoritative.
	limit.CurrentUsage = dayTotal
	if err := t.store.Set(ctx, cachestore.UsageLimitKey(tenantID, userID), limit, 0); err != nil {
		t.logger.Warn("failed to refresh usage limit mirror", zap.Error(err))
	}

	usedPct := float64(dayTotal) / float64(limit.DailyLimit) * 100
	switch {
	case usedPct >= 100:
		t.logger.Error("daily data limit exceeded",
			zap.String("tenant_id", tenantID),
			zap.String("user_id", userID),
			zap.Int64("used_bytes", dayTotal),
			zap.Int64("daily_limit", limit.DailyLimit))
		t.metrics.RecordLimitWarning("exceeded")
		t.emitThreshold(userID, tenantID, usedPct)
	case usedPct >= limit.WarningThreshold:
		t.logger.Warn("approaching daily data limit",
			zap.String("tenant_id", tenantID),
			zap.String("user_id", userID),
			zap.Float64("used_pct", usedPct),
			zap.Float64("warning_threshold", limit.WarningThreshold))
		t.metrics.RecordLimitWarning("warning")
		t.emitThreshold(userID, tenantID, usedPct)
	}
}

func (t *Tracker) emitThreshold(userID, tenantID string, usedPct float64) {
	if t.bus == nil {
		return
	}
	t.bus.Emit(events.TopicUsageThreshold, tenantID, userID, usedPct)
}

// bucketKey renders the date component of a bucket key.
func (t *Tracker) bucketKey(period types.UsagePeriod, now time.Time) string {
	switch period {
	case types.PeriodHour:
		return now.Format("2006-01-02-15")
	case types.PeriodDay:
		return now.Format("2006-01-02")
	case types.PeriodWeek:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return now.Format("2006-01")
	}
}

func (t *Tracker) bucketTTL(period types.UsagePeriod) time.Duration {
	switch period {
	case types.PeriodHour:
		return t.cfg.HourTTL
	case types.PeriodDay:
		return t.cfg.DayTTL
	case types.PeriodWeek:
		return t.cfg.WeekTTL
	default:
		return t.cfg.MonthTTL
	}
}
