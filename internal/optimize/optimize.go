// Package optimize derives data-saving settings and sync strategies from
// connection type and usage limit proximity.
package optimize

import (
	"context"
	"time"

	"github.com/mugisham37/mobile-sync-engine/internal/usage"
	"github.com/mugisham37/mobile-sync-engine/pkg/types"

	"go.uber.org/zap"
)

// CompressionLevel is the payload compression aggressiveness.
type CompressionLevel string

const (
	CompressionNone    CompressionLevel = "none"
	CompressionLow     CompressionLevel = "low"
	CompressionMedium  CompressionLevel = "medium"
	CompressionHigh    CompressionLevel = "high"
	CompressionMaximum CompressionLevel = "maximum"
)

// factor returns the approximate wire-size multiplier for a level.
func (c CompressionLevel) factor() float64 {
	switch c {
	case CompressionMaximum:
		return 0.4
	case CompressionHigh:
		return 0.55
	case CompressionMedium:
		return 0.7
	case CompressionLow:
		return 0.85
	default:
		return 1.0
	}
}

// ImageQuality is the image transfer quality setting.
type ImageQuality string

const (
	ImageQualityHigh   ImageQuality = "high"
	ImageQualityMedium ImageQuality = "medium"
	ImageQualityLow    ImageQuality = "low"
)

// Settings is the mutable client configuration the optimizer rewrites.
// Rules are applied cumulatively onto a copy; the caller's value is never
// mutated.
type Settings struct {
	CompressionLevel   CompressionLevel `json:"compression_level"`
	ImageQuality       ImageQuality     `json:"image_quality"`
	SyncInterval       time.Duration    `json:"sync_interval"`
	AggressiveCaching  bool             `json:"aggressive_caching"`
	CacheRetention     time.Duration    `json:"cache_retention"`
	DeferDownloadsOver int64            `json:"defer_downloads_over"` // bytes, 0 disables
	DeferNonCritical   bool             `json:"defer_non_critical"`
	DataSaver          bool             `json:"data_saver"`
	WiFiOnly           bool             `json:"wifi_only"`
	NetworkEnabled     bool             `json:"network_enabled"`
	SyncEnabled        bool             `json:"sync_enabled"`
	PushEnabled        bool             `json:"push_enabled"`
	OfflineQueue       bool             `json:"offline_queue"`
}

// DefaultSettings returns the unoptimized client configuration.
func DefaultSettings() Settings {
	return Settings{
		CompressionLevel: CompressionMedium,
		ImageQuality:     ImageQualityHigh,
		SyncInterval:     15 * time.Minute,
		CacheRetention:   24 * time.Hour,
		NetworkEnabled:   true,
		SyncEnabled:      true,
		PushEnabled:      true,
	}
}

// Result reports what the optimizer changed and what it expects to save.
type Result struct {
	OriginalSize         int64    `json:"original_size"`
	OptimizedSize        int64    `json:"optimized_size"`
	CompressionRatio     float64  `json:"compression_ratio"` // percent
	EstimatedSavings     int64    `json:"estimated_savings"` // bytes per day
	AppliedOptimizations []string `json:"applied_optimizations"`
	Recommendations      []string `json:"recommendations"`
	Settings             Settings `json:"settings"`
}

// Strategy is the outcome of GetIntelligentSyncStrategy.
type Strategy struct {
	SyncNow            bool               `json:"sync_now"`
	SyncStrategy       types.SyncStrategy `json:"sync_strategy"`
	EstimatedDataUsage int64              `json:"estimated_data_usage"`
	Recommendations    []string           `json:"recommendations"`
}

// OfflineFirstPlan configures a client for extended offline operation.
type OfflineFirstPlan struct {
	CacheRetention      time.Duration      `json:"cache_retention"`
	MaxQueuedOperations int                `json:"max_queued_operations"`
	FlushBatchSize      int                `json:"flush_batch_size"`
	ReconnectStrategy   types.SyncStrategy `json:"reconnect_strategy"`
	Settings            Settings           `json:"settings"`
	Recommendations     []string           `json:"recommendations"`
}

// Config holds optimizer settings.
type Config struct {
	// BaseRequestBytes is the assumed uncompressed size of a typical sync
	// request, used for ratio and savings arithmetic.
	BaseRequestBytes int64 `mapstructure:"base_request_bytes"`
}

// Engine applies optimization rules using tracked usage as evidence.
type Engine struct {
	usage  *usage.Tracker
	logger *zap.Logger
	cfg    Config
}

// NewEngine creates an optimization engine.
func NewEngine(tracker *usage.Tracker, logger *zap.Logger, cfg Config) *Engine {
	if cfg.BaseRequestBytes <= 0 {
		cfg.BaseRequestBytes = 512 * 1024
	}
	return &Engine{usage: tracker, logger: logger, cfg: cfg}
}

// Optimize derives settings for the current connection and limit state.
// Rules are cumulative: cellular savings, offline lockdown and limit
// proximity all stack onto the same settings copy.
func (e *Engine) Optimize(ctx context.Context, connType types.ConnectionType, limit *types.DataUsageLimit, current Settings, userID, tenantID string) *Result {
	settings := current
	var applied []string

	stats := e.dayStats(ctx, userID, tenantID)

	if connType == types.ConnectionCellular {
		settings.CompressionLevel = CompressionMaximum
		settings.ImageQuality = ImageQualityLow
		settings.SyncInterval = doubleInterval(settings.SyncInterval)
		settings.AggressiveCaching = true
		settings.DeferDownloadsOver = 1024 * 1024
		settings.DataSaver = true
		applied = append(applied,
			"max_compression", "low_image_quality", "extended_sync_interval",
			"aggressive_caching", "defer_large_downloads", "data_saver_mode")
	}

	if connType == types.ConnectionOffline {
		settings.NetworkEnabled = false
		settings.SyncEnabled = false
		settings.PushEnabled = false
		settings.OfflineQueue = true
		settings.CacheRetention = 7 * 24 * time.Hour
		applied = append(applied, "offline_mode", "offline_queueing", "extended_cache_retention")
	}

	if limit != nil && limit.DailyLimit > 0 {
		usedPct := usedPercent(stats, limit)
		switch {
		case usedPct > 90:
			settings.WiFiOnly = true
			settings.CompressionLevel = CompressionMaximum
			settings.DeferNonCritical = true
			applied = append(applied, "critical_data_limit", "wifi_only_sync", "defer_non_critical")
		case usedPct >= limit.WarningThreshold:
			if settings.CompressionLevel != CompressionMaximum {
				settings.CompressionLevel = CompressionHigh
			}
			settings.SyncInterval = settings.SyncInterval + settings.SyncInterval/2
			settings.DeferDownloadsOver = 2 * 1024 * 1024
			applied = append(applied, "high_compression", "extended_sync_interval", "defer_large_downloads")
		}
	}

	original := e.cfg.BaseRequestBytes
	optimized := int64(float64(original) * settings.CompressionLevel.factor())

	result := &Result{
		OriginalSize:         original,
		OptimizedSize:        optimized,
		CompressionRatio:     float64(original-optimized) / float64(original) * 100,
		AppliedOptimizations: applied,
		Settings:             settings,
	}

	// Extrapolate per-day savings from today's observed request volume.
	requestsPerDay := stats.TotalUsage / original
	if requestsPerDay < 10 {
		requestsPerDay = 10
	}
	result.EstimatedSavings = requestsPerDay * (original - optimized)

	result.Recommendations = e.recommendations(stats, limit, connType)
	return result
}

// SyncStrategy decides how much data a sync should move right now. Failures
// reading usage state degrade to a conservative default instead of an error.
func (e *Engine) SyncStrategy(ctx context.Context, userID, tenantID string, connType types.ConnectionType) *Strategy {
	if connType == types.ConnectionOffline {
		return &Strategy{
			SyncNow:      false,
			SyncStrategy: types.StrategyDefer,
			Recommendations: []string{
				"device is offline, queue operations locally until connectivity returns",
			},
		}
	}

	stats, statsErr := e.usage.Stats(ctx, userID, tenantID, types.PeriodDay)
	limit, limitErr := e.usage.Limit(ctx, userID, tenantID)
	if statsErr != nil || limitErr != nil {
		e.logger.Warn("falling back to conservative sync strategy",
			zap.String("tenant_id", tenantID),
			zap.String("user_id", userID),
			zap.NamedError("stats_err", statsErr),
			zap.NamedError("limit_err", limitErr))
		return e.conservativeStrategy(connType)
	}

	strategy := &Strategy{SyncNow: true}
	switch connType {
	case types.ConnectionCellular:
		if limit != nil && usedPercentCounters(stats.TotalUsage, limit) >= limit.WarningThreshold {
			strategy.SyncStrategy = types.StrategyCriticalOnly
			strategy.EstimatedDataUsage = 64 * 1024
			strategy.Recommendations = append(strategy.Recommendations,
				"approaching data limit, syncing critical data only")
		} else {
			strategy.SyncStrategy = types.StrategyIncremental
			strategy.EstimatedDataUsage = e.cfg.BaseRequestBytes
		}
	default:
		strategy.SyncStrategy = types.StrategyFull
		strategy.EstimatedDataUsage = 4 * e.cfg.BaseRequestBytes
	}

	// Never let a sync push the user over the daily cap.
	if limit != nil && limit.DailyLimit > 0 && stats.TotalUsage+strategy.EstimatedDataUsage > limit.DailyLimit {
		strategy.SyncNow = false
		strategy.SyncStrategy = types.StrategyDefer
		strategy.EstimatedDataUsage = 0
		strategy.Recommendations = append(strategy.Recommendations,
			"projected usage would exceed the daily limit, deferring sync")
	}

	return strategy
}

// OfflineFirst builds a plan for clients that must keep working through
// extended connectivity gaps.
func (e *Engine) OfflineFirst(ctx context.Context, userID, tenantID string) *OfflineFirstPlan {
	stats := e.dayStats(ctx, userID, tenantID)

	settings := DefaultSettings()
	settings.OfflineQueue = true
	settings.AggressiveCaching = true
	settings.CacheRetention = 7 * 24 * time.Hour
	settings.CompressionLevel = CompressionHigh

	plan := &OfflineFirstPlan{
		CacheRetention:      settings.CacheRetention,
		MaxQueuedOperations: 500,
		FlushBatchSize:      50,
		ReconnectStrategy:   types.StrategyIncremental,
		Settings:            settings,
	}

	// Heavy users need more queue headroom and flush in bigger batches.
	if stats.TotalUsage > 50*1024*1024 {
		plan.MaxQueuedOperations = 2000
		plan.FlushBatchSize = 200
	}

	if stats.CacheHitRate > 0 && stats.CacheHitRate < 50 {
		plan.Recommendations = append(plan.Recommendations,
			"cache hit rate is low, prefetch frequently used data before going offline")
	}
	return plan
}

func (e *Engine) conservativeStrategy(connType types.ConnectionType) *Strategy {
	if connType == types.ConnectionWiFi {
		return &Strategy{
			SyncNow:            true,
			SyncStrategy:       types.StrategyFull,
			EstimatedDataUsage: 4 * e.cfg.BaseRequestBytes,
			Recommendations:    []string{"usage state unavailable, syncing on wifi only"},
		}
	}
	return &Strategy{
		SyncNow:         false,
		SyncStrategy:    types.StrategyCriticalOnly,
		Recommendations: []string{"usage state unavailable, deferring non-critical sync off wifi"},
	}
}

func (e *Engine) recommendations(stats *types.DataUsageStats, limit *types.DataUsageLimit, connType types.ConnectionType) []string {
	var recs []string

	if stats.TotalUsage > 0 && float64(stats.CompressionSavings)/float64(stats.TotalUsage) < 0.1 {
		recs = append(recs, "compression savings are low, enable compression on more payload types")
	}
	if stats.CacheHitRate > 0 && stats.CacheHitRate < 50 {
		recs = append(recs, "cache hit rate is below 50%, increase cache retention")
	}
	if connType == types.ConnectionCellular && stats.DownloadUsage > 2*stats.UploadUsage && stats.DownloadUsage > 0 {
		recs = append(recs, "downloads dominate cellular traffic, defer large downloads to wifi")
	}
	if limit != nil && limit.DailyLimit > 0 {
		if pct := usedPercent(stats, limit); pct >= limit.WarningThreshold {
			recs = append(recs, "daily usage is near the configured limit, consider raising it or reducing sync frequency")
		}
	}
	return recs
}

// dayStats reads today's bucket, degrading to zeros on failure so the
// optimizer never propagates storage errors.
func (e *Engine) dayStats(ctx context.Context, userID, tenantID string) *types.DataUsageStats {
	stats, err := e.usage.Stats(ctx, userID, tenantID, types.PeriodDay)
	if err != nil {
		e.logger.Warn("usage stats unavailable, optimizing without them",
			zap.String("tenant_id", tenantID),
			zap.String("user_id", userID),
			zap.Error(err))
		return &types.DataUsageStats{UserID: userID, TenantID: tenantID, Period: types.PeriodDay}
	}
	return stats
}

// usedPercent prefers live counters over the limit's advisory mirror.
func usedPercent(stats *types.DataUsageStats, limit *types.DataUsageLimit) float64 {
	used := stats.TotalUsage
	if used == 0 {
		used = limit.CurrentUsage
	}
	return usedPercentCounters(used, limit)
}

func usedPercentCounters(used int64, limit *types.DataUsageLimit) float64 {
	if limit.DailyLimit <= 0 {
		return 0
	}
	return float64(used) / float64(limit.DailyLimit) * 100
}

// doubleInterval doubles a sync interval with a 30 minute floor.
func doubleInterval(interval time.Duration) time.Duration {
	doubled := interval * 2
	if doubled < 30*time.Minute {
		return 30 * time.Minute
	}
	return doubled
}
