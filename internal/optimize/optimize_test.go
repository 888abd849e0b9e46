package optimize

import (
	"context"
	"testing"
	"time"

	"github.com/mugisham37/mobile-sync-engine/internal/cachestore"
	"github.com/mugisham37/mobile-sync-engine/internal/usage"
	"github.com/mugisham37/mobile-sync-engine/pkg/types"

	"go.uber.org/zap"
)

func newTestEngine() (*Engine, *usage.Tracker) {
	store := cachestore.NewMemory()
	tracker := usage.NewTracker(store, nil, nil, zap.NewNop(), usage.Config{})
	engine := NewEngine(tracker, zap.NewNop(), Config{BaseRequestBytes: 512 * 1024})
	return engine, tracker
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestOptimizeCellular(t *testing.T) {
	engine, _ := newTestEngine()

	result := engine.Optimize(context.Background(), types.ConnectionCellular, nil, DefaultSettings(), "u1", "t1")

	if result.Settings.CompressionLevel != CompressionMaximum {
		t.Errorf("compression = %s, want maximum", result.Settings.CompressionLevel)
	}
	if result.Settings.ImageQuality != ImageQualityLow {
		t.Errorf("image quality = %s, want low", result.Settings.ImageQuality)
	}
	if result.Settings.SyncInterval != 30*time.Minute {
		t.Errorf("sync interval = %s, want 30m floor", result.Settings.SyncInterval)
	}
	if !result.Settings.DataSaver || !result.Settings.AggressiveCaching {
		t.Error("data saver and aggressive caching should be on for cellular")
	}
	for _, opt := range []string{"max_compression", "low_image_quality", "extended_sync_interval", "aggressive_caching", "defer_large_downloads", "data_saver_mode"} {
		if !contains(result.AppliedOptimizations, opt) {
			t.Errorf("missing applied optimization %q", opt)
		}
	}
}

func TestOptimizeWiFiLeavesDefaults(t *testing.T) {
	engine, _ := newTestEngine()

	result := engine.Optimize(context.Background(), types.ConnectionWiFi, nil, DefaultSettings(), "u1", "t1")

	if result.Settings.CompressionLevel != CompressionMedium {
		t.Errorf("compression = %s, want medium", result.Settings.CompressionLevel)
	}
	if len(result.AppliedOptimizations) != 0 {
		t.Errorf("wifi with no limit should apply nothing, got %v", result.AppliedOptimizations)
	}
}

func TestOptimizeOffline(t *testing.T) {
	engine, _ := newTestEngine()

	result := engine.Optimize(context.Background(), types.ConnectionOffline, nil, DefaultSettings(), "u1", "t1")

	if result.Settings.NetworkEnabled || result.Settings.SyncEnabled || result.Settings.PushEnabled {
		t.Error("offline should disable network, sync and push")
	}
	if !result.Settings.OfflineQueue {
		t.Error("offline should enable the offline queue")
	}
	if result.Settings.CacheRetention != 7*24*time.Hour {
		t.Errorf("cache retention = %s, want 168h", result.Settings.CacheRetention)
	}
}

func TestOptimizeNearLimitGoesCritical(t *testing.T) {
	engine, tracker := newTestEngine()
	ctx := context.Background()

	tracker.SetLimit(ctx, "u1", "t1", 1000, 30000, 80)
	tracker.Track(ctx, "u1", "t1", types.OperationDownload, 950, false)

	limit, _ := tracker.Limit(ctx, "u1", "t1")
	result := engine.Optimize(ctx, types.ConnectionWiFi, limit, DefaultSettings(), "u1", "t1")

	if !result.Settings.WiFiOnly {
		t.Error("above 90% usage should force wifi-only sync")
	}
	if !result.Settings.DeferNonCritical {
		t.Error("above 90% usage should defer non-critical data")
	}
	if !contains(result.AppliedOptimizations, "critical_data_limit") {
		t.Errorf("applied = %v, want critical_data_limit", result.AppliedOptimizations)
	}
}

func TestOptimizeWarningThreshold(t *testing.T) {
	engine, tracker := newTestEngine()
	ctx := context.Background()

	tracker.SetLimit(ctx, "u1", "t1", 1000, 30000, 80)
	tracker.Track(ctx, "u1", "t1", types.OperationDownload, 850, false)

	limit, _ := tracker.Limit(ctx, "u1", "t1")
	result := engine.Optimize(ctx, types.ConnectionWiFi, limit, DefaultSettings(), "u1", "t1")

	if result.Settings.CompressionLevel != CompressionHigh {
		t.Errorf("compression = %s, want high at warning threshold", result.Settings.CompressionLevel)
	}
	if !contains(result.AppliedOptimizations, "high_compression") {
		t.Errorf("applied = %v, want high_compression", result.AppliedOptimizations)
	}
}

func TestOptimizeRatioAndSavings(t *testing.T) {
	engine, _ := newTestEngine()

	result := engine.Optimize(context.Background(), types.ConnectionCellular, nil, DefaultSettings(), "u1", "t1")

	// Maximum compression reduces to 40% of original size.
	origSize := int64(512 * 1024)
	wantOptimized := int64(float64(origSize) * 0.4)
	if result.OptimizedSize != wantOptimized {
		t.Errorf("optimized size = %d, want %d", result.OptimizedSize, wantOptimized)
	}
	if result.CompressionRatio < 59 || result.CompressionRatio > 61 {
		t.Errorf("compression ratio = %.1f, want about 60", result.CompressionRatio)
	}
	// With no tracked usage, savings extrapolate from the 10-request floor.
	wantSavings := 10 * (int64(512*1024) - wantOptimized)
	if result.EstimatedSavings != wantSavings {
		t.Errorf("estimated savings = %d, want %d", result.EstimatedSavings, wantSavings)
	}
}

func TestSyncStrategyOffline(t *testing.T) {
	engine, _ := newTestEngine()

	strategy := engine.SyncStrategy(context.Background(), "u1", "t1", types.ConnectionOffline)
	if strategy.SyncNow {
		t.Error("offline should not sync now")
	}
	if strategy.SyncStrategy != types.StrategyDefer {
		t.Errorf("strategy = %s, want defer", strategy.SyncStrategy)
	}
	if strategy.EstimatedDataUsage != 0 {
		t.Errorf("estimated usage = %d, want 0", strategy.EstimatedDataUsage)
	}
}

func TestSyncStrategyWiFiFull(t *testing.T) {
	engine, _ := newTestEngine()

	strategy := engine.SyncStrategy(context.Background(), "u1", "t1", types.ConnectionWiFi)
	if !strategy.SyncNow {
		t.Error("wifi should sync now")
	}
	if strategy.SyncStrategy != types.StrategyFull {
		t.Errorf("strategy = %s, want full", strategy.SyncStrategy)
	}
	if strategy.EstimatedDataUsage != 4*512*1024 {
		t.Errorf("estimated usage = %d, want %d", strategy.EstimatedDataUsage, 4*512*1024)
	}
}

func TestSyncStrategyCellularIncremental(t *testing.T) {
	engine, _ := newTestEngine()

	strategy := engine.SyncStrategy(context.Background(), "u1", "t1", types.ConnectionCellular)
	if strategy.SyncStrategy != types.StrategyIncremental {
		t.Errorf("strategy = %s, want incremental", strategy.SyncStrategy)
	}
	if strategy.EstimatedDataUsage != 512*1024 {
		t.Errorf("estimated usage = %d, want base request size", strategy.EstimatedDataUsage)
	}
}

func TestSyncStrategyCellularNearLimit(t *testing.T) {
	engine, tracker := newTestEngine()
	ctx := context.Background()

	tracker.SetLimit(ctx, "u1", "t1", 10*1024*1024, 300*1024*1024, 80)
	tracker.Track(ctx, "u1", "t1", types.OperationDownload, 9*1024*1024, false)

	strategy := engine.SyncStrategy(ctx, "u1", "t1", types.ConnectionCellular)
	if strategy.SyncStrategy != types.StrategyCriticalOnly {
		t.Errorf("strategy = %s, want critical_only near limit", strategy.SyncStrategy)
	}
	if strategy.EstimatedDataUsage != 64*1024 {
		t.Errorf("estimated usage = %d, want 64KB", strategy.EstimatedDataUsage)
	}
}

func TestSyncStrategyNeverExceedsDailyLimit(t *testing.T) {
	engine, tracker := newTestEngine()
	ctx := context.Background()

	// Full wifi sync would need 2MB but only 1MB of headroom remains.
	tracker.SetLimit(ctx, "u1", "t1", 4*1024*1024, 300*1024*1024, 99)
	tracker.Track(ctx, "u1", "t1", types.OperationDownload, 3*1024*1024, false)

	strategy := engine.SyncStrategy(ctx, "u1", "t1", types.ConnectionWiFi)
	if strategy.SyncNow {
		t.Error("sync that would exceed the daily limit must be deferred")
	}
	if strategy.SyncStrategy != types.StrategyDefer {
		t.Errorf("strategy = %s, want defer", strategy.SyncStrategy)
	}
}

func TestOfflineFirstPlan(t *testing.T) {
	engine, _ := newTestEngine()

	plan := engine.OfflineFirst(context.Background(), "u1", "t1")
	if plan.MaxQueuedOperations != 500 || plan.FlushBatchSize != 50 {
		t.Errorf("plan sizing = %d/%d, want 500/50", plan.MaxQueuedOperations, plan.FlushBatchSize)
	}
	if plan.ReconnectStrategy != types.StrategyIncremental {
		t.Errorf("reconnect strategy = %s, want incremental", plan.ReconnectStrategy)
	}
	if !plan.Settings.OfflineQueue || !plan.Settings.AggressiveCaching {
		t.Error("offline-first settings should queue and cache aggressively")
	}
}

func TestOfflineFirstHeavyUser(t *testing.T) {
	engine, tracker := newTestEngine()
	ctx := context.Background()

	tracker.Track(ctx, "u1", "t1", types.OperationDownload, 60*1024*1024, false)

	plan := engine.OfflineFirst(ctx, "u1", "t1")
	if plan.MaxQueuedOperations != 2000 || plan.FlushBatchSize != 200 {
		t.Errorf("heavy-user plan sizing = %d/%d, want 2000/200", plan.MaxQueuedOperations, plan.FlushBatchSize)
	}
}

func TestCompressionFactors(t *testing.T) {
	tests := []struct {
		level  CompressionLevel
		factor float64
	}{
		{CompressionMaximum, 0.4},
		{CompressionHigh, 0.55},
		{CompressionMedium, 0.7},
		{CompressionLow, 0.85},
		{CompressionNone, 1.0},
	}
	for _, tt := range tests {
		if got := tt.level.factor(); got != tt.factor {
			t.Errorf("%s factor = %v, want %v", tt.level, got, tt.factor)
		}
	}
}
