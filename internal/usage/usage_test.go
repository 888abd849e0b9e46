package usage

import (
	"context"
	"testing"
	"time"

	"github.com/mugisham37/mobile-sync-engine/internal/cachestore"
	"github.com/mugisham37/mobile-sync-engine/pkg/types"

	"go.uber.org/zap"
)

var trackTime = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func newTestTracker() (*Tracker, *cachestore.Memory) {
	store := cachestore.NewMemory()
	tracker := NewTracker(store, nil, nil, zap.NewNop(), Config{})
	tracker.SetNowFunc(func() time.Time { return trackTime })
	return tracker, store
}

func TestTrackAccumulatesAllPeriods(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	if err := tracker.Track(ctx, "u1", "t1", types.OperationDownload, 1000, false); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if err := tracker.Track(ctx, "u1", "t1", types.OperationDownload, 500, false); err != nil {
		t.Fatalf("Track: %v", err)
	}

	for _, period := range []types.UsagePeriod{types.PeriodHour, types.PeriodDay, types.PeriodWeek, types.PeriodMonth} {
		stats, err := tracker.Stats(ctx, "u1", "t1", period)
		if err != nil {
			t.Fatalf("Stats(%s): %v", period, err)
		}
		if stats.TotalUsage != 1500 {
			t.Errorf("%s total = %d, want 1500", period, stats.TotalUsage)
		}
		if stats.DownloadUsage != 1500 {
			t.Errorf("%s download = %d, want 1500", period, stats.DownloadUsage)
		}
		if stats.UploadUsage != 0 {
			t.Errorf("%s upload = %d, want 0", period, stats.UploadUsage)
		}
	}
}

func TestTrackUploadVsDownload(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	tracker.Track(ctx, "u1", "t1", types.OperationUpload, 200, false)
	tracker.Track(ctx, "u1", "t1", types.OperationDownload, 300, false)

	stats, err := tracker.Stats(ctx, "u1", "t1", types.PeriodDay)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.UploadUsage != 200 {
		t.Errorf("upload = %d, want 200", stats.UploadUsage)
	}
	if stats.DownloadUsage != 300 {
		t.Errorf("download = %d, want 300", stats.DownloadUsage)
	}
	if stats.TotalUsage != 500 {
		t.Errorf("total = %d, want 500", stats.TotalUsage)
	}
}

func TestTrackCompressionSavings(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	tracker.Track(ctx, "u1", "t1", types.OperationDownload, 1000, true)

	stats, _ := tracker.Stats(ctx, "u1", "t1", types.PeriodDay)
	if stats.CompressionSavings != 500 {
		t.Errorf("savings = %d, want 500", stats.CompressionSavings)
	}
}

func TestTrackRejectsNegativeBytes(t *testing.T) {
	tracker, _ := newTestTracker()
	if err := tracker.Track(context.Background(), "u1", "t1", types.OperationDownload, -1, false); err == nil {
		t.Error("negative byte count should be rejected")
	}
}

func TestTrackTenantIsolation(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	tracker.Track(ctx, "u1", "t1", types.OperationDownload, 1000, false)
	tracker.Track(ctx, "u1", "t2", types.OperationDownload, 70, false)

	stats1, _ := tracker.Stats(ctx, "u1", "t1", types.PeriodDay)
	stats2, _ := tracker.Stats(ctx, "u1", "t2", types.PeriodDay)
	if stats1.TotalUsage != 1000 {
		t.Errorf("tenant t1 total = %d, want 1000", stats1.TotalUsage)
	}
	if stats2.TotalUsage != 70 {
		t.Errorf("tenant t2 total = %d, want 70", stats2.TotalUsage)
	}
}

func TestStatsMissingBucketIsZero(t *testing.T) {
	tracker, _ := newTestTracker()

	stats, err := tracker.Stats(context.Background(), "nobody", "t1", types.PeriodDay)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalUsage != 0 || stats.UploadUsage != 0 || stats.DownloadUsage != 0 {
		t.Errorf("missing bucket should be zero-valued, got %+v", stats)
	}
	if stats.UserID != "nobody" || stats.Period != types.PeriodDay {
		t.Errorf("stats identity fields = %+v", stats)
	}
}

func TestStatsRejectsUnknownPeriod(t *testing.T) {
	tracker, _ := newTestTracker()
	if _, err := tracker.Stats(context.Background(), "u1", "t1", "fortnight"); err == nil {
		t.Error("unknown period should be rejected")
	}
}

func TestCacheHitRate(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tracker.TrackCacheAccess(ctx, "u1", "t1", true)
	}
	tracker.TrackCacheAccess(ctx, "u1", "t1", false)

	stats, _ := tracker.Stats(ctx, "u1", "t1", types.PeriodDay)
	if stats.CacheHitRate != 75 {
		t.Errorf("cache hit rate = %.1f, want 75", stats.CacheHitRate)
	}
}

func TestSetLimitAndReadBack(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	limit, err := tracker.SetLimit(ctx, "u1", "t1", 100*1024*1024, 3*1024*1024*1024, 80)
	if err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	wantReset := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !limit.ResetDate.Equal(wantReset) {
		t.Errorf("reset date = %s, want %s", limit.ResetDate, wantReset)
	}

	got, err := tracker.Limit(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("Limit: %v", err)
	}
	if got == nil {
		t.Fatal("expected a limit")
	}
	if got.DailyLimit != 100*1024*1024 {
		t.Errorf("daily limit = %d", got.DailyLimit)
	}
}

func TestSetLimitDefaultsWarningThreshold(t *testing.T) {
	tracker, _ := newTestTracker()

	limit, err := tracker.SetLimit(context.Background(), "u1", "t1", 1000, 30000, 0)
	if err != nil {
		t.Fatalf("SetLimit: %v", err)
	}
	if limit.WarningThreshold != 80 {
		t.Errorf("warning threshold = %.1f, want 80", limit.WarningThreshold)
	}
}

func TestSetLimitRejectsNonPositive(t *testing.T) {
	tracker, _ := newTestTracker()
	if _, err := tracker.SetLimit(context.Background(), "u1", "t1", 0, 30000, 80); err == nil {
		t.Error("zero daily limit should be rejected")
	}
	if _, err := tracker.SetLimit(context.Background(), "u1", "t1", 1000, -1, 80); err == nil {
		t.Error("negative monthly limit should be rejected")
	}
}

func TestLimitAbsent(t *testing.T) {
	tracker, _ := newTestTracker()
	got, err := tracker.Limit(context.Background(), "u1", "t1")
	if err != nil {
		t.Fatalf("Limit: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil limit, got %+v", got)
	}
}

func TestThresholdRefreshesCurrentUsage(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	tracker.SetLimit(ctx, "u1", "t1", 1000, 30000, 80)
	tracker.Track(ctx, "u1", "t1", types.OperationDownload, 900, false)

	limit, _ := tracker.Limit(ctx, "u1", "t1")
	if limit.CurrentUsage != 900 {
		t.Errorf("current usage mirror = %d, want 900", limit.CurrentUsage)
	}
}

func TestBucketKeyFormats(t *testing.T) {
	tracker, _ := newTestTracker()

	if got := tracker.bucketKey(types.PeriodHour, trackTime); got != "2025-03-10-14" {
		t.Errorf("hour key = %q", got)
	}
	if got := tracker.bucketKey(types.PeriodDay, trackTime); got != "2025-03-10" {
		t.Errorf("day key = %q", got)
	}
	if got := tracker.bucketKey(types.PeriodWeek, trackTime); got != "2025-W11" {
		t.Errorf("week key = %q", got)
	}
	if got := tracker.bucketKey(types.PeriodMonth, trackTime); got != "2025-03" {
		t.Errorf("month key = %q", got)
	}
}
