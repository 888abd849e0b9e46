package scheduler

import (
	"context"
	"time"

	"github.com/mugisham37/mobile-sync-engine/internal/cachestore"
	"github.com/mugisham37/mobile-sync-engine/internal/usage"
	"github.com/mugisham37/mobile-sync-engine/pkg/types"

	"github.com/pkg/errors"
)

// ContextProvider supplies the device/network snapshot for a decision
// point. Snapshots are ephemeral; every decision fetches a fresh one.
type ContextProvider interface {
	Snapshot(ctx context.Context, userID, tenantID, deviceID string) (*types.SyncContext, error)
}

// CachedContextProvider reads the last context snapshot the device reported
// and overlays live usage state (today's bytes and the configured limit).
type CachedContextProvider struct {
	store cachestore.Store
	usage *usage.Tracker
	now   func() time.Time
}

// NewCachedContextProvider creates the default context provider.
func NewCachedContextProvider(store cachestore.Store, tracker *usage.Tracker) *CachedContextProvider {
	return &CachedContextProvider{store: store, usage: tracker, now: time.Now}
}

// Snapshot implements ContextProvider.
func (p *CachedContextProvider) Snapshot(ctx context.Context, userID, tenantID, deviceID string) (*types.SyncContext, error) {
	var snapshot types.SyncContext
	found, err := p.store.Get(ctx, cachestore.DeviceContextKey(tenantID, userID, deviceID), &snapshot)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read device context")
	}
	if !found {
		return nil, ErrNoDeviceContext
	}

	now := p.now()
	snapshot.TimeOfDay = now.Hour()
	snapshot.DayOfWeek = int(now.Weekday())

	if p.usage != nil {
		if stats, err := p.usage.Stats(ctx, userID, tenantID, types.PeriodDay); err == nil {
			snapshot.DataUsageToday = stats.TotalUsage
		}
		if limit, err := p.usage.Limit(ctx, userID, tenantID); err == nil && limit != nil {
			daily := limit.DailyLimit
			snapshot.DataLimit = &daily
		}
	}

	return &snapshot, nil
}

// fallbackContext is used when no device snapshot is available. It assumes
// a benign wifi state; required conditions are re-checked against a real
// snapshot before execution anyway.
func fallbackContext(now time.Time) *types.SyncContext {
	return &types.SyncContext{
		ConnectionType: types.ConnectionWiFi,
		TimeOfDay:      now.Hour(),
		DayOfWeek:      int(now.Weekday()),
	}
}

// ErrNoDeviceContext indicates the device never reported a snapshot.
var ErrNoDeviceContext = errors.New("no device context snapshot available")
