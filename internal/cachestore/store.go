// Package cachestore provides the TTL key-value store backing schedules,
// usage counters and device context snapshots.
package cachestore

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Store is the persistence contract of the sync engine. Values are opaque
// documents; counter keys hold named int64 fields that must be incremented
// atomically so concurrent trackers cannot lose updates.
type Store interface {
	// Get unmarshals the value at key into dest. Returns false when the key
	// is absent or expired.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	// Set stores value at key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// IncrField atomically adds delta to a named counter field under key,
	// creating the key with the given ttl on first touch. Returns the new value.
	IncrField(ctx context.Context, key, field string, delta int64, ttl time.Duration) (int64, error)
	// Counters returns all counter fields under key; empty map when absent.
	Counters(ctx context.Context, key string) (map[string]int64, error)
	// ScanKeys returns all live keys with the given prefix.
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
}

// Key prefixes. Tenant isolation is enforced purely by key construction.
const (
	prefixSchedules     = "sync_schedules"
	prefixScheduleOwner = "sync_schedule_owner"
	prefixUsage         = "data_usage"
	prefixUsageLimit    = "data_usage_limit"
	prefixDeviceContext = "device_context"
)

// ScheduleBucketKey is the per (tenant, user) schedule bucket.
func ScheduleBucketKey(tenantID, userID string) string {
	return prefixSchedules + ":" + tenantID + ":" + userID
}

// ScheduleBucketPrefix matches every schedule bucket, for sweep scans.
func ScheduleBucketPrefix() string {
	return prefixSchedules + ":"
}

// ScheduleOwnerKey maps a schedule id back to its bucket key.
func ScheduleOwnerKey(scheduleID string) string {
	return prefixScheduleOwner + ":" + scheduleID
}

// UsageKey is the counter key for one usage bucket.
func UsageKey(tenantID, userID, period, dateKey string) string {
	return prefixUsage + ":" + tenantID + ":" + userID + ":" + period + ":" + dateKey
}

// UsageLimitKey holds the per (tenant, user) cap configuration.
func UsageLimitKey(tenantID, userID string) string {
	return prefixUsageLimit + ":" + tenantID + ":" + userID
}

// DeviceContextKey holds the last reported context snapshot for a device.
func DeviceContextKey(tenantID, userID, deviceID string) string {
	return prefixDeviceContext + ":" + tenantID + ":" + userID + ":" + deviceID
}

// SplitBucketKey extracts tenant and user from a schedule bucket key.
func SplitBucketKey(key string) (tenantID, userID string, err error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 || parts[0] != prefixSchedules {
		return "", "", errors.Errorf("malformed schedule bucket key %q", key)
	}
	return parts[1], parts[2], nil
}
