// Package types defines the core types for the mobile sync engine.
package types

import (
	"time"
)

// Priority represents the urgency tier of a sync schedule.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank returns the urgency order of a priority; critical ranks highest.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the priority is one of the known tiers.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ConnectionType represents the device's current network connection.
type ConnectionType string

const (
	ConnectionWiFi     ConnectionType = "wifi"
	ConnectionCellular ConnectionType = "cellular"
	ConnectionOffline  ConnectionType = "offline"
)

// ConditionType identifies which context field a condition inspects.
type ConditionType string

const (
	ConditionBatteryLevel   ConditionType = "battery_level"
	ConditionConnectionType ConditionType = "connection_type"
	ConditionDataLimit      ConditionType = "data_limit"
	ConditionTimeWindow     ConditionType = "time_window"
	ConditionUserActivity   ConditionType = "user_activity"
)

// ConditionOperator is the comparison applied by a condition.
type ConditionOperator string

const (
	OperatorGT    ConditionOperator = "gt"
	OperatorLT    ConditionOperator = "lt"
	OperatorEQ    ConditionOperator = "eq"
	OperatorIn    ConditionOperator = "in"
	OperatorNotIn ConditionOperator = "not_in"
)

// SyncCondition is a single predicate evaluated against a SyncContext.
// Required conditions block execution when unmet; advisory ones only
// influence recommendations.
type SyncCondition struct {
	Type     ConditionType     `json:"type" msgpack:"type"`
	Operator ConditionOperator `json:"operator" msgpack:"operator"`
	Value    interface{}       `json:"value" msgpack:"value"`
	Required bool              `json:"required" msgpack:"required"`
}

// BackoffStrategy selects how retry delays grow between attempts.
type BackoffStrategy string

const (
	BackoffLinear      BackoffStrategy = "linear"
	BackoffExponential BackoffStrategy = "exponential"
	BackoffFixed       BackoffStrategy = "fixed"
)

// RetryPolicy is derived from priority at schedule creation and never
// recomputed elsewhere.
type RetryPolicy struct {
	MaxRetries      int             `json:"max_retries" msgpack:"max_retries"`
	BackoffStrategy BackoffStrategy `json:"backoff_strategy" msgpack:"backoff_strategy"`
	BaseDelay       time.Duration   `json:"base_delay" msgpack:"base_delay"`
	MaxDelay        time.Duration   `json:"max_delay" msgpack:"max_delay"`
}

// SyncContext is an ephemeral device/network snapshot. It is recomputed at
// every decision point and never persisted as an entity of its own.
type SyncContext struct {
	BatteryLevel   *int           `json:"battery_level,omitempty" msgpack:"battery_level,omitempty"` // 0-100
	ConnectionType ConnectionType `json:"connection_type" msgpack:"connection_type"`
	DataUsageToday int64          `json:"data_usage_today" msgpack:"data_usage_today"` // bytes
	DataLimit      *int64         `json:"data_limit,omitempty" msgpack:"data_limit,omitempty"`
	UserActive     bool           `json:"user_active" msgpack:"user_active"`
	DeviceCharging bool           `json:"device_charging" msgpack:"device_charging"`
	TimeOfDay      int            `json:"time_of_day" msgpack:"time_of_day"` // 0-23
	DayOfWeek      int            `json:"day_of_week" msgpack:"day_of_week"` // 0-6, Sunday=0
}

// SyncSchedule is a unit of planned sync work, owned exclusively by its
// (tenant, user, device) triple.
type SyncSchedule struct {
	ID                string          `json:"id" msgpack:"id"`
	UserID            string          `json:"user_id" msgpack:"user_id"`
	TenantID          string          `json:"tenant_id" msgpack:"tenant_id"`
	DeviceID          string          `json:"device_id" msgpack:"device_id"`
	DataType          string          `json:"data_type" msgpack:"data_type"`
	Priority          Priority        `json:"priority" msgpack:"priority"`
	ScheduledTime     time.Time       `json:"scheduled_time" msgpack:"scheduled_time"`
	EstimatedDuration time.Duration   `json:"estimated_duration" msgpack:"estimated_duration"`
	EstimatedUsage    int64           `json:"estimated_data_usage" msgpack:"estimated_data_usage"` // bytes
	Conditions        []SyncCondition `json:"conditions" msgpack:"conditions"`
	RetryPolicy       RetryPolicy     `json:"retry_policy" msgpack:"retry_policy"`
	IsActive          bool            `json:"is_active" msgpack:"is_active"`
	RescheduleCount   int             `json:"reschedule_count" msgpack:"reschedule_count"`
	CreatedAt         time.Time       `json:"created_at" msgpack:"created_at"`
}

// UsagePeriod is the aggregation bucket granularity for usage stats.
type UsagePeriod string

const (
	PeriodHour  UsagePeriod = "hour"
	PeriodDay   UsagePeriod = "day"
	PeriodWeek  UsagePeriod = "week"
	PeriodMonth UsagePeriod = "month"
)

// Valid reports whether the period is a known bucket granularity.
func (p UsagePeriod) Valid() bool {
	switch p {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

// UsageOperation is the transfer direction of a tracked operation.
type UsageOperation string

const (
	OperationUpload   UsageOperation = "upload"
	OperationDownload UsageOperation = "download"
)

// DataUsageStats holds aggregated byte counters for one
// (tenant, user, period, bucket) key. Counters are monotonically
// non-decreasing within a bucket's lifetime.
type DataUsageStats struct {
	UserID             string      `json:"user_id" msgpack:"user_id"`
	TenantID           string      `json:"tenant_id" msgpack:"tenant_id"`
	Period             UsagePeriod `json:"period" msgpack:"period"`
	TotalUsage         int64       `json:"total_usage" msgpack:"total_usage"`
	UploadUsage        int64       `json:"upload_usage" msgpack:"upload_usage"`
	DownloadUsage      int64       `json:"download_usage" msgpack:"download_usage"`
	CompressionSavings int64       `json:"compression_savings" msgpack:"compression_savings"`
	CacheHitRate       float64     `json:"cache_hit_rate" msgpack:"cache_hit_rate"` // 0-100
	Timestamp          time.Time   `json:"timestamp" msgpack:"timestamp"`
}

// DataUsageLimit is the per (tenant, user) cap configuration. The advisory
// CurrentUsage mirror is refreshed opportunistically; DataUsageStats remains
// the source of truth.
type DataUsageLimit struct {
	UserID           string    `json:"user_id" msgpack:"user_id"`
	TenantID         string    `json:"tenant_id" msgpack:"tenant_id"`
	DailyLimit       int64     `json:"daily_limit" msgpack:"daily_limit"`
	MonthlyLimit     int64     `json:"monthly_limit" msgpack:"monthly_limit"`
	WarningThreshold float64   `json:"warning_threshold" msgpack:"warning_threshold"` // percent
	CurrentUsage     int64     `json:"current_usage" msgpack:"current_usage"`
	ResetDate        time.Time `json:"reset_date" msgpack:"reset_date"`
	IsActive         bool      `json:"is_active" msgpack:"is_active"`
}

// RecommendationAction is the verdict of a sync recommendation.
type RecommendationAction string

const (
	ActionSyncNow       RecommendationAction = "sync_now"
	ActionScheduleLater RecommendationAction = "schedule_later"
	ActionDefer         RecommendationAction = "defer"
)

// Alternative is one candidate deferral strategy in a recommendation.
type Alternative struct {
	Strategy      string    `json:"strategy"`
	SuggestedTime time.Time `json:"suggested_time"`
	Reason        string    `json:"reason"`
}

// Recommendation is the outcome of GetSyncRecommendation.
type Recommendation struct {
	Action           RecommendationAction `json:"action"`
	Reason           string               `json:"reason"`
	SuggestedTime    *time.Time           `json:"suggested_time,omitempty"`
	EstimatedSavings int64                `json:"estimated_savings,omitempty"` // bytes
	Alternatives     []Alternative        `json:"alternatives,omitempty"`
}

// ExecutionResult is the structured outcome of ExecuteSyncSchedule. It is
// always returned, never replaced by a raised error.
type ExecutionResult struct {
	Success     bool          `json:"success"`
	ExecutedAt  time.Time     `json:"executed_at"`
	Duration    time.Duration `json:"duration"`
	DataUsed    int64         `json:"data_used"`
	Error       string        `json:"error,omitempty"`
	Rescheduled bool          `json:"rescheduled,omitempty"`
}

// SyncOutcome is what the opaque sync operation reports back.
type SyncOutcome struct {
	Success  bool
	DataUsed int64
	Err      error
}

// SyncStrategy names how much data a sync should move.
type SyncStrategy string

const (
	StrategyFull         SyncStrategy = "full"
	StrategyIncremental  SyncStrategy = "incremental"
	StrategyCriticalOnly SyncStrategy = "critical_only"
	StrategyDefer        SyncStrategy = "defer"
)
