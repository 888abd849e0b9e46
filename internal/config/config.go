// Package config provides configuration management using viper.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Usage     UsageConfig     `mapstructure:"usage"`
	Optimize  OptimizeConfig  `mapstructure:"optimize"`
	Rate      RateConfig      `mapstructure:"rate"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// RedisConfig holds Redis settings. An empty Addr selects the in-memory
// cache store instead.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CacheConfig holds cache store TTL settings.
type CacheConfig struct {
	ScheduleTTL      time.Duration `mapstructure:"schedule_ttl"`
	DeviceContextTTL time.Duration `mapstructure:"device_context_ttl"`
}

// QueueConfig holds execution queue settings.
type QueueConfig struct {
	PoolSize       int `mapstructure:"pool_size"`
	MaxPendingJobs int `mapstructure:"max_pending_jobs"`
}

// SchedulerConfig holds orchestrator settings.
type SchedulerConfig struct {
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	ImmediateWindow   time.Duration `mapstructure:"immediate_window"`
	DefaultUsageBytes int64         `mapstructure:"default_usage_bytes"`
}

// UsageConfig holds data usage tracker settings.
type UsageConfig struct {
	HourTTL  time.Duration `mapstructure:"hour_ttl"`
	DayTTL   time.Duration `mapstructure:"day_ttl"`
	WeekTTL  time.Duration `mapstructure:"week_ttl"`
	MonthTTL time.Duration `mapstructure:"month_ttl"`
}

// OptimizeConfig holds data optimization engine settings.
type OptimizeConfig struct {
	BaseRequestBytes int64 `mapstructure:"base_request_bytes"`
}

// RateConfig holds rate limiter settings.
type RateConfig struct {
	DefaultRPS         int     `mapstructure:"default_rps"`
	BurstMultiplier    float64 `mapstructure:"burst_multiplier"`
	MaxConcurrentSyncs int     `mapstructure:"max_concurrent_syncs"`
}

// LoggerConfig holds logger settings.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	Encoding    string `mapstructure:"encoding"`
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/sync-engine")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("SYNC_ENGINE")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Redis defaults
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.pool_size", 50)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// Cache defaults
	v.SetDefault("cache.schedule_ttl", "168h")
	v.SetDefault("cache.device_context_ttl", "1h")

	// Queue defaults
	v.SetDefault("queue.pool_size", 64)
	v.SetDefault("queue.max_pending_jobs", 10000)

	// Scheduler defaults
	v.SetDefault("scheduler.sweep_interval", "5m")
	v.SetDefault("scheduler.immediate_window", "60s")
	v.SetDefault("scheduler.default_usage_bytes", 1048576)

	// Usage bucket TTLs
	v.SetDefault("usage.hour_ttl", "2h")
	v.SetDefault("usage.day_ttl", "24h")
	v.SetDefault("usage.week_ttl", "168h")
	v.SetDefault("usage.month_ttl", "744h")

	// Optimizer defaults
	v.SetDefault("optimize.base_request_bytes", 524288)

	// Rate limiter defaults
	v.SetDefault("rate.default_rps", 50)
	v.SetDefault("rate.burst_multiplier", 2.0)
	v.SetDefault("rate.max_concurrent_syncs", 2)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.development", false)
	v.SetDefault("logger.encoding", "json")
}
