// Package logger provides the zap-based logging setup for the sync engine.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the global logger instance.
	Log *zap.Logger
	// Sugar is the sugared logger for convenience.
	Sugar *zap.SugaredLogger
)

// Config holds logger configuration.
type Config struct {
	Level       string `mapstructure:"level"`       // debug, info, warn, error
	Development bool   `mapstructure:"development"` // console-friendly output
	Encoding    string `mapstructure:"encoding"`    // json or console
}

// Init initializes the global logger.
func Init(cfg *Config) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var config zap.Config
	if cfg.Development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	config.Level = zap.NewAtomicLevelAt(level)
	if cfg.Encoding != "" {
		config.Encoding = cfg.Encoding
	}

	var err error
	Log, err = config.Build(zap.AddCaller())
	if err != nil {
		return err
	}

	Sugar = Log.Sugar()
	return nil
}

// InitDefault initializes with defaults based on the ENV variable.
func InitDefault() {
	env := os.Getenv("ENV")
	cfg := &Config{
		Level:       "info",
		Development: env != "production",
		Encoding:    "json",
	}
	if cfg.Development {
		cfg.Level = "debug"
		cfg.Encoding = "console"
	}
	if err := Init(cfg); err != nil {
		panic(err)
	}
}

// Named returns a child logger with the given component name. Falls back to
// a no-op logger when Init was never called, so library packages stay usable
// in tests without global setup.
func Named(name string) *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	return Log.Named(name)
}

// Sync flushes any buffered log entries.
func Sync() error {
	if Log == nil {
		return nil
	}
	return Log.Sync()
}
