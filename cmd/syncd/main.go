// Package main is the entry point for the Mobile Sync Engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mugisham37/mobile-sync-engine/internal/api"
	"github.com/mugisham37/mobile-sync-engine/internal/cachestore"
	"github.com/mugisham37/mobile-sync-engine/internal/config"
	"github.com/mugisham37/mobile-sync-engine/internal/events"
	"github.com/mugisham37/mobile-sync-engine/internal/logger"
	"github.com/mugisham37/mobile-sync-engine/internal/metrics"
	"github.com/mugisham37/mobile-sync-engine/internal/optimize"
	"github.com/mugisham37/mobile-sync-engine/internal/queue"
	"github.com/mugisham37/mobile-sync-engine/internal/ratelimit"
	"github.com/mugisham37/mobile-sync-engine/internal/scheduler"
	"github.com/mugisham37/mobile-sync-engine/internal/usage"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{
		Level:       cfg.Logger.Level,
		Development: cfg.Logger.Development,
		Encoding:    cfg.Logger.Encoding,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.Log
	log.Info("Starting Mobile Sync Engine",
		zap.Int("http_port", cfg.Server.Port))

	// Initialize cache store: Redis when configured, in-memory otherwise
	var store cachestore.Store
	if cfg.Redis.Addr != "" {
		redisClient := initRedis(&cfg.Redis)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		store = cachestore.NewRedis(redisClient)
		log.Info("Connected to Redis")
	} else {
		store = cachestore.NewMemory()
		log.Info("Using in-memory cache store")
	}

	// Initialize components
	bus := events.NewBus(128)
	m := metrics.New()

	tracker := usage.NewTracker(store, bus, m, logger.Named("usage"), usage.Config{
		HourTTL:  cfg.Usage.HourTTL,
		DayTTL:   cfg.Usage.DayTTL,
		WeekTTL:  cfg.Usage.WeekTTL,
		MonthTTL: cfg.Usage.MonthTTL,
	})
	log.Info("Usage tracker initialized")

	optimizer := optimize.NewEngine(tracker, logger.Named("optimize"), optimize.Config{
		BaseRequestBytes: cfg.Optimize.BaseRequestBytes,
	})
	log.Info("Optimization engine initialized")

	rateLimiter := ratelimit.NewLimiter(&ratelimit.Config{
		DefaultRPS:         cfg.Rate.DefaultRPS,
		BurstMultiplier:    cfg.Rate.BurstMultiplier,
		MaxConcurrentSyncs: cfg.Rate.MaxConcurrentSyncs,
	})
	log.Info("Rate limiter initialized")

	workers, err := queue.NewWorkers(queue.Config{
		PoolSize:       cfg.Queue.PoolSize,
		MaxPendingJobs: cfg.Queue.MaxPendingJobs,
	}, m, logger.Named("queue"))
	if err != nil {
		log.Fatal("Failed to create worker pool", zap.Error(err))
	}
	log.Info("Execution queue initialized")

	contexts := scheduler.NewCachedContextProvider(store, tracker)

	sched := scheduler.NewScheduler(store, workers, logger.Named("scheduler"), scheduler.Config{
		SweepInterval:     cfg.Scheduler.SweepInterval,
		ImmediateWindow:   cfg.Scheduler.ImmediateWindow,
		DefaultUsageBytes: cfg.Scheduler.DefaultUsageBytes,
		ScheduleTTL:       cfg.Cache.ScheduleTTL,
	}, scheduler.Options{
		Contexts: contexts,
		Usage:    tracker,
		Limiter:  rateLimiter,
		Bus:      bus,
		Metrics:  m,
	})
	workers.SetHandler(sched.HandleJob)
	sched.Start()
	log.Info("Scheduler started")

	// Initialize API server
	server := api.NewServer(
		&cfg.Server,
		sched,
		tracker,
		optimizer,
		workers,
		rateLimiter,
		logger.Named("api"),
	)
	log.Info("API server initialized")

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sched.Stop()
	workers.Stop()
	if err := server.Shutdown(); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	select {
	case <-ctx.Done():
		log.Warn("Shutdown timed out")
	default:
		log.Info("Shutdown complete")
	}
}

// initRedis initializes Redis connection.
func initRedis(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}
