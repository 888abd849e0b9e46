// Package api provides the HTTP API using Fiber.
package api

import (
	"fmt"
	"time"

	"github.com/mugisham37/mobile-sync-engine/internal/config"
	"github.com/mugisham37/mobile-sync-engine/internal/metrics"
	"github.com/mugisham37/mobile-sync-engine/internal/optimize"
	"github.com/mugisham37/mobile-sync-engine/internal/queue"
	"github.com/mugisham37/mobile-sync-engine/internal/ratelimit"
	"github.com/mugisham37/mobile-sync-engine/internal/scheduler"
	"github.com/mugisham37/mobile-sync-engine/internal/usage"
	"github.com/mugisham37/mobile-sync-engine/pkg/types"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server is the HTTP API server.
type Server struct {
	app       *fiber.App
	cfg       *config.ServerConfig
	scheduler *scheduler.Scheduler
	usage     *usage.Tracker
	optimizer *optimize.Engine
	workers   *queue.Workers
	limiter   *ratelimit.Limiter
	logger    *zap.Logger
}

// NewServer creates a new API server.
func NewServer(
	cfg *config.ServerConfig,
	sched *scheduler.Scheduler,
	tracker *usage.Tracker,
	optimizer *optimize.Engine,
	workers *queue.Workers,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Mobile Sync Engine",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	s := &Server{
		app:       app,
		cfg:       cfg,
		scheduler: sched,
		usage:     tracker,
		optimizer: optimizer,
		workers:   workers,
		limiter:   limiter,
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware sets up middleware.
func (s *Server) setupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(cors.New())
}

// setupRoutes sets up routes.
func (s *Server) setupRoutes() {
	// Health check
	s.app.Get("/health", s.handleHealth)

	// API v1
	v1 := s.app.Group("/v1")

	// Schedule endpoints
	v1.Post("/schedules", s.rateLimitMiddleware, s.handleCreateSchedule)
	v1.Get("/schedules", s.rateLimitMiddleware, s.handleListSchedules)
	v1.Delete("/schedules/:id", s.rateLimitMiddleware, s.handleCancelSchedule)
	v1.Post("/schedules/:id/execute", s.rateLimitMiddleware, s.handleExecuteSchedule)
	v1.Get("/recommendation", s.rateLimitMiddleware, s.handleRecommendation)

	// Device context reporting
	v1.Post("/context", s.rateLimitMiddleware, s.handleReportContext)

	// Usage endpoints
	v1.Post("/usage/track", s.rateLimitMiddleware, s.handleTrackUsage)
	v1.Get("/usage/stats", s.rateLimitMiddleware, s.handleUsageStats)
	v1.Post("/usage/limit", s.rateLimitMiddleware, s.handleSetLimit)
	v1.Get("/usage/limit", s.rateLimitMiddleware, s.handleGetLimit)

	// Optimization endpoints
	v1.Post("/optimize", s.rateLimitMiddleware, s.handleOptimize)
	v1.Get("/strategy", s.rateLimitMiddleware, s.handleStrategy)
	v1.Get("/offline-first", s.rateLimitMiddleware, s.handleOfflineFirst)

	// Metrics and stats (internal)
	s.app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	s.app.Get("/stats", s.handleStats)
}

// rateLimitMiddleware throttles requests per device, falling back to the
// client IP when no device id is present.
func (s *Server) rateLimitMiddleware(c *fiber.Ctx) error {
	if s.limiter == nil {
		return c.Next()
	}

	key := c.Get("X-Device-ID")
	if key == "" {
		key = c.Query("device_id")
	}
	if key == "" {
		key = c.IP()
	}

	if !s.limiter.Allow(key) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Rate limit exceeded",
			"code":  "QUOTA_EXCEEDED_RPS",
		})
	}
	return c.Next()
}

// handleHealth returns health status.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// scheduleRequest is the create-schedule request body.
type scheduleRequest struct {
	UserID             string                `json:"user_id"`
	TenantID           string                `json:"tenant_id"`
	DeviceID           string                `json:"device_id"`
	DataType           string                `json:"data_type"`
	Priority           types.Priority        `json:"priority"`
	Conditions         []types.SyncCondition `json:"conditions,omitempty"`
	EstimatedDataUsage int64                 `json:"estimated_data_usage,omitempty"`
}

// handleCreateSchedule schedules an intelligent sync.
func (s *Server) handleCreateSchedule(c *fiber.Ctx) error {
	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	schedule, err := s.scheduler.ScheduleIntelligentSync(c.Context(), scheduler.ScheduleRequest{
		UserID:             req.UserID,
		TenantID:           req.TenantID,
		DeviceID:           req.DeviceID,
		DataType:           req.DataType,
		Priority:           req.Priority,
		Conditions:         req.Conditions,
		EstimatedDataUsage: req.EstimatedDataUsage,
	})
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(schedule)
}

// handleListSchedules returns the user's active schedules.
func (s *Server) handleListSchedules(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	tenantID := c.Query("tenant_id")
	if userID == "" || tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and tenant_id are required",
		})
	}

	schedules, err := s.scheduler.GetActiveSyncSchedules(c.Context(), userID, tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load schedules",
		})
	}

	return c.JSON(fiber.Map{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

// handleCancelSchedule deactivates a schedule.
func (s *Server) handleCancelSchedule(c *fiber.Ctx) error {
	id := c.Params("id")
	cancelled := s.scheduler.CancelSyncSchedule(c.Context(), id)
	if !cancelled {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "schedule not found or already inactive",
		})
	}
	return c.JSON(fiber.Map{"cancelled": true, "schedule_id": id})
}

// handleExecuteSchedule runs a schedule immediately.
func (s *Server) handleExecuteSchedule(c *fiber.Ctx) error {
	id := c.Params("id")
	result := s.scheduler.ExecuteSyncSchedule(c.Context(), id)
	return c.JSON(result)
}

// handleRecommendation returns a sync recommendation for the current
// device context.
func (s *Server) handleRecommendation(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	tenantID := c.Query("tenant_id")
	deviceID := c.Query("device_id")
	if userID == "" || tenantID == "" || deviceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id, tenant_id and device_id are required",
		})
	}

	priority := types.Priority(c.Query("priority", string(types.PriorityMedium)))
	dataType := c.Query("data_type", "default")

	rec := s.scheduler.GetSyncRecommendation(c.Context(), userID, tenantID, deviceID, dataType, priority)
	return c.JSON(rec)
}

// contextRequest is the device context report body.
type contextRequest struct {
	UserID   string            `json:"user_id"`
	TenantID string            `json:"tenant_id"`
	DeviceID string            `json:"device_id"`
	Context  types.SyncContext `json:"context"`
}

// handleReportContext stores a device-reported context snapshot.
func (s *Server) handleReportContext(c *fiber.Ctx) error {
	var req contextRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.UserID == "" || req.TenantID == "" || req.DeviceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id, tenant_id and device_id are required",
		})
	}

	if err := s.scheduler.ReportDeviceContext(c.Context(), req.UserID, req.TenantID, req.DeviceID, &req.Context); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to store device context",
		})
	}
	return c.JSON(fiber.Map{"stored": true})
}

// trackRequest is the usage tracking request body.
type trackRequest struct {
	UserID     string               `json:"user_id"`
	TenantID   string               `json:"tenant_id"`
	Operation  types.UsageOperation `json:"operation"`
	Bytes      int64                `json:"bytes"`
	Compressed bool                 `json:"compressed"`
}

// handleTrackUsage records transferred bytes.
func (s *Server) handleTrackUsage(c *fiber.Ctx) error {
	var req trackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.Bytes < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "bytes must not be negative",
		})
	}

	if err := s.usage.Track(c.Context(), req.UserID, req.TenantID, req.Operation, req.Bytes, req.Compressed); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"tracked": true})
}

// handleUsageStats returns aggregated usage for a period.
func (s *Server) handleUsageStats(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	tenantID := c.Query("tenant_id")
	if userID == "" || tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and tenant_id are required",
		})
	}

	period := types.UsagePeriod(c.Query("period", string(types.PeriodDay)))
	stats, err := s.usage.Stats(c.Context(), userID, tenantID, period)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(stats)
}

// limitRequest is the set-limit request body.
type limitRequest struct {
	UserID           string  `json:"user_id"`
	TenantID         string  `json:"tenant_id"`
	DailyLimit       int64   `json:"daily_limit"`
	MonthlyLimit     int64   `json:"monthly_limit"`
	WarningThreshold float64 `json:"warning_threshold"`
}

// handleSetLimit configures data usage limits.
func (s *Server) handleSetLimit(c *fiber.Ctx) error {
	var req limitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	limit, err := s.usage.SetLimit(c.Context(), req.UserID, req.TenantID, req.DailyLimit, req.MonthlyLimit, req.WarningThreshold)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(limit)
}

// handleGetLimit returns the configured data usage limit.
func (s *Server) handleGetLimit(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	tenantID := c.Query("tenant_id")
	if userID == "" || tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and tenant_id are required",
		})
	}

	limit, err := s.usage.Limit(c.Context(), userID, tenantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load limit",
		})
	}
	if limit == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no active limit configured",
		})
	}
	return c.JSON(limit)
}

// optimizeRequest is the optimize request body.
type optimizeRequest struct {
	UserID         string               `json:"user_id"`
	TenantID       string               `json:"tenant_id"`
	ConnectionType types.ConnectionType `json:"connection_type"`
}

// handleOptimize derives optimized client settings.
func (s *Server) handleOptimize(c *fiber.Ctx) error {
	var req optimizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if req.ConnectionType == "" {
		req.ConnectionType = types.ConnectionWiFi
	}

	limit, err := s.usage.Limit(c.Context(), req.UserID, req.TenantID)
	if err != nil {
		s.logger.Warn("limit lookup failed during optimization",
			zap.String("tenant_id", req.TenantID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
	}

	result := s.optimizer.Optimize(c.Context(), req.ConnectionType, limit, optimize.DefaultSettings(), req.UserID, req.TenantID)
	return c.JSON(result)
}

// handleStrategy returns the intelligent sync strategy for the current
// connection and usage state.
func (s *Server) handleStrategy(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	tenantID := c.Query("tenant_id")
	if userID == "" || tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and tenant_id are required",
		})
	}

	connType := types.ConnectionType(c.Query("connection_type", string(types.ConnectionWiFi)))
	strategy := s.optimizer.SyncStrategy(c.Context(), userID, tenantID, connType)
	return c.JSON(strategy)
}

// handleOfflineFirst returns an offline-first operation plan.
func (s *Server) handleOfflineFirst(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	tenantID := c.Query("tenant_id")
	if userID == "" || tenantID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and tenant_id are required",
		})
	}

	plan := s.optimizer.OfflineFirst(c.Context(), userID, tenantID)
	return c.JSON(plan)
}

// handleStats returns service statistics.
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats := fiber.Map{
		"queue": fiber.Map{
			"pending_jobs": s.workers.Pending(),
		},
	}
	if s.limiter != nil {
		limiterStats := s.limiter.GetStats()
		stats["ratelimit"] = fiber.Map{
			"tracked_keys": limiterStats.TrackedKeys,
			"active_syncs": limiterStats.ActiveSyncs,
		}
	}
	return c.JSON(stats)
}

// Start starts the server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
