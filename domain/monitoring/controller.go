package monitoring

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/wayfarermaps/landing/config/router"
	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/pkg/ratelimit"
	"github.com/wayfarermaps/landing/pkg/utils"
	"gorm.io/gorm"
)

type Cache interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Store    string `json:"store"`    // "database" or "memory"
	Database int    `json:"database"` // 1 = healthy, 0 = unhealthy/not configured
	Cache    int    `json:"cache"`    // 1 = healthy, 0 = unhealthy/not configured
	Textures int    `json:"textures"` // 1 = baked textures present, 0 = procedural fallback
	Uptime   int    `json:"uptime"`   // uptime in seconds
}

type VersionResponse struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}

type MonitoringController struct {
	db        *gorm.DB
	logger    *log.Logger
	cache     Cache
	startTime time.Time
}

func NewMonitoringController(db *gorm.DB, logger *log.Logger, cache Cache) *router.RESTController {
	ctrl := &MonitoringController{
		db:        db,
		logger:    logger,
		cache:     cache,
		startTime: time.Now(),
	}

	return router.NewRESTController(
		"MonitoringController",
		"/",
		func(routerService *router.RouterService, controller *router.RESTController) {

			// Health and version get a tighter per-IP budget than the API default.
			monitoringLimiter := ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
				Requests: monitoringRequestsPerMinute,
				Window:   time.Minute,
			})

			routerService.AddGetHandler(controller, monitoringLimiter, "health", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.healthCheck(c)
			})

			routerService.AddGetHandler(controller, monitoringLimiter, "version", func(c *router.RequestContext) *router.ServiceResult {
				return ctrl.version(c)
			})
		},
	)
}

const monitoringRequestsPerMinute = 10

func (ctrl *MonitoringController) healthCheck(c *router.RequestContext) *router.ServiceResult {
	logger := router.GetLogger(c)
	logger.Info("Health check endpoint called")

	healthStatus := ctrl.performHealthChecks(c.Request.Context(), logger)

	return router.OKResult(healthStatus, "Health check completed")
}

func (ctrl *MonitoringController) version(c *router.RequestContext) *router.ServiceResult {
	version := utils.GetEnvTrimmedOrDefault("APP_VERSION", "dev")

	return router.JSONResult(http.StatusOK, VersionResponse{
		Service:   "wayfarer-landing",
		Version:   version,
		GoVersion: runtime.Version(),
	})
}

func (ctrl *MonitoringController) performHealthChecks(ctx context.Context, logger *log.Logger) HealthStatus {
	status := HealthStatus{
		Store:  "memory",
		Uptime: int(time.Since(ctrl.startTime).Seconds()),
	}

	ctrl.checkDatabase(ctx, &status, logger)
	ctrl.checkCache(ctx, &status, logger)
	checkTextureDirectory(&status, logger)

	return status
}

func (ctrl *MonitoringController) checkDatabase(ctx context.Context, status *HealthStatus, logger *log.Logger) {
	if ctrl.db == nil {
		logger.Info("Database not configured, waitlist runs on the in-memory store")
		return
	}

	status.Store = "database"

	sqlDB, err := ctrl.db.DB()
	if err == nil && sqlDB.PingContext(ctx) == nil {
		status.Database = 1
		logger.Info("Database health check passed")
		return
	}

	logger.Error("Database health check failed")
}

func (ctrl *MonitoringController) checkCache(ctx context.Context, status *HealthStatus, logger *log.Logger) {
	if ctrl.cache == nil {
		logger.Info("Cache not configured, cache health check skipped")
		return
	}

	if ctrl.cache.Ping(ctx) == nil {
		status.Cache = 1
		logger.Info("Cache health check passed")
		return
	}

	logger.Error("Cache health check failed")
}

func checkTextureDirectory(status *HealthStatus, logger *log.Logger) {
	dir := utils.GetEnvTrimmed("TEXTURE_DIR")
	if dir == "" {
		logger.Info("TEXTURE_DIR not set, globe serves procedural textures")
		return
	}

	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		status.Textures = 1
		return
	}

	logger.Warn("Texture directory missing", "dir", dir)
}
