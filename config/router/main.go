package router

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wayfarermaps/landing/internal/log"
	"github.com/wayfarermaps/landing/pkg/ratelimit"
	"github.com/wayfarermaps/landing/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// DefaultTimeoutDuration caps request handling when the caller does not
// configure a timeout of its own.
const DefaultTimeoutDuration = 30 * time.Second

type Cache interface {
	Ping(ctx context.Context) error
}

// RedisClientProvider is implemented by caches that can hand out their
// underlying client for the Redis-backed rate limiter.
type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RouterService struct {
	engine          *gin.Engine
	server          *http.Server
	logger          *log.Logger
	limiter         ratelimit.RateLimiter
	defaultLimit    int
	defaultWindow   time.Duration
	requestTimeout  time.Duration
	redisClient     *redis.Client
	metricsRegistry *prometheus.Registry
	templatesLoaded bool

	// routeOwners maps every registered route to its controller so the rate
	// limit middleware can resolve overrides; limiterOverrides is keyed by
	// either a route key or a controller mount point.
	routeOwners      map[string]*RESTController
	limiterOverrides map[string]ratelimit.RateLimiter
}

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration

	// Web is optional; when nil the service exposes only the API surface.
	Web *WebConfig
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	engine := newEngine(logger)

	timeout := routerConfig.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeoutDuration
	}

	rs := &RouterService{
		engine:         engine,
		logger:         logger,
		defaultLimit:   routerConfig.RateLimitRequests,
		defaultWindow:  routerConfig.RateLimitWindow,
		requestTimeout: timeout,
		redisClient:    redisClientFrom(cache),

		routeOwners:      make(map[string]*RESTController),
		limiterOverrides: make(map[string]ratelimit.RateLimiter),
	}

	rs.limiter = rs.buildDefaultLimiter()

	// Templates, static assets and /metrics mount ahead of the middleware
	// chain so high-frequency asset fetches bypass the API rate limiter.
	rs.mountWeb(routerConfig.Web)
	rs.mountMetrics()

	engine.Use(rs.securityHeadersMiddleware())
	engine.Use(rs.maxBodySizeMiddleware())
	engine.Use(rs.corsMiddleware())
	engine.Use(rs.rateLimitMiddleware())
	engine.Use(rs.timeoutMiddleware())
	engine.Use(rs.requestContextMiddleware())
	engine.Use(rs.requestLoggingMiddleware())

	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true
	rs.installFallbackHandlers()

	rs.server = &http.Server{
		Addr:    ":8080", // Overridden in RunHTTPServer once APP_PORT is read.
		Handler: engine,

		// Server-side timeouts are the safe way to enforce request time
		// limits. Gin's Context is not goroutine-safe, so handlers never run
		// on a separate goroutine.
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized")
	return rs
}

func newEngine(logger *log.Logger) *gin.Engine {
	if mode, ok := os.LookupEnv("GIN_MODE"); ok && mode != "" {
		logger.Info("Setting Gin mode", "mode", mode)
		gin.SetMode(mode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	// SECURITY: Gin trusts every proxy by default, which lets clients spoof
	// ClientIP() through X-Forwarded-For. Trust nothing unless TRUSTED_PROXIES
	// says otherwise.
	proxies := parseTrustedProxiesEnv(os.Getenv("TRUSTED_PROXIES"))
	if err := engine.SetTrustedProxies(proxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
	} else if proxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}

	return engine
}

func redisClientFrom(cache Cache) *redis.Client {
	provider, ok := cache.(RedisClientProvider)
	if !ok {
		return nil
	}
	return provider.GetClient()
}

func (routerService *RouterService) buildDefaultLimiter() ratelimit.RateLimiter {
	client := routerService.redisClient
	if client != nil {
		if err := client.Ping(context.Background()).Err(); err != nil {
			routerService.logger.Warn("Redis unreachable for rate limiting, falling back to in-memory", "error", err)
			client = nil
		}
	}

	limiter := ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: routerService.defaultLimit,
		Window:   routerService.defaultWindow,
		Redis:    client,
		Logger:   routerService.logger,
	})

	backend := "in-memory"
	if client != nil {
		backend = "redis"
	}
	routerService.logger.Info("Rate limiting initialized",
		"backend", backend,
		"requests", routerService.defaultLimit,
		"window", routerService.defaultWindow)

	return limiter
}

func (routerService *RouterService) installFallbackHandlers() {
	routerService.engine.NoRoute(func(c *gin.Context) {
		routerService.GetLogger(c).Warn("Route not found", "path", c.Request.URL.Path)

		if isAPIPath(c.Request.URL.Path) {
			c.JSON(http.StatusNotFound, NotFoundResult("Route not found").Body)
			return
		}
		routerService.renderErrorPage(c, http.StatusNotFound, "Off the map", "The page you are looking for is not on any of our charts.")
	})

	routerService.engine.NoMethod(func(c *gin.Context) {
		routerService.GetLogger(c).Warn("Method not allowed", "method", c.Request.Method, "path", c.Request.URL.Path)

		if isAPIPath(c.Request.URL.Path) {
			c.JSON(http.StatusMethodNotAllowed, ErrorResult(http.StatusMethodNotAllowed, "Method not allowed", nil).Body)
			return
		}
		routerService.renderErrorPage(c, http.StatusMethodNotAllowed, "Wrong heading", "This page does not answer to that request method.")
	})
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/") || path == "/api"
}

func parseTrustedProxiesEnv(v string) []string {
	s := strings.TrimSpace(v)
	if s == "" {
		// ClientIP() falls back to RemoteAddr.
		return nil
	}
	if s == "*" {
		// Explicit escape hatch for local/dev.
		return []string{"0.0.0.0/0", "::/0"}
	}
	proxies := splitAndTrim(s)
	if len(proxies) == 0 {
		return nil
	}
	return proxies
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePositiveIntEnv(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

func (routerService *RouterService) GetLogger(c *RequestContext) *log.Logger {
	return routerService.logger.WithCorrelationID(c.Request.Context())
}

func (routerService *RouterService) Cleanup() {
	if routerService.limiter != nil {
		if err := routerService.limiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "error", err)
		}
	}
	routerService.logger.Info("Router service cleanup completed")
}

func (routerService *RouterService) MountController(controller *RESTController) {
	routerService.logger.Info("Mounting controller", "name", controller.name, "path", controller.mountPoint)

	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted", "name", controller.name, "handlers", controller.handlerCount)
}

func (routerService *RouterService) RunHTTPServer() error {
	addr := ":" + utils.GetEnvTrimmedOrDefault("APP_PORT", "8080")
	routerService.server.Addr = addr

	routerService.logger.Info("Starting HTTP server", "addr", addr)

	if err := routerService.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		routerService.logger.Error("Failed to start HTTP server", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully...")
	return routerService.server.Shutdown(ctx)
}

// requestContextMiddleware stamps every request with a correlation ID and
// stores a pre-correlated logger in the request context so downstream code
// logs under the same ID.
func (routerService *RouterService) requestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Correlation-ID")
		if id == "" {
			id = log.GenerateCorrelationID()
		}

		ctx := context.WithValue(c.Request.Context(), log.CorrelatedIDKey, id)
		ctx = context.WithValue(ctx, log.LoggerKeyForContext, routerService.logger.WithCorrelationID(ctx))
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Correlation-ID", id)
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		routerService.GetLogger(c).Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		// HSTS only makes sense on connections that are effectively HTTPS.
		if shouldSetHSTS(c) {
			h.Set("Strict-Transport-Security", buildHSTSValue())
		}
		c.Next()
	}
}

func shouldSetHSTS(c *gin.Context) bool {
	appEnv := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))

	enabled := utils.GetEnvBool("HSTS_ENABLED", appEnv == "production" || appEnv == "prod")
	if !enabled {
		return false
	}

	if c.Request.TLS != nil {
		return true
	}
	// Common setup when TLS is terminated at a reverse proxy.
	proto := strings.ToLower(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")))
	return proto == "https"
}

func buildHSTSValue() string {
	maxAge := parsePositiveIntEnv("HSTS_MAX_AGE", 31536000)

	value := fmt.Sprintf("max-age=%d", maxAge)
	if utils.GetEnvBool("HSTS_INCLUDE_SUBDOMAINS", true) {
		value += "; includeSubDomains"
	}
	return value
}

func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	maxBytes := parsePositiveIntEnv("MAX_REQUEST_BODY_BYTES", 1<<20)

	return func(c *gin.Context) {
		// Requests that declare an oversized body are refused outright; the
		// wrapped reader guards chunked bodies that never declared one.
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResult(
				http.StatusRequestEntityTooLarge,
				"Request payload too large",
				nil,
			).Body)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGIN"))
		if len(allowed) == 0 {
			routerService.logger.Warn("CORS_ALLOWED_ORIGIN not set, denying cross-origin request", "origin", origin)
			c.Next()
			return
		}

		if !originAllowed(origin, allowed) {
			routerService.logger.Warn("CORS origin not allowed", "origin", origin, "allowed_origins", allowed)
			c.Next()
			return
		}

		header := c.Writer.Header()
		header.Set("Access-Control-Allow-Origin", origin)
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		header.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == "*" || candidate == origin {
			return true
		}
	}
	return false
}

func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), routerService.requestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		// Gin's Context is not safe for concurrent use, so the chain runs on
		// this goroutine and the http.Server read/write timeouts do the hard
		// enforcement mid-flight.
		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			routerService.GetLogger(c).Warn("Request timeout detected")
			c.AbortWithStatusJSON(http.StatusRequestTimeout, ErrorResult(
				http.StatusRequestTimeout,
				"Request timeout",
				nil,
			).Body)
		}
	}
}

// resolveLimiter picks the limiter for the current request. Paths that match
// no route get the default limiter and continue into the NoRoute/NoMethod
// fallbacks; a matched route with no owning controller is an anomaly and
// resolves to nil.
func (routerService *RouterService) resolveLimiter(c *gin.Context) ratelimit.RateLimiter {
	if c.FullPath() == "" {
		return routerService.limiter
	}

	key := routeKey(c.Request.Method, c.FullPath())
	owner, ok := routerService.routeOwners[key]
	if !ok || owner == nil {
		return nil
	}

	// Handler overrides beat controller overrides which beat the default.
	if override, ok := routerService.limiterOverrides[key]; ok {
		return override
	}
	if override, ok := routerService.limiterOverrides[owner.mountPoint]; ok {
		return override
	}
	return routerService.limiter
}

func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := routerService.resolveLimiter(c)
		if limiter == nil {
			routerService.logger.Error("Route registered without a controller mapping",
				"path", c.Request.URL.Path,
				"hint", "handlers must be registered through AddGetHandler and friends, never directly on the engine")
			c.AbortWithStatusJSON(http.StatusNotFound, NotFoundResult(fmt.Sprintf("There is no handler configured to handle any resource at the path %s", c.Request.URL.Path)).Body)
			return
		}

		clientIP := c.ClientIP()
		limit, window := limiter.GetLimitDetails()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		limited, err := limiter.IsLimited("ratelimit:" + clientIP)
		if err != nil {
			// A broken limiter backend must not take down legitimate traffic.
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if limited {
			routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP)
			retryAfter := int(math.Ceil(window.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
				Limit:      limit,
				Window:     window.String(),
				RetryAfter: strconv.Itoa(retryAfter),
			}).Body)
			return
		}

		c.Next()
	}
}
