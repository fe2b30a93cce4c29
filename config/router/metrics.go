package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/wayfarermaps/landing/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type httpMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func metricsEnabled() bool {
	return utils.GetEnvBool("METRICS_ENABLED", true)
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// observe labels by the route pattern, not the raw URL; raw paths are
// unbounded (texture files, bot probes) and would explode the series count.
func (m *httpMetrics) observe(c *gin.Context, elapsed time.Duration) {
	route := c.FullPath()
	if route == "" {
		route = "unknown"
	}
	status := strconv.Itoa(c.Writer.Status())

	m.requestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	m.requestDuration.WithLabelValues(c.Request.Method, route, status).Observe(elapsed.Seconds())
}

// mountMetrics wires the Prometheus registry, the per-request observer, and
// the /metrics endpoint. Opt out with METRICS_ENABLED=false.
func (routerService *RouterService) mountMetrics() {
	if !metricsEnabled() {
		routerService.logger.Info("Metrics disabled (METRICS_ENABLED=false)")
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	routerService.metricsRegistry = reg

	m := newHTTPMetrics(reg)
	routerService.engine.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.observe(c, time.Since(start))
	})

	routerService.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Metrics are not for cross-origin browser clients.
	routerService.engine.OPTIONS("/metrics", func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNoContent)
	})

	routerService.logger.Info("Metrics endpoint mounted", "path", "/metrics")
}

// RegisterCollector adds a domain-level collector to the shared registry.
// It is a no-op when metrics are disabled.
func (routerService *RouterService) RegisterCollector(collector prometheus.Collector) error {
	if routerService.metricsRegistry == nil {
		return nil
	}
	return routerService.metricsRegistry.Register(collector)
}
