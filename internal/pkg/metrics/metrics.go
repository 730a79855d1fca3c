package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routepulse",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routepulse",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routepulse",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Simulation metrics
	PositionsSimulated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routepulse",
		Subsystem: "simulation",
		Name:      "positions_total",
		Help:      "Total positions simulated, by position source",
	}, []string{"source"})

	BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "routepulse",
		Subsystem: "simulation",
		Name:      "batch_size",
		Help:      "Number of query timestamps per batch request",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
	})

	AnomaliesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routepulse",
		Subsystem: "analysis",
		Name:      "anomalies_total",
		Help:      "Total route anomalies detected, by kind",
	}, []string{"kind"})

	RoutesAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routepulse",
		Subsystem: "analysis",
		Name:      "routes_total",
		Help:      "Total routes analyzed, by validity outcome",
	}, []string{"valid"})

	// Ingestion metrics
	WorkbooksIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routepulse",
		Subsystem: "ingest",
		Name:      "workbooks_total",
		Help:      "Total workbooks ingested",
	})

	GeocodeLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routepulse",
		Subsystem: "geocode",
		Name:      "lookups_total",
		Help:      "Total geocoding lookups, by outcome",
	}, []string{"outcome"})

	// Cache metrics
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routepulse",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routepulse",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "routepulse",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active playback WebSocket connections",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
