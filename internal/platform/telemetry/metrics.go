// Package telemetry exposes HTTP server and connection pool metrics for
// Prometheus scraping.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medrecord"

var defaultDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// Provider owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Provider struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	respSize prometheus.Histogram
	active   prometheus.Gauge
}

// NewProvider registers the HTTP metrics plus the Go runtime and process
// collectors.
func NewProvider() *Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Provider{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   defaultDurationBuckets,
		}, []string{"method", "route"}),
		respSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response body sizes.",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
		}),
		active: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "active_requests",
			Help:      "Requests currently being served.",
		}),
	}
}

// Registry returns the provider's registry.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// PoolStatsFunc reports total, idle and in-use connections of a store.
type PoolStatsFunc func() (total, idle, inUse float64)

// RegisterPool exposes connection pool gauges read from stats at scrape
// time.
func (p *Provider) RegisterPool(driver string, stats PoolStatsFunc) {
	f := promauto.With(p.registry)
	labels := prometheus.Labels{"driver": driver}
	gauge := func(name, help string, pick func(total, idle, inUse float64) float64) {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "db_pool",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return pick(stats()) })
	}
	gauge("connections", "Open connections in the pool.", func(t, _, _ float64) float64 { return t })
	gauge("idle_connections", "Idle connections in the pool.", func(_, i, _ float64) float64 { return i })
	gauge("in_use_connections", "Connections currently in use.", func(_, _, u float64) float64 { return u })
}

// MetricsMiddleware records one observation per request, labelled by the
// route pattern rather than the raw path. Errors are rendered before the
// status is read and still returned to outer middleware.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.active.Inc()
			defer p.active.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			p.requests.WithLabelValues(method, route, status).Inc()
			p.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			if size := c.Response().Size; size > 0 {
				p.respSize.Observe(float64(size))
			}
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry}))
}
