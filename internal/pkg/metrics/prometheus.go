package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sp3dr4/linkie/config"
)

// PrometheusRegistry implements the Registry interface using Prometheus metrics
type PrometheusRegistry struct {
	registry *prometheus.Registry
	config   config.MetricsConfig

	// HTTP Metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business Metrics
	linksCreatedTotal        prometheus.Counter
	generationConflictsTotal prometheus.Counter
	redirectsTotal           *prometheus.CounterVec
	cacheLookupsTotal        *prometheus.CounterVec
	cacheWriteFailuresTotal  prometheus.Counter
	rateLimitedTotal         prometheus.Counter
}

// NewPrometheusRegistry creates a new Prometheus metrics registry
func NewPrometheusRegistry(cfg config.MetricsConfig) (Registry, error) {
	registry := prometheus.NewRegistry()

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		})
	}

	p := &PrometheusRegistry{
		registry: registry,
		config:   cfg,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{LabelMethod, LabelPath, LabelStatusCode},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{LabelMethod, LabelPath, LabelStatusCode},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		linksCreatedTotal:        counter("links_created_total", "Total number of short links created"),
		generationConflictsTotal: counter("code_generation_conflicts_total", "Generated short codes rejected because they were taken"),
		redirectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "resolutions_total",
				Help:      "Short code resolutions by outcome",
			},
			[]string{LabelOutcome},
		),
		cacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by result",
			},
			[]string{LabelResult},
		),
		cacheWriteFailuresTotal: counter("cache_write_failures_total", "Cache population attempts that failed"),
		rateLimitedTotal:        counter("rate_limited_total", "Creation requests rejected by the rate limiter"),
	}

	// Register all metrics
	metricsCollectors := []prometheus.Collector{
		p.httpRequestsTotal,
		p.httpRequestDuration,
		p.httpRequestsInFlight,
		p.linksCreatedTotal,
		p.generationConflictsTotal,
		p.redirectsTotal,
		p.cacheLookupsTotal,
		p.cacheWriteFailuresTotal,
		p.rateLimitedTotal,
	}

	for _, collector := range metricsCollectors {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	// Register Go runtime metrics if enabled
	if cfg.CollectRuntime {
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return p, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration
func (p *PrometheusRegistry) RecordHTTPRequest(method, path, statusCode string, duration float64) {
	labels := prometheus.Labels{
		LabelMethod:     method,
		LabelPath:       path,
		LabelStatusCode: statusCode,
	}
	p.httpRequestsTotal.With(labels).Inc()
	p.httpRequestDuration.With(labels).Observe(duration)
}

func (p *PrometheusRegistry) IncHTTPRequestsInFlight() {
	p.httpRequestsInFlight.Inc()
}

func (p *PrometheusRegistry) DecHTTPRequestsInFlight() {
	p.httpRequestsInFlight.Dec()
}

func (p *PrometheusRegistry) IncLinksCreated() {
	p.linksCreatedTotal.Inc()
}

func (p *PrometheusRegistry) IncGenerationConflicts() {
	p.generationConflictsTotal.Inc()
}

// IncRedirects counts a resolution; outcome is one of the Outcome constants.
func (p *PrometheusRegistry) IncRedirects(outcome string) {
	p.redirectsTotal.WithLabelValues(outcome).Inc()
}

// IncCacheLookups counts a cache lookup; result is one of the Cache constants.
func (p *PrometheusRegistry) IncCacheLookups(result string) {
	p.cacheLookupsTotal.WithLabelValues(result).Inc()
}

func (p *PrometheusRegistry) IncCacheWriteFailures() {
	p.cacheWriteFailuresTotal.Inc()
}

func (p *PrometheusRegistry) IncRateLimited() {
	p.rateLimitedTotal.Inc()
}

// GetRegistry returns the underlying Prometheus registry
func (p *PrometheusRegistry) GetRegistry() *prometheus.Registry {
	return p.registry
}

// GetHandler returns an HTTP handler for the metrics endpoint
func (p *PrometheusRegistry) GetHandler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
