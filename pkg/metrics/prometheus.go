// Package metrics provides Prometheus metrics for the mlbedge analyzer.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the analyzer.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer
	gatherer         *prometheus.Registry

	// Cache
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheEntries   prometheus.Gauge

	// Upstream access
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	fetchRetries     prometheus.Counter
	fetchFallbacks   prometheus.Counter
	rateLimited      prometheus.Counter
	breakerState     *prometheus.GaugeVec

	// Analysis
	analyses        *prometheus.CounterVec
	analysisLatency prometheus.Histogram
	projectedRuns   prometheus.Histogram
	recommendations *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager atomic.Pointer[Manager] //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // recorders work before Init is called
	Init()
}

// Init replaces the global manager with one built from opts on a fresh
// registry, so the default Go collectors are never exposed. Any registry
// passed in opts is ignored.
func Init(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	all := make([]Option, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, WithPrometheusRegistry(registry))

	m := NewManager(all...)
	m.gatherer = registry
	globalManager.Store(m)
	return m
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "mlbedge",
		subsystem:        "analyzer",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Response cache hits"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Response cache misses, including expired entries"))
	m.cacheEvictions = auto.NewCounter(m.counterOpts("cache_evictions_total", "Entries evicted for capacity or expiry"))
	m.cacheEntries = auto.NewGauge(m.gaugeOpts("cache_entries", "Current number of cached responses"))

	m.upstreamRequests = auto.NewCounterVec(
		m.counterOpts("upstream_requests_total", "Upstream HTTP requests by transport strategy and outcome"),
		[]string{"strategy", "outcome"},
	)
	m.upstreamLatency = auto.NewHistogramVec(
		m.histogramOpts("upstream_latency_milliseconds", "Upstream request latency in milliseconds",
			[]float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}),
		[]string{"strategy"},
	)
	m.fetchRetries = auto.NewCounter(m.counterOpts("fetch_retries_total", "Retry attempts after a failed fetch"))
	m.fetchFallbacks = auto.NewCounter(m.counterOpts("fetch_fallbacks_total", "Fetches that exhausted retries and returned the fallback payload"))
	m.rateLimited = auto.NewCounter(m.counterOpts("rate_limited_total", "Fetches rejected by the local rate limiter"))
	m.breakerState = auto.NewGaugeVec(
		m.gaugeOpts("breaker_state", "Circuit breaker state per strategy (0 closed, 1 half-open, 2 open)"),
		[]string{"strategy"},
	)

	m.analyses = auto.NewCounterVec(
		m.counterOpts("analyses_total", "Matchup analyses by outcome"),
		[]string{"outcome"},
	)
	m.analysisLatency = auto.NewHistogram(m.histogramOpts("analysis_latency_milliseconds", "End-to-end matchup analysis latency",
		[]float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}))
	m.projectedRuns = auto.NewHistogram(m.histogramOpts("projected_runs", "Distribution of projected runs per side",
		[]float64{2, 2.5, 3, 3.5, 4, 4.5, 5, 5.5, 6, 7, 8}))
	m.recommendations = auto.NewCounterVec(
		m.counterOpts("recommendations_total", "Recommendations emitted by kind"),
		[]string{"kind"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Errors by type and severity"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by HTTP endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Allocated heap bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100}))
}

// Enabled reports whether recording is active.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often gauge refreshers should run.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// current returns the global manager, or nil when recording is disabled.
func current() *Manager {
	if m := globalManager.Load(); m != nil && m.enabled {
		return m
	}
	return nil
}

// RecordCacheHit increments the cache hit counter.
func RecordCacheHit() {
	if m := current(); m != nil {
		m.cacheHits.Inc()
	}
}

// RecordCacheMiss increments the cache miss counter.
func RecordCacheMiss() {
	if m := current(); m != nil {
		m.cacheMisses.Inc()
	}
}

// RecordCacheEviction increments the eviction counter.
func RecordCacheEviction() {
	if m := current(); m != nil {
		m.cacheEvictions.Inc()
	}
}

// UpdateCacheEntries sets the cache size gauge.
func UpdateCacheEntries(n int) {
	if m := current(); m != nil {
		m.cacheEntries.Set(float64(n))
	}
}

// RecordUpstreamRequest counts one upstream request.
func RecordUpstreamRequest(strategy, outcome string) {
	if m := current(); m != nil {
		m.upstreamRequests.WithLabelValues(strategy, outcome).Inc()
	}
}

// RecordUpstreamLatency observes one upstream request duration.
func RecordUpstreamLatency(strategy string, latencyMs float64) {
	if m := current(); m != nil {
		m.upstreamLatency.WithLabelValues(strategy).Observe(latencyMs)
	}
}

// RecordFetchRetry counts one retry.
func RecordFetchRetry() {
	if m := current(); m != nil {
		m.fetchRetries.Inc()
	}
}

// RecordFetchFallback counts one exhausted fetch.
func RecordFetchFallback() {
	if m := current(); m != nil {
		m.fetchFallbacks.Inc()
	}
}

// RecordRateLimited counts one rejected fetch.
func RecordRateLimited() {
	if m := current(); m != nil {
		m.rateLimited.Inc()
	}
}

// UpdateBreakerState sets the breaker gauge for a strategy.
func UpdateBreakerState(strategy string, state int) {
	if m := current(); m != nil {
		m.breakerState.WithLabelValues(strategy).Set(float64(state))
	}
}

// RecordAnalysis counts one analysis by outcome (ok, degraded, failed, invalid).
func RecordAnalysis(outcome string) {
	if m := current(); m != nil {
		m.analyses.WithLabelValues(outcome).Inc()
	}
}

// RecordAnalysisLatency observes end-to-end analysis time.
func RecordAnalysisLatency(latencyMs float64) {
	if m := current(); m != nil {
		m.analysisLatency.Observe(latencyMs)
	}
}

// RecordProjectedRuns observes one side's projection.
func RecordProjectedRuns(runs float64) {
	if m := current(); m != nil {
		m.projectedRuns.Observe(runs)
	}
}

// RecordRecommendation counts one emitted recommendation.
func RecordRecommendation(kind string) {
	if m := current(); m != nil {
		m.recommendations.WithLabelValues(kind).Inc()
	}
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := current(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := current(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent counts an error for a component.
func RecordErrorByComponent(component, errorType string) {
	if m := current(); m != nil {
		m.errorRateByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if m := current(); m != nil {
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint counts an error for an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m := current(); m != nil {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := current(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if m := current(); m != nil {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m := current(); m != nil {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry of the manager installed by Init.
func GetRegistry() *prometheus.Registry {
	return globalManager.Load().gatherer
}
