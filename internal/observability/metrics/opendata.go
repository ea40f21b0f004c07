// opendata.go: Prometheus metrics for the CNES open-data API client
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OpenDataMetrics contains Prometheus metrics for the DATASUS open-data client
type OpenDataMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestErrors   *prometheus.CounterVec
	requestDuration prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewOpenDataMetrics creates and registers new open-data client metrics
func NewOpenDataMetrics(registry *prometheus.Registry) (*OpenDataMetrics, error) {
	m := &OpenDataMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *OpenDataMetrics) initMetrics() error {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opendata_requests_total",
			Help: "Total number of open-data API requests",
		},
		[]string{"status_code"},
	)

	m.requestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opendata_request_errors_total",
			Help: "Total number of open-data API request errors",
		},
		[]string{"error_type"},
	)

	m.requestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "opendata_request_duration_seconds",
			Help:    "Open-data API request duration",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12),
		},
	)

	m.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "opendata_cache_hits_total",
			Help: "Total number of establishment cache hits",
		},
	)

	m.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "opendata_cache_misses_total",
			Help: "Total number of establishment cache misses",
		},
	)

	return nil
}

// Describe implements the Collector interface
func (m *OpenDataMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestErrors.Describe(ch)
	m.requestDuration.Describe(ch)
	m.cacheHits.Describe(ch)
	m.cacheMisses.Describe(ch)
}

// Collect implements the Collector interface
func (m *OpenDataMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestErrors.Collect(ch)
	m.requestDuration.Collect(ch)
	m.cacheHits.Collect(ch)
	m.cacheMisses.Collect(ch)
}

// RecordRequest records an open-data API request by HTTP status code
func (m *OpenDataMetrics) RecordRequest(statusCode string) {
	m.requestsTotal.WithLabelValues(statusCode).Inc()
}

// RecordRequestError records an open-data API request error
func (m *OpenDataMetrics) RecordRequestError(errorType string) {
	m.requestErrors.WithLabelValues(errorType).Inc()
}

// RecordRequestDuration records how long an open-data request took
func (m *OpenDataMetrics) RecordRequestDuration(duration float64) {
	m.requestDuration.Observe(duration)
}

// RecordCacheHit records an establishment cache hit
func (m *OpenDataMetrics) RecordCacheHit() {
	m.cacheHits.Inc()
}

// RecordCacheMiss records an establishment cache miss
func (m *OpenDataMetrics) RecordCacheMiss() {
	m.cacheMisses.Inc()
}
