// Package metrics provides HTTP handler metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains Prometheus metrics for HTTP handler operations
type HTTPMetrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestErrors   *prometheus.CounterVec
	httpResponseSize    *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers new HTTP handler metrics
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *HTTPMetrics) initMetrics() error {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.httpRequestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "Total number of HTTP request errors",
		},
		[]string{"method", "path", "status_code"},
	)

	m.httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses",
			// 100B to ~100KB covers everything from the sanity check to a
			// full nearest-unit listing.
			Buckets: prometheus.ExponentialBuckets(100, BucketFactor2, BucketCount10),
		},
		[]string{"method", "path"},
	)

	return nil
}

// Describe implements the Collector interface
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
	m.httpRequestErrors.Describe(ch)
	m.httpResponseSize.Describe(ch)
}

// Collect implements the Collector interface
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
	m.httpRequestErrors.Collect(ch)
	m.httpResponseSize.Collect(ch)
}

// RecordRequest records one handled HTTP request.
func (m *HTTPMetrics) RecordRequest(method, path, statusCode string) {
	m.httpRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
}

// RecordRequestDuration records the duration of an HTTP request.
func (m *HTTPMetrics) RecordRequestDuration(method, path string, duration float64) {
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordRequestError records a request that ended in an error status.
func (m *HTTPMetrics) RecordRequestError(method, path, statusCode string) {
	m.httpRequestErrors.WithLabelValues(method, path, statusCode).Inc()
}

// RecordResponseSize records the size of an HTTP response.
func (m *HTTPMetrics) RecordResponseSize(method, path string, sizeBytes float64) {
	m.httpResponseSize.WithLabelValues(method, path).Observe(sizeBytes)
}
