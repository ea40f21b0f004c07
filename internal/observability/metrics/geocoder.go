// Package metrics provides geocoder service metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GeocoderMetrics contains Prometheus metrics for CEP lookup operations
type GeocoderMetrics struct {
	registry *prometheus.Registry

	cepLookupsTotal      *prometheus.CounterVec
	cepLookupErrorsTotal *prometheus.CounterVec
	cepLookupDuration    *prometheus.HistogramVec
}

// NewGeocoderMetrics creates and registers new geocoder metrics
func NewGeocoderMetrics(registry *prometheus.Registry) (*GeocoderMetrics, error) {
	m := &GeocoderMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *GeocoderMetrics) initMetrics() error {
	m.cepLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cep_lookups_total",
			Help: "Total number of CEP lookup operations",
		},
		[]string{"provider", "status"}, // status: success, not_found, error
	)

	m.cepLookupErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cep_lookup_errors_total",
			Help: "Total number of CEP lookup errors",
		},
		[]string{"provider", "error_type"},
	)

	m.cepLookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "cep_lookup_duration_seconds",
			Help: "Time taken to resolve a CEP to coordinates",
			// 100ms to ~100s covers normal lookups through provider timeouts.
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
		},
		[]string{"provider"},
	)

	return nil
}

// Describe implements the Collector interface
func (m *GeocoderMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.cepLookupsTotal.Describe(ch)
	m.cepLookupErrorsTotal.Describe(ch)
	m.cepLookupDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *GeocoderMetrics) Collect(ch chan<- prometheus.Metric) {
	m.cepLookupsTotal.Collect(ch)
	m.cepLookupErrorsTotal.Collect(ch)
	m.cepLookupDuration.Collect(ch)
}

// RecordLookup records a CEP lookup operation
func (m *GeocoderMetrics) RecordLookup(provider, status string) {
	m.cepLookupsTotal.WithLabelValues(provider, status).Inc()
}

// RecordLookupError records a CEP lookup error
func (m *GeocoderMetrics) RecordLookupError(provider, errorType string) {
	m.cepLookupErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// RecordLookupDuration records the duration of a CEP lookup
func (m *GeocoderMetrics) RecordLookupDuration(provider string, duration float64) {
	m.cepLookupDuration.WithLabelValues(provider).Observe(duration)
}
