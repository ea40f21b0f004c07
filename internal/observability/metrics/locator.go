// Package metrics provides locator service metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LocatorMetrics contains Prometheus metrics for nearest-unit resolution and
// establishment detail operations
type LocatorMetrics struct {
	registry *prometheus.Registry

	unitSearchesTotal    *prometheus.CounterVec
	unitSearchDuration   *prometheus.HistogramVec
	unitsReturned        prometheus.Histogram
	recordOmissionsTotal *prometheus.CounterVec
	detailRequestsTotal  *prometheus.CounterVec
	expertiseListsTotal  prometheus.Counter
}

// NewLocatorMetrics creates and registers new locator metrics
func NewLocatorMetrics(registry *prometheus.Registry) (*LocatorMetrics, error) {
	m := &LocatorMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *LocatorMetrics) initMetrics() error {
	m.unitSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unit_searches_total",
			Help: "Total number of nearest-unit searches",
		},
		[]string{"status"}, // status: success, error
	)

	m.unitSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "unit_search_duration_seconds",
			Help: "Time taken to resolve the nearest units for a search",
			// 1ms to ~1s: searches are database bound.
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		},
		[]string{"status"},
	)

	m.unitsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "unit_search_results",
			Help:    "Number of units returned per search",
			Buckets: prometheus.LinearBuckets(0, 2, 11), // 0 to 20 in steps of 2
		},
	)

	m.recordOmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_omissions_total",
			Help: "Rows skipped during resolution because of data anomalies",
		},
		[]string{"reason"},
	)

	m.detailRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detail_requests_total",
			Help: "Total number of establishment detail requests",
		},
		[]string{"status"}, // status: success, not_found, error
	)

	m.expertiseListsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expertise_listings_total",
			Help: "Total number of expertise catalog listings",
		},
	)

	return nil
}

// Describe implements the Collector interface
func (m *LocatorMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.unitSearchesTotal.Describe(ch)
	m.unitSearchDuration.Describe(ch)
	m.unitsReturned.Describe(ch)
	m.recordOmissionsTotal.Describe(ch)
	m.detailRequestsTotal.Describe(ch)
	m.expertiseListsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *LocatorMetrics) Collect(ch chan<- prometheus.Metric) {
	m.unitSearchesTotal.Collect(ch)
	m.unitSearchDuration.Collect(ch)
	m.unitsReturned.Collect(ch)
	m.recordOmissionsTotal.Collect(ch)
	m.detailRequestsTotal.Collect(ch)
	m.expertiseListsTotal.Collect(ch)
}

// RecordSearch records a nearest-unit search
func (m *LocatorMetrics) RecordSearch(status string) {
	m.unitSearchesTotal.WithLabelValues(status).Inc()
}

// RecordSearchDuration records how long a search took
func (m *LocatorMetrics) RecordSearchDuration(status string, duration float64) {
	m.unitSearchDuration.WithLabelValues(status).Observe(duration)
}

// RecordSearchResults records the number of units a search returned
func (m *LocatorMetrics) RecordSearchResults(count int) {
	m.unitsReturned.Observe(float64(count))
}

// RecordOmission records a row skipped because of a data anomaly
func (m *LocatorMetrics) RecordOmission(reason string) {
	m.recordOmissionsTotal.WithLabelValues(reason).Inc()
}

// RecordDetailRequest records an establishment detail request
func (m *LocatorMetrics) RecordDetailRequest(status string) {
	m.detailRequestsTotal.WithLabelValues(status).Inc()
}

// RecordExpertiseListing records an expertise catalog listing
func (m *LocatorMetrics) RecordExpertiseListing() {
	m.expertiseListsTotal.Inc()
}
