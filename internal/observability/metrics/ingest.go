// ingest.go: Prometheus metrics for dataset ingestion runs
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains Prometheus metrics for CNES dataset ingestion
type IngestMetrics struct {
	registry *prometheus.Registry

	runsTotal             *prometheus.CounterVec
	runDuration           *prometheus.HistogramVec
	rowsProcessedTotal    *prometheus.CounterVec
	rowsSkippedTotal      *prometheus.CounterVec
	establishmentsFetched prometheus.Counter
}

// NewIngestMetrics creates and registers new ingestion metrics
func NewIngestMetrics(registry *prometheus.Registry) (*IngestMetrics, error) {
	m := &IngestMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *IngestMetrics) initMetrics() error {
	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Total number of ingestion runs",
		},
		[]string{"source", "status"}, // source: elasticnes, zip; status: success, error
	)

	m.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ingest_run_duration_seconds",
			Help: "Ingestion run duration",
			// 1s to ~64min: a full run fetches per-establishment details.
			Buckets: prometheus.ExponentialBuckets(BucketStart1s, BucketFactor2, BucketCount12),
		},
		[]string{"source"},
	)

	m.rowsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_processed_total",
			Help: "Total number of rows written during ingestion",
		},
		[]string{"entity"}, // entity: establishment, medical_service, service_record
	)

	m.rowsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_skipped_total",
			Help: "Total number of rows skipped during ingestion",
		},
		[]string{"reason"},
	)

	m.establishmentsFetched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_establishments_fetched_total",
			Help: "Total number of establishment detail records fetched from the open-data API",
		},
	)

	return nil
}

// Describe implements the Collector interface
func (m *IngestMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.runsTotal.Describe(ch)
	m.runDuration.Describe(ch)
	m.rowsProcessedTotal.Describe(ch)
	m.rowsSkippedTotal.Describe(ch)
	m.establishmentsFetched.Describe(ch)
}

// Collect implements the Collector interface
func (m *IngestMetrics) Collect(ch chan<- prometheus.Metric) {
	m.runsTotal.Collect(ch)
	m.runDuration.Collect(ch)
	m.rowsProcessedTotal.Collect(ch)
	m.rowsSkippedTotal.Collect(ch)
	m.establishmentsFetched.Collect(ch)
}

// RecordRun records a completed ingestion run
func (m *IngestMetrics) RecordRun(source, status string) {
	m.runsTotal.WithLabelValues(source, status).Inc()
}

// RecordRunDuration records how long an ingestion run took
func (m *IngestMetrics) RecordRunDuration(source string, duration float64) {
	m.runDuration.WithLabelValues(source).Observe(duration)
}

// RecordRowsProcessed records rows written for an entity
func (m *IngestMetrics) RecordRowsProcessed(entity string, count int) {
	m.rowsProcessedTotal.WithLabelValues(entity).Add(float64(count))
}

// RecordRowSkipped records a row skipped during ingestion
func (m *IngestMetrics) RecordRowSkipped(reason string) {
	m.rowsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordRowsSkipped records a batch of rows skipped for the same reason
func (m *IngestMetrics) RecordRowsSkipped(reason string, count int) {
	m.rowsSkippedTotal.WithLabelValues(reason).Add(float64(count))
}

// RecordEstablishmentFetched records a fetched establishment detail record
func (m *IngestMetrics) RecordEstablishmentFetched() {
	m.establishmentsFetched.Inc()
}
