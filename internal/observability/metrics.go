// Package observability provides metrics and monitoring capabilities for the SUSP backend.
package observability

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/suspsaude/susp-backend/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	HTTP     *metrics.HTTPMetrics
	Geocoder *metrics.GeocoderMetrics
	Locator  *metrics.LocatorMetrics
	OpenData *metrics.OpenDataMetrics
	Ingest   *metrics.IngestMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	httpMetrics, err := metrics.NewHTTPMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	geocoderMetrics, err := metrics.NewGeocoderMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Geocoder metrics: %w", err)
	}

	locatorMetrics, err := metrics.NewLocatorMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Locator metrics: %w", err)
	}

	openDataMetrics, err := metrics.NewOpenDataMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenData metrics: %w", err)
	}

	ingestMetrics, err := metrics.NewIngestMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ingest metrics: %w", err)
	}

	m := &Metrics{
		registry: registry,
		HTTP:     httpMetrics,
		Geocoder: geocoderMetrics,
		Locator:  locatorMetrics,
		OpenData: openDataMetrics,
		Ingest:   ingestMetrics,
	}

	return m, nil
}

// Handler returns the HTTP handler serving the collected metrics. The caller
// mounts it on whatever router the server uses.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      log.New(os.Stderr, "metrics handler: ", log.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
