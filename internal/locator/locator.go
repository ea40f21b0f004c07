// Package locator implements the establishment lookup operations behind the
// public API: nearest-unit search, the expertise catalog and per-unit service
// aggregation.
package locator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/errors"
	"github.com/suspsaude/susp-backend/internal/geo"
	"github.com/suspsaude/susp-backend/internal/logging"
	"github.com/suspsaude/susp-backend/internal/observability/metrics"
)

// Package-level logger for locator service
var (
	locatorLogger   *slog.Logger
	locatorLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	locatorLevelVar.Set(slog.LevelDebug)

	locatorLogger, _, err = logging.NewFileLogger("logs/locator.log", "locator", locatorLevelVar)
	if err != nil {
		logging.Error("Failed to initialize locator file logger", "error", err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: locatorLevelVar})
		locatorLogger = slog.New(fbHandler).With("service", "locator")
	}
}

// Metric status labels.
const (
	statusSuccess  = "success"
	statusError    = "error"
	statusNotFound = "not_found"
)

// UnitItem is one establishment in a nearest-unit search result.
type UnitItem struct {
	CNES     int     `json:"cnes"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Kind     string  `json:"type"`
	Distance float64 `json:"distance"`
}

// ExpertiseItem is one entry of the expertise catalog. ID carries the
// composite service and classification codes needed to search for units.
type ExpertiseItem struct {
	ID   [2]int `json:"id"`
	Name string `json:"name"`
}

// Service resolves establishment lookups against the datastore.
type Service struct {
	ds      datastore.Interface
	metrics *metrics.LocatorMetrics
}

// NewService creates a locator service. The metrics collector may be nil, in
// which case no metrics are recorded.
func NewService(ds datastore.Interface, locatorMetrics *metrics.LocatorMetrics) *Service {
	return &Service{ds: ds, metrics: locatorMetrics}
}

// ResolveNearestUnits returns the establishments offering the given service
// and classification, ordered by distance from origin and capped at
// conf.MaxUnits. Records pointing at unknown establishments or at
// establishments without coordinates are skipped, never an error.
func (s *Service) ResolveNearestUnits(ctx context.Context, service, classification int, origin geo.Coordinate) ([]UnitItem, error) {
	start := time.Now()

	units, err := s.resolveNearestUnits(ctx, service, classification, origin)

	status := statusSuccess
	if err != nil {
		status = statusError
	}
	if s.metrics != nil {
		s.metrics.RecordSearch(status)
		s.metrics.RecordSearchDuration(status, time.Since(start).Seconds())
		if err == nil {
			s.metrics.RecordSearchResults(len(units))
		}
	}
	return units, err
}

func (s *Service) resolveNearestUnits(ctx context.Context, service, classification int, origin geo.Coordinate) ([]UnitItem, error) {
	records, err := s.ds.SearchServiceRecords(service, classification)
	if err != nil {
		return nil, errors.New(err).
			Component("locator").
			Category(errors.CategoryDatabase).
			Context("operation", "search_service_records").
			Context("service", service).
			Context("classification", classification).
			Build()
	}

	units := make([]UnitItem, 0, len(records))
	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record := &records[i]
		est, err := s.ds.GetEstablishment(record.CNES)
		if err != nil {
			if errors.IsNotFound(err) {
				locatorLogger.Warn("service record points at unknown establishment",
					"cnes", record.CNES,
					"service", record.Service,
					"classification", record.Classification)
				s.recordOmission(metrics.OmissionMissingEstablishment)
				continue
			}
			return nil, err
		}

		if est.Latitude == nil || est.Longitude == nil {
			locatorLogger.Warn("establishment has no coordinates, skipping",
				"cnes", est.CNES)
			s.recordOmission(metrics.OmissionMissingCoordinates)
			continue
		}

		units = append(units, UnitItem{
			CNES:     est.CNES,
			Name:     deref(est.Name),
			Address:  composeAddress(est),
			Kind:     deref(est.Kind),
			Distance: geo.Distance(origin, geo.Coordinate{Lat: *est.Latitude, Lon: *est.Longitude}),
		})
	}

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].Distance < units[j].Distance
	})
	if len(units) > conf.MaxUnits {
		units = units[:conf.MaxUnits]
	}
	return units, nil
}

func (s *Service) recordOmission(reason string) {
	if s.metrics != nil {
		s.metrics.RecordOmission(reason)
	}
}

// composeAddress renders "street, number, district". Missing parts keep
// their slot as an empty string.
func composeAddress(est *datastore.GeneralInfo) string {
	return fmt.Sprintf("%s, %s, %s", deref(est.Address), deref(est.Number), deref(est.District))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
