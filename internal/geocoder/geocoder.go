// Package geocoder resolves Brazilian postal codes (CEP) to geographic
// coordinates through pluggable lookup providers.
package geocoder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/errors"
	"github.com/suspsaude/susp-backend/internal/geo"
	"github.com/suspsaude/susp-backend/internal/logging"
	"github.com/suspsaude/susp-backend/internal/observability/metrics"
)

// Package-level logger for geocoder service
var (
	geocoderLogger   *slog.Logger
	geocoderLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	geocoderLevelVar.Set(slog.LevelDebug)

	geocoderLogger, _, err = logging.NewFileLogger("logs/geocoder.log", "geocoder", geocoderLevelVar)
	if err != nil {
		logging.Error("Failed to initialize geocoder file logger", "error", err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: geocoderLevelVar})
		geocoderLogger = slog.New(fbHandler).With("service", "geocoder")
	}
}

// cepPattern matches the accepted CEP formats: 00000000 or 00000-000.
var cepPattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

// ValidateCEP checks that cep is in an accepted format.
func ValidateCEP(cep string) error {
	if !cepPattern.MatchString(cep) {
		return errors.Newf("invalid CEP format: %q", cep).
			Component("geocoder").
			Category(errors.CategoryValidation).
			Context("cep", cep).
			Build()
	}
	return nil
}

// NormalizeCEP strips the optional hyphen, leaving the eight-digit form the
// lookup providers accept.
func NormalizeCEP(cep string) string {
	return strings.ReplaceAll(cep, "-", "")
}

// Provider represents a CEP lookup provider.
type Provider interface {
	Geocode(ctx context.Context, cep string) (geo.Coordinate, error)
	Name() string
}

// Service handles CEP resolution through the configured provider.
type Service struct {
	provider Provider
	settings *conf.Settings
	metrics  *metrics.GeocoderMetrics
}

// SetMetrics attaches a metrics collector to the service. Safe to leave
// unset, lookups then go unrecorded.
func (s *Service) SetMetrics(m *metrics.GeocoderMetrics) {
	s.metrics = m
}

// NewService creates a new geocoding service with the configured provider.
func NewService(settings *conf.Settings) (*Service, error) {
	var provider Provider

	timeout := settings.Geocoder.Timeout
	if timeout <= 0 {
		timeout = RequestTimeout
	}

	switch settings.Geocoder.Provider {
	case "awesomeapi":
		provider = NewAwesomeAPIProvider(timeout)
	case "brasilapi":
		provider = NewBrasilAPIProvider(timeout)
	default:
		return nil, errors.New(fmt.Errorf("invalid geocoder provider: %s", settings.Geocoder.Provider)).
			Component("geocoder").
			Category(errors.CategoryConfiguration).
			Context("provider", settings.Geocoder.Provider).
			Build()
	}

	geocoderLogger.Info("Geocoder service initialized",
		"provider", provider.Name(),
		"timeout", timeout.String())

	return &Service{
		provider: provider,
		settings: settings,
	}, nil
}

// Provider returns the name of the active lookup provider.
func (s *Service) Provider() string {
	return s.provider.Name()
}

// Resolve validates cep and resolves it to coordinates. The returned error
// carries a validation category for malformed input and a not-found category
// when the provider does not know the CEP, so callers can map them to the
// right status codes.
func (s *Service) Resolve(ctx context.Context, cep string) (geo.Coordinate, error) {
	if err := ValidateCEP(cep); err != nil {
		return geo.Coordinate{}, err
	}

	start := time.Now()
	coord, err := s.provider.Geocode(ctx, NormalizeCEP(cep))
	if s.metrics != nil {
		s.metrics.RecordLookupDuration(s.provider.Name(), time.Since(start).Seconds())
		switch {
		case err == nil:
			s.metrics.RecordLookup(s.provider.Name(), "success")
		case errors.IsNotFound(err):
			s.metrics.RecordLookup(s.provider.Name(), "not_found")
		default:
			s.metrics.RecordLookup(s.provider.Name(), "error")
			s.metrics.RecordLookupError(s.provider.Name(), categoryLabel(err))
		}
	}
	if err != nil {
		return geo.Coordinate{}, err
	}

	geocoderLogger.Debug("CEP resolved",
		"cep", cep,
		"provider", s.provider.Name(),
		"lat", coord.Lat,
		"lon", coord.Lon,
		"duration_ms", time.Since(start).Milliseconds())

	return coord, nil
}

// categoryLabel extracts the error category for use as a metric label.
func categoryLabel(err error) string {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) && enhanced.Category != "" {
		return string(enhanced.Category)
	}
	return "unknown"
}
