package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/suspsaude/susp-backend/internal/errors"
	"github.com/suspsaude/susp-backend/internal/geo"
)

const (
	BrasilAPIBaseURL      = "https://brasilapi.com.br/api/cep/v2"
	brasilAPIProviderName = "brasilapi"
)

// BrasilAPIProvider resolves CEPs through the BrasilAPI cep/v2 service.
type BrasilAPIProvider struct {
	client  *http.Client
	baseURL string
}

// NewBrasilAPIProvider creates a new BrasilAPI provider.
func NewBrasilAPIProvider(timeout time.Duration) *BrasilAPIProvider {
	return &BrasilAPIProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: BrasilAPIBaseURL,
	}
}

// Name returns the provider identifier used in configuration and logs.
func (p *BrasilAPIProvider) Name() string {
	return brasilAPIProviderName
}

// brasilAPIResponse covers the fields used from the BrasilAPI cep/v2
// payload. Coordinates arrive as JSON strings nested under location, and the
// service omits them for CEPs it cannot position.
type brasilAPIResponse struct {
	CEP      string `json:"cep"`
	State    string `json:"state"`
	City     string `json:"city"`
	Location struct {
		Type        string `json:"type"`
		Coordinates struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"coordinates"`
	} `json:"location"`
}

// Geocode resolves one CEP. cep must already be normalized to eight digits.
func (p *BrasilAPIProvider) Geocode(ctx context.Context, cep string) (geo.Coordinate, error) {
	url := fmt.Sprintf("%s/%s", p.baseURL, cep)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryNetwork, "create_request", brasilAPIProviderName)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		geocoderLogger.Error("CEP lookup request failed",
			"provider", brasilAPIProviderName,
			"cep", cep,
			"error", err)
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryNetwork, "cep_lookup", brasilAPIProviderName)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			geocoderLogger.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		geocoderLogger.Warn("CEP not found",
			"provider", brasilAPIProviderName,
			"cep", cep)
		return geo.Coordinate{}, newCEPNotFoundError(cep, brasilAPIProviderName)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		geocoderLogger.Warn("Received non-OK status code",
			"provider", brasilAPIProviderName,
			"cep", cep,
			"status_code", resp.StatusCode,
			"response_body", truncateBodyPreview(string(bodyBytes)))
		return geo.Coordinate{}, errors.Newf("CEP lookup returned status %d", resp.StatusCode).
			Component("geocoder").
			Category(errors.CategoryNetwork).
			Context("provider", brasilAPIProviderName).
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryNetwork, "read_response_body", brasilAPIProviderName)
	}

	var data brasilAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		geocoderLogger.Error("Failed to parse CEP lookup response",
			"provider", brasilAPIProviderName,
			"cep", cep,
			"response_body", truncateBodyPreview(string(body)),
			"error", err)
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryGeocoding, "parse_response", brasilAPIProviderName)
	}

	// BrasilAPI returns some CEPs without coordinates. Those cannot anchor a
	// distance search, so they count as unresolvable.
	coords := data.Location.Coordinates
	if coords.Latitude == "" || coords.Longitude == "" {
		geocoderLogger.Warn("CEP resolved without coordinates",
			"provider", brasilAPIProviderName,
			"cep", cep)
		return geo.Coordinate{}, newCEPNotFoundError(cep, brasilAPIProviderName)
	}

	lat, err := strconv.ParseFloat(coords.Latitude, 64)
	if err != nil {
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryGeocoding, "parse_latitude", brasilAPIProviderName)
	}
	lon, err := strconv.ParseFloat(coords.Longitude, 64)
	if err != nil {
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryGeocoding, "parse_longitude", brasilAPIProviderName)
	}

	return geo.Coordinate{Lat: lat, Lon: lon}, nil
}
