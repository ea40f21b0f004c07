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
	AwesomeAPIBaseURL      = "https://cep.awesomeapi.com.br/json"
	awesomeAPIProviderName = "awesomeapi"
)

// AwesomeAPIProvider resolves CEPs through the AwesomeAPI CEP service.
type AwesomeAPIProvider struct {
	client  *http.Client
	baseURL string
}

// NewAwesomeAPIProvider creates a new AwesomeAPI provider.
func NewAwesomeAPIProvider(timeout time.Duration) *AwesomeAPIProvider {
	return &AwesomeAPIProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: AwesomeAPIBaseURL,
	}
}

// Name returns the provider identifier used in configuration and logs.
func (p *AwesomeAPIProvider) Name() string {
	return awesomeAPIProviderName
}

// awesomeAPIResponse covers the fields used from the AwesomeAPI payload.
// Coordinates arrive as JSON strings.
type awesomeAPIResponse struct {
	CEP   string `json:"cep"`
	Lat   string `json:"lat"`
	Lng   string `json:"lng"`
	City  string `json:"city"`
	State string `json:"state"`
}

// Geocode resolves one CEP. cep must already be normalized to eight digits.
func (p *AwesomeAPIProvider) Geocode(ctx context.Context, cep string) (geo.Coordinate, error) {
	url := fmt.Sprintf("%s/%s", p.baseURL, cep)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryNetwork, "create_request", awesomeAPIProviderName)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		geocoderLogger.Error("CEP lookup request failed",
			"provider", awesomeAPIProviderName,
			"cep", cep,
			"error", err)
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryNetwork, "cep_lookup", awesomeAPIProviderName)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			geocoderLogger.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		geocoderLogger.Warn("CEP not found",
			"provider", awesomeAPIProviderName,
			"cep", cep)
		return geo.Coordinate{}, newCEPNotFoundError(cep, awesomeAPIProviderName)
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		geocoderLogger.Warn("Received non-OK status code",
			"provider", awesomeAPIProviderName,
			"cep", cep,
			"status_code", resp.StatusCode,
			"response_body", truncateBodyPreview(string(bodyBytes)))
		return geo.Coordinate{}, errors.Newf("CEP lookup returned status %d", resp.StatusCode).
			Component("geocoder").
			Category(errors.CategoryNetwork).
			Context("provider", awesomeAPIProviderName).
			Context("status_code", resp.StatusCode).
			Build()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryNetwork, "read_response_body", awesomeAPIProviderName)
	}

	var data awesomeAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		geocoderLogger.Error("Failed to parse CEP lookup response",
			"provider", awesomeAPIProviderName,
			"cep", cep,
			"response_body", truncateBodyPreview(string(body)),
			"error", err)
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryGeocoding, "parse_response", awesomeAPIProviderName)
	}

	if data.Lat == "" || data.Lng == "" {
		return geo.Coordinate{}, errors.Newf("CEP lookup response missing coordinates").
			Component("geocoder").
			Category(errors.CategoryGeocoding).
			Context("provider", awesomeAPIProviderName).
			Context("cep", cep).
			Build()
	}

	lat, err := strconv.ParseFloat(data.Lat, 64)
	if err != nil {
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryGeocoding, "parse_latitude", awesomeAPIProviderName)
	}
	lon, err := strconv.ParseFloat(data.Lng, 64)
	if err != nil {
		return geo.Coordinate{}, newGeocoderError(err, errors.CategoryGeocoding, "parse_longitude", awesomeAPIProviderName)
	}

	return geo.Coordinate{Lat: lat, Lon: lon}, nil
}
