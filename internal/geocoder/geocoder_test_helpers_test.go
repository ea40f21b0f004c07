package geocoder

import (
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/suspsaude/susp-backend/internal/conf"
)

// createTestSettings creates test settings with configurable provider.
func createTestSettings(t *testing.T, provider string) *conf.Settings {
	t.Helper()

	settings := &conf.Settings{}
	settings.Geocoder.Provider = provider
	settings.Geocoder.Timeout = 5 * time.Second
	return settings
}

// setupHTTPMock activates httpmock for the default transport and registers
// cleanup.
func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

// awesomeAPISuccessResponse returns a valid AwesomeAPI payload. Coordinates
// are strings, matching the live service.
func awesomeAPISuccessResponse() string {
	return `{
		"cep": "01001000",
		"address_type": "Praça",
		"address_name": "da Sé",
		"address": "Praça da Sé",
		"state": "SP",
		"district": "Sé",
		"lat": "-23.5503099",
		"lng": "-46.6342009",
		"city": "São Paulo",
		"city_ibge": "3550308",
		"ddd": "11"
	}`
}

// brasilAPISuccessResponse returns a valid BrasilAPI cep/v2 payload.
func brasilAPISuccessResponse() string {
	return `{
		"cep": "01001000",
		"state": "SP",
		"city": "São Paulo",
		"neighborhood": "Sé",
		"street": "Praça da Sé",
		"service": "open-cep",
		"location": {
			"type": "Point",
			"coordinates": {
				"longitude": "-46.6342009",
				"latitude": "-23.5503099"
			}
		}
	}`
}

// brasilAPINoCoordinatesResponse returns a cep/v2 payload without
// coordinates, which the live service produces for CEPs it cannot position.
func brasilAPINoCoordinatesResponse() string {
	return `{
		"cep": "01001000",
		"state": "SP",
		"city": "São Paulo",
		"neighborhood": "Sé",
		"street": "Praça da Sé",
		"service": "viacep",
		"location": {
			"type": "Point",
			"coordinates": {}
		}
	}`
}
