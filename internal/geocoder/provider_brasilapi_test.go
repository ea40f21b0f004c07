package geocoder

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suspsaude/susp-backend/internal/errors"
)

func TestBrasilAPIProvider_Geocode_Success(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder("GET", BrasilAPIBaseURL+"/01001000",
		httpmock.NewStringResponder(http.StatusOK, brasilAPISuccessResponse()))

	provider := NewBrasilAPIProvider(5 * time.Second)

	coord, err := provider.Geocode(context.Background(), "01001000")
	require.NoError(t, err)
	assert.InDelta(t, -23.5503099, coord.Lat, 1e-9)
	assert.InDelta(t, -46.6342009, coord.Lon, 1e-9)
}

func TestBrasilAPIProvider_Geocode_NotFound(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder("GET", BrasilAPIBaseURL+"/99999999",
		httpmock.NewStringResponder(http.StatusNotFound,
			`{"name":"CepPromiseError","message":"Todos os serviços de CEP retornaram erro.","type":"service_error"}`))

	provider := NewBrasilAPIProvider(5 * time.Second)

	_, err := provider.Geocode(context.Background(), "99999999")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestBrasilAPIProvider_Geocode_MissingCoordinates(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder("GET", BrasilAPIBaseURL+"/01001000",
		httpmock.NewStringResponder(http.StatusOK, brasilAPINoCoordinatesResponse()))

	provider := NewBrasilAPIProvider(5 * time.Second)

	_, err := provider.Geocode(context.Background(), "01001000")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err),
		"a CEP without coordinates cannot anchor a search")
}

func TestBrasilAPIProvider_Geocode_ServerError(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder("GET", BrasilAPIBaseURL+"/01001000",
		httpmock.NewStringResponder(http.StatusInternalServerError, "oops"))

	provider := NewBrasilAPIProvider(5 * time.Second)

	_, err := provider.Geocode(context.Background(), "01001000")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
}
