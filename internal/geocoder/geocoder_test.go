package geocoder

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suspsaude/susp-backend/internal/errors"
)

func TestValidateCEP(t *testing.T) {
	t.Parallel()

	valid := []string{"01001000", "01001-000", "99999-999", "00000000"}
	for _, cep := range valid {
		assert.NoError(t, ValidateCEP(cep), "expected %q to be valid", cep)
	}

	invalid := []string{"", "1234567", "123456789", "abcde-fgh", "01001_000", "01001- 000", "01-001000"}
	for _, cep := range invalid {
		err := ValidateCEP(cep)
		require.Error(t, err, "expected %q to be rejected", cep)
		assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	}
}

func TestNormalizeCEP(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "01001000", NormalizeCEP("01001-000"))
	assert.Equal(t, "01001000", NormalizeCEP("01001000"))
}

func TestNewServiceSelectsProvider(t *testing.T) {
	svc, err := NewService(createTestSettings(t, "awesomeapi"))
	require.NoError(t, err)
	assert.Equal(t, "awesomeapi", svc.Provider())

	svc, err = NewService(createTestSettings(t, "brasilapi"))
	require.NoError(t, err)
	assert.Equal(t, "brasilapi", svc.Provider())
}

func TestNewServiceUnknownProvider(t *testing.T) {
	svc, err := NewService(createTestSettings(t, "mapquest"))
	assert.Nil(t, svc)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestServiceResolve(t *testing.T) {
	setupHTTPMock(t)

	httpmock.RegisterResponder("GET", AwesomeAPIBaseURL+"/01001000",
		httpmock.NewStringResponder(http.StatusOK, awesomeAPISuccessResponse()))

	svc, err := NewService(createTestSettings(t, "awesomeapi"))
	require.NoError(t, err)

	// The hyphenated form is normalized before hitting the provider.
	coord, err := svc.Resolve(context.Background(), "01001-000")
	require.NoError(t, err)
	assert.InDelta(t, -23.5503099, coord.Lat, 1e-9)
	assert.InDelta(t, -46.6342009, coord.Lon, 1e-9)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestServiceResolveRejectsBadFormatWithoutLookup(t *testing.T) {
	setupHTTPMock(t)

	svc, err := NewService(createTestSettings(t, "awesomeapi"))
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), "not-a-cep")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Zero(t, httpmock.GetTotalCallCount(), "malformed CEP must not reach the provider")
}
