// units_test.go: tests for the unit search and detail endpoints

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/errors"
	"github.com/suspsaude/susp-backend/internal/geocoder"
)

func ptr[T any](v T) *T { return &v }

// awesomeAPIResponder serves the standard test origin, praça da Sé.
func awesomeAPIResponder() httpmock.Responder {
	return httpmock.NewStringResponder(http.StatusOK,
		`{"cep": "01001-000", "lat": "-23.5503099", "lng": "-46.6342009"}`)
}

func testUnit(cnes int, lat, lon float64) *datastore.GeneralInfo {
	return &datastore.GeneralInfo{
		CNES:      cnes,
		Name:      ptr("UNIDADE BASICA DE SAUDE SE"),
		City:      ptr("SAO PAULO"),
		State:     ptr("SP"),
		Kind:      ptr("CENTRO DE SAUDE/UNIDADE BASICA"),
		Address:   ptr("PRACA DA SE"),
		Number:    ptr("100"),
		District:  ptr("SE"),
		Latitude:  ptr(lat),
		Longitude: ptr(lon),
	}
}

func TestGetNearestUnits(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder("GET", geocoder.AwesomeAPIBaseURL+"/01001000", awesomeAPIResponder())

	// Stored farther-first so the handler must sort
	mockDS.On("SearchServiceRecords", 121, 12).Return([]datastore.ServiceRecord{
		{CNES: 222, Service: 121, Classification: 12},
		{CNES: 111, Service: 121, Classification: 12},
	}, nil)
	mockDS.On("GetEstablishment", 111).Return(testUnit(111, -23.5520, -46.6350), nil)
	mockDS.On("GetEstablishment", 222).Return(testUnit(222, -23.6000, -46.7000), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unidades?cep=01001-000&srv=121&clf=12", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.GetNearestUnits(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var units []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &units))
	require.Len(t, units, 2)

	assert.Equal(t, float64(111), units[0]["cnes"], "nearest unit should come first")
	assert.Equal(t, float64(222), units[1]["cnes"])
	assert.Equal(t, "PRACA DA SE, 100, SE", units[0]["address"])
	assert.Contains(t, units[0], "type", "establishment kind is exposed as type")
	assert.Less(t, units[0]["distance"].(float64), units[1]["distance"].(float64))
}

func TestGetNearestUnitsInvalidCEPFormat(t *testing.T) {
	e, _, controller := setupTestEnvironment(t)

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unidades?cep=123&srv=121&clf=12", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.GetNearestUnits(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "CEP inválido", errResp.Message)
	assert.Equal(t, http.StatusBadRequest, errResp.Code)
	assert.Len(t, errResp.CorrelationID, 8)

	assert.Equal(t, 0, httpmock.GetTotalCallCount(), "malformed CEP must not reach the provider")
}

func TestGetNearestUnitsBadCodeParams(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"missing srv", "cep=01001-000&clf=12", "Parâmetro srv inválido"},
		{"non-numeric srv", "cep=01001-000&srv=abc&clf=12", "Parâmetro srv inválido"},
		{"missing clf", "cep=01001-000&srv=121", "Parâmetro clf inválido"},
		{"non-numeric clf", "cep=01001-000&srv=121&clf=x", "Parâmetro clf inválido"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, controller := setupTestEnvironment(t)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/unidades?"+tt.query, http.NoBody)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, controller.GetNearestUnits(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.Equal(t, tt.message, errResp.Message)
		})
	}
}

func TestGetNearestUnitsCEPNotFound(t *testing.T) {
	e, _, controller := setupTestEnvironment(t)

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder("GET", geocoder.AwesomeAPIBaseURL+"/99999999",
		httpmock.NewStringResponder(http.StatusNotFound, `{"status":404,"message":"Cep não encontrado"}`))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unidades?cep=99999-999&srv=121&clf=12", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.GetNearestUnits(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "CEP não encontrado ou inválido", errResp.Message)
}

func TestGetNearestUnitsGeocoderFailure(t *testing.T) {
	e, _, controller := setupTestEnvironment(t)

	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder("GET", geocoder.AwesomeAPIBaseURL+"/01001000",
		httpmock.NewStringResponder(http.StatusInternalServerError, "upstream broken"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unidades?cep=01001-000&srv=121&clf=12", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.GetNearestUnits(c))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "Erro ao buscar a localização do CEP", errResp.Message)
}

func TestGetUnitDetails(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	unit := testUnit(2077485, -23.5520, -46.6350)
	unit.CEP = ptr("01001000")
	unit.Telephone = ptr("(11) 3334-5555")
	// Email stays nil so the payload carries an explicit null

	mockDS.On("GetEstablishment", 2077485).Return(unit, nil)
	mockDS.On("GetServiceRecords", 2077485).Return([]datastore.ServiceRecord{
		{CNES: 2077485, Service: 121, Classification: 12},
		{CNES: 2077485, Service: 121, Classification: 9},
	}, nil)
	mockDS.On("GetMedicalService", 121, 12).Return(&datastore.MedicalService{
		Code: 121, ClassCode: 12, Service: "DIAGNOSTICO POR IMAGEM", Classification: "MAMOGRAFIA",
	}, nil)
	mockDS.On("GetMedicalService", 121, 9).Return(&datastore.MedicalService{
		Code: 121, ClassCode: 9, Service: "DIAGNOSTICO POR IMAGEM", Classification: "ULTRASSONOGRAFIA",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unidades/detalhes?cnes=2077485", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.GetUnitDetails(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var details map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))

	assert.Equal(t, float64(2077485), details["cnes"])
	assert.Equal(t, "UNIDADE BASICA DE SAUDE SE", details["name"])
	assert.Equal(t, "01001000", details["cep"])

	email, present := details["email"]
	require.True(t, present, "nullable fields stay in the payload")
	assert.Nil(t, email)

	services, ok := details["services"].(map[string]any)
	require.True(t, ok)
	classifications, ok := services["DIAGNOSTICO POR IMAGEM"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"MAMOGRAFIA", "ULTRASSONOGRAFIA"}, classifications)
}

func TestGetUnitDetailsNotFound(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("GetEstablishment", 42).Return(nil, errors.Newf("establishment 42 not found").
		Component("datastore").
		Category(errors.CategoryNotFound).
		Build())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unidades/detalhes?cnes=42", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.GetUnitDetails(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "Unidade não encontrada", errResp.Message)
}

func TestGetUnitDetailsInvalidCNES(t *testing.T) {
	e, _, controller := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unidades/detalhes?cnes=abc", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.GetUnitDetails(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "Parâmetro cnes inválido", errResp.Message)
}
