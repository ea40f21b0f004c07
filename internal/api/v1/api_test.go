// api_test.go: Package api provides tests for API v1 endpoints.

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/suspsaude/susp-backend/internal/datastore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// Ignore the lumberjack goroutines behind the file loggers
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
		// Ignore the go-cache janitor which we can't control
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

// TestHealthCheck tests the health check endpoint
func TestHealthCheck(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	// Connectivity probe against the offering index
	mockDS.On("SearchServiceRecords", 0, 0).Return([]datastore.ServiceRecord{}, nil)

	controller.Settings.Version = "1.2.3"
	controller.Settings.BuildDate = "2025-05-15"

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/health")

	require.NoError(t, controller.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "1.2.3", response["version"])
	assert.Equal(t, "2025-05-15", response["build_date"])
	assert.Equal(t, "connected", response["database_status"])
	assert.Equal(t, "development", response["environment"])
	assert.NotContains(t, response, "system", "verbose section should be opt-in")
}

// TestHealthCheckVerbose tests the verbose health payload
func TestHealthCheckVerbose(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("SearchServiceRecords", 0, 0).Return([]datastore.ServiceRecord{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health?verbose=true", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	system, ok := response["system"].(map[string]any)
	require.True(t, ok, "verbose response should include a system section")
	assert.NotEmpty(t, system["os"])
	assert.NotEmpty(t, system["go_version"])
}

// TestHealthCheckDatabaseDown verifies the endpoint stays up when the
// database does not answer
func TestHealthCheckDatabaseDown(t *testing.T) {
	e, mockDS, controller := setupTestEnvironment(t)

	mockDS.On("SearchServiceRecords", 0, 0).Return(nil, assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.HealthCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "disconnected", response["database_status"])
	assert.NotEmpty(t, response["database_error"])
}

// TestSanityCheck tests the legacy root endpoint
func TestSanityCheck(t *testing.T) {
	e, _, controller := setupTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, controller.SanityCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"detail": "Não há nada aqui, apenas um sanity check!"}`, rec.Body.String())
}

// TestLegacyAliasesRouteToSameHandlers verifies the unversioned paths serve
// the same payloads as their /api/v1 twins
func TestLegacyAliasesRouteToSameHandlers(t *testing.T) {
	e, mockDS, _ := setupTestEnvironment(t)

	mockDS.On("GetAllMedicalServices").Return([]datastore.MedicalService{
		{Code: 121, ClassCode: 12, Service: "DIAGNOSTICO POR IMAGEM", Classification: "MAMOGRAFIA"},
	}, nil)

	for _, path := range []string{"/especialidades", "/api/v1/especialidades"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
		assert.JSONEq(t, `[{"id":[121,12],"name":"MAMOGRAFIA"}]`, rec.Body.String(), "path %s", path)
	}

	// Root sanity check is only registered unversioned
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sanity check")
}

// TestNewErrorResponse verifies envelope construction and correlation IDs
func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(assert.AnError, "something broke", http.StatusInternalServerError)

	assert.Equal(t, assert.AnError.Error(), resp.Error)
	assert.Equal(t, "something broke", resp.Message)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Len(t, resp.CorrelationID, 8)

	// Without an error object the message doubles as the error string
	resp = NewErrorResponse(nil, "missing parameter", http.StatusBadRequest)
	assert.Equal(t, "missing parameter", resp.Error)
}

// TestGenerateCorrelationIDUniqueness verifies IDs do not repeat in practice
func TestGenerateCorrelationIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateCorrelationID()
		assert.Len(t, id, 8)
		assert.False(t, seen[id], "correlation ID %s repeated", id)
		seen[id] = true
	}
}
