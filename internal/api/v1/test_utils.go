// internal/api/v1/test_utils.go
// Shared helpers for handler tests: a testify mock datastore and a fully
// wired test controller.
package api

import (
	"log"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/geocoder"
	"github.com/suspsaude/susp-backend/internal/locator"
	"github.com/suspsaude/susp-backend/internal/observability"
)

// MockDataStore implements datastore.Interface for tests
type MockDataStore struct {
	mock.Mock
}

// Open implements datastore.Interface
func (m *MockDataStore) Open() error {
	args := m.Called()
	return args.Error(0)
}

// Close implements datastore.Interface
func (m *MockDataStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetEstablishment implements datastore.Interface
func (m *MockDataStore) GetEstablishment(cnes int) (*datastore.GeneralInfo, error) {
	args := m.Called(cnes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.GeneralInfo), args.Error(1)
}

// SearchServiceRecords implements datastore.Interface
func (m *MockDataStore) SearchServiceRecords(service, classification int) ([]datastore.ServiceRecord, error) {
	args := m.Called(service, classification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datastore.ServiceRecord), args.Error(1)
}

// GetServiceRecords implements datastore.Interface
func (m *MockDataStore) GetServiceRecords(cnes int) ([]datastore.ServiceRecord, error) {
	args := m.Called(cnes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datastore.ServiceRecord), args.Error(1)
}

// GetMedicalService implements datastore.Interface
func (m *MockDataStore) GetMedicalService(service, classification int) (*datastore.MedicalService, error) {
	args := m.Called(service, classification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.MedicalService), args.Error(1)
}

// GetAllMedicalServices implements datastore.Interface
func (m *MockDataStore) GetAllMedicalServices() ([]datastore.MedicalService, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datastore.MedicalService), args.Error(1)
}

// SaveEstablishments implements datastore.Interface
func (m *MockDataStore) SaveEstablishments(infos []datastore.GeneralInfo) error {
	args := m.Called(infos)
	return args.Error(0)
}

// SaveMedicalServices implements datastore.Interface
func (m *MockDataStore) SaveMedicalServices(services []datastore.MedicalService) error {
	args := m.Called(services)
	return args.Error(0)
}

// ReplaceServiceRecords implements datastore.Interface
func (m *MockDataStore) ReplaceServiceRecords(records []datastore.ServiceRecord) error {
	args := m.Called(records)
	return args.Error(0)
}

// setupTestEnvironment creates an echo instance, a mock datastore and a fully
// wired controller for handler tests
func setupTestEnvironment(t *testing.T) (*echo.Echo, *MockDataStore, *Controller) {
	t.Helper()

	// Create Echo instance
	e := echo.New()

	// Create mock datastore
	mockDS := new(MockDataStore)

	// Create settings
	settings := &conf.Settings{}
	settings.WebServer.Debug = true
	settings.Geocoder.Provider = "awesomeapi"
	settings.Geocoder.Timeout = 5 * time.Second

	// Create a test logger
	logger := log.New(os.Stdout, "API TEST: ", log.LstdFlags)

	geocoderSvc, err := geocoder.NewService(settings)
	if err != nil {
		t.Fatalf("Failed to create geocoder service: %v", err)
	}

	testMetrics, err := observability.NewMetrics()
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	locatorSvc := locator.NewService(mockDS, testMetrics.Locator)

	// Create API controller
	controller, err := New(e, mockDS, settings, locatorSvc, geocoderSvc, logger, testMetrics)
	if err != nil {
		t.Fatalf("Failed to create test API controller: %v", err)
	}
	t.Cleanup(controller.Shutdown)

	return e, mockDS, controller
}
