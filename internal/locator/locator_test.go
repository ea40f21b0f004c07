package locator

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/suspsaude/susp-backend/internal/datastore"
	"github.com/suspsaude/susp-backend/internal/errors"
	"github.com/suspsaude/susp-backend/internal/geo"
	"github.com/suspsaude/susp-backend/internal/observability/metrics"
)

// mockDataStore is a testify mock implementing datastore.Interface.
type mockDataStore struct {
	mock.Mock
}

func (m *mockDataStore) Open() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockDataStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockDataStore) GetEstablishment(cnes int) (*datastore.GeneralInfo, error) {
	args := m.Called(cnes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.GeneralInfo), args.Error(1)
}

func (m *mockDataStore) SearchServiceRecords(service, classification int) ([]datastore.ServiceRecord, error) {
	args := m.Called(service, classification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datastore.ServiceRecord), args.Error(1)
}

func (m *mockDataStore) GetServiceRecords(cnes int) ([]datastore.ServiceRecord, error) {
	args := m.Called(cnes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datastore.ServiceRecord), args.Error(1)
}

func (m *mockDataStore) GetMedicalService(service, classification int) (*datastore.MedicalService, error) {
	args := m.Called(service, classification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datastore.MedicalService), args.Error(1)
}

func (m *mockDataStore) GetAllMedicalServices() ([]datastore.MedicalService, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]datastore.MedicalService), args.Error(1)
}

func (m *mockDataStore) SaveEstablishments(infos []datastore.GeneralInfo) error {
	args := m.Called(infos)
	return args.Error(0)
}

func (m *mockDataStore) SaveMedicalServices(services []datastore.MedicalService) error {
	args := m.Called(services)
	return args.Error(0)
}

func (m *mockDataStore) ReplaceServiceRecords(records []datastore.ServiceRecord) error {
	args := m.Called(records)
	return args.Error(0)
}

// newTestService wires a locator service to a fresh mock store and a real
// metrics collector on an isolated registry.
func newTestService(t *testing.T) (*Service, *mockDataStore) {
	t.Helper()

	ds := &mockDataStore{}
	locatorMetrics, err := metrics.NewLocatorMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return NewService(ds, locatorMetrics), ds
}

func ptr[T any](v T) *T { return &v }

// establishmentAt builds a registry entry with coordinates offset north of
// the test origin by step hundredths of a degree.
func establishmentAt(cnes, step int) *datastore.GeneralInfo {
	return &datastore.GeneralInfo{
		CNES:      cnes,
		Name:      ptr(fmt.Sprintf("UNIDADE %d", cnes)),
		Kind:      ptr("POLICLINICA"),
		Address:   ptr("RUA DAS FLORES"),
		Number:    ptr("100"),
		District:  ptr("CENTRO"),
		Latitude:  ptr(testOrigin.Lat + float64(step)*0.01),
		Longitude: ptr(testOrigin.Lon),
	}
}

func notFoundErr(cnes int) error {
	return errors.Newf("establishment %d not found", cnes).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Build()
}

var testOrigin = geo.Coordinate{Lat: -23.5503099, Lon: -46.6342009}

func TestResolveNearestUnitsOrdersByDistanceAndTruncates(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)

	// 25 offerings stored farthest first, so the result depends on sorting.
	records := make([]datastore.ServiceRecord, 0, 25)
	for i := 1; i <= 25; i++ {
		records = append(records, datastore.ServiceRecord{CNES: i, Service: 121, Classification: 1})
		ds.On("GetEstablishment", i).Return(establishmentAt(i, 26-i), nil)
	}
	ds.On("SearchServiceRecords", 121, 1).Return(records, nil)

	units, err := svc.ResolveNearestUnits(context.Background(), 121, 1, testOrigin)
	require.NoError(t, err)
	require.Len(t, units, 20)

	assert.Equal(t, 25, units[0].CNES, "nearest establishment should come first")
	assert.Equal(t, 6, units[19].CNES, "truncation should drop the five farthest")
	for i := 0; i < len(units)-1; i++ {
		assert.LessOrEqual(t, units[i].Distance, units[i+1].Distance)
	}
}

func TestResolveNearestUnitsSkipsMissingEstablishment(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)

	ds.On("SearchServiceRecords", 121, 1).Return([]datastore.ServiceRecord{
		{CNES: 1, Service: 121, Classification: 1},
		{CNES: 2, Service: 121, Classification: 1},
		{CNES: 3, Service: 121, Classification: 1},
	}, nil)
	ds.On("GetEstablishment", 1).Return(establishmentAt(1, 1), nil)
	ds.On("GetEstablishment", 2).Return(nil, notFoundErr(2))
	ds.On("GetEstablishment", 3).Return(establishmentAt(3, 3), nil)

	units, err := svc.ResolveNearestUnits(context.Background(), 121, 1, testOrigin)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, 1, units[0].CNES)
	assert.Equal(t, 3, units[1].CNES)
}

func TestResolveNearestUnitsSkipsMissingCoordinates(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)

	noCoords := establishmentAt(2, 2)
	noCoords.Latitude = nil
	noCoords.Longitude = nil

	ds.On("SearchServiceRecords", 121, 1).Return([]datastore.ServiceRecord{
		{CNES: 1, Service: 121, Classification: 1},
		{CNES: 2, Service: 121, Classification: 1},
	}, nil)
	ds.On("GetEstablishment", 1).Return(establishmentAt(1, 1), nil)
	ds.On("GetEstablishment", 2).Return(noCoords, nil)

	units, err := svc.ResolveNearestUnits(context.Background(), 121, 1, testOrigin)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, 1, units[0].CNES)
}

func TestResolveNearestUnitsEmptyResult(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)
	ds.On("SearchServiceRecords", 999, 9).Return([]datastore.ServiceRecord{}, nil)

	units, err := svc.ResolveNearestUnits(context.Background(), 999, 9, testOrigin)
	require.NoError(t, err)
	assert.NotNil(t, units, "empty result should marshal as [] not null")
	assert.Empty(t, units)
}

func TestResolveNearestUnitsPreservesDuplicateOfferings(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)

	// The same establishment registered twice for the same pair stays twice.
	ds.On("SearchServiceRecords", 121, 1).Return([]datastore.ServiceRecord{
		{CNES: 7, Service: 121, Classification: 1},
		{CNES: 7, Service: 121, Classification: 1},
	}, nil)
	ds.On("GetEstablishment", 7).Return(establishmentAt(7, 1), nil)

	units, err := svc.ResolveNearestUnits(context.Background(), 121, 1, testOrigin)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, units[0].CNES, units[1].CNES)
}

func TestResolveNearestUnitsSearchError(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)
	ds.On("SearchServiceRecords", 121, 1).Return(nil, fmt.Errorf("disk I/O error"))

	_, err := svc.ResolveNearestUnits(context.Background(), 121, 1, testOrigin)
	require.Error(t, err)

	var enhanced *errors.EnhancedError
	require.ErrorAs(t, err, &enhanced)
	assert.Equal(t, errors.CategoryDatabase, enhanced.Category)
}

func TestResolveNearestUnitsCancelledContext(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)
	ds.On("SearchServiceRecords", 121, 1).Return([]datastore.ServiceRecord{
		{CNES: 1, Service: 121, Classification: 1},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ResolveNearestUnits(ctx, 121, 1, testOrigin)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolveNearestUnitsAddressComposition(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)

	partial := establishmentAt(1, 1)
	partial.Number = nil

	ds.On("SearchServiceRecords", 121, 1).Return([]datastore.ServiceRecord{
		{CNES: 1, Service: 121, Classification: 1},
	}, nil)
	ds.On("GetEstablishment", 1).Return(partial, nil)

	units, err := svc.ResolveNearestUnits(context.Background(), 121, 1, testOrigin)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "RUA DAS FLORES, , CENTRO", units[0].Address)
}

func TestAggregateServicesGroupsByServiceName(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)

	ds.On("GetServiceRecords", 2077485).Return([]datastore.ServiceRecord{
		{CNES: 2077485, Service: 121, Classification: 1},
		{CNES: 2077485, Service: 121, Classification: 2},
		{CNES: 2077485, Service: 145, Classification: 1},
	}, nil)
	ds.On("GetMedicalService", 121, 1).Return(&datastore.MedicalService{
		Code: 121, ClassCode: 1, Service: "CLINICA MEDICA", Classification: "CARDIOLOGIA",
	}, nil)
	ds.On("GetMedicalService", 121, 2).Return(&datastore.MedicalService{
		Code: 121, ClassCode: 2, Service: "CLINICA MEDICA", Classification: "DERMATOLOGIA",
	}, nil)
	ds.On("GetMedicalService", 145, 1).Return(&datastore.MedicalService{
		Code: 145, ClassCode: 1, Service: "DIAGNOSTICO POR IMAGEM", Classification: "RADIOLOGIA",
	}, nil)

	services, err := svc.AggregateServices(context.Background(), 2077485)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, []string{"CARDIOLOGIA", "DERMATOLOGIA"}, services["CLINICA MEDICA"])
	assert.Equal(t, []string{"RADIOLOGIA"}, services["DIAGNOSTICO POR IMAGEM"])
}

func TestAggregateServicesSkipsDanglingCatalogRef(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)

	ds.On("GetServiceRecords", 2077485).Return([]datastore.ServiceRecord{
		{CNES: 2077485, Service: 121, Classification: 1},
		{CNES: 2077485, Service: 999, Classification: 9},
	}, nil)
	ds.On("GetMedicalService", 121, 1).Return(&datastore.MedicalService{
		Code: 121, ClassCode: 1, Service: "CLINICA MEDICA", Classification: "CARDIOLOGIA",
	}, nil)
	ds.On("GetMedicalService", 999, 9).Return(nil, errors.Newf("medical service 999/9 not found").
		Component("datastore").
		Category(errors.CategoryNotFound).
		Build())

	services, err := svc.AggregateServices(context.Background(), 2077485)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, []string{"CARDIOLOGIA"}, services["CLINICA MEDICA"])
}

func TestAggregateServicesEmpty(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)
	ds.On("GetServiceRecords", 123).Return([]datastore.ServiceRecord{}, nil)

	services, err := svc.AggregateServices(context.Background(), 123)
	require.NoError(t, err)
	assert.NotNil(t, services)
	assert.Empty(t, services)
}

func TestListExpertise(t *testing.T) {
	t.Parallel()

	svc, ds := newTestService(t)

	ds.On("GetAllMedicalServices").Return([]datastore.MedicalService{
		{Code: 121, ClassCode: 1, Service: "CLINICA MEDICA", Classification: "CARDIOLOGIA"},
		{Code: 121, ClassCode: 2, Service: "CLINICA MEDICA", Classification: "DERMATOLOGIA"},
	}, nil)

	items, err := svc.ListExpertise(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, [2]int{121, 1}, items[0].ID)
	assert.Equal(t, "CARDIOLOGIA", items[0].Name)
	assert.Equal(t, [2]int{121, 2}, items[1].ID)
	assert.Equal(t, "DERMATOLOGIA", items[1].Name)
}

func TestGetEstablishmentDetails(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		svc, ds := newTestService(t)
		ds.On("GetEstablishment", 2077485).Return(establishmentAt(2077485, 1), nil)

		est, err := svc.GetEstablishmentDetails(context.Background(), 2077485)
		require.NoError(t, err)
		assert.Equal(t, 2077485, est.CNES)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		svc, ds := newTestService(t)
		ds.On("GetEstablishment", 404404).Return(nil, notFoundErr(404404))

		_, err := svc.GetEstablishmentDetails(context.Background(), 404404)
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestUnitItemJSONShape(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(UnitItem{
		CNES:     2077485,
		Name:     "HOSPITAL DAS CLINICAS",
		Address:  "RUA DAS FLORES, 100, CENTRO",
		Kind:     "HOSPITAL GERAL",
		Distance: 3.25,
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"cnes":2077485,"name":"HOSPITAL DAS CLINICAS","address":"RUA DAS FLORES, 100, CENTRO","type":"HOSPITAL GERAL","distance":3.25}`,
		string(data))
}

func TestExpertiseItemJSONShape(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(ExpertiseItem{ID: [2]int{121, 1}, Name: "CARDIOLOGIA"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":[121,1],"name":"CARDIOLOGIA"}`, string(data))
}
