package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/errors"
)

// createDatabase initializes a temporary SQLite database for testing.
// The connection is opened immediately and closed via test cleanup.
func createDatabase(t *testing.T) Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Database.Type = "sqlite"
	settings.Database.SQLite.Path = t.TempDir() + "/test.db"

	dataStore := New(settings)
	require.NoError(t, dataStore.Open(), "Failed to open database")

	t.Cleanup(func() {
		assert.NoError(t, dataStore.Close(), "Failed to close datastore")
	})

	return dataStore
}

func ptr[T any](v T) *T { return &v }

func TestNewSelectsDriver(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}

	settings.Database.Type = "sqlite"
	_, ok := New(settings).(*SQLiteStore)
	assert.True(t, ok, "expected SQLite store for type sqlite")

	settings.Database.Type = "mysql"
	_, ok = New(settings).(*MySQLStore)
	assert.True(t, ok, "expected MySQL store for type mysql")

	settings.Database.Type = "postgres"
	_, ok = New(settings).(*PostgresStore)
	assert.True(t, ok, "expected Postgres store for type postgres")

	settings.Database.Type = ""
	_, ok = New(settings).(*SQLiteStore)
	assert.True(t, ok, "expected SQLite store as default")
}

func TestSaveAndGetEstablishment(t *testing.T) {
	ds := createDatabase(t)

	info := GeneralInfo{
		CNES:      2077485,
		Name:      ptr("HOSPITAL DAS CLINICAS"),
		City:      ptr("SAO PAULO"),
		State:     ptr("SP"),
		Kind:      ptr("HOSPITAL GERAL"),
		CEP:       ptr("05403-000"),
		Address:   ptr("RUA DOUTOR OVIDIO PIRES DE CAMPOS"),
		Number:    ptr("225"),
		District:  ptr("CERQUEIRA CESAR"),
		Latitude:  ptr(-23.5558),
		Longitude: ptr(-46.6702),
	}
	require.NoError(t, ds.SaveEstablishments([]GeneralInfo{info}))

	got, err := ds.GetEstablishment(2077485)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2077485, got.CNES)
	require.NotNil(t, got.Name)
	assert.Equal(t, "HOSPITAL DAS CLINICAS", *got.Name)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, -23.5558, *got.Latitude, 1e-9)
	assert.Nil(t, got.Email, "absent attributes stay nil")
}

func TestGetEstablishmentNotFound(t *testing.T) {
	ds := createDatabase(t)

	got, err := ds.GetEstablishment(9999999)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "missing establishment should map to not-found")
}

func TestSaveEstablishmentsUpsert(t *testing.T) {
	ds := createDatabase(t)

	first := GeneralInfo{CNES: 123, Name: ptr("UBS CENTRO")}
	require.NoError(t, ds.SaveEstablishments([]GeneralInfo{first}))

	second := GeneralInfo{CNES: 123, Name: ptr("UBS CENTRO REFORMADA"), City: ptr("CAMPINAS")}
	require.NoError(t, ds.SaveEstablishments([]GeneralInfo{second}))

	got, err := ds.GetEstablishment(123)
	require.NoError(t, err)
	require.NotNil(t, got.Name)
	assert.Equal(t, "UBS CENTRO REFORMADA", *got.Name)
	require.NotNil(t, got.City)
	assert.Equal(t, "CAMPINAS", *got.City)
}

func TestMedicalServiceCatalog(t *testing.T) {
	ds := createDatabase(t)

	catalog := []MedicalService{
		{Code: 121, ClassCode: 1, Service: "SERVICO DE DIAGNOSTICO POR IMAGEM", Classification: "MAMOGRAFIA"},
		{Code: 121, ClassCode: 2, Service: "SERVICO DE DIAGNOSTICO POR IMAGEM", Classification: "RADIOLOGIA"},
		{Code: 145, ClassCode: 1, Service: "SERVICO DE FARMACIA", Classification: "FARMACIA HOSPITALAR"},
	}
	require.NoError(t, ds.SaveMedicalServices(catalog))

	entry, err := ds.GetMedicalService(121, 2)
	require.NoError(t, err)
	assert.Equal(t, "RADIOLOGIA", entry.Classification)

	all, err := ds.GetAllMedicalServices()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 121, all[0].Code, "catalog should come back ordered by code")
	assert.Equal(t, 1, all[0].ClassCode)

	// Re-saving the same catalog must not duplicate entries.
	require.NoError(t, ds.SaveMedicalServices(catalog))
	all, err = ds.GetAllMedicalServices()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetMedicalServiceNotFound(t *testing.T) {
	ds := createDatabase(t)

	entry, err := ds.GetMedicalService(999, 999)
	assert.Nil(t, entry)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestServiceRecordQueries(t *testing.T) {
	ds := createDatabase(t)

	records := []ServiceRecord{
		{CNES: 100, Service: 121, Classification: 1},
		{CNES: 200, Service: 121, Classification: 1},
		{CNES: 200, Service: 121, Classification: 1}, // duplicate offering, kept
		{CNES: 200, Service: 145, Classification: 1},
		{CNES: 300, Service: 121, Classification: 2},
	}
	require.NoError(t, ds.ReplaceServiceRecords(records))

	matches, err := ds.SearchServiceRecords(121, 1)
	require.NoError(t, err)
	assert.Len(t, matches, 3, "duplicates are preserved, classification 2 excluded")

	byUnit, err := ds.GetServiceRecords(200)
	require.NoError(t, err)
	assert.Len(t, byUnit, 3)

	empty, err := ds.SearchServiceRecords(777, 7)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReplaceServiceRecordsSwapsContents(t *testing.T) {
	ds := createDatabase(t)

	require.NoError(t, ds.ReplaceServiceRecords([]ServiceRecord{
		{CNES: 100, Service: 121, Classification: 1},
		{CNES: 100, Service: 145, Classification: 1},
	}))

	require.NoError(t, ds.ReplaceServiceRecords([]ServiceRecord{
		{CNES: 500, Service: 121, Classification: 2},
	}))

	old, err := ds.SearchServiceRecords(121, 1)
	require.NoError(t, err)
	assert.Empty(t, old, "previous run's records should be gone")

	current, err := ds.SearchServiceRecords(121, 2)
	require.NoError(t, err)
	assert.Len(t, current, 1)
	assert.Equal(t, 500, current[0].CNES)
}

func TestSaveEmptyBatches(t *testing.T) {
	ds := createDatabase(t)

	assert.NoError(t, ds.SaveEstablishments(nil))
	assert.NoError(t, ds.SaveMedicalServices(nil))
	assert.NoError(t, ds.ReplaceServiceRecords(nil))
}
