// Package datastore handles database operations for the establishment
// registry, the specialized-service catalog and the records linking the two.
package datastore

import (
	"fmt"

	"github.com/suspsaude/susp-backend/internal/conf"
	"github.com/suspsaude/susp-backend/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// saveBatchSize bounds the number of rows per INSERT during ingestion runs.
// SQLite trips over its variable limit well before MySQL or Postgres do, so
// the batch is sized for the smallest common denominator.
const saveBatchSize = 200

// Interface defines the required methods for the database operations the
// query and ingestion paths rely on.
type Interface interface {
	Open() error
	Close() error
	GetEstablishment(cnes int) (*GeneralInfo, error)
	SearchServiceRecords(service, classification int) ([]ServiceRecord, error)
	GetServiceRecords(cnes int) ([]ServiceRecord, error)
	GetMedicalService(service, classification int) (*MedicalService, error)
	GetAllMedicalServices() ([]MedicalService, error)
	SaveEstablishments(infos []GeneralInfo) error
	SaveMedicalServices(services []MedicalService) error
	ReplaceServiceRecords(records []ServiceRecord) error
}

// DataStore implements StoreInterface using a GORM database connection.
type DataStore struct {
	DB *gorm.DB
}

// New creates a new datastore instance based on the configured database type.
func New(settings *conf.Settings) Interface {
	switch settings.Database.Type {
	case "mysql":
		return &MySQLStore{Settings: settings}
	case "postgres":
		return &PostgresStore{Settings: settings}
	default:
		return &SQLiteStore{Settings: settings}
	}
}

// GetEstablishment retrieves the registry entry for one establishment by its
// CNES code.
func (ds *DataStore) GetEstablishment(cnes int) (*GeneralInfo, error) {
	var info GeneralInfo
	if err := ds.DB.First(&info, "cnes = ?", cnes).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("establishment %d not found", cnes).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Context("cnes", cnes).
				Build()
		}
		return nil, fmt.Errorf("getting establishment %d: %w", cnes, err)
	}
	return &info, nil
}

// SearchServiceRecords returns every record offering the given service and
// classification pair. Both codes are matched exactly. Duplicate offerings
// are returned as stored, one row each.
func (ds *DataStore) SearchServiceRecords(service, classification int) ([]ServiceRecord, error) {
	var records []ServiceRecord
	err := ds.DB.Where("service = ? AND classification = ?", service, classification).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("searching service records for %d/%d: %w", service, classification, err)
	}
	return records, nil
}

// GetServiceRecords returns every service record registered for one
// establishment.
func (ds *DataStore) GetServiceRecords(cnes int) ([]ServiceRecord, error) {
	var records []ServiceRecord
	if err := ds.DB.Where("cnes = ?", cnes).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("getting service records for establishment %d: %w", cnes, err)
	}
	return records, nil
}

// GetMedicalService retrieves one catalog entry by its composite code.
func (ds *DataStore) GetMedicalService(service, classification int) (*MedicalService, error) {
	var entry MedicalService
	err := ds.DB.First(&entry, "code = ? AND class_code = ?", service, classification).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("medical service %d/%d not found", service, classification).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Context("service", service).
				Context("classification", classification).
				Build()
		}
		return nil, fmt.Errorf("getting medical service %d/%d: %w", service, classification, err)
	}
	return &entry, nil
}

// GetAllMedicalServices returns the full service catalog ordered by code so
// repeated listings are stable.
func (ds *DataStore) GetAllMedicalServices() ([]MedicalService, error) {
	var entries []MedicalService
	if err := ds.DB.Order("code, class_code").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("getting medical services: %w", err)
	}
	return entries, nil
}

// SaveEstablishments upserts a batch of establishment entries keyed by CNES.
// Re-running an ingestion over the same dataset overwrites rather than
// duplicates.
func (ds *DataStore) SaveEstablishments(infos []GeneralInfo) error {
	if len(infos) == 0 {
		return nil
	}
	err := ds.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cnes"}},
		UpdateAll: true,
	}).CreateInBatches(infos, saveBatchSize).Error
	if err != nil {
		return fmt.Errorf("saving %d establishments: %w", len(infos), err)
	}
	return nil
}

// SaveMedicalServices upserts catalog entries keyed by (code, class_code).
func (ds *DataStore) SaveMedicalServices(services []MedicalService) error {
	if len(services) == 0 {
		return nil
	}
	err := ds.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}, {Name: "class_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"service", "classification",
		}),
	}).CreateInBatches(services, saveBatchSize).Error
	if err != nil {
		return fmt.Errorf("saving %d medical services: %w", len(services), err)
	}
	return nil
}

// ReplaceServiceRecords swaps the full set of offering records for the given
// batch. The previous contents are dropped inside the same transaction so a
// failed ingestion never leaves the table half empty.
func (ds *DataStore) ReplaceServiceRecords(records []ServiceRecord) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&ServiceRecord{}).Error; err != nil {
			return fmt.Errorf("clearing service records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, saveBatchSize).Error; err != nil {
			return fmt.Errorf("saving %d service records: %w", len(records), err)
		}
		return nil
	})
}
