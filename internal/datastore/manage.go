package datastore

import (
	"time"

	"github.com/suspsaude/susp-backend/internal/errors"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow. One second accommodates ingestion batch inserts, which
// routinely take several hundred milliseconds on SQLite.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return NewGormLogger(DefaultSlowQueryThreshold, gormlogger.Warn)
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	migrationStart := time.Now()
	migrationLogger := getLogger().With("db_type", dbType)

	migrationLogger.Debug("Starting database migration")

	if err := db.AutoMigrate(&GeneralInfo{}, &MedicalService{}, &ServiceRecord{}); err != nil {
		return errors.Newf("failed to auto-migrate %s database: %v", dbType, err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}

	if debug {
		migrationLogger.Debug("Database connection initialized",
			"connection", connectionInfo)
	}

	migrationLogger.Debug("Database migration completed successfully",
		"duration_ms", time.Since(migrationStart).Milliseconds())

	return nil
}
