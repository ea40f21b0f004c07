package datastore

import (
	"fmt"

	"github.com/suspsaude/susp-backend/internal/conf"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresStore implements DataStore for PostgreSQL
type PostgresStore struct {
	DataStore
	Settings *conf.Settings
}

func validatePostgresConfig(settings *conf.Settings) error {
	pc := settings.Database.Postgres
	if pc.Host == "" || pc.Port == "" || pc.Database == "" || pc.Username == "" {
		return fmt.Errorf("postgres configuration incomplete: host, port, database and username are required")
	}
	return nil
}

// Open sets up the PostgreSQL database connection
func (store *PostgresStore) Open() error {
	if err := validatePostgresConfig(store.Settings); err != nil {
		return err
	}

	pc := store.Settings.Database.Postgres
	sslMode := pc.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.Username, pc.Password, pc.Database, sslMode)

	newLogger := createGormLogger()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		getLogger().Error("Failed to open PostgreSQL database",
			"host", pc.Host,
			"port", pc.Port,
			"database", pc.Database,
			"error", err)
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "PostgreSQL",
		pc.Host+":"+pc.Port)
}

// Close closes the PostgreSQL database connection
func (store *PostgresStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("getting underlying database handle: %w", err)
	}
	return sqlDB.Close()
}
