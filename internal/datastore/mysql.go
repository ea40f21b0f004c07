package datastore

import (
	"fmt"

	"github.com/suspsaude/susp-backend/internal/conf"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQLStore implements DataStore for MySQL
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

func validateMySQLConfig(settings *conf.Settings) error {
	mc := settings.Database.MySQL
	if mc.Host == "" || mc.Port == "" || mc.Database == "" || mc.Username == "" {
		return fmt.Errorf("mysql configuration incomplete: host, port, database and username are required")
	}
	return nil
}

// Open sets up the MySQL database connection
func (store *MySQLStore) Open() error {
	if err := validateMySQLConfig(store.Settings); err != nil {
		return err
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		store.Settings.Database.MySQL.Username, store.Settings.Database.MySQL.Password,
		store.Settings.Database.MySQL.Host, store.Settings.Database.MySQL.Port,
		store.Settings.Database.MySQL.Database)

	newLogger := createGormLogger()

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		getLogger().Error("Failed to open MySQL database",
			"host", store.Settings.Database.MySQL.Host,
			"port", store.Settings.Database.MySQL.Port,
			"database", store.Settings.Database.MySQL.Database,
			"error", err)
		return fmt.Errorf("failed to open MySQL database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "MySQL",
		store.Settings.Database.MySQL.Host+":"+store.Settings.Database.MySQL.Port)
}

// Close closes the MySQL database connection
func (store *MySQLStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("getting underlying database handle: %w", err)
	}
	return sqlDB.Close()
}
