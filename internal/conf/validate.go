// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"strconv"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateWebServerSettings(settings); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateDatabaseSettings(&settings.Database); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateGeocoderSettings(&settings.Geocoder); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateCNESSettings(&settings.CNES); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateIngestSettings(&settings.Ingest); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if len(ve.Errors) > 0 {
		return ve
	}

	return nil
}

func validateWebServerSettings(settings *Settings) error {
	if !settings.WebServer.Enabled {
		return nil
	}
	port, err := strconv.Atoi(settings.WebServer.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid web server port: %s", settings.WebServer.Port)
	}
	if settings.WebServer.AutoTLS && settings.WebServer.Host == "" {
		return fmt.Errorf("autotls requires webserver.host to be set")
	}
	return nil
}

func validateDatabaseSettings(db *DatabaseSettings) error {
	switch db.Type {
	case "sqlite":
		if db.SQLite.Path == "" {
			return fmt.Errorf("sqlite database path must not be empty")
		}
	case "mysql":
		if db.MySQL.Host == "" || db.MySQL.Database == "" || db.MySQL.Username == "" {
			return fmt.Errorf("mysql host, database and username must be set")
		}
		if _, err := strconv.Atoi(db.MySQL.Port); err != nil {
			return fmt.Errorf("invalid mysql port: %s", db.MySQL.Port)
		}
	case "postgres":
		if db.Postgres.Host == "" || db.Postgres.Database == "" || db.Postgres.Username == "" {
			return fmt.Errorf("postgres host, database and username must be set")
		}
		if _, err := strconv.Atoi(db.Postgres.Port); err != nil {
			return fmt.Errorf("invalid postgres port: %s", db.Postgres.Port)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", db.Type)
	}
	return nil
}

func validateGeocoderSettings(g *GeocoderSettings) error {
	switch g.Provider {
	case "awesomeapi", "brasilapi":
	default:
		return fmt.Errorf("unsupported geocoder provider: %s", g.Provider)
	}
	if g.Timeout <= 0 {
		return fmt.Errorf("geocoder timeout must be positive")
	}
	return nil
}

func validateCNESSettings(c *CNESSettings) error {
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid cnes base url: %s", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("cnes timeout must be positive")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("cnes rate limit must be positive")
	}
	return nil
}

func validateIngestSettings(i *IngestSettings) error {
	if i.DataDir == "" {
		return fmt.Errorf("ingest data directory must not be empty")
	}
	if i.Workers < 1 {
		return fmt.Errorf("ingest workers must be at least 1")
	}
	return nil
}
