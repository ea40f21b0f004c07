// env.go - Environment variable configuration for susp-backend
package conf

import (
	"fmt"
	"strconv"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation.
// Deployment secrets and per-environment endpoints are the only values
// exposed this way; everything else belongs in config.yaml.
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "SUSP_DEBUG", validateEnvBool},

		{"webserver.port", "SUSP_WEBSERVER_PORT", validateEnvPort},

		{"database.type", "SUSP_DATABASE_TYPE", nil},
		{"database.sqlite.path", "SUSP_SQLITE_PATH", nil},
		{"database.mysql.username", "SUSP_MYSQL_USERNAME", nil},
		{"database.mysql.password", "SUSP_MYSQL_PASSWORD", nil},
		{"database.mysql.database", "SUSP_MYSQL_DATABASE", nil},
		{"database.mysql.host", "SUSP_MYSQL_HOST", nil},
		{"database.mysql.port", "SUSP_MYSQL_PORT", validateEnvPort},
		{"database.postgres.username", "SUSP_POSTGRES_USERNAME", nil},
		{"database.postgres.password", "SUSP_POSTGRES_PASSWORD", nil},
		{"database.postgres.database", "SUSP_POSTGRES_DATABASE", nil},
		{"database.postgres.host", "SUSP_POSTGRES_HOST", nil},
		{"database.postgres.port", "SUSP_POSTGRES_PORT", validateEnvPort},
		{"database.postgres.sslmode", "SUSP_POSTGRES_SSLMODE", nil},

		{"geocoder.provider", "SUSP_GEOCODER_PROVIDER", nil},

		{"cnes.baseurl", "SUSP_CNES_BASEURL", nil},

		{"ingest.datadir", "SUSP_INGEST_DATADIR", nil},
		{"ingest.elasticnesurl", "SUSP_INGEST_ELASTICNES_URL", nil},
	}
}

// bindEnvironmentVariables registers the explicit env bindings with viper.
func bindEnvironmentVariables() error {
	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			return fmt.Errorf("error binding %s to %s: %w", binding.EnvVar, binding.ConfigKey, err)
		}
		if binding.Validate != nil {
			if value := viper.GetString(binding.ConfigKey); value != "" {
				if err := binding.Validate(value); err != nil {
					return fmt.Errorf("invalid value for %s: %w", binding.EnvVar, err)
				}
			}
		}
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("expected boolean, got %q", value)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("expected port number 1-65535, got %q", value)
	}
	return nil
}
