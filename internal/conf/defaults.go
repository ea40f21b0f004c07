// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "susp-backend")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "susp.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", time.Sunday)

	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.autotls", false)
	viper.SetDefault("webserver.host", "")
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "webui.log")
	viper.SetDefault("webserver.log.rotation", RotationDaily)
	viper.SetDefault("webserver.log.maxsize", 1048576)
	viper.SetDefault("webserver.log.rotationday", time.Sunday)

	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.sqlite.path", "susp.db")
	viper.SetDefault("database.mysql.username", "susp")
	viper.SetDefault("database.mysql.password", "susp")
	viper.SetDefault("database.mysql.database", "susp")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")
	viper.SetDefault("database.postgres.username", "postgres")
	viper.SetDefault("database.postgres.password", "")
	viper.SetDefault("database.postgres.database", "postgres")
	viper.SetDefault("database.postgres.host", "localhost")
	viper.SetDefault("database.postgres.port", "5432")
	viper.SetDefault("database.postgres.sslmode", "disable")

	viper.SetDefault("geocoder.provider", "awesomeapi")
	viper.SetDefault("geocoder.timeout", 10*time.Second)

	viper.SetDefault("cnes.baseurl", DefaultCNESBaseURL)
	viper.SetDefault("cnes.timeout", 15*time.Second)
	viper.SetDefault("cnes.cachettl", 24*time.Hour)
	viper.SetDefault("cnes.ratelimit", 5.0)

	viper.SetDefault("ingest.datadir", "data/")
	viper.SetDefault("ingest.elasticnesurl", "")
	viper.SetDefault("ingest.cnesbaseurl", DefaultZIPBaseURL)
	viper.SetDefault("ingest.workers", 4)

	viper.SetDefault("metrics.enabled", true)
}
