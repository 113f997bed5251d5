package database

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// DatabaseURL is either a postgres:// URL or a path to a SQLite file
	// (optionally prefixed with sqlite://). Defaults to a local file so the
	// service runs with zero configuration.
	DatabaseURL  string `envconfig:"DATABASE_URL" default:"data/errors.db"`
	GormLogLevel int    `envconfig:"GORM_LOG_LEVEL" default:"2"` // 1 silent, 2 error, 3 warn, 4 info
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
