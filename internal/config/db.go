package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const defaultDSN = "snowwatch:snowwatch@tcp(localhost:3306)/snowwatch?parseTime=true"

type DatabaseConfig struct {
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Host     string `envconfig:"DB_HOST"`
	Port     string `envconfig:"DB_PORT"`
	Name     string `envconfig:"DB_NAME"`
	DSN      string `envconfig:"DATABASE_DSN"`
}

// Returns the database connection string
// The DB_* variables win when all are set, then DATABASE_DSN, then the local default
func GetDatabaseDSN() string {
	var cfg DatabaseConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return defaultDSN
	}

	if cfg.User != "" && cfg.Password != "" && cfg.Host != "" && cfg.Port != "" && cfg.Name != "" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	}

	if cfg.DSN != "" {
		return cfg.DSN
	}

	return defaultDSN
}
