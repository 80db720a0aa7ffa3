// Package discovery fills connection settings from the libpq environment
// and the pgpass file.
package discovery

import (
	"os"
	"strconv"

	"github.com/rebeliceyang/lazycrm/internal/models"
)

// ApplyEnvironment fills the settings cfg leaves empty from the libpq
// environment variables. Values already present in cfg win.
func ApplyEnvironment(cfg models.ConnectionConfig) models.ConnectionConfig {
	if cfg.Host == "" {
		cfg.Host = os.Getenv("PGHOST")
	}
	if cfg.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("PGPORT")); err == nil && p > 0 && p <= 65535 {
			cfg.Port = p
		}
	}
	if cfg.User == "" {
		cfg.User = os.Getenv("PGUSER")
	}
	if cfg.Database == "" {
		cfg.Database = os.Getenv("PGDATABASE")
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = os.Getenv("PGSSLMODE")
	}

	// Set defaults
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.User == "" {
		cfg.User = os.Getenv("USER")
	}
	if cfg.Database == "" {
		cfg.Database = cfg.User
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "prefer"
	}
	return cfg
}

// EnvironmentPassword returns PGPASSWORD
func EnvironmentPassword() string {
	return os.Getenv("PGPASSWORD")
}
