// Package config loads process configuration.
//
// Values are layered, lowest precedence first: built-in defaults, an optional
// YAML file named by TODOLIST_CONFIG, then TODOLIST_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	AppName    = "todolist"
	AppVersion = "1.0.0"
)

// Store drivers understood by DBDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Addr      string `koanf:"addr"`
	LogLevel  string `koanf:"log_level"`
	DBDriver  string `koanf:"db_driver"`
	DBPath    string `koanf:"db_path"`
	DBDSN     string `koanf:"db_dsn"`
	DataDir   string `koanf:"data_dir"`
	StaticDir string `koanf:"static_dir"`

	// NodeID seeds the snowflake generator (0-1023). Must differ per instance
	// sharing a database.
	NodeID int64 `koanf:"node_id"`

	// Retention is how long soft-deleted entries stay visible to delta polls.
	Retention     time.Duration `koanf:"retention"`
	PurgeInterval time.Duration `koanf:"purge_interval"`

	ChannelTokenTTL time.Duration `koanf:"channel_token_ttl"`

	// RateLimitQPS of 0 disables request throttling.
	RateLimitQPS int `koanf:"rate_limit_qps"`
	// MaxConnections of 0 leaves the listener unbounded.
	MaxConnections int `koanf:"max_connections"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Addr:            ":8080",
		LogLevel:        "info",
		DBDriver:        DriverSQLite,
		DataDir:         "./data",
		StaticDir:       detectStaticDir(),
		NodeID:          1,
		Retention:       24 * time.Hour,
		PurgeInterval:   time.Hour,
		ChannelTokenTTL: 2 * time.Minute,
	}
}

func detectStaticDir() string {
	candidates := []string{
		"./static",
		"../static",
	}
	for _, candidate := range candidates {
		indexPath := filepath.Join(candidate, "todolist.html")
		if info, err := os.Stat(indexPath); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return "./static"
}
