package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "TODOLIST_"
	envFileKey = "TODOLIST_CONFIG"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Load builds a Config by layering defaults, the optional YAML file and env vars.
func Load() (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path := os.Getenv(envFileKey); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %v", ErrLoadConfig, path, err)
		}
	}

	// TODOLIST_DB_PATH -> db_path; "." is the key delimiter so underscores survive.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "todolist.db")
	}
	cfg.DBPath = filepath.Clean(cfg.DBPath)
	cfg.DataDir = filepath.Clean(cfg.DataDir)
	if cfg.StaticDir != "" {
		cfg.StaticDir = filepath.Clean(cfg.StaticDir)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres:
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	case c.DBDriver == DriverPostgres && c.DBDSN == "":
		return fmt.Errorf("%w: db_dsn is required for postgres", ErrInvalidConfig)
	case c.NodeID < 0 || c.NodeID > 1023:
		return fmt.Errorf("%w: node_id must be within 0-1023", ErrInvalidConfig)
	case c.Retention <= 0:
		return fmt.Errorf("%w: retention must be positive", ErrInvalidConfig)
	case c.PurgeInterval <= 0:
		return fmt.Errorf("%w: purge_interval must be positive", ErrInvalidConfig)
	case c.ChannelTokenTTL <= 0:
		return fmt.Errorf("%w: channel_token_ttl must be positive", ErrInvalidConfig)
	case c.RateLimitQPS < 0:
		return fmt.Errorf("%w: rate_limit_qps must not be negative", ErrInvalidConfig)
	case c.MaxConnections < 0:
		return fmt.Errorf("%w: max_connections must not be negative", ErrInvalidConfig)
	}
	return nil
}
