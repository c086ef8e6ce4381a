package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"todolist/backend/internal/config"
)

var configEnvVars = []string{
	"TODOLIST_CONFIG",
	"TODOLIST_ADDR",
	"TODOLIST_LOG_LEVEL",
	"TODOLIST_DB_DRIVER",
	"TODOLIST_DB_PATH",
	"TODOLIST_DB_DSN",
	"TODOLIST_DATA_DIR",
	"TODOLIST_NODE_ID",
	"TODOLIST_RETENTION",
	"TODOLIST_PURGE_INTERVAL",
	"TODOLIST_RATE_LIMIT_QPS",
}

func clearConfigEnvVars() {
	for _, key := range configEnvVars {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load()

			convey.Convey("Then the defaults are used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.DBPath, convey.ShouldEqual, filepath.Join("data", "todolist.db"))
				convey.So(cfg.Retention, convey.ShouldEqual, 24*time.Hour)
				convey.So(cfg.PurgeInterval, convey.ShouldEqual, time.Hour)
				convey.So(cfg.NodeID, convey.ShouldEqual, int64(1))
			})
		})

		convey.Convey("When environment variables are set", func() {
			_ = os.Setenv("TODOLIST_ADDR", ":9999")
			_ = os.Setenv("TODOLIST_DATA_DIR", "/tmp/todo")
			_ = os.Setenv("TODOLIST_RETENTION", "2h")
			_ = os.Setenv("TODOLIST_RATE_LIMIT_QPS", "25")

			cfg, err := config.Load()

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9999")
				convey.So(cfg.DBPath, convey.ShouldEqual, filepath.Join("/tmp/todo", "todolist.db"))
				convey.So(cfg.Retention, convey.ShouldEqual, 2*time.Hour)
				convey.So(cfg.RateLimitQPS, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When a YAML file is provided", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "todolist.yaml")
			yml := "addr: \":7000\"\nlog_level: debug\npurge_interval: 10m\n"
			convey.So(os.WriteFile(path, []byte(yml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("TODOLIST_CONFIG", path)
			_ = os.Setenv("TODOLIST_LOG_LEVEL", "warn")

			cfg, err := config.Load()

			convey.Convey("Then file values apply and env wins over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.PurgeInterval, convey.ShouldEqual, 10*time.Minute)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("TODOLIST_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load()

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When postgres is selected without a DSN", func() {
			_ = os.Setenv("TODOLIST_DB_DRIVER", "postgres")

			_, err := config.Load()

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.Default()

		convey.Convey("It validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("An unknown driver is rejected", func() {
			cfg.DBDriver = "mysql"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("An out of range node id is rejected", func() {
			cfg.NodeID = 2048
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("A zero retention is rejected", func() {
			cfg.Retention = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
