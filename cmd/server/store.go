package main

import (
	"database/sql"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"todolist/backend/internal/config"
	"todolist/backend/internal/db"
	"todolist/backend/internal/repository"
)

type store struct {
	entries repository.EntryRepository
	db      *sql.DB
}

func (s store) Close() error {
	return s.db.Close()
}

// openStore opens the configured backend and brings its schema up to date.
func openStore(cfg config.Config) (store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		gdb, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return store{}, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return store{}, fmt.Errorf("postgres handle: %w", err)
		}
		if err := repository.MigrateGorm(gdb); err != nil {
			_ = sqlDB.Close()
			return store{}, fmt.Errorf("migrate postgres: %w", err)
		}
		return store{entries: repository.NewGormEntryRepository(gdb), db: sqlDB}, nil

	default:
		sqlDB, err := db.Open(cfg.DBPath)
		if err != nil {
			return store{}, fmt.Errorf("open sqlite: %w", err)
		}
		return store{entries: repository.NewEntryRepository(sqlDB), db: sqlDB}, nil
	}
}
