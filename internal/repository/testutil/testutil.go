// Package testutil provides database fixtures for repository tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"todolist/backend/internal/db"
	"todolist/backend/internal/model"
	"todolist/backend/internal/snowflake"
)

const timeLayout = "2006-01-02T15:04:05.000000Z"

// NewTestDB opens a migrated SQLite database in a temp dir, closed on cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return database
}

// NewTestGormDB opens a GORM handle on a temp SQLite file. The caller migrates.
func NewTestGormDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "gorm.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return gdb
}

// SeedEntry inserts e verbatim and returns its id. Zero timestamps become now
// and a zero ID gets a fresh snowflake.
func SeedEntry(t *testing.T, database *sql.DB, e model.Entry) int64 {
	t.Helper()

	if e.ID == 0 {
		e.ID = snowflake.NextID()
	}
	ts := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = ts
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	var notes any
	if e.Notes != nil {
		notes = *e.Notes
	}

	_, err := database.Exec(
		`INSERT INTO entries (id, title, notes, complete, deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Title,
		notes,
		boolToInt(e.Complete),
		boolToInt(e.Deleted),
		e.CreatedAt.UTC().Format(timeLayout),
		e.UpdatedAt.UTC().Format(timeLayout),
	)
	require.NoError(t, err)

	return e.ID
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
