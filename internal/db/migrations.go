package db

import (
	"database/sql"
	"fmt"
)

// Base schema - ids come from the snowflake generator (no AUTOINCREMENT).
// Timestamps are fixed-width UTC text so that lexical order matches time order.
const baseSchema = `
CREATE TABLE IF NOT EXISTS entries (
  id INTEGER PRIMARY KEY,
  title TEXT NOT NULL,
  notes TEXT,
  complete INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_updated_at ON entries(updated_at);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: soft-delete flag for delta polling
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('entries') WHERE name = 'deleted'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check deleted column: %w", err)
	}

	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE entries ADD COLUMN deleted INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("add deleted column: %w", err)
		}
	}

	// Purge sweeps scan by (deleted, updated_at)
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_entries_deleted_updated ON entries(deleted, updated_at)`); err != nil {
		return fmt.Errorf("create idx_entries_deleted_updated: %w", err)
	}

	return nil
}
