package db

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		client TEXT NOT NULL DEFAULT '',
		skills TEXT NOT NULL DEFAULT '[]',
		tasks TEXT NOT NULL DEFAULT '',
		start_ms INTEGER NOT NULL,
		end_ms INTEGER NOT NULL,
		pause_ms INTEGER NOT NULL DEFAULT 0,
		acknowledged_break INTEGER NOT NULL DEFAULT 0,
		seq INTEGER
	)`,
	// Singleton slot for the active session; key is always 'active'.
	`CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		ts INTEGER NOT NULL,
		action TEXT NOT NULL,
		entry_id TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audits_ts ON audits(ts)`,
}

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
