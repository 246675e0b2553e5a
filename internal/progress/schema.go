// Package progress provides the SQLite-backed progress log: analysis
// entries and the screenshot library index.
package progress

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
	id          TEXT PRIMARY KEY,
	recorded_at DATETIME NOT NULL,
	source      TEXT NOT NULL DEFAULT 'upload',
	ski_iq      TEXT NOT NULL DEFAULT '',
	analysis    TEXT NOT NULL DEFAULT '',
	plan        TEXT NOT NULL DEFAULT '',
	screenshots TEXT NOT NULL DEFAULT '[]',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_entries_recorded ON entries(recorded_at DESC);

CREATE TABLE IF NOT EXISTS screenshots (
	path     TEXT PRIMARY KEY,
	checksum TEXT NOT NULL UNIQUE,
	taken_at DATETIME,
	source   TEXT NOT NULL DEFAULT 'upload',
	added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB wraps a sql.DB with progress-log operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("progress: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("progress: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("progress: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
