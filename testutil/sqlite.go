// Package testutil provides test database setup and mock upstream servers.
package testutil

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteSchema mirrors the Postgres schema in the sqlite dialect, including
// the partial unique index that enforces one active relay per channel.
const sqliteSchema = `
CREATE TABLE telegram_sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    phone TEXT UNIQUE NOT NULL,
    session_token TEXT,
    encryption_version INTEGER DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP
);

CREATE TABLE channels (
    channel_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    username TEXT,
    participant_count INTEGER DEFAULT 0,
    is_admin BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP
);

CREATE TABLE live_streams (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    channel_id INTEGER NOT NULL REFERENCES channels(channel_id),
    source_url TEXT NOT NULL,
    title TEXT,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','paused','stopped')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP
);

CREATE INDEX idx_live_streams_channel ON live_streams(channel_id);
CREATE INDEX idx_live_streams_status ON live_streams(status);
CREATE UNIQUE INDEX uniq_live_streams_active ON live_streams(channel_id) WHERE status = 'active';
`

// SetupSQLite creates an in-memory sqlite database with the relay schema.
// The pool is pinned to one connection because every :memory: connection is
// its own database.
func SetupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	database.SetMaxOpenConns(1)
	if _, err := database.Exec(sqliteSchema); err != nil {
		database.Close()
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
