package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
    id           INTEGER PRIMARY KEY CHECK(id = 1),
    access_token TEXT NOT NULL,
    email        TEXT NOT NULL,
    nickname     TEXT,
    social_type  TEXT,
    roles        TEXT,
    updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS selected_location (
    id          INTEGER PRIMARY KEY CHECK(id = 1),
    location_id INTEGER,
    address     TEXT NOT NULL,
    lat         REAL NOT NULL,
    lng         REAL NOT NULL,
    selected_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS checkout_attempts (
    merchant_uid TEXT PRIMARY KEY,
    kind         TEXT NOT NULL CHECK(kind IN ('funding','specialty')),
    target_id    INTEGER NOT NULL,
    target_name  TEXT,
    member_id    TEXT,
    amount       INTEGER NOT NULL CHECK(amount >= 0),
    method       TEXT NOT NULL,
    status       TEXT NOT NULL CHECK(status IN ('started','paid','recorded','unrecorded','failed')),
    imp_uid      TEXT,
    error        TEXT,
    created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
    updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_checkout_attempts_status ON checkout_attempts(status);
CREATE INDEX IF NOT EXISTS idx_checkout_attempts_created_at ON checkout_attempts(created_at DESC);
`

// Open opens or creates the SQLite database and initializes the schema.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The TUI issues writes from command goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}
