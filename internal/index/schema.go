// Package index provides SQLite-backed storage of converted sentences with
// optional FTS5 full-text search over sentence text.
package index

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	sentences  INTEGER NOT NULL DEFAULT 0,
	failed     INTEGER NOT NULL DEFAULT 0,
	run_id     TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sentences (
	file        TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	ordinal     INTEGER NOT NULL,
	sentence_id TEXT NOT NULL,
	text        TEXT NOT NULL DEFAULT '',
	tokens      INTEGER NOT NULL DEFAULT 0,
	units       INTEGER NOT NULL DEFAULT 0,
	graph       TEXT NOT NULL DEFAULT '{}',
	conllu      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (file, ordinal)
);

CREATE TABLE IF NOT EXISTS failures (
	file        TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	ordinal     INTEGER NOT NULL,
	sentence_id TEXT NOT NULL,
	error       TEXT NOT NULL,
	PRIMARY KEY (file, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_sentences_id ON sentences(sentence_id);
CREATE INDEX IF NOT EXISTS idx_failures_id ON failures(sentence_id);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
