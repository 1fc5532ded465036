// Package store provides SQLite persistence for documents, nodes, citation
// aliases, notes and folders, with optional FTS5 paragraph search.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/lectern/internal/apperr"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL DEFAULT '',
	source_type      TEXT NOT NULL,
	source_path      TEXT NOT NULL DEFAULT '',
	checksum         TEXT NOT NULL DEFAULT '',
	structural_count INTEGER NOT NULL DEFAULT 0,
	citable_count    INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_documents_source_path ON documents(source_path);

CREATE TABLE IF NOT EXISTS nodes (
	id             TEXT PRIMARY KEY,
	document_id    TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	kind           TEXT NOT NULL,
	content        TEXT NOT NULL DEFAULT '',
	level          TEXT NOT NULL DEFAULT '',
	number         INTEGER NOT NULL DEFAULT 0,
	display_number TEXT NOT NULL DEFAULT '',
	sort_order     REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_nodes_document ON nodes(document_id, sort_order);

CREATE TABLE IF NOT EXISTS aliases (
	id                 TEXT PRIMARY KEY,
	document_id        TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	prefix             TEXT NOT NULL,
	pattern            TEXT NOT NULL,
	number_extractor   TEXT NOT NULL,
	custom_group_index INTEGER NOT NULL DEFAULT 0,
	display_format     TEXT NOT NULL DEFAULT '',
	priority           INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(document_id, prefix)
);

CREATE TABLE IF NOT EXISTS folders (
	id         TEXT PRIMARY KEY,
	parent_id  TEXT NOT NULL DEFAULT '',
	name       TEXT NOT NULL,
	sort_order REAL NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY,
	folder_id  TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	sort_order REAL NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS citations (
	note_id     TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	document_id TEXT NOT NULL,
	node_id     TEXT NOT NULL DEFAULT '',
	reference   TEXT NOT NULL DEFAULT '',
	start_pos   INTEGER NOT NULL,
	end_pos     INTEGER NOT NULL,
	UNIQUE(note_id, start_pos)
);

CREATE INDEX IF NOT EXISTS idx_citations_target ON citations(document_id, node_id);
`

// DB wraps a sql.DB with lectern-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// mapErr converts driver errors into apperr sentinels.
func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", apperr.ErrAlreadyExists, err)
	}
	return err
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
