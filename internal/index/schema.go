package index

import (
	"context"
	"database/sql"
	"fmt"
)

// The index lives in the same database as the notes table and resolves link
// targets against it inside each write transaction.
const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS links (
	source_note_id TEXT    NOT NULL,
	target_title   TEXT    NOT NULL,
	target_note_id TEXT,
	occurrences    INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (source_note_id, target_title)
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_links_target_id    ON links(target_note_id);
CREATE INDEX IF NOT EXISTS idx_links_target_title ON links(target_title);

CREATE TABLE IF NOT EXISTS tags (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE COLLATE NOCASE,
	color      TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id TEXT NOT NULL,
	tag_id  TEXT NOT NULL,
	PRIMARY KEY (note_id, tag_id)
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag_id);

CREATE TABLE IF NOT EXISTS index_state (
	note_id  TEXT PRIMARY KEY,
	title    TEXT NOT NULL,
	checksum TEXT NOT NULL
);
`

// resolveSQL picks the live note a title resolves to; the oldest wins.
const resolveSQL = `(SELECT n.id FROM notes n WHERE n.title = %s AND n.deleted_at IS NULL ORDER BY n.created_at ASC, n.id ASC LIMIT 1)`

// DB is the SQLite-backed index.
type DB struct {
	conn *sql.DB
}

// New applies the index schema to conn. conn must already carry the notes
// table (see storage.Open); the connection stays owned by the caller.
func New(conn *sql.DB) (*DB, error) {
	var name string
	err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'notes'`).Scan(&name)
	if err != nil {
		return nil, fmt.Errorf("index: notes table missing: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: commit: %w", err)
	}
	return nil
}
