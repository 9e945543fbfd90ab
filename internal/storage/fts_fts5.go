//go:build sqlite_fts5

package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// The FTS table is maintained by triggers, so rows written by other
// processes are searchable without going through this package.
func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			note_id UNINDEXED,
			title,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);

		CREATE TRIGGER IF NOT EXISTS notes_ai AFTER INSERT ON notes BEGIN
			INSERT INTO notes_fts (note_id, title, content) VALUES (new.id, new.title, new.content);
		END;

		CREATE TRIGGER IF NOT EXISTS notes_ad AFTER DELETE ON notes BEGIN
			DELETE FROM notes_fts WHERE note_id = old.id;
		END;

		CREATE TRIGGER IF NOT EXISTS notes_au AFTER UPDATE OF title, content ON notes BEGIN
			DELETE FROM notes_fts WHERE note_id = old.id;
			INSERT INTO notes_fts (note_id, title, content) VALUES (new.id, new.title, new.content);
		END;
	`)
	return err
}

// Search performs an FTS5 full-text search and returns matching live notes with snippets.
func (s *SQLite) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT notes.id,
		       notes.title,
		       snippet(notes_fts, 2, '<b>', '</b>', '...', 64)
		FROM notes_fts
		JOIN notes ON notes.id = notes_fts.note_id
		WHERE notes_fts MATCH ? AND notes.deleted_at IS NULL
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
