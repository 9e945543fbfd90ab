//go:build !sqlite_fts5

package storage

import (
	"context"
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the notes table.
	return nil
}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (s *SQLite) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, title, substr(content, 1, 200)
		FROM notes
		WHERE deleted_at IS NULL AND (title LIKE ? OR content LIKE ?)
		ORDER BY updated_at DESC
		LIMIT ?
	`, like, like, limit)
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
