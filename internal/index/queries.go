package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/scribe/internal/models"
)

// Backlinks returns the distinct source notes linking to noteID.
func (db *DB) Backlinks(ctx context.Context, noteID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT source_note_id FROM links WHERE target_note_id = ? ORDER BY source_note_id`, noteID)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	return scanStrings(rows)
}

// OutgoingLinks returns the edges of noteID ordered by target title.
func (db *DB) OutgoingLinks(ctx context.Context, noteID string) ([]models.LinkEdge, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT source_note_id, target_title, COALESCE(target_note_id, ''), occurrences
		FROM links WHERE source_note_id = ?
		ORDER BY target_title
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("index: outgoing links: %w", err)
	}
	return scanEdges(rows)
}

// NoteTags returns the tags of noteID ordered by name.
func (db *DB) NoteTags(ctx context.Context, noteID string) ([]models.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.created_at
		FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
		WHERE nt.note_id = ?
		ORDER BY t.name
	`, noteID)
	if err != nil {
		return nil, fmt.Errorf("index: note tags: %w", err)
	}
	return scanTags(rows)
}

// NotesByTag returns the notes carrying name.
func (db *DB) NotesByTag(ctx context.Context, name string) ([]string, error) {
	return db.NotesByTags(ctx, []string{name}, false)
}

// NotesByTags returns the notes carrying all (matchAll) or any of names.
func (db *DB) NotesByTags(ctx context.Context, names []string, matchAll bool) ([]string, error) {
	names = normalizeTags(names)
	if len(names) == 0 {
		return nil, nil
	}
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	query := `
		SELECT nt.note_id
		FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
		WHERE t.name IN (` + placeholders(len(names)) + `)
		GROUP BY nt.note_id`
	if matchAll {
		query += ` HAVING COUNT(DISTINCT t.id) = ?`
		args = append(args, len(names))
	}
	query += ` ORDER BY nt.note_id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: notes by tags: %w", err)
	}
	return scanStrings(rows)
}

// ListTags returns every tag in use with its note count.
func (db *DB) ListTags(ctx context.Context) ([]models.TagCount, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.created_at, COUNT(nt.note_id)
		FROM tags t JOIN note_tags nt ON nt.tag_id = t.id
		GROUP BY t.id
		ORDER BY t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list tags: %w", err)
	}
	defer rows.Close()

	var out []models.TagCount
	for rows.Next() {
		var (
			tc      models.TagCount
			created int64
		)
		if err := rows.Scan(&tc.ID, &tc.Name, &tc.Color, &created, &tc.NoteCount); err != nil {
			return nil, err
		}
		tc.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, tc)
	}
	return out, rows.Err()
}

// State returns the recorded state of noteID.
func (db *DB) State(ctx context.Context, noteID string) (State, bool, error) {
	st := State{NoteID: noteID}
	err := db.conn.QueryRowContext(ctx,
		`SELECT title, checksum FROM index_state WHERE note_id = ?`, noteID).Scan(&st.Title, &st.Checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("index: state: %w", err)
	}
	return st, true, nil
}

// States returns the recorded state of every indexed note.
func (db *DB) States(ctx context.Context) (map[string]State, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT note_id, title, checksum FROM index_state`)
	if err != nil {
		return nil, fmt.Errorf("index: states: %w", err)
	}
	defer rows.Close()
	out := make(map[string]State)
	for rows.Next() {
		var st State
		if err := rows.Scan(&st.NoteID, &st.Title, &st.Checksum); err != nil {
			return nil, err
		}
		out[st.NoteID] = st
	}
	return out, rows.Err()
}

// Snapshot reads every edge and tag row.
func (db *DB) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot

	rows, err := db.conn.QueryContext(ctx, `
		SELECT source_note_id, target_title, COALESCE(target_note_id, ''), occurrences
		FROM links ORDER BY source_note_id, target_title
	`)
	if err != nil {
		return nil, fmt.Errorf("index: snapshot links: %w", err)
	}
	if snap.Links, err = scanEdges(rows); err != nil {
		return nil, err
	}

	rows, err = db.conn.QueryContext(ctx, `SELECT id, name, color, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("index: snapshot tags: %w", err)
	}
	if snap.Tags, err = scanTags(rows); err != nil {
		return nil, err
	}

	rows, err = db.conn.QueryContext(ctx, `
		SELECT nt.note_id, t.name
		FROM note_tags nt JOIN tags t ON t.id = nt.tag_id
		ORDER BY nt.note_id, t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("index: snapshot note tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e models.TagEdge
		if err := rows.Scan(&e.NoteID, &e.TagName); err != nil {
			return nil, err
		}
		snap.NoteTags = append(snap.NoteTags, e)
	}
	return &snap, rows.Err()
}

// Stats returns row counts of the index.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM index_state),
			(SELECT COUNT(*) FROM links),
			(SELECT COUNT(*) FROM links WHERE target_note_id IS NULL),
			(SELECT COUNT(DISTINCT tag_id) FROM note_tags),
			(SELECT COUNT(*) FROM note_tags)
	`).Scan(&st.IndexedNotes, &st.Links, &st.DanglingLinks, &st.Tags, &st.NoteTags)
	if err != nil {
		return Stats{}, fmt.Errorf("index: stats: %w", err)
	}
	return st, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanEdges(rows *sql.Rows) ([]models.LinkEdge, error) {
	defer rows.Close()
	var out []models.LinkEdge
	for rows.Next() {
		var e models.LinkEdge
		if err := rows.Scan(&e.SourceNoteID, &e.TargetTitle, &e.TargetNoteID, &e.Occurrences); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanTags(rows *sql.Rows) ([]models.Tag, error) {
	defer rows.Close()
	var out []models.Tag
	for rows.Next() {
		var (
			t       models.Tag
			created int64
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &created); err != nil {
			return nil, err
		}
		t.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}
