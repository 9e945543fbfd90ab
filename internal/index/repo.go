package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/parser"
)

// IndexNote replaces links, tags and state of e.NoteID within one transaction.
func (db *DB) IndexNote(ctx context.Context, e Entry) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireLive(ctx, tx, e.NoteID); err != nil {
			return err
		}
		if err := replaceLinks(ctx, tx, e.NoteID, e.Links); err != nil {
			return err
		}
		if err := replaceTags(ctx, tx, e.NoteID, e.Tags); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO index_state (note_id, title, checksum) VALUES (?, ?, ?)
			ON CONFLICT(note_id) DO UPDATE SET
				title    = excluded.title,
				checksum = excluded.checksum
		`, e.NoteID, e.Title, e.Checksum)
		if err != nil {
			return fmt.Errorf("index: set state: %w", err)
		}
		return nil
	})
}

// ReplaceLinksForNote deletes the note's outgoing edges and re-inserts them.
func (db *DB) ReplaceLinksForNote(ctx context.Context, noteID string, links []parser.WikiLink) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireLive(ctx, tx, noteID); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, noteID, links)
	})
}

// ReplaceTagsForNote deletes the note's tag edges and re-inserts them,
// creating tag rows on first use.
func (db *DB) ReplaceTagsForNote(ctx context.Context, noteID string, tags []string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireLive(ctx, tx, noteID); err != nil {
			return err
		}
		return replaceTags(ctx, tx, noteID, tags)
	})
}

// RemoveNote drops everything scoped to noteID. Incoming edges are kept;
// reconcile the note's title afterwards to re-point them.
func (db *DB) RemoveNote(ctx context.Context, noteID string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM links WHERE source_note_id = ?`,
			`DELETE FROM note_tags WHERE note_id = ?`,
			`DELETE FROM index_state WHERE note_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, noteID); err != nil {
				return fmt.Errorf("index: remove note: %w", err)
			}
		}
		return nil
	})
}

// ReconcileTitles re-resolves every edge pointing at one of titles.
func (db *DB) ReconcileTitles(ctx context.Context, titles ...string) error {
	titles = nonEmpty(titles)
	if len(titles) == 0 {
		return nil
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for len(titles) > 0 {
			n := min(len(titles), maxParams)
			args := make([]any, n)
			for i, t := range titles[:n] {
				args[i] = t
			}
			_, err := tx.ExecContext(ctx,
				`UPDATE links SET target_note_id = `+fmt.Sprintf(resolveSQL, "links.target_title")+
					` WHERE target_title IN (`+placeholders(n)+`)`, args...)
			if err != nil {
				return fmt.Errorf("index: reconcile titles: %w", err)
			}
			titles = titles[n:]
		}
		return nil
	})
}

func requireLive(ctx context.Context, tx *sql.Tx, noteID string) error {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM notes WHERE id = ? AND deleted_at IS NULL`, noteID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("index: note %s: %w", noteID, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("index: check note: %w", err)
	}
	return nil
}

func replaceLinks(ctx context.Context, tx *sql.Tx, noteID string, links []parser.WikiLink) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE source_note_id = ?`, noteID); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	edges := buildEdges(noteID, links)
	if len(edges) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO links (source_note_id, target_title, target_note_id, occurrences)
		VALUES (?, ?, `+fmt.Sprintf(resolveSQL, "?")+`, ?)
	`)
	if err != nil {
		return fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.SourceNoteID, e.TargetTitle, e.TargetTitle, e.Occurrences); err != nil {
			return fmt.Errorf("index: insert link: %w", err)
		}
	}
	return nil
}

func replaceTags(ctx context.Context, tx *sql.Tx, noteID string, tags []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("index: delete note tags: %w", err)
	}
	for _, name := range normalizeTags(tags) {
		tagID, err := getOrCreateTag(ctx, tx, name)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO note_tags (note_id, tag_id) VALUES (?, ?)`, noteID, tagID); err != nil {
			return fmt.Errorf("index: insert note tag: %w", err)
		}
	}
	return nil
}

func getOrCreateTag(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)
	`, uuid.NewString(), name, TagColor(name), time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("index: create tag: %w", err)
	}
	var id string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id); err != nil {
		return "", fmt.Errorf("index: read tag: %w", err)
	}
	return id, nil
}

// maxParams bounds the number of bind variables per IN (...) list.
const maxParams = 500

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nonEmpty(ss []string) []string {
	out := ss[:0:0]
	seen := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
