package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/models"
)

const notesSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id         TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	folder     TEXT NOT NULL DEFAULT 'inbox',
	created_at INTEGER NOT NULL DEFAULT (CAST(strftime('%s', 'now') AS INTEGER) * 1000),
	updated_at INTEGER NOT NULL DEFAULT (CAST(strftime('%s', 'now') AS INTEGER) * 1000),
	deleted_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_notes_title   ON notes(title);
CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_notes_deleted ON notes(deleted_at);
`

const noteColumns = `id, title, content, folder, created_at, updated_at, deleted_at`

// maxParams bounds the number of bind variables per IN (...) query.
const maxParams = 500

// SQLite implements NoteStore on a SQLite database. The same connection is
// shared with the link/tag index.
type SQLite struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the notes schema.
// Write transactions start with BEGIN IMMEDIATE so concurrent writers wait on
// the busy timeout instead of failing on lock upgrade.
func Open(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(notesSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply notes schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply fts schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Conn returns the underlying connection pool.
func (s *SQLite) Conn() *sql.DB {
	return s.conn
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(r rowScanner) (*models.Note, error) {
	var (
		n                models.Note
		created, updated int64
		deleted          sql.NullInt64
	)
	if err := r.Scan(&n.ID, &n.Title, &n.Content, &n.Folder, &created, &updated, &deleted); err != nil {
		return nil, err
	}
	n.CreatedAt = time.UnixMilli(created).UTC()
	n.UpdatedAt = time.UnixMilli(updated).UTC()
	if deleted.Valid {
		t := time.UnixMilli(deleted.Int64).UTC()
		n.DeletedAt = &t
	}
	return &n, nil
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// Create inserts a new note.
func (s *SQLite) Create(ctx context.Context, in NewNote) (*models.Note, error) {
	ts := now()
	n := &models.Note{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Folder:    folderOrDefault(in.Folder),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.Insert(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Insert writes n verbatim. Missing ids, folders and timestamps are filled in.
func (s *SQLite) Insert(ctx context.Context, n *models.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Folder = folderOrDefault(n.Folder)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = n.CreatedAt
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO notes (id, title, content, folder, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Title, n.Content, n.Folder, n.CreatedAt.UnixMilli(), n.UpdatedAt.UnixMilli(), nullMillis(n.DeletedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("storage: insert note: %w", err)
	}
	return nil
}

// Update changes the given fields of a live note.
func (s *SQLite) Update(ctx context.Context, id string, upd NoteUpdate) (*models.Note, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	n, err := scanNote(tx.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read note: %w", err)
	}
	if !upd.matches(n) {
		return nil, apperr.ErrConflict
	}
	if upd.Empty() {
		return n, nil
	}

	if upd.Title != nil {
		n.Title = *upd.Title
	}
	if upd.Content != nil {
		n.Content = *upd.Content
	}
	if upd.Folder != nil {
		n.Folder = folderOrDefault(*upd.Folder)
	}
	n.UpdatedAt = now()

	_, err = tx.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, folder = ?, updated_at = ?
		WHERE id = ?
	`, n.Title, n.Content, n.Folder, n.UpdatedAt.UnixMilli(), id)
	if err != nil {
		return nil, fmt.Errorf("storage: update note: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage: commit: %w", err)
	}
	return n, nil
}

// Get returns a live note by id.
func (s *SQLite) Get(ctx context.Context, id string) (*models.Note, error) {
	n, err := scanNote(s.conn.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get note: %w", err)
	}
	return n, nil
}

// GetMany returns the live notes among ids.
func (s *SQLite) GetMany(ctx context.Context, ids []string) ([]models.Note, error) {
	var out []models.Note
	for _, chunk := range chunks(dedupe(ids), maxParams) {
		rows, err := s.conn.QueryContext(ctx,
			`SELECT `+noteColumns+` FROM notes WHERE deleted_at IS NULL AND id IN (`+placeholders(len(chunk))+`)`,
			toArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("storage: get many: %w", err)
		}
		notes, err := collectNotes(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, notes...)
	}
	return out, nil
}

// List returns notes newest first.
func (s *SQLite) List(ctx context.Context, opts ListOptions) ([]models.Note, error) {
	var (
		where []string
		args  []any
	)
	if !opts.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if opts.Folder != "" {
		where = append(where, "folder = ?")
		args = append(args, opts.Folder)
	}
	query := `SELECT ` + noteColumns + ` FROM notes`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC, id ASC"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list notes: %w", err)
	}
	return collectNotes(rows)
}

// Delete sets the tombstone on a live note.
func (s *SQLite) Delete(ctx context.Context, id string) (*models.Note, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE notes SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now().UnixMilli(), id)
	if err != nil {
		return nil, fmt.Errorf("storage: delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.ErrNotFound
	}
	return s.getAny(ctx, id)
}

// Restore clears the tombstone of a deleted note.
func (s *SQLite) Restore(ctx context.Context, id string) (*models.Note, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE notes SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL`, now().UnixMilli(), id)
	if err != nil {
		return nil, fmt.Errorf("storage: restore note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.Get(ctx, id); err == nil {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.ErrNotFound
	}
	return s.getAny(ctx, id)
}

func (s *SQLite) getAny(ctx context.Context, id string) (*models.Note, error) {
	n, err := scanNote(s.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get note: %w", err)
	}
	return n, nil
}

// ResolveTitles maps titles to live note ids, oldest note first on ties.
func (s *SQLite) ResolveTitles(ctx context.Context, titles []string) (map[string]string, error) {
	out := make(map[string]string, len(titles))
	for _, chunk := range chunks(dedupe(titles), maxParams) {
		rows, err := s.conn.QueryContext(ctx, `
			SELECT id, title FROM notes
			WHERE deleted_at IS NULL AND title IN (`+placeholders(len(chunk))+`)
			ORDER BY created_at ASC, id ASC
		`, toArgs(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("storage: resolve titles: %w", err)
		}
		for rows.Next() {
			var id, title string
			if err := rows.Scan(&id, &title); err != nil {
				rows.Close()
				return nil, err
			}
			if _, ok := out[title]; !ok {
				out[title] = id
			}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func collectNotes(rows *sql.Rows) ([]models.Note, error) {
	defer rows.Close()
	var out []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ss []string) []any {
	args := make([]any, len(ss))
	for i, s := range ss {
		args[i] = s
	}
	return args
}

func dedupe(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func chunks(ss []string, size int) [][]string {
	var out [][]string
	for len(ss) > size {
		out = append(out, ss[:size])
		ss = ss[size:]
	}
	if len(ss) > 0 {
		out = append(out, ss)
	}
	return out
}
