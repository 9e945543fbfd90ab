// Package testutil provides shared test helpers for setting up a note store
// and its index.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/scribe/internal/index"
	"github.com/starford/scribe/internal/indexer"
	"github.com/starford/scribe/internal/storage"
)

// Stack is a note store with a wired index and indexer.
type Stack struct {
	Path    string
	Store   *storage.SQLite
	Index   *index.DB
	Indexer *indexer.Indexer
}

// TestStore creates a temporary SQLite note store that is automatically
// cleaned up.
func TestStore(t *testing.T) (*storage.SQLite, string) {
	t.Helper()
	dbFile, err := os.CreateTemp("", "scribe-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	store, err := storage.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, dbFile.Name()
}

// TestStack creates a temporary store with the index tables and an indexer
// that logs nowhere.
func TestStack(t *testing.T) *Stack {
	t.Helper()
	store, path := TestStore(t)
	idx, err := index.New(store.Conn())
	if err != nil {
		t.Fatal(err)
	}
	ix := indexer.New(store, idx,
		indexer.WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
		indexer.WithWorkers(2),
	)
	return &Stack{Path: path, Store: store, Index: idx, Indexer: ix}
}
