// Package apperr holds the sentinel errors shared across Scribe packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	// ErrIndexStale means the note was saved but its index rows could not be
	// written. The next reindex repairs it.
	ErrIndexStale = errors.New("index stale")
)
