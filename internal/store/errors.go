package store

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an append races another writer on the
	// same stream.
	ErrConflict = errors.New("conflict")
)
