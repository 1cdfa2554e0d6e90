package store

import "errors"

// Storage errors shared by every DataStore implementation.
var (
	// ErrNotFound is returned when a record does not exist for the given owner.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a unique key already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConflict is returned when a conditional write finds the record in an
	// unexpected state, e.g. closing a trade that is no longer running.
	ErrConflict = errors.New("conditional write conflict")
)
