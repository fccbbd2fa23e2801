package repository

import "errors"

var (
	// ErrDuplicate is returned when a write hits a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned by writes that match no row.
	ErrNotFound = errors.New("record not found")
)
