package storage

import "errors"

var (
	// ErrNotFound indicates no value exists for the given key.
	ErrNotFound = errors.New("storage: key not found")

	// ErrEmptyKey indicates an attempt to read or write the empty key.
	ErrEmptyKey = errors.New("storage: key is empty")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("storage: required parameter is nil")

	// ErrClosed indicates the overlay was already committed or discarded.
	ErrClosed = errors.New("storage: overlay is closed")
)
