package wager

import "errors"

var (
	// ErrInvalidRecord indicates a malformed wager record encoding.
	ErrInvalidRecord = errors.New("wager: invalid record data")

	// ErrRecordNotFound indicates no record exists for the identifier.
	ErrRecordNotFound = errors.New("wager: record not found")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("wager: required parameter is nil")
)
