package stats

import "errors"

var (
	// ErrInvalidPacked indicates a malformed packed stats payload.
	ErrInvalidPacked = errors.New("stats: invalid packed stats data")

	// ErrInconsistent indicates stored wins exceed stored games.
	ErrInconsistent = errors.New("stats: wins exceed games")
)
