package bonus

import "errors"

var (
	// ErrZeroIncrement indicates a schedule whose increment is zero.
	ErrZeroIncrement = errors.New("bonus: increment must be positive")

	// ErrZeroMultiplier indicates a per-unit calculator whose multiplier is zero.
	ErrZeroMultiplier = errors.New("bonus: multiplier must be positive")

	// ErrUnknownKind indicates a calculator kind that is neither schedule nor per-unit.
	ErrUnknownKind = errors.New("bonus: unknown calculator kind")
)
