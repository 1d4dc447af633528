package u128

import "errors"

var (
	// ErrOverflow indicates a result does not fit in 128 bits.
	ErrOverflow = errors.New("u128: arithmetic overflow")

	// ErrUnderflow indicates a subtraction would go below zero.
	ErrUnderflow = errors.New("u128: arithmetic underflow")

	// ErrDivByZero indicates a division by zero.
	ErrDivByZero = errors.New("u128: division by zero")

	// ErrInvalidLength indicates an encoded value longer than 16 bytes.
	ErrInvalidLength = errors.New("u128: invalid encoded length")

	// ErrInvalidDecimal indicates a malformed decimal string.
	ErrInvalidDecimal = errors.New("u128: invalid decimal string")
)
