package token

import "errors"

var (
	// ErrInvalidID indicates a malformed contract identity.
	ErrInvalidID = errors.New("token: invalid id")

	// ErrNoOpcode indicates a cellpack without a usable opcode word.
	ErrNoOpcode = errors.New("token: missing opcode")
)
