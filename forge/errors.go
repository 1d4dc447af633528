package forge

import (
	"errors"

	"github.com/bitfsorg/libforge-go/replay"
)

var (
	// ErrReplayDetected indicates the transaction already performed the operation.
	ErrReplayDetected = replay.ErrReplayDetected

	// ErrInvalidStake indicates an empty, foreign, zero-valued or too small stake.
	ErrInvalidStake = errors.New("forge: invalid stake")

	// ErrNotInitialized indicates an operation before initialize.
	ErrNotInitialized = errors.New("forge: not initialized")

	// ErrAlreadyInitialized indicates a second initialize.
	ErrAlreadyInitialized = errors.New("forge: already initialized")

	// ErrUnknownOpcode indicates an unsupported opcode.
	ErrUnknownOpcode = errors.New("forge: unknown opcode")

	// ErrInvalidArguments indicates missing or out-of-range call arguments.
	ErrInvalidArguments = errors.New("forge: invalid arguments")

	// ErrInvalidParams indicates an unusable configuration.
	ErrInvalidParams = errors.New("forge: invalid parameters")
)
