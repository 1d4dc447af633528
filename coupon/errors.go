package coupon

import "errors"

var (
	// ErrAlreadyInitialized indicates initialize ran before on this instance.
	ErrAlreadyInitialized = errors.New("coupon: already initialized")

	// ErrNotInitialized indicates a query against an uninitialized instance.
	ErrNotInitialized = errors.New("coupon: not initialized")

	// ErrNoFactory indicates initialize was not called by a contract.
	ErrNoFactory = errors.New("coupon: initialize must come from a factory")

	// ErrUnknownOpcode indicates an unsupported opcode.
	ErrUnknownOpcode = errors.New("coupon: unknown opcode")

	// ErrInvalidState indicates a malformed stored state.
	ErrInvalidState = errors.New("coupon: invalid state data")
)
