package factory

import "errors"

var (
	// ErrChildNotReturned indicates the template call returned no child token.
	ErrChildNotReturned = errors.New("factory: child token not returned")

	// ErrInvalidDetails indicates a malformed or mismatched details response.
	ErrInvalidDetails = errors.New("factory: invalid child details")

	// ErrInvalidMintRequest indicates initialize inputs that do not decode.
	ErrInvalidMintRequest = errors.New("factory: invalid mint request")

	// ErrNilCaller indicates a nil Caller was supplied.
	ErrNilCaller = errors.New("factory: caller is nil")
)
