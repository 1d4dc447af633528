package registry

import "errors"

var (
	// ErrAlreadyRegistered indicates the child identity is already registered.
	ErrAlreadyRegistered = errors.New("registry: child already registered")

	// ErrInvalidListData indicates a malformed enumeration payload.
	ErrInvalidListData = errors.New("registry: invalid list data")

	// ErrCorruptList indicates the stored list length is not a multiple of the ID size.
	ErrCorruptList = errors.New("registry: stored list is corrupt")
)
