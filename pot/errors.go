package pot

import "errors"

var (
	// ErrNotRegistered indicates the claimed child was never minted by this factory.
	ErrNotRegistered = errors.New("pot: child not registered")

	// ErrAlreadyRedeemed indicates the child was already redeemed.
	ErrAlreadyRedeemed = errors.New("pot: child already redeemed")

	// ErrNotAWinner indicates the child records a losing outcome.
	ErrNotAWinner = errors.New("pot: child is not a winner")

	// ErrNotYetMatured indicates the redemption height precedes maturity.
	ErrNotYetMatured = errors.New("pot: child not yet matured")

	// ErrOwnershipNotProven indicates the caller did not present the child token.
	ErrOwnershipNotProven = errors.New("pot: ownership not proven")

	// ErrEmptyPot indicates the window has no winning stake or too little left to pay.
	ErrEmptyPot = errors.New("pot: pot is empty")

	// ErrInvalidWindow indicates a zero window or a maturity shorter than the window.
	ErrInvalidWindow = errors.New("pot: invalid settlement window")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("pot: required parameter is nil")
)
