package anchor

import "errors"

var (
	// ErrInvalidHeader indicates a header that is not 80 bytes or has an unusable target.
	ErrInvalidHeader = errors.New("anchor: invalid header")

	// ErrInsufficientPoW indicates the header hash does not meet its target.
	ErrInsufficientPoW = errors.New("anchor: insufficient proof of work")

	// ErrMerkleProofInvalid indicates the branch does not lead to the header's merkle root.
	ErrMerkleProofInvalid = errors.New("anchor: merkle proof invalid")

	// ErrIndexOutOfRange indicates a branch was requested for a missing leaf.
	ErrIndexOutOfRange = errors.New("anchor: leaf index out of range")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("anchor: required parameter is nil")
)
