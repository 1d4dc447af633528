package replay

import "errors"

var (
	// ErrReplayDetected indicates the transaction already performed the operation.
	ErrReplayDetected = errors.New("replay: transaction already processed")
)
