package storage

// Store is the key-value substrate contract state lives in. Keys are opaque
// byte strings, conventionally hierarchical paths such as "/coupons/<id>".
// A key that was never written reads as ErrNotFound.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Has reports whether a value exists for key.
	Has(key []byte) (bool, error)

	// Put stores value under key, replacing any previous value.
	Put(key []byte, value []byte) error

	// Apply writes every entry as one atomic unit: either all writes become
	// visible or none do.
	Apply(writes []Write) error
}

// Write is a single pending key-value assignment.
type Write struct {
	Key   []byte
	Value []byte
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
