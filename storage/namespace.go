package storage

// Namespaced is a view of a Store that prefixes every key. The host gives
// each contract a namespace so contracts never see each other's keys.
type Namespaced struct {
	base   Store
	prefix []byte
}

// Compile-time interface check.
var _ Store = (*Namespaced)(nil)

// Namespace returns a view of base whose keys are prefixed by prefix.
func Namespace(base Store, prefix string) *Namespaced {
	return &Namespaced{base: base, prefix: []byte(prefix)}
}

func (n *Namespaced) key(k []byte) []byte {
	out := make([]byte, 0, len(n.prefix)+len(k))
	out = append(out, n.prefix...)
	return append(out, k...)
}

// Get reads key within the namespace.
func (n *Namespaced) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return n.base.Get(n.key(key))
}

// Has reports whether key exists within the namespace.
func (n *Namespaced) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	return n.base.Has(n.key(key))
}

// Put writes key within the namespace.
func (n *Namespaced) Put(key []byte, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	return n.base.Put(n.key(key), value)
}

// Apply writes every entry within the namespace atomically.
func (n *Namespaced) Apply(writes []Write) error {
	mapped := make([]Write, len(writes))
	for i, w := range writes {
		if len(w.Key) == 0 {
			return ErrEmptyKey
		}
		mapped[i] = Write{Key: n.key(w.Key), Value: w.Value}
	}
	return n.base.Apply(mapped)
}
