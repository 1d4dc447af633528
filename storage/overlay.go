package storage

import "sync"

// Overlay buffers writes on top of a base Store. Reads see pending writes
// first. Commit flushes the buffer into the base with a single Apply;
// Discard drops it. Overlays nest: an Overlay is itself a Store, so a child
// overlay commits into its parent's buffer rather than the durable base.
type Overlay struct {
	mu      sync.Mutex
	base    Store
	pending map[string][]byte
	order   []string
	closed  bool
}

// Compile-time interface check.
var _ Store = (*Overlay)(nil)

// NewOverlay starts a write buffer over base.
func NewOverlay(base Store) *Overlay {
	return &Overlay{base: base, pending: make(map[string][]byte)}
}

// Get returns the pending value for key, falling back to the base.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	v, ok := o.pending[string(key)]
	o.mu.Unlock()
	if ok {
		return cloneBytes(v), nil
	}
	return o.base.Get(key)
}

// Has reports whether key exists in the buffer or the base.
func (o *Overlay) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false, ErrClosed
	}
	_, ok := o.pending[string(key)]
	o.mu.Unlock()
	if ok {
		return true, nil
	}
	return o.base.Has(key)
}

// Put buffers a write.
func (o *Overlay) Put(key []byte, value []byte) error {
	return o.Apply([]Write{{Key: key, Value: value}})
}

// Apply buffers every write.
func (o *Overlay) Apply(writes []Write) error {
	for _, w := range writes {
		if len(w.Key) == 0 {
			return ErrEmptyKey
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	for _, w := range writes {
		k := string(w.Key)
		if _, seen := o.pending[k]; !seen {
			o.order = append(o.order, k)
		}
		v := cloneBytes(w.Value)
		if v == nil {
			v = []byte{}
		}
		o.pending[k] = v
	}
	return nil
}

// Len returns the number of distinct buffered keys.
func (o *Overlay) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.order)
}

// Commit flushes buffered writes into the base in first-write order and
// closes the overlay.
func (o *Overlay) Commit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	writes := make([]Write, 0, len(o.order))
	for _, k := range o.order {
		writes = append(writes, Write{Key: []byte(k), Value: o.pending[k]})
	}
	if err := o.base.Apply(writes); err != nil {
		return err
	}
	o.closed = true
	o.pending = nil
	o.order = nil
	return nil
}

// Discard drops every buffered write and closes the overlay.
func (o *Overlay) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.pending = nil
	o.order = nil
}
