package storage

import "sync"

// MemStore is an in-memory Store, used by tests and ephemeral runtimes.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

// Get returns the value stored under key.
func (s *MemStore) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(v), nil
}

// Has reports whether key exists.
func (s *MemStore) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[string(key)]
	return ok, nil
}

// Put stores value under key.
func (s *MemStore) Put(key []byte, value []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key)] = cloneBytes(value)
	return nil
}

// Apply writes all entries under a single lock.
func (s *MemStore) Apply(writes []Write) error {
	for _, w := range writes {
		if len(w.Key) == 0 {
			return ErrEmptyKey
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range writes {
		s.data[string(w.Key)] = cloneBytes(w.Value)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
