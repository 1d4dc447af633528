package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketKV = []byte("kv")

// BoltStore persists contract state in a single bbolt bucket.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist. Opening fails
// after a second if another process holds the file lock.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("storage: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("storage: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketKV); err != nil {
			return fmt.Errorf("storage: create bucket %q: %w", bucketKV, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// Get returns a copy of the value stored under key.
func (s *BoltStore) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketKV).Get(key)
		if v == nil {
			return ErrNotFound
		}
		out = cloneBytes(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Has reports whether key exists.
func (s *BoltStore) Has(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(bucketKV).Get(key) != nil
		return nil
	})
	return found, err
}

// Put stores value under key.
func (s *BoltStore) Put(key []byte, value []byte) error {
	return s.Apply([]Write{{Key: key, Value: value}})
}

// Apply writes every entry inside one bbolt transaction.
func (s *BoltStore) Apply(writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKV)
		for _, w := range writes {
			if len(w.Key) == 0 {
				return ErrEmptyKey
			}
			// bbolt treats a nil value as a valid empty value only when non-nil.
			v := w.Value
			if v == nil {
				v = []byte{}
			}
			if err := b.Put(w.Key, v); err != nil {
				return fmt.Errorf("boltstore: put %q: %w", w.Key, err)
			}
		}
		return nil
	})
}
