package storage

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/libforge-go/u128"
)

// Pointer addresses one key in a Store and offers typed accessors.
// Absent keys read as empty: nil bytes, zero integers and false flags.
type Pointer struct {
	store Store
	key   []byte
}

// At returns a pointer to keyword in s.
func At(s Store, keyword string) Pointer {
	return Pointer{store: s, key: []byte(keyword)}
}

// Key returns the full key the pointer addresses.
func (p Pointer) Key() []byte { return cloneBytes(p.key) }

// Select returns a pointer whose key is this key with suffix appended.
func (p Pointer) Select(suffix []byte) Pointer {
	k := make([]byte, 0, len(p.key)+len(suffix))
	k = append(k, p.key...)
	return Pointer{store: p.store, key: append(k, suffix...)}
}

// SelectString is Select with a string suffix.
func (p Pointer) SelectString(suffix string) Pointer {
	return p.Select([]byte(suffix))
}

// Get returns the stored bytes, or nil when the key is absent.
func (p Pointer) Get() ([]byte, error) {
	v, err := p.store.Get(p.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// Set stores value.
func (p Pointer) Set(value []byte) error {
	return p.store.Put(p.key, value)
}

// Write returns the pending assignment of value to this key, for batching
// through Store.Apply.
func (p Pointer) Write(value []byte) Write {
	return Write{Key: p.Key(), Value: value}
}

// Exists reports whether the key holds a value.
func (p Pointer) Exists() (bool, error) {
	return p.store.Has(p.key)
}

// U128 decodes the stored little-endian value. Absent keys read as zero.
func (p Pointer) U128() (u128.Int, error) {
	v, err := p.Get()
	if err != nil {
		return u128.Int{}, err
	}
	out, err := u128.FromBytes(v)
	if err != nil {
		return u128.Int{}, fmt.Errorf("storage: decode %q: %w", p.key, err)
	}
	return out, nil
}

// SetU128 stores x as 16 little-endian bytes.
func (p Pointer) SetU128(x u128.Int) error {
	return p.Set(u128.Bytes(x))
}

// Flag reports whether the first stored byte is 1.
func (p Pointer) Flag() (bool, error) {
	v, err := p.Get()
	if err != nil {
		return false, err
	}
	return len(v) > 0 && v[0] == 1, nil
}

// SetFlag stores the single byte 0x01.
func (p Pointer) SetFlag() error {
	return p.Set([]byte{1})
}
