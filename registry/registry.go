// Package registry tracks the child tokens a factory has minted, so that
// only genuine children are recognised at redemption.
package registry

import (
	"encoding/binary"
	"fmt"

	"github.com/bitfsorg/libforge-go/storage"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
)

const (
	keyEntry = "/registered_coupons/"
	keyList  = "/registered_coupons_list"
	keyCount = "/registered_coupons_count"

	listHeaderSize = 8 // count(8 LE)
)

// Registry is a set of child identities with insertion order.
type Registry struct {
	store storage.Store
}

// New returns a registry over s.
func New(s storage.Store) *Registry {
	return &Registry{store: s}
}

func (r *Registry) entry(id token.ID) storage.Pointer {
	return storage.At(r.store, keyEntry).SelectString(id.KeySuffix())
}

// Register adds id. Registration is write-once.
func (r *Registry) Register(id token.ID) error {
	registered, err := r.IsRegistered(id)
	if err != nil {
		return err
	}
	if registered {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}

	list, err := storage.At(r.store, keyList).Get()
	if err != nil {
		return fmt.Errorf("registry: read list: %w", err)
	}
	count, err := storage.At(r.store, keyCount).U128()
	if err != nil {
		return fmt.Errorf("registry: read count: %w", err)
	}
	next, err := u128.Add(count, u128.From(1))
	if err != nil {
		return err
	}

	list = append(list, id.Bytes()...)
	return r.store.Apply([]storage.Write{
		r.entry(id).Write([]byte{1}),
		storage.At(r.store, keyList).Write(list),
		storage.At(r.store, keyCount).Write(u128.Bytes(next)),
	})
}

// IsRegistered reports whether id was registered.
func (r *Registry) IsRegistered(id token.ID) (bool, error) {
	ok, err := r.entry(id).Flag()
	if err != nil {
		return false, fmt.Errorf("registry: read entry: %w", err)
	}
	return ok, nil
}

// List returns every registered identity in registration order.
func (r *Registry) List() ([]token.ID, error) {
	raw, err := storage.At(r.store, keyList).Get()
	if err != nil {
		return nil, fmt.Errorf("registry: read list: %w", err)
	}
	if len(raw)%token.IDSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptList, len(raw))
	}
	ids := make([]token.ID, 0, len(raw)/token.IDSize)
	for off := 0; off < len(raw); off += token.IDSize {
		id, err := token.DecodeID(raw[off : off+token.IDSize])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Count returns the number of registered identities.
func (r *Registry) Count() (u128.Int, error) {
	return storage.At(r.store, keyCount).U128()
}

// EncodeList serializes ids as an 8-byte LE count followed by 32-byte IDs.
func EncodeList(ids []token.ID) []byte {
	buf := make([]byte, listHeaderSize+token.IDSize*len(ids))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(len(ids)))
	offset := listHeaderSize
	for _, id := range ids {
		id.Put(buf[offset : offset+token.IDSize])
		offset += token.IDSize
	}
	return buf
}

// DecodeList parses the output of EncodeList.
func DecodeList(data []byte) ([]token.ID, error) {
	if len(data) < listHeaderSize {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidListData, len(data))
	}
	count := binary.LittleEndian.Uint64(data[0:8])
	body := data[listHeaderSize:]
	if count > uint64(len(body)) || uint64(len(body)) != count*token.IDSize {
		return nil, fmt.Errorf("%w: count %d does not match %d bytes", ErrInvalidListData, count, len(body))
	}
	ids := make([]token.ID, 0, count)
	for off := 0; off < len(body); off += token.IDSize {
		id, err := token.DecodeID(body[off : off+token.IDSize])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
