package wager

import (
	"fmt"

	"github.com/bitfsorg/libforge-go/storage"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
)

const (
	keySequence   = "/coupon_count"
	keyRecord     = "/coupons/"
	keyChildSfx   = "/child"
	keyChildIndex = "/child_wagers/"
)

// Store persists wager records, the id sequence and the child index.
type Store struct {
	store storage.Store
}

// NewStore returns a record store over s.
func NewStore(s storage.Store) *Store {
	return &Store{store: s}
}

func (s *Store) record(id u128.Int) storage.Pointer {
	return storage.At(s.store, keyRecord).SelectString(id.Dec())
}

// Latest returns the most recently allocated id; zero means none.
func (s *Store) Latest() (u128.Int, error) {
	return storage.At(s.store, keySequence).U128()
}

// NextID allocates the next identifier. Identifiers start at 1 and the
// increment is checked.
func (s *Store) NextID() (u128.Int, error) {
	cur, err := s.Latest()
	if err != nil {
		return u128.Int{}, fmt.Errorf("wager: read sequence: %w", err)
	}
	next, err := u128.Add(cur, u128.From(1))
	if err != nil {
		return u128.Int{}, fmt.Errorf("wager: sequence: %w", err)
	}
	if err := storage.At(s.store, keySequence).SetU128(next); err != nil {
		return u128.Int{}, err
	}
	return next, nil
}

// Put stores r under its id.
func (s *Store) Put(r *Record) error {
	if r == nil {
		return fmt.Errorf("%w: record", ErrNilParam)
	}
	return s.record(r.ID).Set(Serialize(r))
}

// Get loads the record with id.
func (s *Store) Get(id u128.Int) (*Record, error) {
	raw, err := s.record(id).Get()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id.Dec())
	}
	return Deserialize(raw)
}

// LinkChild records that wager id minted child, in both directions.
func (s *Store) LinkChild(id u128.Int, child token.ID) error {
	return s.store.Apply([]storage.Write{
		s.record(id).SelectString(keyChildSfx).Write(child.Bytes()),
		storage.At(s.store, keyChildIndex).SelectString(child.KeySuffix()).Write(u128.Bytes(id)),
	})
}

// Child returns the child minted by wager id, if any.
func (s *Store) Child(id u128.Int) (token.ID, bool, error) {
	raw, err := s.record(id).SelectString(keyChildSfx).Get()
	if err != nil || raw == nil {
		return token.ID{}, false, err
	}
	child, err := token.DecodeID(raw)
	if err != nil {
		return token.ID{}, false, err
	}
	return child, true, nil
}

// ByChild returns the wager that minted child.
func (s *Store) ByChild(child token.ID) (*Record, error) {
	raw, err := storage.At(s.store, keyChildIndex).SelectString(child.KeySuffix()).Get()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: child %s", ErrRecordNotFound, child)
	}
	id, err := u128.FromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return s.Get(id)
}
