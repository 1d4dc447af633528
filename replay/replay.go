// Package replay records which transactions have already performed a
// state-changing operation.
package replay

import (
	"encoding/hex"
	"fmt"

	"github.com/bitfsorg/libforge-go/storage"
)

// Op names a state-changing operation.
type Op string

const (
	// OpWager uses the bare "/tx-hashes/<txid>" key for compatibility with
	// deployed state.
	OpWager Op = "wager"
	// OpRedeem marks redemption transactions.
	OpRedeem Op = "redeem"
)

const keyPrefix = "/tx-hashes/"

// Guard is a test-and-set over (operation, txid) pairs.
type Guard struct {
	store storage.Store
}

// New returns a guard over s.
func New(s storage.Store) *Guard {
	return &Guard{store: s}
}

func (g *Guard) pointer(op Op, txid []byte) storage.Pointer {
	p := storage.At(g.store, keyPrefix)
	if op != OpWager {
		p = p.SelectString(string(op) + "/")
	}
	return p.Select(txid)
}

// Seen reports whether txid already performed op.
func (g *Guard) Seen(op Op, txid []byte) (bool, error) {
	return g.pointer(op, txid).Flag()
}

// Check fails with ErrReplayDetected if txid already performed op.
func (g *Guard) Check(op Op, txid []byte) error {
	seen, err := g.Seen(op, txid)
	if err != nil {
		return fmt.Errorf("replay: read marker: %w", err)
	}
	if seen {
		return fmt.Errorf("%w: %s %s", ErrReplayDetected, op, hex.EncodeToString(txid))
	}
	return nil
}

// Mark records that txid performed op. Callers mark only after the
// operation succeeded, inside the same atomic write set.
func (g *Guard) Mark(op Op, txid []byte) error {
	return g.pointer(op, txid).SetFlag()
}
