// Package token defines contract identities, token transfers and the
// request/response envelopes exchanged between contracts.
package token

import (
	"fmt"
	"strings"

	"github.com/bitfsorg/libforge-go/u128"
)

// IDSize is the wire size of an ID: block(16) + tx(16), little-endian.
const IDSize = 2 * u128.Size

// ID identifies a contract instance (and the token it issues) by the block
// that created it and its sequence within that block space.
type ID struct {
	Block u128.Int
	Tx    u128.Int
}

// NewID builds an ID from small integers.
func NewID(block, tx uint64) ID {
	return ID{Block: u128.From(block), Tx: u128.From(tx)}
}

// IsZero reports whether both fields are zero.
func (id ID) IsZero() bool {
	return id.Block.IsZero() && id.Tx.IsZero()
}

// String renders the ID as "block:tx".
func (id ID) String() string {
	return id.Block.Dec() + ":" + id.Tx.Dec()
}

// KeySuffix renders the ID as "block_tx", the form used in storage keys.
func (id ID) KeySuffix() string {
	return id.Block.Dec() + "_" + id.Tx.Dec()
}

// Bytes encodes the ID as two consecutive 16-byte little-endian fields.
func (id ID) Bytes() []byte {
	buf := make([]byte, IDSize)
	id.Put(buf)
	return buf
}

// Put writes the ID into buf[0:32].
func (id ID) Put(buf []byte) {
	u128.PutLE(buf[0:16], id.Block)
	u128.PutLE(buf[16:32], id.Tx)
}

// DecodeID decodes a 32-byte ID.
func DecodeID(data []byte) (ID, error) {
	if len(data) != IDSize {
		return ID{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidID, IDSize, len(data))
	}
	return ID{Block: u128.LE(data[0:16]), Tx: u128.LE(data[16:32])}, nil
}

// ParseID parses the "block:tx" form.
func ParseID(s string) (ID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	block, err := u128.Parse(strings.TrimSpace(parts[0]))
	if err != nil {
		return ID{}, fmt.Errorf("%w: block: %w", ErrInvalidID, err)
	}
	tx, err := u128.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		return ID{}, fmt.Errorf("%w: tx: %w", ErrInvalidID, err)
	}
	return ID{Block: block, Tx: tx}, nil
}

// Transfer moves Value units of the token issued by ID.
type Transfer struct {
	ID    ID
	Value u128.Int
}

// Parcel is an ordered set of transfers attached to a call or response.
type Parcel []Transfer

// Total returns the checked sum of all transfer values.
func (p Parcel) Total() (u128.Int, error) {
	var total u128.Int
	for _, t := range p {
		sum, err := u128.Add(total, t.Value)
		if err != nil {
			return u128.Int{}, err
		}
		total = sum
	}
	return total, nil
}

// Holds reports whether the parcel carries at least one unit of id.
func (p Parcel) Holds(id ID) bool {
	for _, t := range p {
		if t.ID == id && !t.Value.IsZero() {
			return true
		}
	}
	return false
}

// Cellpack is a call request: the target contract and its input words.
// By convention Inputs[0] is the opcode.
type Cellpack struct {
	Target ID
	Inputs []u128.Int
}

// NewCellpack builds a cellpack from an opcode and argument words.
func NewCellpack(target ID, opcode uint64, args ...u128.Int) Cellpack {
	inputs := make([]u128.Int, 0, len(args)+1)
	inputs = append(inputs, u128.From(opcode))
	inputs = append(inputs, args...)
	return Cellpack{Target: target, Inputs: inputs}
}

// Opcode returns the first input word as an opcode.
func (c Cellpack) Opcode() (uint64, error) {
	if len(c.Inputs) == 0 {
		return 0, ErrNoOpcode
	}
	op := c.Inputs[0]
	if !op.IsUint64() {
		return 0, fmt.Errorf("%w: opcode %s out of range", ErrNoOpcode, op.Dec())
	}
	return op.Uint64(), nil
}

// Args returns the input words after the opcode.
func (c Cellpack) Args() []u128.Int {
	if len(c.Inputs) <= 1 {
		return nil
	}
	return c.Inputs[1:]
}

// CallResponse is what a contract returns: outgoing transfers and opaque data.
type CallResponse struct {
	Transfers Parcel
	Data      []byte
}

// Forward returns a response that hands the incoming parcel back unchanged.
func Forward(incoming Parcel) *CallResponse {
	out := make(Parcel, len(incoming))
	copy(out, incoming)
	return &CallResponse{Transfers: out}
}
