// Package anchor ties a transaction to the block that confirmed it: block
// header decoding, proof-of-work checks and merkle inclusion branches.
package anchor

import (
	"encoding/binary"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/holiman/uint256"
)

// HeaderSize is the size of a serialized block header.
const HeaderSize = 80

// Header is a block header plus the height it was mined at. Hashes are in
// internal byte order.
type Header struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
	// Height is not part of the wire form.
	Height uint64
}

// Bytes returns the 80-byte wire form:
// version(4) | prev(32) | merkle(32) | timestamp(4) | bits(4) | nonce(4).
func (h *Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Version))
	copy(buf[4:36], h.PrevBlock[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	return buf
}

// ParseHeader decodes a wire header mined at height.
func ParseHeader(data []byte, height uint64) (*Header, error) {
	if len(data) != HeaderSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHeader, HeaderSize, len(data))
	}
	h := &Header{
		Version:   int32(binary.LittleEndian.Uint32(data[0:4])),
		Timestamp: binary.LittleEndian.Uint32(data[68:72]),
		Bits:      binary.LittleEndian.Uint32(data[72:76]),
		Nonce:     binary.LittleEndian.Uint32(data[76:80]),
		Height:    height,
	}
	copy(h.PrevBlock[:], data[4:36])
	copy(h.MerkleRoot[:], data[36:68])
	return h, nil
}

// Hash returns the block hash.
func (h *Header) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(h.Bytes())
}

// Target expands compact bits into the 256-bit target. Negative or
// overflowing encodings are rejected.
func Target(bits uint32) (*uint256.Int, error) {
	exponent := bits >> 24
	mantissa := uint64(bits & 0x007fffff)
	if bits&0x00800000 != 0 {
		return nil, fmt.Errorf("%w: negative target %08x", ErrInvalidHeader, bits)
	}
	if exponent <= 3 {
		return uint256.NewInt(mantissa >> (8 * (3 - exponent))), nil
	}
	if exponent > 32 {
		return nil, fmt.Errorf("%w: target overflow %08x", ErrInvalidHeader, bits)
	}
	return new(uint256.Int).Lsh(uint256.NewInt(mantissa), uint(8*(exponent-3))), nil
}

// CheckPoW verifies that the block hash, read as a little-endian integer,
// does not exceed the header's target.
func CheckPoW(h *Header) error {
	if h == nil {
		return fmt.Errorf("%w: header", ErrNilParam)
	}
	target, err := Target(h.Bits)
	if err != nil {
		return err
	}
	if target.IsZero() {
		return fmt.Errorf("%w: zero target", ErrInvalidHeader)
	}
	hash := h.Hash()
	var be [32]byte
	for i := range hash {
		be[31-i] = hash[i]
	}
	if new(uint256.Int).SetBytes32(be[:]).Gt(target) {
		return fmt.Errorf("%w: %s", ErrInsufficientPoW, hash)
	}
	return nil
}
