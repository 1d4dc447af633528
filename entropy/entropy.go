// Package entropy derives the pseudo-random base byte of a wager from
// transaction and block data.
package entropy

import (
	"crypto/sha256"
	"encoding/binary"
)

// HashSize is the length of a transaction id or merkle value.
const HashSize = 32

// Derive returns the base entropy byte for a transaction:
// (txid[31] ^ merkle[31]) + (txid[15] ^ merkle[15]), wrapping at 256.
func Derive(txid, merkle [HashSize]byte) uint8 {
	hi := txid[31] ^ merkle[31]
	lo := txid[15] ^ merkle[15]
	return hi + lo
}

// MerkleValue is the stand-in merkle value used when the block context
// carries no merkle root: SHA256(height as 8 LE bytes || txid).
func MerkleValue(height uint64, txid [HashSize]byte) [HashSize]byte {
	buf := make([]byte, 8+HashSize)
	binary.LittleEndian.PutUint64(buf[0:8], height)
	copy(buf[8:], txid[:])
	return sha256.Sum256(buf)
}
