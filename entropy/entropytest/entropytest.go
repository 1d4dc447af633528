// Package entropytest pins wager outcomes for tests and simulations.
package entropytest

import "github.com/bitfsorg/libforge-go/entropy"

// MerkleFor builds a merkle value that makes entropy.Derive(txid, m) == target.
func MerkleFor(txid [entropy.HashSize]byte, target uint8) [entropy.HashSize]byte {
	var m [entropy.HashSize]byte
	m[31] = txid[31] ^ target
	m[15] = txid[15]
	return m
}
