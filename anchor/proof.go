package anchor

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// Proof is a merkle branch: the leaf index and the sibling hashes from the
// leaf up to the root.
type Proof struct {
	Index uint32
	Nodes []chainhash.Hash
}

func combine(left, right chainhash.Hash) chainhash.Hash {
	var buf [2 * chainhash.HashSize]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.DoubleHashH(buf[:])
}

// Root folds the branch over txid. Bit i of Index selects whether the
// running hash is the right-hand child at level i.
func (p Proof) Root(txid chainhash.Hash) chainhash.Hash {
	hash := txid
	for i, node := range p.Nodes {
		if (p.Index>>uint(i))&1 == 0 {
			hash = combine(hash, node)
		} else {
			hash = combine(node, hash)
		}
	}
	return hash
}

// Verify checks that txid is included in the block described by h.
func Verify(txid chainhash.Hash, p Proof, h *Header) error {
	if h == nil {
		return fmt.Errorf("%w: header", ErrNilParam)
	}
	if len(p.Nodes) < 32 && p.Index>>uint(len(p.Nodes)) != 0 {
		return fmt.Errorf("%w: index %d deeper than %d nodes", ErrMerkleProofInvalid, p.Index, len(p.Nodes))
	}
	if root := p.Root(txid); !root.IsEqual(&h.MerkleRoot) {
		return fmt.Errorf("%w: computed %s, header has %s", ErrMerkleProofInvalid, root, h.MerkleRoot)
	}
	return nil
}

// Branch builds the merkle root of txids and the proof for the leaf at
// index. Odd levels duplicate their last hash.
func Branch(txids []chainhash.Hash, index uint32) (Proof, chainhash.Hash, error) {
	if int(index) >= len(txids) {
		return Proof{}, chainhash.Hash{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(txids))
	}
	level := append([]chainhash.Hash(nil), txids...)
	proof := Proof{Index: index}
	pos := int(index)
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		proof.Nodes = append(proof.Nodes, level[pos^1])
		next := make([]chainhash.Hash, len(level)/2)
		for i := range next {
			next[i] = combine(level[2*i], level[2*i+1])
		}
		level = next
		pos /= 2
	}
	return proof, level[0], nil
}
