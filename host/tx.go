package host

import (
	"fmt"

	"github.com/bitfsorg/libforge-go/anchor"
	"github.com/bitfsorg/libforge-go/entropy"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// Tx is the block and transaction context of one top-level invocation.
type Tx struct {
	ID     chainhash.Hash
	Merkle chainhash.Hash
	Height uint64
	// Sender is the account the invocation acts for. A zero sender can
	// neither send nor receive tokens.
	Sender token.ID
}

// NewTx builds a context from known values.
func NewTx(txid, merkle chainhash.Hash, height uint64) *Tx {
	return &Tx{ID: txid, Merkle: merkle, Height: height}
}

// NewTxContext parses rawTx and derives its context at height. The block
// carries no merkle root here, so the merkle value is derived from height
// and txid.
func NewTxContext(rawTx []byte, height uint64) (*Tx, error) {
	txid, err := parseTxID(rawTx)
	if err != nil {
		return nil, err
	}
	return &Tx{
		ID:     txid,
		Merkle: chainhash.Hash(entropy.MerkleValue(height, txid)),
		Height: height,
	}, nil
}

// NewAnchoredTx parses rawTx and checks that proof places it in the block
// of header. The context takes the block's merkle root and height.
func NewAnchoredTx(rawTx []byte, header *anchor.Header, proof anchor.Proof) (*Tx, error) {
	if header == nil {
		return nil, fmt.Errorf("%w: header", ErrNilParam)
	}
	txid, err := parseTxID(rawTx)
	if err != nil {
		return nil, err
	}
	if err := anchor.CheckPoW(header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}
	if err := anchor.Verify(txid, proof, header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}
	return NewTx(txid, header.MerkleRoot, header.Height), nil
}

func parseTxID(rawTx []byte) (chainhash.Hash, error) {
	tx, err := transaction.NewTransactionFromBytes(rawTx)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}
	txid := tx.TxID()
	if txid == nil {
		return chainhash.Hash{}, fmt.Errorf("%w: no txid", ErrInvalidTx)
	}
	return *txid, nil
}

// BaseEntropy returns the base entropy byte of the transaction.
func (t *Tx) BaseEntropy() uint8 {
	return entropy.Derive(t.ID, t.Merkle)
}
