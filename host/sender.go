package host

import (
	"bytes"
	"fmt"

	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"
)

// pkhSize is the length of a P2PKH public key hash.
const pkhSize = 20

// Account returns the holder id of the P2PKH key hash pkh. The id keeps
// the first 16 bytes of the hash.
func Account(pkh []byte) (token.ID, error) {
	if len(pkh) != pkhSize {
		return token.ID{}, fmt.Errorf("%w: key hash of %d bytes", ErrInvalidAccount, len(pkh))
	}
	return token.ID{Block: u128.From(AccountBlock), Tx: u128.LE(pkh[:u128.Size])}, nil
}

// AddressAccount returns the holder id of a P2PKH address.
func AddressAccount(address string) (token.ID, error) {
	addr, err := script.NewAddressFromString(address)
	if err != nil {
		return token.ID{}, fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}
	return Account(addr.PublicKeyHash)
}

// IsAccount reports whether id names an account rather than a contract.
func IsAccount(id token.ID) bool {
	return id.Block == u128.From(AccountBlock)
}

// SenderOf returns the account that signed input 0 of rawTx. source is the
// output that input spends and must pay to a P2PKH script. The unlocking
// script must be <sig> <pubkey>, the key must hash to the script's key hash
// and the signature must cover the transaction under SIGHASH_ALL|FORKID.
func SenderOf(rawTx []byte, source *transaction.TransactionOutput) (token.ID, error) {
	if source == nil || source.LockingScript == nil {
		return token.ID{}, fmt.Errorf("%w: source output", ErrNilParam)
	}
	tx, err := transaction.NewTransactionFromBytes(rawTx)
	if err != nil {
		return token.ID{}, fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}
	if len(tx.Inputs) == 0 {
		return token.ID{}, fmt.Errorf("%w: no inputs", ErrInvalidSignature)
	}
	in := tx.Inputs[0]
	if in.UnlockingScript == nil {
		return token.ID{}, fmt.Errorf("%w: input 0 is unsigned", ErrInvalidSignature)
	}
	chunks, err := in.UnlockingScript.Chunks()
	if err != nil {
		return token.ID{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	// P2PKH unlocking script: <sig> <pubkey>
	if len(chunks) != 2 || len(chunks[0].Data) < 2 || len(chunks[1].Data) == 0 {
		return token.ID{}, fmt.Errorf("%w: input 0 is not a P2PKH spend", ErrInvalidSignature)
	}
	sigBytes, pubBytes := chunks[0].Data, chunks[1].Data

	if !source.LockingScript.IsP2PKH() {
		return token.ID{}, fmt.Errorf("%w: source output is not P2PKH", ErrInvalidSignature)
	}
	pkh, err := source.LockingScript.PublicKeyHash()
	if err != nil {
		return token.ID{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if !bytes.Equal(pkh, bsvhash.Hash160(pubBytes)) {
		return token.ID{}, fmt.Errorf("%w: key does not match source output", ErrInvalidSignature)
	}

	flag := sighash.Flag(sigBytes[len(sigBytes)-1])
	if flag != sighash.AllForkID {
		return token.ID{}, fmt.Errorf("%w: sighash flag 0x%02x", ErrInvalidSignature, byte(flag))
	}
	sig, err := ec.ParseDERSignature(sigBytes[:len(sigBytes)-1])
	if err != nil {
		return token.ID{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	pub, err := ec.PublicKeyFromBytes(pubBytes)
	if err != nil {
		return token.ID{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	in.SetSourceTxOutput(source)
	digest, err := tx.CalcInputSignatureHash(0, sighash.AllForkID)
	if err != nil {
		return token.ID{}, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	if !sig.Verify(digest, pub) {
		return token.ID{}, fmt.Errorf("%w: signature does not verify", ErrInvalidSignature)
	}
	return Account(pkh)
}
