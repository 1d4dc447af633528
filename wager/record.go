// Package wager stores the per-wager audit records and the index from
// minted children back to the wager that produced them.
package wager

import (
	"encoding/binary"
	"fmt"

	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
)

// RecordSize is the encoded length of a Record:
// id(16) + stake_block(16) + stake_tx(16) + txid(32) + merkle(32) +
// base(1) + bonus(1) + final(1) + stake_amount(16) + height(4) + winner(1).
const RecordSize = 136

// Record is the immutable audit entry of one wager.
type Record struct {
	ID          u128.Int
	StakeToken  token.ID
	TxID        [32]byte
	Merkle      [32]byte
	Base        uint8
	Bonus       uint8
	Final       uint8
	StakeAmount u128.Int
	Height      uint32
	Winner      bool
}

// Serialize encodes the record to its fixed binary form.
func Serialize(r *Record) []byte {
	buf := make([]byte, RecordSize)
	u128.PutLE(buf[0:16], r.ID)
	r.StakeToken.Put(buf[16:48])
	copy(buf[48:80], r.TxID[:])
	copy(buf[80:112], r.Merkle[:])
	buf[112] = r.Base
	buf[113] = r.Bonus
	buf[114] = r.Final
	u128.PutLE(buf[115:131], r.StakeAmount)
	binary.LittleEndian.PutUint32(buf[131:135], r.Height)
	if r.Winner {
		buf[135] = 1
	}
	return buf
}

// Deserialize decodes a record.
func Deserialize(data []byte) (*Record, error) {
	if len(data) != RecordSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidRecord, RecordSize, len(data))
	}
	if data[135] > 1 {
		return nil, fmt.Errorf("%w: winner flag %d", ErrInvalidRecord, data[135])
	}
	stake, err := token.DecodeID(data[16:48])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	r := &Record{
		ID:          u128.LE(data[0:16]),
		StakeToken:  stake,
		Base:        data[112],
		Bonus:       data[113],
		Final:       data[114],
		StakeAmount: u128.LE(data[115:131]),
		Height:      binary.LittleEndian.Uint32(data[131:135]),
		Winner:      data[135] == 1,
	}
	copy(r.TxID[:], data[48:80])
	copy(r.Merkle[:], data[80:112])
	return r, nil
}
