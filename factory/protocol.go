package factory

import (
	"fmt"

	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
)

// Child opcodes understood by coupon templates.
const (
	OpInitialize    uint64 = 0
	OpCouponID      uint64 = 10
	OpStakeAmount   uint64 = 11
	OpBase          uint64 = 12
	OpBonus         uint64 = 13
	OpFinal         uint64 = 14
	OpCreationBlock uint64 = 15
	OpFactoryID     uint64 = 16
	OpDetails       uint64 = 17
	OpIsWinner      uint64 = 19
)

// mintArgs is the number of input words after the opcode.
const mintArgs = 8

// DetailsSize is the encoded length of a Details response: seven 16-byte words.
const DetailsSize = 7 * u128.Size

// MintRequest carries the outcome a child is initialized with.
type MintRequest struct {
	WagerID u128.Int
	Final   uint8
	Base    uint8
	Bonus   uint8
	Stake   u128.Int
	Winner  bool
	Height  uint64
	// Unique is txid[0]; it differentiates children minted at one height.
	Unique uint8
}

// Inputs returns the initialize argument words in wire order:
// wager id, final, base, bonus, stake, winner, height, unique.
func (r MintRequest) Inputs() []u128.Int {
	winner := uint64(0)
	if r.Winner {
		winner = 1
	}
	return []u128.Int{
		r.WagerID,
		u128.From(uint64(r.Final)),
		u128.From(uint64(r.Base)),
		u128.From(uint64(r.Bonus)),
		r.Stake,
		u128.From(winner),
		u128.From(r.Height),
		u128.From(uint64(r.Unique)),
	}
}

// Cellpack returns the initialize call to template.
func (r MintRequest) Cellpack(template token.ID) token.Cellpack {
	return token.NewCellpack(template, OpInitialize, r.Inputs()...)
}

// ParseMintRequest decodes initialize arguments (the inputs after the opcode).
func ParseMintRequest(args []u128.Int) (MintRequest, error) {
	if len(args) != mintArgs {
		return MintRequest{}, fmt.Errorf("%w: expected %d inputs, got %d", ErrInvalidMintRequest, mintArgs, len(args))
	}
	small := func(i int, limit uint64) (uint64, error) {
		v := args[i]
		if !v.IsUint64() || v.Uint64() > limit {
			return 0, fmt.Errorf("%w: input %d out of range", ErrInvalidMintRequest, i)
		}
		return v.Uint64(), nil
	}
	var vals [mintArgs]uint64
	for _, f := range []struct {
		i     int
		limit uint64
	}{{1, 255}, {2, 255}, {3, 255}, {5, 1}, {6, ^uint64(0)}, {7, 255}} {
		v, err := small(f.i, f.limit)
		if err != nil {
			return MintRequest{}, err
		}
		vals[f.i] = v
	}
	return MintRequest{
		WagerID: args[0],
		Final:   uint8(vals[1]),
		Base:    uint8(vals[2]),
		Bonus:   uint8(vals[3]),
		Stake:   args[4],
		Winner:  vals[5] == 1,
		Height:  vals[6],
		Unique:  uint8(vals[7]),
	}, nil
}

// Details is the full state a child reports about itself.
type Details struct {
	CouponID      u128.Int
	Stake         u128.Int
	Base          uint8
	Bonus         uint8
	Final         uint8
	CreationBlock u128.Int
	Winner        bool
}

// EncodeDetails serializes d as seven 16-byte LE words:
// coupon_id, stake, base, bonus, final, creation_block, winner.
func EncodeDetails(d *Details) []byte {
	winner := uint64(0)
	if d.Winner {
		winner = 1
	}
	words := []u128.Int{
		d.CouponID,
		d.Stake,
		u128.From(uint64(d.Base)),
		u128.From(uint64(d.Bonus)),
		u128.From(uint64(d.Final)),
		d.CreationBlock,
		u128.From(winner),
	}
	buf := make([]byte, DetailsSize)
	for i, w := range words {
		u128.PutLE(buf[i*u128.Size:(i+1)*u128.Size], w)
	}
	return buf
}

// DecodeDetails parses the output of EncodeDetails.
func DecodeDetails(data []byte) (*Details, error) {
	if len(data) != DetailsSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidDetails, DetailsSize, len(data))
	}
	word := func(i int) u128.Int { return u128.LE(data[i*u128.Size : (i+1)*u128.Size]) }
	byteWord := func(i int, name string) (uint8, error) {
		w := word(i)
		if !w.IsUint64() || w.Uint64() > 255 {
			return 0, fmt.Errorf("%w: %s out of range", ErrInvalidDetails, name)
		}
		return uint8(w.Uint64()), nil
	}

	d := &Details{CouponID: word(0), Stake: word(1), CreationBlock: word(5)}
	var err error
	if d.Base, err = byteWord(2, "base"); err != nil {
		return nil, err
	}
	if d.Bonus, err = byteWord(3, "bonus"); err != nil {
		return nil, err
	}
	if d.Final, err = byteWord(4, "final"); err != nil {
		return nil, err
	}
	winner, err := byteWord(6, "winner")
	if err != nil {
		return nil, err
	}
	if winner > 1 {
		return nil, fmt.Errorf("%w: winner flag %d", ErrInvalidDetails, winner)
	}
	d.Winner = winner == 1
	return d, nil
}
