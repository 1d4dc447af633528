package forge

import (
	"encoding/binary"
	"fmt"

	"github.com/bitfsorg/libforge-go/bonus"
	"github.com/bitfsorg/libforge-go/pot"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
)

// paramsSize: threshold(1) + min_stake(16) + schedule(3*16) + stake_token(32) +
// template(32) + window(8) + maturity(8) + child_fuel(8) + bonus kind(1) +
// multiplier(16).
const paramsSize = 1 + u128.Size + 3*u128.Size + 2*token.IDSize + 3*8 + 1 + u128.Size

// Params is the configuration a forge instance is initialized with.
type Params struct {
	// Threshold is the score a wager's final value must exceed to win.
	Threshold uint8
	MinStake  u128.Int
	Schedule  bonus.Schedule
	// Bonus selects Schedule or a PerUnit calculator over Multiplier.
	Bonus      bonus.Kind
	Multiplier u128.Int
	// StakeToken is the only token accepted as stake and paid out by the pot.
	StakeToken     token.ID
	Template       token.ID
	WindowBlocks   uint64
	MaturityBlocks uint64
	// ChildFuel is forwarded to template calls; zero forwards all remaining fuel.
	ChildFuel uint64
}

// Calculator returns the bonus calculator p selects.
func (p Params) Calculator() bonus.Calculator {
	if p.Bonus == bonus.KindPerUnit {
		return bonus.PerUnit{Multiplier: p.Multiplier}
	}
	return p.Schedule
}

// Validate checks p for internal consistency.
func (p Params) Validate() error {
	if p.MinStake.IsZero() {
		return fmt.Errorf("%w: minimum stake must be positive", ErrInvalidParams)
	}
	var err error
	switch p.Bonus {
	case bonus.KindSchedule:
		err = p.Schedule.Validate()
	case bonus.KindPerUnit:
		err = bonus.PerUnit{Multiplier: p.Multiplier}.Validate()
	default:
		err = fmt.Errorf("%w: %d", bonus.ErrUnknownKind, uint8(p.Bonus))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	if p.StakeToken.IsZero() {
		return fmt.Errorf("%w: stake token not set", ErrInvalidParams)
	}
	if p.Template.IsZero() {
		return fmt.Errorf("%w: template not set", ErrInvalidParams)
	}
	if err := pot.ValidateWindow(p.WindowBlocks, p.MaturityBlocks); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

// SerializeParams encodes p.
func SerializeParams(p *Params) []byte {
	buf := make([]byte, paramsSize)
	buf[0] = p.Threshold
	off := 1
	for _, v := range []u128.Int{p.MinStake, p.Schedule.Threshold, p.Schedule.Increment, p.Schedule.Points} {
		u128.PutLE(buf[off:off+u128.Size], v)
		off += u128.Size
	}
	p.StakeToken.Put(buf[off : off+token.IDSize])
	off += token.IDSize
	p.Template.Put(buf[off : off+token.IDSize])
	off += token.IDSize
	binary.LittleEndian.PutUint64(buf[off:off+8], p.WindowBlocks)
	binary.LittleEndian.PutUint64(buf[off+8:off+16], p.MaturityBlocks)
	binary.LittleEndian.PutUint64(buf[off+16:off+24], p.ChildFuel)
	off += 24
	buf[off] = byte(p.Bonus)
	u128.PutLE(buf[off+1:off+1+u128.Size], p.Multiplier)
	return buf
}

// DeserializeParams decodes stored parameters.
func DeserializeParams(data []byte) (*Params, error) {
	if len(data) != paramsSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidParams, paramsSize, len(data))
	}
	p := &Params{Threshold: data[0]}
	off := 1
	for _, dst := range []*u128.Int{&p.MinStake, &p.Schedule.Threshold, &p.Schedule.Increment, &p.Schedule.Points} {
		*dst = u128.LE(data[off : off+u128.Size])
		off += u128.Size
	}
	var err error
	if p.StakeToken, err = token.DecodeID(data[off : off+token.IDSize]); err != nil {
		return nil, err
	}
	off += token.IDSize
	if p.Template, err = token.DecodeID(data[off : off+token.IDSize]); err != nil {
		return nil, err
	}
	off += token.IDSize
	p.WindowBlocks = binary.LittleEndian.Uint64(data[off : off+8])
	p.MaturityBlocks = binary.LittleEndian.Uint64(data[off+8 : off+16])
	p.ChildFuel = binary.LittleEndian.Uint64(data[off+16 : off+24])
	off += 24
	p.Bonus = bonus.Kind(data[off])
	p.Multiplier = u128.LE(data[off+1 : off+1+u128.Size])
	return p, nil
}
