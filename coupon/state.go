package coupon

import (
	"fmt"

	"github.com/bitfsorg/libforge-go/factory"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
)

// StateSize is the encoded length of State:
// coupon_id(16) + stake(16) + base(1) + bonus(1) + final(1) + winner(1) +
// creation_block(16) + factory(32).
const StateSize = 84

// State is what a coupon instance stores about itself.
type State struct {
	CouponID      u128.Int
	Stake         u128.Int
	Base          uint8
	Bonus         uint8
	Final         uint8
	Winner        bool
	CreationBlock u128.Int
	Factory       token.ID
}

// SerializeState encodes s.
func SerializeState(s *State) []byte {
	buf := make([]byte, StateSize)
	u128.PutLE(buf[0:16], s.CouponID)
	u128.PutLE(buf[16:32], s.Stake)
	buf[32] = s.Base
	buf[33] = s.Bonus
	buf[34] = s.Final
	if s.Winner {
		buf[35] = 1
	}
	u128.PutLE(buf[36:52], s.CreationBlock)
	s.Factory.Put(buf[52:84])
	return buf
}

// DeserializeState decodes a stored state.
func DeserializeState(data []byte) (*State, error) {
	if len(data) != StateSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidState, StateSize, len(data))
	}
	if data[35] > 1 {
		return nil, fmt.Errorf("%w: winner flag %d", ErrInvalidState, data[35])
	}
	f, err := token.DecodeID(data[52:84])
	if err != nil {
		return nil, err
	}
	return &State{
		CouponID:      u128.LE(data[0:16]),
		Stake:         u128.LE(data[16:32]),
		Base:          data[32],
		Bonus:         data[33],
		Final:         data[34],
		Winner:        data[35] == 1,
		CreationBlock: u128.LE(data[36:52]),
		Factory:       f,
	}, nil
}

// Details returns the details view of s.
func (s *State) Details() *factory.Details {
	return &factory.Details{
		CouponID:      s.CouponID,
		Stake:         s.Stake,
		Base:          s.Base,
		Bonus:         s.Bonus,
		Final:         s.Final,
		CreationBlock: s.CreationBlock,
		Winner:        s.Winner,
	}
}
