// Package coupon is the child template the forge spawns for each winning
// wager. Every instance holds one outcome, written once at initialize.
package coupon

import (
	"fmt"

	"github.com/bitfsorg/libforge-go/factory"
	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/storage"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
)

const keyState = "/coupon_state"

// Template is the coupon contract code.
type Template struct{}

// Compile-time interface check.
var _ host.Contract = Template{}

// Execute dispatches on the opcode.
func (Template) Execute(ctx *host.Context) (*token.CallResponse, error) {
	op, err := ctx.Opcode()
	if err != nil {
		return nil, err
	}
	if op == factory.OpInitialize {
		return initialize(ctx)
	}

	st, err := load(ctx.Store)
	if err != nil {
		return nil, err
	}
	var data []byte
	switch op {
	case factory.OpCouponID:
		data = u128.Bytes(st.CouponID)
	case factory.OpStakeAmount:
		data = u128.Bytes(st.Stake)
	case factory.OpBase:
		data = u128.Bytes(u128.From(uint64(st.Base)))
	case factory.OpBonus:
		data = u128.Bytes(u128.From(uint64(st.Bonus)))
	case factory.OpFinal:
		data = u128.Bytes(u128.From(uint64(st.Final)))
	case factory.OpCreationBlock:
		data = u128.Bytes(st.CreationBlock)
	case factory.OpFactoryID:
		data = st.Factory.Bytes()
	case factory.OpDetails:
		data = factory.EncodeDetails(st.Details())
	case factory.OpIsWinner:
		w := uint64(0)
		if st.Winner {
			w = 1
		}
		data = u128.Bytes(u128.From(w))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, op)
	}
	return &token.CallResponse{Data: data}, nil
}

func initialize(ctx *host.Context) (*token.CallResponse, error) {
	p := storage.At(ctx.Store, keyState)
	exists, err := p.Exists()
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, ctx.Myself)
	}
	if ctx.Caller.IsZero() || host.IsAccount(ctx.Caller) {
		return nil, ErrNoFactory
	}
	req, err := factory.ParseMintRequest(ctx.Args())
	if err != nil {
		return nil, err
	}
	st := &State{
		CouponID:      req.WagerID,
		Stake:         req.Stake,
		Base:          req.Base,
		Bonus:         req.Bonus,
		Final:         req.Final,
		Winner:        req.Winner,
		CreationBlock: u128.From(req.Height),
		Factory:       ctx.Caller,
	}
	if err := p.Set(SerializeState(st)); err != nil {
		return nil, err
	}
	ctx.Log.WithField("coupon_id", st.CouponID.Dec()).Debug("coupon initialized")
	return &token.CallResponse{
		Transfers: token.Parcel{{ID: ctx.Myself, Value: u128.From(1)}},
	}, nil
}

func load(s storage.Store) (*State, error) {
	raw, err := storage.At(s, keyState).Get()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotInitialized
	}
	return DeserializeState(raw)
}
