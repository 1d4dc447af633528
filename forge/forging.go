package forge

import (
	"fmt"
	"math"

	"github.com/bitfsorg/libforge-go/factory"
	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/outcome"
	"github.com/bitfsorg/libforge-go/replay"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
	"github.com/bitfsorg/libforge-go/wager"
	"github.com/sirupsen/logrus"
)

// ValidateStake checks that incoming is a non-empty parcel of stakeToken
// with every transfer at least one unit and a total of at least minStake.
// It returns the total.
func ValidateStake(incoming token.Parcel, stakeToken token.ID, minStake u128.Int) (u128.Int, error) {
	if len(incoming) == 0 {
		return u128.Int{}, fmt.Errorf("%w: no stake attached", ErrInvalidStake)
	}
	for i, t := range incoming {
		if t.ID != stakeToken {
			return u128.Int{}, fmt.Errorf("%w: transfer %d is %s, want %s", ErrInvalidStake, i, t.ID, stakeToken)
		}
		if t.Value.IsZero() {
			return u128.Int{}, fmt.Errorf("%w: transfer %d is empty", ErrInvalidStake, i)
		}
	}
	total, err := incoming.Total()
	if err != nil {
		return u128.Int{}, fmt.Errorf("%w: %w", ErrInvalidStake, err)
	}
	if total.Lt(&minStake) {
		return u128.Int{}, fmt.Errorf("%w: %s below minimum %s", ErrInvalidStake, total.Dec(), minStake.Dec())
	}
	return total, nil
}

// forge consumes the incoming stake and settles one wager. Nothing is
// persisted unless every step succeeds; the host discards the frame on error.
func (st *state) forge(ctx *host.Context, log logrus.FieldLogger) (*token.CallResponse, error) {
	txid := ctx.TxID()
	if err := st.replay.Check(replay.OpWager, txid); err != nil {
		return nil, err
	}
	p := st.params
	total, err := ValidateStake(ctx.Incoming, p.StakeToken, p.MinStake)
	if err != nil {
		return nil, err
	}
	if ctx.Height() > math.MaxUint32 {
		return nil, fmt.Errorf("%w: height %d", ErrInvalidArguments, ctx.Height())
	}

	base := ctx.Tx.BaseEntropy()
	res := outcome.Engine{Threshold: p.Threshold}.Evaluate(base, p.Calculator().Compute(total))

	id, err := st.wagers.NextID()
	if err != nil {
		return nil, err
	}
	rec := &wager.Record{
		ID:          id,
		StakeToken:  p.StakeToken,
		TxID:        ctx.Tx.ID,
		Merkle:      ctx.Tx.Merkle,
		Base:        res.Base,
		Bonus:       res.Bonus,
		Final:       res.Final,
		StakeAmount: total,
		Height:      uint32(ctx.Height()),
		Winner:      res.Win,
	}
	log = log.WithFields(logrus.Fields{
		"txid":     ctx.Tx.ID.String(),
		"wager_id": id.Dec(),
		"final":    res.Final,
		"win":      res.Win,
	})

	resp := &token.CallResponse{}
	if res.Win {
		child, err := st.mint(ctx, rec)
		if err != nil {
			return nil, err
		}
		resp.Transfers = token.Parcel{child}
		log = log.WithField("child", child.ID.String())
	}

	if err := st.wagers.Put(rec); err != nil {
		return nil, err
	}
	if err := st.pot.RecordStake(ctx.Height(), total, res.Win); err != nil {
		return nil, err
	}
	if _, err := st.stats.Record(res.Win, total, uint64(len(ctx.Incoming))); err != nil {
		return nil, err
	}
	if err := st.replay.Mark(replay.OpWager, txid); err != nil {
		return nil, err
	}
	log.Info("wager settled")
	return resp, nil
}

// mint spawns the coupon child for a winning record and registers it.
func (st *state) mint(ctx *host.Context, rec *wager.Record) (token.Transfer, error) {
	req := factory.MintRequest{
		WagerID: rec.ID,
		Final:   rec.Final,
		Base:    rec.Base,
		Bonus:   rec.Bonus,
		Stake:   rec.StakeAmount,
		Winner:  rec.Winner,
		Height:  ctx.Height(),
		Unique:  rec.TxID[0],
	}
	child, err := factory.Minter{Template: st.params.Template}.Mint(ctx, req, st.childFuel(ctx))
	if err != nil {
		return token.Transfer{}, err
	}
	if err := st.registry.Register(child.ID); err != nil {
		return token.Transfer{}, err
	}
	if err := st.wagers.LinkChild(rec.ID, child.ID); err != nil {
		return token.Transfer{}, err
	}
	return child, nil
}

func (st *state) childFuel(ctx *host.Context) uint64 {
	if st.params.ChildFuel == 0 || st.params.ChildFuel > ctx.Fuel {
		return ctx.Fuel
	}
	return st.params.ChildFuel
}
