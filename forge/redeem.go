package forge

import (
	"errors"
	"fmt"

	"github.com/bitfsorg/libforge-go/factory"
	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/pot"
	"github.com/bitfsorg/libforge-go/replay"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/wager"
	"github.com/sirupsen/logrus"
)

// redeem pays a matured winning child its share of the window pot. The
// caller proves ownership by sending at least one unit of the child; the
// units go back with the payout.
func (st *state) redeem(ctx *host.Context, log logrus.FieldLogger) (*token.CallResponse, error) {
	args := ctx.Args()
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: redeem takes child block and tx", ErrInvalidArguments)
	}
	child := token.ID{Block: args[0], Tx: args[1]}
	txid := ctx.TxID()
	if err := st.replay.Check(replay.OpRedeem, txid); err != nil {
		return nil, err
	}

	claim := pot.Claim{Child: child, Height: ctx.Height(), Incoming: ctx.Incoming}
	rec, err := st.wagers.ByChild(child)
	switch {
	case err == nil:
		claim.Stake = rec.StakeAmount
		claim.Winner = rec.Winner
		claim.CreationHeight = uint64(rec.Height)
	case errors.Is(err, wager.ErrRecordNotFound):
		// Unknown children fail the registration check below.
	default:
		return nil, err
	}

	share, err := st.pot.Redeem(claim)
	if err != nil {
		return nil, err
	}

	// The child must still describe the outcome the forge recorded.
	details, err := factory.QueryDetails(ctx, child, st.childFuel(ctx))
	if err != nil {
		return nil, err
	}
	if !details.Matches(factory.MintRequest{
		WagerID: rec.ID,
		Final:   rec.Final,
		Base:    rec.Base,
		Bonus:   rec.Bonus,
		Stake:   rec.StakeAmount,
		Winner:  rec.Winner,
	}) {
		return nil, fmt.Errorf("%w: %s disagrees with wager %s", factory.ErrInvalidDetails, child, rec.ID.Dec())
	}

	if err := st.replay.Mark(replay.OpRedeem, txid); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"txid":   ctx.Tx.ID.String(),
		"child":  child.String(),
		"payout": share.Dec(),
	}).Info("coupon redeemed")
	out := token.Parcel{{ID: st.params.StakeToken, Value: share}}
	for _, t := range ctx.Incoming {
		if t.ID == child {
			out = append(out, t)
		}
	}
	return &token.CallResponse{Transfers: out}, nil
}
