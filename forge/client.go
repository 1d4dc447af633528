package forge

import (
	"fmt"

	"github.com/bitfsorg/libforge-go/bonus"
	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/outcome"
	"github.com/bitfsorg/libforge-go/pot"
	"github.com/bitfsorg/libforge-go/registry"
	"github.com/bitfsorg/libforge-go/stats"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
	"github.com/bitfsorg/libforge-go/wager"
	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// Client drives a deployed forge through a runtime and decodes responses.
type Client struct {
	rt   *host.Runtime
	id   token.ID
	fuel uint64
}

// NewClient returns a client for the forge deployed at id.
func NewClient(rt *host.Runtime, id token.ID, fuel uint64) *Client {
	return &Client{rt: rt, id: id, fuel: fuel}
}

// ID returns the forge's contract id.
func (c *Client) ID() token.ID { return c.id }

// Initialize stores the forge's parameters.
func (c *Client) Initialize(tx *host.Tx) error {
	_, err := c.rt.Invoke(tx, token.NewCellpack(c.id, OpInitialize), nil, c.fuel)
	return err
}

// Initialized reports whether Initialize has run.
func (c *Client) Initialized() (bool, error) {
	return c.rt.Storage(c.id).Has([]byte(keyParams))
}

// Forge stakes the parcel in tx.
func (c *Client) Forge(tx *host.Tx, stake token.Parcel) (*token.CallResponse, error) {
	return c.rt.Invoke(tx, token.NewCellpack(c.id, OpForge), stake, c.fuel)
}

// Redeem claims child's share, presenting proof as the incoming parcel.
// Units of child in proof must be held by the sender.
func (c *Client) Redeem(tx *host.Tx, child token.ID, proof token.Parcel) (*token.CallResponse, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: tx", host.ErrNilParam)
	}
	var shown u128.Int
	for _, t := range proof {
		if t.ID != child {
			continue
		}
		var err error
		if shown, err = u128.Add(shown, t.Value); err != nil {
			return nil, fmt.Errorf("%w: %w", pot.ErrOwnershipNotProven, err)
		}
	}
	if !shown.IsZero() {
		held, err := c.rt.Balance(tx.Sender, child)
		if err != nil {
			return nil, err
		}
		if held.Lt(&shown) {
			return nil, fmt.Errorf("%w: %s holds %s of %s", pot.ErrOwnershipNotProven, tx.Sender, held.Dec(), child)
		}
	}
	return c.rt.Invoke(tx, token.NewCellpack(c.id, OpRedeem, child.Block, child.Tx), proof, c.fuel)
}

// Call runs an arbitrary opcode as a committed invocation.
func (c *Client) Call(tx *host.Tx, opcode uint64, args []u128.Int, incoming token.Parcel) (*token.CallResponse, error) {
	return c.rt.Invoke(tx, token.NewCellpack(c.id, opcode, args...), incoming, c.fuel)
}

func (c *Client) view(opcode uint64, args ...u128.Int) ([]byte, error) {
	tx := host.NewTx(chainhash.Hash{}, chainhash.Hash{}, 0)
	resp, err := c.rt.View(tx, token.NewCellpack(c.id, opcode, args...), c.fuel)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Stats returns the packed counters.
func (c *Client) Stats() (stats.Snapshot, error) {
	data, err := c.view(OpStats)
	if err != nil {
		return stats.Snapshot{}, err
	}
	s, _, err := stats.Unpack(data)
	return s, err
}

// Registered lists every registered child in registration order.
func (c *Client) Registered() ([]token.ID, error) {
	data, err := c.view(OpRegistryList)
	if err != nil {
		return nil, err
	}
	return registry.DecodeList(data)
}

// IsRegistered reports whether child was minted by the forge.
func (c *Client) IsRegistered(child token.ID) (bool, error) {
	data, err := c.view(OpIsRegistered, child.Block, child.Tx)
	if err != nil {
		return false, err
	}
	v, err := u128.FromBytes(data)
	if err != nil {
		return false, err
	}
	return !v.IsZero(), nil
}

// Record returns the wager record with id.
func (c *Client) Record(id u128.Int) (*wager.Record, error) {
	data, err := c.view(OpRecord, id)
	if err != nil {
		return nil, err
	}
	return wager.Deserialize(data)
}

// Latest returns the most recent wager record.
func (c *Client) Latest() (*wager.Record, error) {
	data, err := c.view(OpLatest)
	if err != nil {
		return nil, err
	}
	return wager.Deserialize(data)
}

// Pot returns the totals of a settlement window.
func (c *Client) Pot(window uint64) (pot.Totals, error) {
	data, err := c.view(OpPot, u128.From(window))
	if err != nil {
		return pot.Totals{}, err
	}
	if len(data) != 3*u128.Size {
		return pot.Totals{}, fmt.Errorf("%w: pot response of %d bytes", ErrInvalidArguments, len(data))
	}
	return pot.Totals{
		Losing:  u128.LE(data[0:16]),
		Winning: u128.LE(data[16:32]),
		Paid:    u128.LE(data[32:48]),
	}, nil
}

// Balance returns how much of id holder owns.
func (c *Client) Balance(holder, id token.ID) (u128.Int, error) {
	return c.rt.Balance(holder, id)
}

// Odds describes how a prospective stake would fare.
type Odds struct {
	Bonus     uint8
	Threshold uint8
	// WinningBases counts the base bytes that would win, out of 256.
	WinningBases int
}

// WinProbability returns the chance that the stake wins.
func (o Odds) WinProbability() float64 {
	return outcome.WinProbability(o.Threshold, o.Bonus)
}

// ExpectedValue returns the expected net gain of stake when a win pays
// payout on top of the returned stake.
func (o Odds) ExpectedValue(stake, payout float64) float64 {
	return outcome.ExpectedValue(stake, payout, o.Threshold, o.Bonus)
}

// Odds returns the bonus and win chance of staking stake.
func (c *Client) Odds(stake u128.Int) (Odds, error) {
	data, err := c.view(OpOdds, stake)
	if err != nil {
		return Odds{}, err
	}
	if len(data) != 3*u128.Size {
		return Odds{}, fmt.Errorf("%w: odds response of %d bytes", ErrInvalidArguments, len(data))
	}
	b, wins, threshold := u128.LE(data[0:16]), u128.LE(data[16:32]), u128.LE(data[32:48])
	return Odds{
		Bonus:        uint8(b.Uint64()),
		Threshold:    uint8(threshold.Uint64()),
		WinningBases: int(wins.Uint64()),
	}, nil
}

// Calculator returns the bonus calculator the forge was initialized with.
func (c *Client) Calculator() (bonus.Calculator, error) {
	data, err := c.view(OpCalculator)
	if err != nil {
		return nil, err
	}
	if len(data) != 2*u128.Size {
		return nil, fmt.Errorf("%w: calculator response of %d bytes", ErrInvalidArguments, len(data))
	}
	kind := u128.LE(data[0:16])
	if kind.Uint64() == uint64(bonus.KindPerUnit) {
		return bonus.PerUnit{Multiplier: u128.LE(data[16:32])}, nil
	}
	data, err = c.view(OpSchedule)
	if err != nil {
		return nil, err
	}
	if len(data) != 3*u128.Size {
		return nil, fmt.Errorf("%w: schedule response of %d bytes", ErrInvalidArguments, len(data))
	}
	return bonus.Schedule{
		Threshold: u128.LE(data[0:16]),
		Increment: u128.LE(data[16:32]),
		Points:    u128.LE(data[32:48]),
	}, nil
}

// BreakEven returns the smallest multiple of step up to max whose win
// chance reaches target.
func (c *Client) BreakEven(target float64, step, max uint64) (uint64, bool, error) {
	calc, err := c.Calculator()
	if err != nil {
		return 0, false, err
	}
	data, err := c.view(OpThreshold)
	if err != nil {
		return 0, false, err
	}
	threshold, err := u128.FromBytes(data)
	if err != nil {
		return 0, false, err
	}
	stake, ok := outcome.BreakEvenStake(calc, uint8(threshold.Uint64()), target, step, max)
	return stake, ok, nil
}
