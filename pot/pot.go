// Package pot settles winning children against the losing stakes of their
// settlement window.
//
// A window spans WindowBlocks consecutive heights. Every wager adds its stake
// to the window's losing or winning total. A winner redeems its own stake plus
// a share of the losing total proportional to its stake:
//
//	share = stake + stake * losing / winning
package pot

import (
	"fmt"
	"strconv"

	"github.com/bitfsorg/libforge-go/storage"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
)

const (
	keyPot      = "/pot/"
	keyRedeemed = "/redeemed_coupons/"
)

// Membership answers whether a child was minted by the factory.
type Membership interface {
	IsRegistered(id token.ID) (bool, error)
}

// Totals is the accounting of one settlement window.
type Totals struct {
	Losing  u128.Int
	Winning u128.Int
	Paid    u128.Int
}

// Remaining returns losing + winning - paid, or zero if paid exceeds it.
func (t Totals) Remaining() u128.Int {
	var pool, out u128.Int
	pool.Add(&t.Losing, &t.Winning)
	if t.Paid.Gt(&pool) {
		return out
	}
	out.Sub(&pool, &t.Paid)
	return out
}

// ProjectedGain returns what a winning stake joining t now would draw from
// the losing total on top of its own stake: stake * losing / (winning + stake).
func ProjectedGain(stake u128.Int, t Totals) (u128.Int, error) {
	winning, err := u128.Add(t.Winning, stake)
	if err != nil {
		return u128.Int{}, err
	}
	if winning.IsZero() {
		return u128.Int{}, nil
	}
	return u128.MulDiv(stake, t.Losing, winning)
}

// Share returns stake + stake * losing / winning. The product is formed in
// 256 bits; the result must fit in 128.
func Share(stake u128.Int, t Totals) (u128.Int, error) {
	if t.Winning.IsZero() {
		return u128.Int{}, fmt.Errorf("%w: no winning stake", ErrEmptyPot)
	}
	bonus, err := u128.MulDiv(stake, t.Losing, t.Winning)
	if err != nil {
		return u128.Int{}, err
	}
	return u128.Add(stake, bonus)
}

// Distributor keeps per-window totals and redemption marks.
type Distributor struct {
	store          storage.Store
	members        Membership
	WindowBlocks   uint64
	MaturityBlocks uint64
}

// New returns a distributor. windowBlocks must be positive and
// maturityBlocks at least windowBlocks, so a window has closed before any
// of its winners matures.
func New(s storage.Store, members Membership, windowBlocks, maturityBlocks uint64) (*Distributor, error) {
	if s == nil || members == nil {
		return nil, fmt.Errorf("%w: store or membership", ErrNilParam)
	}
	if err := ValidateWindow(windowBlocks, maturityBlocks); err != nil {
		return nil, err
	}
	return &Distributor{
		store:          s,
		members:        members,
		WindowBlocks:   windowBlocks,
		MaturityBlocks: maturityBlocks,
	}, nil
}

// ValidateWindow checks window and maturity lengths.
func ValidateWindow(windowBlocks, maturityBlocks uint64) error {
	if windowBlocks == 0 {
		return fmt.Errorf("%w: window must be positive", ErrInvalidWindow)
	}
	if maturityBlocks < windowBlocks {
		return fmt.Errorf("%w: maturity %d shorter than window %d", ErrInvalidWindow, maturityBlocks, windowBlocks)
	}
	return nil
}

// Window returns the settlement window containing height.
func (d *Distributor) Window(height uint64) uint64 {
	return height / d.WindowBlocks
}

func (d *Distributor) field(window uint64, name string) storage.Pointer {
	return storage.At(d.store, keyPot).SelectString(strconv.FormatUint(window, 10) + "/" + name)
}

// Totals reads the accounting of window.
func (d *Distributor) Totals(window uint64) (Totals, error) {
	var t Totals
	var err error
	if t.Losing, err = d.field(window, "losing").U128(); err != nil {
		return Totals{}, err
	}
	if t.Winning, err = d.field(window, "winning").U128(); err != nil {
		return Totals{}, err
	}
	if t.Paid, err = d.field(window, "paid").U128(); err != nil {
		return Totals{}, err
	}
	return t, nil
}

// RecordStake adds amount to the winning or losing total of the window
// containing height.
func (d *Distributor) RecordStake(height uint64, amount u128.Int, win bool) error {
	name := "losing"
	if win {
		name = "winning"
	}
	p := d.field(d.Window(height), name)
	cur, err := p.U128()
	if err != nil {
		return err
	}
	next, err := u128.Add(cur, amount)
	if err != nil {
		return fmt.Errorf("pot: %s total: %w", name, err)
	}
	return p.SetU128(next)
}

// IsRedeemed reports whether child was already redeemed.
func (d *Distributor) IsRedeemed(child token.ID) (bool, error) {
	return d.redeemed(child).Flag()
}

func (d *Distributor) redeemed(child token.ID) storage.Pointer {
	return storage.At(d.store, keyRedeemed).SelectString(child.KeySuffix())
}

// Claim is one redemption attempt.
type Claim struct {
	Child          token.ID
	Stake          u128.Int
	Winner         bool
	CreationHeight uint64
	Height         uint64
	Incoming       token.Parcel
}

// Redeem validates c and returns the payout. Checks run in order:
// registered, not redeemed, winner, matured, pot sufficient, ownership.
// On success the payout is added to the window's paid total and the child
// is marked redeemed.
func (d *Distributor) Redeem(c Claim) (u128.Int, error) {
	registered, err := d.members.IsRegistered(c.Child)
	if err != nil {
		return u128.Int{}, err
	}
	if !registered {
		return u128.Int{}, fmt.Errorf("%w: %s", ErrNotRegistered, c.Child)
	}
	done, err := d.IsRedeemed(c.Child)
	if err != nil {
		return u128.Int{}, err
	}
	if done {
		return u128.Int{}, fmt.Errorf("%w: %s", ErrAlreadyRedeemed, c.Child)
	}
	if !c.Winner {
		return u128.Int{}, fmt.Errorf("%w: %s", ErrNotAWinner, c.Child)
	}
	if c.Height < c.CreationHeight || c.Height-c.CreationHeight < d.MaturityBlocks {
		return u128.Int{}, fmt.Errorf("%w: %s created at %d, matures at %d, now %d",
			ErrNotYetMatured, c.Child, c.CreationHeight, c.CreationHeight+d.MaturityBlocks, c.Height)
	}

	window := d.Window(c.CreationHeight)
	totals, err := d.Totals(window)
	if err != nil {
		return u128.Int{}, err
	}
	share, err := Share(c.Stake, totals)
	if err != nil {
		return u128.Int{}, err
	}
	remaining := totals.Remaining()
	if remaining.Lt(&share) {
		return u128.Int{}, fmt.Errorf("%w: window %d has %s left, share %s", ErrEmptyPot, window, remaining.Dec(), share.Dec())
	}
	if !c.Incoming.Holds(c.Child) {
		return u128.Int{}, fmt.Errorf("%w: %s", ErrOwnershipNotProven, c.Child)
	}

	paid, err := u128.Add(totals.Paid, share)
	if err != nil {
		return u128.Int{}, err
	}
	err = d.store.Apply([]storage.Write{
		d.field(window, "paid").Write(u128.Bytes(paid)),
		d.redeemed(c.Child).Write([]byte{1}),
	})
	if err != nil {
		return u128.Int{}, err
	}
	return share, nil
}
