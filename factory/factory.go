// Package factory mints child coupon tokens by calling a template contract
// and verifies what comes back.
package factory

import (
	"fmt"

	"github.com/bitfsorg/libforge-go/token"
)

// Caller performs a synchronous cross-contract call with an explicit fuel
// budget. The host runtime's call context implements it.
type Caller interface {
	Call(cp token.Cellpack, incoming token.Parcel, fuel uint64) (*token.CallResponse, error)
}

// CallerFunc adapts a function to Caller.
type CallerFunc func(cp token.Cellpack, incoming token.Parcel, fuel uint64) (*token.CallResponse, error)

// Call invokes f.
func (f CallerFunc) Call(cp token.Cellpack, incoming token.Parcel, fuel uint64) (*token.CallResponse, error) {
	return f(cp, incoming, fuel)
}

// Minter spawns children from Template.
type Minter struct {
	Template token.ID
}

// Mint calls the template's initialize with req and an empty parcel, and
// returns the first transfer of the response as the new child. A response
// without a non-zero transfer fails with ErrChildNotReturned.
func (m Minter) Mint(c Caller, req MintRequest, fuel uint64) (token.Transfer, error) {
	if c == nil {
		return token.Transfer{}, ErrNilCaller
	}
	resp, err := c.Call(req.Cellpack(m.Template), nil, fuel)
	if err != nil {
		return token.Transfer{}, fmt.Errorf("factory: call template %s: %w", m.Template, err)
	}
	if resp == nil || len(resp.Transfers) == 0 {
		return token.Transfer{}, fmt.Errorf("%w: template %s", ErrChildNotReturned, m.Template)
	}
	child := resp.Transfers[0]
	if child.Value.IsZero() || child.ID.IsZero() {
		return token.Transfer{}, fmt.Errorf("%w: empty transfer from template %s", ErrChildNotReturned, m.Template)
	}
	return child, nil
}

// QueryDetails asks child for its full state.
func QueryDetails(c Caller, child token.ID, fuel uint64) (*Details, error) {
	if c == nil {
		return nil, ErrNilCaller
	}
	resp, err := c.Call(token.NewCellpack(child, OpDetails), nil, fuel)
	if err != nil {
		return nil, fmt.Errorf("factory: query details of %s: %w", child, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response from %s", ErrInvalidDetails, child)
	}
	return DecodeDetails(resp.Data)
}

// Matches reports whether d describes the outcome in req.
func (d *Details) Matches(req MintRequest) bool {
	return d.CouponID.Eq(&req.WagerID) &&
		d.Stake.Eq(&req.Stake) &&
		d.Base == req.Base &&
		d.Bonus == req.Bonus &&
		d.Final == req.Final &&
		d.Winner == req.Winner
}
