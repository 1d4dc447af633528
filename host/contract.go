package host

import (
	"fmt"

	"github.com/bitfsorg/libforge-go/storage"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
	"github.com/sirupsen/logrus"
)

// Contract is executable contract code. State lives in ctx.Store, so one
// Contract value can back many template instances.
type Contract interface {
	Execute(ctx *Context) (*token.CallResponse, error)
}

// ContractFunc adapts a function to Contract.
type ContractFunc func(ctx *Context) (*token.CallResponse, error)

// Execute calls f.
func (f ContractFunc) Execute(ctx *Context) (*token.CallResponse, error) { return f(ctx) }

// Context is what a running contract sees.
type Context struct {
	// Myself is the id of the executing instance.
	Myself token.ID
	// Caller is the calling contract, or the sending account for a
	// top-level invocation.
	Caller   token.ID
	Cellpack token.Cellpack
	Incoming token.Parcel
	Tx       *Tx
	// Fuel is the budget left for this frame.
	Fuel uint64
	// Store is the instance's private namespace.
	Store storage.Store
	Log   logrus.FieldLogger

	rt    *Runtime
	frame storage.Store
}

// Height returns the block height of the invocation.
func (c *Context) Height() uint64 { return c.Tx.Height }

// TxID returns the invocation's transaction id bytes.
func (c *Context) TxID() []byte { return c.Tx.ID[:] }

// Opcode returns the first input word.
func (c *Context) Opcode() (uint64, error) { return c.Cellpack.Opcode() }

// Args returns the inputs after the opcode.
func (c *Context) Args() []u128.Int { return c.Cellpack.Args() }

// Call invokes another contract with fuel taken from this frame's budget.
// The callee's writes merge into this frame only if it succeeds.
func (c *Context) Call(cp token.Cellpack, incoming token.Parcel, fuel uint64) (*token.CallResponse, error) {
	if fuel > c.Fuel {
		return nil, fmt.Errorf("%w: requested %d, have %d", ErrFuelExhausted, fuel, c.Fuel)
	}
	resp, used, err := c.rt.execute(c.frame, c.Tx, c.Myself, cp, incoming, fuel)
	c.Fuel -= used
	if err != nil {
		return nil, err
	}
	return resp, nil
}
