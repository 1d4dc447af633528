// Package forge is the factory contract: it takes stakes, derives an
// outcome per transaction, mints a coupon child for every win, and pays
// matured winners out of their settlement window's pot.
package forge

import (
	"fmt"

	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/pot"
	"github.com/bitfsorg/libforge-go/registry"
	"github.com/bitfsorg/libforge-go/replay"
	"github.com/bitfsorg/libforge-go/stats"
	"github.com/bitfsorg/libforge-go/storage"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/wager"
	"github.com/sirupsen/logrus"
)

// Opcodes.
const (
	OpInitialize uint64 = 0
	OpForge      uint64 = 1
	OpRedeem     uint64 = 2

	OpWins      uint64 = 10
	OpLosses    uint64 = 11
	OpGames     uint64 = 12
	OpTokens    uint64 = 13
	OpPositions uint64 = 14
	OpWinRate   uint64 = 15
	OpStats     uint64 = 16

	OpMinStake     uint64 = 20
	OpThreshold    uint64 = 21
	OpSchedule     uint64 = 22
	OpTemplate     uint64 = 23
	OpPot          uint64 = 24
	OpRecord       uint64 = 25
	OpLatest       uint64 = 26
	OpBaseEntropy  uint64 = 27
	OpOdds         uint64 = 28
	OpCalculator   uint64 = 29
	OpRegistryList uint64 = 30
	OpIsRegistered uint64 = 31
	OpRegistryLen  uint64 = 32
)

const keyParams = "/config"

// Forge is the factory contract code.
type Forge struct {
	params Params
	log    logrus.FieldLogger
}

// Compile-time interface check.
var _ host.Contract = (*Forge)(nil)

// New returns a forge that initializes with p. A nil logger logs through
// the host's per-contract logger.
func New(p Params, log logrus.FieldLogger) (*Forge, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Forge{params: p, log: log}, nil
}

// state bundles the ledgers of one forge instance for a single call.
type state struct {
	params   *Params
	registry *registry.Registry
	replay   *replay.Guard
	stats    *stats.Ledger
	wagers   *wager.Store
	pot      *pot.Distributor
}

func loadState(s storage.Store) (*state, error) {
	raw, err := storage.At(s, keyParams).Get()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotInitialized
	}
	p, err := DeserializeParams(raw)
	if err != nil {
		return nil, err
	}
	reg := registry.New(s)
	dist, err := pot.New(s, reg, p.WindowBlocks, p.MaturityBlocks)
	if err != nil {
		return nil, err
	}
	return &state{
		params:   p,
		registry: reg,
		replay:   replay.New(s),
		stats:    stats.NewLedger(s),
		wagers:   wager.NewStore(s),
		pot:      dist,
	}, nil
}

// Execute dispatches on the opcode.
func (f *Forge) Execute(ctx *host.Context) (*token.CallResponse, error) {
	op, err := ctx.Opcode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	log := f.logger(ctx).WithField("op", op)

	if op == OpInitialize {
		return f.initialize(ctx, log)
	}
	st, err := loadState(ctx.Store)
	if err != nil {
		return nil, err
	}
	switch op {
	case OpForge:
		return st.forge(ctx, log)
	case OpRedeem:
		return st.redeem(ctx, log)
	}
	data, err := st.query(ctx, op)
	if err != nil {
		return nil, err
	}
	return &token.CallResponse{Data: data}, nil
}

func (f *Forge) logger(ctx *host.Context) logrus.FieldLogger {
	if f.log != nil {
		return f.log.WithField("contract", ctx.Myself.String())
	}
	return ctx.Log
}

func (f *Forge) initialize(ctx *host.Context, log logrus.FieldLogger) (*token.CallResponse, error) {
	p := storage.At(ctx.Store, keyParams)
	exists, err := p.Exists()
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyInitialized
	}
	if len(ctx.Args()) != 0 {
		return nil, fmt.Errorf("%w: initialize takes no inputs", ErrInvalidArguments)
	}
	if err := p.Set(SerializeParams(&f.params)); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"threshold": f.params.Threshold,
		"template":  f.params.Template.String(),
	}).Info("forge initialized")
	return token.Forward(ctx.Incoming), nil
}
