// Package host is an in-process contract runtime: it resolves call
// targets, spawns instances from templates, meters fuel, moves token
// balances and commits each top-level invocation atomically.
package host

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bitfsorg/libforge-go/storage"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
	"github.com/sirupsen/logrus"
)

// Storage layout. Contract state lives under "c/<block>:<tx>"; host
// bookkeeping under "h/".
const (
	contractPrefix = "c/"
	keySequence    = "h/sequence"
	keyInstance    = "h/instance/"
	keyBalance     = "h/balance/"
)

// AccountBlock is the block number of externally owned accounts. No
// contract may be bound inside it.
const AccountBlock = 1

// SpawnBlock is the block number of instances spawned from templates.
const SpawnBlock = 2

// DefaultCallCost is the fuel charged per call frame.
const DefaultCallCost = 100

// Options configures a Runtime.
type Options struct {
	// CallCost is the fuel charged per frame; zero selects DefaultCallCost.
	CallCost uint64
	Logger   logrus.FieldLogger
}

// Runtime executes contracts against a Store. Invocations are serialised.
type Runtime struct {
	mu        sync.Mutex
	store     storage.Store
	callCost  uint64
	log       logrus.FieldLogger
	deployed  map[token.ID]Contract
	templates map[token.ID]Contract
}

// New returns a runtime over s.
func New(s storage.Store, opts Options) (*Runtime, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParam)
	}
	cost := opts.CallCost
	if cost == 0 {
		cost = DefaultCallCost
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Runtime{
		store:     s,
		callCost:  cost,
		log:       log,
		deployed:  make(map[token.ID]Contract),
		templates: make(map[token.ID]Contract),
	}, nil
}

// CallCost returns the fuel charged per frame.
func (r *Runtime) CallCost() uint64 { return r.callCost }

// Deploy binds c to the fixed id.
func (r *Runtime) Deploy(id token.ID, c Contract) error {
	return r.bind(r.deployed, id, c)
}

// RegisterTemplate binds c as a template: each call to id spawns a new
// instance running c.
func (r *Runtime) RegisterTemplate(id token.ID, c Contract) error {
	return r.bind(r.templates, id, c)
}

func (r *Runtime) bind(m map[token.ID]Contract, id token.ID, c Contract) error {
	if c == nil {
		return ErrNilContract
	}
	if IsAccount(id) {
		return fmt.Errorf("%w: %s", ErrReservedID, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deployed[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateContract, id)
	}
	if _, ok := r.templates[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateContract, id)
	}
	m[id] = c
	return nil
}

// Invoke runs cp as a top-level call from tx.Sender. Incoming is debited
// from the sender and credited to the target; response transfers are paid
// back to the sender. All writes commit together on success and are
// discarded on any error.
func (r *Runtime) Invoke(tx *Tx, cp token.Cellpack, incoming token.Parcel, fuel uint64) (*token.CallResponse, error) {
	return r.run(tx, cp, incoming, fuel, true)
}

// View runs cp like Invoke but always discards its writes.
func (r *Runtime) View(tx *Tx, cp token.Cellpack, fuel uint64) (*token.CallResponse, error) {
	return r.run(tx, cp, nil, fuel, false)
}

func (r *Runtime) run(tx *Tx, cp token.Cellpack, incoming token.Parcel, fuel uint64, commit bool) (*token.CallResponse, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: tx", ErrNilParam)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.log.WithFields(logrus.Fields{
		"target": cp.Target.String(),
		"sender": tx.Sender.String(),
		"txid":   tx.ID.String(),
		"height": tx.Height,
	})

	overlay := storage.NewOverlay(r.store)
	resp, used, err := r.execute(overlay, tx, tx.Sender, cp, incoming, fuel)
	if err != nil {
		overlay.Discard()
		log.WithError(err).Debug("invocation reverted")
		return nil, err
	}
	if !commit {
		overlay.Discard()
		return resp, nil
	}
	if err := overlay.Commit(); err != nil {
		return nil, fmt.Errorf("host: commit: %w", err)
	}
	log.WithField("fuel_used", used).Info("invocation committed")
	return resp, nil
}

// execute runs one call frame over parent and reports the fuel it used.
// The frame's writes merge into parent only on success.
func (r *Runtime) execute(parent storage.Store, tx *Tx, caller token.ID, cp token.Cellpack, incoming token.Parcel, fuel uint64) (*token.CallResponse, uint64, error) {
	if fuel < r.callCost {
		return nil, fuel, fmt.Errorf("%w: call to %s needs %d, have %d", ErrFuelExhausted, cp.Target, r.callCost, fuel)
	}
	frame := storage.NewOverlay(parent)

	self, code, err := r.resolve(frame, cp.Target)
	if err != nil {
		frame.Discard()
		return nil, r.callCost, err
	}
	if err := r.transfer(frame, caller, self, incoming); err != nil {
		frame.Discard()
		return nil, r.callCost, err
	}

	ctx := &Context{
		Myself:   self,
		Caller:   caller,
		Cellpack: cp,
		Incoming: incoming,
		Tx:       tx,
		Fuel:     fuel - r.callCost,
		Store:    storage.Namespace(frame, contractPrefix+self.String()),
		Log:      r.log.WithField("contract", self.String()),
		rt:       r,
		frame:    frame,
	}
	resp, err := code.Execute(ctx)
	used := fuel - ctx.Fuel
	if err != nil {
		frame.Discard()
		return nil, used, err
	}
	if resp == nil {
		resp = &token.CallResponse{}
	}
	if err := r.settle(frame, self, caller, resp.Transfers); err != nil {
		frame.Discard()
		return nil, used, err
	}
	if err := frame.Commit(); err != nil {
		return nil, used, err
	}
	return resp, used, nil
}

// resolve maps a call target to the executing instance and its code,
// spawning a new instance when the target is a template.
func (r *Runtime) resolve(s storage.Store, target token.ID) (token.ID, Contract, error) {
	if c, ok := r.deployed[target]; ok {
		return target, c, nil
	}
	if c, ok := r.templates[target]; ok {
		id, err := r.spawn(s, target)
		if err != nil {
			return token.ID{}, nil, err
		}
		return id, c, nil
	}
	raw, err := storage.At(s, keyInstance).SelectString(target.String()).Get()
	if err != nil {
		return token.ID{}, nil, err
	}
	if raw == nil {
		return token.ID{}, nil, fmt.Errorf("%w: %s", ErrUnknownContract, target)
	}
	tmpl, err := token.DecodeID(raw)
	if err != nil {
		return token.ID{}, nil, err
	}
	c, ok := r.templates[tmpl]
	if !ok {
		return token.ID{}, nil, fmt.Errorf("%w: template %s of %s", ErrUnknownContract, tmpl, target)
	}
	return target, c, nil
}

func (r *Runtime) spawn(s storage.Store, template token.ID) (token.ID, error) {
	seq := storage.At(s, keySequence)
	n, err := seq.U128()
	if err != nil {
		return token.ID{}, err
	}
	for {
		if n, err = u128.Add(n, u128.From(1)); err != nil {
			return token.ID{}, fmt.Errorf("host: instance sequence: %w", err)
		}
		id := token.ID{Block: u128.From(SpawnBlock), Tx: n}
		if _, taken := r.deployed[id]; taken {
			continue
		}
		if _, taken := r.templates[id]; taken {
			continue
		}
		err := s.Apply([]storage.Write{
			seq.Write(u128.Bytes(n)),
			storage.At(s, keyInstance).SelectString(id.String()).Write(template.Bytes()),
		})
		if err != nil {
			return token.ID{}, err
		}
		return id, nil
	}
}

// transfer moves parcel from one holder to another.
func (r *Runtime) transfer(s storage.Store, from, to token.ID, parcel token.Parcel) error {
	for _, t := range parcel {
		if t.Value.IsZero() {
			continue
		}
		if from.IsZero() {
			return fmt.Errorf("%w: sending %s of %s", ErrNoSender, t.Value.Dec(), t.ID)
		}
		if err := r.adjust(s, from, t.ID, t.Value, false); err != nil {
			return err
		}
		if err := r.adjust(s, to, t.ID, t.Value, true); err != nil {
			return err
		}
	}
	return nil
}

// settle pays a frame's response transfers to its caller. A contract may
// issue its own token freely; anything else must come from its balance.
func (r *Runtime) settle(s storage.Store, self, caller token.ID, out token.Parcel) error {
	for _, t := range out {
		if t.Value.IsZero() {
			continue
		}
		if t.ID != self {
			if err := r.adjust(s, self, t.ID, t.Value, false); err != nil {
				return err
			}
		}
		if caller.IsZero() {
			return fmt.Errorf("%w: receiving %s of %s", ErrNoSender, t.Value.Dec(), t.ID)
		}
		if err := r.adjust(s, caller, t.ID, t.Value, true); err != nil {
			return err
		}
	}
	return nil
}

func balanceKey(s storage.Store, holder, id token.ID) storage.Pointer {
	return storage.At(s, keyBalance).SelectString(holder.String() + "/" + id.String())
}

func (r *Runtime) adjust(s storage.Store, holder, id token.ID, amount u128.Int, credit bool) error {
	p := balanceKey(s, holder, id)
	cur, err := p.U128()
	if err != nil {
		return err
	}
	var next u128.Int
	if credit {
		next, err = u128.Add(cur, amount)
	} else {
		next, err = u128.Sub(cur, amount)
		if errors.Is(err, u128.ErrUnderflow) {
			return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, holder, cur.Dec(), id, amount.Dec())
		}
	}
	if err != nil {
		return err
	}
	return p.SetU128(next)
}

// Deposit credits amount of id to holder outside any invocation. It is how
// an operator funds accounts with tokens bridged in from elsewhere.
func (r *Runtime) Deposit(holder, id token.ID, amount u128.Int) error {
	if holder.IsZero() || id.IsZero() {
		return fmt.Errorf("%w: deposit needs a holder and a token", ErrNilParam)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.adjust(r.store, holder, id, amount, true); err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{
		"holder": holder.String(),
		"token":  id.String(),
		"amount": amount.Dec(),
	}).Info("deposit credited")
	return nil
}

// Balance returns how much of id holder owns.
func (r *Runtime) Balance(holder, id token.ID) (u128.Int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return balanceKey(r.store, holder, id).U128()
}

// Storage returns a read view of a contract's namespace.
func (r *Runtime) Storage(id token.ID) storage.Store {
	return storage.Namespace(r.store, contractPrefix+id.String())
}
