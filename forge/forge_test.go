package forge

import (
	"testing"

	"github.com/bitfsorg/libforge-go/bonus"
	"github.com/bitfsorg/libforge-go/coupon"
	"github.com/bitfsorg/libforge-go/entropy/entropytest"
	"github.com/bitfsorg/libforge-go/factory"
	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/pot"
	"github.com/bitfsorg/libforge-go/stats"
	"github.com/bitfsorg/libforge-go/storage"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
	"github.com/bitfsorg/libforge-go/wager"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	forgeID    = token.NewID(4, 0x400)
	templateID = token.NewID(6, 0x601)
	stakeToken = token.NewID(2, 0)
	player     = token.NewID(host.AccountBlock, 0xa1)
	stranger   = token.NewID(host.AccountBlock, 0x5e)
)

const (
	testFuel = 100_000
	bankroll = 1_000_000
)

// --- Helper functions ---

func testParams(t *testing.T) Params {
	t.Helper()
	s, err := bonus.NewSchedule(2000, 1000, 10)
	require.NoError(t, err)
	return Params{
		Threshold:      144,
		MinStake:       u128.From(1),
		Schedule:       s,
		StakeToken:     stakeToken,
		Template:       templateID,
		WindowBlocks:   100,
		MaturityBlocks: 100,
	}
}

type fixture struct {
	store  *storage.MemStore
	rt     *host.Runtime
	client *Client
}

func newFixture(t *testing.T, p Params) *fixture {
	t.Helper()
	s := storage.NewMemStore()
	rt, err := host.New(s, host.Options{CallCost: 10})
	require.NoError(t, err)
	f, err := New(p, nil)
	require.NoError(t, err)
	require.NoError(t, rt.Deploy(forgeID, f))
	require.NoError(t, rt.RegisterTemplate(templateID, coupon.Template{}))
	require.NoError(t, rt.Deposit(player, stakeToken, u128.From(bankroll)))

	c := NewClient(rt, forgeID, testFuel)
	require.NoError(t, c.Initialize(txAt(0xff, 0, 0)))
	return &fixture{store: s, rt: rt, client: c}
}

// txAt builds a transaction context sent by player whose base entropy is
// exactly base.
func txAt(seed byte, height uint64, base uint8) *host.Tx {
	txid := chainhash.DoubleHashH([]byte{seed, byte(height), byte(height >> 8)})
	tx := host.NewTx(txid, chainhash.Hash(entropytest.MerkleFor(txid, base)), height)
	tx.Sender = player
	return tx
}

func txFrom(sender token.ID, seed byte, height uint64) *host.Tx {
	tx := txAt(seed, height, 0)
	tx.Sender = sender
	return tx
}

func stake(n uint64) token.Parcel {
	return token.Parcel{{ID: stakeToken, Value: u128.From(n)}}
}

func proof(child token.ID) token.Parcel {
	return token.Parcel{{ID: child, Value: u128.From(1)}}
}

func (fx *fixture) win(t *testing.T, seed byte, height uint64, amount uint64) token.ID {
	t.Helper()
	resp, err := fx.client.Forge(txAt(seed, height, 200), stake(amount))
	require.NoError(t, err)
	require.Len(t, resp.Transfers, 1)
	return resp.Transfers[0].ID
}

func (fx *fixture) lose(t *testing.T, seed byte, height uint64, amount uint64) {
	t.Helper()
	resp, err := fx.client.Forge(txAt(seed, height, 0), stake(amount))
	require.NoError(t, err)
	require.Empty(t, resp.Transfers)
}

func (fx *fixture) stakeBalance(t *testing.T) uint64 {
	t.Helper()
	return fx.balance(t, forgeID, stakeToken)
}

func (fx *fixture) balance(t *testing.T, holder, id token.ID) uint64 {
	t.Helper()
	bal, err := fx.rt.Balance(holder, id)
	require.NoError(t, err)
	return bal.Uint64()
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func TestForge_ScenarioA(t *testing.T) {
	fx := newFixture(t, testParams(t))

	resp, err := fx.client.Forge(txAt(1, 10, 150), stake(3000))
	require.NoError(t, err)
	require.Len(t, resp.Transfers, 1)
	child := resp.Transfers[0]
	assert.Equal(t, token.NewID(host.SpawnBlock, 1), child.ID)
	assert.Equal(t, uint64(1), child.Value.Uint64())

	ok, err := fx.client.IsRegistered(child.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := fx.client.Latest()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.ID.Uint64())
	assert.Equal(t, uint8(150), rec.Base)
	assert.Equal(t, uint8(10), rec.Bonus)
	assert.Equal(t, uint8(160), rec.Final)
	assert.True(t, rec.Winner)
	assert.Equal(t, uint64(3000), rec.StakeAmount.Uint64())
	assert.Equal(t, uint32(10), rec.Height)

	s, err := fx.client.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Games.Uint64())
	assert.Equal(t, uint64(1), s.Wins.Uint64())
	losses := s.Losses()
	assert.True(t, losses.IsZero())
	assert.Equal(t, uint64(3000), s.Tokens.Uint64())
	assert.Equal(t, uint64(1), s.Positions.Uint64())

	// The child's details agree with the record.
	resp, err = fx.rt.View(txAt(2, 10, 0), token.NewCellpack(child.ID, factory.OpDetails), testFuel)
	require.NoError(t, err)
	d, err := factory.DecodeDetails(resp.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.CouponID.Uint64())
	assert.Equal(t, uint8(160), d.Final)

	assert.Equal(t, uint64(3000), fx.stakeBalance(t))
	assert.Equal(t, uint64(bankroll-3000), fx.balance(t, player, stakeToken))
	assert.Equal(t, uint64(1), fx.balance(t, player, child.ID))
}

func TestForge_ScenarioB(t *testing.T) {
	fx := newFixture(t, testParams(t))

	resp, err := fx.client.Forge(txAt(1, 10, 100), stake(500))
	require.NoError(t, err)
	assert.Empty(t, resp.Transfers)

	rec, err := fx.client.Latest()
	require.NoError(t, err)
	assert.Equal(t, uint8(0), rec.Bonus)
	assert.Equal(t, uint8(100), rec.Final)
	assert.False(t, rec.Winner)

	s, err := fx.client.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Games.Uint64())
	losses := s.Losses()
	assert.Equal(t, uint64(1), losses.Uint64())
	assert.True(t, s.Wins.IsZero())

	ids, err := fx.client.Registered()
	require.NoError(t, err)
	assert.Empty(t, ids)

	totals, err := fx.client.Pot(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), totals.Losing.Uint64())
	assert.True(t, totals.Winning.IsZero())

	// The stake is consumed.
	assert.Equal(t, uint64(500), fx.stakeBalance(t))
}

func TestForge_ThresholdIsExclusive(t *testing.T) {
	fx := newFixture(t, testParams(t))
	resp, err := fx.client.Forge(txAt(1, 10, 144), stake(500))
	require.NoError(t, err)
	assert.Empty(t, resp.Transfers)

	resp, err = fx.client.Forge(txAt(2, 10, 145), stake(500))
	require.NoError(t, err)
	assert.Len(t, resp.Transfers, 1)
}

// ---------------------------------------------------------------------------
// Replay, atomicity and validation
// ---------------------------------------------------------------------------

func TestForge_Replay(t *testing.T) {
	fx := newFixture(t, testParams(t))
	tx := txAt(1, 10, 150)

	_, err := fx.client.Forge(tx, stake(3000))
	require.NoError(t, err)
	before, err := fx.client.Stats()
	require.NoError(t, err)

	_, err = fx.client.Forge(tx, stake(3000))
	assert.ErrorIs(t, err, ErrReplayDetected)

	after, err := fx.client.Stats()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, uint64(3000), fx.stakeBalance(t))
}

func TestForge_AtomicMintFailure(t *testing.T) {
	p := testParams(t)
	p.Template = token.NewID(6, 0xbad)
	fx := newFixture(t, p)
	empty := host.ContractFunc(func(*host.Context) (*token.CallResponse, error) {
		return &token.CallResponse{}, nil
	})
	require.NoError(t, fx.rt.RegisterTemplate(p.Template, empty))

	tx := txAt(1, 10, 150)
	_, err := fx.client.Forge(tx, stake(3000))
	assert.ErrorIs(t, err, factory.ErrChildNotReturned)

	s, err := fx.client.Stats()
	require.NoError(t, err)
	assert.Equal(t, stats0(), s)

	ids, err := fx.client.Registered()
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = fx.client.Latest()
	assert.ErrorIs(t, err, wager.ErrRecordNotFound)
	assert.Zero(t, fx.stakeBalance(t))

	// Nothing was marked: a retry fails the same way, not as a replay.
	_, err = fx.client.Forge(tx, stake(3000))
	assert.ErrorIs(t, err, factory.ErrChildNotReturned)
}

func TestForge_InvalidStake(t *testing.T) {
	p := testParams(t)
	p.MinStake = u128.From(100)
	fx := newFixture(t, p)
	foreign := token.NewID(2, 5)
	require.NoError(t, fx.rt.Deposit(player, foreign, u128.From(1000)))

	tests := []struct {
		name   string
		parcel token.Parcel
	}{
		{"empty", nil},
		{"foreign token", token.Parcel{{ID: foreign, Value: u128.From(1000)}}},
		{"zero transfer", token.Parcel{{ID: stakeToken, Value: u128.From(500)}, {ID: stakeToken}}},
		{"below minimum", stake(99)},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.client.Forge(txAt(byte(i), 10, 200), tt.parcel)
			assert.ErrorIs(t, err, ErrInvalidStake)
		})
	}

	s, err := fx.client.Stats()
	require.NoError(t, err)
	assert.True(t, s.Games.IsZero())
}

func TestForge_MultiTransferStake(t *testing.T) {
	fx := newFixture(t, testParams(t))
	parcel := token.Parcel{{ID: stakeToken, Value: u128.From(1000)}, {ID: stakeToken, Value: u128.From(2000)}}
	resp, err := fx.client.Forge(txAt(1, 10, 134), parcel)
	require.NoError(t, err)
	// 3000 staked earns bonus 10: 134 + 10 = 144 is not above the threshold.
	assert.Empty(t, resp.Transfers)

	s, err := fx.client.Stats()
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), s.Tokens.Uint64())
	assert.Equal(t, uint64(2), s.Positions.Uint64())
}

func TestForge_Initialization(t *testing.T) {
	s := storage.NewMemStore()
	rt, err := host.New(s, host.Options{})
	require.NoError(t, err)
	f, err := New(testParams(t), nil)
	require.NoError(t, err)
	require.NoError(t, rt.Deploy(forgeID, f))
	require.NoError(t, rt.Deposit(player, stakeToken, u128.From(3000)))
	c := NewClient(rt, forgeID, testFuel)

	_, err = c.Forge(txAt(1, 10, 150), stake(3000))
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.Stats()
	assert.ErrorIs(t, err, ErrNotInitialized)

	ok, err := c.Initialized()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Initialize(txAt(2, 0, 0)))
	assert.ErrorIs(t, c.Initialize(txAt(3, 0, 0)), ErrAlreadyInitialized)

	ok, err = c.Initialized()
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.Call(txAt(4, 0, 0), OpInitialize, nil, nil)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestForge_UnknownOpcode(t *testing.T) {
	fx := newFixture(t, testParams(t))
	_, err := fx.client.Call(txAt(1, 10, 0), 99, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestNew_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero min stake", func(p *Params) { p.MinStake = u128.Int{} }},
		{"zero increment", func(p *Params) { p.Schedule.Increment = u128.Int{} }},
		{"no stake token", func(p *Params) { p.StakeToken = token.ID{} }},
		{"no template", func(p *Params) { p.Template = token.ID{} }},
		{"maturity inside window", func(p *Params) { p.MaturityBlocks = 10 }},
		{"per-unit without multiplier", func(p *Params) { p.Bonus = bonus.KindPerUnit }},
		{"unknown bonus kind", func(p *Params) { p.Bonus = bonus.Kind(7) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams(t)
			tt.mutate(&p)
			_, err := New(p, nil)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestParams_RoundTrip(t *testing.T) {
	p := testParams(t)
	p.ChildFuel = 5000
	p.Bonus = bonus.KindPerUnit
	p.Multiplier = u128.From(3)
	got, err := DeserializeParams(SerializeParams(&p))
	require.NoError(t, err)
	assert.Equal(t, &p, got)

	_, err = DeserializeParams([]byte{1})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestForge_UnbackedStake(t *testing.T) {
	fx := newFixture(t, testParams(t))
	huge, err := u128.Parse("1000000000000000000000000000000")
	require.NoError(t, err)

	_, err = fx.client.Forge(txAt(1, 10, 200), token.Parcel{{ID: stakeToken, Value: huge}})
	assert.ErrorIs(t, err, host.ErrInsufficientBalance)
	_, err = fx.client.Forge(txFrom(stranger, 2, 10), stake(1))
	assert.ErrorIs(t, err, host.ErrInsufficientBalance)

	s, err := fx.client.Stats()
	require.NoError(t, err)
	assert.True(t, s.Games.IsZero())
	assert.Zero(t, fx.stakeBalance(t))
	assert.Equal(t, uint64(bankroll), fx.balance(t, player, stakeToken))
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

func TestForge_RegistryRoundTrip(t *testing.T) {
	fx := newFixture(t, testParams(t))
	var want []token.ID
	for i := byte(0); i < 4; i++ {
		want = append(want, fx.win(t, i, 10, 1000))
		fx.lose(t, i+100, 10, 1000)
	}

	got, err := fx.client.Registered()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	for _, id := range got {
		ok, err := fx.client.IsRegistered(id)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	resp, err := fx.client.Call(txAt(50, 10, 0), OpRegistryLen, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, u128.Bytes(u128.From(4)), resp.Data)
}

// ---------------------------------------------------------------------------
// Redemption
// ---------------------------------------------------------------------------

func TestRedeem_PaysShareOnce(t *testing.T) {
	fx := newFixture(t, testParams(t))
	child := fx.win(t, 1, 10, 3000)
	fx.lose(t, 2, 20, 500)

	resp, err := fx.client.Redeem(txAt(3, 110, 0), child, proof(child))
	require.NoError(t, err)
	require.Len(t, resp.Transfers, 2)
	assert.Equal(t, stakeToken, resp.Transfers[0].ID)
	assert.Equal(t, uint64(3500), resp.Transfers[0].Value.Uint64())
	assert.Equal(t, proof(child)[0], resp.Transfers[1])
	assert.Zero(t, fx.stakeBalance(t))
	assert.Equal(t, uint64(bankroll), fx.balance(t, player, stakeToken))
	assert.Equal(t, uint64(1), fx.balance(t, player, child))

	_, err = fx.client.Redeem(txAt(4, 111, 0), child, proof(child))
	assert.ErrorIs(t, err, pot.ErrAlreadyRedeemed)

	totals, err := fx.client.Pot(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3500), totals.Paid.Uint64())
}

func TestRedeem_ProportionalSplit(t *testing.T) {
	fx := newFixture(t, testParams(t))
	a := fx.win(t, 1, 10, 3000)
	b := fx.win(t, 2, 11, 1000)
	fx.lose(t, 3, 12, 600)
	fx.lose(t, 4, 13, 400)
	// Next window; not shared.
	fx.lose(t, 5, 150, 7000)

	resp, err := fx.client.Redeem(txAt(6, 200, 0), a, proof(a))
	require.NoError(t, err)
	assert.Equal(t, uint64(3750), resp.Transfers[0].Value.Uint64())

	resp, err = fx.client.Redeem(txAt(7, 200, 0), b, proof(b))
	require.NoError(t, err)
	assert.Equal(t, uint64(1250), resp.Transfers[0].Value.Uint64())

	assert.Equal(t, uint64(7000), fx.stakeBalance(t))
}

func TestRedeem_Guards(t *testing.T) {
	fx := newFixture(t, testParams(t))
	child := fx.win(t, 1, 10, 3000)
	fx.lose(t, 2, 20, 500)

	_, err := fx.client.Redeem(txAt(3, 109, 0), child, proof(child))
	assert.ErrorIs(t, err, pot.ErrNotYetMatured)

	_, err = fx.client.Redeem(txAt(4, 110, 0), child, nil)
	assert.ErrorIs(t, err, pot.ErrOwnershipNotProven)

	_, err = fx.client.Call(txAt(5, 110, 0), OpRedeem, []u128.Int{child.Block}, proof(child))
	assert.ErrorIs(t, err, ErrInvalidArguments)

	// A failed attempt leaves the child redeemable.
	_, err = fx.client.Redeem(txAt(6, 110, 0), child, proof(child))
	require.NoError(t, err)
}

func TestRedeem_ReplaySameTx(t *testing.T) {
	fx := newFixture(t, testParams(t))
	a := fx.win(t, 1, 10, 1000)
	b := fx.win(t, 2, 10, 1000)
	fx.lose(t, 3, 10, 1000)

	tx := txAt(9, 200, 0)
	_, err := fx.client.Redeem(tx, a, proof(a))
	require.NoError(t, err)
	_, err = fx.client.Redeem(tx, b, proof(b))
	assert.ErrorIs(t, err, ErrReplayDetected)
}

func TestRedeem_SpoofedChild(t *testing.T) {
	fx := newFixture(t, testParams(t))
	fx.win(t, 1, 10, 3000)
	fx.lose(t, 2, 10, 3000)

	// A contract minting look-alike tokens of its own.
	spoofID := token.NewID(2, 0x5f00f)
	require.NoError(t, fx.rt.Deploy(spoofID, host.ContractFunc(func(ctx *host.Context) (*token.CallResponse, error) {
		return &token.CallResponse{Transfers: proof(ctx.Myself)}, nil
	})))
	_, err := fx.rt.Invoke(txAt(6, 10, 0), token.NewCellpack(spoofID, 0), nil, testFuel)
	require.NoError(t, err)
	_, err = fx.client.Redeem(txAt(3, 200, 0), spoofID, proof(spoofID))
	assert.ErrorIs(t, err, pot.ErrNotRegistered)

	// A genuine coupon instance minted by someone else's factory.
	rogueID := token.NewID(4, 0xbad)
	require.NoError(t, fx.rt.Deploy(rogueID, host.ContractFunc(func(ctx *host.Context) (*token.CallResponse, error) {
		req := factory.MintRequest{WagerID: u128.From(1), Final: 255, Base: 255, Stake: u128.From(1_000_000), Winner: true, Height: 10}
		return ctx.Call(req.Cellpack(templateID), nil, ctx.Fuel)
	})))
	resp, err := fx.rt.Invoke(txAt(4, 10, 0), token.NewCellpack(rogueID, 0), nil, testFuel)
	require.NoError(t, err)
	rogueChild := resp.Transfers[0].ID

	_, err = fx.client.Redeem(txAt(5, 200, 0), rogueChild, proof(rogueChild))
	assert.ErrorIs(t, err, pot.ErrNotRegistered)
}

func TestRedeem_NonHolder(t *testing.T) {
	fx := newFixture(t, testParams(t))
	child := fx.win(t, 1, 10, 3000)
	fx.lose(t, 2, 20, 500)

	// The child id is public, but the stranger never held a unit of it.
	_, err := fx.client.Redeem(txFrom(stranger, 3, 110), child, proof(child))
	assert.ErrorIs(t, err, pot.ErrOwnershipNotProven)
	_, err = fx.client.Redeem(txFrom(stranger, 4, 110), child, nil)
	assert.ErrorIs(t, err, pot.ErrOwnershipNotProven)

	// Going around the client still cannot spend units the stranger lacks.
	_, err = fx.rt.Invoke(txFrom(stranger, 5, 110), token.NewCellpack(forgeID, OpRedeem, child.Block, child.Tx), proof(child), testFuel)
	assert.ErrorIs(t, err, host.ErrInsufficientBalance)

	assert.Zero(t, fx.balance(t, stranger, stakeToken))
	assert.Equal(t, uint64(3500), fx.stakeBalance(t))

	// The holder is unaffected.
	resp, err := fx.client.Redeem(txAt(6, 110, 0), child, proof(child))
	require.NoError(t, err)
	assert.Equal(t, uint64(3500), resp.Transfers[0].Value.Uint64())
}

func TestRedeem_AfterGivingAway(t *testing.T) {
	fx := newFixture(t, testParams(t))
	child := fx.win(t, 1, 10, 3000)
	fx.lose(t, 2, 20, 500)

	// player sends the coupon to a contract that keeps it.
	relay := token.NewID(4, 0x7e1)
	require.NoError(t, fx.rt.Deploy(relay, host.ContractFunc(func(ctx *host.Context) (*token.CallResponse, error) {
		return &token.CallResponse{}, nil
	})))
	_, err := fx.rt.Invoke(txAt(3, 20, 0), token.NewCellpack(relay, 0), proof(child), testFuel)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), fx.balance(t, relay, child))

	_, err = fx.client.Redeem(txAt(4, 110, 0), child, proof(child))
	assert.ErrorIs(t, err, pot.ErrOwnershipNotProven)
}

func TestRedeem_Loser(t *testing.T) {
	fx := newFixture(t, testParams(t))
	fx.lose(t, 1, 10, 3000)
	_, err := fx.client.Redeem(txAt(2, 200, 0), token.NewID(host.SpawnBlock, 1), nil)
	assert.ErrorIs(t, err, pot.ErrNotRegistered)
}

// ---------------------------------------------------------------------------
// Getters
// ---------------------------------------------------------------------------

func TestGetters(t *testing.T) {
	fx := newFixture(t, testParams(t))
	fx.win(t, 1, 10, 3000)
	fx.lose(t, 2, 10, 500)
	fx.lose(t, 3, 10, 500)
	fx.lose(t, 4, 10, 500)

	call := func(op uint64, args ...u128.Int) []byte {
		resp, err := fx.rt.View(txAt(9, 10, 77), token.NewCellpack(forgeID, op, args...), testFuel)
		require.NoError(t, err, "opcode %d", op)
		return resp.Data
	}

	assert.Equal(t, u128.Bytes(u128.From(1)), call(OpWins))
	assert.Equal(t, u128.Bytes(u128.From(3)), call(OpLosses))
	assert.Equal(t, u128.Bytes(u128.From(4)), call(OpGames))
	assert.Equal(t, u128.Bytes(u128.From(4500)), call(OpTokens))
	assert.Equal(t, u128.Bytes(u128.From(4)), call(OpPositions))
	assert.Len(t, call(OpWinRate), 8)
	assert.Len(t, call(OpStats), 68)
	assert.Equal(t, u128.Bytes(u128.From(1)), call(OpMinStake))
	assert.Equal(t, u128.Bytes(u128.From(144)), call(OpThreshold))
	assert.Len(t, call(OpSchedule), 48)
	assert.Equal(t, templateID.Bytes(), call(OpTemplate))
	assert.Equal(t, u128.Bytes(u128.From(77)), call(OpBaseEntropy))
	assert.Len(t, call(OpRecord, u128.From(2)), wager.RecordSize)
	assert.Len(t, call(OpPot, u128.From(0)), 48)
	assert.Len(t, call(OpOdds, u128.From(3000)), 48)
	assert.Equal(t, make([]byte, 32), call(OpCalculator))

	rec, err := fx.client.Record(u128.From(1))
	require.NoError(t, err)
	assert.True(t, rec.Winner)

	_, err = fx.client.Record(u128.From(42))
	assert.ErrorIs(t, err, wager.ErrRecordNotFound)
}

func stats0() stats.Snapshot { return stats.Snapshot{} }

// ---------------------------------------------------------------------------
// Odds and calculator selection
// ---------------------------------------------------------------------------

func TestOdds(t *testing.T) {
	fx := newFixture(t, testParams(t))

	tests := []struct {
		stake uint64
		bonus uint8
		wins  int
	}{
		{500, 0, 111},
		{3000, 10, 121},
		{4000, 20, 131},
		{1_000_000, 255, 256},
	}
	for _, tt := range tests {
		o, err := fx.client.Odds(u128.From(tt.stake))
		require.NoError(t, err)
		assert.Equal(t, tt.bonus, o.Bonus, "stake %d", tt.stake)
		assert.Equal(t, uint8(144), o.Threshold)
		assert.Equal(t, tt.wins, o.WinningBases, "stake %d", tt.stake)
		assert.InDelta(t, float64(tt.wins)/256, o.WinProbability(), 1e-12)
	}

	o, err := fx.client.Odds(u128.From(3000))
	require.NoError(t, err)
	p := 121.0 / 256
	assert.InDelta(t, p*500-(1-p)*3000, o.ExpectedValue(3000, 500), 1e-9)

	_, err = fx.client.Call(txAt(1, 10, 0), OpOdds, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestBreakEven(t *testing.T) {
	fx := newFixture(t, testParams(t))

	calc, err := fx.client.Calculator()
	require.NoError(t, err)
	assert.Equal(t, testParams(t).Schedule, calc)

	stake, ok, err := fx.client.BreakEven(0.5, 1000, 100_000)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(4000), stake)

	_, ok, err = fx.client.BreakEven(1.0, 1000, 10_000)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForge_PerUnitBonus(t *testing.T) {
	p := testParams(t)
	p.Bonus = bonus.KindPerUnit
	p.Multiplier = u128.From(2)
	fx := newFixture(t, p)

	calc, err := fx.client.Calculator()
	require.NoError(t, err)
	assert.Equal(t, bonus.PerUnit{Multiplier: u128.From(2)}, calc)

	// 10 units earn bonus 20 under the per-unit rule but nothing under the schedule.
	resp, err := fx.client.Forge(txAt(1, 10, 130), stake(10))
	require.NoError(t, err)
	assert.Len(t, resp.Transfers, 1)

	rec, err := fx.client.Latest()
	require.NoError(t, err)
	assert.Equal(t, uint8(20), rec.Bonus)
	assert.Equal(t, uint8(150), rec.Final)

	o, err := fx.client.Odds(u128.From(10))
	require.NoError(t, err)
	assert.Equal(t, uint8(20), o.Bonus)
}

func TestValidateStake(t *testing.T) {
	total, err := ValidateStake(token.Parcel{{ID: stakeToken, Value: u128.From(2)}, {ID: stakeToken, Value: u128.From(3)}}, stakeToken, u128.From(5))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), total.Uint64())

	_, err = ValidateStake(token.Parcel{{ID: stakeToken, Value: u128.Max}, {ID: stakeToken, Value: u128.From(1)}}, stakeToken, u128.From(1))
	assert.ErrorIs(t, err, ErrInvalidStake)
	assert.ErrorIs(t, err, u128.ErrOverflow)
}
