package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/bitfsorg/libforge-go/anchor"
	"github.com/bitfsorg/libforge-go/factory"
	"github.com/bitfsorg/libforge-go/forge"
	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/pot"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
	"github.com/bitfsorg/libforge-go/wager"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// API exposes a forge client over HTTP.
type API struct {
	client *forge.Client
	log    logrus.FieldLogger
}

func NewAPI(client *forge.Client, log logrus.FieldLogger) *API {
	return &API{client: client, log: log}
}

func (a *API) Routes(e *echo.Echo) {
	g := e.Group("/api")

	g.GET("/stats", a.Stats)
	g.GET("/registry", a.Registry)
	g.GET("/registry/:block/:tx", a.IsRegistered)
	g.GET("/wagers/:id", a.Wager)
	g.GET("/pot/:window", a.Pot)
	g.GET("/odds", a.Odds)
	g.GET("/balances/:address/:block/:tx", a.Balance)
	g.POST("/invoke", a.Invoke)
}

type StatsResponse struct {
	Games      string  `json:"games"`
	Wins       string  `json:"wins"`
	Losses     string  `json:"losses"`
	Tokens     string  `json:"tokens_consumed"`
	Positions  string  `json:"positions_consumed"`
	WinRate    float64 `json:"win_rate"`
	WinRatePct uint32  `json:"win_rate_pct"`
}

func (a *API) Stats(c echo.Context) error {
	s, err := a.client.Stats()
	if err != nil {
		return a.fail(err)
	}
	losses := s.Losses()
	return c.JSON(http.StatusOK, StatsResponse{
		Games:      s.Games.Dec(),
		Wins:       s.Wins.Dec(),
		Losses:     losses.Dec(),
		Tokens:     s.Tokens.Dec(),
		Positions:  s.Positions.Dec(),
		WinRate:    s.WinRate(),
		WinRatePct: s.WinRatePercent(),
	})
}

type RegistryResponse struct {
	Count    int      `json:"count"`
	Children []string `json:"children"`
}

func (a *API) Registry(c echo.Context) error {
	ids, err := a.client.Registered()
	if err != nil {
		return a.fail(err)
	}
	children := make([]string, 0, len(ids))
	for _, id := range ids {
		children = append(children, id.String())
	}
	return c.JSON(http.StatusOK, RegistryResponse{Count: len(ids), Children: children})
}

func (a *API) IsRegistered(c echo.Context) error {
	id, err := token.ParseID(c.Param("block") + ":" + c.Param("tx"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid child id")
	}
	ok, err := a.client.IsRegistered(id)
	if err != nil {
		return a.fail(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"child":      id.String(),
		"registered": ok,
	})
}

type WagerResponse struct {
	ID          string `json:"id"`
	StakeToken  string `json:"stake_token"`
	StakeAmount string `json:"stake_amount"`
	TxID        string `json:"txid"`
	Merkle      string `json:"merkle"`
	Base        uint8  `json:"base"`
	Bonus       uint8  `json:"bonus"`
	Final       uint8  `json:"final"`
	Height      uint32 `json:"height"`
	Winner      bool   `json:"winner"`
}

func newWagerResponse(r *wager.Record) WagerResponse {
	return WagerResponse{
		ID:          r.ID.Dec(),
		StakeToken:  r.StakeToken.String(),
		StakeAmount: r.StakeAmount.Dec(),
		TxID:        hex.EncodeToString(r.TxID[:]),
		Merkle:      hex.EncodeToString(r.Merkle[:]),
		Base:        r.Base,
		Bonus:       r.Bonus,
		Final:       r.Final,
		Height:      r.Height,
		Winner:      r.Winner,
	}
}

// Wager returns one record; the id "latest" selects the newest.
func (a *API) Wager(c echo.Context) error {
	var (
		rec *wager.Record
		err error
	)
	if p := c.Param("id"); p == "latest" {
		rec, err = a.client.Latest()
	} else {
		id, perr := u128.Parse(p)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid wager id")
		}
		rec, err = a.client.Record(id)
	}
	if err != nil {
		return a.fail(err)
	}
	return c.JSON(http.StatusOK, newWagerResponse(rec))
}

type PotResponse struct {
	Window    uint64 `json:"window"`
	Losing    string `json:"losing"`
	Winning   string `json:"winning"`
	Paid      string `json:"paid"`
	Remaining string `json:"remaining"`
}

func (a *API) Pot(c echo.Context) error {
	w, err := strconv.ParseUint(c.Param("window"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid window")
	}
	t, err := a.client.Pot(w)
	if err != nil {
		return a.fail(err)
	}
	remaining := t.Remaining()
	return c.JSON(http.StatusOK, PotResponse{
		Window:    w,
		Losing:    t.Losing.Dec(),
		Winning:   t.Winning.Dec(),
		Paid:      t.Paid.Dec(),
		Remaining: remaining.Dec(),
	})
}

// breakEvenScan caps the number of stakes a break-even search may try.
const breakEvenScan = 1 << 16

type OddsResponse struct {
	Stake          string  `json:"stake"`
	Bonus          uint8   `json:"bonus"`
	Threshold      uint8   `json:"threshold"`
	WinProbability float64 `json:"win_probability"`
	Window         uint64  `json:"window"`
	ProjectedGain  string  `json:"projected_gain"`
	ExpectedValue  float64 `json:"expected_value"`
	BreakEven      string  `json:"break_even_stake,omitempty"`
}

// Odds prices a prospective stake. The payout on a win is projected from
// the current totals of window (default 0). With target set, it also
// searches multiples of step (default 1) up to max for the smallest stake
// whose win chance reaches target.
func (a *API) Odds(c echo.Context) error {
	stake, err := u128.Parse(c.QueryParam("stake"))
	if err != nil || stake.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid stake")
	}
	var window uint64
	if w := c.QueryParam("window"); w != "" {
		if window, err = strconv.ParseUint(w, 10, 64); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid window")
		}
	}

	odds, err := a.client.Odds(stake)
	if err != nil {
		return a.fail(err)
	}
	totals, err := a.client.Pot(window)
	if err != nil {
		return a.fail(err)
	}
	gain, err := pot.ProjectedGain(stake, totals)
	if err != nil {
		return a.fail(err)
	}
	out := OddsResponse{
		Stake:          stake.Dec(),
		Bonus:          odds.Bonus,
		Threshold:      odds.Threshold,
		WinProbability: odds.WinProbability(),
		Window:         window,
		ProjectedGain:  gain.Dec(),
		ExpectedValue:  odds.ExpectedValue(stake.Float64(), gain.Float64()),
	}

	if t := c.QueryParam("target"); t != "" {
		target, err := strconv.ParseFloat(t, 64)
		if err != nil || target <= 0 || target > 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "target must be in (0, 1]")
		}
		step, limit, err := scanRange(c.QueryParam("step"), c.QueryParam("max"))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		found, ok, err := a.client.BreakEven(target, step, limit)
		if err != nil {
			return a.fail(err)
		}
		if ok {
			out.BreakEven = strconv.FormatUint(found, 10)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func scanRange(stepParam, maxParam string) (uint64, uint64, error) {
	step := uint64(1)
	if stepParam != "" {
		n, err := strconv.ParseUint(stepParam, 10, 64)
		if err != nil || n == 0 {
			return 0, 0, errors.New("invalid step")
		}
		step = n
	}
	if step > math.MaxUint64/breakEvenScan {
		return 0, 0, errors.New("step too large")
	}
	limit := step * breakEvenScan
	if maxParam != "" {
		n, err := strconv.ParseUint(maxParam, 10, 64)
		if err != nil {
			return 0, 0, errors.New("invalid max")
		}
		if n/step > breakEvenScan {
			return 0, 0, fmt.Errorf("max allows more than %d steps", breakEvenScan)
		}
		limit = n
	}
	return step, limit, nil
}

type BalanceResponse struct {
	Account string `json:"account"`
	Token   string `json:"token"`
	Balance string `json:"balance"`
}

// Balance returns how much of a token an address's account holds.
func (a *API) Balance(c echo.Context) error {
	holder, err := host.AddressAccount(c.Param("address"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid address")
	}
	id, err := token.ParseID(c.Param("block") + ":" + c.Param("tx"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid token id")
	}
	bal, err := a.client.Balance(holder, id)
	if err != nil {
		return a.fail(err)
	}
	return c.JSON(http.StatusOK, BalanceResponse{
		Account: holder.String(),
		Token:   id.String(),
		Balance: bal.Dec(),
	})
}

type TransferJSON struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type ProofJSON struct {
	Index uint32   `json:"index"`
	Nodes []string `json:"nodes"`
}

// SourceJSON is the P2PKH output spent by input 0 of the raw transaction.
type SourceJSON struct {
	Satoshis      uint64 `json:"satoshis"`
	LockingScript string `json:"locking_script"`
}

// InvokeRequest is a top-level call. When Header is set the transaction is
// anchored to that block and Proof must place it there; otherwise the
// merkle value is derived from Height and the txid. When Source is set the
// call acts for the account that signed input 0; without it the call can
// move no tokens.
type InvokeRequest struct {
	RawTx    string         `json:"raw_tx"`
	Height   uint64         `json:"height"`
	Header   string         `json:"header,omitempty"`
	Proof    ProofJSON      `json:"proof"`
	Source   *SourceJSON    `json:"source,omitempty"`
	Opcode   uint64         `json:"opcode"`
	Args     []string       `json:"args"`
	Incoming []TransferJSON `json:"incoming"`
}

type InvokeResponse struct {
	TxID      string         `json:"txid"`
	Transfers []TransferJSON `json:"transfers"`
	Data      string         `json:"data"`
}

func (r *InvokeRequest) decode() (*host.Tx, []u128.Int, token.Parcel, error) {
	raw, err := hex.DecodeString(r.RawTx)
	if err != nil {
		return nil, nil, nil, echo.NewHTTPError(http.StatusBadRequest, "raw_tx is not hex")
	}
	tx, err := r.context(raw)
	if err != nil {
		return nil, nil, nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if r.Source != nil {
		lock, err := hex.DecodeString(r.Source.LockingScript)
		if err != nil {
			return nil, nil, nil, echo.NewHTTPError(http.StatusBadRequest, "source locking_script is not hex")
		}
		sender, err := host.SenderOf(raw, &transaction.TransactionOutput{
			Satoshis:      r.Source.Satoshis,
			LockingScript: script.NewFromBytes(lock),
		})
		if err != nil {
			return nil, nil, nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		tx.Sender = sender
	}

	args := make([]u128.Int, 0, len(r.Args))
	for _, s := range r.Args {
		v, err := u128.Parse(s)
		if err != nil {
			return nil, nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid argument "+strconv.Quote(s))
		}
		args = append(args, v)
	}

	incoming := make(token.Parcel, 0, len(r.Incoming))
	for _, t := range r.Incoming {
		id, err := token.ParseID(t.ID)
		if err != nil {
			return nil, nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid token id "+strconv.Quote(t.ID))
		}
		v, err := u128.Parse(t.Value)
		if err != nil {
			return nil, nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid value "+strconv.Quote(t.Value))
		}
		incoming = append(incoming, token.Transfer{ID: id, Value: v})
	}
	return tx, args, incoming, nil
}

func (r *InvokeRequest) context(raw []byte) (*host.Tx, error) {
	if r.Header == "" {
		return host.NewTxContext(raw, r.Height)
	}
	hb, err := hex.DecodeString(r.Header)
	if err != nil {
		return nil, fmt.Errorf("header is not hex: %w", err)
	}
	header, err := anchor.ParseHeader(hb, r.Height)
	if err != nil {
		return nil, err
	}
	proof := anchor.Proof{Index: r.Proof.Index, Nodes: make([]chainhash.Hash, 0, len(r.Proof.Nodes))}
	for _, n := range r.Proof.Nodes {
		h, err := chainhash.NewHashFromHex(n)
		if err != nil {
			return nil, fmt.Errorf("proof node %q: %w", n, err)
		}
		proof.Nodes = append(proof.Nodes, *h)
	}
	return host.NewAnchoredTx(raw, header, proof)
}

// Invoke runs a committed top-level call against the forge.
func (a *API) Invoke(c echo.Context) error {
	var req InvokeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	tx, args, incoming, err := req.decode()
	if err != nil {
		return err
	}

	resp, err := a.client.Call(tx, req.Opcode, args, incoming)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"txid":   tx.ID.String(),
			"sender": tx.Sender.String(),
			"opcode": req.Opcode,
		}).WithError(err).Warn("invoke rejected")
		return a.fail(err)
	}

	out := InvokeResponse{
		TxID:      tx.ID.String(),
		Transfers: make([]TransferJSON, 0, len(resp.Transfers)),
		Data:      hex.EncodeToString(resp.Data),
	}
	for _, t := range resp.Transfers {
		out.Transfers = append(out.Transfers, TransferJSON{ID: t.ID.String(), Value: t.Value.Dec()})
	}
	return c.JSON(http.StatusOK, out)
}

// fail maps contract errors to HTTP statuses.
func (a *API) fail(err error) error {
	switch {
	case errors.Is(err, wager.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, forge.ErrReplayDetected),
		errors.Is(err, pot.ErrAlreadyRedeemed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, forge.ErrInvalidStake),
		errors.Is(err, forge.ErrInvalidArguments),
		errors.Is(err, forge.ErrUnknownOpcode),
		errors.Is(err, forge.ErrNotInitialized),
		errors.Is(err, forge.ErrAlreadyInitialized),
		errors.Is(err, pot.ErrNotRegistered),
		errors.Is(err, pot.ErrNotAWinner),
		errors.Is(err, pot.ErrNotYetMatured),
		errors.Is(err, pot.ErrOwnershipNotProven),
		errors.Is(err, pot.ErrEmptyPot),
		errors.Is(err, factory.ErrChildNotReturned),
		errors.Is(err, host.ErrFuelExhausted),
		errors.Is(err, host.ErrInsufficientBalance),
		errors.Is(err, host.ErrNoSender),
		errors.Is(err, u128.ErrOverflow):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		a.log.WithError(err).Error("request failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
