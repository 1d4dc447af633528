package forge

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/outcome"
	"github.com/bitfsorg/libforge-go/registry"
	"github.com/bitfsorg/libforge-go/stats"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
	"github.com/bitfsorg/libforge-go/wager"
)

// query answers the read-only opcodes.
func (st *state) query(ctx *host.Context, op uint64) ([]byte, error) {
	switch op {
	case OpWins, OpLosses, OpGames, OpTokens, OpPositions, OpWinRate, OpStats:
		snap, err := st.stats.Snapshot()
		if err != nil {
			return nil, err
		}
		return statsWord(snap, op), nil

	case OpMinStake:
		return u128.Bytes(st.params.MinStake), nil
	case OpThreshold:
		return u128.Bytes(u128.From(uint64(st.params.Threshold))), nil
	case OpSchedule:
		s := st.params.Schedule
		return concat(u128.Bytes(s.Threshold), u128.Bytes(s.Increment), u128.Bytes(s.Points)), nil
	case OpTemplate:
		return st.params.Template.Bytes(), nil

	case OpPot:
		w, err := smallArg(ctx, 0)
		if err != nil {
			return nil, err
		}
		t, err := st.pot.Totals(w)
		if err != nil {
			return nil, err
		}
		return concat(u128.Bytes(t.Losing), u128.Bytes(t.Winning), u128.Bytes(t.Paid)), nil

	case OpRecord:
		args := ctx.Args()
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: record takes a wager id", ErrInvalidArguments)
		}
		rec, err := st.wagers.Get(args[0])
		if err != nil {
			return nil, err
		}
		return wager.Serialize(rec), nil
	case OpLatest:
		id, err := st.wagers.Latest()
		if err != nil {
			return nil, err
		}
		rec, err := st.wagers.Get(id)
		if err != nil {
			return nil, err
		}
		return wager.Serialize(rec), nil
	case OpBaseEntropy:
		return u128.Bytes(u128.From(uint64(ctx.Tx.BaseEntropy()))), nil
	case OpOdds:
		args := ctx.Args()
		if len(args) != 1 {
			return nil, fmt.Errorf("%w: odds takes a stake", ErrInvalidArguments)
		}
		b := st.params.Calculator().Compute(args[0])
		wins := outcome.WinningBases(st.params.Threshold, b)
		return concat(
			u128.Bytes(u128.From(uint64(b))),
			u128.Bytes(u128.From(uint64(wins))),
			u128.Bytes(u128.From(uint64(st.params.Threshold))),
		), nil
	case OpCalculator:
		return concat(u128.Bytes(u128.From(uint64(st.params.Bonus))), u128.Bytes(st.params.Multiplier)), nil

	case OpRegistryList:
		ids, err := st.registry.List()
		if err != nil {
			return nil, err
		}
		return registry.EncodeList(ids), nil
	case OpIsRegistered:
		args := ctx.Args()
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: is-registered takes block and tx", ErrInvalidArguments)
		}
		ok, err := st.registry.IsRegistered(token.ID{Block: args[0], Tx: args[1]})
		if err != nil {
			return nil, err
		}
		flag := uint64(0)
		if ok {
			flag = 1
		}
		return u128.Bytes(u128.From(flag)), nil
	case OpRegistryLen:
		n, err := st.registry.Count()
		if err != nil {
			return nil, err
		}
		return u128.Bytes(n), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, op)
}

func statsWord(s stats.Snapshot, op uint64) []byte {
	switch op {
	case OpWins:
		return u128.Bytes(s.Wins)
	case OpLosses:
		return u128.Bytes(s.Losses())
	case OpGames:
		return u128.Bytes(s.Games)
	case OpTokens:
		return u128.Bytes(s.Tokens)
	case OpPositions:
		return u128.Bytes(s.Positions)
	case OpWinRate:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(s.WinRate()*100))
		return buf
	}
	return s.Pack()
}

func smallArg(ctx *host.Context, i int) (uint64, error) {
	args := ctx.Args()
	if len(args) <= i {
		return 0, fmt.Errorf("%w: missing input %d", ErrInvalidArguments, i)
	}
	if !args[i].IsUint64() {
		return 0, fmt.Errorf("%w: input %d out of range", ErrInvalidArguments, i)
	}
	return args[i].Uint64(), nil
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
