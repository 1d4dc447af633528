// Package stats keeps the aggregate wager counters.
package stats

import (
	"encoding/binary"
	"fmt"

	"github.com/bitfsorg/libforge-go/storage"
	"github.com/bitfsorg/libforge-go/u128"
)

const (
	keyGames     = "/total_games"
	keyWins      = "/total_wins"
	keyTokens    = "/total_tokens_consumed"
	keyPositions = "/total_positions_consumed"

	// PackedSize is the encoded length of a packed snapshot:
	// games(16) + wins(16) + tokens(16) + positions(16) + win_rate_pct(4).
	PackedSize = 4*u128.Size + 4
)

// Snapshot is a consistent read of every counter.
type Snapshot struct {
	Games     u128.Int
	Wins      u128.Int
	Tokens    u128.Int
	Positions u128.Int
}

// Losses returns games - wins.
func (s Snapshot) Losses() u128.Int {
	var out u128.Int
	if s.Wins.Gt(&s.Games) {
		return out
	}
	out.Sub(&s.Games, &s.Wins)
	return out
}

// WinRate returns wins / games in [0, 1], or 0 before any game.
func (s Snapshot) WinRate() float64 {
	if s.Games.IsZero() {
		return 0
	}
	return s.Wins.Float64() / s.Games.Float64()
}

// WinRatePercent returns floor(wins * 100 / games).
func (s Snapshot) WinRatePercent() uint32 {
	if s.Games.IsZero() {
		return 0
	}
	pct, err := u128.MulDiv(s.Wins, u128.From(100), s.Games)
	if err != nil || !pct.IsUint64() || pct.Uint64() > 100 {
		return 100
	}
	return uint32(pct.Uint64())
}

// Pack encodes the snapshot in its 68-byte response form.
func (s Snapshot) Pack() []byte {
	buf := make([]byte, PackedSize)
	u128.PutLE(buf[0:16], s.Games)
	u128.PutLE(buf[16:32], s.Wins)
	u128.PutLE(buf[32:48], s.Tokens)
	u128.PutLE(buf[48:64], s.Positions)
	binary.LittleEndian.PutUint32(buf[64:68], s.WinRatePercent())
	return buf
}

// Unpack decodes a packed snapshot and returns the carried win rate.
func Unpack(data []byte) (Snapshot, uint32, error) {
	if len(data) != PackedSize {
		return Snapshot{}, 0, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPacked, PackedSize, len(data))
	}
	s := Snapshot{
		Games:     u128.LE(data[0:16]),
		Wins:      u128.LE(data[16:32]),
		Tokens:    u128.LE(data[32:48]),
		Positions: u128.LE(data[48:64]),
	}
	return s, binary.LittleEndian.Uint32(data[64:68]), nil
}

// Ledger reads and updates the counters in a store.
type Ledger struct {
	store storage.Store
}

// NewLedger returns a ledger over s.
func NewLedger(s storage.Store) *Ledger {
	return &Ledger{store: s}
}

// Snapshot reads every counter.
func (l *Ledger) Snapshot() (Snapshot, error) {
	var s Snapshot
	for _, f := range []struct {
		key string
		dst *u128.Int
	}{
		{keyGames, &s.Games},
		{keyWins, &s.Wins},
		{keyTokens, &s.Tokens},
		{keyPositions, &s.Positions},
	} {
		v, err := storage.At(l.store, f.key).U128()
		if err != nil {
			return Snapshot{}, fmt.Errorf("stats: read %s: %w", f.key, err)
		}
		*f.dst = v
	}
	if s.Wins.Gt(&s.Games) {
		return Snapshot{}, fmt.Errorf("%w: %s > %s", ErrInconsistent, s.Wins.Dec(), s.Games.Dec())
	}
	return s, nil
}

// Record counts one wager: games += 1, wins += 1 on a win, tokens += units
// staked and positions += number of stake transfers. All additions are
// checked; on overflow nothing is written.
func (l *Ledger) Record(win bool, tokens u128.Int, positions uint64) (Snapshot, error) {
	s, err := l.Snapshot()
	if err != nil {
		return Snapshot{}, err
	}
	one := u128.From(1)

	next := s
	if next.Games, err = u128.Add(s.Games, one); err != nil {
		return Snapshot{}, fmt.Errorf("stats: games: %w", err)
	}
	if win {
		if next.Wins, err = u128.Add(s.Wins, one); err != nil {
			return Snapshot{}, fmt.Errorf("stats: wins: %w", err)
		}
	}
	if next.Tokens, err = u128.Add(s.Tokens, tokens); err != nil {
		return Snapshot{}, fmt.Errorf("stats: tokens: %w", err)
	}
	if next.Positions, err = u128.Add(s.Positions, u128.From(positions)); err != nil {
		return Snapshot{}, fmt.Errorf("stats: positions: %w", err)
	}

	err = l.store.Apply([]storage.Write{
		storage.At(l.store, keyGames).Write(u128.Bytes(next.Games)),
		storage.At(l.store, keyWins).Write(u128.Bytes(next.Wins)),
		storage.At(l.store, keyTokens).Write(u128.Bytes(next.Tokens)),
		storage.At(l.store, keyPositions).Write(u128.Bytes(next.Positions)),
	})
	if err != nil {
		return Snapshot{}, err
	}
	return next, nil
}
