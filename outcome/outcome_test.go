package outcome

import (
	"testing"

	"github.com/bitfsorg/libforge-go/bonus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	e := Engine{Threshold: 144}
	tests := []struct {
		name  string
		base  uint8
		bonus uint8
		final uint8
		win   bool
	}{
		{"scenario A", 150, 10, 160, true},
		{"scenario B", 100, 0, 100, false},
		{"equal loses", 134, 10, 144, false},
		{"one above wins", 145, 0, 145, true},
		{"saturates", 255, 255, 255, true},
		{"zero", 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.Evaluate(tt.base, tt.bonus)
			assert.Equal(t, tt.base, r.Base)
			assert.Equal(t, tt.bonus, r.Bonus)
			assert.Equal(t, tt.final, r.Final)
			assert.Equal(t, tt.win, r.Win)
		})
	}
}

func TestFinal_NeverExceedsMax(t *testing.T) {
	for base := 0; base < 256; base += 15 {
		for b := 0; b < 256; b += 17 {
			f := Final(uint8(base), uint8(b))
			assert.GreaterOrEqual(t, int(f), base)
			assert.LessOrEqual(t, int(f), 255)
		}
	}
}

func TestWinningBases(t *testing.T) {
	assert.Equal(t, 111, WinningBases(144, 0))
	assert.Equal(t, 256, WinningBases(0, 1))
	assert.Equal(t, 255, WinningBases(0, 0))
	assert.Equal(t, 0, WinningBases(255, 255))
}

func TestWinProbability(t *testing.T) {
	// 111 of 256 base values exceed 144.
	assert.InDelta(t, 111.0/256, WinProbability(144, 0), 1e-12)
	assert.InDelta(t, 121.0/256, WinProbability(144, 10), 1e-12)
	assert.Equal(t, 1.0, WinProbability(144, 255))
	assert.Equal(t, 0.0, WinProbability(255, 0))
}

func TestExpectedValue(t *testing.T) {
	p := WinProbability(144, 10)
	assert.InDelta(t, p*500-(1-p)*1000, ExpectedValue(1000, 500, 144, 10), 1e-9)
	assert.Equal(t, 0.0, ExpectedValue(0, 0, 144, 10))
}

func TestBreakEvenStake(t *testing.T) {
	s, err := bonus.NewSchedule(2000, 1000, 10)
	require.NoError(t, err)

	// Probability 0.5 needs 128 winning bases: bonus >= 17, i.e. two steps (bonus 20).
	stake, ok := BreakEvenStake(s, 144, 0.5, 1000, 100_000)
	require.True(t, ok)
	assert.Equal(t, uint64(4000), stake)

	_, ok = BreakEvenStake(s, 255, 0.5, 1000, 100_000)
	assert.False(t, ok)

	_, ok = BreakEvenStake(s, 144, 0.5, 0, 100_000)
	assert.False(t, ok)
}
