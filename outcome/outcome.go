// Package outcome classifies a wager from its base entropy and bonus.
package outcome

import (
	"github.com/bitfsorg/libforge-go/bonus"
	"github.com/bitfsorg/libforge-go/u128"
)

// Result is the evaluated score of one wager.
type Result struct {
	Base  uint8
	Bonus uint8
	Final uint8
	Win   bool
}

// Engine applies the win condition. A wager wins when its final score is
// strictly greater than Threshold.
type Engine struct {
	Threshold uint8
}

// Final returns base + bonus, saturating at 255.
func Final(base, b uint8) uint8 {
	return bonus.Stack(base, b)
}

// Wins reports whether final beats the threshold.
func (e Engine) Wins(final uint8) bool {
	return final > e.Threshold
}

// Evaluate combines base and bonus and classifies the result.
func (e Engine) Evaluate(base, b uint8) Result {
	final := Final(base, b)
	return Result{Base: base, Bonus: b, Final: final, Win: e.Wins(final)}
}

// WinningBases counts the base bytes that win with bonus b.
func WinningBases(threshold, b uint8) int {
	e := Engine{Threshold: threshold}
	wins := 0
	for base := 0; base < 256; base++ {
		if e.Wins(Final(uint8(base), b)) {
			wins++
		}
	}
	return wins
}

// WinProbability returns the probability that a uniformly distributed base
// byte wins given a fixed bonus.
func WinProbability(threshold, b uint8) float64 {
	return float64(WinningBases(threshold, b)) / 256
}

// ExpectedValue returns the expected net gain of staking stake when a win
// pays payout in addition to the returned stake and a loss forfeits it.
func ExpectedValue(stake, payout float64, threshold, b uint8) float64 {
	p := WinProbability(threshold, b)
	return p*payout - (1-p)*stake
}

// BreakEvenStake scans stakes from step to max in increments of step and
// returns the smallest one whose win probability under schedule reaches
// target. It returns false when none does.
func BreakEvenStake(schedule bonus.Calculator, threshold uint8, target float64, step, max uint64) (uint64, bool) {
	if step == 0 {
		return 0, false
	}
	for stake := step; stake <= max; stake += step {
		b := schedule.Compute(u128.From(stake))
		if WinProbability(threshold, b) >= target {
			return stake, true
		}
		if stake > max-step {
			break
		}
	}
	return 0, false
}
