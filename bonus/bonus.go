// Package bonus converts a stake quantity into a score bonus.
package bonus

import (
	"fmt"

	"github.com/bitfsorg/libforge-go/u128"
)

// Max is the largest bonus any calculator yields.
const Max = 255

// Calculator maps a stake quantity to a bonus in [0, 255].
type Calculator interface {
	Compute(quantity u128.Int) uint8
}

// Kind selects a calculator.
type Kind uint8

const (
	// KindSchedule selects a Schedule.
	KindSchedule Kind = 0
	// KindPerUnit selects a PerUnit calculator.
	KindPerUnit Kind = 1
)

// String returns the config name of k.
func (k Kind) String() string {
	switch k {
	case KindSchedule:
		return "schedule"
	case KindPerUnit:
		return "per-unit"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind parses a config name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "schedule", "":
		return KindSchedule, nil
	case "per-unit", "perunit":
		return KindPerUnit, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Schedule grants Points for every full Increment above Threshold.
type Schedule struct {
	Threshold u128.Int
	Increment u128.Int
	Points    u128.Int
}

// Compile-time interface check.
var _ Calculator = Schedule{}

// NewSchedule builds a validated schedule.
func NewSchedule(threshold, increment, points uint64) (Schedule, error) {
	s := Schedule{
		Threshold: u128.From(threshold),
		Increment: u128.From(increment),
		Points:    u128.From(points),
	}
	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// Validate checks that the increment is positive.
func (s Schedule) Validate() error {
	if s.Increment.IsZero() {
		return fmt.Errorf("%w: threshold %s", ErrZeroIncrement, s.Threshold.Dec())
	}
	return nil
}

// Compute returns 0 below the threshold, otherwise
// ((quantity - threshold) / increment) * points, capped at 255.
// A zero increment yields 0.
func (s Schedule) Compute(quantity u128.Int) uint8 {
	if quantity.Lt(&s.Threshold) || s.Increment.IsZero() {
		return 0
	}
	var excess, steps, total u128.Int
	excess.Sub(&quantity, &s.Threshold)
	steps.Div(&excess, &s.Increment)
	// Operands are 128-bit so the product always fits the 256-bit word.
	total.Mul(&steps, &s.Points)
	return u128.SaturatingUint8(total)
}

// PerUnit grants Multiplier points per staked unit, capped at 255.
type PerUnit struct {
	Multiplier u128.Int
}

// Compile-time interface check.
var _ Calculator = PerUnit{}

// Validate checks that the multiplier is positive.
func (p PerUnit) Validate() error {
	if p.Multiplier.IsZero() {
		return ErrZeroMultiplier
	}
	return nil
}

// Compute returns min(quantity * multiplier, 255).
func (p PerUnit) Compute(quantity u128.Int) uint8 {
	var total u128.Int
	total.Mul(&quantity, &p.Multiplier)
	return u128.SaturatingUint8(total)
}

// Stack adds bonuses, saturating at 255.
func Stack(bonuses ...uint8) uint8 {
	var sum uint
	for _, b := range bonuses {
		sum += uint(b)
		if sum >= Max {
			return Max
		}
	}
	return uint8(sum)
}
