// Package u128 provides the 128-bit unsigned quantities used for stakes,
// identifiers and counters. Values are held in a holiman/uint256 word and
// every arithmetic helper rejects results that do not fit in 128 bits.
package u128

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// Size is the encoded length of a 128-bit value in bytes.
const Size = 16

// Int is a 128-bit unsigned integer. The upper two limbs of the underlying
// uint256 word are always zero.
type Int = uint256.Int

// Max is the largest representable value (2^128 - 1).
var Max = Int{^uint64(0), ^uint64(0), 0, 0}

// From returns v as a 128-bit value.
func From(v uint64) Int {
	return Int{v, 0, 0, 0}
}

// Fits reports whether x is representable in 128 bits.
func Fits(x *Int) bool {
	return x[2] == 0 && x[3] == 0
}

// Add returns a + b, or ErrOverflow if the sum exceeds 128 bits.
func Add(a, b Int) (Int, error) {
	var z Int
	if _, overflow := z.AddOverflow(&a, &b); overflow || !Fits(&z) {
		return Int{}, fmt.Errorf("%w: %s + %s", ErrOverflow, a.Dec(), b.Dec())
	}
	return z, nil
}

// Sub returns a - b, or ErrUnderflow if b > a.
func Sub(a, b Int) (Int, error) {
	var z Int
	if _, underflow := z.SubOverflow(&a, &b); underflow {
		return Int{}, fmt.Errorf("%w: %s - %s", ErrUnderflow, a.Dec(), b.Dec())
	}
	return z, nil
}

// Mul returns a * b, or ErrOverflow if the product exceeds 128 bits.
func Mul(a, b Int) (Int, error) {
	var z Int
	if _, overflow := z.MulOverflow(&a, &b); overflow || !Fits(&z) {
		return Int{}, fmt.Errorf("%w: %s * %s", ErrOverflow, a.Dec(), b.Dec())
	}
	return z, nil
}

// Div returns a / b. Division by zero yields ErrDivByZero.
func Div(a, b Int) (Int, error) {
	if b.IsZero() {
		return Int{}, ErrDivByZero
	}
	var z Int
	z.Div(&a, &b)
	return z, nil
}

// MulDiv returns floor(a * b / d). The product is formed in 256 bits, so it
// cannot overflow for 128-bit operands; only the quotient must fit.
func MulDiv(a, b, d Int) (Int, error) {
	if d.IsZero() {
		return Int{}, ErrDivByZero
	}
	var prod, z Int
	prod.Mul(&a, &b)
	z.Div(&prod, &d)
	if !Fits(&z) {
		return Int{}, fmt.Errorf("%w: %s * %s / %s", ErrOverflow, a.Dec(), b.Dec(), d.Dec())
	}
	return z, nil
}

// SaturatingUint8 clamps x to [0, 255].
func SaturatingUint8(x Int) uint8 {
	if !x.IsUint64() || x.Uint64() > 255 {
		return 255
	}
	return uint8(x.Uint64())
}

// PutLE writes x into buf[0:16] in little-endian order.
func PutLE(buf []byte, x Int) {
	binary.LittleEndian.PutUint64(buf[0:8], x[0])
	binary.LittleEndian.PutUint64(buf[8:16], x[1])
}

// LE reads a little-endian value from buf[0:16].
func LE(buf []byte) Int {
	return Int{
		binary.LittleEndian.Uint64(buf[0:8]),
		binary.LittleEndian.Uint64(buf[8:16]),
		0, 0,
	}
}

// Bytes returns the 16-byte little-endian encoding of x.
func Bytes(x Int) []byte {
	buf := make([]byte, Size)
	PutLE(buf, x)
	return buf
}

// FromBytes decodes a 16-byte little-endian value. Shorter input is treated
// as a zero-extended prefix, matching how an absent or truncated storage
// slot reads as zero; longer input is rejected.
func FromBytes(b []byte) (Int, error) {
	if len(b) > Size {
		return Int{}, fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(b))
	}
	var buf [Size]byte
	copy(buf[:], b)
	return LE(buf[:]), nil
}

// Parse parses a decimal string into a 128-bit value.
func Parse(s string) (Int, error) {
	z, err := uint256.FromDecimal(s)
	if err != nil {
		return Int{}, fmt.Errorf("%w: %q: %w", ErrInvalidDecimal, s, err)
	}
	if !Fits(z) {
		return Int{}, fmt.Errorf("%w: %s", ErrOverflow, s)
	}
	return *z, nil
}
