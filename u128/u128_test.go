package u128

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	sum, err := Add(From(40), From(2))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), sum.Uint64())

	_, err = Add(Max, From(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestSub(t *testing.T) {
	diff, err := Sub(From(10), From(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), diff.Uint64())

	_, err = Sub(From(3), From(10))
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestMul(t *testing.T) {
	p, err := Mul(From(1<<32), From(1<<32))
	require.NoError(t, err)
	assert.Equal(t, Int{0, 1, 0, 0}, p)

	_, err = Mul(Max, From(2))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMulDiv(t *testing.T) {
	// Max * Max does not fit in 128 bits, but the quotient does.
	q, err := MulDiv(Max, Max, Max)
	require.NoError(t, err)
	assert.Equal(t, Max, q)

	q, err = MulDiv(From(3000), From(5000), From(4000))
	require.NoError(t, err)
	assert.Equal(t, uint64(3750), q.Uint64())

	_, err = MulDiv(Max, From(2), From(1))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MulDiv(From(1), From(1), Int{})
	assert.ErrorIs(t, err, ErrDivByZero)
}

func TestSaturatingUint8(t *testing.T) {
	assert.Equal(t, uint8(0), SaturatingUint8(From(0)))
	assert.Equal(t, uint8(200), SaturatingUint8(From(200)))
	assert.Equal(t, uint8(255), SaturatingUint8(From(256)))
	assert.Equal(t, uint8(255), SaturatingUint8(Max))
}

func TestLittleEndianLayout(t *testing.T) {
	x := Int{0x0102030405060708, 0x1112131415161718, 0, 0}
	b := Bytes(x)
	require.Len(t, b, Size)
	assert.Equal(t, byte(0x08), b[0])
	assert.Equal(t, byte(0x01), b[7])
	assert.Equal(t, byte(0x18), b[8])
	assert.Equal(t, byte(0x11), b[15])
	assert.Equal(t, x, LE(b))
}

func TestFromBytes(t *testing.T) {
	v, err := FromBytes(nil)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = FromBytes([]byte{0x01, 0x01})
	require.NoError(t, err)
	assert.Equal(t, uint64(257), v.Uint64())

	_, err = FromBytes(make([]byte, 17))
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestParse(t *testing.T) {
	v, err := Parse("340282366920938463463374607431768211455")
	require.NoError(t, err)
	assert.Equal(t, Max, v)

	_, err = Parse("340282366920938463463374607431768211456")
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Parse("12a")
	assert.ErrorIs(t, err, ErrInvalidDecimal)
}
