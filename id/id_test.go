package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustID(t *testing.T, b byte) ID {
	t.Helper()
	buf := make([]byte, Size)
	buf[Size-1] = b
	out, err := New(buf)
	require.NoError(t, err)
	return out
}

func TestXorSymmetricAndSelfZero(t *testing.T) {
	a := mustID(t, 0x01)
	b := mustID(t, 0x80)

	assert.Equal(t, a.Xor(b), b.Xor(a))

	zero := make(ID, Size)
	assert.Equal(t, ID(zero), a.Xor(a))
}

func TestXorTriangleInequalityBitwiseOR(t *testing.T) {
	a := mustID(t, 0x0f)
	b := mustID(t, 0x33)
	c := mustID(t, 0xaa)

	ac := a.Xor(c)
	ab := a.Xor(b)
	bc := b.Xor(c)

	for i := range ac {
		or := ab[i] | bc[i]
		assert.Equal(t, byte(0), ac[i]&^or, "distance(a,c) must be bounded bitwise by distance(a,b)|distance(b,c)")
	}
}

func TestLeadingZerosAndIndex(t *testing.T) {
	self := make(ID, Size)
	other := make(ID, Size)
	other[0] = 0x01 // differs at bit 7 of byte 0

	assert.Equal(t, 7, Index(self, other))
}

func TestLessTieBreaksOnID(t *testing.T) {
	target := mustID(t, 0x00)
	a := mustID(t, 0x01)
	b := mustID(t, 0x01)
	assert.False(t, Less(target, a, b))
	assert.False(t, Less(target, b, a))

	c := mustID(t, 0x02)
	assert.True(t, Less(target, a, c))
}

func TestFromKeyDeterministic(t *testing.T) {
	k1 := FromKey([]byte("hello"))
	k2 := FromKey([]byte("hello"))
	assert.True(t, k1.Equal(k2))

	k3 := FromKey([]byte("world"))
	assert.False(t, k1.Equal(k3))
}

func TestStringRoundTrip(t *testing.T) {
	a := mustID(t, 0x42)
	s := a.String()
	back, err := Decode(s)
	require.NoError(t, err)
	assert.True(t, a.Equal(back))
}
