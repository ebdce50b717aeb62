package bitio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLSBRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewLSBWriter(&buf)
	w.WriteBits(0x5, 3)
	w.WriteBits(0x2a, 7)
	w.WriteBit(true)
	w.WriteBit(false)
	require.NoError(t, w.Flush())

	r := NewLSBReader(&buf)
	require.EqualValues(t, 0x5, r.ReadBits(3))
	require.EqualValues(t, 0x2a, r.ReadBits(7))
	require.True(t, r.ReadBit())
	require.False(t, r.ReadBit())
	require.NoError(t, r.Err())
}

func TestMSBRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewMSBWriter(&buf)
	w.WriteBits(0x5, 3)
	w.WriteBits(0x2a, 7)
	w.WriteBit(true)
	w.WriteBit(false)
	require.NoError(t, w.Flush())

	r := NewMSBReader(&buf)
	require.EqualValues(t, 0x5, r.ReadBits(3))
	require.EqualValues(t, 0x2a, r.ReadBits(7))
	require.True(t, r.ReadBit())
	require.False(t, r.ReadBit())
	require.NoError(t, r.Err())
}

func TestLSBAlignedBytes(t *testing.T) {
	var buf bytes.Buffer
	w := NewLSBWriter(&buf)
	w.WriteBits(0x3, 3)
	w.WriteAlignedBytes([]byte{0xAA, 0xBB, 0xCC})

	r := NewLSBReader(&buf)
	require.EqualValues(t, 0x3, r.ReadBits(3))
	r.AlignToByte()
	got := make([]byte, 3)
	r.ReadAlignedBytes(got)
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC}, got)
}

func TestMSBResidualInvariant(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 100; i++ {
		buf.WriteByte(byte(i))
	}
	r := NewMSBReader(&buf)
	for i := 0; i < 50; i++ {
		r.ReadBits(3)
		if r.Residual() > 31 {
			// wide accumulator is allowed to exceed 31 only because of
			// Prefetch; plain ReadBits usage must stay within it.
			t.Fatalf("residual bits %d exceeds invariant", r.Residual())
		}
	}
}
