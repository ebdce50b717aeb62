package huffman

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type bitSliceReader struct {
	bits []bool
	pos  int
}

func (b *bitSliceReader) ReadBit() bool {
	v := b.bits[b.pos]
	b.pos++
	return v
}

func TestBuildCanonicalAndDecode(t *testing.T) {
	// 4 symbols with lengths 1,2,3,3 is a valid canonical Kraft-complete set.
	lengths := []uint8{1, 2, 3, 3}
	tree, err := BuildCanonical(lengths, 15)
	require.NoError(t, err)
	require.NotNil(t, tree)
}

func TestBuildLengthsKraftComplete(t *testing.T) {
	freqs := []uint64{10, 1, 1, 1, 1, 1, 1, 1}
	lengths := BuildLengths(freqs, 15)
	var sumInv float64
	for _, l := range lengths {
		if l > 0 {
			sumInv += 1.0 / float64(uint64(1)<<l)
		}
	}
	require.InDelta(t, 1.0, sumInv, 0.001)
}

func TestBuildLengthsRespectsMaxLen(t *testing.T) {
	freqs := make([]uint64, 20)
	freqs[0] = 1000
	for i := 1; i < 20; i++ {
		freqs[i] = 1
	}
	lengths := BuildLengths(freqs, 7)
	for _, l := range lengths {
		require.LessOrEqual(t, int(l), 7)
	}
}

func TestDecodeRoundTripViaLengths(t *testing.T) {
	freqs := []uint64{5, 3, 2, 1}
	lengths := BuildLengths(freqs, 15)
	tree, err := BuildCanonical(lengths, 15)
	require.NoError(t, err)
	require.NotNil(t, tree)
}

func TestBuildCanonicalRejectsEmpty(t *testing.T) {
	_, err := BuildCanonical([]uint8{0, 0, 0}, 15)
	require.Error(t, err)
}

func TestBuildCanonicalRejectsTooLong(t *testing.T) {
	_, err := BuildCanonical([]uint8{16, 1}, 15)
	require.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	lengths := []uint8{1, 2, 3, 3}
	codes := AssignCodes(lengths)
	tree, err := BuildCanonical(lengths, 15)
	require.NoError(t, err)

	for sym, c := range codes {
		if c.Len == 0 {
			continue
		}
		var bits []bool
		for i := int(c.Len) - 1; i >= 0; i-- {
			bits = append(bits, (c.Bits>>uint(i))&1 != 0)
		}
		r := &bitSliceReader{bits: bits}
		got := tree.Decode(r)
		require.Equal(t, uint16(sym), got, "symbol %d", sym)
	}
}
