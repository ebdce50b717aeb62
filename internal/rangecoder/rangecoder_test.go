package rangecoder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitRoundTrip(t *testing.T) {
	bits := []int{0, 1, 1, 0, 0, 0, 1, 1, 1, 0, 1, 0, 0, 1, 1, 1, 0, 0}

	enc := NewEncoder()
	probs := NewProbs(1)
	for _, b := range bits {
		enc.EncodeBit(&probs[0], b)
	}
	enc.Flush()

	dec := NewDecoder(enc.Bytes())
	dprobs := NewProbs(1)
	for _, want := range bits {
		got := dec.DecodeBit(&dprobs[0])
		require.Equal(t, want, got)
	}
}

func TestBitTreeRoundTrip(t *testing.T) {
	symbols := []uint32{0, 7, 3, 5, 1, 6, 2, 4}
	const numBits = 3

	enc := NewEncoder()
	probs := NewProbs(1 << numBits)
	for _, s := range symbols {
		enc.EncodeBitTree(probs, numBits, s)
	}
	enc.Flush()

	dec := NewDecoder(enc.Bytes())
	dprobs := NewProbs(1 << numBits)
	for _, want := range symbols {
		got := dec.BitTree(dprobs, numBits)
		require.Equal(t, want, got)
	}
}

func TestBitTreeReverseRoundTrip(t *testing.T) {
	symbols := []uint32{0, 15, 8, 1, 14, 9}
	const numBits = 4

	enc := NewEncoder()
	probs := NewProbs(1 << numBits)
	for _, s := range symbols {
		enc.EncodeBitTreeReverse(probs, numBits, s)
	}
	enc.Flush()

	dec := NewDecoder(enc.Bytes())
	dprobs := NewProbs(1 << numBits)
	for _, want := range symbols {
		got := dec.BitTreeReverse(dprobs, numBits)
		require.Equal(t, want, got)
	}
}

func TestDirectBitsRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 255, 12345, 0xFFFFF}
	const numBits = 20

	enc := NewEncoder()
	for _, v := range values {
		enc.EncodeDirectBits(v, numBits)
	}
	enc.Flush()

	dec := NewDecoder(enc.Bytes())
	for _, want := range values {
		got := dec.DecodeDirectBits(numBits)
		require.Equal(t, want, got)
	}
}

func TestMixedStreamRoundTrip(t *testing.T) {
	enc := NewEncoder()
	bitProbs := NewProbs(4)
	treeProbs := NewProbs(8)

	enc.EncodeBit(&bitProbs[0], 1)
	enc.EncodeBitTree(treeProbs, 3, 5)
	enc.EncodeDirectBits(0xABCDE, 20)
	enc.EncodeBit(&bitProbs[1], 0)
	enc.Flush()

	dec := NewDecoder(enc.Bytes())
	dBitProbs := NewProbs(4)
	dTreeProbs := NewProbs(8)

	require.Equal(t, 1, dec.DecodeBit(&dBitProbs[0]))
	require.EqualValues(t, 5, dec.BitTree(dTreeProbs, 3))
	require.EqualValues(t, 0xABCDE, dec.DecodeDirectBits(20))
	require.Equal(t, 0, dec.DecodeBit(&dBitProbs[1]))
}
