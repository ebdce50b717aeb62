package bzip2_test

import (
	"bytes"
	"testing"

	"github.com/arvida-labs/compresscore/bzip2"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, level int, data []byte) {
	t.Helper()
	encoded := bzip2.Compress(data, level)
	got, err := bzip2.Decompress(encoded)
	require.NoError(t, err)
	require.True(t, bytes.Equal(got, data))
}

func TestRoundTrip(t *testing.T) {
	cases := map[string][]byte{
		"empty":       {},
		"single":      {'a'},
		"hello":       []byte("Hello, World! Hello, World! Hello, World!"),
		"zeros":       make([]byte, 5000),
		"allBytes":    allByteValues(),
		"repetitive":  bytes.Repeat([]byte("banana bandana "), 2000),
		"longRun":     bytes.Repeat([]byte{0x7f}, 100000),
	}
	for _, level := range []int{1, 9} {
		for name, data := range cases {
			data := data
			t.Run(name, func(t *testing.T) { roundTrip(t, level, data) })
		}
	}
}

// TestSingleByteHeaderScenario is spec.md §8's literal scenario: BZip2 of
// "a" at level 1 produces a stream whose first four bytes are the BZh1
// header, and whose decode returns "a".
func TestSingleByteHeaderScenario(t *testing.T) {
	encoded := bzip2.Compress([]byte("a"), 1)
	require.True(t, len(encoded) >= 4)
	require.Equal(t, []byte{0x42, 0x5A, 0x68, 0x31}, encoded[:4])
	got, err := bzip2.Decompress(encoded)
	require.NoError(t, err)
	require.Equal(t, []byte("a"), got)
}

func TestMultiBlockStream(t *testing.T) {
	// Level 1 -> 100000-byte blocks; this forces at least three blocks.
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog"), 10000)
	roundTrip(t, 1, data)
}

func TestMultiStreamConcatenation(t *testing.T) {
	// Concatenating two independent BZh members, the way `bzip2 -c a b >
	// both.bz2` does, must decode to the concatenation of their plaintexts.
	first := bzip2.Compress([]byte("Hello, World!"), 1)
	second := bzip2.Compress(bytes.Repeat([]byte("banana "), 2000), 3)
	got, err := bzip2.Decompress(append(append([]byte{}, first...), second...))
	require.NoError(t, err)
	require.Equal(t, append([]byte("Hello, World!"), bytes.Repeat([]byte("banana "), 2000)...), got)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := bzip2.Decompress([]byte("not a bzip2 stream"))
	require.Error(t, err)
}

func TestDecodeBoundedOutput(t *testing.T) {
	data := bytes.Repeat([]byte("overflow target data"), 10000)
	encoded := bzip2.Compress(data, 9)
	_, err := bzip2.Decompress(encoded, bzip2.WithMaxOutput(100))
	require.Error(t, err)
}

func TestDecodeDetectsCorruption(t *testing.T) {
	data := bytes.Repeat([]byte("corrupt me please"), 500)
	encoded := bzip2.Compress(data, 3)
	// Invert one byte well inside the entropy-coded payload.
	encoded[len(encoded)/2] ^= 0xFF
	_, err := bzip2.Decompress(encoded)
	require.Error(t, err)
}

func allByteValues() []byte {
	out := make([]byte, 256)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}
