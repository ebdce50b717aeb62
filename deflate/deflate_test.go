package deflate

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripAllLevels(t *testing.T) {
	inputs := []string{
		"",
		"a",
		"Hello, World!",
		strings.Repeat("ab", 1000),
		strings.Repeat("the quick brown fox jumps over the lazy dog. ", 200),
	}
	for level := 0; level <= 9; level++ {
		for _, in := range inputs {
			compressed := Compress([]byte(in), level)
			got, err := Decompress(compressed)
			require.NoError(t, err, "level=%d input=%q", level, in)
			require.Equal(t, in, string(got), "level=%d input=%q", level, in)
		}
	}
}

func TestHelloWorldLevel6(t *testing.T) {
	in := "Hello, World!"
	compressed := Compress([]byte(in), 6)
	got, err := Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, in, string(got))
	require.Len(t, got, 13)
}

func TestRandomBytesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{0, 1, 17, 500, 70000} {
		buf := make([]byte, n)
		rng.Read(buf)
		for _, level := range []int{0, 1, 6, 9} {
			compressed := Compress(buf, level)
			got, err := Decompress(compressed)
			require.NoError(t, err, "n=%d level=%d", n, level)
			require.True(t, bytes.Equal(buf, got), "n=%d level=%d", n, level)
		}
	}
}

func TestUTF8EdgeCases(t *testing.T) {
	cases := []string{
		"\xe4\xbd\xa0\xe5\xa5\xbd",
		"caf\xc3\xa9",
		string([]byte{0xff, 0xfe, 0xfd, 0x00, 0x01}),
	}
	for _, c := range cases {
		compressed := Compress([]byte(c), 9)
		got, err := Decompress(compressed)
		require.NoError(t, err)
		require.Equal(t, c, string(got))
	}
}

func TestStoredBlockChunking(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 200000) // forces multiple stored blocks at level 0
	compressed := Compress(data, 0)
	got, err := Decompress(compressed)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got))
}

func TestLongRepeatedInputPicksDynamicOrFixed(t *testing.T) {
	data := []byte(strings.Repeat("compresscore ", 5000))
	compressed := Compress(data, 9)
	require.Less(t, len(compressed), len(data)/2)
	got, err := Decompress(compressed)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got))
}

func TestDecompressRejectsReservedBlockType(t *testing.T) {
	// BFINAL=1, BTYPE=11 (reserved), packed LSB-first into one byte: bit0=1
	// (final), bits1-2=11 -> 0b111 = 0x07.
	_, err := Decompress([]byte{0x07})
	require.Error(t, err)
}

func TestDecompressBoundedOutput(t *testing.T) {
	data := bytes.Repeat([]byte("overflow target data"), 10000)
	compressed := Compress(data, 9)
	_, err := Decompress(compressed, WithMaxOutput(100))
	require.Error(t, err)
}

func TestDecompressDetectsCorruption(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 50))
	compressed := Compress(data, 9)
	panicked := 0
	errored := 0
	same := 0
	for i := 0; i < 200; i++ {
		corrupt := append([]byte(nil), compressed...)
		bit := rng.Intn(len(corrupt) * 8)
		corrupt[bit/8] ^= 1 << uint(bit%8)
		func() {
			defer func() {
				if r := recover(); r != nil {
					panicked++
				}
			}()
			got, err := Decompress(corrupt)
			switch {
			case err != nil:
				errored++
			case bytes.Equal(got, data):
				same++
			}
		}()
	}
	require.Zero(t, panicked, "corrupted input must never panic")
	require.Greater(t, errored, 0, "at least some bit flips should be detected as errors")
}

func TestDistanceAndLengthTableRoundTrip(t *testing.T) {
	for length := 3; length <= 258; length++ {
		sym, extra, extraBits := lengthToSymbol(length)
		got := int(lengthBase[sym-257]) + int(extra)
		require.Equal(t, length, got, "length=%d", length)
		require.LessOrEqual(t, extraBits, uint8(5))
	}
	for _, dist := range []int{1, 2, 3, 4, 5, 100, 1000, 32768} {
		sym, extra, _ := distToSymbol(dist)
		got := int(distBase[sym]) + int(extra)
		require.Equal(t, dist, got, "dist=%d", dist)
	}
}
