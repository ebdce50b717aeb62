package lzma

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"strings"
	"testing"

	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/stretchr/testify/require"
)

func TestPropsByteRoundTrip(t *testing.T) {
	p := DefaultProperties
	require.EqualValues(t, 93, p.PropsByte())

	decoded, err := PropertiesFromByte(p.PropsByte())
	require.NoError(t, err)
	require.Equal(t, p, decoded)
}

func TestPropertiesFromByteRejectsOutOfRange(t *testing.T) {
	_, err := PropertiesFromByte(225)
	require.Error(t, err)
}

func TestPropertiesFromByteRejectsLCPlusLPTooLarge(t *testing.T) {
	// lc=8, lp=0, pb=0 -> byte = (0*5+0)*9+8 = 8, valid (lc+lp=8 > 4 invalid)
	_, err := PropertiesFromByte(8)
	require.Error(t, err)
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	cases := []string{
		"ABC",
		"",
		"a",
		"hello, world!",
		strings.Repeat("ab", 5000),
		strings.Repeat("the quick brown fox jumps over the lazy dog. ", 200),
	}
	for _, c := range cases {
		compressed := Compress([]byte(c), DefaultLevel)
		got, err := Decompress(compressed)
		require.NoError(t, err, "input=%q", c)
		require.Equal(t, c, string(got), "input=%q", c)
	}
}

func TestCompressABCHeader(t *testing.T) {
	out := Compress([]byte("ABC"), DefaultLevel)
	require.GreaterOrEqual(t, len(out), headerSize)
	props, err := PropertiesFromByte(out[0])
	require.NoError(t, err)
	require.EqualValues(t, 3, props.LC)
	require.EqualValues(t, 0, props.LP)
	require.EqualValues(t, 2, props.PB)
}

func TestDecompressRejectsTruncatedHeader(t *testing.T) {
	_, err := Decompress([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestLZMA2RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"ABC",
		strings.Repeat("xyzzy ", 10000),
		strings.Repeat("\x00", 1<<20),
	}
	for _, c := range cases {
		compressed := CompressLZMA2([]byte(c), DefaultLevel)
		got, err := DecompressLZMA2(compressed, int(DefaultLevel.DictSize()))
		require.NoError(t, err, "input len=%d", len(c))
		require.True(t, bytes.Equal([]byte(c), got), "input len=%d", len(c))
	}
}

func TestLZMA2MultiChunk(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 1<<19) // > 2 MiB, forces multiple chunks
	compressed := CompressLZMA2(data, Level1)
	got, err := DecompressLZMA2(compressed, int(Level1.DictSize()))
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got))
}

func TestDecompressBoundedOutput(t *testing.T) {
	data := []byte(strings.Repeat("overflow target data", 10000))
	compressed := Compress(data, DefaultLevel)
	_, err := Decompress(compressed, WithMaxOutput(100))
	require.Error(t, err)
}

func TestDecompressLZMA2BoundedOutput(t *testing.T) {
	data := bytes.Repeat([]byte("overflow target data"), 10000)
	compressed := CompressLZMA2(data, DefaultLevel)
	_, err := DecompressLZMA2(compressed, int(DefaultLevel.DictSize()), WithMaxOutput(100))
	require.Error(t, err)
}

func TestDecompressUnknownSizeWithoutEndMarkerIsBounded(t *testing.T) {
	// Header's uncompressed-size field set to all-ones means "unknown";
	// decoding then runs until the range coder's own end marker (spec.md
	// §4.3) rather than a declared byte count. This encoder never emits
	// that marker, so a stream rewritten this way has none: WithMaxOutput
	// must still cut the decode off instead of running away.
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 20))
	compressed := Compress(data, DefaultLevel)
	binary.LittleEndian.PutUint64(compressed[5:13], unknownSize)
	_, err := Decompress(compressed, WithMaxOutput(1024))
	require.Error(t, err, "decode without a real end marker must surface a typed error rather than run away")
	_, ok := err.(*ccerr.Error)
	require.True(t, ok)
}

func TestDecompressRejectsCorruption(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 50))
	compressed := Compress(data, DefaultLevel)
	panicked := 0
	errored := 0
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
			// Bounded so a corrupted size field can't turn this into a
			// multi-gigabyte decode attempt; ResourceLimitExceeded is
			// itself a passing outcome here.
			_, err := Decompress(corrupt, WithMaxOutput(1<<16))
			if err != nil {
				errored++
			}
		}()
	}
	require.Zero(t, panicked, "corrupted input must never panic")
	require.Greater(t, errored, 0, "at least some bit flips should be detected as errors")
}

func TestDistSlotForMatchesBitTreeExpansion(t *testing.T) {
	for dist := uint32(4); dist < 1<<20; dist = dist*7 + 1 {
		slot := distSlotFor(dist)
		numDirectBits := slot>>1 - 1
		base := (2 | (slot & 1)) << numDirectBits
		require.LessOrEqual(t, base, dist, "dist=%d slot=%d", dist, slot)
		require.Less(t, dist-base, uint32(1)<<numDirectBits, "dist=%d slot=%d", dist, slot)
	}
}
