package zstd_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arvida-labs/compresscore/internal/checksum"
	"github.com/arvida-labs/compresscore/zstd"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, data []byte) {
	t.Helper()
	frame := zstd.Encode(data)
	got, err := zstd.Decode(frame, len(data)+1<<20)
	require.NoError(t, err)
	require.True(t, bytes.Equal(got, data), "round-trip mismatch, got %d bytes want %d", len(got), len(data))
}

func TestRoundTripCases(t *testing.T) {
	cases := map[string][]byte{
		"empty":      {},
		"single":     {0x42},
		"hello":      []byte("Hello, World!"),
		"repeated64": bytes.Repeat([]byte{'A'}, 64),
		"pattern":    []byte(strings.Repeat("abcdefghijklmnopqrstuvwxyz", 4)),
		"binary":     {0x00, 0xFF, 0x01, 0xFE, 0x02, 0xFD},
	}
	for name, data := range cases {
		data := data
		t.Run(name, func(t *testing.T) {
			roundTrip(t, data)
		})
	}
}

func TestLargeRunCompressesTiny(t *testing.T) {
	data := bytes.Repeat([]byte{0xAA}, 1_000_000)
	frame := zstd.Encode(data)
	require.Less(t, len(frame), len(data)/1000, "1,000,000 copies of 0xAA should compress to well under 0.1%%")
	got, err := zstd.Decode(frame, len(data)+1024)
	require.NoError(t, err)
	require.True(t, bytes.Equal(got, data))
}

func TestChecksumTrailerMatchesXXH64(t *testing.T) {
	data := bytes.Repeat([]byte{0xAA}, 1_000_000)
	frame := zstd.Encode(data, zstd.WithChecksum(true))
	trailer := frame[len(frame)-4:]
	want := checksum.XXH64Truncated(data)
	got := uint32(trailer[0]) | uint32(trailer[1])<<8 | uint32(trailer[2])<<16 | uint32(trailer[3])<<24
	require.Equal(t, want, got)
}

func TestChecksumCanBeDisabled(t *testing.T) {
	data := []byte("checksum-less frame")
	withSum := zstd.Encode(data, zstd.WithChecksum(true))
	withoutSum := zstd.Encode(data, zstd.WithChecksum(false))
	require.Equal(t, len(withSum), len(withoutSum)+4)
	got, err := zstd.Decode(withoutSum, 1024)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := zstd.Decode([]byte{0, 0, 0, 0, 1, 2, 3}, 1024)
	require.Error(t, err)
}

func TestDecodeRejectsTruncatedFrame(t *testing.T) {
	frame := zstd.Encode([]byte("a reasonably long string of plaintext"))
	_, err := zstd.Decode(frame[:len(frame)-1], 1024)
	require.Error(t, err)
}

func TestDecodeRejectsCorruptedChecksum(t *testing.T) {
	frame := zstd.Encode([]byte("checked content"), zstd.WithChecksum(true))
	frame[len(frame)-1] ^= 0xFF
	_, err := zstd.Decode(frame, 1024)
	require.Error(t, err)
}

func TestDecodeRejectsFlippedBodyByte(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog, repeatedly and at length.")
	frame := zstd.Encode(data, zstd.WithChecksum(true))
	// Flip a byte inside the block payload, after the frame header.
	frame[20] ^= 0xFF
	_, err := zstd.Decode(frame, 1024)
	require.Error(t, err)
}

func TestDecodeBoundedOutput(t *testing.T) {
	data := bytes.Repeat([]byte("hello world "), 10000)
	frame := zstd.Encode(data)
	_, err := zstd.Decode(frame, 10)
	require.Error(t, err)
}

func TestDecodeRejectsOversizedWindow(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1<<20)
	frame := zstd.Encode(data)
	_, err := zstd.Decode(frame, len(data)+1024, zstd.WithMaxWindowSize(1<<16))
	require.Error(t, err)
}

func TestEncodeParallelMatchesEncode(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 50_000) // spans several maxBlockSize chunks
	serial := zstd.Encode(data)
	parallelOut, err := zstd.EncodeParallel(data, 4)
	require.NoError(t, err)
	require.Equal(t, serial, parallelOut)

	got, err := zstd.Decode(parallelOut, len(data)+1024)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestDecodeSkipsSkippableFrame(t *testing.T) {
	skippable := []byte{0x50, 0x2A, 0x4D, 0x18, 4, 0, 0, 0, 0xDE, 0xAD, 0xBE, 0xEF}
	data := []byte("payload after a skippable frame")
	frame := append(skippable, zstd.Encode(data)...)
	got, err := zstd.Decode(frame, 1024)
	require.NoError(t, err)
	require.Equal(t, data, got)
}
