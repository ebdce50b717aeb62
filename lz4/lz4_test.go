package lz4_test

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/arvida-labs/compresscore/lz4"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, data []byte) {
	t.Helper()
	frame := lz4.Encode(data)
	got, err := lz4.Decode(frame, len(data)+1<<20)
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
	}
	for name, data := range cases {
		data := data
		t.Run(name, func(t *testing.T) {
			roundTrip(t, data)
		})
	}
}

func TestRepeatedCompressesSmaller(t *testing.T) {
	data := bytes.Repeat([]byte{'A'}, 64)
	frame := lz4.Encode(data)
	require.Less(t, len(frame), len(data))
}

func TestBlockRoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog")
	block := lz4.CompressBlock(data)
	got, err := lz4.DecompressBlock(block, len(data))
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := lz4.Decode([]byte{0, 0, 0, 0, 0, 0, 0}, 1024)
	require.Error(t, err)
}

func TestDecodeBoundedOutput(t *testing.T) {
	data := bytes.Repeat([]byte("hello world "), 10000)
	frame := lz4.Encode(data)
	_, err := lz4.Decode(frame, 10)
	require.Error(t, err)
}

func TestDecodeRejectsCorruption(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog. ", 50))
	frame := lz4.Encode(data)
	panicked := 0
	errored := 0
	same := 0
	for i := 0; i < 200; i++ {
		corrupt := append([]byte(nil), frame...)
		bit := rng.Intn(len(corrupt) * 8)
		corrupt[bit/8] ^= 1 << uint(bit%8)
		func() {
			defer func() {
				if r := recover(); r != nil {
					panicked++
				}
			}()
			got, err := lz4.Decode(corrupt, len(data)+1<<16)
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
