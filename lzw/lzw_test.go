package lzw_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/arvida-labs/compresscore/lzw"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, cfg lzw.Config, data []byte) {
	t.Helper()
	encoded := lzw.Encode(data, cfg)
	got, err := lzw.Decode(encoded, cfg, len(data)+1<<20)
	require.NoError(t, err)
	require.True(t, bytes.Equal(got, data))
}

func TestRoundTripTIFF(t *testing.T) {
	cases := map[string][]byte{
		"empty":  {},
		"single": {7},
		"hello":  []byte("Hello, World!"),
		"zeros":  make([]byte, 300),
		"ff":     bytes.Repeat([]byte{0xFF}, 300),
	}
	for name, data := range cases {
		data := data
		t.Run(name, func(t *testing.T) { roundTrip(t, lzw.TIFFConfig, data) })
	}
}

func TestRoundTripGIF(t *testing.T) {
	roundTrip(t, lzw.GIFConfig, []byte("the quick brown fox jumps over the lazy dog, the quick brown fox"))
}

// TestTIFFGrid512 exercises spec.md §8's historically bug-prone 9->12 bit
// code-width transition: a 512x512 grid with byte value (x+y) mod 256.
func TestTIFFGrid512(t *testing.T) {
	data := make([]byte, 512*512)
	for y := 0; y < 512; y++ {
		for x := 0; x < 512; x++ {
			data[y*512+x] = byte((x + y) % 256)
		}
	}
	roundTrip(t, lzw.TIFFConfig, data)
}

func TestCodeWidthTransition(t *testing.T) {
	// A long run of alternating bytes forces the dictionary through the
	// 9->10->11->12 bit transitions.
	var data []byte
	for i := 0; i < 5000; i++ {
		data = append(data, byte(i%17), byte(i%23))
	}
	roundTrip(t, lzw.TIFFConfig, data)
}

func TestDecodeRejectsCorruption(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 50)
	for _, cfg := range []lzw.Config{lzw.TIFFConfig, lzw.GIFConfig} {
		encoded := lzw.Encode(data, cfg)
		panicked := 0
		errored := 0
		same := 0
		for i := 0; i < 200; i++ {
			corrupt := append([]byte(nil), encoded...)
			bit := rng.Intn(len(corrupt) * 8)
			corrupt[bit/8] ^= 1 << uint(bit%8)
			func() {
				defer func() {
					if r := recover(); r != nil {
						panicked++
					}
				}()
				got, err := lzw.Decode(corrupt, cfg, len(data)+1<<16)
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
}
