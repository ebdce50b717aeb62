package lzh_test

import (
	"bytes"
	"testing"

	"github.com/arvida-labs/compresscore/lzh"
	"github.com/stretchr/testify/require"
)

var allMethods = []lzh.Method{lzh.Lh0, lzh.Lh4, lzh.Lh5, lzh.Lh6, lzh.Lh7}

func TestRoundTrip(t *testing.T) {
	cases := map[string][]byte{
		"empty":    {},
		"single":   {'z'},
		"hello":    []byte("Hello, World! Hello, World!"),
		"repeated": bytes.Repeat([]byte("abcabcabc"), 200),
		"zeros":    make([]byte, 4096),
		"allBytes": allByteValues(),
	}
	for _, m := range allMethods {
		m := m
		for name, data := range cases {
			data := data
			t.Run(m.ID()+"/"+name, func(t *testing.T) {
				encoded := lzh.Encode(data, m)
				got, err := lzh.Decode(encoded, m, len(data)+1<<10)
				require.NoError(t, err)
				require.True(t, bytes.Equal(got, data))
			})
		}
	}
}

func TestLh0IsStored(t *testing.T) {
	data := []byte("not compressed at all")
	encoded := lzh.Encode(data, lzh.Lh0)
	require.Equal(t, data, encoded)
}

func TestMethodFromID(t *testing.T) {
	for _, m := range allMethods {
		got, err := lzh.MethodFromID(m.ID())
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
	_, err := lzh.MethodFromID("-lh3-")
	require.Error(t, err)
}

func TestDecodeBoundedOutput(t *testing.T) {
	data := bytes.Repeat([]byte("overflow me"), 100)
	encoded := lzh.Encode(data, lzh.Lh5)
	_, err := lzh.Decode(encoded, lzh.Lh5, 10)
	require.Error(t, err)
}

func TestStreamDecoderWholeInputAtOnce(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, repeatedly, the quick brown fox")
	encoded := lzh.Encode(data, lzh.Lh6)

	dec := lzh.NewStreamDecoder(lzh.Lh6, len(data)+16)
	out := make([]byte, len(data)+16)
	consumed, produced, status := dec.Decompress(encoded, out)
	require.Equal(t, len(encoded), consumed)
	require.Equal(t, lzh.Done, status)
	require.True(t, bytes.Equal(out[:produced], data))
	require.NoError(t, dec.Err())
}

func TestStreamDecoderChunkedInputAndOutput(t *testing.T) {
	data := bytes.Repeat([]byte("incremental decode exercise "), 50)
	encoded := lzh.Encode(data, lzh.Lh5)

	dec := lzh.NewStreamDecoder(lzh.Lh5, len(data)+16)

	var got []byte
	outChunk := make([]byte, 7) // deliberately small to force repeated drains
	inPos := 0
	const inChunk = 5

	for {
		end := inPos + inChunk
		if end > len(encoded) {
			end = len(encoded)
		}
		in := encoded[inPos:end]
		for {
			consumed, produced, status := dec.Decompress(in, outChunk)
			inPos += consumed
			got = append(got, outChunk[:produced]...)
			in = in[consumed:]
			if status == lzh.Done {
				require.NoError(t, dec.Err())
				require.True(t, bytes.Equal(got, data))
				return
			}
			if status == lzh.NeedInput {
				break
			}
			// status == NeedOutput: keep draining with empty input.
			if produced == 0 && len(in) == 0 {
				break
			}
		}
		if inPos >= len(encoded) {
			// No more compressed bytes to feed; keep draining until Done.
			for {
				_, produced, status := dec.Decompress(nil, outChunk)
				got = append(got, outChunk[:produced]...)
				if status == lzh.Done {
					require.NoError(t, dec.Err())
					require.True(t, bytes.Equal(got, data))
					return
				}
				if produced == 0 {
					t.Fatalf("stream decoder stalled before reaching Done")
				}
			}
		}
	}
}

func allByteValues() []byte {
	out := make([]byte, 256)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}
