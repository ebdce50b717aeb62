package parallel_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/arvida-labs/compresscore/parallel"
	"github.com/stretchr/testify/require"
)

func TestSplitBlocks(t *testing.T) {
	data := bytes.Repeat([]byte{'x'}, 25)
	blocks := parallel.SplitBlocks(data, 10)
	require.Len(t, blocks, 3)
	require.Len(t, blocks[0], 10)
	require.Len(t, blocks[1], 10)
	require.Len(t, blocks[2], 5)
}

func TestSplitBlocksEmpty(t *testing.T) {
	require.Nil(t, parallel.SplitBlocks(nil, 10))
}

func TestEncodeBlocksPreservesOrder(t *testing.T) {
	blocks := parallel.SplitBlocks([]byte("the quick brown fox jumps over the lazy dog"), 5)
	out, err := parallel.EncodeBlocks(blocks, func(i int, b []byte) ([]byte, error) {
		// Deterministic per-block transform: prefix with its index so a
		// scrambled reassembly order would be caught.
		return append([]byte(fmt.Sprintf("%02d:", i)), b...), nil
	}, parallel.WithConcurrency(4))
	require.NoError(t, err)

	var want []byte
	for i, b := range blocks {
		want = append(want, []byte(fmt.Sprintf("%02d:", i))...)
		want = append(want, b...)
	}
	require.Equal(t, want, out)
}

func TestEncodeBlocksAggregatesErrors(t *testing.T) {
	blocks := parallel.SplitBlocks([]byte("aaaaabbbbbccccc"), 5)
	_, err := parallel.EncodeBlocks(blocks, func(i int, b []byte) ([]byte, error) {
		if i == 1 {
			return nil, fmt.Errorf("block %d failed", i)
		}
		return b, nil
	})
	require.Error(t, err)
}

func TestEncodeBlocksEmpty(t *testing.T) {
	out, err := parallel.EncodeBlocks(nil, func(i int, b []byte) ([]byte, error) { return b, nil })
	require.NoError(t, err)
	require.Nil(t, out)
}
