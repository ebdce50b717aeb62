package xwindow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindowBasic(t *testing.T) {
	w := New(8) // already pow2
	require.Equal(t, 8, w.Cap())
	w.Put([]byte("abcd"))
	require.Equal(t, 4, w.Len())
	require.Equal(t, byte('d'), w.ByteAt(1))
	require.Equal(t, byte('a'), w.ByteAt(4))
}

func TestWindowPow2Rounding(t *testing.T) {
	w := New(10)
	require.Equal(t, 16, w.Cap())
}

func TestWindowOverlappingCopy(t *testing.T) {
	w := New(32)
	w.Put([]byte("ab"))
	dst, err := w.CopyMatch(nil, 1, 5) // distance < length: should repeat 'b'
	require.NoError(t, err)
	require.Equal(t, []byte("bbbbb"), dst)
}

func TestWindowDistanceTooFar(t *testing.T) {
	w := New(32)
	w.Put([]byte("ab"))
	_, err := w.CopyMatch(nil, 10, 1)
	require.Error(t, err)
}

func TestWindowWrap(t *testing.T) {
	w := New(4)
	w.Put([]byte("abcdefgh"))
	require.Equal(t, 4, w.Len())
	require.Equal(t, byte('h'), w.ByteAt(1))
	require.Equal(t, byte('e'), w.ByteAt(4))
}
