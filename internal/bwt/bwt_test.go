package bwt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBWTRoundTrip(t *testing.T) {
	cases := []string{
		"banana", "hello world", "abracadabra", "mississippi",
		"aaaaa", "abcde", "the quick brown fox jumps over the lazy dog",
	}
	for _, c := range cases {
		transformed, origin := Transform([]byte(c))
		recovered, err := Inverse(transformed, origin)
		require.NoError(t, err)
		require.Equal(t, c, string(recovered))
	}
}

func TestBWTEmpty(t *testing.T) {
	transformed, origin := Transform(nil)
	require.Nil(t, transformed)
	require.EqualValues(t, 0, origin)
	recovered, err := Inverse(transformed, origin)
	require.NoError(t, err)
	require.Empty(t, recovered)
}

func TestBWTSingle(t *testing.T) {
	transformed, origin := Transform([]byte("a"))
	require.Equal(t, []byte("a"), transformed)
	require.EqualValues(t, 0, origin)
}

func TestBWTGroupsSimilarBytes(t *testing.T) {
	data := []byte("abababab")
	transformed, _ := Transform(data)
	runs := 1
	for i := 1; i < len(transformed); i++ {
		if transformed[i] != transformed[i-1] {
			runs++
		}
	}
	require.LessOrEqual(t, runs, 4)
}

func TestMTFRoundTrip(t *testing.T) {
	cases := []string{"hello", "banana", "abracadabra", "the quick brown fox"}
	for _, c := range cases {
		enc := MTF([]byte(c))
		dec := InverseMTF(enc)
		require.Equal(t, c, string(dec))
	}
}

func TestMTFRepeated(t *testing.T) {
	out := MTF([]byte("aaaa"))
	require.Equal(t, []byte{'a', 0, 0, 0}, out)
}

func TestZeroRunEncodeDecode(t *testing.T) {
	for n := 1; n < 200; n++ {
		syms := EncodeZeroRun(n)
		var acc ZeroRunAccumulator
		for _, s := range syms {
			acc.Add(s)
		}
		require.Equal(t, n, acc.Len(), "n=%d", n)
	}
}
