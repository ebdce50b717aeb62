package lzmatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatcherFindsRepeat(t *testing.T) {
	data := []byte("abcabcabc")
	m := New(data, 3, 32768, 32, 3, 258)
	for i := range data {
		if match, ok := m.Find(i); ok {
			require.GreaterOrEqual(t, match.Length, 3)
			require.LessOrEqual(t, match.Distance, i)
		}
		m.Insert(i)
	}
}

func TestMatcherNoMatchOnUniqueData(t *testing.T) {
	data := []byte("abcdefg")
	m := New(data, 3, 32768, 32, 3, 258)
	for i := range data {
		_, ok := m.Find(i)
		require.False(t, ok)
		m.Insert(i)
	}
}
