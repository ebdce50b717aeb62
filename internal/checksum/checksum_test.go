package checksum

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBZip2CRC32KnownValue(t *testing.T) {
	var c BZip2CRC32
	c.Update([]byte("a"))
	require.EqualValues(t, 0x19939B6B, c.Sum())
}

func TestCombineBZip2(t *testing.T) {
	// combining zero with zero stays zero
	require.EqualValues(t, 0, CombineBZip2(0, 0))
}

func TestCRC16KnownVector(t *testing.T) {
	// CRC-16/ARC of "123456789" is 0xBB3D (standard check value).
	require.EqualValues(t, 0xBB3D, CRC16([]byte("123456789")))
}

func TestAdler32(t *testing.T) {
	require.EqualValues(t, 0x012600C4, Adler32([]byte("ab")))
}

func TestXXH32EmptyKnownValue(t *testing.T) {
	// xxHash32("") with seed 0 is the well-known constant 0x02cc5d05.
	require.EqualValues(t, 0x02cc5d05, XXH32(nil, 0))
}

func TestXXH64RoundTripsTruncation(t *testing.T) {
	data := []byte("the quick brown fox")
	full := XXH64(data)
	require.EqualValues(t, uint32(full), XXH64Truncated(data))
}
