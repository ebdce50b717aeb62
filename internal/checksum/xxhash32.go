package checksum

import "encoding/binary"

// XXH32 implements 32-bit xxHash, used for LZ4 frame and block checksums
// (spec.md §6). No third-party XXH32 implementation appears anywhere in
// the retrieval pack (cespare/xxhash/v2 is 64-bit only), so this is a
// compact from-specification implementation of the published xxHash32
// algorithm — justified as stdlib-equivalent in DESIGN.md: it is a fixed,
// non-compression hash primitive, not something this module would ever
// want to vary by dependency choice.
const (
	xxh32Prime1 uint32 = 2654435761
	xxh32Prime2 uint32 = 2246822519
	xxh32Prime3 uint32 = 3266489917
	xxh32Prime4 uint32 = 668265263
	xxh32Prime5 uint32 = 374761393
)

// XXH32 returns the xxHash32 digest of data using the given seed (LZ4 uses
// seed 0).
func XXH32(data []byte, seed uint32) uint32 {
	var h uint32
	n := len(data)
	i := 0

	if n >= 16 {
		v1 := seed + xxh32Prime1 + xxh32Prime2
		v2 := seed + xxh32Prime2
		v3 := seed
		v4 := seed - xxh32Prime1

		for ; i+16 <= n; i += 16 {
			v1 = xxh32Round(v1, binary.LittleEndian.Uint32(data[i:]))
			v2 = xxh32Round(v2, binary.LittleEndian.Uint32(data[i+4:]))
			v3 = xxh32Round(v3, binary.LittleEndian.Uint32(data[i+8:]))
			v4 = xxh32Round(v4, binary.LittleEndian.Uint32(data[i+12:]))
		}
		h = rotl32(v1, 1) + rotl32(v2, 7) + rotl32(v3, 12) + rotl32(v4, 18)
	} else {
		h = seed + xxh32Prime5
	}

	h += uint32(n)

	for ; i+4 <= n; i += 4 {
		h += binary.LittleEndian.Uint32(data[i:]) * xxh32Prime3
		h = rotl32(h, 17) * xxh32Prime4
	}
	for ; i < n; i++ {
		h += uint32(data[i]) * xxh32Prime5
		h = rotl32(h, 11) * xxh32Prime1
	}

	h ^= h >> 15
	h *= xxh32Prime2
	h ^= h >> 13
	h *= xxh32Prime3
	h ^= h >> 16

	return h
}

func xxh32Round(acc, input uint32) uint32 {
	acc += input * xxh32Prime2
	acc = rotl32(acc, 13)
	acc *= xxh32Prime1
	return acc
}

func rotl32(x uint32, r uint) uint32 {
	return (x << r) | (x >> (32 - r))
}
