package checksum

import (
	"hash/adler32"

	"github.com/cespare/xxhash/v2"
)

// Adler32 wraps the standard library's hash/adler32. RFC 1950's Adler-32 is
// a fixed, bit-exact algorithm with no third-party implementation anywhere
// in the retrieval pack; the stdlib implementation is the canonical one, so
// there is no ecosystem library to wire in for it (see DESIGN.md).
func Adler32(data []byte) uint32 {
	return adler32.Checksum(data)
}

// XXH64 hashes data with 64-bit xxHash, used for Zstandard's frame content
// checksum (spec.md §4.4), which truncates the result to the low 32 bits.
// Wraps github.com/cespare/xxhash/v2, pulled into the retrieval pack via
// elliotnunn-BeHierarchic's dependency on cockroachdb/pebble.
func XXH64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// XXH64Truncated returns the low 32 bits of XXH64(data), exactly the value
// Zstandard writes as its 4-byte frame checksum.
func XXH64Truncated(data []byte) uint32 {
	return uint32(XXH64(data))
}
