// Package deflate implements RFC 1951 DEFLATE: LZ77 matching over a 32 KB
// window, literal/length/distance symbol emission, and block-type selection
// among stored, fixed-Huffman, and dynamic-Huffman encodings (spec.md §4.1).
//
// Grounded on the teacher's internal/bzip2 pipeline shape (bit reader/writer
// borrowed for the duration of one call, canonical Huffman via
// internal/huffman, a single in-memory pass with no streaming API) and on
// other_examples/b7dedf7e_moby-moby__vendor-github.com-klauspost-compress-flate-deflate.go.go
// for the hash-chain/lazy-matching idiom (findMatch, matchLen), adapted to
// this module's shared internal/lzmatch matcher instead of a private one.
package deflate

const (
	windowSize  = 32768
	minMatchLen = 3
	maxMatchLen = 258

	// Block type codes (RFC 1951 §3.2.3).
	btypeStored  = 0
	btypeFixed   = 1
	btypeDynamic = 2

	endOfBlock = 256

	numLitLenSymbols = 288
	numDistSymbols   = 30
	numCLenSymbols   = 19

	maxLitLenCodeLen = 15
	maxDistCodeLen   = 15
	maxCLenCodeLen   = 7
)

// lengthBase/lengthExtraBits map length symbols [257,285] (indexed from 0)
// to their base length and extra-bit count, RFC 1951 §3.2.5 table.
var lengthBase = [29]uint16{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13,
	15, 17, 19, 23, 27, 31, 35, 43, 51, 59,
	67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var lengthExtraBits = [29]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
	1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distBase/distExtraBits map distance symbols [0,29] to base distance and
// extra-bit count, RFC 1951 §3.2.5 table.
var distBase = [30]uint16{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25,
	33, 49, 65, 97, 129, 193, 257, 385, 513, 769,
	1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

var distExtraBits = [30]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// clenOrder is the order code-length symbols appear in a dynamic block's
// header, RFC 1951 §3.2.7.
var clenOrder = [numCLenSymbols]int{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

// fixedLitLenLengths is RFC 1951 §3.2.6's fixed literal/length code-length
// table: 0-143 get 8 bits, 144-255 get 9, 256-279 get 7, 280-287 get 8.
func fixedLitLenLengths() []uint8 {
	lengths := make([]uint8, numLitLenSymbols)
	for i := 0; i <= 143; i++ {
		lengths[i] = 8
	}
	for i := 144; i <= 255; i++ {
		lengths[i] = 9
	}
	for i := 256; i <= 279; i++ {
		lengths[i] = 7
	}
	for i := 280; i <= 287; i++ {
		lengths[i] = 8
	}
	return lengths
}

// fixedDistLengths is RFC 1951's fixed distance table: all 30 used symbols
// get 5 bits (2 reserved codes at the end of the 32-entry space are unused).
func fixedDistLengths() []uint8 {
	lengths := make([]uint8, numDistSymbols)
	for i := range lengths {
		lengths[i] = 5
	}
	return lengths
}

// lengthToSymbol returns the length-alphabet symbol (257-285) and the extra
// bits value for a match length in [3,258].
func lengthToSymbol(length int) (symbol int, extra uint32, extraBits uint8) {
	for i := len(lengthBase) - 1; i >= 0; i-- {
		if length >= int(lengthBase[i]) {
			return 257 + i, uint32(length) - uint32(lengthBase[i]), lengthExtraBits[i]
		}
	}
	return 257, 0, 0
}

// distToSymbol returns the distance-alphabet symbol (0-29) and extra bits
// value for a match distance in [1,32768].
func distToSymbol(dist int) (symbol int, extra uint32, extraBits uint8) {
	for i := len(distBase) - 1; i >= 0; i-- {
		if dist >= int(distBase[i]) {
			return i, uint32(dist) - uint32(distBase[i]), distExtraBits[i]
		}
	}
	return 0, 0, 0
}
