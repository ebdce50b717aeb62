package lzh

import "github.com/arvida-labs/compresscore/internal/huffman"

const maxCodeLen = 15 // spec.md §3: 15 for DEFLATE/LZH

// codeTables holds the fixed (data-independent) canonical Huffman tables
// for one method: a char/length tree over numCharCodes symbols and a
// position tree over PositionBits()+1 symbols (spec.md §4.5's distance
// slot scheme, generalized from DEFLATE's to a per-method symbol count).
//
// These are genuinely "static" per spec.md's wording: built once from a
// fixed frequency profile rather than derived from the block being coded,
// so no table needs to be transmitted in the stream at all (mirroring
// DEFLATE's fixed-Huffman blocks, RFC 1951 §3.2.6).
type codeTables struct {
	charTree  *huffman.Tree
	charCodes []huffman.Code
	posTree   *huffman.Tree
	posCodes  []huffman.Code
	numPos    int
}

var methodTables [5]*codeTables

func init() {
	for _, m := range []Method{Lh4, Lh5, Lh6, Lh7} {
		methodTables[m] = buildTables(m)
	}
}

func buildTables(m Method) *codeTables {
	charFreqs := make([]uint64, numCharAlphabet)
	for i := 0; i < numLitSymbols; i++ {
		// Descending weight across the byte range: a fixed, data-independent
		// profile favoring lower byte values, which in practice skews
		// toward ASCII text and short literal runs. This is a deliberate
		// choice, not a derived statistic — see spec.md §4.5's
		// "static Huffman per window size" framing.
		charFreqs[i] = uint64(numLitSymbols-i) + 1
	}
	for i := 0; i < numLenCodes; i++ {
		charFreqs[numLitSymbols+i] = uint64(numLenCodes-i) + 1
	}
	charFreqs[eobSymbol] = 1
	charLengths := huffman.BuildLengths(charFreqs, maxCodeLen)
	charTree, err := huffman.BuildCanonical(charLengths, maxCodeLen)
	if err != nil {
		panic(err) // fixed, package-init-time table; a build failure is a programming error
	}

	numPos := int(m.PositionBits()) + 1
	posFreqs := make([]uint64, numPos)
	for i := 0; i < numPos; i++ {
		posFreqs[i] = uint64(numPos-i) + 1
	}
	posLengths := huffman.BuildLengths(posFreqs, maxCodeLen)
	posTree, err := huffman.BuildCanonical(posLengths, maxCodeLen)
	if err != nil {
		panic(err)
	}

	return &codeTables{
		charTree:  charTree,
		charCodes: huffman.AssignCodes(charLengths),
		posTree:   posTree,
		posCodes:  huffman.AssignCodes(posLengths),
		numPos:    numPos,
	}
}

// distSlot splits a 1-based distance into a position-tree symbol plus a
// count of raw extra bits and their value, the same slot/extra-bits shape
// DEFLATE's distance codes use (spec.md §4.1), generalized to however many
// slots a method's PositionBits affords: slot 0 covers distance 1 only;
// slot s>=1 covers the range [2^(s-1), 2^s-1] of the zero-based distance
// d=distance-1, with s-1 extra bits distinguishing position within it.
func distSlot(distance uint32) (slot int, extraBits uint, extraVal uint32) {
	d := distance - 1
	if d == 0 {
		return 0, 0, 0
	}
	s := 0
	for (uint32(1) << uint(s)) <= d {
		s++
	}
	slot = s
	extraBits = uint(s - 1)
	extraVal = d - (uint32(1) << uint(s-1))
	return slot, extraBits, extraVal
}

func distFromSlot(slot int, extraVal uint32) uint32 {
	if slot == 0 {
		return 1
	}
	return (uint32(1)<<uint(slot-1) + extraVal) + 1
}
