// Package huffman builds canonical Huffman code tables and decodes against
// them. Canonical-code rule (spec.md §3): for each length L, codes are
// assigned consecutively in symbol order; the first code at length L+1 is
// (last_code_at_L + 1) << 1. The table produced is length-limited and
// Kraft-complete (spec.md §8 property 8).
//
// Grounded on the teacher's internal/bzip2/huffman.go (newHuffmanTree,
// buildHuffmanNode, the 256-entry one-byte shortcut table), generalized
// from bzip2's hardwired 20-bit maximum to an arbitrary MaxLen so DEFLATE
// (15), LZH (15), Zstandard literals (11) and Zstandard FSE-driven Huffman
// (9) can all share it.
package huffman

import (
	"sort"

	"github.com/arvida-labs/compresscore/ccerr"
)

const invalidNode = 0xffff

// Tree is a canonical Huffman decode table: a binary tree of nodes plus a
// one-byte shortcut table to skip the first 8 bits of traversal for the
// common case.
type Tree struct {
	nodes    []node
	nextNode int
	shortcut [256]shortcutEntry
	maxLen   uint
}

type node struct {
	left, right           uint16
	leftValue, rightValue uint16
}

// shortcutEntry packs either a terminal symbol (bit 3 set) and its code
// length (bits 0-2, biased by one), or a node index to resume traversal
// from (bits 4+), mirroring the teacher's bzip2 shortcut encoding.
type shortcutEntry uint16

func (s shortcutEntry) isSymbol() bool { return s&0x8 != 0 }
func (s shortcutEntry) codeLen() uint  { return uint(s&0x7) + 1 }
func (s shortcutEntry) value() uint16  { return uint16(s >> 4) }

type symLen struct {
	symbol uint16
	length uint8
}

// BuildCanonical builds a canonical Huffman decode Tree from a slice of
// code lengths indexed by symbol (0 meaning "symbol unused"). maxLen bounds
// the codec-specific maximum code length (spec.md §3: 15 for DEFLATE/LZH,
// 20 for BZip2, 11 for Zstd literals, 9 for Zstd FSE-driven Huffman); it is
// used only for validation, not to limit the table itself (length-limiting
// is the job of the caller's code-length construction step).
func BuildCanonical(lengths []uint8, maxLen uint) (*Tree, error) {
	used := 0
	for _, l := range lengths {
		if l > 0 {
			used++
		}
		if uint(l) > maxLen {
			return nil, ccerr.New(ccerr.CorruptedData, "huffman code length %d exceeds maximum %d", l, maxLen)
		}
	}
	if used == 0 {
		return nil, ccerr.New(ccerr.CorruptedData, "huffman table has no symbols")
	}

	pairs := make([]symLen, 0, len(lengths))
	for sym, l := range lengths {
		if l > 0 {
			pairs = append(pairs, symLen{symbol: uint16(sym), length: l})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].length != pairs[j].length {
			return pairs[i].length < pairs[j].length
		}
		return pairs[i].symbol < pairs[j].symbol
	})

	if len(pairs) == 1 {
		// Degenerate single-symbol table: synthesize a 1-bit code so the
		// tree has a real branch to decode against.
		t := &Tree{maxLen: maxLen}
		t.nodes = make([]node, 1)
		t.nodes[0] = node{left: invalidNode, leftValue: pairs[0].symbol, right: invalidNode, rightValue: pairs[0].symbol}
		t.nextNode = 1
		t.buildShortcut()
		return t, nil
	}

	codes := make([]buildCode, len(pairs))
	running := uint32(0)
	length := uint8(32)
	for i := len(pairs) - 1; i >= 0; i-- {
		if length > pairs[i].length {
			length = pairs[i].length
		}
		codes[i] = buildCode{bits: running, length: length, symbol: pairs[i].symbol}
		running += 1 << (32 - length)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].bits < codes[j].bits })

	t := &Tree{maxLen: maxLen}
	t.nodes = make([]node, len(codes))
	if _, err := t.build(codes, 0); err != nil {
		return nil, err
	}
	t.buildShortcut()
	return t, nil
}

type buildCode struct {
	bits   uint32
	length uint8
	symbol uint16
}

func (t *Tree) build(codes []buildCode, level uint32) (uint16, error) {
	test := uint32(1) << (31 - level)
	splitAt := len(codes)
	for i, c := range codes {
		if c.bits&test != 0 {
			splitAt = i
			break
		}
	}
	left, right := codes[:splitAt], codes[splitAt:]
	if len(left) == 0 || len(right) == 0 {
		if len(codes) < 2 {
			return 0, ccerr.New(ccerr.CorruptedData, "huffman tree not Kraft-complete")
		}
		if level == 31 {
			return 0, ccerr.New(ccerr.CorruptedData, "huffman tree has duplicate codes")
		}
		if len(left) == 0 {
			return t.build(right, level+1)
		}
		return t.build(left, level+1)
	}

	idx := uint16(t.nextNode)
	t.nextNode++
	n := &t.nodes[idx]
	var err error
	if len(left) == 1 {
		n.left, n.leftValue = invalidNode, left[0].symbol
	} else if n.left, err = t.build(left, level+1); err != nil {
		return 0, err
	}
	if len(right) == 1 {
		n.right, n.rightValue = invalidNode, right[0].symbol
	} else if n.right, err = t.build(right, level+1); err != nil {
		return 0, err
	}
	return idx, nil
}

func (t *Tree) buildShortcut() {
	for b := range t.shortcut {
		n := uint16(0)
		for i := 0; i < 8; i++ {
			node := &t.nodes[n]
			var v uint16
			if (b>>(7-i))&1 != 0 {
				n, v = node.left, node.leftValue
			} else {
				n, v = node.right, node.rightValue
			}
			if n == invalidNode {
				t.shortcut[b] = shortcutEntry(v<<4 | 0x8 | uint16(i))
				break
			}
		}
		if n != invalidNode {
			t.shortcut[b] = shortcutEntry(n << 4)
		}
	}
}

// BitReader is the minimal interface Tree.Decode needs; both bitio.MSBReader
// and bitio.LSBReader satisfy it directly, since DEFLATE's
// Huffman codes are packed LSB-first within bytes but read most-significant
// code-bit first, same as BZip2's MSB stream — callers pass bits already in
// "next code bit" order via ReadBit.
type BitReader interface {
	ReadBit() bool
}

// Decode walks br bit by bit (MSB-first semantics: the first bit read
// selects the left/right branch) until a leaf is reached, returning the
// decoded symbol. This is the one-bit-at-a-time slow path; codecs with a
// byte-level prefetch buffer (bzip2, LZH) should use DecodeFast instead.
func (t *Tree) Decode(br BitReader) uint16 {
	idx := uint16(0)
	for {
		n := &t.nodes[idx]
		var next uint16
		var v uint16
		if br.ReadBit() {
			next, v = n.left, n.leftValue
		} else {
			next, v = n.right, n.rightValue
		}
		if next == invalidNode {
			return v
		}
		idx = next
	}
}

// Peeker is satisfied by bit readers that can look ahead 8 bits without
// consuming them and report how many bits a decode actually used
// (bitio.MSBReader's Peek8/Prefetch/ReadBits).
type Peeker interface {
	Peek8() byte
	ReadBits(n uint) int
}

// DecodeFast uses the one-byte shortcut table to skip the first 8 bits of
// traversal in the common case, falling back to one-bit-at-a-time descent
// only when the code is longer than 8 bits. Mirrors the teacher's
// huffmanTree.Decode fast path.
func (t *Tree) DecodeFast(br Peeker) uint16 {
	b := br.Peek8()
	se := t.shortcut[b]
	if se.isSymbol() {
		br.ReadBits(se.codeLen())
		return se.value()
	}
	br.ReadBits(8)
	idx := se.value()
	for {
		n := &t.nodes[idx]
		bit := br.ReadBits(1)
		var next, v uint16
		if bit == 1 {
			next, v = n.left, n.leftValue
		} else {
			next, v = n.right, n.rightValue
		}
		if next == invalidNode {
			return v
		}
		idx = next
	}
}

// MaxSupportedLen is the largest maxLen this package's build() recursion
// can address (bounded by the 32-bit code-assignment accumulator).
const MaxSupportedLen = 31
