package deflate

import (
	"bytes"

	"github.com/arvida-labs/compresscore/internal/bitio"
	"github.com/arvida-labs/compresscore/internal/huffman"
	"github.com/arvida-labs/compresscore/internal/lzmatch"
)

// chainForLevel is the level-dependent hash-chain search depth spec.md
// §4.1 step 1 calls for ("walks the chain up to a level-dependent limit").
// Level 0 never searches (stored only); levels 1-3 search shallowly since
// they're restricted to the fixed Huffman table anyway.
var chainForLevel = [10]int{0, 4, 8, 16, 32, 64, 128, 256, 1024, 4096}

type token struct {
	lit      byte
	length   int
	distance int
	isMatch  bool
}

// tokenize runs LZ77 matching over data via internal/lzmatch, applying
// one-step lazy matching when lazy is true: having found a match at pos, it
// also probes pos+1 and prefers pos+1's match if strictly longer, emitting
// pos as a literal (spec.md §4.1 step 1).
func tokenize(data []byte, lazy bool, maxChain int) []token {
	n := len(data)
	if n == 0 {
		return nil
	}
	matcher := lzmatch.New(data, minMatchLen, windowSize, maxChain, minMatchLen, maxMatchLen)
	tokens := make([]token, 0, n/4)
	pos := 0
	for pos < n {
		m, ok := matcher.Find(pos)
		matcher.Insert(pos)

		if ok && lazy && pos+1 < n {
			m2, ok2 := matcher.Find(pos + 1)
			if ok2 && m2.Length > m.Length {
				tokens = append(tokens, token{lit: data[pos]})
				pos++
				continue
			}
		}

		if ok {
			tokens = append(tokens, token{length: m.Length, distance: m.Distance, isMatch: true})
			for i := 1; i < m.Length && pos+i < n; i++ {
				matcher.Insert(pos + i)
			}
			pos += m.Length
			continue
		}

		tokens = append(tokens, token{lit: data[pos]})
		pos++
	}
	return tokens
}

func blockFrequencies(tokens []token) (litLenFreq [numLitLenSymbols]uint64, distFreq [numDistSymbols]uint64) {
	for _, t := range tokens {
		if t.isMatch {
			sym, _, _ := lengthToSymbol(t.length)
			litLenFreq[sym]++
			dsym, _, _ := distToSymbol(t.distance)
			distFreq[dsym]++
		} else {
			litLenFreq[t.lit]++
		}
	}
	litLenFreq[endOfBlock]++
	return
}

func estimateBits(lengths []uint8, freq []uint64) uint64 {
	var bits uint64
	for sym, f := range freq {
		if f > 0 {
			bits += f * uint64(lengths[sym])
		}
	}
	return bits
}

func extraBitsTotal(tokens []token) uint64 {
	var bits uint64
	for _, t := range tokens {
		if t.isMatch {
			_, _, lb := lengthToSymbol(t.length)
			_, _, db := distToSymbol(t.distance)
			bits += uint64(lb) + uint64(db)
		}
	}
	return bits
}

func writeCode(w *bitio.LSBWriter, c huffman.Code) {
	for i := int(c.Len) - 1; i >= 0; i-- {
		w.WriteBit((c.Bits>>uint(i))&1 != 0)
	}
}

func writeTokens(w *bitio.LSBWriter, tokens []token, litLenCodes, distCodes []huffman.Code) {
	for _, t := range tokens {
		if t.isMatch {
			sym, extra, extraBits := lengthToSymbol(t.length)
			writeCode(w, litLenCodes[sym])
			if extraBits > 0 {
				w.WriteBits(extra, uint(extraBits))
			}
			dsym, dextra, dextraBits := distToSymbol(t.distance)
			writeCode(w, distCodes[dsym])
			if dextraBits > 0 {
				w.WriteBits(dextra, uint(dextraBits))
			}
		} else {
			writeCode(w, litLenCodes[t.lit])
		}
	}
	writeCode(w, litLenCodes[endOfBlock])
}

// dynamicTables builds length-limited canonical Huffman tables for a
// dynamic block from the observed frequencies, plus the code-length
// alphabet's own RLE-encoded transmission form. distFreq must already have
// at least one nonzero entry (callers force a dummy entry when no match
// occurred in the block, mirroring the "one distance code" special case
// RFC 1951 §3.2.7 documents).
type dynamicTables struct {
	litLenLengths []uint8
	distLengths   []uint8
	clLengths     []uint8
	clSyms        []uint8
	clExtras      []uint32
	clExtraBits   []uint8
	hclen         int
	headerBits    uint64
}

func buildDynamicTables(litLenFreq [numLitLenSymbols]uint64, distFreq [numDistSymbols]uint64) dynamicTables {
	// Only codes 0-285 are sent: RFC 1951 caps HLIT at 29 (286 codes).
	litLenLengths := huffman.BuildLengths(litLenFreq[:286], maxLitLenCodeLen)
	distLengths := huffman.BuildLengths(distFreq[:], maxDistCodeLen)

	all := make([]uint8, 0, numLitLenSymbols+numDistSymbols)
	all = append(all, litLenLengths...)
	all = append(all, distLengths...)
	syms, extras, extraBits, clFreq := rleCodeLengths(all)
	clLengths := huffman.BuildLengths(clFreq[:], maxCLenCodeLen)

	hclen := numCLenSymbols
	for hclen > 4 && clLengths[clenOrder[hclen-1]] == 0 {
		hclen--
	}

	clCodes := huffman.AssignCodes(clLengths)
	var headerBits uint64 = 5 + 5 + 4 + uint64(hclen)*3
	for i, s := range syms {
		headerBits += uint64(clCodes[s].Len) + uint64(extraBits[i])
	}

	return dynamicTables{
		litLenLengths: litLenLengths,
		distLengths:   distLengths,
		clLengths:     clLengths,
		clSyms:        syms,
		clExtras:      extras,
		clExtraBits:   extraBits,
		hclen:         hclen,
		headerBits:    headerBits,
	}
}

func writeDynamicHeader(w *bitio.LSBWriter, dt dynamicTables) {
	w.WriteBits(uint32(len(dt.litLenLengths)-257), 5)
	w.WriteBits(uint32(len(dt.distLengths)-1), 5)
	w.WriteBits(uint32(dt.hclen-4), 4)
	for i := 0; i < dt.hclen; i++ {
		w.WriteBits(uint32(dt.clLengths[clenOrder[i]]), 3)
	}
	clCodes := huffman.AssignCodes(dt.clLengths)
	for i, s := range dt.clSyms {
		writeCode(w, clCodes[s])
		if dt.clExtraBits[i] > 0 {
			w.WriteBits(dt.clExtras[i], uint(dt.clExtraBits[i]))
		}
	}
}

func ensureDistFreq(distFreq [numDistSymbols]uint64) [numDistSymbols]uint64 {
	for _, f := range distFreq {
		if f > 0 {
			return distFreq
		}
	}
	distFreq[0] = 1
	return distFreq
}

// compressLevel implements the block-selection contract of spec.md §4.1:
// level 0 stored only, levels 1-3 fixed Huffman only, levels 4-9 estimate
// stored/fixed/dynamic cost and emit the cheapest. The whole input becomes
// a single final block for fixed/dynamic (Huffman codes have no size
// limit); stored blocks are chunked to RFC 1951's 65535-byte limit.
func compressLevel(data []byte, level int) []byte {
	var buf bytes.Buffer
	w := bitio.NewLSBWriter(&buf)

	if level <= 0 {
		writeStoredBlocks(w, data)
		w.Flush()
		return buf.Bytes()
	}

	tokens := tokenize(data, level >= 4, chainForLevel[clampLevel(level)])
	litLenFreq, distFreq := blockFrequencies(tokens)
	distFreq = ensureDistFreq(distFreq)

	if level <= 3 {
		writeFixedBlock(w, tokens, true)
		w.Flush()
		return buf.Bytes()
	}

	fixedBits := 3 + estimateBits(fixedLitLenLengths(), litLenFreq[:]) +
		estimateBits(fixedDistLengths(), distFreq[:]) + extraBitsTotal(tokens)

	dt := buildDynamicTables(litLenFreq, distFreq)
	dynamicBits := 3 + dt.headerBits + estimateBits(dt.litLenLengths, litLenFreq[:]) +
		estimateBits(dt.distLengths, distFreq[:]) + extraBitsTotal(tokens)

	const storedOverheadBits = 3 + 7 + 32 // block header + alignment pad + LEN/NLEN
	storedBits := uint64(1) << 62
	if len(data) <= 0xFFFF {
		storedBits = storedOverheadBits + uint64(len(data))*8
	}

	switch {
	case storedBits <= fixedBits && storedBits <= dynamicBits:
		writeStoredBlocks(w, data)
	case fixedBits <= dynamicBits:
		writeFixedBlock(w, tokens, true)
	default:
		writeDynamicBlock(w, tokens, dt, true)
	}
	w.Flush()
	return buf.Bytes()
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 9 {
		return 9
	}
	return level
}

func writeFixedBlock(w *bitio.LSBWriter, tokens []token, final bool) {
	w.WriteBit(final)
	w.WriteBits(btypeFixed, 2)
	litLenCodes := huffman.AssignCodes(fixedLitLenLengths())
	distCodes := huffman.AssignCodes(fixedDistLengths())
	writeTokens(w, tokens, litLenCodes, distCodes)
}

func writeDynamicBlock(w *bitio.LSBWriter, tokens []token, dt dynamicTables, final bool) {
	w.WriteBit(final)
	w.WriteBits(btypeDynamic, 2)
	writeDynamicHeader(w, dt)
	litLenCodes := huffman.AssignCodes(dt.litLenLengths)
	distCodes := huffman.AssignCodes(dt.distLengths)
	writeTokens(w, tokens, litLenCodes, distCodes)
}

// writeStoredBlocks splits data into <= 65535-byte stored blocks, the last
// one marked final.
func writeStoredBlocks(w *bitio.LSBWriter, data []byte) {
	if len(data) == 0 {
		w.WriteBit(true)
		w.WriteBits(btypeStored, 2)
		w.WriteAlignedBytes([]byte{0, 0, 0xFF, 0xFF})
		return
	}
	pos := 0
	for pos < len(data) {
		chunk := len(data) - pos
		if chunk > 0xFFFF {
			chunk = 0xFFFF
		}
		final := pos+chunk >= len(data)
		w.WriteBit(final)
		w.WriteBits(btypeStored, 2)
		length := uint16(chunk)
		header := []byte{byte(length), byte(length >> 8), byte(^length), byte(^length >> 8)}
		w.WriteAlignedBytes(header)
		w.WriteAlignedBytes(data[pos : pos+chunk])
		pos += chunk
	}
}
