package bzip2

import (
	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/bitio"
)

const maxHuffmanLen = 20 // spec.md §3: BZip2's codec-specific maximum code length

// writeUsedMap emits the two-level 16x16 symbol-presence bitmap (spec.md
// §4.2's block pipeline, transmitted ahead of the Huffman tables so the
// decoder knows the block's reduced MTF alphabet).
func writeUsedMap(w *bitio.MSBWriter, used *[256]bool) {
	var rangeUsed [16]bool
	for r := 0; r < 16; r++ {
		for s := 0; s < 16; s++ {
			if used[16*r+s] {
				rangeUsed[r] = true
				break
			}
		}
	}
	var rangeBits uint64
	for r := 0; r < 16; r++ {
		rangeBits <<= 1
		if rangeUsed[r] {
			rangeBits |= 1
		}
	}
	w.WriteBits(rangeBits, 16)
	for r := 0; r < 16; r++ {
		if !rangeUsed[r] {
			continue
		}
		var bits uint64
		for s := 0; s < 16; s++ {
			bits <<= 1
			if used[16*r+s] {
				bits |= 1
			}
		}
		w.WriteBits(bits, 16)
	}
}

// readUsedMap parses writeUsedMap's output, returning the ascending list of
// present byte values (the block's reduced MTF alphabet).
func readUsedMap(r *bitio.MSBReader) ([]byte, error) {
	rangeBits := r.ReadBits(16)
	if r.Err() != nil {
		return nil, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated used-range bitmap")
	}
	var symbols []byte
	for rg := 0; rg < 16; rg++ {
		if rangeBits&(1<<(15-rg)) == 0 {
			continue
		}
		bits := r.ReadBits(16)
		if r.Err() != nil {
			return nil, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated used-symbol bitmap")
		}
		for s := 0; s < 16; s++ {
			if bits&(1<<(15-s)) != 0 {
				symbols = append(symbols, byte(16*rg+s))
			}
		}
	}
	if len(symbols) == 0 {
		return nil, ccerr.New(ccerr.CorruptedData, "bzip2: block declares no used symbols")
	}
	return symbols, nil
}

// chooseNumGroups picks how many Huffman tables to use for a block (spec.md
// §4.2 step 5: "two to six"), following the same symbol-count thresholds the
// reference implementation uses.
func chooseNumGroups(nSyms int) int {
	switch {
	case nSyms < 200:
		return 2
	case nSyms < 600:
		return 3
	case nSyms < 1200:
		return 4
	case nSyms < 2400:
		return 5
	default:
		return 6
	}
}

// encodeSelectors move-to-front encodes the per-50-symbol-group table index
// stream and writes it in unary (a run of 1-bits of the MTF position,
// terminated by a 0 bit).
func encodeSelectors(w *bitio.MSBWriter, selectors []int, nGroups int) {
	list := make([]int, nGroups)
	for i := range list {
		list[i] = i
	}
	for _, sel := range selectors {
		pos := 0
		for list[pos] != sel {
			pos++
		}
		for i := 0; i < pos; i++ {
			w.WriteBit(true)
		}
		w.WriteBit(false)
		copy(list[1:pos+1], list[0:pos])
		list[0] = sel
	}
}

// decodeSelectors reverses encodeSelectors.
func decodeSelectors(r *bitio.MSBReader, nSelectors, nGroups int) ([]int, error) {
	list := make([]int, nGroups)
	for i := range list {
		list[i] = i
	}
	out := make([]int, nSelectors)
	for i := range out {
		pos := 0
		for {
			bit := r.ReadBits(1)
			if r.Err() != nil {
				return nil, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated selector stream")
			}
			if bit == 0 {
				break
			}
			pos++
			if pos >= nGroups {
				return nil, ccerr.New(ccerr.CorruptedData, "bzip2: selector MTF position out of range")
			}
		}
		sel := list[pos]
		copy(list[1:pos+1], list[0:pos])
		list[0] = sel
		out[i] = sel
	}
	return out, nil
}

// writeCodeLengths transmits one Huffman table's code lengths delta-encoded
// from a 5-bit base value (spec.md §4.2 step 5: "tables delta-encoded").
func writeCodeLengths(w *bitio.MSBWriter, lengths []uint8) {
	cur := int(lengths[0])
	w.WriteBits(uint64(cur), 5)
	for _, target := range lengths {
		for cur != int(target) {
			w.WriteBit(true)
			if cur < int(target) {
				w.WriteBit(false)
				cur++
			} else {
				w.WriteBit(true)
				cur--
			}
		}
		w.WriteBit(false)
	}
}

// readCodeLengths reverses writeCodeLengths.
func readCodeLengths(r *bitio.MSBReader, alphaSize int) ([]uint8, error) {
	length := r.ReadBits(5)
	if r.Err() != nil {
		return nil, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated Huffman base length")
	}
	lengths := make([]uint8, alphaSize)
	for j := range lengths {
		for {
			if length < 1 || length > maxHuffmanLen {
				return nil, ccerr.New(ccerr.CorruptedData, "bzip2: Huffman length %d out of range", length)
			}
			more := r.ReadBits(1)
			if r.Err() != nil {
				return nil, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated Huffman length delta")
			}
			if more == 0 {
				break
			}
			dir := r.ReadBits(1)
			if r.Err() != nil {
				return nil, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated Huffman length delta")
			}
			if dir == 1 {
				length--
			} else {
				length++
			}
		}
		lengths[j] = uint8(length)
	}
	return lengths, nil
}
