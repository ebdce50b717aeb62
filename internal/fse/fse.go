// Package fse implements Finite State Entropy (spec.md §2 L2a, §3, §4.4):
// the ANS-family entropy coder Zstandard uses for its sequence tables and,
// indirectly, for its Huffman weight tables. It owns the normalized-count
// header format ("NCount", spec.md §4.1.1 of RFC 8878) shared by both uses,
// the decode-table build (symbol/num_bits/baseline entries, spec.md §3),
// and the reversed bitstream reader Zstandard's FSE and Huffman streams
// both read from (internal/fse.BackwardReader).
//
// Grounded on spec.md §3/§4.4 for the table shape and accuracy-log bounds,
// and on the table-driven decode idiom (state/baseline/nbits entries) shown
// by other_examples/1d106c6c_ethereum-go-ethereum__vendor-github.com-klauspost-compress-zstd-enc_fast.go.go
// and other_examples/6b4d60a0_moby-moby__vendor-github.com-klauspost-compress-zstd-framedec.go.go.
// The NCount bit-unpacking algorithm itself has no direct Go source in the
// retrieval pack; it is implemented from the RFC 8878 §4.1.1 description
// named in spec.md, not from any pack file, and is called out as such in
// DESIGN.md.
package fse

import "github.com/arvida-labs/compresscore/ccerr"

// MaxAccuracyLog bounds the largest accuracy log this package will build a
// table for (Zstandard's largest use is literal-length/offset at 9,
// spec.md §3); callers enforce their own tighter per-table bound.
const MaxAccuracyLog = 12

// Table is a built FSE decode table: tableSize = 1 << AccuracyLog entries,
// each an (symbol, num_bits, baseline) triple per spec.md §3.
type Table struct {
	AccuracyLog uint
	entries     []entry
}

type entry struct {
	symbol byte
	nbBits uint8
	base   uint16
}

// highBit returns floor(log2(v)) for v > 0.
func highBit(v uint32) uint {
	n := uint(0)
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// BuildDecodeTable builds a decode Table from normalized counts (spec.md
// §3: counts may be negative, meaning "probability < 1/total"), following
// the classic FSE_buildDTable spread-and-assign algorithm: low-probability
// symbols (count == -1) are seated at the high end of the table first, then
// every other symbol's occurrences are spread across the remaining cells
// with a fixed odd stride, and finally each cell's (num_bits, baseline) is
// derived from how many times its symbol has been seen so far while
// scanning state order 0..tableSize-1.
func BuildDecodeTable(counts []int16, accuracyLog uint) (*Table, error) {
	if accuracyLog == 0 || accuracyLog > MaxAccuracyLog {
		return nil, ccerr.New(ccerr.CorruptedData, "fse accuracy log %d out of range", accuracyLog)
	}
	tableSize := uint32(1) << accuracyLog
	symbols := make([]byte, tableSize)
	highThreshold := tableSize - 1

	symbolNext := make([]uint32, len(counts))
	for s, c := range counts {
		if c == -1 {
			symbols[highThreshold] = byte(s)
			highThreshold--
			symbolNext[s] = 1
		} else if c > 0 {
			symbolNext[s] = uint32(c)
		}
	}

	step := ((tableSize >> 1) + (tableSize >> 3) + 3) | 1
	mask := tableSize - 1
	pos := uint32(0)
	for s, c := range counts {
		if c <= 0 {
			continue
		}
		for i := int16(0); i < c; i++ {
			symbols[pos] = byte(s)
			pos = (pos + step) & mask
			for pos > highThreshold {
				pos = (pos + step) & mask
			}
		}
	}
	if pos != 0 {
		return nil, ccerr.New(ccerr.CorruptedData, "fse normalized counts do not spread evenly across the table")
	}

	t := &Table{AccuracyLog: accuracyLog, entries: make([]entry, tableSize)}
	next := make([]uint32, len(symbolNext))
	copy(next, symbolNext)
	for u := uint32(0); u < tableSize; u++ {
		sym := symbols[u]
		n := next[sym]
		next[sym]++
		nbBits := accuracyLog - highBit(n)
		t.entries[u] = entry{
			symbol: sym,
			nbBits: uint8(nbBits),
			base:   uint16((n << nbBits) - tableSize),
		}
	}
	return t, nil
}

// RLETable builds the degenerate single-symbol table used by Sequences'
// RLE compression mode: one state, zero bits, always the same symbol.
func RLETable(symbol byte) *Table {
	return &Table{AccuracyLog: 0, entries: []entry{{symbol: symbol, nbBits: 0, base: 0}}}
}

// State is a live FSE decode cursor: an index into Table plus the bits this
// codec still needs to read from the bitstream before it can transition.
type State struct {
	table *Table
	idx   uint32
}

// NewState seeds a State by reading AccuracyLog bits from r as the initial
// table index, per spec.md §4.4 ("initial FSE states are loaded from the
// stream's high bits").
func NewState(table *Table, r *BackwardReader) (*State, error) {
	idx, err := r.ReadBits(table.AccuracyLog)
	if err != nil {
		return nil, err
	}
	return &State{table: table, idx: idx}, nil
}

// Symbol returns the symbol for the state's current table entry without
// consuming any bits.
func (s *State) Symbol() byte { return s.table.entries[s.idx].symbol }

// Advance reads this entry's num_bits from r and moves to the next state;
// callers call this once per symbol, after having used Symbol().
func (s *State) Advance(r *BackwardReader) error {
	e := s.table.entries[s.idx]
	low, err := r.ReadBits(uint(e.nbBits))
	if err != nil {
		return err
	}
	s.idx = uint32(e.base) + low
	return nil
}

// ReadNCount parses a normalized-count header (RFC 8878 §4.1.1): a 4-bit
// accuracy-log nibble biased by 5, followed by a sequence of variable-width
// counts (negative meaning "less than 1", runs of zero counts compressed
// via a 2-bit-chunked repeat code). Returns the counts (sized maxSymbol+1),
// the accuracy log, and the number of whole bytes consumed from data.
func ReadNCount(data []byte, maxSymbol int) (counts []int16, accuracyLog uint, consumed int, err error) {
	c := &lsbCursor{data: data}
	accuracyLog = uint(c.peek(4)) + 5
	c.advance(4)
	if accuracyLog > MaxAccuracyLog {
		return nil, 0, 0, ccerr.New(ccerr.CorruptedData, "fse ncount accuracy log %d too large", accuracyLog)
	}
	counts = make([]int16, maxSymbol+1)
	remaining := int32(1<<accuracyLog) + 1
	threshold := int32(1) << accuracyLog
	nbBits := accuracyLog + 1
	charnum := 0
	previous0 := false

	for remaining > 1 && charnum <= maxSymbol {
		if previous0 {
			n0 := charnum
			for {
				v := c.peek(2)
				c.advance(2)
				if v == 3 {
					n0 += 3
					continue
				}
				n0 += int(v)
				break
			}
			if n0 > maxSymbol+1 {
				return nil, 0, 0, ccerr.New(ccerr.CorruptedData, "fse ncount zero-run overruns alphabet")
			}
			for charnum < n0 {
				counts[charnum] = 0
				charnum++
			}
			previous0 = false
			continue
		}
		maxv := 2*threshold - 1 - remaining
		bits := c.peek(nbBits)
		var count int32
		if int32(bits)&(threshold-1) < maxv {
			count = int32(bits) & (threshold - 1)
			c.advance(nbBits - 1)
		} else {
			count = int32(bits) & (2*threshold - 1)
			if count >= threshold {
				count -= maxv
			}
			c.advance(nbBits)
		}
		count--
		if count < 0 {
			remaining += count
		} else {
			remaining -= count
		}
		if charnum > maxSymbol {
			return nil, 0, 0, ccerr.New(ccerr.CorruptedData, "fse ncount exceeds declared alphabet")
		}
		counts[charnum] = int16(count)
		charnum++
		previous0 = count == 0
		for remaining < threshold {
			nbBits--
			threshold >>= 1
		}
	}
	if remaining != 1 {
		return nil, 0, 0, ccerr.New(ccerr.CorruptedData, "fse ncount did not exhaust its probability budget")
	}
	for charnum <= maxSymbol {
		counts[charnum] = 0
		charnum++
	}
	return counts, accuracyLog, c.bytesConsumed(), nil
}

// lsbCursor is a peek-capable, LSB-first bit cursor over a byte slice, used
// only by ReadNCount which (unlike BackwardReader) needs to look ahead
// before deciding how many bits a field actually consumed.
type lsbCursor struct {
	data   []byte
	bitPos int
}

func (c *lsbCursor) peek(n uint) uint32 {
	var v uint32
	for k := uint(0); k < n; k++ {
		idx := c.bitPos + int(k)
		byteIdx := idx / 8
		if byteIdx >= len(c.data) {
			continue
		}
		bit := (c.data[byteIdx] >> uint(idx%8)) & 1
		v |= uint32(bit) << k
	}
	return v
}

func (c *lsbCursor) advance(n uint) { c.bitPos += int(n) }

func (c *lsbCursor) bytesConsumed() int { return (c.bitPos + 7) / 8 }
