package lzma

import (
	"math/bits"

	"github.com/arvida-labs/compresscore/internal/lzmatch"
	"github.com/arvida-labs/compresscore/internal/rangecoder"
)

// Encoder produces a single LZMA1 stream for a complete in-memory buffer. It
// performs greedy longest-match search via internal/lzmatch (spec.md §4.1's
// hash-chain matcher, reused here rather than rebuilt for LZMA) and encodes
// the resulting literal/match/rep decisions with internal/rangecoder,
// mirroring other_examples/167a3a08_..._dec_lzma2.go.go's decode functions
// bit for bit in the opposite direction.
type Encoder struct {
	props Properties
	level Level
	data  []byte
}

// NewEncoder creates an Encoder for data at the given level (dictionary
// size / search effort) and literal/position properties.
func NewEncoder(data []byte, level Level, props Properties) *Encoder {
	return &Encoder{props: props, level: level, data: data}
}

// Encode returns the LZMA1 range-coded payload (no stream header: callers
// wrap it per spec.md's LZMA module framing).
func (enc *Encoder) Encode() []byte {
	c := newCore(enc.props)
	rc := rangecoder.NewEncoder()
	data := enc.data
	n := len(data)

	windowSize := int(enc.level.DictSize())
	if windowSize > n && n > 0 {
		windowSize = n
	}
	matcher := lzmatch.New(data, matchMinLen, windowSize, enc.level.maxChain(), matchMinLen, maxMatchLen)

	posMask := uint32(1<<enc.props.PB - 1)

	pos := 0
	for pos < n {
		posState := uint32(pos) & posMask

		match, ok := matcher.Find(pos)
		matcher.Insert(pos)
		useMatch := ok && match.Length >= matchMinLen

		// Prefer a rep-distance match whenever its run is at most one byte
		// shorter than the best fresh match: it costs fewer bits to
		// encode. This greedy rule stands in for a full optimal parser.
		repDist, repLen, haveRep := enc.bestRepMatch(c, data, pos, n)
		if haveRep && repLen >= matchMinLen && (!useMatch || repLen+1 >= match.Length) {
			enc.encodeRepMatch(c, rc, posState, repDist, repLen)
			for i := 1; i < repLen && pos+i < n; i++ {
				matcher.Insert(pos + i)
			}
			pos += repLen
			continue
		}

		if useMatch {
			enc.encodeMatch(c, rc, posState, match.Distance, match.Length)
			for i := 1; i < match.Length && pos+i < n; i++ {
				matcher.Insert(pos + i)
			}
			pos += match.Length
			continue
		}

		enc.encodeLiteral(c, rc, data, pos, posState)
		pos++
	}

	rc.Flush()
	return rc.Bytes()
}

// bestRepMatch checks whether any of the four most recent match distances
// reproduces the bytes at pos, returning the longest such run.
func (enc *Encoder) bestRepMatch(c *core, data []byte, pos, n int) (distIdx int, length int, ok bool) {
	if pos == 0 {
		return 0, 0, false
	}
	reps := [4]uint32{c.rep0, c.rep1, c.rep2, c.rep3}
	bestLen, bestIdx := 0, -1
	for i, r := range reps {
		dist := int(r) + 1
		if dist > pos {
			continue
		}
		l := 0
		maxLen := n - pos
		if maxLen > maxMatchLen {
			maxLen = maxMatchLen
		}
		for l < maxLen && data[pos+l] == data[pos+l-dist] {
			l++
		}
		if l > bestLen {
			bestLen = l
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return 0, 0, false
	}
	return bestIdx, bestLen, true
}

func (enc *Encoder) encodeLiteral(c *core, rc *rangecoder.Encoder, data []byte, pos int, posState uint32) {
	m := c.m
	var prevByte byte
	if pos > 0 {
		prevByte = data[pos-1]
	}
	idx := litState(c.props, uint32(pos), prevByte)
	probs := m.literal[idx]
	b := uint32(data[pos])

	rc.EncodeBit(&m.isMatch[c.state][posState], 0)

	if stateIsLiteral(c.state) {
		symbol := uint32(1)
		for i := 7; i >= 0; i-- {
			bit := (b >> uint(i)) & 1
			rc.EncodeBit(&probs[symbol], int(bit))
			symbol = symbol<<1 | bit
		}
	} else {
		matchByte := uint32(data[pos-int(c.rep0)-1]) << 1
		offset := uint32(0x100)
		symbol := uint32(1)
		for i := 7; i >= 0; i-- {
			matchBit := matchByte & offset
			matchByte <<= 1
			bit := (b >> uint(i)) & 1
			j := offset + matchBit + symbol
			rc.EncodeBit(&probs[j], int(bit))
			symbol = symbol<<1 | bit
			if bit == 1 {
				offset &= matchBit
			} else {
				offset &= ^matchBit
			}
		}
	}
	c.state = updateStateLiteral(c.state)
}

func (enc *Encoder) encodeLength(rc *rangecoder.Encoder, lc *lenCoder, posState uint32, length int) {
	lc.encode(rc, int(posState), length-matchMinLen)
}

func (enc *Encoder) encodeMatch(c *core, rc *rangecoder.Encoder, posState uint32, distance, length int) {
	m := c.m
	rc.EncodeBit(&m.isMatch[c.state][posState], 1)
	rc.EncodeBit(&m.isRep[c.state], 0)

	c.rep3, c.rep2, c.rep1 = c.rep2, c.rep1, c.rep0
	c.rep0 = uint32(distance - 1)

	enc.encodeLength(rc, m.lenCoder, posState, length)

	lenState := lenToDistState(length - matchMinLen)
	dist := c.rep0
	if dist < distModelStart {
		rc.EncodeBitTree(m.distSlot[lenState], distSlotBits, dist)
	} else {
		slot := distSlotFor(dist)
		rc.EncodeBitTree(m.distSlot[lenState], distSlotBits, slot)
		numDirectBits := slot>>1 - 1
		base := (2 | (slot & 1)) << numDirectBits
		rem := dist - base
		if slot < distModelEnd {
			offset := base - slot
			rc.EncodeBitTreeReverseZero(m.distSpecial[offset:], uint(numDirectBits), rem)
		} else {
			rc.EncodeDirectBits(rem>>alignBits, uint(numDirectBits-alignBits))
			rc.EncodeBitTreeReverse(m.distAlign, alignBits, rem&(alignCount-1))
		}
	}
	c.state = updateStateMatch(c.state)
}

// distSlotFor computes the distance-slot value (the inverse of the
// decoder's distSlot -> base-distance expansion) for a distance >= 4.
func distSlotFor(dist uint32) uint32 {
	if dist < 4 {
		return dist
	}
	nbits := uint32(31 - bits.LeadingZeros32(dist))
	return (nbits << 1) | ((dist >> (nbits - 1)) & 1)
}

func (enc *Encoder) encodeRepMatch(c *core, rc *rangecoder.Encoder, posState uint32, repIdx, length int) {
	m := c.m
	rc.EncodeBit(&m.isMatch[c.state][posState], 1)
	rc.EncodeBit(&m.isRep[c.state], 1)

	switch repIdx {
	case 0:
		rc.EncodeBit(&m.isRepG0[c.state], 0)
		if length == 1 {
			rc.EncodeBit(&m.isRep0Long[c.state][posState], 0)
			c.state = updateStateShortRep(c.state)
			return
		}
		rc.EncodeBit(&m.isRep0Long[c.state][posState], 1)
	case 1:
		rc.EncodeBit(&m.isRepG0[c.state], 1)
		rc.EncodeBit(&m.isRepG1[c.state], 0)
		c.rep1, c.rep0 = c.rep0, c.rep1
	case 2:
		rc.EncodeBit(&m.isRepG0[c.state], 1)
		rc.EncodeBit(&m.isRepG1[c.state], 1)
		rc.EncodeBit(&m.isRepG2[c.state], 0)
		c.rep2, c.rep1, c.rep0 = c.rep1, c.rep0, c.rep2
	default:
		rc.EncodeBit(&m.isRepG0[c.state], 1)
		rc.EncodeBit(&m.isRepG1[c.state], 1)
		rc.EncodeBit(&m.isRepG2[c.state], 1)
		c.rep3, c.rep2, c.rep1, c.rep0 = c.rep2, c.rep1, c.rep0, c.rep3
	}
	c.state = updateStateRep(c.state)
	enc.encodeLength(rc, m.repLenCoder, posState, length)
}
