package lzma

import (
	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/rangecoder"
	"github.com/arvida-labs/compresscore/internal/xwindow"
)

// unknownOutLen, passed to Decode, requests spec.md §4.3's unknown-size
// decode mode: keep decoding until the range-coded stream itself signals
// end-of-data via the explicit "end marker" (a match with distance
// 0xFFFFFFFF), rather than stopping at a declared byte count.
const unknownOutLen = -1

// core holds the full mutable state of one LZMA bitstream: the 12-state
// automaton, the four most recent match distances ("reps"), and the
// adaptive probability model. Shared between the decoder and encoder so
// LZMA2's state-reset chunk types can reset exactly this struct.
//
// Grounded throughout on
// other_examples/167a3a08_ethereum-go-ethereum__vendor-github.com-xi2-xz-dec_lzma2.go.go
// (lzmaMain/lzmaLiteral/lzmaMatch/lzmaRepMatch/lzmaReset).
type core struct {
	props                  Properties
	m                      *model
	state                  int
	rep0, rep1, rep2, rep3 uint32
}

func newCore(props Properties) *core {
	return &core{props: props, m: newModel(props), state: stateLitLit}
}

// Decoder decodes a single LZMA1 stream into an output window.
type Decoder struct {
	c   *core
	rc  *rangecoder.Decoder
	win *xwindow.Window
}

// NewDecoder creates a Decoder. win must already have been constructed with
// capacity >= the stream's dictionary size; it may carry preset-dictionary
// history from a prior call.
func NewDecoder(props Properties, rcInput []byte, win *xwindow.Window) *Decoder {
	return &Decoder{c: newCore(props), rc: rangecoder.NewDecoder(rcInput), win: win}
}

// newDecoderWithCore builds a Decoder over an existing core, for LZMA2
// chunks whose control byte requests no state reset (continuation of the
// previous chunk's automaton state, reps, and probability model).
func newDecoderWithCore(c *core, rcInput []byte, win *xwindow.Window) *Decoder {
	return &Decoder{c: c, rc: rangecoder.NewDecoder(rcInput), win: win}
}

// posMask derives from PB exactly as lzmaProps does.
func (d *Decoder) posMask() uint32 { return 1<<d.c.props.PB - 1 }

// Decode produces outLen bytes of uncompressed output (or, if outLen is
// unknownOutLen, decodes until the stream's explicit end marker), appending
// them to the window and returning them. maxOutput bounds allocation and
// total output regardless of what outLen or the stream itself claims
// (spec.md §5's decompression-bomb cap, §8 property 5): a stream that would
// produce more than maxOutput bytes fails with ResourceLimitExceeded before
// the overrun is appended.
func (d *Decoder) Decode(outLen int, maxOutput int) ([]byte, error) {
	if outLen >= 0 && outLen > maxOutput {
		return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lzma: declared uncompressed size %d exceeds max_output %d", outLen, maxOutput)
	}
	capHint := maxOutput
	if outLen >= 0 && outLen < capHint {
		capHint = outLen
	}
	out := make([]byte, 0, capHint)
	c := d.c
	m := c.m
	posMask := d.posMask()

	for outLen < 0 || len(out) < outLen {
		pos := uint32(d.win.Pos())
		posState := pos & posMask

		if d.rc.DecodeBit(&m.isMatch[c.state][posState]) == 0 {
			if len(out)+1 > maxOutput {
				return out, ccerr.New(ccerr.ResourceLimitExceeded, "lzma: output exceeds max_output %d", maxOutput)
			}
			b, err := d.decodeLiteral()
			if err != nil {
				return out, err
			}
			out = append(out, b)
			continue
		}

		var length int
		if d.rc.DecodeBit(&m.isRep[c.state]) == 0 {
			length = d.decodeMatch(posState)
			if c.rep0 == endMarkerDistance {
				if outLen >= 0 {
					return out, ccerr.New(ccerr.CorruptedData, "lzma: unexpected end marker before declared size reached")
				}
				return out, nil
			}
		} else {
			var err error
			length, err = d.decodeRepMatch(posState)
			if err != nil {
				return out, err
			}
		}
		if len(out)+length > maxOutput {
			return out, ccerr.New(ccerr.ResourceLimitExceeded, "lzma: output exceeds max_output %d", maxOutput)
		}
		var err error
		out, err = d.win.CopyMatch(out, c.rep0+1, uint32(length))
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (d *Decoder) decodeLiteral() (byte, error) {
	c, m := d.c, d.c.m
	pos := uint32(d.win.Pos())
	var prevByte byte
	if d.win.Len() > 0 {
		prevByte = d.win.ByteAt(1)
	}
	idx := litState(c.props, pos, prevByte)
	probs := m.literal[idx]

	var symbol uint32 = 1
	if stateIsLiteral(c.state) {
		for symbol < 0x100 {
			symbol = symbol<<1 | uint32(d.rc.DecodeBit(&probs[symbol]))
		}
	} else {
		matchByte := uint32(d.win.ByteAt(c.rep0+1)) << 1
		offset := uint32(0x100)
		for symbol < 0x100 {
			matchBit := matchByte & offset
			matchByte <<= 1
			i := offset + matchBit + symbol
			bit := uint32(d.rc.DecodeBit(&probs[i]))
			if bit == 1 {
				symbol = symbol<<1 | 1
				offset &= matchBit
			} else {
				symbol <<= 1
				offset &= ^matchBit
			}
		}
	}
	b := byte(symbol)
	d.win.PutByte(b)
	c.state = updateStateLiteral(c.state)
	return b, nil
}

func (d *Decoder) decodeLength(lc *lenCoder, posState uint32) int {
	return lc.decode(d.rc, int(posState)) + matchMinLen
}

func (d *Decoder) decodeMatch(posState uint32) int {
	c, m := d.c, d.c.m
	c.rep3, c.rep2, c.rep1 = c.rep2, c.rep1, c.rep0
	length := d.decodeLength(m.lenCoder, posState)

	lenState := lenToDistState(length - matchMinLen)
	distSlot := d.rc.BitTree(m.distSlot[lenState], distSlotBits)

	var dist uint32
	if distSlot < distModelStart {
		dist = distSlot
	} else {
		numDirectBits := distSlot>>1 - 1
		dist = (2 | (distSlot & 1)) << numDirectBits
		if distSlot < distModelEnd {
			offset := dist - distSlot
			dist += d.rc.BitTreeReverseZero(m.distSpecial[offset:], uint(numDirectBits))
		} else {
			dist += d.rc.DecodeDirectBits(uint(numDirectBits-alignBits)) << alignBits
			dist += d.rc.BitTreeReverse(m.distAlign, alignBits)
		}
	}
	c.rep0 = dist
	c.state = updateStateMatch(c.state)
	return length
}

func (d *Decoder) decodeRepMatch(posState uint32) (int, error) {
	c, m := d.c, d.c.m
	if d.rc.DecodeBit(&m.isRepG0[c.state]) == 0 {
		if d.rc.DecodeBit(&m.isRep0Long[c.state][posState]) == 0 {
			c.state = updateStateShortRep(c.state)
			return 1, nil
		}
	} else {
		var dist uint32
		if d.rc.DecodeBit(&m.isRepG1[c.state]) == 0 {
			dist = c.rep1
		} else {
			if d.rc.DecodeBit(&m.isRepG2[c.state]) == 0 {
				dist = c.rep2
			} else {
				dist = c.rep3
				c.rep3 = c.rep2
			}
			c.rep2 = c.rep1
		}
		c.rep1 = c.rep0
		c.rep0 = dist
	}
	c.state = updateStateRep(c.state)
	length := d.decodeLength(m.repLenCoder, posState)
	return length, nil
}
