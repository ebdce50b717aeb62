package zstd

import "github.com/arvida-labs/compresscore/ccerr"

// Magic is the Zstandard frame magic number (spec.md §4.4, RFC 8878 §3.1.1).
const Magic uint32 = 0x28B52FFD

// SkippableMagicLow and SkippableMagicHigh bound the range of skippable
// frame magic numbers (spec.md §6); a conforming decoder must skip frames
// in this range without interpreting their payload.
const (
	SkippableMagicLow  uint32 = 0x184D2A50
	SkippableMagicHigh uint32 = 0x184D2A5F
)

func le32(data []byte, pos int) uint32 {
	return uint32(data[pos]) | uint32(data[pos+1])<<8 | uint32(data[pos+2])<<16 | uint32(data[pos+3])<<24
}

func appendLE32(out []byte, v uint32) []byte {
	return append(out, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// frameHeader holds the decoded fields of a Zstandard frame header
// (spec.md §3 "Zstandard frame state").
type frameHeader struct {
	windowSize      uint64
	hasContentSize  bool
	contentSize     uint64
	hasChecksum     bool
	singleSegment   bool
}

// appendFrameHeader writes the magic and frame header this package's
// encoder always produces: single-segment when the content is small enough
// to fit a compact window descriptor, content size present, and an
// optional checksum flag. Dictionary IDs are never emitted (spec.md §1
// treats multi-file archive dictionaries as a container concern).
func appendFrameHeader(out []byte, contentSize int, windowLog uint, withChecksum bool) []byte {
	out = appendLE32(out, Magic)
	singleSegment := contentSize <= (1 << windowLog)
	descStart := len(out)
	out = append(out, 0) // frame header descriptor, patched below
	fhd := byte(0)
	if withChecksum {
		fhd |= 1 << 2
	}
	if singleSegment {
		fhd |= 1 << 5
	}
	// Content_Size_Flag: 2-bit field choosing how many bytes encode the
	// size; use the smallest field that fits (spec.md §4.4 frame header).
	var sizeFieldLen int
	switch {
	case singleSegment && contentSize < 256:
		sizeFieldLen = 1
		fhd |= 0 << 6
	case contentSize == 0:
		sizeFieldLen = 0
	case contentSize >= 256 && contentSize < 1<<16+256:
		sizeFieldLen = 2
		fhd |= 1 << 6
	case contentSize <= 0xFFFFFFFF:
		sizeFieldLen = 4
		fhd |= 2 << 6
	default:
		sizeFieldLen = 8
		fhd |= 3 << 6
	}
	out[descStart] = fhd
	if !singleSegment {
		// Window_Descriptor: 1 byte, exponent in bits 3-7, mantissa in 0-2.
		exponent := byte(0)
		if windowLog > 10 {
			exponent = byte(windowLog - 10)
		}
		out = append(out, exponent<<3)
	}
	switch sizeFieldLen {
	case 0:
	case 1:
		out = append(out, byte(contentSize))
	case 2:
		v := uint32(contentSize - 256)
		out = append(out, byte(v), byte(v>>8))
	case 4:
		out = appendLE32(out, uint32(contentSize))
	case 8:
		lo := uint32(contentSize)
		hi := uint32(contentSize >> 32)
		out = appendLE32(out, lo)
		out = appendLE32(out, hi)
	}
	return out
}

// parseFrameHeader reads the frame header starting at data[pos:] (after the
// magic has already been consumed) and returns the header plus the byte
// offset of the first block.
func parseFrameHeader(data []byte, pos int, maxWindowSize int) (frameHeader, int, error) {
	var h frameHeader
	if err := checkBounds(pos, 1, data); err != nil {
		return h, pos, err
	}
	fhd := data[pos]
	pos++
	h.hasChecksum = fhd&(1<<2) != 0
	h.singleSegment = fhd&(1<<5) != 0
	dictIDFlag := fhd & 0x3
	contentSizeFlag := fhd >> 6

	if !h.singleSegment {
		if err := checkBounds(pos, 1, data); err != nil {
			return h, pos, err
		}
		wd := data[pos]
		pos++
		exponent := uint(wd >> 3)
		mantissa := uint(wd & 0x7)
		windowBase := uint64(1) << (10 + exponent)
		windowAdd := (windowBase / 8) * uint64(mantissa)
		h.windowSize = windowBase + windowAdd
	}

	var dictIDLen int
	switch dictIDFlag {
	case 0:
		dictIDLen = 0
	case 1:
		dictIDLen = 1
	case 2:
		dictIDLen = 2
	case 3:
		dictIDLen = 4
	}
	if dictIDLen > 0 {
		if err := checkBounds(pos, dictIDLen, data); err != nil {
			return h, pos, err
		}
		pos += dictIDLen // dictionary application is a container concern, spec.md §1.
	}

	var sizeFieldLen int
	switch {
	case contentSizeFlag == 0 && h.singleSegment:
		sizeFieldLen = 1
	case contentSizeFlag == 0:
		sizeFieldLen = 0
	case contentSizeFlag == 1:
		sizeFieldLen = 2
	case contentSizeFlag == 2:
		sizeFieldLen = 4
	default:
		sizeFieldLen = 8
	}
	if sizeFieldLen > 0 {
		if err := checkBounds(pos, sizeFieldLen, data); err != nil {
			return h, pos, err
		}
		h.hasContentSize = true
		switch sizeFieldLen {
		case 1:
			h.contentSize = uint64(data[pos])
		case 2:
			h.contentSize = (uint64(data[pos]) | uint64(data[pos+1])<<8) + 256
		case 4:
			h.contentSize = uint64(le32(data, pos))
		case 8:
			lo := uint64(le32(data, pos))
			hi := uint64(le32(data, pos+4))
			h.contentSize = lo | hi<<32
		}
		pos += sizeFieldLen
	}
	if h.singleSegment {
		h.windowSize = h.contentSize
	}
	if h.windowSize > uint64(maxWindowSize) {
		return h, pos, ccerr.New(ccerr.ResourceLimitExceeded, "zstd: window size %d exceeds cap %d", h.windowSize, maxWindowSize)
	}
	return h, pos, nil
}
