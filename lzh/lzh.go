package lzh

import (
	"bytes"

	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/bitio"
	"github.com/arvida-labs/compresscore/internal/huffman"
	"github.com/arvida-labs/compresscore/internal/lzmatch"
)

// Encode compresses data with the given Method (spec.md §4.5's
// LZSS+static-Huffman contract). Lh0 stores data unchanged.
func Encode(data []byte, m Method) []byte {
	if m.IsStored() {
		out := make([]byte, len(data))
		copy(out, data)
		return out
	}
	t := methodTables[m]
	window := m.WindowSize()

	var out []byte
	w := bitio.NewLSBWriter(&sliceWriter{out: &out})

	matcher := lzmatch.New(data, minMatch, window, 32, minMatch, maxMatch)
	pos := 0
	for pos < len(data) {
		match, ok := matcher.Find(pos)
		matcher.Insert(pos)
		if ok {
			emitCode(w, t.charCodes[lengthSymbol(match.Length)])
			slot, extraBits, extraVal := distSlot(uint32(match.Distance))
			emitCode(w, t.posCodes[slot])
			if extraBits > 0 {
				w.WriteBits(extraVal, extraBits)
			}
			for i := 1; i < match.Length; i++ {
				if pos+i < len(data) {
					matcher.Insert(pos + i)
				}
			}
			pos += match.Length
		} else {
			emitCode(w, t.charCodes[data[pos]])
			pos++
		}
	}
	emitCode(w, t.charCodes[eobSymbol])
	w.Flush()
	return out
}

func emitCode(w *bitio.LSBWriter, c huffman.Code) {
	for i := int(c.Len) - 1; i >= 0; i-- {
		w.WriteBit((c.Bits>>uint(i))&1 != 0)
	}
}

// Decode decompresses an LZH stream produced by Encode (or a conforming
// static-Huffman LZH encoder for the same Method). maxOutput bounds the
// decoded size.
func Decode(data []byte, m Method, maxOutput int) ([]byte, error) {
	if m.IsStored() {
		if len(data) > maxOutput {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lzh: stored data exceeds max_output %d", maxOutput)
		}
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
	out, err := decodeCore(data, m, maxOutput)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// decodePrefix is the entry point StreamDecoder calls; whole-buffer Decode
// and the streaming decoder share decodeCore's one decode loop.
func decodePrefix(data []byte, m Method, maxOutput int) ([]byte, error) {
	if m.IsStored() {
		if len(data) > maxOutput {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lzh: stored data exceeds max_output %d", maxOutput)
		}
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
	return decodeCore(data, m, maxOutput)
}

// decodeCore runs the Huffman+LZSS decode loop, returning whatever bytes
// were fully decoded even when it returns a TruncatedInput error — the
// streaming decoder relies on that partial result being valid and safe to
// deliver; Decode itself discards the partial result on any error per
// spec.md §7's "never continues past a structural fault".
func decodeCore(data []byte, m Method, maxOutput int) ([]byte, error) {
	t := methodTables[m]
	r := bitio.NewLSBReader(bytes.NewReader(data))

	out := make([]byte, 0, minInt(len(data)*2, maxOutput))
	for {
		sym := t.charTree.Decode(r)
		if r.Err() != nil {
			return out, ccerr.At(ccerr.TruncatedInput, int64(len(data)), "lzh: truncated char/length code")
		}
		if int(sym) == eobSymbol {
			break
		}
		if int(sym) < numLitSymbols {
			if len(out) >= maxOutput {
				return out, ccerr.New(ccerr.ResourceLimitExceeded, "lzh: output exceeds max_output %d", maxOutput)
			}
			out = append(out, byte(sym))
			continue
		}
		length := symbolLength(int(sym))
		slot := t.posTree.Decode(r)
		if r.Err() != nil {
			return out, ccerr.At(ccerr.TruncatedInput, int64(len(data)), "lzh: truncated position code")
		}
		extraBits := uint(0)
		if int(slot) > 0 {
			extraBits = uint(int(slot) - 1)
		}
		var extraVal uint32
		if extraBits > 0 {
			extraVal = r.ReadBits(extraBits)
			if r.Err() != nil {
				return out, ccerr.At(ccerr.TruncatedInput, int64(len(data)), "lzh: truncated position extra bits")
			}
		}
		distance := distFromSlot(int(slot), extraVal)
		if len(out)+length > maxOutput {
			return out, ccerr.New(ccerr.ResourceLimitExceeded, "lzh: output exceeds max_output %d", maxOutput)
		}
		if int(distance) > len(out) {
			return out, ccerr.New(ccerr.CorruptedData, "lzh: distance %d exceeds available history %d", distance, len(out))
		}
		start := len(out) - int(distance)
		for k := 0; k < length; k++ {
			out = append(out, out[start+k])
		}
	}
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

type sliceWriter struct{ out *[]byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s.out = append(*s.out, p...)
	return len(p), nil
}
