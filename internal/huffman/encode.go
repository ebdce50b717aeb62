package huffman

// Code is a canonical Huffman codeword: the low `Len` bits of Bits hold the
// code, written most-significant-bit first (the canonical-code convention
// in spec.md §3, and the order RFC 1951 requires even inside an
// LSB-first-fields stream like DEFLATE).
type Code struct {
	Bits uint32
	Len  uint8
}

// AssignCodes assigns canonical codes to a set of code lengths (0 meaning
// unused), following the same ascending-length, ascending-symbol ordering
// BuildCanonical's decode-tree construction uses, so a Code from here and a
// Tree from BuildCanonical(lengths, ...) agree on every symbol.
func AssignCodes(lengths []uint8) []Code {
	codes := make([]Code, len(lengths))
	maxLen := uint8(0)
	for _, l := range lengths {
		if l > maxLen {
			maxLen = l
		}
	}
	if maxLen == 0 {
		return codes
	}
	var blCount [32]int
	for _, l := range lengths {
		if l > 0 {
			blCount[l]++
		}
	}
	var code uint32
	var nextCode [33]uint32
	for bits := uint8(1); bits <= maxLen; bits++ {
		code = (code + uint32(blCount[bits-1])) << 1
		nextCode[bits] = code
	}
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		codes[sym] = Code{Bits: nextCode[l], Len: l}
		nextCode[l]++
	}
	return codes
}
