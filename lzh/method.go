// Package lzh implements the LZH codec (spec.md §4.5): LZSS matching over a
// method-specific window, with literal/length and distance alphabets coded
// by a canonical Huffman table that's fixed per method rather than
// transmitted per block ("static Huffman per window size").
//
// Grounded on oxiarc-lzhuf/src/methods.rs for the five-method table
// (window sizes, position-code bit counts, NC=510/NP_MAX=17 constants) and
// on other_examples/e2613209_JoshVarga-blast__reader.go.go for idiomatic Go
// LZSS+Huffman decode shape (PKWare "blast" is the closest pack example to
// LZH's design). Match search reuses internal/lzmatch; entropy coding
// reuses internal/huffman.
package lzh

import "github.com/arvida-labs/compresscore/ccerr"

// Method selects one of LZH's five classic compression methods (spec.md §5
// supplemented feature list).
type Method int

const (
	Lh0 Method = iota // stored, no compression
	Lh4               // 4 KiB window
	Lh5               // 8 KiB window (most common)
	Lh6               // 32 KiB window
	Lh7               // 64 KiB window
)

// WindowSize returns the sliding-window size in bytes, 0 for Lh0.
func (m Method) WindowSize() int {
	switch m {
	case Lh4:
		return 4096
	case Lh5:
		return 8192
	case Lh6:
		return 32768
	case Lh7:
		return 65536
	default:
		return 0
	}
}

// PositionBits returns the number of bits needed to address the window,
// log2(WindowSize), 0 for Lh0.
func (m Method) PositionBits() uint {
	switch m {
	case Lh4:
		return 12
	case Lh5:
		return 13
	case Lh6:
		return 15
	case Lh7:
		return 16
	default:
		return 0
	}
}

// ID returns the 5-byte LHA method identifier string ("-lh5-" etc).
func (m Method) ID() string {
	switch m {
	case Lh0:
		return "-lh0-"
	case Lh4:
		return "-lh4-"
	case Lh5:
		return "-lh5-"
	case Lh6:
		return "-lh6-"
	case Lh7:
		return "-lh7-"
	default:
		return ""
	}
}

// MethodFromID parses a 5-byte LHA method identifier.
func MethodFromID(id string) (Method, error) {
	switch id {
	case "-lh0-":
		return Lh0, nil
	case "-lh4-":
		return Lh4, nil
	case "-lh5-":
		return Lh5, nil
	case "-lh6-":
		return Lh6, nil
	case "-lh7-":
		return Lh7, nil
	default:
		return 0, ccerr.New(ccerr.InvalidMagic, "lzh: unknown method id %q", id)
	}
}

func (m Method) IsStored() bool { return m == Lh0 }

const (
	minMatch = 3
	maxMatch = 256 // minMatch..maxMatch is 254 distinct lengths, matching NC=510 (256 literals + 254 lengths)

	numLitSymbols = 256
	numLenCodes   = maxMatch - minMatch + 1     // 254
	numCharCodes  = numLitSymbols + numLenCodes // 510, matches oxiarc-lzhuf's NC constant

	// eobSymbol marks end-of-stream in the char/length alphabet. LHA proper
	// relies on a declared original size from its container header instead;
	// since this package's Decode contract (spec.md §6) takes no declared
	// size, an explicit terminal symbol replaces that role.
	eobSymbol        = numCharCodes
	numCharAlphabet = numCharCodes + 1
)

func lengthSymbol(length int) int { return numLitSymbols + (length - minMatch) }
func symbolLength(symbol int) int { return symbol - numLitSymbols + minMatch }
