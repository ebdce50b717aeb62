// Package lzma implements the LZMA and LZMA2 codecs (spec.md LZMA module):
// a range-coded LZ77 variant with an order-1-ish literal context model, a
// 12-state match/rep history automaton, and tiered length/distance coding.
//
// Grounded on oxiarc-lzma/src/lib.rs for the level table and module shape,
// and on the constant layout and bit-tree coding style of
// other_examples/167a3a08_ethereum-go-ethereum__vendor-github.com-xi2-xz-dec_lzma2.go.go
// (itself a port of the Linux kernel's xz_dec_lzma2.c, which in turn follows
// the reference LZMA SDK). Entropy coding is supplied by internal/rangecoder;
// match search by internal/lzmatch.
package lzma

import "github.com/arvida-labs/compresscore/ccerr"

// Level selects a dictionary size / search-effort preset, mirroring
// oxiarc-lzma's LzmaLevel enum (0..9, default 6).
type Level int

const (
	Level0 Level = iota
	Level1
	Level2
	Level3
	Level4
	Level5
	Level6 // default
	Level7
	Level8
	Level9

	DefaultLevel = Level6
)

// DictSize returns the dictionary (sliding window) size in bytes for the
// level, taken verbatim from oxiarc-lzma/src/lib.rs's table.
func (l Level) DictSize() uint32 {
	switch l {
	case Level0:
		return 1 << 16 // 64 KiB
	case Level1:
		return 1 << 18 // 256 KiB
	case Level2:
		return 1 << 19 // 512 KiB
	case Level3:
		return 1 << 20 // 1 MiB
	case Level4:
		return 1 << 21 // 2 MiB
	case Level5:
		return 1 << 22 // 4 MiB
	case Level6:
		return 1 << 23 // 8 MiB (default)
	case Level7:
		return 1 << 24 // 16 MiB
	case Level8:
		return 1 << 25 // 32 MiB
	case Level9:
		return 1 << 26 // 64 MiB
	default:
		return 1 << 23
	}
}

// maxChain returns a search-depth knob for internal/lzmatch, scaling with
// level the way spec.md §4.1's "level-dependent search effort" describes.
func (l Level) maxChain() int {
	return 16 + int(l)*48
}

// Properties holds LZMA's three literal/position-context parameters, coded
// into a single "props byte" in the classic LZMA header (spec.md LZMA
// module, "Properties").
type Properties struct {
	LC uint // literal context bits, 0..8, default 3
	LP uint // literal position bits, 0..4, default 0
	PB uint // position bits, 0..4, default 2
}

// DefaultProperties matches the reference encoder's defaults.
var DefaultProperties = Properties{LC: 3, LP: 0, PB: 2}

// PropsByte packs LC/LP/PB into the single byte the classic .lzma header
// stores: (PB * 5 + LP) * 9 + LC.
func (p Properties) PropsByte() byte {
	return byte((p.PB*5+p.LP)*9 + p.LC)
}

// PropertiesFromByte unpacks a props byte, rejecting values LZMA cannot
// represent (spec.md error taxonomy: InvalidMagic/CorruptedData for
// malformed headers).
func PropertiesFromByte(b byte) (Properties, error) {
	if b >= 9*5*5 {
		return Properties{}, ccerr.New(ccerr.CorruptedData, "lzma: invalid properties byte")
	}
	lc := uint(b) % 9
	rest := uint(b) / 9
	lp := rest % 5
	pb := rest / 5
	if lc+lp > 4 {
		return Properties{}, ccerr.New(ccerr.CorruptedData, "lzma: lc+lp exceeds 4")
	}
	return Properties{LC: lc, LP: lp, PB: pb}, nil
}

const (
	matchMinLen = 2
	maxMatchLen = 273
)

// endMarkerDistance is the sentinel match distance (spec.md §4.3: "a match
// with distance = 0xFFFFFFFF") that signals end-of-stream when the
// uncompressed size is unknown.
const endMarkerDistance = 0xFFFFFFFF
