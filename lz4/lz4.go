// Package lz4 implements the LZ4 codec (spec.md §4.5): sequence-based
// compression with a token byte (literal/match-length nibbles, extension
// bytes for long runs, a 2-byte little-endian offset) wrapped in the
// official LZ4 frame format with XXH32 checksums (spec.md §6).
//
// Grounded on spec.md §4.5/§6 for the wire shape and on
// other_examples/eab8f795_xiaojun207-lz4__block.go.go and
// other_examples/ee2be0f9_ethereum-go-ethereum__vendor-github.com-pierrec-lz4-block.go.go
// for the idiomatic Go token/literal/match encode-decode shape; match
// search reuses internal/lzmatch (prefix length 4, the LZ4 minimum match).
package lz4

import (
	"encoding/binary"

	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/checksum"
	"github.com/arvida-labs/compresscore/internal/lzmatch"
)

const (
	minMatch  = 4
	maxOffset = 1 << 16 // LZ4's 2-byte offset field bounds the window to 64 KiB.
)

// CompressBlock compresses data into a single raw LZ4 block (spec.md §4.5:
// token byte, literals, 2-byte offset, optional length-extension bytes; the
// final sequence is literals-only). It contains no frame or checksum
// information.
func CompressBlock(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	out := make([]byte, 0, len(data))

	m := lzmatch.New(data, minMatch, maxOffset, 64, minMatch, 1<<20)
	anchor := 0
	pos := 0
	n := len(data)
	// Reserve the last few bytes as literals only, matching the reference
	// encoder's "last-5-bytes" rule so a decoder never needs to read past
	// the end looking for a match it can't use anyway.
	matchLimit := n - 5
	if matchLimit < 0 {
		matchLimit = 0
	}

	for pos < matchLimit {
		match, ok := m.Find(pos)
		m.Insert(pos)
		if ok && pos+match.Length > matchLimit {
			match.Length = matchLimit - pos
			ok = match.Length >= minMatch
		}
		if !ok || match.Distance >= maxOffset {
			pos++
			continue
		}
		emitSequence(&out, data[anchor:pos], match.Length-minMatch, match.Distance)
		for i := 1; i < match.Length; i++ {
			if pos+i < matchLimit {
				m.Insert(pos + i)
			}
		}
		pos += match.Length
		anchor = pos
	}
	// Final literals: everything from anchor to the end, no trailing match.
	emitLastLiterals(&out, data[anchor:])
	return out
}

func emitSequence(out *[]byte, literals []byte, matchLenCode, distance int) {
	litLen := len(literals)
	lt := litLen
	if lt > 15 {
		lt = 15
	}
	mt := matchLenCode
	if mt > 15 {
		mt = 15
	}
	*out = append(*out, byte(lt<<4|mt))
	if litLen >= 15 {
		emitLengthExtra(out, litLen-15)
	}
	*out = append(*out, literals...)
	var offBuf [2]byte
	binary.LittleEndian.PutUint16(offBuf[:], uint16(distance))
	*out = append(*out, offBuf[:]...)
	if matchLenCode >= 15 {
		emitLengthExtra(out, matchLenCode-15)
	}
}

func emitLengthExtra(out *[]byte, remaining int) {
	for remaining >= 255 {
		*out = append(*out, 255)
		remaining -= 255
	}
	*out = append(*out, byte(remaining))
}

func emitLastLiterals(out *[]byte, literals []byte) {
	litLen := len(literals)
	lt := litLen
	if lt > 15 {
		lt = 15
	}
	*out = append(*out, byte(lt<<4))
	if litLen >= 15 {
		emitLengthExtra(out, litLen-15)
	}
	*out = append(*out, literals...)
}

// DecompressBlock decodes a raw LZ4 block produced by CompressBlock (or any
// conforming LZ4 block encoder). maxOutput bounds the decoded size
// (spec.md §5's decompression-bomb cap); a block that would exceed it fails
// with ResourceLimitExceeded before over-allocating.
func DecompressBlock(src []byte, maxOutput int) ([]byte, error) {
	out := make([]byte, 0, minInt(len(src)*3, maxOutput))
	i := 0
	for i < len(src) {
		token := src[i]
		i++
		litLen := int(token >> 4)
		if litLen == 15 {
			for {
				if i >= len(src) {
					return nil, ccerr.At(ccerr.TruncatedInput, int64(i), "lz4: truncated literal length")
				}
				b := src[i]
				i++
				litLen += int(b)
				if b != 255 {
					break
				}
			}
		}
		if len(out)+litLen > maxOutput {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lz4: output exceeds max_output %d", maxOutput)
		}
		if i+litLen > len(src) {
			return nil, ccerr.At(ccerr.TruncatedInput, int64(i), "lz4: truncated literals")
		}
		out = append(out, src[i:i+litLen]...)
		i += litLen
		if i == len(src) {
			// Last sequence: literals only, no match field follows.
			break
		}
		if i+2 > len(src) {
			return nil, ccerr.At(ccerr.TruncatedInput, int64(i), "lz4: truncated offset")
		}
		offset := int(binary.LittleEndian.Uint16(src[i:]))
		i += 2
		if offset == 0 || offset > len(out) {
			return nil, ccerr.At(ccerr.CorruptedData, int64(i), "lz4: offset %d exceeds available history %d", offset, len(out))
		}
		matchLen := int(token & 0xf)
		if matchLen == 15 {
			for {
				if i >= len(src) {
					return nil, ccerr.At(ccerr.TruncatedInput, int64(i), "lz4: truncated match length")
				}
				b := src[i]
				i++
				matchLen += int(b)
				if b != 255 {
					break
				}
			}
		}
		matchLen += minMatch
		if len(out)+matchLen > maxOutput {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lz4: output exceeds max_output %d", maxOutput)
		}
		start := len(out) - offset
		for k := 0; k < matchLen; k++ {
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

// checksumXXH32 is exposed for the frame layer.
func checksumXXH32(data []byte) uint32 { return checksum.XXH32(data, 0) }
