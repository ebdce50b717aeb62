// Package zstd implements the Zstandard codec (spec.md §4.4, RFC 8878):
// frame/block dispatch, a literals section (raw, RLE, Huffman-coded, and
// treeless variants), a sequences section decoded through three
// independently-configured FSE tables read backwards from the end of the
// block, and an XXH64-derived content checksum.
//
// Per spec.md §9's explicit allowance, the encoder here emits only raw and
// RLE blocks (a trivially valid starting point); the decoder implements the
// full block/literals/sequences/FSE machinery so it can consume any
// conforming Zstandard stream, including ones produced by a reference
// encoder using Huffman-coded literals and FSE-compressed sequences. See
// DESIGN.md for the Open Question resolution.
//
// Grounded on spec.md §3/§4.4 for the frame/block/sequence data model, and
// on _examples/original_source/oxiarc-zstd/src/{lib.rs,xxhash.rs} for the
// frame-and-checksum shape; table-driven block dispatch idiom cross-checked
// against the klauspost-compress excerpts in other_examples/ (structure
// only, not copied). FSE machinery lives in internal/fse; the sliding
// window is internal/xwindow, matching every other LZ77-family codec in
// this module.
package zstd

import (
	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/checksum"
)

// DefaultMaxWindowSize is the decompression-bomb cap spec.md §5 names for
// Zstandard: a decoder rejects any frame whose declared window size
// exceeds this, unless overridden with WithMaxWindowSize.
const DefaultMaxWindowSize = 8 << 20

// Option configures Encode, following the same functional-options shape as
// this module's other codecs.
type Option func(*encOptions)

type encOptions struct {
	checksum bool
}

func defaultEncOptions() encOptions {
	return encOptions{checksum: true}
}

// WithChecksum enables or disables the frame's trailing XXH64-derived
// content checksum (spec.md §4.4; on by default).
func WithChecksum(on bool) Option {
	return func(o *encOptions) { o.checksum = on }
}

// DecodeOption configures Decode.
type DecodeOption func(*decOptions)

type decOptions struct {
	maxWindowSize int
	maxOutput     int
}

func defaultDecOptions() decOptions {
	return decOptions{maxWindowSize: DefaultMaxWindowSize, maxOutput: -1}
}

// WithMaxWindowSize overrides the decompression-bomb cap on declared window
// size (spec.md §5).
func WithMaxWindowSize(n int) DecodeOption {
	return func(o *decOptions) { o.maxWindowSize = n }
}

// WithMaxOutput bounds the total decoded size; exceeding it fails with
// ccerr.ResourceLimitExceeded (spec.md §8 property 5). Negative (the
// default) means unbounded other than the window-size cap.
func WithMaxOutput(n int) DecodeOption {
	return func(o *decOptions) { o.maxOutput = n }
}

// Encode compresses data into a complete Zstandard frame (spec.md §4.4):
// magic, frame header, one or more blocks, and an optional content
// checksum.
func Encode(data []byte, opts ...Option) []byte {
	o := defaultEncOptions()
	for _, fn := range opts {
		fn(&o)
	}
	out := make([]byte, 0, len(data)/2+32)
	out = appendFrameHeader(out, len(data), windowLogFor(len(data)), o.checksum)
	out = appendBlocks(out, data)
	if o.checksum {
		sum := checksum.XXH64Truncated(data)
		out = append(out, byte(sum), byte(sum>>8), byte(sum>>16), byte(sum>>24))
	}
	return out
}

// EncodeParallel is Encode's block-parallel sibling (spec.md §5): it splits
// data on the same maxBlockSize boundaries Encode uses and compresses each
// block on its own worker, producing byte-identical output to Encode for
// the same input. concurrency <= 0 uses runtime.GOMAXPROCS(-1).
func EncodeParallel(data []byte, concurrency int, opts ...Option) ([]byte, error) {
	o := defaultEncOptions()
	for _, fn := range opts {
		fn(&o)
	}
	out := make([]byte, 0, len(data)/2+32)
	out = appendFrameHeader(out, len(data), windowLogFor(len(data)), o.checksum)
	out, err := appendBlocksParallel(out, data, concurrency)
	if err != nil {
		return nil, err
	}
	if o.checksum {
		sum := checksum.XXH64Truncated(data)
		out = append(out, byte(sum), byte(sum>>8), byte(sum>>16), byte(sum>>24))
	}
	return out, nil
}

// Decode decodes a complete Zstandard frame. maxOutput, if >= 0, bounds the
// total decoded size (spec.md §8 property 5); pass WithMaxOutput to set it,
// or use the maxOutput parameter directly for parity with this module's
// other codecs' Decode signatures.
func Decode(data []byte, maxOutput int, opts ...DecodeOption) ([]byte, error) {
	o := defaultDecOptions()
	o.maxOutput = maxOutput
	for _, fn := range opts {
		fn(&o)
	}
	return decodeFrame(data, o)
}

func windowLogFor(n int) uint {
	log := uint(10) // 1 KiB floor keeps tiny inputs' window descriptor sane.
	for (1 << log) < n && log < 27 {
		log++
	}
	return log
}

func checkBounds(pos, need int, data []byte) error {
	if pos+need > len(data) {
		return ccerr.At(ccerr.TruncatedInput, int64(pos), "zstd: need %d more bytes, have %d", need, len(data)-pos)
	}
	return nil
}
