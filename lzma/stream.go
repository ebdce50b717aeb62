package lzma

import (
	"encoding/binary"

	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/xwindow"
)

// headerSize is the classic .lzma stream header: 1 properties byte, 4-byte
// little-endian dictionary size, 8-byte little-endian uncompressed size
// (spec.md §4.3's "Contract"). An uncompressed size of all-ones bytes means
// unknown; this package always writes the known size.
const headerSize = 1 + 4 + 8

const unknownSize = 0xFFFFFFFFFFFFFFFF

// Option configures Decompress and DecompressLZMA2, following the same
// functional-options shape every codec in this module uses.
type Option func(*options)

type options struct {
	maxOutput int
}

func defaultOptions() options {
	return options{maxOutput: 1 << 31}
}

// WithMaxOutput bounds total decoded output (spec.md §5's decompression-bomb
// guard, and §8 property 5). This caps both streams whose header declares a
// size larger than the bound and unknown-size streams (header size field
// all-ones, spec.md §4.3's "end marker" mode), where there is otherwise no
// upper bound on how much the range-coded payload could expand to.
func WithMaxOutput(n int) Option {
	return func(o *options) { o.maxOutput = n }
}

// Compress encodes data as a complete LZMA1 stream: 13-byte header followed
// by range-coded payload.
func Compress(data []byte, level Level) []byte {
	props := DefaultProperties
	enc := NewEncoder(data, level, props)
	payload := enc.Encode()

	out := make([]byte, headerSize, headerSize+len(payload))
	out[0] = props.PropsByte()
	binary.LittleEndian.PutUint32(out[1:5], level.DictSize())
	binary.LittleEndian.PutUint64(out[5:13], uint64(len(data)))
	out = append(out, payload...)
	return out
}

// Decompress parses an LZMA1 stream header and decodes the payload,
// returning the original bytes. A header declaring the uncompressed size as
// unknown (all-ones, spec.md §4.3) is decoded by running until the
// stream's own end marker rather than a declared byte count.
func Decompress(stream []byte, opts ...Option) ([]byte, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if len(stream) < headerSize {
		return nil, ccerr.New(ccerr.TruncatedInput, "lzma: stream shorter than header")
	}
	props, err := PropertiesFromByte(stream[0])
	if err != nil {
		return nil, err
	}
	dictSize := binary.LittleEndian.Uint32(stream[1:5])
	if dictSize == 0 {
		dictSize = 1 << 12
	}
	uncompressedSize := binary.LittleEndian.Uint64(stream[5:13])

	outLen := unknownOutLen
	if uncompressedSize != unknownSize {
		if uncompressedSize > uint64(o.maxOutput) {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lzma: declared uncompressed size %d exceeds max_output %d", uncompressedSize, o.maxOutput)
		}
		outLen = int(uncompressedSize)
	}

	winCap := int(dictSize)
	if winCap > o.maxOutput {
		// The window only ever needs to hold as much history as total
		// output can reach; clamping here avoids an attacker-controlled
		// dictSize field driving an oversized allocation on its own.
		winCap = o.maxOutput
	}
	win := xwindow.New(winCap)
	dec := NewDecoder(props, stream[headerSize:], win)
	return dec.Decode(outLen, o.maxOutput)
}
