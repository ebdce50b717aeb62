// Package bzip2 implements the BZip2 codec (spec.md §4.2): RLE1, a
// Burrows-Wheeler Transform, move-to-front, zero-run RLE, and multi-table
// canonical Huffman, framed in blocks of level*100000 bytes under a
// `BZh<level>` header and terminated by an end-of-stream magic plus a
// combined stream CRC-32.
//
// Grounded directly on the teacher's
// internal/bzip2/{bzip2.go,huffman.go,block.go,bit_reader.go,crc.go} (a
// vendored copy of Go's standard library decoder, decode-only), adapted
// from decode-only to encode+decode and from bzip2-specific Huffman/bit
// types to the shared internal/huffman and internal/bitio packages; the
// BWT/MTF/zero-run stages reuse internal/bwt rather than the teacher's
// inline single-array tt trick.
package bzip2

import (
	"bytes"

	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/bitio"
	"github.com/arvida-labs/compresscore/internal/checksum"
)

const (
	fileMagic  = 0x425a // "BZ"
	blockMagic = 0x314159265359
	finalMagic = 0x177245385090
)

// Option configures Decompress, following the same functional-options
// shape every codec in this module uses.
type Option func(*options)

type options struct {
	maxOutput int
}

func defaultOptions() options {
	return options{maxOutput: 1 << 31}
}

// WithMaxOutput bounds total decoded output (spec.md §5's decompression-bomb
// guard); decoding that would exceed it fails with ResourceLimitExceeded.
func WithMaxOutput(n int) Option {
	return func(o *options) { o.maxOutput = n }
}

// Compress encodes data as a BZip2 stream at the given level (1-9, clamped),
// which sets both the block size (level*100000 bytes, pre-RLE1) and the
// header's level digit.
func Compress(data []byte, level int) []byte {
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	blockSize := level * 100000

	var out []byte
	w := bitio.NewMSBWriter(&sliceWriter{out: &out})
	w.WriteBits(uint64(fileMagic), 16)
	w.WriteBits(uint64('h'), 8)
	w.WriteBits(uint64('0'+level), 8)

	var streamCRC uint32
	for off := 0; off < len(data); off += blockSize {
		end := off + blockSize
		if end > len(data) {
			end = len(data)
		}
		w.WriteBits(blockMagic, 48)
		blockCRC := encodeBlock(w, data[off:end])
		streamCRC = checksum.CombineBZip2(streamCRC, blockCRC)
	}
	w.WriteBits(finalMagic, 48)
	w.WriteBits(uint64(streamCRC), 32)
	w.Flush()
	return out
}

// Decompress decodes a BZip2 stream produced by Compress or any conforming
// BZip2 encoder. Per spec.md SPEC_FULL §5, the input may be the
// concatenation of multiple independent `BZh…` members (as `bzip2 -c a.bz2
// b.bz2 > both.bz2` produces, mirroring gzip's own multi-member framing);
// each member is decoded in turn and their plaintexts appended.
func Decompress(data []byte, opts ...Option) ([]byte, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var out []byte
	for pos := 0; pos < len(data); {
		r := bitio.NewMSBReader(bytes.NewReader(data[pos:]))
		decoded, err := decompressMember(r, o.maxOutput-len(out))
		if err != nil {
			return nil, err
		}
		if len(out)+len(decoded) > o.maxOutput {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "bzip2: output exceeds max_output %d", o.maxOutput)
		}
		out = append(out, decoded...)
		pos += int(r.BytesRead())
	}
	return out, nil
}

// decompressMember decodes exactly one `BZh<level>`...<EOS magic><CRC>
// member starting at r's current position, stopping as soon as its
// trailing stream CRC is read so the caller can detect and decode a
// following concatenated member from the bytes r didn't consume.
func decompressMember(r *bitio.MSBReader, maxOutput int) ([]byte, error) {
	magic := r.ReadBits(16)
	if r.Err() != nil || magic != fileMagic {
		return nil, ccerr.New(ccerr.InvalidMagic, "bzip2: missing BZ file magic")
	}
	if h := r.ReadBits(8); h != 'h' {
		return nil, ccerr.New(ccerr.InvalidMagic, "bzip2: non-Huffman entropy encoding %q", rune(h))
	}
	level := r.ReadBits(8)
	if level < '1' || level > '9' {
		return nil, ccerr.New(ccerr.CorruptedData, "bzip2: invalid compression level %q", rune(level))
	}
	blockSize := 100000 * (level - '0')

	out := make([]byte, 0, blockSize)
	var streamCRC uint32
	for {
		magic48 := r.ReadBits64(48)
		if r.Err() != nil {
			return nil, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated block magic")
		}
		switch magic48 {
		case blockMagic:
			decoded, blockCRC, err := decodeBlock(r, blockSize, maxOutput-len(out))
			if err != nil {
				return nil, err
			}
			if len(out)+len(decoded) > maxOutput {
				return nil, ccerr.New(ccerr.ResourceLimitExceeded, "bzip2: output exceeds max_output %d", maxOutput)
			}
			streamCRC = checksum.CombineBZip2(streamCRC, blockCRC)
			out = append(out, decoded...)
		case finalMagic:
			wantStreamCRC := uint32(r.ReadBits64(32))
			if r.Err() != nil {
				return nil, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated stream CRC")
			}
			if wantStreamCRC != streamCRC {
				return nil, ccerr.New(ccerr.ChecksumMismatch, "bzip2: stream checksum mismatch")
			}
			return out, nil
		default:
			return nil, ccerr.New(ccerr.InvalidMagic, "bzip2: bad block magic")
		}
	}
}

type sliceWriter struct{ out *[]byte }

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s.out = append(*s.out, p...)
	return len(p), nil
}
