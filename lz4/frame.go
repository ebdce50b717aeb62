package lz4

import (
	"encoding/binary"

	"github.com/arvida-labs/compresscore/ccerr"
)

// FrameMagic is the official LZ4 frame magic number (spec.md §6).
const FrameMagic uint32 = 0x184D2204

const blockUncompressedFlag uint32 = 1 << 31

// Option configures Encode, following the same functional-options shape the
// rest of this module's codecs use (spec.md SPEC_FULL §3 Configuration).
type Option func(*options)

type options struct {
	blockMaxSize    int
	blockChecksum   bool
	contentChecksum bool
	contentSize     bool
}

func defaultOptions() options {
	return options{blockMaxSize: 4 << 20, contentChecksum: true, contentSize: true}
}

// WithBlockMaxSize sets the maximum size of an individual frame block. Must
// be one of 64<<10, 256<<10, 1<<20, 4<<20 to match the frame descriptor's
// 3-bit block-size code; other values are rounded up to the next one, and
// values above 4<<20 use 4<<20.
func WithBlockMaxSize(n int) Option {
	return func(o *options) { o.blockMaxSize = n }
}

// WithBlockChecksum enables a per-block XXH32 checksum.
func WithBlockChecksum(on bool) Option {
	return func(o *options) { o.blockChecksum = on }
}

// WithContentChecksum enables the whole-frame XXH32 checksum (default on).
func WithContentChecksum(on bool) Option {
	return func(o *options) { o.contentChecksum = on }
}

func blockSizeCode(n int) (code byte, size int) {
	switch {
	case n <= 64<<10:
		return 4, 64 << 10
	case n <= 256<<10:
		return 5, 256 << 10
	case n <= 1<<20:
		return 6, 1 << 20
	default:
		return 7, 4 << 20
	}
}

func blockSizeFromCode(code byte) (int, error) {
	switch code {
	case 4:
		return 64 << 10, nil
	case 5:
		return 256 << 10, nil
	case 6:
		return 1 << 20, nil
	case 7:
		return 4 << 20, nil
	default:
		return 0, ccerr.New(ccerr.CorruptedData, "lz4: invalid block size code %d", code)
	}
}

// Encode compresses data into a complete LZ4 frame (spec.md §6): magic,
// frame descriptor, one or more blocks each length-prefixed with a 4-byte
// little-endian size (high bit set means the block is stored uncompressed,
// used whenever compression doesn't shrink a block), a zero-length
// terminator block, and (by default) a trailing XXH32 content checksum.
func Encode(data []byte, opts ...Option) []byte {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	code, blockSize := blockSizeCode(o.blockMaxSize)

	out := make([]byte, 0, len(data)+32)
	var magicBuf [4]byte
	binary.LittleEndian.PutUint32(magicBuf[:], FrameMagic)
	out = append(out, magicBuf[:]...)

	flg := byte(0x40) // version 01
	if o.blockChecksum {
		flg |= 1 << 4
	}
	if o.contentSize {
		flg |= 1 << 3
	}
	if o.contentChecksum {
		flg |= 1 << 2
	}
	bd := code << 4

	descStart := len(out)
	out = append(out, flg, bd)
	if o.contentSize {
		var sizeBuf [8]byte
		binary.LittleEndian.PutUint64(sizeBuf[:], uint64(len(data)))
		out = append(out, sizeBuf[:]...)
	}
	hc := byte(checksumXXH32(out[descStart:]) >> 8)
	out = append(out, hc)

	for off := 0; off < len(data); {
		end := off + blockSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]
		compressed := CompressBlock(chunk)
		var sizeWord uint32
		var payload []byte
		if len(compressed) == 0 || len(compressed) >= len(chunk) {
			sizeWord = uint32(len(chunk)) | blockUncompressedFlag
			payload = chunk
		} else {
			sizeWord = uint32(len(compressed))
			payload = compressed
		}
		var szBuf [4]byte
		binary.LittleEndian.PutUint32(szBuf[:], sizeWord)
		out = append(out, szBuf[:]...)
		out = append(out, payload...)
		if o.blockChecksum {
			var cBuf [4]byte
			binary.LittleEndian.PutUint32(cBuf[:], checksumXXH32(payload))
			out = append(out, cBuf[:]...)
		}
		off = end
	}

	var term [4]byte
	out = append(out, term[:]...)

	if o.contentChecksum {
		var cBuf [4]byte
		binary.LittleEndian.PutUint32(cBuf[:], checksumXXH32(data))
		out = append(out, cBuf[:]...)
	}
	return out
}

// Decode decodes a complete LZ4 frame produced by Encode or any conforming
// LZ4 frame encoder. maxOutput bounds the decoded size; if the frame
// declares a content size exceeding it, decoding fails immediately without
// processing any blocks.
func Decode(data []byte, maxOutput int) ([]byte, error) {
	if len(data) < 7 {
		return nil, ccerr.At(ccerr.TruncatedInput, 0, "lz4: frame shorter than header")
	}
	if binary.LittleEndian.Uint32(data) != FrameMagic {
		return nil, ccerr.At(ccerr.InvalidMagic, 0, "lz4: bad frame magic")
	}
	pos := 4
	descStart := pos
	flg := data[pos]
	bd := data[pos+1]
	pos += 2
	version := flg >> 6
	if version != 1 {
		return nil, ccerr.At(ccerr.CorruptedData, int64(descStart), "lz4: unsupported frame version %d", version)
	}
	blockChecksum := flg&(1<<4) != 0
	hasContentSize := flg&(1<<3) != 0
	contentChecksum := flg&(1<<2) != 0
	hasDictID := flg&1 != 0

	var declaredSize uint64
	if hasContentSize {
		if pos+8 > len(data) {
			return nil, ccerr.At(ccerr.TruncatedInput, int64(pos), "lz4: truncated content size")
		}
		declaredSize = binary.LittleEndian.Uint64(data[pos:])
		pos += 8
		if declaredSize > uint64(maxOutput) {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lz4: declared content size %d exceeds max_output %d", declaredSize, maxOutput)
		}
	}
	if hasDictID {
		pos += 4
	}
	if pos >= len(data) {
		return nil, ccerr.At(ccerr.TruncatedInput, int64(pos), "lz4: truncated header checksum")
	}
	wantHC := data[pos]
	pos++
	gotHC := byte(checksumXXH32(data[descStart:pos-1]) >> 8)
	if gotHC != wantHC {
		return nil, ccerr.At(ccerr.ChecksumMismatch, int64(pos-1), "lz4: frame header checksum mismatch")
	}

	blockMax, err := blockSizeFromCode(bd >> 4)
	if err != nil {
		return nil, err
	}
	_ = blockMax

	out := make([]byte, 0, minInt(int(declaredSize), maxOutput))
	for {
		if pos+4 > len(data) {
			return nil, ccerr.At(ccerr.TruncatedInput, int64(pos), "lz4: truncated block size")
		}
		sizeWord := binary.LittleEndian.Uint32(data[pos:])
		pos += 4
		if sizeWord == 0 {
			break
		}
		uncompressed := sizeWord&blockUncompressedFlag != 0
		size := int(sizeWord &^ blockUncompressedFlag)
		if pos+size > len(data) {
			return nil, ccerr.At(ccerr.TruncatedInput, int64(pos), "lz4: truncated block payload")
		}
		payload := data[pos : pos+size]
		pos += size
		if blockChecksum {
			if pos+4 > len(data) {
				return nil, ccerr.At(ccerr.TruncatedInput, int64(pos), "lz4: truncated block checksum")
			}
			want := binary.LittleEndian.Uint32(data[pos:])
			pos += 4
			if checksumXXH32(payload) != want {
				return nil, ccerr.At(ccerr.ChecksumMismatch, int64(pos-4), "lz4: block checksum mismatch")
			}
		}
		if uncompressed {
			if len(out)+len(payload) > maxOutput {
				return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lz4: output exceeds max_output %d", maxOutput)
			}
			out = append(out, payload...)
			continue
		}
		remaining := maxOutput - len(out)
		block, err := DecompressBlock(payload, remaining)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}

	if contentChecksum {
		if pos+4 > len(data) {
			return nil, ccerr.At(ccerr.TruncatedInput, int64(pos), "lz4: truncated content checksum")
		}
		want := binary.LittleEndian.Uint32(data[pos:])
		pos += 4
		if checksumXXH32(out) != want {
			return nil, ccerr.At(ccerr.ChecksumMismatch, int64(pos-4), "lz4: content checksum mismatch")
		}
	}
	return out, nil
}
