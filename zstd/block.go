package zstd

import (
	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/checksum"
	"github.com/arvida-labs/compresscore/internal/fse"
	"github.com/arvida-labs/compresscore/internal/huffman"
	"github.com/arvida-labs/compresscore/internal/xwindow"
	"github.com/arvida-labs/compresscore/parallel"
)

// Block type codes (spec.md §4.4 "Block types").
const (
	blockRaw = iota
	blockRLE
	blockCompressed
	blockReserved
)

// maxBlockSize is Zstandard's fixed 128 KiB compressed-block cap (spec.md
// §4.4), which this package's encoder also uses as its block-splitting
// size.
const maxBlockSize = 128 << 10

func readBlockHeader(data []byte, pos int) (last bool, btype int, size int, next int, err error) {
	if e := checkBounds(pos, 3, data); e != nil {
		return false, 0, 0, pos, e
	}
	word := uint32(data[pos]) | uint32(data[pos+1])<<8 | uint32(data[pos+2])<<16
	last = word&1 != 0
	btype = int((word >> 1) & 0x3)
	size = int(word >> 3)
	return last, btype, size, pos + 3, nil
}

func writeBlockHeader(out []byte, last bool, btype int, size int) []byte {
	word := uint32(size)<<3 | uint32(btype)<<1
	if last {
		word |= 1
	}
	return append(out, byte(word), byte(word>>8), byte(word>>16))
}

// appendBlocks splits data into maxBlockSize chunks and encodes each as
// Raw, or as RLE when the chunk is a single repeated byte (spec.md §9: "The
// Zstandard encoder ... emits only raw blocks ... The specification allows
// this as a starting point"; this encoder adds the RLE case so the
// documented "1,000,000 copies of 0xAA" scenario (spec.md §8) actually
// compresses).
func appendBlocks(out []byte, data []byte) []byte {
	if len(data) == 0 {
		return writeBlockHeader(out, true, blockRaw, 0)
	}
	chunks := parallel.SplitBlocks(data, maxBlockSize)
	for i, chunk := range chunks {
		out = append(out, encodeOneBlock(chunk, i == len(chunks)-1)...)
	}
	return out
}

// appendBlocksParallel is appendBlocks's block-parallel sibling (spec.md
// §5): each chunk is self-contained (a 3-byte header plus its payload), so
// compressing chunks on separate workers and concatenating the results in
// index order produces byte-identical output to the serial path.
func appendBlocksParallel(out []byte, data []byte, concurrency int) ([]byte, error) {
	if len(data) == 0 {
		return writeBlockHeader(out, true, blockRaw, 0), nil
	}
	chunks := parallel.SplitBlocks(data, maxBlockSize)
	last := len(chunks) - 1
	encoded, err := parallel.EncodeBlocks(chunks, func(i int, chunk []byte) ([]byte, error) {
		return encodeOneBlock(chunk, i == last), nil
	}, parallel.WithConcurrency(concurrency))
	if err != nil {
		return nil, err
	}
	return append(out, encoded...), nil
}

func encodeOneBlock(chunk []byte, last bool) []byte {
	if isRLE(chunk) {
		out := writeBlockHeader(nil, last, blockRLE, len(chunk))
		return append(out, chunk[0])
	}
	out := writeBlockHeader(nil, last, blockRaw, len(chunk))
	return append(out, chunk...)
}

func isRLE(chunk []byte) bool {
	for i := 1; i < len(chunk); i++ {
		if chunk[i] != chunk[0] {
			return false
		}
	}
	return true
}

// blockDecodeState carries the cross-block state a Zstandard frame's
// compressed blocks share: the three repeat offsets, the most recently
// used Huffman table (for treeless literal blocks), and the most recently
// used FSE tables (for Repeat_Mode sequences), per spec.md §3's "Zstandard
// frame state".
type blockDecodeState struct {
	rep        [3]uint32
	huffTable  *huffman.Tree
	prevTables [3]*fse.Table
}

func newBlockDecodeState() *blockDecodeState {
	return &blockDecodeState{rep: [3]uint32{1, 4, 8}}
}

func decodeFrame(data []byte, o decOptions) ([]byte, error) {
	pos, err := skipToFrameMagic(data, 0)
	if err != nil {
		return nil, err
	}
	pos += 4
	header, pos, err := parseFrameHeader(data, pos, o.maxWindowSize)
	if err != nil {
		return nil, err
	}

	windowCap := int(header.windowSize)
	if windowCap <= 0 {
		windowCap = 1 << 10
	}
	if windowCap > o.maxWindowSize {
		windowCap = o.maxWindowSize
	}
	win := xwindow.New(windowCap)
	out := make([]byte, 0, initialCap(header))
	state := newBlockDecodeState()

	for {
		last, btype, size, next, err := readBlockHeader(data, pos)
		if err != nil {
			return nil, err
		}
		pos = next
		if err := checkBounds(pos, blockPayloadLen(btype, size), data); err != nil {
			return nil, err
		}
		switch btype {
		case blockRaw:
			payload := data[pos : pos+size]
			win.Put(payload)
			out = append(out, payload...)
			pos += size
		case blockRLE:
			b := data[pos]
			pos++
			for i := 0; i < size; i++ {
				win.PutByte(b)
			}
			for i := 0; i < size; i++ {
				out = append(out, b)
			}
		case blockCompressed:
			var decErr error
			out, decErr = decodeCompressedBlock(data[pos:pos+size], win, out, state)
			if decErr != nil {
				return nil, decErr
			}
			pos += size
		default:
			return nil, ccerr.At(ccerr.CorruptedData, int64(pos), "zstd: reserved block type")
		}
		if o.maxOutput >= 0 && len(out) > o.maxOutput {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "zstd: decoded output exceeds max_output %d", o.maxOutput)
		}
		if last {
			break
		}
	}

	if header.hasContentSize && uint64(len(out)) != header.contentSize {
		return nil, ccerr.New(ccerr.CorruptedData, "zstd: decoded size %d does not match declared content size %d", len(out), header.contentSize)
	}
	if header.hasChecksum {
		if err := checkBounds(pos, 4, data); err != nil {
			return nil, err
		}
		want := le32(data, pos)
		got := checksum.XXH64Truncated(out)
		if want != got {
			return nil, ccerr.At(ccerr.ChecksumMismatch, int64(pos), "zstd: content checksum mismatch")
		}
	}
	return out, nil
}

func blockPayloadLen(btype, size int) int {
	if btype == blockRLE {
		return 1
	}
	return size
}

func initialCap(h frameHeader) int {
	if h.hasContentSize && h.contentSize < 1<<26 {
		return int(h.contentSize)
	}
	return 4096
}

func skipToFrameMagic(data []byte, pos int) (int, error) {
	for {
		if err := checkBounds(pos, 4, data); err != nil {
			return pos, err
		}
		magic := le32(data, pos)
		if magic >= SkippableMagicLow && magic <= SkippableMagicHigh {
			if err := checkBounds(pos+4, 4, data); err != nil {
				return pos, err
			}
			sz := le32(data, pos+4)
			pos += 8 + int(sz)
			continue
		}
		if magic != Magic {
			return pos, ccerr.At(ccerr.InvalidMagic, int64(pos), "zstd: bad frame magic")
		}
		return pos, nil
	}
}
