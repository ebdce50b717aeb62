package lzma

import (
	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/xwindow"
)

// LZMA2 wraps the LZMA1 range coder in a chunk framing that lets a single
// dictionary be reused (or reset) across independently range-coded chunks,
// as spec.md §4.3 describes ("control bytes distinguishing uncompressed
// chunks, compressed chunks with reset flags for dictionary, state, and
// properties"). Control-byte layout follows the classic .xz LZMA2 filter:
//
//	0x00            end of stream
//	0x01            uncompressed chunk, reset dictionary
//	0x02            uncompressed chunk, no reset
//	0x80 | r<<5 | u5 compressed chunk: r selects the reset level (0..3),
//	                 u5 the top 5 bits of (uncompressed size - 1)
const (
	ctrlEnd                  = 0x00
	ctrlUncompressedReset    = 0x01
	ctrlUncompressedNoReset  = 0x02
	ctrlCompressedMask       = 0x80
	maxChunkUncompressedSize = 1 << 21 // 2 MiB
	maxChunkCompressedSize   = 1 << 16 // 64 KiB
)

const (
	resetNone = iota
	resetState
	resetStateProps
	resetStatePropsDict
)

// CompressLZMA2 encodes data as a sequence of LZMA2 chunks, each covering at
// most maxChunkUncompressedSize bytes of input, terminated by the
// end-of-stream control byte. Each chunk is encoded on its own: every
// compressed chunk carries a full reset (new dictionary, state, and
// properties), so no chunk refers back to an earlier one. A chunk whose
// payload would not be smaller than its input, or would not fit the 16-bit
// compressed-size field, is stored as uncompressed chunks of at most 64 KiB.
func CompressLZMA2(data []byte, level Level) []byte {
	props := DefaultProperties
	var out []byte
	first := true

	for len(data) > 0 {
		chunkLen := len(data)
		if chunkLen > maxChunkUncompressedSize {
			chunkLen = maxChunkUncompressedSize
		}
		chunk := data[:chunkLen]

		enc := NewEncoder(chunk, level, props)
		payload := enc.Encode()

		reset := resetStatePropsDict
		if len(payload) >= chunkLen || len(payload) > maxChunkCompressedSize {
			// Incompressible: fall back to uncompressed chunks, each at most
			// 64 KiB as their 16-bit size field allows, to avoid expansion.
			ctrl := byte(ctrlUncompressedNoReset)
			if first {
				ctrl = ctrlUncompressedReset
			}
			for off := 0; off < chunkLen; off += maxChunkCompressedSize {
				piece := chunk[off:min(off+maxChunkCompressedSize, chunkLen)]
				out = append(out, ctrl, byte((len(piece)-1)>>8), byte(len(piece)-1))
				out = append(out, piece...)
				ctrl = ctrlUncompressedNoReset
			}
		} else {
			u := uint32(chunkLen - 1)
			p := uint32(len(payload) - 1)
			ctrl := byte(ctrlCompressedMask | reset<<5 | int(u>>16)&0x1F)
			out = append(out, ctrl, byte(u>>8), byte(u), byte(p>>8), byte(p))
			if reset >= resetStateProps {
				out = append(out, props.PropsByte())
			}
			out = append(out, payload...)
		}

		data = data[chunkLen:]
		first = false
	}
	out = append(out, ctrlEnd)
	return out
}

// DecompressLZMA2 decodes a full LZMA2 chunk stream into the original
// bytes, honoring every reset flag a conforming encoder may emit. maxOutput
// bounds total decoded size across every chunk (spec.md §5, §8 property 5);
// individual chunks are already bounded to maxChunkUncompressedSize by the
// 21-bit chunk-size field, but an attacker can still chain arbitrarily many
// chunks, so the cumulative total is checked chunk by chunk.
func DecompressLZMA2(stream []byte, dictSize int, opts ...Option) ([]byte, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if dictSize > o.maxOutput {
		dictSize = o.maxOutput
	}
	win := xwindow.New(dictSize)
	var out []byte
	var props Properties
	var persistentCore *core
	havePropsInit := false

	pos := 0
	for {
		if pos >= len(stream) {
			return nil, ccerr.New(ccerr.TruncatedInput, "lzma2: stream ended without terminator")
		}
		ctrl := stream[pos]
		pos++
		if ctrl == ctrlEnd {
			break
		}
		if ctrl == ctrlUncompressedReset || ctrl == ctrlUncompressedNoReset {
			if pos+2 > len(stream) {
				return nil, ccerr.New(ccerr.TruncatedInput, "lzma2: truncated uncompressed chunk header")
			}
			size := int(stream[pos])<<8 | int(stream[pos+1])
			size++
			pos += 2
			if pos+size > len(stream) {
				return nil, ccerr.New(ccerr.TruncatedInput, "lzma2: truncated uncompressed chunk body")
			}
			if len(out)+size > o.maxOutput {
				return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lzma2: output exceeds max_output %d", o.maxOutput)
			}
			if ctrl == ctrlUncompressedReset {
				win.Reset()
			}
			chunk := stream[pos : pos+size]
			win.Put(chunk)
			out = append(out, chunk...)
			pos += size
			continue
		}
		if ctrl&ctrlCompressedMask == 0 {
			return nil, ccerr.New(ccerr.CorruptedData, "lzma2: invalid control byte 0x%02x", ctrl)
		}

		reset := int(ctrl>>5) & 0x3
		if pos+4 > len(stream) {
			return nil, ccerr.New(ccerr.TruncatedInput, "lzma2: truncated compressed chunk header")
		}
		uncompressedSize := (int(ctrl&0x1F)<<16 | int(stream[pos])<<8 | int(stream[pos+1])) + 1
		compressedSize := (int(stream[pos+2])<<8 | int(stream[pos+3])) + 1
		pos += 4

		if reset >= resetStateProps {
			if pos >= len(stream) {
				return nil, ccerr.New(ccerr.TruncatedInput, "lzma2: missing properties byte")
			}
			var err error
			props, err = PropertiesFromByte(stream[pos])
			if err != nil {
				return nil, err
			}
			pos++
			havePropsInit = true
		}
		if !havePropsInit {
			return nil, ccerr.New(ccerr.CorruptedData, "lzma2: chunk before any properties reset")
		}
		if reset >= resetStatePropsDict {
			win.Reset()
		}
		if reset >= resetState || persistentCore == nil {
			persistentCore = newCore(props)
		}
		if pos+compressedSize > len(stream) {
			return nil, ccerr.New(ccerr.TruncatedInput, "lzma2: truncated compressed chunk body")
		}
		if len(out)+uncompressedSize > o.maxOutput {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lzma2: output exceeds max_output %d", o.maxOutput)
		}

		dec := newDecoderWithCore(persistentCore, stream[pos:pos+compressedSize], win)
		chunk, err := dec.Decode(uncompressedSize, o.maxOutput-len(out))
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		pos += compressedSize
	}
	return out, nil
}
