package lzw

import (
	"bytes"

	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/bitio"
)

// bitWriter packs fixed-width codes in either bit polarity, matching
// spec.md §3's two coexisting bit-stream conventions.
type bitWriter struct {
	msb    *bitio.MSBWriter
	lsb    *bitio.LSBWriter
	useMSB bool
}

func newBitWriter(out *[]byte, msbFirst bool) *bitWriter {
	buf := &sliceWriter{out: out}
	if msbFirst {
		return &bitWriter{msb: bitio.NewMSBWriter(buf), useMSB: true}
	}
	return &bitWriter{lsb: bitio.NewLSBWriter(buf)}
}

func (w *bitWriter) WriteCode(code uint16, width uint) {
	if w.useMSB {
		w.msb.WriteBits(uint64(code), width)
	} else {
		w.lsb.WriteBits(uint32(code), width)
	}
}

func (w *bitWriter) Flush() error {
	if w.useMSB {
		return w.msb.Flush()
	}
	return w.lsb.Flush()
}

func (w *bitWriter) Err() error {
	if w.useMSB {
		return w.msb.Err()
	}
	return w.lsb.Err()
}

type bitReader struct {
	msb    *bitio.MSBReader
	lsb    *bitio.LSBReader
	useMSB bool
}

func newBitReader(data []byte, msbFirst bool) *bitReader {
	if msbFirst {
		return &bitReader{msb: bitio.NewMSBReader(bytes.NewReader(data)), useMSB: true}
	}
	return &bitReader{lsb: bitio.NewLSBReader(bytes.NewReader(data))}
}

func (r *bitReader) ReadCode(width uint) (uint16, error) {
	var v uint32
	var err error
	if r.useMSB {
		v = uint32(r.msb.ReadBits(width))
		err = r.msb.Err()
	} else {
		v = r.lsb.ReadBits(width)
		err = r.lsb.Err()
	}
	if err != nil {
		return 0, ccerr.Wrap(err, "lzw: truncated code stream")
	}
	return uint16(v), nil
}

// sliceWriter adapts an append-only []byte pointer to io.Writer, avoiding a
// bytes.Buffer allocation for the common whole-buffer codec path.
type sliceWriter struct {
	out *[]byte
}

func (s *sliceWriter) Write(p []byte) (int, error) {
	*s.out = append(*s.out, p...)
	return len(p), nil
}
