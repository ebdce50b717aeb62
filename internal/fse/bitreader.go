package fse

import "github.com/arvida-labs/compresscore/ccerr"

// BackwardReader reads the reversed bitstream Zstandard uses for FSE states
// and Huffman-coded literal streams (spec.md §4.4): a normal forward,
// LSB-first bit writer appends fields one after another and finishes with a
// single "1" sentinel bit plus zero padding to the next byte; the reader
// starts at that sentinel and walks toward the front of the buffer,
// popping the most-recently-written field first.
type BackwardReader struct {
	data []byte
	pos  int // exclusive upper bound (bit index) of the unconsumed region
}

// NewBackwardReader locates the sentinel bit in the last byte of data and
// returns a reader positioned just below it. An all-zero last byte has no
// sentinel and is a corrupt stream.
func NewBackwardReader(data []byte) (*BackwardReader, error) {
	if len(data) == 0 {
		return nil, ccerr.New(ccerr.TruncatedInput, "empty FSE/Huffman bitstream")
	}
	last := data[len(data)-1]
	if last == 0 {
		return nil, ccerr.New(ccerr.CorruptedData, "FSE/Huffman bitstream missing sentinel bit")
	}
	top := 0
	for b := last; b != 1; b >>= 1 {
		top++
	}
	return &BackwardReader{data: data, pos: (len(data)-1)*8 + top}, nil
}

func (r *BackwardReader) bit(i int) uint32 {
	return uint32(r.data[i>>3]>>uint(i&7)) & 1
}

// ReadBits pops the next n bits (n <= 32), the field's own least significant
// bit landing at the lowest absolute bit position it occupies, matching the
// writer's LSB-first field layout.
func (r *BackwardReader) ReadBits(n uint) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	r.pos -= int(n)
	if r.pos < 0 {
		return 0, ccerr.New(ccerr.TruncatedInput, "FSE/Huffman bitstream exhausted")
	}
	var v uint32
	for k := uint(0); k < n; k++ {
		v |= r.bit(r.pos+int(k)) << k
	}
	return v, nil
}

// ReadBit pops a single bit, returning it as a bool (satisfies
// internal/huffman.BitReader for zstd's Huffman-coded literal streams).
func (r *BackwardReader) ReadBit() bool {
	v, err := r.ReadBits(1)
	return err == nil && v != 0
}

// Exhausted reports whether every bit up to and including the sentinel has
// been consumed.
func (r *BackwardReader) Exhausted() bool { return r.pos <= 0 }
