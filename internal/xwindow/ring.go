// Package xwindow implements the sliding-window history buffer shared by
// every LZ77-family decoder (DEFLATE, LZMA, Zstandard, LZ4, LZH). Per
// spec.md §3: a power-of-two-sized byte buffer with a monotonically
// increasing logical write position; a decoder may reference any byte
// within the last window_size bytes emitted, and overlapping copies where
// distance < length are valid and must produce repeated runs.
//
// Grounded on the teacher's single-array reuse trick in
// internal/bzip2/bzip2.go (readFromBlock/inverseBWT share one buffer across
// the RLE and BWT passes) generalized into a standalone, reusable ring.
package xwindow

import "github.com/arvida-labs/compresscore/ccerr"

// Window is a ring buffer recording the most recently produced bytes of a
// decode (or encode) operation, addressable by backward distance.
type Window struct {
	buf  []byte
	mask uint32 // len(buf)-1, buf length is always a power of two
	pos  uint32 // logical write cursor, mod len(buf)
	full bool   // true once the buffer has wrapped at least once
	size uint64 // total bytes ever written (for distance validation)
}

// New creates a Window with the given capacity, rounded up to the next
// power of two if it isn't one already.
func New(capacity int) *Window {
	n := nextPow2(capacity)
	return &Window{buf: make([]byte, n), mask: uint32(n - 1)}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Cap returns the window's capacity in bytes.
func (w *Window) Cap() int { return len(w.buf) }

// Pos returns the total number of bytes ever written, unbounded by
// capacity. Codecs that derive a position-dependent context (LZMA's
// posState and literal-position masking) need this monotonic counter
// rather than Len(), which saturates at Cap() once the buffer wraps.
func (w *Window) Pos() uint64 { return w.size }

// Len returns the number of valid bytes currently held (capped at Cap()).
func (w *Window) Len() int {
	if w.full {
		return len(w.buf)
	}
	return int(w.pos)
}

// PutByte appends a single byte, advancing the logical cursor.
func (w *Window) PutByte(b byte) {
	w.buf[w.pos&w.mask] = b
	w.pos++
	w.size++
	if w.pos&w.mask == 0 {
		w.full = true
	}
}

// Put appends a slice of bytes.
func (w *Window) Put(p []byte) {
	for _, b := range p {
		w.PutByte(b)
	}
}

// ByteAt returns the byte at the given backward distance (1 = most recently
// written byte). distance must be in [1, Len()].
func (w *Window) ByteAt(distance uint32) byte {
	idx := (w.pos - distance) & w.mask
	return w.buf[idx]
}

// CopyMatch appends length bytes copied from `distance` bytes back in the
// window into dst, handling the overlapping case (distance < length)
// byte-by-byte as spec.md §3 requires, and returns the produced slice. It
// also appends the produced bytes into the window itself so they become
// part of future history.
func (w *Window) CopyMatch(dst []byte, distance, length uint32) ([]byte, error) {
	if distance == 0 || uint64(distance) > w.size {
		return dst, ccerr.New(ccerr.CorruptedData, "back-reference distance %d exceeds available history %d", distance, w.size)
	}
	for i := uint32(0); i < length; i++ {
		b := w.ByteAt(distance)
		dst = append(dst, b)
		w.PutByte(b)
	}
	return dst, nil
}

// Reset clears the window to empty, retaining the allocated buffer.
func (w *Window) Reset() {
	w.pos = 0
	w.full = false
	w.size = 0
}

// Snapshot copies out the last n bytes (n <= Len()) in forward order, oldest
// first. Used when a codec needs to seed a fresh window from a dictionary.
func (w *Window) Snapshot(n int) []byte {
	if n > w.Len() {
		n = w.Len()
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = w.ByteAt(uint32(i + 1))
	}
	return out
}
