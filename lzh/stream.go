package lzh

import "github.com/arvida-labs/compresscore/ccerr"

// Status reports a StreamDecoder's progress after one Decompress call,
// matching spec.md §6's streaming variant contract (LZH is named as the
// reference for this API shape).
type Status int

const (
	// NeedInput means decoding consumed all available input and is
	// waiting for more before it can produce another symbol.
	NeedInput Status = iota
	// NeedOutput means decoded bytes are buffered but the caller's output
	// chunk filled up before they could all be delivered.
	NeedOutput
	// Done means the end-of-stream symbol was reached and all decoded
	// output has been delivered.
	Done
)

// StreamDecoder is an incremental LZH decoder: callers feed input chunks
// and drain output chunks across repeated Decompress calls instead of
// handing over the whole compressed buffer at once.
//
// Implementation note: each call re-attempts a full decode of everything
// received so far (internal/huffman/internal/bitio have no mid-symbol
// resumption state of their own), stopping cleanly at whatever the
// buffered bits support and caching the result, so draining output that is
// already decoded needs no further decoding; a call made once that output
// is used up decodes the whole received input again from its start. This
// keeps the incremental contract honest — a caller
// never needs to hand over the whole stream up front — without needing a
// second, resumable decode engine alongside the whole-buffer one.
type StreamDecoder struct {
	method    Method
	maxOutput int
	pending   []byte
	decoded   []byte
	deliverAt int
	done      bool
	err       error
}

// NewStreamDecoder creates a StreamDecoder for the given method, bounding
// total decoded output at maxOutput bytes.
func NewStreamDecoder(m Method, maxOutput int) *StreamDecoder {
	return &StreamDecoder{method: m, maxOutput: maxOutput}
}

// Err returns any terminal decode error (corruption, checksum, resource
// limit) once Decompress reports Done with undelivered bytes still
// pending — a well-formed end-of-stream leaves this nil.
func (s *StreamDecoder) Err() error { return s.err }

// Decompress feeds input into the decoder and drains as much decoded
// output as fits into output, returning how much of each was
// consumed/produced and the resulting Status.
func (s *StreamDecoder) Decompress(input, output []byte) (consumed, produced int, status Status) {
	consumed = len(input)
	s.pending = append(s.pending, input...)

	if !s.done && s.deliverAt >= len(s.decoded) {
		out, err := decodePrefix(s.pending, s.method, s.maxOutput)
		s.decoded = out
		if err != nil {
			if ccerr.Is(err, ccerr.TruncatedInput) {
				// Not enough bits yet for the next symbol; what decoded
				// cleanly so far is still valid and deliverable.
			} else {
				s.done = true
				s.err = err
			}
		} else {
			s.done = true // a clean decode only returns once EOB is reached
		}
	}

	n := copy(output, s.decoded[s.deliverAt:])
	s.deliverAt += n
	produced = n

	switch {
	case s.deliverAt < len(s.decoded):
		status = NeedOutput
	case s.done:
		status = Done
	default:
		status = NeedInput
	}
	return consumed, produced, status
}
