package deflate

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
// guard, and §8 property 5); decoding that would exceed it fails with
// ResourceLimitExceeded before allocating beyond the cap.
func WithMaxOutput(n int) Option {
	return func(o *options) { o.maxOutput = n }
}

// Compress implements the DEFLATE contract of spec.md §4.1: level 0 emits
// only stored blocks, levels 1-3 use fixed Huffman, levels 4-9 choose
// whichever of stored/fixed/dynamic Huffman is cheapest. level is clamped
// to [0,9]. The output is raw RFC 1951 DEFLATE with no zlib/gzip wrapper;
// wrapping is a container concern, not this codec's.
func Compress(data []byte, level int) []byte {
	return compressLevel(data, clampLevel(level))
}

// Decompress inflates a raw RFC 1951 DEFLATE stream produced by Compress or
// by any conforming DEFLATE encoder.
func Decompress(data []byte, opts ...Option) ([]byte, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return decompress(data, o.maxOutput)
}
