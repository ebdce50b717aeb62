// Package parallel implements the independent-block parallel encode path
// spec.md §5 allows wherever a format's blocks are self-contained: split the
// input on format-defined boundaries, compress each block on its own
// worker with no shared mutable state, and reassemble the results in
// input order. Decoding stays serial everywhere, since most of this
// module's formats (Zstandard, LZMA) carry a sliding window across blocks
// that forbids decoding them out of order.
//
// Grounded on the teacher's worker-pool-plus-heap-reassembly pattern in
// the root package's parallel.go (NewDecompressor/worker/assemble/blockHeap),
// turned inside out for the encode direction: the teacher decompresses
// blocks read off a Scanner and reassembles them via a container/heap
// ordered by arrival; this package compresses caller-supplied blocks and
// reassembles them the same way, keyed by block index rather than a
// monotonic counter since the full block list is known up front. Worker
// lifecycle and concurrency limiting uses golang.org/x/sync/errgroup in
// place of the teacher's hand-rolled sync.WaitGroup pool; error aggregation
// uses cloudeng.io/errors.M, the same aggregator the teacher's cmd/pbzip2
// uses for collecting per-file errors.
package parallel

import (
	"container/heap"
	"runtime"

	"cloudeng.io/errors"
	"golang.org/x/sync/errgroup"
)

// EncodeFunc compresses one block, identified by its index in the original
// split. Implementations must not share mutable state across calls: each
// invocation may run on a different goroutine.
type EncodeFunc func(index int, block []byte) ([]byte, error)

type options struct {
	concurrency int
}

func defaultOptions() options {
	return options{concurrency: runtime.GOMAXPROCS(-1)}
}

// Option configures EncodeBlocks.
type Option func(*options)

// WithConcurrency sets the number of worker goroutines; the default is
// runtime.GOMAXPROCS(-1).
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// SplitBlocks divides data into chunks of at most blockSize bytes, the
// block boundaries EncodeBlocks's caller encodes independently.
func SplitBlocks(data []byte, blockSize int) [][]byte {
	if len(data) == 0 {
		return nil
	}
	var blocks [][]byte
	for off := 0; off < len(data); off += blockSize {
		end := off + blockSize
		if end > len(data) {
			end = len(data)
		}
		blocks = append(blocks, data[off:end])
	}
	return blocks
}

// EncodeBlocks compresses blocks concurrently via encode and concatenates
// the results in input order (spec.md §5: "the output must be byte-identical
// to a hypothetical serial encoding using the same block boundaries"). If
// any block fails to encode, EncodeBlocks collects every error via
// cloudeng.io/errors.M and returns the aggregate.
func EncodeBlocks(blocks [][]byte, encode EncodeFunc, opts ...Option) ([]byte, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	doneCh := make(chan *result, len(blocks))
	var eg errgroup.Group
	eg.SetLimit(o.concurrency)
	for i, block := range blocks {
		i, block := i, block
		eg.Go(func() error {
			data, err := encode(i, block)
			doneCh <- &result{order: i, data: data, err: err}
			return nil
		})
	}
	go func() {
		eg.Wait()
		close(doneCh)
	}()

	h := &resultHeap{}
	heap.Init(h)
	expected := 0
	errs := errors.M{}
	total := 0
	ready := make([]*result, 0, len(blocks))
	for r := range doneCh {
		heap.Push(h, r)
		for h.Len() > 0 && (*h)[0].order == expected {
			min := heap.Pop(h).(*result)
			errs.Append(min.err)
			ready = append(ready, min)
			total += len(min.data)
			expected++
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, total)
	for _, r := range ready {
		out = append(out, r.data...)
	}
	return out, nil
}

type result struct {
	order int
	data  []byte
	err   error
}

type resultHeap []*result

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].order < h[j].order }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(*result)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
