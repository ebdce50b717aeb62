package zstd

import (
	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/fse"
	"github.com/arvida-labs/compresscore/internal/huffman"
)

// maxHuffmanLog is Zstandard's maximum Huffman code length for literals
// (spec.md §3: "11 for Zstd literals").
const maxHuffmanLog = 11

// decodeHuffmanTable parses a Huffman tree description (RFC 8878 §4.2.1):
// a header byte selecting either a direct (4-bit-per-weight) or an
// FSE-compressed weight representation, followed by the weights
// themselves. The omitted last symbol's weight is derived by completing
// the Kraft sum to the next power of two (spec.md §3's canonical-code
// completeness rule). Returns the built decode tree and the number of
// bytes consumed from data.
func decodeHuffmanTable(data []byte) (*huffman.Tree, int, error) {
	if len(data) < 1 {
		return nil, 0, ccerr.New(ccerr.TruncatedInput, "zstd: missing huffman tree header")
	}
	header := data[0]
	var weights []uint8
	var consumed int
	if header >= 128 {
		nbSymbols := int(header) - 127
		consumed = 1 + (nbSymbols+1)/2
		if err := checkBounds(0, consumed, data); err != nil {
			return nil, 0, err
		}
		weights = make([]uint8, nbSymbols)
		for i := 0; i < nbSymbols; i++ {
			b := data[1+i/2]
			if i%2 == 0 {
				weights[i] = b >> 4
			} else {
				weights[i] = b & 0xf
			}
		}
	} else {
		compressedSize := int(header)
		if err := checkBounds(1, compressedSize, data); err != nil {
			return nil, 0, err
		}
		stream := data[1 : 1+compressedSize]
		counts, accLog, hdrConsumed, err := fse.ReadNCount(stream, 11)
		if err != nil {
			return nil, 0, err
		}
		table, err := fse.BuildDecodeTable(counts, accLog)
		if err != nil {
			return nil, 0, err
		}
		br, err := fse.NewBackwardReader(stream[hdrConsumed:])
		if err != nil {
			return nil, 0, err
		}
		s1, err := fse.NewState(table, br)
		if err != nil {
			return nil, 0, err
		}
		s2, err := fse.NewState(table, br)
		if err != nil {
			return nil, 0, err
		}
		for {
			weights = append(weights, s1.Symbol())
			if br.Exhausted() {
				weights = append(weights, s2.Symbol())
				break
			}
			if err := s1.Advance(br); err != nil {
				return nil, 0, err
			}
			weights = append(weights, s2.Symbol())
			if br.Exhausted() {
				break
			}
			if err := s2.Advance(br); err != nil {
				return nil, 0, err
			}
		}
		consumed = 1 + compressedSize
	}

	lengths, err := weightsToLengths(weights)
	if err != nil {
		return nil, 0, err
	}
	tree, err := huffman.BuildCanonical(lengths, maxHuffmanLog)
	if err != nil {
		return nil, 0, err
	}
	return tree, consumed, nil
}

// weightsToLengths turns N-1 explicit Huffman weights into N canonical code
// lengths, deriving the missing last symbol's weight from the Kraft
// completion rule (RFC 8878 §4.2.1, the HUF_readStats algorithm): the sum
// of 2^(weight-1) over explicit weights, rounded up to the next power of
// two, fixes both the table's log2 and the omitted weight.
func weightsToLengths(weights []uint8) ([]uint8, error) {
	var total uint32
	for _, w := range weights {
		if w > 0 {
			total += 1 << (w - 1)
		}
	}
	if total == 0 {
		return nil, ccerr.New(ccerr.CorruptedData, "zstd: huffman weights sum to zero")
	}
	tableLog := highBit32(total) + 1
	if tableLog > maxHuffmanLog {
		return nil, ccerr.New(ccerr.CorruptedData, "zstd: huffman table log %d exceeds maximum", tableLog)
	}
	rest := (uint32(1) << tableLog) - total
	lastWeight := highBit32(rest) + 1
	if uint32(1)<<(lastWeight-1) != rest {
		return nil, ccerr.New(ccerr.CorruptedData, "zstd: huffman weight remainder is not a power of two")
	}
	allWeights := append(append([]uint8{}, weights...), uint8(lastWeight))
	lengths := make([]uint8, len(allWeights))
	for i, w := range allWeights {
		if w == 0 {
			lengths[i] = 0
			continue
		}
		lengths[i] = uint8(uint32(tableLog) + 1 - uint32(w))
	}
	return lengths, nil
}

func highBit32(v uint32) uint32 {
	n := uint32(0)
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// decodeHuffmanStream decodes a single Huffman-coded literal stream of
// regeneratedSize bytes, reading the reversed bitstream from back to front
// (spec.md §4.4) via tree.Decode fed by an fse.BackwardReader, which
// satisfies internal/huffman.BitReader.
func decodeHuffmanStream(tree *huffman.Tree, stream []byte, regeneratedSize int) ([]byte, error) {
	br, err := fse.NewBackwardReader(stream)
	if err != nil {
		return nil, err
	}
	out := make([]byte, regeneratedSize)
	for i := 0; i < regeneratedSize; i++ {
		out[i] = byte(tree.Decode(br))
	}
	return out, nil
}
