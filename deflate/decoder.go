package deflate

import (
	"bytes"

	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/bitio"
	"github.com/arvida-labs/compresscore/internal/huffman"
	"github.com/arvida-labs/compresscore/internal/xwindow"
)

var (
	fixedLitLenTree *huffman.Tree
	fixedDistTree   *huffman.Tree
)

func init() {
	var err error
	fixedLitLenTree, err = huffman.BuildCanonical(fixedLitLenLengths(), maxLitLenCodeLen)
	if err != nil {
		panic(err)
	}
	// RFC 1951 §3.2.6 defines 32 five-bit fixed distance codes; 30 and 31
	// never occur in valid data but complete the code space the tree needs.
	fixedDistTree, err = huffman.BuildCanonical(append(fixedDistLengths(), 5, 5), maxDistCodeLen)
	if err != nil {
		panic(err)
	}
}

// decompress parses an RFC 1951 DEFLATE stream in full: a sequence of
// stored/fixed-Huffman/dynamic-Huffman blocks, the last carrying the BFINAL
// flag (spec.md §4.1). maxOutput bounds the decoded size (spec.md §5's
// decompression-bomb cap); a stream that would exceed it fails with
// ResourceLimitExceeded before allocating beyond the cap.
func decompress(data []byte, maxOutput int) ([]byte, error) {
	r := bitio.NewLSBReader(bytes.NewReader(data))
	win := xwindow.New(windowSize)
	var out []byte

	for {
		final := r.ReadBit()
		btype := r.ReadBits(2)
		if err := r.Err(); err != nil {
			return out, ccerr.New(ccerr.TruncatedInput, "deflate: block header: %v", err)
		}

		switch btype {
		case btypeStored:
			var err error
			out, err = decodeStoredBlock(r, win, out, maxOutput)
			if err != nil {
				return out, err
			}
		case btypeFixed:
			var err error
			out, err = decodeHuffmanBlock(r, win, out, fixedLitLenTree, fixedDistTree, maxOutput)
			if err != nil {
				return out, err
			}
		case btypeDynamic:
			litTree, distTree, err := readDynamicTrees(r)
			if err != nil {
				return out, err
			}
			out, err = decodeHuffmanBlock(r, win, out, litTree, distTree, maxOutput)
			if err != nil {
				return out, err
			}
		default:
			return out, ccerr.New(ccerr.CorruptedData, "deflate: reserved block type 3")
		}

		if final {
			break
		}
	}
	return out, nil
}

func decodeStoredBlock(r *bitio.LSBReader, win *xwindow.Window, out []byte, maxOutput int) ([]byte, error) {
	r.AlignToByte()
	header := make([]byte, 4)
	r.ReadAlignedBytes(header)
	if err := r.Err(); err != nil {
		return out, ccerr.New(ccerr.TruncatedInput, "deflate: stored block header: %v", err)
	}
	length := uint16(header[0]) | uint16(header[1])<<8
	nlength := uint16(header[2]) | uint16(header[3])<<8
	if nlength != ^length {
		return out, ccerr.New(ccerr.CorruptedData, "deflate: stored block length check failed")
	}
	if len(out)+int(length) > maxOutput {
		return out, ccerr.New(ccerr.ResourceLimitExceeded, "deflate: output exceeds max_output %d", maxOutput)
	}
	buf := make([]byte, length)
	r.ReadAlignedBytes(buf)
	if err := r.Err(); err != nil {
		return out, ccerr.New(ccerr.TruncatedInput, "deflate: stored block data: %v", err)
	}
	win.Put(buf)
	return append(out, buf...), nil
}

func decodeHuffmanBlock(r *bitio.LSBReader, win *xwindow.Window, out []byte, litTree, distTree *huffman.Tree, maxOutput int) ([]byte, error) {
	for {
		sym := litTree.Decode(r)
		if r.Err() != nil {
			return out, ccerr.New(ccerr.TruncatedInput, "deflate: symbol: %v", r.Err())
		}
		if sym < 256 {
			if len(out)+1 > maxOutput {
				return out, ccerr.New(ccerr.ResourceLimitExceeded, "deflate: output exceeds max_output %d", maxOutput)
			}
			b := byte(sym)
			win.PutByte(b)
			out = append(out, b)
			continue
		}
		if sym == endOfBlock {
			return out, nil
		}

		idx := int(sym) - 257
		if idx < 0 || idx >= len(lengthBase) {
			return out, ccerr.New(ccerr.CorruptedData, "deflate: invalid length symbol %d", sym)
		}
		extra := r.ReadBits(uint(lengthExtraBits[idx]))
		length := int(lengthBase[idx]) + int(extra)

		if distTree == nil {
			return out, ccerr.New(ccerr.CorruptedData, "deflate: match with no distance table")
		}
		dsym := distTree.Decode(r)
		if int(dsym) >= len(distBase) {
			return out, ccerr.New(ccerr.CorruptedData, "deflate: invalid distance symbol %d", dsym)
		}
		dextra := r.ReadBits(uint(distExtraBits[dsym]))
		dist := int(distBase[dsym]) + int(dextra)
		if err := r.Err(); err != nil {
			return out, ccerr.New(ccerr.TruncatedInput, "deflate: match extra bits: %v", err)
		}
		if len(out)+length > maxOutput {
			return out, ccerr.New(ccerr.ResourceLimitExceeded, "deflate: output exceeds max_output %d", maxOutput)
		}

		var err error
		out, err = win.CopyMatch(out, uint32(dist), uint32(length))
		if err != nil {
			return out, err
		}
	}
}

// readDynamicTrees reads a dynamic block's header (HLIT/HDIST/HCLEN, the
// code-length alphabet's own lengths, then the RLE-coded literal/length and
// distance code lengths) and builds the two decode trees, per RFC 1951
// §3.2.7.
func readDynamicTrees(r *bitio.LSBReader) (litTree, distTree *huffman.Tree, err error) {
	hlit := int(r.ReadBits(5)) + 257
	hdist := int(r.ReadBits(5)) + 1
	hclen := int(r.ReadBits(4)) + 4
	if r.Err() != nil {
		return nil, nil, ccerr.New(ccerr.TruncatedInput, "deflate: dynamic header: %v", r.Err())
	}

	var clLengths [numCLenSymbols]uint8
	for i := 0; i < hclen; i++ {
		clLengths[clenOrder[i]] = uint8(r.ReadBits(3))
	}
	if r.Err() != nil {
		return nil, nil, ccerr.New(ccerr.TruncatedInput, "deflate: code-length table: %v", r.Err())
	}
	clTree, err := huffman.BuildCanonical(clLengths[:], maxCLenCodeLen)
	if err != nil {
		return nil, nil, err
	}

	total := hlit + hdist
	all := make([]uint8, 0, total)
	var prev uint8
	for len(all) < total {
		sym := clTree.Decode(r)
		if r.Err() != nil {
			return nil, nil, ccerr.New(ccerr.TruncatedInput, "deflate: code lengths: %v", r.Err())
		}
		switch {
		case sym <= 15:
			prev = uint8(sym)
			all = append(all, prev)
		case sym == 16:
			rep := int(r.ReadBits(2)) + 3
			for i := 0; i < rep && len(all) < total; i++ {
				all = append(all, prev)
			}
		case sym == 17:
			rep := int(r.ReadBits(3)) + 3
			for i := 0; i < rep && len(all) < total; i++ {
				all = append(all, 0)
			}
			prev = 0
		case sym == 18:
			rep := int(r.ReadBits(7)) + 11
			for i := 0; i < rep && len(all) < total; i++ {
				all = append(all, 0)
			}
			prev = 0
		default:
			return nil, nil, ccerr.New(ccerr.CorruptedData, "deflate: invalid code-length symbol %d", sym)
		}
	}
	if r.Err() != nil {
		return nil, nil, ccerr.New(ccerr.TruncatedInput, "deflate: code lengths: %v", r.Err())
	}

	litLenLengths := all[:hlit]
	distLengths := all[hlit:]

	litTree, err = huffman.BuildCanonical(litLenLengths, maxLitLenCodeLen)
	if err != nil {
		return nil, nil, err
	}

	anyDist := false
	for _, l := range distLengths {
		if l > 0 {
			anyDist = true
			break
		}
	}
	if !anyDist {
		return litTree, nil, nil
	}
	distTree, err = huffman.BuildCanonical(distLengths, maxDistCodeLen)
	if err != nil {
		return nil, nil, err
	}
	return litTree, distTree, nil
}
