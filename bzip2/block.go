package bzip2

import (
	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/bitio"
	"github.com/arvida-labs/compresscore/internal/bwt"
	"github.com/arvida-labs/compresscore/internal/checksum"
	"github.com/arvida-labs/compresscore/internal/huffman"
)

// encodeBlock writes one bzip2 block (everything after the 48-bit block
// magic) to w and returns its CRC-32 for folding into the stream CRC
// (spec.md §4.2 step 6). Grounded on the wire layout the teacher's
// internal/bzip2/bzip2.go readBlock parses, run in reverse.
func encodeBlock(w *bitio.MSBWriter, chunk []byte) uint32 {
	var blockCRC checksum.BZip2CRC32
	blockCRC.Update(chunk)
	crcVal := blockCRC.Sum()

	rle1 := encodeRLE1(chunk)
	bwtOut, origin := bwt.Transform(rle1)

	var used [256]bool
	for _, b := range bwtOut {
		used[b] = true
	}
	var usedBytes []byte
	for i := 0; i < 256; i++ {
		if used[i] {
			usedBytes = append(usedBytes, byte(i))
		}
	}

	symbols := mtfAndZeroRunEncode(bwtOut, usedBytes)
	alphaSize := len(usedBytes) + 2
	symbols = append(symbols, alphaSize-1) // EOB

	nGroups := chooseNumGroups(len(symbols))
	nSelectors := (len(symbols) + 49) / 50
	selectors := make([]int, nSelectors)
	for i := range selectors {
		selectors[i] = i % nGroups
	}

	freqs := make([][]uint64, nGroups)
	for g := range freqs {
		freqs[g] = make([]uint64, alphaSize)
		for i := range freqs[g] {
			freqs[g][i] = 1 // smoothing: guarantees every group's table is Kraft-complete
		}
	}
	for i, sym := range symbols {
		group := selectors[i/50]
		freqs[group][sym]++
	}

	lengths := make([][]uint8, nGroups)
	codes := make([][]huffman.Code, nGroups)
	for g := 0; g < nGroups; g++ {
		lengths[g] = huffman.BuildLengths(freqs[g], maxHuffmanLen)
		codes[g] = huffman.AssignCodes(lengths[g])
	}

	w.WriteBits(uint64(crcVal), 32)
	w.WriteBit(false) // randomized: always false, the deprecated mode is never emitted
	w.WriteBits(uint64(origin), 24)
	writeUsedMap(w, &used)
	w.WriteBits(uint64(nGroups), 3)
	w.WriteBits(uint64(nSelectors), 15)
	encodeSelectors(w, selectors, nGroups)
	for g := 0; g < nGroups; g++ {
		writeCodeLengths(w, lengths[g])
	}

	for i, sym := range symbols {
		group := selectors[i/50]
		c := codes[group][sym]
		w.WriteBits(uint64(c.Bits), uint(c.Len))
	}

	return crcVal
}

// mtfAndZeroRunEncode runs the move-to-front and zero-run-length stages
// (spec.md §4.2 steps 3/4) over bwtOut, reduced to the block's used-symbol
// alphabet, returning the resulting symbol stream (RUNA=0/RUNB=1 metasymbols
// folded in, EOB not yet appended).
func mtfAndZeroRunEncode(bwtOut []byte, usedBytes []byte) []int {
	enc := bwt.NewMTFEncoder(usedBytes)
	var symbols []int
	zeroRun := 0
	flushRun := func() {
		if zeroRun > 0 {
			symbols = append(symbols, bwt.EncodeZeroRun(zeroRun)...)
			zeroRun = 0
		}
	}
	for _, b := range bwtOut {
		idx := enc.Encode(b)
		if idx == 0 {
			zeroRun++
			continue
		}
		flushRun()
		symbols = append(symbols, idx+1)
	}
	flushRun()
	return symbols
}

// decodeBlock parses one bzip2 block (the 48-bit block magic already
// consumed), bounding the RLE1-encoded BWT buffer at blockSize (derived from
// the stream's declared level) plus a quarter, the most RLE1 can add to a
// block of blockSize input bytes, and the final decoded bytes at maxOutput. Returns
// the decoded bytes and the block's declared CRC-32 for the caller to fold
// into the running stream CRC and verify.
func decodeBlock(r *bitio.MSBReader, blockSize, maxOutput int) ([]byte, uint32, error) {
	wantCRC := uint32(r.ReadBits64(32))
	if r.Err() != nil {
		return nil, 0, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated block CRC")
	}
	randomized := r.ReadBits(1)
	if r.Err() != nil {
		return nil, 0, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated randomized bit")
	}
	if randomized != 0 {
		return nil, 0, ccerr.New(ccerr.CorruptedData, "bzip2: deprecated randomized blocks are not supported")
	}
	origin := uint32(r.ReadBits64(24))
	if r.Err() != nil {
		return nil, 0, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated origin pointer")
	}

	usedBytes, err := readUsedMap(r)
	if err != nil {
		return nil, 0, err
	}

	nGroups := r.ReadBits(3)
	if r.Err() != nil {
		return nil, 0, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated Huffman table count")
	}
	if nGroups < 2 || nGroups > 6 {
		return nil, 0, ccerr.New(ccerr.CorruptedData, "bzip2: invalid Huffman table count %d", nGroups)
	}
	nSelectors := r.ReadBits(15)
	if r.Err() != nil {
		return nil, 0, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated selector count")
	}
	selectors, err := decodeSelectors(r, nSelectors, nGroups)
	if err != nil {
		return nil, 0, err
	}
	if len(selectors) == 0 {
		return nil, 0, ccerr.New(ccerr.CorruptedData, "bzip2: no selectors given")
	}

	alphaSize := len(usedBytes) + 2
	trees := make([]*huffman.Tree, nGroups)
	for g := 0; g < nGroups; g++ {
		lengths, err := readCodeLengths(r, alphaSize)
		if err != nil {
			return nil, 0, err
		}
		trees[g], err = huffman.BuildCanonical(lengths, maxHuffmanLen)
		if err != nil {
			return nil, 0, err
		}
	}

	mtfDec := bwt.NewMTFDecoder(usedBytes)
	eob := alphaSize - 1

	maxBWT := blockSize + blockSize/4
	bwtOut := make([]byte, 0, blockSize)
	var run bwt.ZeroRunAccumulator
	flushRun := func() error {
		n := run.Len()
		if n == 0 {
			return nil
		}
		if len(bwtOut)+n > maxBWT {
			return ccerr.New(ccerr.ResourceLimitExceeded, "bzip2: block exceeds declared block size %d", blockSize)
		}
		b := mtfDec.First()
		for i := 0; i < n; i++ {
			bwtOut = append(bwtOut, b)
		}
		run.Reset()
		return nil
	}

	selectorIdx := 0
	decodedInGroup := 0
	for {
		if decodedInGroup == 50 {
			selectorIdx++
			if selectorIdx >= len(selectors) {
				return nil, 0, ccerr.New(ccerr.CorruptedData, "bzip2: insufficient selectors for symbol count")
			}
			decodedInGroup = 0
		}
		tree := trees[selectors[selectorIdx]]
		sym := int(tree.Decode(r))
		if r.Err() != nil {
			return nil, 0, ccerr.At(ccerr.TruncatedInput, int64(r.BytesRead()), "bzip2: truncated symbol stream")
		}
		decodedInGroup++

		if sym < 2 {
			run.Add(sym)
			continue
		}
		if err := flushRun(); err != nil {
			return nil, 0, err
		}
		if sym == eob {
			break
		}
		b := mtfDec.Decode(sym - 1)
		if len(bwtOut) >= maxBWT {
			return nil, 0, ccerr.New(ccerr.ResourceLimitExceeded, "bzip2: block exceeds declared block size %d", blockSize)
		}
		bwtOut = append(bwtOut, b)
	}

	if int(origin) >= len(bwtOut) {
		return nil, 0, ccerr.New(ccerr.CorruptedData, "bzip2: origin pointer out of bounds")
	}
	preRLE1, err := bwt.Inverse(bwtOut, origin)
	if err != nil {
		return nil, 0, err
	}

	decoded, err := decodeRLE1(preRLE1, maxOutput)
	if err != nil {
		return nil, 0, err
	}

	return decoded, wantCRC, nil
}
