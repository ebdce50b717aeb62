package zstd

import "github.com/arvida-labs/compresscore/ccerr"

// Literals_Block_Type codes (spec.md §4.4 "Literals").
const (
	literalsRaw = iota
	literalsRLE
	literalsCompressed
	literalsTreeless
)

// literalsResult carries a compressed block's decoded literal bytes plus
// the number of bytes the literals section occupied, so the caller can
// advance past it to the sequences section.
type literalsResult struct {
	bytes    []byte
	consumed int
}

// decodeLiterals parses a compressed block's literals section (RFC 8878
// §3.1.1.3.1, spec.md §4.4's four subtypes) and returns the decoded
// literal stream.
func decodeLiterals(data []byte, state *blockDecodeState) (literalsResult, error) {
	if len(data) < 1 {
		return literalsResult{}, ccerr.New(ccerr.TruncatedInput, "zstd: empty literals section")
	}
	byte0 := data[0]
	litType := int(byte0 & 0x3)
	sizeFormat := (byte0 >> 2) & 0x3

	switch litType {
	case literalsRaw, literalsRLE:
		var regenSize, hdrSize int
		switch sizeFormat {
		case 0, 2:
			hdrSize = 1
			regenSize = int(byte0 >> 3)
		case 1:
			if err := checkBounds(0, 2, data); err != nil {
				return literalsResult{}, err
			}
			hdrSize = 2
			regenSize = int(byte0>>4) | int(data[1])<<4
		default:
			if err := checkBounds(0, 3, data); err != nil {
				return literalsResult{}, err
			}
			hdrSize = 3
			regenSize = int(byte0>>4) | int(data[1])<<4 | int(data[2])<<12
		}
		if litType == literalsRaw {
			if err := checkBounds(hdrSize, regenSize, data); err != nil {
				return literalsResult{}, err
			}
			return literalsResult{bytes: data[hdrSize : hdrSize+regenSize], consumed: hdrSize + regenSize}, nil
		}
		if err := checkBounds(hdrSize, 1, data); err != nil {
			return literalsResult{}, err
		}
		out := make([]byte, regenSize)
		b := data[hdrSize]
		for i := range out {
			out[i] = b
		}
		return literalsResult{bytes: out, consumed: hdrSize + 1}, nil

	case literalsCompressed, literalsTreeless:
		var regenSize, compSize, hdrSize int
		var fourStreams bool
		switch sizeFormat {
		case 0:
			if err := checkBounds(0, 3, data); err != nil {
				return literalsResult{}, err
			}
			hdrSize = 3
			regenSize = int(byte0>>4) | (int(data[1]&0x3F) << 4)
			compSize = int(data[1]>>6) | (int(data[2]) << 2)
			fourStreams = false
		case 1:
			if err := checkBounds(0, 3, data); err != nil {
				return literalsResult{}, err
			}
			hdrSize = 3
			regenSize = int(byte0>>4) | (int(data[1]&0x3F) << 4)
			compSize = int(data[1]>>6) | (int(data[2]) << 2)
			fourStreams = true
		case 2:
			if err := checkBounds(0, 4, data); err != nil {
				return literalsResult{}, err
			}
			hdrSize = 4
			regenSize = int(byte0>>4) | (int(data[1]) << 4) | (int(data[2]&0x3) << 12)
			compSize = int(data[2]>>2) | (int(data[3]) << 6)
			fourStreams = true
		default:
			if err := checkBounds(0, 5, data); err != nil {
				return literalsResult{}, err
			}
			hdrSize = 5
			regenSize = int(byte0>>4) | (int(data[1]) << 4) | (int(data[2]&0x3F) << 12)
			compSize = int(data[2]>>6) | (int(data[3]) << 2) | (int(data[4]) << 10)
			fourStreams = true
		}
		if err := checkBounds(hdrSize, compSize, data); err != nil {
			return literalsResult{}, err
		}
		body := data[hdrSize : hdrSize+compSize]

		tree := state.huffTable
		streamStart := 0
		if litType == literalsCompressed {
			t, n, err := decodeHuffmanTable(body)
			if err != nil {
				return literalsResult{}, err
			}
			tree = t
			streamStart = n
		} else if tree == nil {
			return literalsResult{}, ccerr.New(ccerr.CorruptedData, "zstd: treeless literals with no prior huffman table")
		}

		var out []byte
		if !fourStreams {
			decoded, err := decodeHuffmanStream(tree, body[streamStart:], regenSize)
			if err != nil {
				return literalsResult{}, err
			}
			out = decoded
		} else {
			if err := checkBounds(streamStart, 6, body); err != nil {
				return literalsResult{}, err
			}
			sz1 := int(body[streamStart]) | int(body[streamStart+1])<<8
			sz2 := int(body[streamStart+2]) | int(body[streamStart+3])<<8
			sz3 := int(body[streamStart+4]) | int(body[streamStart+5])<<8
			streamsStart := streamStart + 6
			if err := checkBounds(streamsStart, sz1+sz2+sz3, body); err != nil {
				return literalsResult{}, err
			}
			s1 := body[streamsStart : streamsStart+sz1]
			s2 := body[streamsStart+sz1 : streamsStart+sz1+sz2]
			s3 := body[streamsStart+sz1+sz2 : streamsStart+sz1+sz2+sz3]
			s4 := body[streamsStart+sz1+sz2+sz3:]

			regenPer := (regenSize + 3) / 4
			last := regenSize - 3*regenPer
			if last < 0 {
				return literalsResult{}, ccerr.New(ccerr.CorruptedData, "zstd: four-stream literals size mismatch")
			}
			sizes := [4]int{regenPer, regenPer, regenPer, last}
			streams := [4][]byte{s1, s2, s3, s4}
			for i := 0; i < 4; i++ {
				d, err := decodeHuffmanStream(tree, streams[i], sizes[i])
				if err != nil {
					return literalsResult{}, err
				}
				out = append(out, d...)
			}
		}
		state.huffTable = tree
		return literalsResult{bytes: out, consumed: hdrSize + compSize}, nil
	}
	return literalsResult{}, ccerr.New(ccerr.CorruptedData, "zstd: invalid literals block type")
}
