package zstd

import (
	"github.com/arvida-labs/compresscore/ccerr"
	"github.com/arvida-labs/compresscore/internal/fse"
	"github.com/arvida-labs/compresscore/internal/xwindow"
)

// Sequence-table compression modes (spec.md §4.4: "{Predefined, RLE, FSE,
// Repeat}").
const (
	modePredefined = iota
	modeRLE
	modeFSECompressed
	modeRepeat
)

const (
	tableLL = iota
	tableOF
	tableML
)

// decodeCompressedBlock decodes one Compressed block: a literals section
// followed by a sequences section (spec.md §4.4), reconstructing the
// block's plaintext into out via win, and returns the extended out slice.
func decodeCompressedBlock(block []byte, win *xwindow.Window, out []byte, state *blockDecodeState) ([]byte, error) {
	lit, err := decodeLiterals(block, state)
	if err != nil {
		return nil, err
	}
	seqData := block[lit.consumed:]
	if len(seqData) < 1 {
		return nil, ccerr.New(ccerr.TruncatedInput, "zstd: missing sequences section header")
	}

	nbSeq, pos, err := readNumSequences(seqData)
	if err != nil {
		return nil, err
	}
	if nbSeq == 0 {
		win.Put(lit.bytes)
		return append(out, lit.bytes...), nil
	}
	if err := checkBounds(pos, 1, seqData); err != nil {
		return nil, err
	}
	modesByte := seqData[pos]
	pos++
	llMode := int(modesByte>>6) & 0x3
	ofMode := int(modesByte>>4) & 0x3
	mlMode := int(modesByte>>2) & 0x3

	llTable, n, err := resolveTable(seqData[pos:], llMode, state, tableLL, predefinedLLCounts, predefinedLLAccuracyLog, 35)
	if err != nil {
		return nil, err
	}
	pos += n
	ofTable, n, err := resolveTable(seqData[pos:], ofMode, state, tableOF, predefinedOFCounts, predefinedOFAccuracyLog, 31)
	if err != nil {
		return nil, err
	}
	pos += n
	mlTable, n, err := resolveTable(seqData[pos:], mlMode, state, tableML, predefinedMLCounts, predefinedMLAccuracyLog, 52)
	if err != nil {
		return nil, err
	}
	pos += n

	state.prevTables[tableLL] = llTable
	state.prevTables[tableOF] = ofTable
	state.prevTables[tableML] = mlTable

	br, err := fse.NewBackwardReader(seqData[pos:])
	if err != nil {
		return nil, err
	}
	stLL, err := fse.NewState(llTable, br)
	if err != nil {
		return nil, err
	}
	stOF, err := fse.NewState(ofTable, br)
	if err != nil {
		return nil, err
	}
	stML, err := fse.NewState(mlTable, br)
	if err != nil {
		return nil, err
	}

	litCursor := 0
	for i := 0; i < nbSeq; i++ {
		llCode := int(stLL.Symbol())
		ofCode := int(stOF.Symbol())
		mlCode := int(stML.Symbol())
		if llCode >= len(literalLengthBase) || mlCode >= len(matchLengthBase) || ofCode > 31 {
			return nil, ccerr.New(ccerr.CorruptedData, "zstd: sequence code out of range")
		}

		ofExtra, err := br.ReadBits(uint(ofCode))
		if err != nil {
			return nil, err
		}
		mlExtra, err := br.ReadBits(uint(matchLengthExtraBits[mlCode]))
		if err != nil {
			return nil, err
		}
		llExtra, err := br.ReadBits(uint(literalLengthExtraBits[llCode]))
		if err != nil {
			return nil, err
		}

		rawOffset := (uint32(1) << uint(ofCode)) + ofExtra
		matchLen := matchLengthBase[mlCode] + mlExtra
		litLen := literalLengthBase[llCode] + llExtra

		offset := resolveOffset(state, rawOffset, litLen)

		if litCursor+int(litLen) > len(lit.bytes) {
			return nil, ccerr.New(ccerr.CorruptedData, "zstd: sequence literal length overruns literals section")
		}
		litChunk := lit.bytes[litCursor : litCursor+int(litLen)]
		win.Put(litChunk)
		out = append(out, litChunk...)
		litCursor += int(litLen)

		out, err = win.CopyMatch(out, offset, matchLen)
		if err != nil {
			return nil, err
		}

		if i < nbSeq-1 {
			if err := stLL.Advance(br); err != nil {
				return nil, err
			}
			if err := stML.Advance(br); err != nil {
				return nil, err
			}
			if err := stOF.Advance(br); err != nil {
				return nil, err
			}
		}
	}
	if litCursor < len(lit.bytes) {
		rest := lit.bytes[litCursor:]
		win.Put(rest)
		out = append(out, rest...)
	}
	return out, nil
}

// resolveOffset applies Zstandard's repeat-offset promotion rules (spec.md
// §4.4): raw offset values 1, 2, 3 reference one of the three most recent
// offsets (promoted to rep[0] on use, the others shifting down); any other
// value is a brand-new literal offset (rawOffset - 3) that displaces rep[2].
func resolveOffset(state *blockDecodeState, rawOffset uint32, litLen uint32) uint32 {
	if rawOffset > 3 {
		offset := rawOffset - 3
		state.rep[2], state.rep[1], state.rep[0] = state.rep[1], state.rep[0], offset
		return offset
	}
	idx := rawOffset
	if litLen == 0 {
		idx++
	}
	var offset uint32
	switch idx {
	case 1:
		offset = state.rep[0]
	case 2:
		offset = state.rep[1]
		state.rep[1] = state.rep[0]
		state.rep[0] = offset
	case 3:
		offset = state.rep[2]
		state.rep[2] = state.rep[1]
		state.rep[1] = state.rep[0]
		state.rep[0] = offset
	default: // idx == 4, only reachable when litLen == 0 and rawOffset == 3
		offset = state.rep[0] - 1
		state.rep[2] = state.rep[1]
		state.rep[1] = state.rep[0]
		state.rep[0] = offset
	}
	return offset
}

func readNumSequences(data []byte) (nbSeq, consumed int, err error) {
	b0 := data[0]
	switch {
	case b0 == 0:
		return 0, 1, nil
	case b0 < 128:
		return int(b0), 1, nil
	case b0 < 255:
		if e := checkBounds(0, 2, data); e != nil {
			return 0, 0, e
		}
		return (int(b0-128) << 8) + int(data[1]), 2, nil
	default:
		if e := checkBounds(0, 3, data); e != nil {
			return 0, 0, e
		}
		return int(data[1]) + int(data[2])<<8 + 0x7F00, 3, nil
	}
}

// resolveTable builds or retrieves the FSE decode table for one of the
// three sequence symbol types, according to its compression mode.
func resolveTable(data []byte, mode int, state *blockDecodeState, which int, predefCounts []int16, predefLog uint, maxSymbol int) (*fse.Table, int, error) {
	switch mode {
	case modePredefined:
		t, err := fse.BuildDecodeTable(predefCounts, predefLog)
		return t, 0, err
	case modeRLE:
		if err := checkBounds(0, 1, data); err != nil {
			return nil, 0, err
		}
		return fse.RLETable(data[0]), 1, nil
	case modeFSECompressed:
		counts, accLog, n, err := fse.ReadNCount(data, maxSymbol)
		if err != nil {
			return nil, 0, err
		}
		t, err := fse.BuildDecodeTable(counts, accLog)
		return t, n, err
	default: // modeRepeat
		t := state.prevTables[which]
		if t == nil {
			return nil, 0, ccerr.New(ccerr.CorruptedData, "zstd: repeat mode with no previous table")
		}
		return t, 0, nil
	}
}
