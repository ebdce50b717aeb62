// Package lzw implements the variable-width LZW dictionary codec (spec.md
// §4.5 and glossary "Early change"), parameterized for the TIFF and GIF
// wire variants.
//
// Grounded on oxiarc-lzw/src/config.rs for the TIFF/GIF preset split
// (min_bits=9, max_bits=12, clear-code usage, early-change semantics) and
// oxiarc-lzw/src/bitstream_msb.rs for the MSB-first bit packing TIFF uses;
// cross-checked against other_examples/fc257486_ManInM00N-nicogif__LZWEncoder.go.go
// for idiomatic Go LZW encoder shape (GIF's LSB-first packing).
package lzw

import "github.com/arvida-labs/compresscore/ccerr"

// Config names an LZW wire variant, mirroring oxiarc-lzw's LzwConfig.
type Config struct {
	MinBits      uint // initial code width, typically 9
	MaxBits      uint // maximum code width, typically 12
	UseClearCode bool // GIF resets the dictionary with an explicit Clear code; TIFF freezes it instead
	EarlyChange  bool // TIFF bumps the code width one code sooner than the canonical rule
	MSBFirst     bool // TIFF packs codes high-bit-first; GIF packs low-bit-first
}

// TIFFConfig is the standard TIFF LZW preset (spec.md §5 supplemented
// feature list): MSB-first, no mid-stream clear codes, early code-width
// change.
var TIFFConfig = Config{MinBits: 9, MaxBits: 12, UseClearCode: false, EarlyChange: true, MSBFirst: true}

// GIFConfig is the standard GIF LZW preset: LSB-first, explicit Clear code
// resets, canonical (non-early) code-width change.
var GIFConfig = Config{MinBits: 9, MaxBits: 12, UseClearCode: true, EarlyChange: false, MSBFirst: false}

func (c Config) clearCode() uint16 { return 1 << (c.MinBits - 1) }
func (c Config) eoiCode() uint16   { return c.clearCode() + 1 }
func (c Config) firstCode() uint16 { return c.eoiCode() + 1 }
func (c Config) maxCode() uint16   { return (1 << c.MaxBits) - 1 }

type dictEntry struct {
	prefixCode uint16
	suffix     byte
}

// Encode compresses data with the given Config (spec.md §4.5's
// "variable-bit dictionary" contract).
func Encode(data []byte, cfg Config) []byte {
	var out []byte
	w := newBitWriter(&out, cfg.MSBFirst)

	table := make(map[uint64]uint16, 1024)
	reset := func() uint16 {
		for k := range table {
			delete(table, k)
		}
		return cfg.firstCode()
	}
	nextCode := reset()
	width := cfg.MinBits

	if cfg.UseClearCode {
		w.WriteCode(cfg.clearCode(), width)
	}

	if len(data) == 0 {
		w.WriteCode(cfg.eoiCode(), width)
		w.Flush()
		return out
	}

	key := func(prefixCode uint16, b byte) uint64 {
		return uint64(prefixCode)<<8 | uint64(b)
	}

	cur := uint16(data[0])
	for i := 1; i < len(data); i++ {
		b := data[i]
		k := key(cur, b)
		if code, ok := table[k]; ok {
			cur = code
			continue
		}
		w.WriteCode(cur, width)
		if nextCode <= cfg.maxCode() {
			table[k] = nextCode
			nextCode++
			// The decoder adds each entry one code later than this loop
			// does, so the width follows the decoder's next code.
			width = bumpWidth(width, nextCode-1, cfg)
		} else if cfg.UseClearCode {
			w.WriteCode(cfg.clearCode(), width)
			nextCode = reset()
			width = cfg.MinBits
		}
		// else: TIFF-style freeze - table stays as is, width stays maxed.
		cur = uint16(b)
	}
	w.WriteCode(cur, width)
	w.WriteCode(cfg.eoiCode(), width)
	w.Flush()
	return out
}

// bumpWidth returns the code width to use for the *next* emitted code,
// given that nextCode is the next code about to be assigned. Early change
// (TIFF) triggers the bump one code sooner than the canonical rule: at
// nextCode == (1<<width)-1 rather than nextCode == 1<<width.
func bumpWidth(width uint, nextCode uint16, cfg Config) uint {
	if width >= cfg.MaxBits {
		return width
	}
	threshold := uint16(1) << width
	if cfg.EarlyChange {
		threshold--
	}
	if nextCode >= threshold {
		return width + 1
	}
	return width
}

// Decode decompresses an LZW stream produced by Encode (or a conforming
// encoder using the same Config). Table entries are chained by code value
// (each entry's prefixCode is either a raw literal byte value or another
// table entry's code), so reconstructing a string just walks the chain
// until it reaches a code below firstCode.
func Decode(data []byte, cfg Config, maxOutput int) ([]byte, error) {
	r := newBitReader(data, cfg.MSBFirst)

	var table []dictEntry
	width := cfg.MinBits

	out := make([]byte, 0, minInt(len(data)*2, maxOutput))
	havePrev := false
	var prevCode uint16

	entryString := func(code uint16) ([]byte, error) {
		var buf []byte
		for {
			if code < cfg.firstCode() {
				buf = append(buf, byte(code))
				break
			}
			idx := int(code) - int(cfg.firstCode())
			if idx < 0 || idx >= len(table) {
				return nil, ccerr.New(ccerr.CorruptedData, "lzw: invalid code %d", code)
			}
			e := table[idx]
			buf = append(buf, e.suffix)
			code = e.prefixCode
		}
		for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
			buf[i], buf[j] = buf[j], buf[i]
		}
		return buf, nil
	}

	for {
		code, err := r.ReadCode(width)
		if err != nil {
			return nil, err
		}
		if code == cfg.clearCode() {
			table = table[:0]
			width = cfg.MinBits
			havePrev = false
			continue
		}
		if code == cfg.eoiCode() {
			break
		}

		var entry []byte
		newCodeValue := int(cfg.firstCode()) + len(table)
		if int(code) == newCodeValue {
			// KwK special case: the encoder just emitted a code it hadn't
			// told the decoder about yet, formed from the previous entry
			// plus its own first byte.
			if !havePrev {
				return nil, ccerr.New(ccerr.CorruptedData, "lzw: unknown code %d with no prior entry", code)
			}
			prev, err := entryString(prevCode)
			if err != nil {
				return nil, err
			}
			entry = append(append([]byte{}, prev...), prev[0])
		} else {
			entry, err = entryString(code)
			if err != nil {
				return nil, err
			}
		}

		if len(out)+len(entry) > maxOutput {
			return nil, ccerr.New(ccerr.ResourceLimitExceeded, "lzw: output exceeds max_output %d", maxOutput)
		}
		out = append(out, entry...)

		if havePrev && int(cfg.firstCode())+len(table) <= int(cfg.maxCode()) {
			table = append(table, dictEntry{prefixCode: prevCode, suffix: entry[0]})
			nextCode := cfg.firstCode() + uint16(len(table))
			width = bumpWidth(width, nextCode, cfg)
		}

		prevCode = code
		havePrev = true
	}
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
