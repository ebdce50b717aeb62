package bwt

// MTF performs the move-to-front transform over the full byte alphabet
// (spec.md §4.2 step 3 / glossary): the symbol list starts as [0..255];
// each input byte becomes its position in the list, then the byte moves to
// the front. Grounded directly on oxiarc-bzip2/src/mtf.rs.
func MTF(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	var list [256]byte
	for i := range list {
		list[i] = byte(i)
	}
	out := make([]byte, len(data))
	for i, b := range data {
		pos := indexOf(list[:], b)
		out[i] = byte(pos)
		if pos > 0 {
			moveToFront(list[:], pos)
		}
	}
	return out
}

// InverseMTF reverses MTF.
func InverseMTF(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	var list [256]byte
	for i := range list {
		list[i] = byte(i)
	}
	out := make([]byte, len(data))
	for i, pos := range data {
		b := list[pos]
		out[i] = b
		if pos > 0 {
			moveToFrontByte(list[:], int(pos), b)
		}
	}
	return out
}

func indexOf(list []byte, b byte) int {
	for i, v := range list {
		if v == b {
			return i
		}
	}
	return -1
}

func moveToFront(list []byte, pos int) {
	b := list[pos]
	copy(list[1:pos+1], list[0:pos])
	list[0] = b
}

func moveToFrontByte(list []byte, pos int, b byte) {
	copy(list[1:pos+1], list[0:pos])
	list[0] = b
}

// MTFEncoder is the encode-side counterpart of MTFDecoder: it moves-to-front
// over a caller-chosen symbol alphabet (BZip2 reduces this to the bytes
// actually used in a block rather than the full 256, per the symbol-presence
// bitmap transmitted ahead of the Huffman tables) instead of MTF's fixed
// [0..255] list.
type MTFEncoder struct {
	list []byte
}

// NewMTFEncoder seeds the encoder with a block's used-symbol alphabet, in
// the same order NewMTFDecoder expects it reconstructed.
func NewMTFEncoder(symbols []byte) *MTFEncoder {
	list := make([]byte, len(symbols))
	copy(list, symbols)
	return &MTFEncoder{list: list}
}

// Encode returns b's current position in the list and moves it to the
// front.
func (e *MTFEncoder) Encode(b byte) int {
	pos := indexOf(e.list, b)
	if pos > 0 {
		moveToFront(e.list, pos)
	}
	return pos
}

// MTFDecoder is an incremental move-to-front decoder used by BZip2 block
// decode, where the run-length coding of zeros is merged into the Huffman
// parse loop (spec.md §4.2 step 3/4 are interleaved in the wire format).
type MTFDecoder struct {
	list []byte
}

// NewMTFDecoder seeds the decoder with the block's used-symbol alphabet, in
// the order the symbol-presence bitmap enumerated them.
func NewMTFDecoder(symbols []byte) *MTFDecoder {
	list := make([]byte, len(symbols))
	copy(list, symbols)
	return &MTFDecoder{list: list}
}

// First returns the symbol currently at the front of the list without
// moving anything (used when replicating a zero-run: the repeated symbol
// is always whatever is currently at the front).
func (d *MTFDecoder) First() byte { return d.list[0] }

// Decode moves the symbol currently at position idx to the front and
// returns it.
func (d *MTFDecoder) Decode(idx int) byte {
	b := d.list[idx]
	moveToFront(d.list, idx)
	return b
}
