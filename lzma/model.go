package lzma

import "github.com/arvida-labs/compresscore/internal/rangecoder"

const (
	numPosBitsMax = 4

	lenLowBits  = 3
	lenMidBits  = 3
	lenHighBits = 8
	lenLowCount = 1 << lenLowBits
	lenMidCount = 1 << lenMidBits
	lenHighCount = 1 << lenHighBits

	distSlotBits    = 6
	distSlotCount   = 1 << distSlotBits
	distModelStart  = 4
	distModelEnd    = 14
	fullDistances   = 1 << (distModelEnd >> 1)
	alignBits       = 4
	alignCount      = 1 << alignBits
)

// lenCoder is LZMA's three-tier match-length coder: a choice bit selects
// low (2-9), a second choice bit selects mid (10-17), otherwise a high tier
// codes lengths 18-273 directly. Layout follows lzmaLenDec in the xi2/xz
// port.
type lenCoder struct {
	choice    rangecoder.Prob
	choice2   rangecoder.Prob
	low       [][]rangecoder.Prob // [posState][lenLowCount]
	mid       [][]rangecoder.Prob
	high      []rangecoder.Prob
}

func newLenCoder(numPosStates int) *lenCoder {
	lc := &lenCoder{
		choice:  rangecoder.InitProbValue,
		choice2: rangecoder.InitProbValue,
		low:     make([][]rangecoder.Prob, numPosStates),
		mid:     make([][]rangecoder.Prob, numPosStates),
		high:    rangecoder.NewProbs(lenHighCount),
	}
	for i := 0; i < numPosStates; i++ {
		lc.low[i] = rangecoder.NewProbs(lenLowCount)
		lc.mid[i] = rangecoder.NewProbs(lenMidCount)
	}
	return lc
}

func (lc *lenCoder) decode(d *rangecoder.Decoder, posState int) int {
	if d.DecodeBit(&lc.choice) == 0 {
		return int(d.BitTree(lc.low[posState], lenLowBits))
	}
	if d.DecodeBit(&lc.choice2) == 0 {
		return lenLowCount + int(d.BitTree(lc.mid[posState], lenMidBits))
	}
	return lenLowCount + lenMidCount + int(d.BitTree(lc.high, lenHighBits))
}

func (lc *lenCoder) encode(e *rangecoder.Encoder, posState int, length int) {
	if length < lenLowCount {
		e.EncodeBit(&lc.choice, 0)
		e.EncodeBitTree(lc.low[posState], lenLowBits, uint32(length))
		return
	}
	e.EncodeBit(&lc.choice, 1)
	length -= lenLowCount
	if length < lenMidCount {
		e.EncodeBit(&lc.choice2, 0)
		e.EncodeBitTree(lc.mid[posState], lenMidBits, uint32(length))
		return
	}
	e.EncodeBit(&lc.choice2, 1)
	length -= lenMidCount
	e.EncodeBitTree(lc.high, lenHighBits, uint32(length))
}

// model holds every adaptive probability LZMA's decision tree needs,
// parameterized by the stream's LC/LP/PB properties.
type model struct {
	props Properties

	isMatch    [numStates][1 << numPosBitsMax]rangecoder.Prob
	isRep      [numStates]rangecoder.Prob
	isRepG0    [numStates]rangecoder.Prob
	isRepG1    [numStates]rangecoder.Prob
	isRepG2    [numStates]rangecoder.Prob
	isRep0Long [numStates][1 << numPosBitsMax]rangecoder.Prob

	literal [][]rangecoder.Prob // [litState][0x300]

	lenCoder    *lenCoder
	repLenCoder *lenCoder

	distSlot [4][]rangecoder.Prob // [lenToDistState][distSlotCount]
	distSpecial []rangecoder.Prob // shared pool, size fullDistances-distModelEnd
	distAlign   []rangecoder.Prob
}

func newModel(props Properties) *model {
	numPosStates := 1 << props.PB
	m := &model{props: props}
	for s := 0; s < numStates; s++ {
		for p := 0; p < numPosStates; p++ {
			m.isMatch[s][p] = rangecoder.InitProbValue
			m.isRep0Long[s][p] = rangecoder.InitProbValue
		}
		m.isRep[s] = rangecoder.InitProbValue
		m.isRepG0[s] = rangecoder.InitProbValue
		m.isRepG1[s] = rangecoder.InitProbValue
		m.isRepG2[s] = rangecoder.InitProbValue
	}

	numLitStates := 1 << (props.LC + props.LP)
	m.literal = make([][]rangecoder.Prob, numLitStates)
	for i := range m.literal {
		m.literal[i] = rangecoder.NewProbs(0x300)
	}

	m.lenCoder = newLenCoder(numPosStates)
	m.repLenCoder = newLenCoder(numPosStates)

	for i := range m.distSlot {
		m.distSlot[i] = rangecoder.NewProbs(distSlotCount)
	}
	m.distSpecial = rangecoder.NewProbs(fullDistances - distModelEnd)
	m.distAlign = rangecoder.NewProbs(alignCount)
	return m
}

// lenToDistState maps a match length (already offset by matchMinLen)
// to one of the four distance-slot probability sets.
func lenToDistState(length int) int {
	if length > 3 {
		length = 3
	}
	return length
}

func litState(props Properties, pos uint32, prevByte byte) int {
	posMask := uint32(1)<<props.LP - 1
	return int((pos&posMask)<<props.LC) | int(prevByte>>(8-props.LC))
}
