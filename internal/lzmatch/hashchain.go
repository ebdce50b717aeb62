// Package lzmatch implements the hash-chain longest-match search spec.md
// §4.1 step 1 describes for DEFLATE, generalized with configurable prefix
// length and chain depth so LZ4 and LZH's simpler LZSS matching can reuse
// it too.
//
// Grounded on the general hash-chain shape in
// other_examples/430350f1_flanglet-kanzi-go__function-LZCodec.go.go and
// other_examples/992369a1_flanglet-kanzi-go__function-LZ4Codec.go.go.
package lzmatch

// Matcher finds the longest back-reference match at each position of an
// input buffer using a hash table of recent positions chained by
// insertion order.
type Matcher struct {
	data       []byte
	prefixLen  int // bytes hashed per insertion (3 for DEFLATE)
	hashBits   int
	hashShift  uint
	head       []int32 // hash -> most recent position, -1 if none
	prev       []int32 // position -> previous position with same hash, -1 if none
	windowSize int
	maxChain   int
	minMatch   int
	maxMatch   int
}

// Match is a single (distance, length) back-reference.
type Match struct {
	Distance int
	Length   int
}

// New creates a Matcher over data. windowSize bounds how far back a match
// may reference; maxChain bounds how many chain links are walked per
// position (the level-dependent search-effort knob spec.md §4.1 describes).
func New(data []byte, prefixLen, windowSize, maxChain, minMatch, maxMatch int) *Matcher {
	hashBits := 15
	m := &Matcher{
		data:       data,
		prefixLen:  prefixLen,
		hashBits:   hashBits,
		hashShift:  uint(32 - hashBits),
		head:       make([]int32, 1<<hashBits),
		prev:       make([]int32, len(data)),
		windowSize: windowSize,
		maxChain:   maxChain,
		minMatch:   minMatch,
		maxMatch:   maxMatch,
	}
	for i := range m.head {
		m.head[i] = -1
	}
	return m
}

func (m *Matcher) hash(pos int) uint32 {
	if pos+m.prefixLen > len(m.data) {
		return 0
	}
	var h uint32
	for i := 0; i < m.prefixLen; i++ {
		h = h*0x9E3779B1 + uint32(m.data[pos+i])
	}
	return h >> m.hashShift
}

// Insert records pos in the hash chain for future lookups.
func (m *Matcher) Insert(pos int) {
	if pos+m.prefixLen > len(m.data) {
		return
	}
	h := m.hash(pos)
	m.prev[pos] = m.head[h]
	m.head[h] = int32(pos)
}

// Find returns the longest match at pos (searching only positions already
// Inserted), or ok=false if no match of at least minMatch bytes exists.
func (m *Matcher) Find(pos int) (match Match, ok bool) {
	if pos+m.prefixLen > len(m.data) {
		return Match{}, false
	}
	limit := pos - m.windowSize
	if limit < 0 {
		limit = 0
	}
	candidate := m.head[m.hash(pos)]
	bestLen := 0
	bestDist := 0
	maxLen := len(m.data) - pos
	if maxLen > m.maxMatch {
		maxLen = m.maxMatch
	}
	for chain := 0; candidate >= 0 && int(candidate) >= limit && chain < m.maxChain; chain++ {
		length := m.matchLength(int(candidate), pos, maxLen)
		if length > bestLen {
			bestLen = length
			bestDist = pos - int(candidate)
			if length >= maxLen {
				break
			}
		}
		candidate = m.prev[candidate]
	}
	if bestLen < m.minMatch {
		return Match{}, false
	}
	return Match{Distance: bestDist, Length: bestLen}, true
}

func (m *Matcher) matchLength(a, b, maxLen int) int {
	n := 0
	for n < maxLen && m.data[a+n] == m.data[b+n] {
		n++
	}
	return n
}
