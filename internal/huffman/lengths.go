package huffman

import "sort"

// freqNode is a node in the length-limited Huffman construction below.
type freqNode struct {
	freq     uint64
	symbols  []int // leaf: single symbol; internal: symbols merged beneath
	children []*freqNode
}

// BuildLengths computes length-limited Huffman code lengths for the given
// symbol frequencies (zero-frequency symbols get length 0, i.e. unused),
// using the package-merge algorithm spec.md §3 calls for. maxLen bounds the
// longest code (15 for DEFLATE/LZH, 20 for BZip2, 11/9 for Zstandard).
//
// Package-merge works by building maxLen "levels" of a virtual Huffman tree
// where each level's nodes are either an original leaf or a pair merged
// from the level below; taking the lightest (2*usedSymbols - 2) nodes from
// the final level and counting, per symbol, how many levels it was merged
// on gives exactly its code length.
func BuildLengths(freqs []uint64, maxLen uint) []uint8 {
	type leaf struct {
		symbol int
		freq   uint64
	}
	leaves := make([]leaf, 0, len(freqs))
	for sym, f := range freqs {
		if f > 0 {
			leaves = append(leaves, leaf{symbol: sym, freq: f})
		}
	}
	lengths := make([]uint8, len(freqs))
	if len(leaves) == 0 {
		return lengths
	}
	if len(leaves) == 1 {
		lengths[leaves[0].symbol] = 1
		return lengths
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].freq < leaves[j].freq })

	n := len(leaves)
	// counts[sym] accumulates how many of the maxLen coin-collection
	// levels include that symbol; that count is its final code length.
	counts := make([]int, n)

	// package-merge over levels 1..maxLen.
	type item struct {
		weight  uint64
		members []int // leaf indices merged into this item
	}
	prevLevel := make([]item, n)
	for i, l := range leaves {
		prevLevel[i] = item{weight: l.freq, members: []int{i}}
	}

	type levelResult []item
	var levels []levelResult
	levels = append(levels, prevLevel)

	for lvl := uint(1); lvl < maxLen; lvl++ {
		// Merge pairs of prevLevel (package step) then union with fresh
		// leaves (merge step), kept sorted by weight.
		packaged := make([]item, 0, len(prevLevel)/2)
		for i := 0; i+1 < len(prevLevel); i += 2 {
			merged := append(append([]int{}, prevLevel[i].members...), prevLevel[i+1].members...)
			packaged = append(packaged, item{weight: prevLevel[i].weight + prevLevel[i+1].weight, members: merged})
		}
		combined := make([]item, 0, len(packaged)+n)
		combined = append(combined, packaged...)
		for i, l := range leaves {
			combined = append(combined, item{weight: l.freq, members: []int{i}})
		}
		sort.SliceStable(combined, func(i, j int) bool { return combined[i].weight < combined[j].weight })
		prevLevel = combined
		levels = append(levels, prevLevel)
	}

	// Take the 2n-2 lightest items from the final (maxLen-deep) level and
	// count symbol occurrences across all their merged member sets.
	final := levels[maxLen-1]
	take := 2*n - 2
	if take > len(final) {
		take = len(final)
	}
	for _, it := range final[:take] {
		for _, m := range it.members {
			counts[m]++
		}
	}

	for i, l := range leaves {
		length := counts[i]
		if length < 1 {
			length = 1
		}
		lengths[l.symbol] = uint8(length)
	}
	return lengths
}
