// Package bwt implements the Burrows-Wheeler Transform and its inverse, plus
// the move-to-front and zero-run transforms BZip2 layers on top of it
// (spec.md §4.2). Per spec.md §9's open question, any algorithm achieving
// correct output for blocks up to 900 KB is acceptable; this package uses a
// keyed comparison sort of rotations, directly grounded on
// oxiarc-bzip2/src/bwt.rs (the oxiarc Rust source this spec was distilled
// from), which acknowledges the same O(n²) worst case and accepts it for
// BZip2's bounded block size.
package bwt

import "sort"

// Transform performs the forward BWT on a block, returning the permuted
// last column and the origin row index (spec.md §3's BWT state: for a
// block of N bytes, a permuted block of N bytes plus an origin index in
// [0, N)).
func Transform(data []byte) (transformed []byte, origin uint32) {
	n := len(data)
	if n == 0 {
		return nil, 0
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	// Rotation comparison is cyclic: compare data[(i+k)%n] for successive k.
	// A short fixed-length key prefix is precomputed for cache-friendly
	// comparisons before falling back to the full cyclic comparison,
	// mirroring oxiarc's key-assisted sort.
	keyLen := n
	if keyLen > 4 {
		keyLen = 4
	}
	keys := make([]uint32, n)
	for i := 0; i < n; i++ {
		var k uint32
		for j := 0; j < keyLen; j++ {
			k = (k << 8) | uint32(data[(i+j)%n])
		}
		keys[i] = k
	}

	sort.Slice(indices, func(a, b int) bool {
		ia, ib := indices[a], indices[b]
		if keys[ia] != keys[ib] {
			return keys[ia] < keys[ib]
		}
		for k := keyLen; k < n; k++ {
			ba := data[(ia+k)%n]
			bb := data[(ib+k)%n]
			if ba != bb {
				return ba < bb
			}
		}
		return false
	})

	transformed = make([]byte, n)
	for i, idx := range indices {
		transformed[i] = data[(idx+n-1)%n]
		if idx == 0 {
			origin = uint32(i)
		}
	}
	return transformed, origin
}

// Inverse reconstructs the original block from the BWT output and origin
// index, exactly via the counting-sort method in oxiarc-bzip2/src/bwt.rs:
// build cumulative counts per byte value, chase the permutation from the
// origin row.
func Inverse(data []byte, origin uint32) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return nil, nil
	}

	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	var cumulative [256]int
	total := 0
	for i := 0; i < 256; i++ {
		cumulative[i] = total
		total += counts[i]
	}

	next := make([]int, n)
	positions := cumulative
	for i, b := range data {
		next[positions[b]] = i
		positions[b]++
	}

	out := make([]byte, n)
	idx := next[origin]
	for i := 0; i < n; i++ {
		out[i] = data[idx]
		idx = next[idx]
	}
	return out, nil
}
