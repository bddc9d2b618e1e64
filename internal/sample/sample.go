// Package sample draws the reproducible random subset of invoice rows a
// reviewer audits. Reviewers re-run the draw with the same seed
// (conventionally the fiscal year) to prove the sample was not
// cherry-picked, so identical inputs must always yield the identical
// index sequence.
package sample

import "math/rand"

// Draw returns n distinct row indices in [0, rowCount), uniform without
// replacement. n is clamped to [1, rowCount]; the caller observes the
// adjusted size as len(result). rowCount <= 0 yields an empty sample.
//
// Determinism contract: the sequence depends only on (rowCount, n, seed).
// rand.NewSource is used deliberately: its value stream for a given seed
// is locked by the math/rand compatibility promise, unlike the global
// source.
func Draw(rowCount, n int, seed int64) []int {
	if rowCount <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if n > rowCount {
		n = rowCount
	}

	r := rand.New(rand.NewSource(seed))
	idx := make([]int, rowCount)
	for i := range idx {
		idx[i] = i
	}
	// Partial Fisher-Yates: after k swaps the first k slots are the draw.
	for i := 0; i < n; i++ {
		j := i + r.Intn(rowCount-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:n]
}
