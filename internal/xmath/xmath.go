// SPDX-License-Identifier: Unlicense OR MIT

// Package xmath holds the small numeric helpers the Renderer's shard-
// boundary search needs, built on golang.org/x/exp/slices the same way prior
// art reaches for golang.org/x/exp ahead of those helpers landing in the
// standard library.
package xmath

import "golang.org/x/exp/slices"

// ShardBoundaries cuts cumulative per-item weights into K contiguous ranges
// of roughly equal total weight. It returns K+1 boundary indices into
// weights, bounds[0]==0 and bounds[K]==len(weights).
func ShardBoundaries(weights []int, k int) []int {
	n := len(weights)
	bounds := make([]int, k+1)
	bounds[k] = n
	if n == 0 || k <= 1 {
		return bounds
	}

	cum := make([]int, n+1)
	for i, w := range weights {
		cum[i+1] = cum[i] + w
	}
	total := cum[n]
	if total == 0 {
		for i := 1; i < k; i++ {
			bounds[i] = i * n / k
		}
		return bounds
	}

	prev := 0
	for i := 1; i < k; i++ {
		target := total * i / k
		idx, _ := slices.BinarySearchFunc(cum, target, func(v, t int) int {
			return v - t
		})
		if idx < prev {
			idx = prev
		}
		if idx > n {
			idx = n
		}
		bounds[i] = idx
		prev = idx
	}
	return bounds
}
