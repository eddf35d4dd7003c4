// SPDX-License-Identifier: Unlicense OR MIT

// Package xcache holds small generic helpers for asserting against map-keyed
// caches in tests, built on golang.org/x/exp/maps the same way prior art
// reaches for golang.org/x/exp ahead of those helpers landing in the
// standard library.
package xcache

import (
	"sort"

	"golang.org/x/exp/maps"
)

// SortedKeys returns m's keys sorted by less, for deterministic test
// assertions against a cache whose insertion order isn't meaningful.
func SortedKeys[K comparable, V any](m map[K]V, less func(a, b K) bool) []K {
	keys := maps.Keys(m)
	sort.Slice(keys, func(i, j int) bool {
		return less(keys[i], keys[j])
	})
	return keys
}
