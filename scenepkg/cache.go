// SPDX-License-Identifier: Unlicense OR MIT

// Package scenepkg implements the Scene and SceneList types: an ordered
// collection of drawable items sharing a per-scene Path-Geometry Cache. It
// mirrors the keyed-cache shape of gpu/caches.go's opCache — a map keyed by
// content hash, with entries holding the Point16 replay data the GPU (or
// CPU) coarse rasterizer consumes — generalized from a GPU-resource cache
// to a pure-data cache entry (size, molecules, Point16 stream).
package scenepkg

import (
	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

// CacheEntry is the per-path cached derived data a Scene keeps so that
// repeated insertions of the same Geometry need not recompute it.
type CacheEntry struct {
	Size         int
	HasMolecules bool
	MaxDot       float32
	Mols         []transform.Bounds
	P16s         []geometry.Point16
	P16End       []bool
}

// Cache maps a path's content hash to its CacheEntry, following gio's
// resourceCache/opCache keyed-lookup pattern (gpu/caches.go) generalized
// from GPU resources to plain geometry data.
type Cache struct {
	byHash  map[uint64]int
	entries []CacheEntry
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{byHash: make(map[uint64]int)}
}

// lookup returns the entry index for hash and whether it was found.
func (c *Cache) lookup(hash uint64) (int, bool) {
	idx, ok := c.byHash[hash]
	return idx, ok
}

// insert adds a new entry for hash, built from g, and returns its index.
func (c *Cache) insert(hash uint64, g *geometry.Geometry) int {
	g.BuildP16s()
	idx := len(c.entries)
	c.entries = append(c.entries, CacheEntry{
		Size:         len(g.Types),
		HasMolecules: g.HasMolecules(),
		MaxDot:       g.MaxDot,
		Mols:         g.Molecules,
		P16s:         g.P16s,
		P16End:       g.P16Ends,
	})
	c.byHash[hash] = idx
	return idx
}

// Entry returns the cache entry at idx.
func (c *Cache) Entry(idx int) CacheEntry {
	return c.entries[idx]
}

// Len returns the number of distinct cached paths.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Hashes returns the content hashes currently held in the cache.
func (c *Cache) Hashes() map[uint64]int {
	return c.byHash
}
