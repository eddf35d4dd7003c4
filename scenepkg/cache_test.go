// SPDX-License-Identifier: Unlicense OR MIT

package scenepkg

import (
	"testing"

	"github.com/mindbrix/Rasterizer-sub000/colorant"
	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/internal/xcache"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

func square(x, y, w float32) *geometry.Geometry {
	g := geometry.New()
	g.AddBounds(transform.Bounds{Lx: x, Ly: y, Ux: x + w, Uy: y + w})
	return g
}

func TestCacheDedupesByHash(t *testing.T) {
	s := NewScene()
	a := square(0, 0, 10)
	b := square(0, 0, 10) // same shape, distinct Geometry value
	c := square(5, 5, 20)

	s.AddPath(a, transform.Identity, colorant.Colorant{A: 255}, 0, 0, transform.Bounds{})
	s.AddPath(b, transform.Identity, colorant.Colorant{A: 255}, 0, 0, transform.Bounds{})
	s.AddPath(c, transform.Identity, colorant.Colorant{A: 255}, 0, 0, transform.Bounds{})

	if got, want := s.Cache.Len(), 2; got != want {
		t.Fatalf("Cache.Len() = %d, want %d", got, want)
	}
	if s.Ips[0] != s.Ips[1] {
		t.Fatalf("identical paths got distinct cache entries: %d != %d", s.Ips[0], s.Ips[1])
	}
	if s.Ips[0] == s.Ips[2] {
		t.Fatalf("distinct paths shared a cache entry")
	}
}

func TestCacheHashesSorted(t *testing.T) {
	s := NewScene()
	s.AddPath(square(0, 0, 10), transform.Identity, colorant.Colorant{A: 255}, 0, 0, transform.Bounds{})
	s.AddPath(square(5, 5, 20), transform.Identity, colorant.Colorant{A: 255}, 0, 0, transform.Bounds{})

	hashes := s.Cache.Hashes()
	if len(hashes) != 2 {
		t.Fatalf("len(hashes) = %d, want 2", len(hashes))
	}
	keys := xcache.SortedKeys(hashes, func(a, b uint64) bool { return a < b })
	if len(keys) != 2 || keys[0] >= keys[1] {
		t.Fatalf("SortedKeys did not return an ascending order: %v", keys)
	}
}
