// SPDX-License-Identifier: Unlicense OR MIT

package scenepkg

import (
	"github.com/mindbrix/Rasterizer-sub000/colorant"
	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

// ItemFlags is a bitmask of per-item rendering flags, including join
// selection (JoinRound/JoinMiter) alongside fill rule and cap style.
type ItemFlags uint8

const (
	Invisible ItemFlags = 1 << iota
	FillEvenOdd
	RoundCap
	SquareCap
	JoinRound
	JoinMiter
)

// Width semantics: w==0 is a fill, w>0 is a
// user-space stroke width, w<0 is a device-space stroke width (|w|
// pixels independent of transform).
const (
	FillWidth = 0
)

// Scene is an ordered collection of (path, transform, color, stroke width,
// flags, per-item clip rectangle) sharing one Cache. A Scene keeps two
// parallel copies of its mutable per-item attributes: Src (as authored) and
// Dst (as transferred). A transfer function may rewrite Dst without
// disturbing Src — modelled here as two parallel slices per mutable
// attribute rather than unified into one.
type Scene struct {
	Count  int
	Paths  []*geometry.Geometry
	Clips  []transform.Bounds
	Bnds   []transform.Bounds
	Ips    []int // cache entry index per scene item

	SrcCTMs, DstCTMs       []transform.Transform
	SrcColors, DstColors   []colorant.Colorant
	SrcWidths, DstWidths   []float32
	SrcFlags, DstFlags     []ItemFlags

	Cache  *Cache
	Weight int
}

// NewScene returns an empty Scene with a fresh Cache.
func NewScene() *Scene {
	return &Scene{Cache: NewCache()}
}

// AddPath appends an item to the scene, implementing the sanitize / cache-
// lookup / append algorithm. It reports whether the item was added.
func (s *Scene) AddPath(g *geometry.Geometry, ctm transform.Transform, color colorant.Colorant, width float32, flags ItemFlags, clip transform.Bounds) bool {
	g.Finish()
	if len(g.Types) < 2 || g.Types[0] != geometry.Move || g.Bounds.Empty() {
		return false
	}

	hash := g.Hash()
	idx, ok := s.Cache.lookup(hash)
	if !ok {
		idx = s.Cache.insert(hash, g)
	}

	s.Paths = append(s.Paths, g)
	s.SrcCTMs = append(s.SrcCTMs, ctm)
	s.DstCTMs = append(s.DstCTMs, ctm)
	s.SrcColors = append(s.SrcColors, color)
	s.DstColors = append(s.DstColors, color)
	s.SrcWidths = append(s.SrcWidths, width)
	s.DstWidths = append(s.DstWidths, width)
	s.SrcFlags = append(s.SrcFlags, flags)
	s.DstFlags = append(s.DstFlags, flags)
	s.Clips = append(s.Clips, clip)
	s.Bnds = append(s.Bnds, g.Bounds)
	s.Ips = append(s.Ips, idx)

	g.MinUpper() // precompute and cache while the geometry is still hot.
	g.Retain()

	s.Count++
	s.Weight += len(g.Types)
	return true
}

// Transfer applies fn to every item's (ctm, color, width, flags), rewriting
// Dst* without disturbing the authored Src* arrays.
func (s *Scene) Transfer(fn func(i int, ctm transform.Transform, col colorant.Colorant, width float32, flags ItemFlags) (transform.Transform, colorant.Colorant, float32, ItemFlags)) {
	for i := 0; i < s.Count; i++ {
		ctm, col, w, f := fn(i, s.SrcCTMs[i], s.SrcColors[i], s.SrcWidths[i], s.SrcFlags[i])
		s.DstCTMs[i] = ctm
		s.DstColors[i] = col
		s.DstWidths[i] = w
		s.DstFlags[i] = f
	}
}

// Bounds returns the union over visible items of the item's bounds, inset by
// its stroke half-width and mapped through its (post-transfer) CTM. A
// user-space width (w>0) is inset before the CTM is applied, so it scales
// with the transform like the stroke itself; a device-space width (w<0)
// stays a fixed pixel amount regardless of scale, so it is inset after.
func (s *Scene) Bounds() transform.Bounds {
	b := transform.EmptyBounds
	for i := 0; i < s.Count; i++ {
		if s.DstFlags[i]&Invisible != 0 {
			continue
		}
		w := s.DstWidths[i]
		local := s.Bnds[i]
		if w > 0 {
			local = local.Inset(-w/2, -w/2)
		}
		dev := local.Quad(s.DstCTMs[i]).UnitSquareBounds()
		if w < 0 {
			hw := -w / 2
			dev = dev.Inset(-hw, -hw)
		}
		b = b.Extend(dev)
	}
	return b
}
