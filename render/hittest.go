// SPDX-License-Identifier: Unlicense OR MIT

package render

import (
	"math"

	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/internal/flatten"
	"github.com/mindbrix/Rasterizer-sub000/scenepkg"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

// NoHit is the sentinel (sceneIdx, itemIdx) IndicesForPoint returns when no
// item is visible under the test point.
const NoHit = math.MaxInt32

// IndicesForPoint implements indicesForPoint: it walks
// the SceneList from the most recently drawn scene and item backwards,
// returning the first (topmost) visible item under (px,py), or
// (NoHit, NoHit) if none.
func IndicesForPoint(list *scenepkg.SceneList, px, py float32) (sceneIdx, itemIdx int) {
	pt := transform.Pt(px, py)
	for si := len(list.Scenes) - 1; si >= 0; si-- {
		clip := list.Clips[si]
		if !clip.Empty() && !clip.Contains(pt) {
			continue
		}
		s := list.Scenes[si]
		sceneCTM := list.CTM.Concat(list.CTMs[si])
		for ii := s.Count - 1; ii >= 0; ii-- {
			if s.DstFlags[ii]&scenepkg.Invisible != 0 {
				continue
			}
			if hitItem(s, ii, sceneCTM, pt) {
				return si, ii
			}
		}
	}
	return NoHit, NoHit
}

func hitItem(s *scenepkg.Scene, i int, sceneCTM transform.Transform, pt transform.Point) bool {
	g := s.Paths[i]
	if g.Bounds.Empty() {
		return false
	}
	fullCTM := sceneCTM.Concat(s.DstCTMs[i])

	width := s.DstWidths[i]
	if width == 0 {
		unitT := g.Bounds.Unit(fullCTM)
		up := unitT.Apply(pt)
		const boundsEps = 1e-3
		if up.X < -boundsEps || up.X > 1+boundsEps || up.Y < -boundsEps || up.Y > 1+boundsEps {
			return false
		}
		return hitFill(g, fullCTM, pt, s.DstFlags[i]&scenepkg.FillEvenOdd != 0)
	}
	hw := width
	if hw < 0 {
		hw = -hw
	} else {
		hw *= fullCTM.Scale()
	}
	hw /= 2
	// A stroke reaches halfWidth beyond the path, and a square cap a further
	// halfWidth past an open end, so strokes are prefiltered against the
	// path's device bounds grown by 2*halfWidth.
	if !g.Bounds.Quad(fullCTM).UnitSquareBounds().Inset(-2*hw, -2*hw).Contains(pt) {
		return false
	}
	return hitStroke(g, fullCTM, pt, hw, s.DstFlags[i])
}

// hitFill accumulates the signed horizontal-ray crossing count of every
// subdivided segment.
func hitFill(g *geometry.Geometry, ctm transform.Transform, pt transform.Point, evenOdd bool) bool {
	w := &windingVisitor{py: pt.Y, px: pt.X}
	opts := flatten.Options{
		Unclipped:   true,
		Polygon:     true,
		QuadPolicy:  flatten.DivideQuad,
		CubicPolicy: flatten.DivideCubic,
		QuadScale:   1,
		CubicScale:  1,
	}
	flatten.Divide(g, ctm, opts, w)
	if evenOdd {
		return int(w.winding)%2 != 0
	}
	return w.winding != 0
}

type windingVisitor struct {
	px, py  float32
	winding int
}

func (w *windingVisitor) Segment(x0, y0, x1, y1 float32, curve flatten.CurveCode) {
	if (y0 > w.py) == (y1 > w.py) {
		return
	}
	t := (w.py - y0) / (y1 - y0)
	x := x0 + (x1-x0)*t
	if x <= w.px {
		return
	}
	if y1 > y0 {
		w.winding++
	} else {
		w.winding--
	}
}

func (w *windingVisitor) Sentinel(closesSubpath bool) {}

// hitStroke reports whether pt lies within halfWidth of any subdivided
// segment of g under ctm, with cap-sensitive end handling: Square extends
// the subpath's true first/last segment ends by halfWidth tangentially,
// Round uses the plain clamped point-segment distance (a disc around each
// endpoint), flat excludes hits past the true first/last endpoint entirely.
// Interior joints between subdivided segments are always clamped (never
// capped), matching Options.Mark's per-subpath, not per-segment, boundary.
func hitStroke(g *geometry.Geometry, ctm transform.Transform, pt transform.Point, halfWidth float32, flags scenepkg.ItemFlags) bool {
	sq := &strokeHitVisitor{pt: pt, halfWidth: halfWidth, flags: flags}
	opts := flatten.Options{
		Unclipped:   true,
		Polygon:     false,
		Mark:        true,
		QuadPolicy:  flatten.Bisect,
		CubicPolicy: flatten.Split,
		QuadScale:   1,
		CubicScale:  1,
	}
	flatten.Divide(g, ctm, opts, sq)
	return sq.hit
}

// segEndpoints is one buffered segment of the subpath currently being
// accumulated, so hitStroke can special-case its true first/last segment
// once the whole subpath is known (the Sentinel callback).
type segEndpoints struct {
	x0, y0, x1, y1 float32
}

type strokeHitVisitor struct {
	pt        transform.Point
	halfWidth float32
	flags     scenepkg.ItemFlags
	pending   []segEndpoints
	hit       bool
}

func (s *strokeHitVisitor) Segment(x0, y0, x1, y1 float32, curve flatten.CurveCode) {
	if s.hit {
		return
	}
	s.pending = append(s.pending, segEndpoints{x0, y0, x1, y1})
}

func (s *strokeHitVisitor) Sentinel(closesSubpath bool) {
	if !s.hit {
		s.testSubpath(closesSubpath)
	}
	s.pending = s.pending[:0]
}

// testSubpath tests every buffered segment of the subpath just closed by
// Sentinel. When closesSubpath is true the seam joining the last segment
// back to the first is an interior joint, not a stroke end, so neither
// gets cap treatment.
func (s *strokeHitVisitor) testSubpath(closesSubpath bool) {
	square := s.flags&scenepkg.SquareCap != 0
	round := s.flags&scenepkg.RoundCap != 0
	n := len(s.pending)
	for i, seg := range s.pending {
		p0, p1 := transform.Pt(seg.x0, seg.y0), transform.Pt(seg.x1, seg.y1)
		atStart, atEnd := i == 0 && !closesSubpath, i == n-1 && !closesSubpath

		if square {
			if atStart {
				p0 = extendTangent(p1, p0, s.halfWidth)
			}
			if atEnd {
				p1 = extendTangent(p0, p1, s.halfWidth)
			}
		}
		// Flat caps (neither flag set) exclude a hit past the subpath's
		// true endpoint; interior joints and Round's disc-shaped ends are
		// always clamped.
		flatStart := atStart && !square && !round
		flatEnd := atEnd && !square && !round

		if dist, excluded := distPointSegment(s.pt, p0, p1, flatStart, flatEnd); !excluded && dist <= s.halfWidth {
			s.hit = true
			return
		}
	}
}

// extendTangent returns to moved away from from by dist along the from->to
// tangent, the square-cap extension applied to a subpath's true endpoint.
func extendTangent(from, to transform.Point, dist float32) transform.Point {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		return to
	}
	return transform.Pt(to.X+dx/length*dist, to.Y+dy/length*dist)
}

// distPointSegment returns the distance from p to segment a-b. When t (the
// projection of p onto the segment, unclamped) falls outside [0,1] at an end
// flagged flatStart/flatEnd, the segment's flat cap excludes the hit
// entirely rather than clamping to the endpoint.
func distPointSegment(p, a, b transform.Point, flatStart, flatEnd bool) (dist float32, excluded bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return float32(math.Hypot(float64(p.X-a.X), float64(p.Y-a.Y))), false
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		if flatStart {
			return 0, true
		}
		t = 0
	}
	if t > 1 {
		if flatEnd {
			return 0, true
		}
		t = 1
	}
	cx, cy := a.X+dx*t, a.Y+dy*t
	return float32(math.Hypot(float64(p.X-cx), float64(p.Y-cy))), false
}
