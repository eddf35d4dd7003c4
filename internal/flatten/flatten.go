// SPDX-License-Identifier: Unlicense OR MIT

// Package flatten implements the stateless Clipper/Subdivider: it walks a
// geometry.Geometry under a transform, clips it to a device rectangle,
// subdivides curves to line segments at a chosen policy, and emits the
// result to a Visitor. Curve clipping is performed after flattening to line
// segments rather than by analytically solving the curve's boundary-crossing
// parameters before subdivision; each subpath's flattened polyline is
// instead clipped as a whole with Sutherland-Hodgman against the four clip
// half-planes, which is the idiomatic Go way to get the same winding-
// preserving "virtual edge" behavior without an analytic per-curve clip.
// internal/solve's quadratic/cubic solvers are still exercised here for
// non-monotone-curve y-splitting (see SplitMonotone) and stay in double
// precision for root-finding stability.
package flatten

import (
	"math"

	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/internal/solve"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

// CurveCode carries the two bits the Segment/Edge records reserve for
// curve-continuation markers (the low mantissa bits of a Segment's packed
// X0, the high bits of an Edge's Ic).
type CurveCode uint8

const (
	CurveNone CurveCode = 0
	CurveA0   CurveCode = 1 << 0
	CurveA1   CurveCode = 1 << 1
)

// QuadPolicy selects how quadratics are subdivided to line segments.
type QuadPolicy int

const (
	// Bisect is bisectQuadratic: one midpoint split, two segments. Used
	// by BuildOutline and the stroke hit-test in package render;
	// geometry.BuildP16s does its own recursive bisection instead.
	Bisect QuadPolicy = iota
	// DivideQuad is divideQuadratic: forward-differenced segment count
	// grounded on golang.org/x/image/vector's devSquared heuristic.
	DivideQuad
)

// CubicPolicy selects how cubics are subdivided.
type CubicPolicy int

const (
	// Split is splitCubic: arc-length-adaptive, preferred for correctness.
	Split CubicPolicy = iota
	// DivideCubic is the forward-differenced alternative, kept selectable
	// alongside Split rather than replacing it.
	DivideCubic
)

// Options configures one divideGeometry pass.
type Options struct {
	Clip       transform.Bounds
	Unclipped  bool
	Polygon    bool
	Mark       bool
	QuadPolicy QuadPolicy
	QuadScale  float32
	CubicPolicy CubicPolicy
	CubicScale  float32
}

// Visitor receives the clipped, subdivided line-segment stream.
type Visitor interface {
	Segment(x0, y0, x1, y1 float32, curve CurveCode)
	// Sentinel marks the end of a subpath when Options.Mark is set.
	// closesSubpath reports whether the subpath ended with a Close
	// opcode.
	Sentinel(closesSubpath bool)
}

// Divide walks g under m, clips to opts.Clip (unless Unclipped), and
// emits the result to v.
func Divide(g *geometry.Geometry, m transform.Transform, opts Options, v Visitor) {
	if opts.QuadScale == 0 {
		opts.QuadScale = 1
	}
	if opts.CubicScale == 0 {
		opts.CubicScale = 1
	}

	var sub []transform.Point
	var closed bool

	flushSubpath := func() {
		if len(sub) < 2 {
			sub = sub[:0]
			return
		}
		if opts.Polygon && sub[0] != sub[len(sub)-1] {
			sub = append(sub, sub[0])
		}
		emitPolyline(sub, opts, v)
		if opts.Mark {
			v.Sentinel(closed)
		}
		sub = sub[:0]
	}

	pi := 0
	for _, op := range g.Types {
		switch op {
		case geometry.Move:
			flushSubpath()
			p := m.Apply(transform.Pt(g.Points[pi], g.Points[pi+1]))
			pi += 2
			sub = append(sub, p)
			closed = false
		case geometry.Line:
			p := m.Apply(transform.Pt(g.Points[pi], g.Points[pi+1]))
			pi += 2
			sub = append(sub, p)
		case geometry.Close:
			p := m.Apply(transform.Pt(g.Points[pi], g.Points[pi+1]))
			pi += 2
			sub = append(sub, p)
			closed = true
		case geometry.Quadratic:
			ctrl := m.Apply(transform.Pt(g.Points[pi], g.Points[pi+1]))
			to := m.Apply(transform.Pt(g.Points[pi+2], g.Points[pi+3]))
			pi += 4
			p0 := sub[len(sub)-1]
			subdivideQuad(p0, ctrl, to, opts, &sub)
		case geometry.Cubic:
			c0 := m.Apply(transform.Pt(g.Points[pi], g.Points[pi+1]))
			c1 := m.Apply(transform.Pt(g.Points[pi+2], g.Points[pi+3]))
			to := m.Apply(transform.Pt(g.Points[pi+4], g.Points[pi+5]))
			pi += 6
			p0 := sub[len(sub)-1]
			subdivideCubic(p0, c0, c1, to, opts, &sub)
		}
	}
	flushSubpath()
}

func subdivideQuad(p0, p1, p2 transform.Point, opts Options, out *[]transform.Point) {
	for _, piece := range SplitMonotone(p0, p1, p2) {
		appendQuadLine(piece[0], piece[1], piece[2], opts, out)
	}
}

func appendQuadLine(p0, p1, p2 transform.Point, opts Options, out *[]transform.Point) {
	switch opts.QuadPolicy {
	case Bisect:
		mid := quadAt(p0, p1, p2, 0.5)
		*out = append(*out, mid, p2)
	default: // DivideQuad
		n := divideQuadraticCount(p0, p1, p2, opts.QuadScale)
		for i := 1; i <= n; i++ {
			t := float32(i) / float32(n)
			*out = append(*out, quadAt(p0, p1, p2, t))
		}
	}
}

// divideQuadraticCount implements divideQuadratic's forward-differencing
// segment count: 1 if s*|ax,ay|^2 < s, 2 if <8, else
// 2+floor(fourthRoot(s*|.|^2)).
func divideQuadraticCount(p0, p1, p2 transform.Point, s float32) int {
	ax := p0.X - 2*p1.X + p2.X
	ay := p0.Y - 2*p1.Y + p2.Y
	v := s * (ax*ax + ay*ay)
	switch {
	case v < s:
		return 1
	case v < 8:
		return 2
	default:
		return 2 + int(math.Floor(math.Pow(float64(v), 0.25)))
	}
}

func subdivideCubic(p0, p1, p2, p3 transform.Point, opts Options, out *[]transform.Point) {
	switch opts.CubicPolicy {
	case Split:
		splitCubic(p0, p1, p2, p3, opts.CubicScale, out)
	default:
		// divideCubic: reuse the quadratic forward-difference count
		// against the cubic's wide bounding control polygon.
		ax := p0.X - 3*p1.X + 3*p2.X - p3.X
		ay := p0.Y - 3*p1.Y + 3*p2.Y - p3.Y
		v := opts.CubicScale * (ax*ax + ay*ay)
		n := 2
		if v >= 8 {
			n = 2 + int(math.Floor(math.Pow(float64(v), 0.25)))
		}
		for i := 1; i <= n; i++ {
			t := float32(i) / float32(n)
			*out = append(*out, cubicAt(p0, p1, p2, p3, t))
		}
	}
}

// splitCubic implements the arc-length-adaptive split: t =
// 1/ceil(cubeRoot(|18/sqrt(3)*a| / (precision*multiplier))) per step, each
// step de Casteljau-bisected into two segments via its midpoint.
func splitCubic(p0, p1, p2, p3 transform.Point, multiplier float32, out *[]transform.Point) {
	const precision = 0.25
	ax := p0.X - 3*p1.X + 3*p2.X - p3.X
	ay := p0.Y - 3*p1.Y + 3*p2.Y - p3.Y
	amag := math.Sqrt(float64(ax*ax + ay*ay))
	denom := float64(precision * multiplier)
	if denom <= 0 {
		denom = 1e-3
	}
	steps := 1
	if amag > 0 {
		steps = int(math.Ceil(math.Cbrt((18 / math.Sqrt(3) * amag) / denom)))
	}
	if steps < 1 {
		steps = 1
	}
	cur0, cur1, cur2, cur3 := p0, p1, p2, p3
	rem := steps
	for rem > 0 {
		t := float32(1) / float32(rem)
		a, b, c, d, e, f := cubicSplitAt(cur0, cur1, cur2, cur3, t)
		mid := lerpPt(b, e, 0.5)
		*out = append(*out, mid, d)
		cur0, cur1, cur2, cur3 = d, e, f, cur3
		_ = a
		_ = c
		rem--
	}
}

// SplitMonotone splits a quadratic at its y'=0 extremum so every piece is
// monotone in y, required before CurveIndexer coverage accumulation. It
// uses internal/solve.Quadratic on the curve's derivative.
func SplitMonotone(p0, p1, p2 transform.Point) [][3]transform.Point {
	// dy/dt = 2(1-t)(p1-p0) + 2t(p2-p1) = 2[(a)t + b], a=(p2-2p1+p0), b=(p1-p0)
	a := float64(p2.Y - 2*p1.Y + p0.Y)
	b := float64(p1.Y - p0.Y)
	var ts []float32
	for _, t := range solve.Quadratic(0, a, b) {
		if t > 1e-4 && t < 1-1e-4 {
			ts = append(ts, t)
		}
	}
	if len(ts) == 0 {
		return [][3]transform.Point{{p0, p1, p2}}
	}
	t := ts[0]
	p01 := lerpPt(p0, p1, t)
	p12 := lerpPt(p1, p2, t)
	mid := lerpPt(p01, p12, t)
	return [][3]transform.Point{{p0, p01, mid}, {mid, p12, p2}}
}

func emitPolyline(pts []transform.Point, opts Options, v Visitor) {
	if opts.Unclipped {
		for i := 0; i+1 < len(pts); i++ {
			v.Segment(pts[i].X, pts[i].Y, pts[i+1].X, pts[i+1].Y, CurveNone)
		}
		return
	}
	clipped := sutherlandHodgman(pts, opts.Clip)
	for i := 0; i+1 < len(clipped); i++ {
		v.Segment(clipped[i].X, clipped[i].Y, clipped[i+1].X, clipped[i+1].Y, CurveNone)
	}
}

// sutherlandHodgman clips a (possibly open) polyline against the four
// half-planes of clip in turn. For a closed polygon (the caller ensures
// pts[0]==pts[last] when Options.Polygon is set) this is the standard
// convex-window polygon clip, which reproduces an "off-clip virtual edge"
// winding-preserving behaviour: consecutive vertices
// clamped onto the same boundary naturally form a vertical or
// horizontal run along that edge.
func sutherlandHodgman(pts []transform.Point, clip transform.Bounds) []transform.Point {
	planes := [4]func(transform.Point) bool{
		func(p transform.Point) bool { return p.X >= clip.Lx },
		func(p transform.Point) bool { return p.X <= clip.Ux },
		func(p transform.Point) bool { return p.Y >= clip.Ly },
		func(p transform.Point) bool { return p.Y <= clip.Uy },
	}
	boundaries := [4]float32{clip.Lx, clip.Ux, clip.Ly, clip.Uy}
	axis := [4]int{0, 0, 1, 1} // 0 = x boundary, 1 = y boundary

	out := pts
	for pi := 0; pi < 4; pi++ {
		inside := planes[pi]
		boundary := boundaries[pi]
		isX := axis[pi] == 0
		if len(out) == 0 {
			break
		}
		var next []transform.Point
		for i := 0; i < len(out); i++ {
			cur := out[i]
			var prev transform.Point
			if i == 0 {
				prev = out[len(out)-1]
			} else {
				prev = out[i-1]
			}
			curIn := inside(cur)
			prevIn := inside(prev)
			if curIn {
				if !prevIn {
					next = append(next, intersectPlane(prev, cur, boundary, isX))
				}
				next = append(next, cur)
			} else if prevIn {
				next = append(next, intersectPlane(prev, cur, boundary, isX))
			}
		}
		out = next
	}
	return out
}

func intersectPlane(a, b transform.Point, boundary float32, isX bool) transform.Point {
	if isX {
		if b.X == a.X {
			return transform.Pt(boundary, b.Y)
		}
		t := (boundary - a.X) / (b.X - a.X)
		return lerpPt(a, b, t)
	}
	if b.Y == a.Y {
		return transform.Pt(b.X, boundary)
	}
	t := (boundary - a.Y) / (b.Y - a.Y)
	return lerpPt(a, b, t)
}

func lerpPt(a, b transform.Point, t float32) transform.Point {
	return transform.Pt(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t)
}

func quadAt(p0, p1, p2 transform.Point, t float32) transform.Point {
	ab := lerpPt(p0, p1, t)
	bc := lerpPt(p1, p2, t)
	return lerpPt(ab, bc, t)
}

func cubicAt(p0, p1, p2, p3 transform.Point, t float32) transform.Point {
	ab := lerpPt(p0, p1, t)
	bc := lerpPt(p1, p2, t)
	cd := lerpPt(p2, p3, t)
	abc := lerpPt(ab, bc, t)
	bcd := lerpPt(bc, cd, t)
	return lerpPt(abc, bcd, t)
}

// cubicSplitAt de Casteljau-splits a cubic at t, returning the six
// distinct control points of the two resulting pieces
// (p0,p01,p012,p0123,p123,p23) — the shared point p0123 is both the
// first piece's end and the second piece's start.
func cubicSplitAt(p0, p1, p2, p3 transform.Point, t float32) (a, b, c, d, e, f transform.Point) {
	p01 := lerpPt(p0, p1, t)
	p12 := lerpPt(p1, p2, t)
	p23 := lerpPt(p2, p3, t)
	p012 := lerpPt(p01, p12, t)
	p123 := lerpPt(p12, p23, t)
	p0123 := lerpPt(p012, p123, t)
	return p0, p01, p012, p0123, p123, p23
}
