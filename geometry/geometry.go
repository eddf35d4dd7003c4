// SPDX-License-Identifier: Unlicense OR MIT

// Package geometry implements the mutable vector-path builder: a typed
// opcode stream paired with a dense point stream. It plays the role prior
// art splits across internal/scene (opcode encoding) and internal/path (the
// GPU vertex layout), plus the content hash and Point16 cache that the
// reference gpu/compute.go computes per-path via hash/maphash-keyed caches
// (gpu/caches.go's opCache).
package geometry

import (
	"hash/maphash"
	"math"

	"github.com/mindbrix/Rasterizer-sub000/transform"
)

// Opcode is a path command tag.
type Opcode uint8

const (
	Move Opcode = iota
	Line
	Quadratic
	Cubic
	Close
)

// PointCount returns k(op): the number of new (x,y) pairs an opcode
// contributes to the dense point stream.
func (op Opcode) PointCount() int {
	switch op {
	case Move, Line, Close:
		return 1
	case Quadratic:
		return 2
	case Cubic:
		return 3
	default:
		panic("geometry: invalid opcode")
	}
}

const (
	// kFastSegments groups Point16 records for fast replay.
	kFastSegments = 4
	// kMoleculesHeight is fixed at 64, consistent with kFastHeight=32's
	// doubling relationship.
	kMoleculesHeight = 64
	// minUpperDet guards UpperBound against near-singular transforms.
	minUpperDet = 1e-6
	// collinearCosSq is the squared-cosine threshold past which a
	// quadratic's control point is treated as collinear with its
	// endpoints.
	collinearCosSq = 0.999695
	// tinyCubicSq is the squared-magnitude threshold below which a
	// cubic's t^3 coefficient is treated as negligible, degrading the
	// curve to a quadratic.
	tinyCubicSq = 1e-2
)

// Point16 is a 16-bit quantised point pair. The top two bits of X carry
// the segment's curve-classification flags.
type Point16 struct {
	X, Y uint16
}

const (
	p16XMask    = 0x3FFF
	p16FlagMask = 0xC000
	p16Pad      = 0xFFFF
)

// CurveFlag classifies a Point16 group's originating segment.
type CurveFlag uint16

const (
	FlagLine CurveFlag = 0
	FlagQuad CurveFlag = 1
	FlagOpen CurveFlag = 2 // continuation bit; BuildP16s does not set it.
)

// Geometry is a reference-counted, shared vector path: a typed opcode stream
// and a dense 2D point stream, plus cached derived data.
type Geometry struct {
	Types  []Opcode
	Points []float32 // interleaved x, y; len == 2*sum(k(op))

	Molecules []transform.Bounds // per-subpath AABB
	Bounds    transform.Bounds

	P16s    []Point16
	P16Ends []bool // marks the last group of a subpath

	CubicSums int
	MaxDot    float32

	hashValid bool
	hashValue uint64

	pen, start transform.Point

	refs int32

	minUpper    int
	minUpperSet bool
}

// New returns an empty Geometry ready for building.
func New() *Geometry {
	return &Geometry{}
}

// Retain bumps the explicit shared-ownership count. Geometry and its
// Point16/hash caches are shared between Scenes; Retain/Release model that
// sharing explicitly rather than relying solely on the garbage collector.
func (g *Geometry) Retain() { g.refs++ }

// Release drops the explicit shared-ownership count.
func (g *Geometry) Release() {
	g.refs--
	if g.refs < 0 {
		panic("geometry: release of unreferenced Geometry")
	}
}

func (g *Geometry) appendPoint(p transform.Point) {
	g.Points = append(g.Points, p.X, p.Y)
	g.extendMolecule(p)
	g.hashValid = false
}

func (g *Geometry) extendMolecule(p transform.Point) {
	n := len(g.Molecules)
	b := transform.Bounds{Lx: p.X, Ly: p.Y, Ux: p.X, Uy: p.Y}
	if n == 0 {
		g.Molecules = append(g.Molecules, b)
		return
	}
	g.Molecules[n-1] = g.Molecules[n-1].Extend(b)
}

// MoveTo starts a new subpath at (x,y).
func (g *Geometry) MoveTo(x, y float32) {
	g.Types = append(g.Types, Move)
	p := transform.Pt(x, y)
	g.pen, g.start = p, p
	g.Molecules = append(g.Molecules, transform.EmptyBounds)
	g.appendPoint(p)
}

// LineTo appends a line segment. A line to the current pen position is a
// no-op.
func (g *Geometry) LineTo(x, y float32) {
	to := transform.Pt(x, y)
	if to == g.pen {
		return
	}
	g.Types = append(g.Types, Line)
	g.pen = to
	g.appendPoint(to)
}

// QuadTo appends a quadratic Bézier with control point (cx,cy) ending at
// (x,y), applying the degeneracy contracts.
func (g *Geometry) QuadTo(cx, cy, x, y float32) {
	p0 := g.pen
	ctrl := transform.Pt(cx, cy)
	to := transform.Pt(x, y)

	chord := sub(to, p0)
	ctrlVec := sub(ctrl, p0)
	chordLenSq := lenSq(chord)
	ctrlLenSq := lenSq(ctrlVec)

	if chordLenSq > 0 && ctrlLenSq > 0 {
		d := dot(chord, ctrlVec)
		cosSq := (d * d) / (chordLenSq * ctrlLenSq)
		if cosSq > collinearCosSq {
			// Collinear: degrade to one or two line segments.
			if d < 0 {
				g.LineTo(ctrl.X, ctrl.Y)
			}
			g.LineTo(to.X, to.Y)
			return
		}
	}

	v1 := sub(p0, ctrl)
	v2 := sub(to, ctrl)
	spikeDot := dot(v1, v2)
	spikeDet := cross(v1, v2)
	if spikeDot < 0 && spikeDet != 0 {
		// Degenerate spike: split at the midpoint to preserve winding.
		mid := quadAt(p0, ctrl, to, 0.5)
		midCtrl0 := lerp(p0, ctrl, 0.5)
		midCtrl1 := lerp(ctrl, to, 0.5)
		g.emitQuad(midCtrl0, mid)
		g.pen = mid
		g.emitQuad(midCtrl1, to)
		return
	}

	g.emitQuad(ctrl, to)
	md := lenSq(sub(ctrl, lerp(p0, to, 0.5)))
	if md > g.MaxDot {
		g.MaxDot = md
	}
}

func (g *Geometry) emitQuad(ctrl, to transform.Point) {
	g.Types = append(g.Types, Quadratic)
	g.pen = to
	g.Points = append(g.Points, ctrl.X, ctrl.Y, to.X, to.Y)
	g.extendMolecule(ctrl)
	g.extendMolecule(to)
	g.hashValid = false
}

// CubicTo appends a cubic Bézier, degrading to a quadratic when the t^3
// coefficient is negligible.
func (g *Geometry) CubicTo(c0x, c0y, c1x, c1y, x, y float32) {
	p0 := g.pen
	c0 := transform.Pt(c0x, c0y)
	c1 := transform.Pt(c1x, c1y)
	to := transform.Pt(x, y)

	cubicCoeff := add(sub(to, p0), mul(sub(c0, c1), 3))
	if lenSq(cubicCoeff) < tinyCubicSq {
		// de Casteljau midpoint rule: degrade to a single quadratic
		// through the midpoint of the two control legs.
		ctrl := mul(sub(mul(add(c0, c1), 3), add(p0, to)), 0.25)
		g.QuadTo(ctrl.X, ctrl.Y, to.X, to.Y)
		return
	}

	g.Types = append(g.Types, Cubic)
	g.pen = to
	g.Points = append(g.Points, c0.X, c0.Y, c1.X, c1.Y, to.X, to.Y)
	g.extendMolecule(c0)
	g.extendMolecule(c1)
	g.extendMolecule(to)
	g.hashValid = false

	mag := math.Sqrt(float64(lenSq(cubicCoeff)))
	g.CubicSums += int(math.Ceil(math.Pow(mag, 0.25)))
	md := lenSq(sub(c0, lerp(p0, to, 0.5)))
	if md2 := lenSq(sub(c1, lerp(p0, to, 0.5))); md2 > md {
		md = md2
	}
	if md > g.MaxDot {
		g.MaxDot = md
	}
}

// Close ends the current subpath, duplicating its start point with a
// Close opcode.
func (g *Geometry) Close() {
	if len(g.Types) == 0 {
		return
	}
	g.Types = append(g.Types, Close)
	g.pen = g.start
	g.appendPoint(g.start)
}

// AddBounds appends a rectangular subpath.
func (g *Geometry) AddBounds(b transform.Bounds) {
	g.MoveTo(b.Lx, b.Ly)
	g.LineTo(b.Ux, b.Ly)
	g.LineTo(b.Ux, b.Uy)
	g.LineTo(b.Lx, b.Uy)
	g.Close()
}

// ellipseK is the cornering constant for a 4-cubic ellipse approximation.
const ellipseK = 0.5 - (2.0/3.0)*(math.Sqrt2-1)

// AddEllipse appends an ellipse inscribed in b using four cubics.
func (g *Geometry) AddEllipse(b transform.Bounds) {
	cx, cy := (b.Lx+b.Ux)/2, (b.Ly+b.Uy)/2
	rx, ry := b.Dx()/2, b.Dy()/2
	k := float32(ellipseK)

	g.MoveTo(cx+rx, cy)
	g.CubicTo(cx+rx, cy+ry*(1-2*k), cx+rx*(1-2*k), cy+ry, cx, cy+ry)
	g.CubicTo(cx-rx*(1-2*k), cy+ry, cx-rx, cy+ry*(1-2*k), cx-rx, cy)
	g.CubicTo(cx-rx, cy-ry*(1-2*k), cx-rx*(1-2*k), cy-ry, cx, cy-ry)
	g.CubicTo(cx+rx*(1-2*k), cy-ry, cx+rx, cy-ry*(1-2*k), cx+rx, cy)
	g.Close()
}

// AddArc appends a circular arc of radius r about (cx,cy) from angle a0
// to a1 (radians), approximated with 16 quadratics, each spanning a
// sixteenth of the arc.
func (g *Geometry) AddArc(cx, cy, r, a0, a1 float32) {
	const segments = 16
	p0 := transform.Pt(cx+r*float32(math.Cos(float64(a0))), cy+r*float32(math.Sin(float64(a0))))
	if len(g.Types) == 0 || g.pen != p0 {
		g.MoveTo(p0.X, p0.Y)
	}
	da := (a1 - a0) / segments
	for i := 0; i < segments; i++ {
		a := a0 + float32(i)*da
		b := a + da
		mid := a + da/2
		pa := transform.Pt(cx+r*float32(math.Cos(float64(a))), cy+r*float32(math.Sin(float64(a))))
		pb := transform.Pt(cx+r*float32(math.Cos(float64(b))), cy+r*float32(math.Sin(float64(b))))
		pm := transform.Pt(cx+r*float32(math.Cos(float64(mid))), cy+r*float32(math.Sin(float64(mid))))
		ctrl := sub(mul(pm, 2), mul(add(pa, pb), 0.5))
		g.QuadTo(ctrl.X, ctrl.Y, pb.X, pb.Y)
	}
}

// Validate rolls back the trailing subpath when its molecule is a single
// point (zero width and zero height). A trailing line subpath, which has
// zero area but non-zero extent, is kept.
func (g *Geometry) Validate() {
	if len(g.Molecules) == 0 {
		return
	}
	last := g.Molecules[len(g.Molecules)-1]
	if last.Dx() != 0 || last.Dy() != 0 {
		return
	}
	// Roll back the trailing Move(+Close) opcodes and their points.
	i := len(g.Types)
	for i > 0 {
		op := g.Types[i-1]
		i--
		if op == Move {
			break
		}
	}
	removedPoints := 0
	for j := i; j < len(g.Types); j++ {
		removedPoints += g.Types[j].PointCount()
	}
	g.Types = g.Types[:i]
	g.Points = g.Points[:len(g.Points)-2*removedPoints]
	g.Molecules = g.Molecules[:len(g.Molecules)-1]
	if len(g.Molecules) > 0 {
		g.Bounds = transform.EmptyBounds
		for _, m := range g.Molecules {
			g.Bounds = g.Bounds.Extend(m)
		}
	} else {
		g.Bounds = transform.EmptyBounds
	}
}

// recomputeBounds folds Molecules into Bounds; called after a build pass
// completes.
func (g *Geometry) recomputeBounds() {
	b := transform.EmptyBounds
	for _, m := range g.Molecules {
		b = b.Extend(m)
	}
	g.Bounds = b
}

// Finish recomputes aggregate Bounds and validates the trailing subpath.
// Call once after the MoveTo/LineTo/.../Close sequence for a path is
// complete and before the Geometry is shared via a Scene.
func (g *Geometry) Finish() {
	g.Validate()
	g.recomputeBounds()
}

var hashSeed = maphash.MakeSeed()

// Hash returns the lazily-computed 64-bit content hash over the typed
// opcode and point streams.
func (g *Geometry) Hash() uint64 {
	if g.hashValid {
		return g.hashValue
	}
	var h maphash.Hash
	h.SetSeed(hashSeed)
	for _, t := range g.Types {
		h.WriteByte(byte(t))
	}
	for _, f := range g.Points {
		bits := math.Float32bits(f)
		h.WriteByte(byte(bits))
		h.WriteByte(byte(bits >> 8))
		h.WriteByte(byte(bits >> 16))
		h.WriteByte(byte(bits >> 24))
	}
	g.hashValue = h.Sum64()
	g.hashValid = true
	return g.hashValue
}

// UpperBound returns a conservative upper bound on the number of
// Edge/Outline primitives this path can produce at a transform with the
// given determinant. It is used both to pre-size the Allocator and to
// satisfy the `size >= bytes_used` assertion in renderList.
func (g *Geometry) UpperBound(det float32) int {
	if det < 0 {
		det = -det
	}
	if det < minUpperDet {
		det = minUpperDet
	}
	scale := float32(math.Sqrt(float64(det)))
	base := len(g.Types)
	curveBudget := g.CubicSums*3 + int(math.Ceil(math.Sqrt(float64(g.MaxDot))*float64(scale))) + 1
	return base + curveBudget
}

// MinUpper returns UpperBound(minUpperDet), computed once and cached on the
// Geometry.
func (g *Geometry) MinUpper() int {
	if !g.minUpperSet {
		g.minUpper = g.UpperBound(minUpperDet)
		g.minUpperSet = true
	}
	return g.minUpper
}

// HasMolecules reports whether the path has more than one subpath,
// matching the Scene cache entry field of the same name.
func (g *Geometry) HasMolecules() bool {
	return len(g.Molecules) > 1
}

// groupWidth is the number of Point16 vertices stored per p16 group: a
// chain of kFastSegments connected line segments has kFastSegments+1
// vertices.
const groupWidth = kFastSegments + 1

// BuildP16s lazily flattens the path under the identity transform into a
// Point16 replay stream, grouped by kFastSegments and padded with 0xFF,
// as used by the Scene cache on a hash miss.
// It is a no-op if the stream has already been built.
func (g *Geometry) BuildP16s() {
	if g.P16s != nil || g.Bounds.Empty() {
		return
	}
	b := g.Bounds
	dx, dy := b.Dx(), b.Dy()
	if dx <= 0 {
		dx = 1
	}
	if dy <= 0 {
		dy = 1
	}
	sx := float32(16383) / dx
	sy := float32(32767) / dy

	quantize := func(p transform.Point, flag CurveFlag) Point16 {
		qx := uint16(clampf((p.X-b.Lx)*sx, 0, 16383)) & p16XMask
		qy := uint16(clampf((p.Y-b.Ly)*sy, 0, 32767))
		return Point16{X: qx | (uint16(flag) << 14), Y: qy}
	}

	var cur []Point16
	flushSubpath := func() {
		for len(cur) > 0 {
			n := len(cur)
			if n > groupWidth {
				n = groupWidth
			}
			group := cur[:n]
			last := n == len(cur)
			for _, pt := range group {
				g.P16s = append(g.P16s, pt)
			}
			for i := n; i < groupWidth; i++ {
				g.P16s = append(g.P16s, Point16{X: p16Pad, Y: p16Pad})
			}
			g.P16Ends = append(g.P16Ends, last)
			cur = cur[n:]
		}
	}

	pi := 0
	var pen transform.Point
	for _, op := range g.Types {
		switch op {
		case Move:
			flushSubpath()
			pen = transform.Pt(g.Points[pi], g.Points[pi+1])
			pi += 2
			cur = append(cur, quantize(pen, FlagLine))
		case Line, Close:
			to := transform.Pt(g.Points[pi], g.Points[pi+1])
			pi += 2
			pen = to
			cur = append(cur, quantize(pen, FlagLine))
		case Quadratic:
			ctrl := transform.Pt(g.Points[pi], g.Points[pi+1])
			to := transform.Pt(g.Points[pi+2], g.Points[pi+3])
			pi += 4
			bisectQuad(pen, ctrl, to, 0, func(p transform.Point) {
				cur = append(cur, quantize(p, FlagQuad))
			})
			pen = to
		case Cubic:
			c0 := transform.Pt(g.Points[pi], g.Points[pi+1])
			c1 := transform.Pt(g.Points[pi+2], g.Points[pi+3])
			to := transform.Pt(g.Points[pi+4], g.Points[pi+5])
			pi += 6
			bisectCubic(pen, c0, c1, to, 0, func(p transform.Point) {
				cur = append(cur, quantize(p, FlagQuad))
			})
			pen = to
		}
	}
	flushSubpath()
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// bisectQuad recursively midpoint-bisects a quadratic until flat, emitting
// each interior and end vertex via emit.
func bisectQuad(p0, p1, p2 transform.Point, depth int, emit func(transform.Point)) {
	const maxDepth = 6
	if depth >= maxDepth || lenSq(sub(add(p0, p2), mul(p1, 2))) < 0.25 {
		emit(p2)
		return
	}
	p01 := lerp(p0, p1, 0.5)
	p12 := lerp(p1, p2, 0.5)
	mid := lerp(p01, p12, 0.5)
	bisectQuad(p0, p01, mid, depth+1, emit)
	bisectQuad(mid, p12, p2, depth+1, emit)
}

// bisectCubic recursively de Casteljau-bisects a cubic until flat.
func bisectCubic(p0, p1, p2, p3 transform.Point, depth int, emit func(transform.Point)) {
	const maxDepth = 6
	d1 := lenSq(sub(add(p0, mul(p2, 3)), add(mul(p1, 3), p3)))
	if depth >= maxDepth || d1 < 0.25 {
		emit(p3)
		return
	}
	p01 := lerp(p0, p1, 0.5)
	p12 := lerp(p1, p2, 0.5)
	p23 := lerp(p2, p3, 0.5)
	p012 := lerp(p01, p12, 0.5)
	p123 := lerp(p12, p23, 0.5)
	mid := lerp(p012, p123, 0.5)
	bisectCubic(p0, p01, p012, mid, depth+1, emit)
	bisectCubic(mid, p123, p23, p3, depth+1, emit)
}

func sub(a, b transform.Point) transform.Point  { return transform.Pt(a.X-b.X, a.Y-b.Y) }
func add(a, b transform.Point) transform.Point  { return transform.Pt(a.X+b.X, a.Y+b.Y) }
func mul(a transform.Point, s float32) transform.Point {
	return transform.Pt(a.X*s, a.Y*s)
}
func dot(a, b transform.Point) float32   { return a.X*b.X + a.Y*b.Y }
func cross(a, b transform.Point) float32 { return a.X*b.Y - a.Y*b.X }
func lenSq(a transform.Point) float32    { return a.X*a.X + a.Y*a.Y }
func lerp(a, b transform.Point, t float32) transform.Point {
	return transform.Pt(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t)
}
func quadAt(p0, p1, p2 transform.Point, t float32) transform.Point {
	ab := lerp(p0, p1, t)
	bc := lerp(p1, p2, t)
	return lerp(ab, bc, t)
}
