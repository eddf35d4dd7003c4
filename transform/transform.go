// SPDX-License-Identifier: Unlicense OR MIT

// Package transform provides the affine transform and axis-aligned
// bounding box primitives shared by the rasterizer packages.
package transform

import "math"

// Transform is a 2D affine transform mapping (x,y) to
// (a*x+c*y+tx, b*x+d*y+ty).
type Transform struct {
	A, B, C, D, TX, TY float32
}

// Identity is the identity transform.
var Identity = Transform{A: 1, D: 1}

// Point is a 2D coordinate.
type Point struct {
	X, Y float32
}

// Pt is a convenience constructor for Point.
func Pt(x, y float32) Point { return Point{X: x, Y: y} }

// Apply maps p through t.
func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y + t.TX,
		Y: t.B*p.X + t.D*p.Y + t.TY,
	}
}

// ApplyVec maps a vector (ignoring translation) through t.
func (t Transform) ApplyVec(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y,
		Y: t.B*p.X + t.D*p.Y,
	}
}

// Concat returns the transform equivalent to applying t first, then o:
// for all p, o.Concat(t).Apply(p) == o.Apply(t.Apply(p)).
func (o Transform) Concat(t Transform) Transform {
	return Transform{
		A:  o.A*t.A + o.C*t.B,
		B:  o.B*t.A + o.D*t.B,
		C:  o.A*t.C + o.C*t.D,
		D:  o.B*t.C + o.D*t.D,
		TX: o.A*t.TX + o.C*t.TY + o.TX,
		TY: o.B*t.TX + o.D*t.TY + o.TY,
	}
}

// Det returns the determinant of the linear part of t.
func (t Transform) Det() float32 {
	return t.A*t.D - t.B*t.C
}

// Invert returns the inverse of t. If t is singular (Det==0), Invert returns
// t unchanged: downstream clipping rejects the item via its now-degenerate
// clip bounds instead of the inverter failing.
func (t Transform) Invert() Transform {
	det := t.Det()
	if det == 0 {
		return t
	}
	inv := 1 / det
	a := t.D * inv
	b := -t.B * inv
	c := -t.C * inv
	d := t.A * inv
	return Transform{
		A: a, B: b, C: c, D: d,
		TX: -(a*t.TX + c*t.TY),
		TY: -(b*t.TX + d*t.TY),
	}
}

// Scale returns the geometric mean of the singular values of t's linear
// part: a single number approximating "how much t magnifies lengths" (the
// square root of its area factor), used to drive curvature-aware
// subdivision budgets.
func (t Transform) Scale() float32 {
	det := t.Det()
	if det < 0 {
		det = -det
	}
	return float32(math.Sqrt(float64(det)))
}

// Preconcat returns t applied about the pivot (ax,ay): translate(-pivot)
// then t then translate(pivot).
func Preconcat(t Transform, ax, ay float32) Transform {
	pre := Transform{A: 1, D: 1, TX: -ax, TY: -ay}
	post := Transform{A: 1, D: 1, TX: ax, TY: ay}
	return post.Concat(t).Concat(pre)
}

// Bounds is an axis-aligned bounding box (lx,ly,ux,uy). Bounds is empty
// iff Lx>Ux || Ly>Uy.
type Bounds struct {
	Lx, Ly, Ux, Uy float32
}

// EmptyBounds is the canonical empty box.
var EmptyBounds = Bounds{Lx: 1, Ly: 1, Ux: 0, Uy: 0}

// Empty reports whether b represents no area.
func (b Bounds) Empty() bool {
	return b.Lx > b.Ux || b.Ly > b.Uy
}

// Dx returns the width of b.
func (b Bounds) Dx() float32 { return b.Ux - b.Lx }

// Dy returns the height of b.
func (b Bounds) Dy() float32 { return b.Uy - b.Ly }

// Inset insets b by dx horizontally and dy vertically (negative grows).
func (b Bounds) Inset(dx, dy float32) Bounds {
	if b.Empty() {
		return b
	}
	r := Bounds{Lx: b.Lx + dx, Ly: b.Ly + dy, Ux: b.Ux - dx, Uy: b.Uy - dy}
	if r.Lx > r.Ux {
		mid := (r.Lx + r.Ux) / 2
		r.Lx, r.Ux = mid, mid
	}
	if r.Ly > r.Uy {
		mid := (r.Ly + r.Uy) / 2
		r.Ly, r.Uy = mid, mid
	}
	return r
}

// Intersect returns the intersection of b and o.
func (b Bounds) Intersect(o Bounds) Bounds {
	r := Bounds{
		Lx: maxf(b.Lx, o.Lx),
		Ly: maxf(b.Ly, o.Ly),
		Ux: minf(b.Ux, o.Ux),
		Uy: minf(b.Uy, o.Uy),
	}
	return r
}

// Contains reports whether p lies within b.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Lx && p.X <= b.Ux && p.Y >= b.Ly && p.Y <= b.Uy
}

// Extend returns the union of b and o. The union of an empty box with o
// is o.
func (b Bounds) Extend(o Bounds) Bounds {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return Bounds{
		Lx: minf(b.Lx, o.Lx),
		Ly: minf(b.Ly, o.Ly),
		Ux: maxf(b.Ux, o.Ux),
		Uy: maxf(b.Uy, o.Uy),
	}
}

// Integral returns the smallest integer-aligned box containing b.
func (b Bounds) Integral() Bounds {
	if b.Empty() {
		return b
	}
	return Bounds{
		Lx: float32(math.Floor(float64(b.Lx))),
		Ly: float32(math.Floor(float64(b.Ly))),
		Ux: float32(math.Ceil(float64(b.Ux))),
		Uy: float32(math.Ceil(float64(b.Uy))),
	}
}

// Quad returns the transform mapping the unit square [0,1]x[0,1] onto the
// oriented box m applied to b.
func (b Bounds) Quad(m Transform) Transform {
	unit := Transform{A: b.Dx(), D: b.Dy(), TX: b.Lx, TY: b.Ly}
	return m.Concat(unit)
}

// Unit is the inverse of Quad: it maps m.Quad(b)'s image back to the unit
// square.
func (b Bounds) Unit(m Transform) Transform {
	return b.Quad(m).Invert()
}

// UnitSquareBounds returns the axis-aligned envelope of t applied to the
// four corners of the unit square [0,1]x[0,1] — the device AABB of a
// quad transform produced by Bounds.Quad.
func (t Transform) UnitSquareBounds() Bounds {
	p00 := t.Apply(Point{})
	p10 := t.Apply(Point{X: 1})
	p01 := t.Apply(Point{Y: 1})
	p11 := t.Apply(Point{X: 1, Y: 1})
	b := Bounds{Lx: p00.X, Ly: p00.Y, Ux: p00.X, Uy: p00.Y}
	for _, p := range [...]Point{p10, p01, p11} {
		b = b.Extend(Bounds{Lx: p.X, Ly: p.Y, Ux: p.X, Uy: p.Y})
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
