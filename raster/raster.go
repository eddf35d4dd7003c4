// SPDX-License-Identifier: Unlicense OR MIT

// Package raster implements a CPU reference compositor for a render.Buffer:
// it walks the Buffer's table of contents and paints each region onto an
// image.RGBA with golang.org/x/image/vector and image/draw. It exists for
// smoke-testing and golden-image comparison, not as a production compositor
// — a GPU or SIMD consumer would instead replay the Edge/Point16/Segment
// tables directly at native resolution; here fill instances are painted as
// rectangles at the fat-row coverage already baked into
// InstancesTable/OpaquesTable. Molecule instances, whose shape lives only in
// the Point16 table, carry no cover and are not painted. Every stroke is
// approximated as a chain of per-segment capsules rather than a fully
// mitred outline (DESIGN.md records this as a deliberate simplification).
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/mindbrix/Rasterizer-sub000/colorant"
	"github.com/mindbrix/Rasterizer-sub000/render"
)

// Composite paints buf onto dst in table-of-contents order.
func Composite(buf *render.Buffer, dst *image.RGBA) {
	for _, e := range buf.Entries {
		switch e.Kind {
		case render.Instances:
			compositeInstances(buf, dst, buf.InstancesTable[e.Begin:e.End], false)
		case render.Opaques:
			compositeInstances(buf, dst, buf.OpaquesTable[e.Begin:e.End], true)
		case render.FastOutlines, render.QuadOutlines:
			compositeOutlines(buf, dst, e.Kind, e.Begin, e.End)
		}
	}
}

func colorFor(buf *render.Buffer, iz uint32) (colorant.Colorant, color.NRGBA) {
	pathIndex := int(iz & 0x00FFFFFF)
	if pathIndex < 0 || pathIndex >= len(buf.Colors) {
		return colorant.Colorant{}, color.NRGBA{}
	}
	c := buf.Colors[pathIndex]
	return c, color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// compositeInstances draws each Instance's destination rectangle at its
// accumulated coverage. Opaque instances (opaque==true, the table-of-
// contents Opaques kind) and SolidCell-tagged instances are known fully
// covered and are painted without blending; every other instance blends
// Cover/kCoverScale against dst, and one with zero cover (a Molecule
// instance among them) is skipped.
func compositeInstances(buf *render.Buffer, dst *image.RGBA, insts []render.Instance, opaque bool) {
	for _, inst := range insts {
		_, col := colorFor(buf, inst.Iz)
		r := image.Rect(int(inst.Quad.Lx), int(inst.Quad.Ly), int(inst.Quad.Ux), int(inst.Quad.Uy))
		r = r.Intersect(dst.Bounds())
		if r.Empty() {
			continue
		}
		if opaque || inst.Iz&render.TagSolidCell != 0 {
			draw.Draw(dst, r, image.NewUniform(col), image.Point{}, draw.Src)
			continue
		}
		cover := coverageAlpha(inst.Quad.Cover)
		if cover <= 0 {
			continue
		}
		src := image.NewUniform(scaleAlpha(col, cover))
		draw.Draw(dst, r, src, image.Point{}, draw.Over)
	}
}

// coverageAlpha turns a signed fixed-point winding cover value back into a
// [0,1] coverage fraction; kCoverScale/kFatRowHeight are render package
// internals, so the scale is reconstructed here from the known int16 range
// instead of importing an unexported constant.
func coverageAlpha(cover int16) float64 {
	const coverScale = 2047.9375
	a := math.Abs(float64(cover)) / coverScale
	if a > 1 {
		a = 1
	}
	return a
}

func scaleAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * a))
	return c
}

// compositeOutlines reconstructs each stroke's segment chain from
// StrokeInstances and paints it as a chain of per-segment capsule
// quads — a rectangle reaching half the width either side of the segment,
// with no end extension, filled with
// golang.org/x/image/vector.Rasterizer. This is not a mitred outline: at
// sharp joins the overlapping capsules simply double-paint, which is
// visually close enough for a reference compositor but not pixel-exact.
func compositeOutlines(buf *render.Buffer, dst *image.RGBA, kind render.Kind, begin, end int) {
	table := buf.FastOutlinesTable
	if kind == render.QuadOutlines {
		table = buf.QuadOutlinesTable
	}
	for _, edge := range table[begin:end] {
		i0, ic := int(edge.I0), int(edge.Ic)
		if i0 < 0 || i0+ic > len(buf.StrokeInstances) {
			continue
		}
		recs := buf.StrokeInstances[i0 : i0+ic]
		if len(recs) == 0 {
			continue
		}
		_, col := colorFor(buf, recs[0].Iz)
		pathIndex := int(recs[0].Iz & 0x00FFFFFF)
		width := float32(1)
		if pathIndex >= 0 && pathIndex < len(buf.Widths) {
			width = buf.Widths[pathIndex]
			if width < 0 {
				width = -width
			}
		}
		hw := width / 2
		for _, s := range recs {
			paintCapsule(dst, s.X0, s.Y0, s.X1, s.Y1, hw, col)
		}
	}
}

func paintCapsule(dst *image.RGBA, x0, y0, x1, y1, hw float32, col color.NRGBA) {
	dx, dy := x1-x0, y1-y0
	length := float32(math.Hypot(float64(dx), float64(dy)))
	var nx, ny float32 = 0, hw
	if length > 1e-6 {
		nx, ny = -dy/length*hw, dx/length*hw
	}
	minX := minOf(x0-hw, x0+hw, x1-hw, x1+hw, x0+nx, x0-nx, x1+nx, x1-nx)
	minY := minOf(y0-hw, y0+hw, y1-hw, y1+hw, y0+nx, y0-nx, y1+nx, y1-nx)
	maxX := maxOf(x0-hw, x0+hw, x1-hw, x1+hw, x0+nx, x0-nx, x1+nx, x1-nx)
	maxY := maxOf(y0-hw, y0+hw, y1-hw, y1+hw, y0+nx, y0-nx, y1+nx, y1-nx)
	bounds := image.Rect(int(math.Floor(float64(minX))), int(math.Floor(float64(minY))),
		int(math.Ceil(float64(maxX))), int(math.Ceil(float64(maxY)))).Intersect(dst.Bounds())
	if bounds.Empty() {
		return
	}
	ox, oy := bounds.Min.X, bounds.Min.Y
	vr := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	vr.MoveTo(x0+nx-float32(ox), y0+ny-float32(oy))
	vr.LineTo(x1+nx-float32(ox), y1+ny-float32(oy))
	vr.LineTo(x1-nx-float32(ox), y1-ny-float32(oy))
	vr.LineTo(x0-nx-float32(ox), y0-ny-float32(oy))
	vr.ClosePath()
	vr.Draw(dst, bounds, image.NewUniform(col), bounds.Min)
}

func minOf(vs ...float32) float32 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vs ...float32) float32 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
