// SPDX-License-Identifier: Unlicense OR MIT

package render

import (
	"math"

	"github.com/mindbrix/Rasterizer-sub000/colorant"
	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/internal/flatten"
	"github.com/mindbrix/Rasterizer-sub000/scenepkg"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

// Context is one shard's private pipeline state: an Allocator, a
// CurveIndexer, and private Segment/Edge/Opaque/Instance buffers. A
// Renderer owns K of these, one per worker.
type Context struct {
	Allocator *Allocator
	Indexer   *CurveIndexer

	Segments        []Segment
	Points16        []Point16
	StrokeInstances []StrokeInstance

	QuadEdgesTable     []Edge
	FastEdgesTable     []Edge
	FastOutlinesTable  []Edge
	QuadOutlinesTable  []Edge
	FastMoleculesTable []Edge
	QuadMoleculesTable []Edge

	OpaquesTable   []Instance
	InstancesTable []Instance
}

// NewContext returns an empty Context ready for DrawList.
func NewContext(sheetW, sheetH int) *Context {
	return &Context{
		Allocator: NewAllocator(sheetW, sheetH),
		Indexer:   NewCurveIndexer(transform.EmptyBounds),
	}
}

// Reset clears a Context's private buffers for reuse across renders.
func (c *Context) Reset() {
	c.Allocator.Reset()
	c.Segments = c.Segments[:0]
	c.Points16 = c.Points16[:0]
	c.StrokeInstances = c.StrokeInstances[:0]
	c.QuadEdgesTable = c.QuadEdgesTable[:0]
	c.FastEdgesTable = c.FastEdgesTable[:0]
	c.FastOutlinesTable = c.FastOutlinesTable[:0]
	c.QuadOutlinesTable = c.QuadOutlinesTable[:0]
	c.FastMoleculesTable = c.FastMoleculesTable[:0]
	c.QuadMoleculesTable = c.QuadMoleculesTable[:0]
	c.OpaquesTable = c.OpaquesTable[:0]
	c.InstancesTable = c.InstancesTable[:0]
}

// DrawList processes the contiguous range of ItemRefs in refs against list,
// the scene's own clip and CTM composed with the SceneList's scene-transform
// and root CTM, writing per-item header fields directly into buf at index
// base+local and accumulating this shard's private Segment / Blend / Opaque
// / Instance data.
func (c *Context) DrawList(list *scenepkg.SceneList, refs []scenepkg.ItemRef, base int, buf *Buffer) {
	for local, ref := range refs {
		iz := base + local
		s := list.Scenes[ref.Scene]
		i := ref.Item

		flags := s.DstFlags[i]
		if flags&scenepkg.Invisible != 0 {
			continue
		}

		fullCTM := list.CTM.Concat(list.CTMs[ref.Scene]).Concat(s.DstCTMs[i])
		clipCTM := list.CTM.Concat(list.CTMs[ref.Scene])

		g := s.Paths[i]
		if g.Bounds.Empty() {
			continue
		}
		unit := g.Bounds.Quad(fullCTM)
		dev := unit.UnitSquareBounds().Integral()
		clip := dev.Intersect(s.Clips[i].Integral()).Intersect(list.Clips[ref.Scene].Integral())
		if clip.Empty() {
			continue
		}

		buf.Colors[iz] = s.DstColors[i]
		buf.CTMs[iz] = fullCTM
		buf.ClipCTMs[iz] = clipCTM
		buf.Widths[iz] = s.DstWidths[i]
		buf.Bnds[iz] = g.Bounds

		width := s.DstWidths[i]
		entry := s.Cache.Entry(s.Ips[i])

		// pathIndex must equal iz: it's packed into each emitted
		// Instance/StrokeInstance's Iz so a downstream consumer can index
		// straight back into this same Buffer's header rows (Colors, CTMs,
		// ClipCTMs, Widths, Bnds).
		pathIndex := iz
		switch {
		case width != 0:
			c.outlineStroke(g, fullCTM, clip, width, flags, pathIndex)
		case fitsMolecule(clip) && entry.P16s != nil:
			c.emitMolecule(entry, fullCTM, clip, list.UseCurves, pathIndex)
		default:
			c.fillGeneral(g, fullCTM, clip, dev, flags, s.DstColors[i], clipCTM, pathIndex)
		}
	}
}

func fitsMolecule(clip transform.Bounds) bool {
	return clip.Dx() <= kMoleculeHeight && clip.Dy() <= kMoleculeHeight
}

// emitMolecule emits a Molecule Blend referencing the path's cached
// Point16 stream rather than re-subdividing it.
func (c *Context) emitMolecule(entry scenepkg.CacheEntry, ctm transform.Transform, clip transform.Bounds, useCurves bool, pathIndex int) {
	base := int32(len(c.Points16))
	for _, p := range entry.P16s {
		c.Points16 = append(c.Points16, Point16{X: p.X, Y: p.Y})
	}

	fast := useCurves && absf(ctm.Det()*entry.MaxDot) < 16
	w, h := int(clip.Dx()), int(clip.Dy())
	ox, oy, passIdx := c.Allocator.Alloc(ClassMolecule, w, h)

	edge := Edge{Ic: uint32(len(entry.P16s)), I0: uint16(base), Ux: uint16(ox)}
	inst := Instance{
		Iz: PackIz(pathIndex, TagMolecule),
		Quad: InstanceQuad{
			Lx: uint16(clip.Lx), Ly: uint16(clip.Ly), Ux: uint16(clip.Ux), Uy: uint16(clip.Uy),
			Ox: uint16(ox), Oy: uint16(oy), Base: base,
		},
	}
	if fast {
		c.FastMoleculesTable = append(c.FastMoleculesTable, edge)
		c.Allocator.Bump(passIdx, FastMolecules)
		c.Allocator.BumpEntry(passIdx, FastMolecules)
	} else {
		c.QuadMoleculesTable = append(c.QuadMoleculesTable, edge)
		c.Allocator.Bump(passIdx, QuadMolecules)
		c.Allocator.BumpEntry(passIdx, QuadMolecules)
	}
	c.InstancesTable = append(c.InstancesTable, inst)
	c.Allocator.BumpEntry(passIdx, Instances)
}

// outlineStroke runs the Outliner over a stroked item and records an
// Outlines Blend for its ring of per-segment instances.
func (c *Context) outlineStroke(g *geometry.Geometry, ctm transform.Transform, clip transform.Bounds, width float32, flags scenepkg.ItemFlags, pathIndex int) {
	det := ctm.Det()

	tag := TagOutlines
	if flags&scenepkg.RoundCap != 0 {
		tag |= TagRoundCap
	}
	if flags&scenepkg.SquareCap != 0 {
		tag |= TagSquareCap
	}

	base := int32(len(c.StrokeInstances))
	recs := BuildOutline(g, ctm, width, PackIz(pathIndex, tag))
	c.StrokeInstances = append(c.StrokeInstances, recs...)

	w, h := int(clip.Dx()), int(clip.Dy())
	_, _, passIdx := c.Allocator.Alloc(ClassFast, w, h)

	absDet := det
	if absDet < 0 {
		absDet = -absDet
	}
	bound := g.MinUpper()
	if absDet < 1e2 {
		bound = g.UpperBound(det)
	}
	edge := Edge{Ic: uint32(len(recs)), I0: uint16(base), Ux: uint16(clip.Ux)}
	if flags&scenepkg.JoinMiter != 0 || absDet >= 1e2 {
		c.QuadOutlinesTable = append(c.QuadOutlinesTable, edge)
		c.Allocator.BumpBy(passIdx, QuadOutlines, bound)
		c.Allocator.BumpEntry(passIdx, QuadOutlines)
	} else {
		c.FastOutlinesTable = append(c.FastOutlinesTable, edge)
		c.Allocator.BumpBy(passIdx, FastOutlines, bound)
		c.Allocator.BumpEntry(passIdx, FastOutlines)
	}
}

// fillGeneral subdivides g into the Context's Segment buffer, runs the
// CurveIndexer over it, and closes each fat row's merged spans into
// Edge/Opaque/SolidCell instances.
func (c *Context) fillGeneral(g *geometry.Geometry, ctm transform.Transform, clip, dev transform.Bounds, flags scenepkg.ItemFlags, color colorant.Colorant, clipCTM transform.Transform, pathIndex int) {
	c.Indexer.Reset(clip)

	opts := flatten.Options{
		Clip:        clip,
		Polygon:     true,
		QuadPolicy:  flatten.DivideQuad,
		CubicPolicy: flatten.Split,
		QuadScale:   1,
		CubicScale:  1,
	}
	flatten.Divide(g, ctm, opts, segmentRecorder{c, c.Indexer})

	evenOdd := flags&scenepkg.FillEvenOdd != 0
	hasCurve := hasCurveOpcode(g)
	edgeKind := FastEdges
	if hasCurve {
		edgeKind = QuadEdges
	}

	det := clipCTM.Det()
	if det < 0 {
		det = -det
	}
	eps := float32(1e-2)
	if det > 0 {
		e2 := float32(1e-2) / float32(math.Sqrt(float64(det)))
		if e2 < eps {
			eps = e2
		}
	}
	opaqueColor := color.Opaque()

	for li := range c.Indexer.Rows {
		ir := c.Indexer.RowBase + li
		row := &c.Indexer.Rows[li]
		if len(row.Indices) == 0 {
			continue
		}
		row.Sort()
		c.closeRow(ir, row, clip, dev, evenOdd, edgeKind, opaqueColor, eps, pathIndex)
	}
}

// hasCurveOpcode reports whether g contains a Quadratic or Cubic opcode,
// used to pick the Fast/Quad Edge table.
func hasCurveOpcode(g *geometry.Geometry) bool {
	for _, op := range g.Types {
		if op == geometry.Quadratic || op == geometry.Cubic {
			return true
		}
	}
	return false
}

// segmentRecorder adapts flatten.Visitor so every clipped line segment
// is both appended to the Context's Segment buffer and fed to the
// CurveIndexer for coverage binning.
type segmentRecorder struct {
	c  *Context
	ci *CurveIndexer
}

func (r segmentRecorder) Segment(x0, y0, x1, y1 float32, curve flatten.CurveCode) {
	r.c.Segments = append(r.c.Segments, Segment{X0: x0, Y0: y0, X1: x1, Y1: y1, Curve: uint8(curve)})
	r.ci.Segment(x0, y0, x1, y1, curve)
}

func (r segmentRecorder) Sentinel(closesSubpath bool) { r.ci.Sentinel(closesSubpath) }

// closeRow walks one fat row's sorted indices, merging runs of overlapping
// spans and closing each run into an Edge plus its Blend/Opaque/SolidCell
// instances.
func (c *Context) closeRow(ir int, row *Row, clip, dev transform.Bounds, evenOdd bool, edgeKind Kind, opaqueColor bool, eps float32, pathIndex int) {
	n := len(row.Indices)
	ly := float32(ir) * kFatRowHeight
	uy := ly + kFatRowHeight

	begin := 0
	first := row.UxCovers[row.Indices[0].I]
	curLx := float32(row.Indices[0].X)
	curUx := float32(first.Ux)
	winding := normalizedWinding(first.Cover)

	closeMerge := func(endIdx int, nextX float32) {
		w, h := int(curUx-curLx), int(uy-ly)
		if w < 1 {
			w = 1
		}
		ox, oy, passIdx := c.Allocator.Alloc(ClassStrip, w, h)
		_ = ox
		_ = oy
		ic := uint32(begin)
		if row.UxCovers[row.Indices[begin].I].CurveBit {
			ic |= EdgeA0
		}
		if row.UxCovers[row.Indices[endIdx-1].I].CurveBit {
			ic |= EdgeA1
		}
		edge := Edge{Ic: ic, I0: uint16(endIdx), Ux: uint16(curUx)}
		switch edgeKind {
		case QuadEdges:
			c.QuadEdgesTable = append(c.QuadEdgesTable, edge)
			c.Allocator.Bump(passIdx, QuadEdges)
			c.Allocator.BumpEntry(passIdx, QuadEdges)
		default:
			c.FastEdgesTable = append(c.FastEdgesTable, edge)
			c.Allocator.Bump(passIdx, FastEdges)
			c.Allocator.BumpEntry(passIdx, FastEdges)
		}
		tag := TagEdge
		if evenOdd {
			tag |= TagEvenOdd
		}
		c.InstancesTable = append(c.InstancesTable, Instance{
			Iz: PackIz(pathIndex, tag),
			Quad: InstanceQuad{
				Lx: clampU16(curLx), Ly: clampU16(ly), Ux: clampU16(curUx), Uy: clampU16(uy),
				Ox: uint16(ox), Oy: uint16(oy), Cover: int16(winding * kCoverScale),
			},
		})
		c.Allocator.BumpEntry(passIdx, Instances)

		rounded := roundWinding(winding, evenOdd)
		if isNonzero(rounded, evenOdd) && nextX > curUx {
			solidTag := tag | TagSolidCell
			sw := int(nextX - curUx)
			if sw < 1 {
				sw = 1
			}
			sox, soy, spass := c.Allocator.Alloc(ClassStrip, sw, h)
			inst := Instance{
				Iz: PackIz(pathIndex, solidTag),
				Quad: InstanceQuad{
					Lx: clampU16(curUx), Ly: clampU16(ly), Ux: clampU16(nextX), Uy: clampU16(uy),
					Ox: uint16(sox), Oy: uint16(soy),
				},
			}
			if opaqueColor && isFullyClipped(clip, dev, eps) {
				c.OpaquesTable = append(c.OpaquesTable, inst)
				c.Allocator.Bump(spass, Opaques)
				c.Allocator.BumpEntry(spass, Opaques)
			} else {
				c.InstancesTable = append(c.InstancesTable, inst)
				c.Allocator.BumpEntry(spass, Instances)
			}
		}
	}

	for k := 1; k < n; k++ {
		rec := row.Indices[k]
		uc := row.UxCovers[rec.I]
		nx := float32(rec.X)
		if nx > curUx && settled(winding, evenOdd, windingEpsilon) {
			closeMerge(k, nx)
			begin = k
			curLx = nx
			curUx = float32(uc.Ux)
			winding = normalizedWinding(uc.Cover)
			continue
		}
		if float32(uc.Ux) > curUx {
			curUx = float32(uc.Ux)
		}
		winding += normalizedWinding(uc.Cover)
	}
	closeMerge(n, clip.Ux)
}

func normalizedWinding(cover float32) float32 {
	return cover / (kCoverScale * kFatRowHeight)
}

func settled(w float32, evenOdd bool, eps float32) bool {
	if evenOdd {
		nearest := float32(math.Round(float64(w*2))) / 2
		return absf(w-nearest) <= eps
	}
	nearest := float32(math.Round(float64(w)))
	return absf(w-nearest) <= eps
}

func roundWinding(w float32, evenOdd bool) float32 {
	if evenOdd {
		return float32(math.Round(float64(w*2))) / 2
	}
	return float32(math.Round(float64(w)))
}

func isNonzero(rounded float32, evenOdd bool) bool {
	if evenOdd {
		return math.Mod(float64(rounded), 2) != 0
	}
	return rounded != 0
}

// isFullyClipped reports whether dev, the item's own unclipped device
// bounds, lies within eps of clip, the device-space rectangle actually
// drawn. eps is a unit-square-relative tolerance (computed from the clip
// transform's determinant), so it is scaled here by dev's own extent before
// comparing device-space coordinates — the axis-aligned equivalent of the
// original's "transformed unit clip lies strictly inside [-eps,1+eps]^2"
// test. When clip falls short of dev on any side, a clip rectangle is
// genuinely cutting the item there, and the solid cell must not be marked
// Opaque.
func isFullyClipped(clip, dev transform.Bounds, eps float32) bool {
	tolX := eps * dev.Dx()
	tolY := eps * dev.Dy()
	return clip.Lx <= dev.Lx+tolX && clip.Ux >= dev.Ux-tolX &&
		clip.Ly <= dev.Ly+tolY && clip.Uy >= dev.Uy-tolY
}
