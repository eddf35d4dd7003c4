// SPDX-License-Identifier: Unlicense OR MIT

package render

import (
	"sort"

	"github.com/mindbrix/Rasterizer-sub000/internal/flatten"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

const (
	// kFatRowHeight is kfh, the fat-row binning unit.
	kFatRowHeight = 16
	// kFastHeight is the Allocator's "fast" height class.
	kFastHeight = 32
	// kMoleculeHeight is fixed at 64.
	kMoleculeHeight = 64
	// kCoverScale is the fixed-point coverage scale chosen to fit a
	// signed 16-bit cover value.
	kCoverScale = 2047.9375
	// windingEpsilon is the "settled" tolerance of the instance writer's
	// span merge; the hit-test winding walk counts whole crossings and does
	// not use it.
	windingEpsilon = 1e-3
)

// indexRec is one {x,i} record in a fat row's Indices list.
type indexRec struct {
	X uint16
	I uint16
}

// uxCoverRec is one {ux(+curve flag), cover, seg-index} triple.
type uxCoverRec struct {
	Ux       uint16
	CurveBit bool
	Cover    float32
	SegIndex int32
}

// Row holds one fat row's accumulated index and coverage records.
type Row struct {
	Indices  []indexRec
	UxCovers []uxCoverRec
}

func (r *Row) reset() {
	r.Indices = r.Indices[:0]
	r.UxCovers = r.UxCovers[:0]
}

// CurveIndexer buckets a clipped, subdivided segment stream into fat
// rows and accumulates signed coverage per row. It
// implements flatten.Visitor directly so a Context can feed it straight
// from flatten.Divide.
type CurveIndexer struct {
	Clip    transform.Bounds
	RowBase int // fat-row index of Clip.Ly
	Rows    []Row

	segIndex int32
}

// NewCurveIndexer returns a CurveIndexer sized to clip's fat-row range.
func NewCurveIndexer(clip transform.Bounds) *CurveIndexer {
	ci := &CurveIndexer{Clip: clip}
	ci.Reset(clip)
	return ci
}

// Reset rebinds the indexer to a new clip rectangle, reusing its Row
// buffers across calls for an O(1) reset instead of reallocating.
func (ci *CurveIndexer) Reset(clip transform.Bounds) {
	ci.Clip = clip
	ci.segIndex = 0
	ci.RowBase = rowOf(clip.Ly)
	n := rowOf(clip.Uy) - ci.RowBase + 1
	if n < 0 {
		n = 0
	}
	if cap(ci.Rows) >= n {
		ci.Rows = ci.Rows[:n]
		for i := range ci.Rows {
			ci.Rows[i].reset()
		}
	} else {
		ci.Rows = make([]Row, n)
	}
}

func rowOf(y float32) int {
	if y < 0 {
		return int(y/kFatRowHeight) - 1
	}
	return int(y / kFatRowHeight)
}

func (ci *CurveIndexer) rowLocal(ir int) int { return ir - ci.RowBase }

func (ci *CurveIndexer) row(ir int) *Row {
	li := ci.rowLocal(ir)
	if li < 0 || li >= len(ci.Rows) {
		return nil
	}
	return &ci.Rows[li]
}

// Segment implements flatten.Visitor: it bins one line segment's
// coverage contribution across every fat row it spans.
func (ci *CurveIndexer) Segment(x0, y0, x1, y1 float32, curve flatten.CurveCode) {
	idx := ci.segIndex
	ci.segIndex++

	if y0 == y1 {
		if curve != flatten.CurveNone {
			ci.emit(rowOf(y0), minf(x0, x1), maxf(x0, x1), 0, curve, idx)
		}
		return
	}

	yLo, yHi := y0, y1
	xLo, xHi := x0, x1
	if yLo > yHi {
		yLo, yHi = yHi, yLo
		xLo, xHi = xHi, xLo
	}
	irLo, irHi := rowOf(yLo), rowOf(yHi)
	totalDy := y1 - y0

	for ir := irLo; ir <= irHi; ir++ {
		rowTop := float32(ir) * kFatRowHeight
		rowBot := rowTop + kFatRowHeight
		suby0 := maxf(yLo, rowTop)
		suby1 := minf(yHi, rowBot)
		if suby1 <= suby0 {
			continue
		}
		xAt := func(y float32) float32 {
			t := (y - yLo) / (yHi - yLo)
			return xLo + (xHi-xLo)*t
		}
		xa, xb := xAt(suby0), xAt(suby1)
		lx, ux := minf(xa, xb), maxf(xa, xb)
		// Portion of the segment's total signed dy falling in this row,
		// preserving the original (unsorted) orientation's sign.
		cover := signf(totalDy) * (suby1 - suby0) * kCoverScale
		ci.emitCover(ir, lx, ux, cover, curve, idx)
	}
}

// Sentinel implements flatten.Visitor; the instance writer does not
// need a distinguished sentinel record because each Context item flush
// is already scoped to one path (see Context.fillGeneral), so no
// cross-subpath bookkeeping is required here.
func (ci *CurveIndexer) Sentinel(closesSubpath bool) {}

func (ci *CurveIndexer) emit(ir int, lx, ux float32, cover float32, curve flatten.CurveCode, segIdx int32) {
	ci.emitCover(ir, lx, ux, cover, curve, segIdx)
}

func (ci *CurveIndexer) emitCover(ir int, lx, ux float32, cover float32, curve flatten.CurveCode, segIdx int32) {
	r := ci.row(ir)
	if r == nil {
		return
	}
	i := len(r.UxCovers)
	r.UxCovers = append(r.UxCovers, uxCoverRec{
		Ux:       clampU16(ux),
		CurveBit: curve != flatten.CurveNone,
		Cover:    cover,
		SegIndex: segIdx,
	})
	r.Indices = append(r.Indices, indexRec{X: clampU16(lx), I: uint16(i)})
}

func clampU16(v float32) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
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
func absf(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}
func signf(a float32) float32 {
	if a < 0 {
		return -1
	}
	return 1
}

// Sort orders a fat row's Indices by x. A plain sort.Slice is used
// throughout rather than switching to a radix pass past some row-width
// threshold: the rasterizer's row widths are small enough in practice that
// a dedicated radix pass is not worth the extra code path.
func (r *Row) Sort() {
	sort.Slice(r.Indices, func(i, j int) bool { return r.Indices[i].X < r.Indices[j].X })
}
