// SPDX-License-Identifier: Unlicense OR MIT

package render

import (
	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/internal/flatten"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

// BuildOutline walks g under ctm and returns one StrokeInstance per
// subdivided segment, ring-linked within its own subpath. It does not itself
// clip to a rectangle — the Outliner "only guarantees ring linkage and tight
// clip bounds"; the owning item's clip rectangle is recorded on the Outlines
// Edge by the caller instead of per segment.
func BuildOutline(g *geometry.Geometry, ctm transform.Transform, width float32, iz uint32) []StrokeInstance {
	rec := &outlineRecorder{iz: iz}
	opts := flatten.Options{
		Unclipped:   true,
		Polygon:     false,
		Mark:        true,
		QuadPolicy:  flatten.Bisect,
		CubicPolicy: flatten.Split,
		QuadScale:   1,
		CubicScale:  1,
	}
	flatten.Divide(g, ctm, opts, rec)
	rec.closeSubpath()
	return rec.out
}

// outlineRecorder is a flatten.Visitor that accumulates StrokeInstances
// per subpath, ring-linking each subpath's first and last record once
// its Sentinel arrives.
type outlineRecorder struct {
	iz         uint32
	out        []StrokeInstance
	subpathOff int
}

func (r *outlineRecorder) Segment(x0, y0, x1, y1 float32, curve flatten.CurveCode) {
	r.out = append(r.out, StrokeInstance{
		X0: x0, Y0: y0, X1: x1, Y1: y1,
		Curve: uint8(curve),
		Iz:    r.iz,
	})
}

func (r *outlineRecorder) Sentinel(closesSubpath bool) {
	r.closeSubpath()
}

// closeSubpath back-links the most recent subpath's first and last
// record with a negative offset equal to their distance, closing the
// ring.
func (r *outlineRecorder) closeSubpath() {
	n := len(r.out) - r.subpathOff
	if n <= 0 {
		r.subpathOff = len(r.out)
		return
	}
	first, last := r.subpathOff, len(r.out)-1
	for i := first; i <= last; i++ {
		prev, next := int32(1), int32(1)
		if i == first {
			prev = -int32(n - 1)
		}
		if i == last {
			next = -int32(n - 1)
		}
		r.out[i].Prev, r.out[i].Next = prev, next
	}
	r.subpathOff = len(r.out)
}
