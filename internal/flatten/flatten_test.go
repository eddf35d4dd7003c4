// SPDX-License-Identifier: Unlicense OR MIT

package flatten

import (
	"testing"

	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

type recorder struct {
	segs      [][4]float32
	sentinels []bool
}

func (r *recorder) Segment(x0, y0, x1, y1 float32, curve CurveCode) {
	r.segs = append(r.segs, [4]float32{x0, y0, x1, y1})
}

func (r *recorder) Sentinel(closesSubpath bool) {
	r.sentinels = append(r.sentinels, closesSubpath)
}

func square() *geometry.Geometry {
	g := geometry.New()
	g.MoveTo(0, 0)
	g.LineTo(10, 0)
	g.LineTo(10, 10)
	g.LineTo(0, 10)
	g.Close()
	return g
}

func TestDivideUnclippedEmitsAllEdges(t *testing.T) {
	g := square()
	var r recorder
	Divide(g, transform.Identity, Options{Unclipped: true, Mark: true}, &r)
	if len(r.segs) != 4 {
		t.Fatalf("got %d segments, want 4: %v", len(r.segs), r.segs)
	}
	if len(r.sentinels) != 1 || !r.sentinels[0] {
		t.Fatalf("sentinels = %v, want a single closed subpath", r.sentinels)
	}
}

func TestDivideClipsToRectangle(t *testing.T) {
	g := square()
	var r recorder
	clip := transform.Bounds{Lx: 5, Ly: -5, Ux: 15, Uy: 15}
	Divide(g, transform.Identity, Options{Clip: clip}, &r)
	for _, s := range r.segs {
		for _, x := range []float32{s[0], s[2]} {
			if x < clip.Lx-1e-3 || x > clip.Ux+1e-3 {
				t.Fatalf("segment x outside clip: %v (clip %+v)", s, clip)
			}
		}
	}
	if len(r.segs) == 0 {
		t.Fatalf("expected at least one clipped segment")
	}
}

func TestDivideQuadraticProducesConnectedPolyline(t *testing.T) {
	g := geometry.New()
	g.MoveTo(0, 0)
	g.QuadTo(5, 10, 10, 0)
	g.Close()
	var r recorder
	Divide(g, transform.Identity, Options{Unclipped: true, QuadPolicy: Bisect}, &r)
	if len(r.segs) < 2 {
		t.Fatalf("got %d segments, want at least 2 for a subdivided hump", len(r.segs))
	}
	for i := 1; i < len(r.segs); i++ {
		prevEnd := [2]float32{r.segs[i-1][2], r.segs[i-1][3]}
		curStart := [2]float32{r.segs[i][0], r.segs[i][1]}
		if prevEnd != curStart {
			t.Fatalf("segment %d does not connect to segment %d: %v -> %v", i-1, i, prevEnd, curStart)
		}
	}
}

func TestSplitMonotoneNonMonotoneSplitsInTwo(t *testing.T) {
	// A "hump": p0 and p2 at y=0, p1 (control) at y=10 — dy/dt changes sign.
	p0 := transform.Pt(0, 0)
	p1 := transform.Pt(5, 10)
	p2 := transform.Pt(10, 0)
	pieces := SplitMonotone(p0, p1, p2)
	if len(pieces) != 2 {
		t.Fatalf("got %d pieces, want 2", len(pieces))
	}
	if pieces[0][2] != pieces[1][0] {
		t.Fatalf("pieces do not share a midpoint: %v vs %v", pieces[0][2], pieces[1][0])
	}
}

func TestSplitMonotoneAlreadyMonotoneIsUnchanged(t *testing.T) {
	p0 := transform.Pt(0, 0)
	p1 := transform.Pt(5, 5)
	p2 := transform.Pt(10, 10)
	pieces := SplitMonotone(p0, p1, p2)
	if len(pieces) != 1 {
		t.Fatalf("got %d pieces, want 1 for a monotone curve", len(pieces))
	}
	if pieces[0][0] != p0 || pieces[0][1] != p1 || pieces[0][2] != p2 {
		t.Fatalf("monotone curve was altered: %v", pieces[0])
	}
}

func TestSutherlandHodgmanClipsTriangleToWindow(t *testing.T) {
	tri := []transform.Point{
		transform.Pt(-5, 5),
		transform.Pt(15, 5),
		transform.Pt(5, -10),
		transform.Pt(-5, 5),
	}
	clip := transform.Bounds{Lx: 0, Ly: 0, Ux: 10, Uy: 10}
	out := sutherlandHodgman(tri, clip)
	if len(out) == 0 {
		t.Fatalf("expected a non-empty clipped polygon")
	}
	for _, p := range out {
		if p.X < clip.Lx-1e-3 || p.X > clip.Ux+1e-3 || p.Y < clip.Ly-1e-3 || p.Y > clip.Uy+1e-3 {
			t.Fatalf("clipped point %v outside clip %+v", p, clip)
		}
	}
}
