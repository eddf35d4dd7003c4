// SPDX-License-Identifier: Unlicense OR MIT

package render

import (
	"testing"

	"github.com/mindbrix/Rasterizer-sub000/colorant"
	"github.com/mindbrix/Rasterizer-sub000/scenepkg"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

func TestIndicesForPointHitsTopmostItem(t *testing.T) {
	scene := scenepkg.NewScene()
	scene.AddPath(rectGeometry(100, 100), transform.Identity, colorant.RGBA(255, 0, 0, 255), 0, 0, transform.Bounds{})
	scene.AddPath(rectGeometry(50, 50), transform.Identity, colorant.RGBA(0, 255, 0, 255), 0, 0, transform.Bounds{})

	list := scenepkg.NewSceneList()
	list.Add(scene, transform.Identity, transform.Bounds{Lx: -1000, Ly: -1000, Ux: 1000, Uy: 1000})

	si, ii := IndicesForPoint(list, 10, 10)
	if si != 0 || ii != 1 {
		t.Fatalf("IndicesForPoint = (%d,%d), want (0,1) — the topmost (last-added) item", si, ii)
	}
}

func TestIndicesForPointMissReturnsNoHit(t *testing.T) {
	scene := scenepkg.NewScene()
	scene.AddPath(rectGeometry(10, 10), transform.Identity, colorant.RGBA(255, 0, 0, 255), 0, 0, transform.Bounds{})

	list := scenepkg.NewSceneList()
	list.Add(scene, transform.Identity, transform.Bounds{Lx: -1000, Ly: -1000, Ux: 1000, Uy: 1000})

	si, ii := IndicesForPoint(list, 500, 500)
	if si != NoHit || ii != NoHit {
		t.Fatalf("IndicesForPoint = (%d,%d), want (NoHit,NoHit)", si, ii)
	}
}

func TestIndicesForPointRespectsStrokeHalfWidth(t *testing.T) {
	scene := scenepkg.NewScene()
	// A thin but non-degenerate rectangle: its top edge (y=0) is the
	// stroked path under test.
	g := rectGeometry(100, 1)
	scene.AddPath(g, transform.Identity, colorant.RGBA(0, 0, 255, 255), 10, 0, transform.Bounds{})

	list := scenepkg.NewSceneList()
	list.Add(scene, transform.Identity, transform.Bounds{Lx: -1000, Ly: -1000, Ux: 1000, Uy: 1000})

	// Close to the rectangle's top edge: within the stroke's half-width
	// of 5, should hit.
	if si, _ := IndicesForPoint(list, 5, 3); si != 0 {
		t.Fatalf("point within stroke half-width did not hit (si=%d)", si)
	}
	// Far from the path: should miss regardless of stroke width.
	if si, _ := IndicesForPoint(list, 5, 50); si != NoHit {
		t.Fatalf("point far outside stroke half-width hit (si=%d)", si)
	}
}

func TestHitStrokeClosedSubpathSeamIsInteriorJoint(t *testing.T) {
	scene := scenepkg.NewScene()
	// AddBounds closes the rectangle: its last LineTo back to (0,0) and
	// the Close both land on the same true corner, an interior joint, not
	// a stroke end — flat caps must not exclude it, and square caps must
	// not flare it outward.
	g := rectGeometry(20, 20)
	scene.AddPath(g, transform.Identity, colorant.RGBA(0, 0, 255, 255), 6, 0, transform.Bounds{})

	list := scenepkg.NewSceneList()
	list.Add(scene, transform.Identity, transform.Bounds{Lx: -1000, Ly: -1000, Ux: 1000, Uy: 1000})

	// Just outside the (0,0) corner along the diagonal, within the
	// stroke's half-width of 3: a flat-capped open end would wrongly
	// exclude this as "past the endpoint".
	if si, _ := IndicesForPoint(list, -1, -1); si != 0 {
		t.Fatalf("point near closed-subpath seam did not hit (si=%d)", si)
	}
	// Further out along the same diagonal, outside the half-width: a
	// square cap wrongly treating the seam as an open end would flare the
	// corner outward and report a hit here.
	if si, _ := IndicesForPoint(list, -4, -4); si != NoHit {
		t.Fatalf("point beyond stroke half-width past closed-subpath seam hit (si=%d)", si)
	}
}
