// SPDX-License-Identifier: Unlicense OR MIT

package render

import (
	"testing"

	"github.com/mindbrix/Rasterizer-sub000/colorant"
	"github.com/mindbrix/Rasterizer-sub000/geometry"
	"github.com/mindbrix/Rasterizer-sub000/scenepkg"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

func rectGeometry(w, h float32) *geometry.Geometry {
	g := geometry.New()
	g.AddBounds(transform.Bounds{Lx: 0, Ly: 0, Ux: w, Uy: h})
	return g
}

// pathIndexOf extracts the low 24 bits of an Instance/StrokeInstance Iz.
func pathIndexOf(iz uint32) int {
	return int(iz & 0x00FFFFFF)
}

func TestRenderFillInstancesReferenceTheirOwnHeaderRow(t *testing.T) {
	canvas := transform.Bounds{Lx: 0, Ly: 0, Ux: 200, Uy: 200}
	scene := scenepkg.NewScene()
	red := colorant.RGBA(255, 0, 0, 255)
	blue := colorant.RGBA(0, 0, 255, 255)
	scene.AddPath(rectGeometry(40, 40), transform.Identity, red, 0, 0, canvas)
	scene.AddPath(rectGeometry(40, 40), transform.Transform{A: 1, D: 1, TX: 100}, blue, 0, 0, canvas)

	list := scenepkg.NewSceneList()
	list.Add(scene, transform.Identity, canvas)

	buf := Render(list, Options{Width: 200, Height: 200, Shards: 2})

	if len(buf.InstancesTable) == 0 && len(buf.OpaquesTable) == 0 {
		t.Fatalf("expected at least one fill instance to be emitted")
	}
	checkInstance := func(inst Instance) {
		idx := pathIndexOf(inst.Iz)
		if idx < 0 || idx >= len(buf.Colors) {
			t.Fatalf("Instance.Iz path index %d out of range [0,%d)", idx, len(buf.Colors))
		}
		got := buf.Colors[idx]
		if got != red && got != blue {
			t.Fatalf("Instance at header row %d has unexpected color %+v (want red or blue)", idx, got)
		}
	}
	for _, inst := range buf.InstancesTable {
		checkInstance(inst)
	}
	for _, inst := range buf.OpaquesTable {
		checkInstance(inst)
	}
}

func TestRenderStrokeInstancesReferenceTheirOwnHeaderRow(t *testing.T) {
	scene := scenepkg.NewScene()
	g := geometry.New()
	g.MoveTo(0, 0)
	g.LineTo(50, 50)
	green := colorant.RGBA(0, 255, 0, 255)
	scene.AddPath(g, transform.Identity, green, 4, 0, transform.Bounds{})

	list := scenepkg.NewSceneList()
	list.Add(scene, transform.Identity, transform.Bounds{})

	buf := Render(list, Options{Width: 100, Height: 100, Shards: 1})

	if len(buf.StrokeInstances) == 0 {
		t.Fatalf("expected at least one stroke instance to be emitted")
	}
	for _, si := range buf.StrokeInstances {
		idx := pathIndexOf(si.Iz)
		if idx < 0 || idx >= len(buf.Widths) {
			t.Fatalf("StrokeInstance.Iz path index %d out of range [0,%d)", idx, len(buf.Widths))
		}
		if buf.Widths[idx] != 4 {
			t.Fatalf("StrokeInstance at header row %d has width %v, want 4", idx, buf.Widths[idx])
		}
		if buf.Colors[idx] != green {
			t.Fatalf("StrokeInstance at header row %d has color %+v, want %+v", idx, buf.Colors[idx], green)
		}
	}
}

func TestRenderSplitsEntriesAtPassBoundaries(t *testing.T) {
	canvas := transform.Bounds{Lx: 0, Ly: 0, Ux: 200, Uy: 200}
	scene := scenepkg.NewScene()
	color := colorant.RGBA(0, 128, 255, 128)
	// Each fill is 70 px wide, too wide for the 64 px molecule path, so it
	// goes through fillGeneral and emits FastEdges.
	for i := 0; i < 5; i++ {
		ctm := transform.Transform{A: 1, D: 1, TX: float32(i) * 15}
		scene.AddPath(rectGeometry(70, 10), ctm, color, 0, 0, canvas)
	}

	list := scenepkg.NewSceneList()
	list.Add(scene, transform.Identity, canvas)

	buf := Render(list, Options{Width: 200, Height: 200, SheetW: 20, SheetH: 16, Shards: 1})

	var fastEdgeEntries []Entry
	for _, e := range buf.Entries {
		if e.Kind == FastEdges {
			fastEdgeEntries = append(fastEdgeEntries, e)
		}
	}
	if len(fastEdgeEntries) < 2 {
		t.Fatalf("got %d FastEdges entries, want at least 2 (one per Pass, not one flat region)", len(fastEdgeEntries))
	}
	total := 0
	for _, e := range fastEdgeEntries {
		if e.End <= e.Begin {
			t.Fatalf("FastEdges entry %+v is empty or inverted", e)
		}
		total += e.End - e.Begin
	}
	if total != len(buf.FastEdgesTable) {
		t.Fatalf("FastEdges entries cover %d rows, want %d (len of the table)", total, len(buf.FastEdgesTable))
	}
}

func TestRenderEmptySceneProducesNoEntries(t *testing.T) {
	scene := scenepkg.NewScene()
	list := scenepkg.NewSceneList()
	list.Add(scene, transform.Identity, transform.Bounds{})
	buf := Render(list, Options{Width: 10, Height: 10, Shards: 2})
	if len(buf.Entries) != 0 {
		t.Fatalf("empty scene produced %d entries, want 0", len(buf.Entries))
	}
}
