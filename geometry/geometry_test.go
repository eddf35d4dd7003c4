// SPDX-License-Identifier: Unlicense OR MIT

package geometry

import (
	"testing"

	"github.com/mindbrix/Rasterizer-sub000/transform"
)

func TestAddBoundsProducesClosedRectangle(t *testing.T) {
	g := New()
	g.AddBounds(transform.Bounds{Lx: 0, Ly: 0, Ux: 10, Uy: 20})
	g.Finish()

	wantTypes := []Opcode{Move, Line, Line, Line, Close}
	if len(g.Types) != len(wantTypes) {
		t.Fatalf("Types = %v, want %v", g.Types, wantTypes)
	}
	for i, op := range wantTypes {
		if g.Types[i] != op {
			t.Errorf("Types[%d] = %v, want %v", i, g.Types[i], op)
		}
	}
	if g.Bounds != (transform.Bounds{Lx: 0, Ly: 0, Ux: 10, Uy: 20}) {
		t.Fatalf("Bounds = %+v, want {0 0 10 20}", g.Bounds)
	}
}

func TestHashIsStableAndContentSensitive(t *testing.T) {
	a := New()
	a.AddBounds(transform.Bounds{Lx: 0, Ly: 0, Ux: 10, Uy: 10})
	b := New()
	b.AddBounds(transform.Bounds{Lx: 0, Ly: 0, Ux: 10, Uy: 10})
	c := New()
	c.AddBounds(transform.Bounds{Lx: 0, Ly: 0, Ux: 20, Uy: 10})

	if a.Hash() != b.Hash() {
		t.Fatalf("identical geometries hashed differently: %d != %d", a.Hash(), b.Hash())
	}
	if a.Hash() == c.Hash() {
		t.Fatalf("distinct geometries hashed the same: %d", a.Hash())
	}
	// Repeated calls must be stable (lazily cached).
	if h1, h2 := a.Hash(), a.Hash(); h1 != h2 {
		t.Fatalf("Hash() not stable across calls: %d != %d", h1, h2)
	}
}

func TestLineToNoOpOnSamePoint(t *testing.T) {
	g := New()
	g.MoveTo(0, 0)
	g.LineTo(0, 0)
	if len(g.Types) != 1 {
		t.Fatalf("LineTo to the current pen position appended an opcode: %v", g.Types)
	}
}

func TestCloseOnEmptyGeometryIsNoOp(t *testing.T) {
	g := New()
	g.Close()
	if len(g.Types) != 0 {
		t.Fatalf("Close on an empty geometry appended an opcode: %v", g.Types)
	}
}

func TestQuadToCollinearDegradesToLine(t *testing.T) {
	g := New()
	g.MoveTo(0, 0)
	g.QuadTo(5, 0, 10, 0) // control point collinear with the chord
	if len(g.Types) != 2 || g.Types[1] != Line {
		t.Fatalf("Types = %v, want [Move Line]", g.Types)
	}
}

func TestRetainReleaseBalances(t *testing.T) {
	g := New()
	g.Retain()
	g.Retain()
	g.Release()
	g.Release()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("Release of an unreferenced Geometry did not panic")
		}
	}()
	g.Release()
}

func TestHasMolecules(t *testing.T) {
	g := New()
	g.AddBounds(transform.Bounds{Lx: 0, Ly: 0, Ux: 1, Uy: 1})
	if g.HasMolecules() {
		t.Fatalf("single-subpath geometry reported HasMolecules()")
	}
	g.AddBounds(transform.Bounds{Lx: 5, Ly: 5, Ux: 6, Uy: 6})
	if !g.HasMolecules() {
		t.Fatalf("two-subpath geometry did not report HasMolecules()")
	}
}

func TestUpperBoundGrowsWithDeterminant(t *testing.T) {
	g := New()
	g.AddBounds(transform.Bounds{Lx: 0, Ly: 0, Ux: 10, Uy: 10})
	small := g.UpperBound(0.01)
	large := g.UpperBound(100)
	if large < small {
		t.Fatalf("UpperBound(100) = %d < UpperBound(0.01) = %d", large, small)
	}
}

func TestMinUpperIsCached(t *testing.T) {
	g := New()
	g.AddBounds(transform.Bounds{Lx: 0, Ly: 0, Ux: 10, Uy: 10})
	a := g.MinUpper()
	b := g.MinUpper()
	if a != b {
		t.Fatalf("MinUpper() not stable across calls: %d != %d", a, b)
	}
}
