// SPDX-License-Identifier: Unlicense OR MIT

package render

import "testing"

func TestAllocPacksWithinRow(t *testing.T) {
	a := NewAllocator(100, 100)
	x0, y0, pass0 := a.Alloc(ClassStrip, 40, 10)
	x1, y1, pass1 := a.Alloc(ClassStrip, 40, 10)
	if x0 != 0 || y0 != 0 {
		t.Fatalf("first alloc origin = (%d,%d), want (0,0)", x0, y0)
	}
	if x1 != 40 || y1 != 0 {
		t.Fatalf("second alloc origin = (%d,%d), want (40,0)", x1, y1)
	}
	if pass0 != 0 || pass1 != 0 {
		t.Fatalf("allocs landed in passes %d,%d, want both 0", pass0, pass1)
	}
}

func TestAllocAdvancesRowWhenWidthExceeded(t *testing.T) {
	a := NewAllocator(50, 100)
	a.Alloc(ClassStrip, 40, 10)
	x, y, _ := a.Alloc(ClassStrip, 40, 10)
	if x != 0 || y != 10 {
		t.Fatalf("alloc after row overflow = (%d,%d), want (0,10)", x, y)
	}
}

func TestAllocStartsNewPassWhenSheetFull(t *testing.T) {
	a := NewAllocator(10, 10)
	_, _, pass0 := a.Alloc(ClassStrip, 10, 10)
	_, _, pass1 := a.Alloc(ClassStrip, 10, 10)
	if pass0 != 0 {
		t.Fatalf("first alloc pass = %d, want 0", pass0)
	}
	if pass1 != 1 {
		t.Fatalf("alloc after sheet overflow pass = %d, want 1", pass1)
	}
	if len(a.Passes()) != 2 {
		t.Fatalf("len(Passes()) = %d, want 2", len(a.Passes()))
	}
}

func TestBumpAndBumpBy(t *testing.T) {
	a := NewAllocator(100, 100)
	a.Bump(0, FastEdges)
	a.BumpBy(0, FastEdges, 4)
	passes := a.Passes()
	if passes[0].Counts[FastEdges] != 5 {
		t.Fatalf("Counts[FastEdges] = %d, want 5", passes[0].Counts[FastEdges])
	}
}

func TestBumpEntryTracksExactCounts(t *testing.T) {
	a := NewAllocator(100, 100)
	a.BumpEntry(0, FastEdges)
	a.BumpEntry(0, FastEdges)
	a.BumpEntry(0, Instances)
	passes := a.Passes()
	if passes[0].EntryCounts[FastEdges] != 2 {
		t.Fatalf("EntryCounts[FastEdges] = %d, want 2", passes[0].EntryCounts[FastEdges])
	}
	if passes[0].EntryCounts[Instances] != 1 {
		t.Fatalf("EntryCounts[Instances] = %d, want 1", passes[0].EntryCounts[Instances])
	}
}

func TestBumpEntryOutOfRangePassIsNoop(t *testing.T) {
	a := NewAllocator(100, 100)
	a.BumpEntry(5, FastEdges) // no pass 5 yet; must not panic
	if len(a.Passes()) != 1 {
		t.Fatalf("BumpEntry on an out-of-range pass mutated Passes: %v", a.Passes())
	}
}

func TestBumpOutOfRangePassIsNoop(t *testing.T) {
	a := NewAllocator(100, 100)
	a.Bump(5, FastEdges) // no pass 5 yet; must not panic
	if len(a.Passes()) != 1 {
		t.Fatalf("Bump on an out-of-range pass mutated Passes: %v", a.Passes())
	}
}

func TestResetClearsPasses(t *testing.T) {
	a := NewAllocator(10, 10)
	a.Alloc(ClassStrip, 10, 10)
	a.Alloc(ClassStrip, 10, 10) // forces a second pass
	a.Reset()
	if len(a.Passes()) != 1 {
		t.Fatalf("len(Passes()) after Reset = %d, want 1", len(a.Passes()))
	}
	x, y, pass := a.Alloc(ClassStrip, 5, 5)
	if x != 0 || y != 0 || pass != 0 {
		t.Fatalf("alloc after Reset = (%d,%d,%d), want (0,0,0)", x, y, pass)
	}
}
