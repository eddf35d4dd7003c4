// SPDX-License-Identifier: Unlicense OR MIT

package render

// HeightClass selects one of the Allocator's three packing strips.
type HeightClass int

const (
	ClassStrip HeightClass = iota // <= kFatRowHeight
	ClassFast                     // <= kFastHeight
	ClassMolecule                 // <= kMoleculeHeight
)

// classRow tracks one height class's current packing cursor within one
// sheet.
type classRow struct {
	x, y      int
	rowHeight int
}

// Pass groups every instance allocated on one sheet before that sheet was
// flushed. Counts indexes the six per-pass primitive kinds in Kind's
// declaration order (QuadEdges, FastEdges, FastOutlines, QuadOutlines,
// FastMolecules, QuadMolecules) with the Outliner's conservative
// segment-count reservation, used for sheet pre-sizing only. EntryCounts
// indexes all eight Kind values with the exact number of table entries
// (Edge/Instance rows, not segments) this pass actually produced, the
// figure a Buffer's table of contents slices by.
type Pass struct {
	Counts      [6]int
	EntryCounts [8]int
}

// Allocator packs variable-height cell rectangles into horizontal
// strips on device-sized sheets, starting a new Pass whenever a sheet
// fills.
type Allocator struct {
	SheetW, SheetH int

	classes [3]classRow
	passes  []Pass
	cur     int
}

// NewAllocator returns an Allocator packing onto sheetW x sheetH sheets.
func NewAllocator(sheetW, sheetH int) *Allocator {
	a := &Allocator{SheetW: sheetW, SheetH: sheetH}
	a.passes = append(a.passes, Pass{})
	return a
}

// Reset rewinds the Allocator to its initial empty state, reusing its
// Pass slice.
func (a *Allocator) Reset() {
	a.classes = [3]classRow{}
	a.passes = a.passes[:0]
	a.passes = append(a.passes, Pass{})
	a.cur = 0
}

// Alloc places a w x h rectangle in the given height class, returning
// its sheet-local origin and the Pass index it belongs to. When the
// class's current row cannot fit w more pixels the row advances; when
// the sheet itself is exhausted a new Pass (and implicitly a new sheet)
// begins.
func (a *Allocator) Alloc(class HeightClass, w, h int) (ox, oy, passIdx int) {
	c := &a.classes[class]
	if c.x+w > a.SheetW {
		c.y += c.rowHeight
		c.x = 0
		c.rowHeight = 0
	}
	if c.y+h > a.SheetH {
		a.flush()
		c = &a.classes[class]
	}
	ox, oy = c.x, c.y
	c.x += w
	if h > c.rowHeight {
		c.rowHeight = h
	}
	return ox, oy, a.cur
}

// flush starts a new Pass (and a fresh sheet) for every height class.
func (a *Allocator) flush() {
	a.classes = [3]classRow{}
	a.passes = append(a.passes, Pass{})
	a.cur = len(a.passes) - 1
}

// Bump increments Pass passIdx's count for kind k.
func (a *Allocator) Bump(passIdx int, k Kind) {
	a.BumpBy(passIdx, k, 1)
}

// BumpBy adds n to Pass passIdx's count for kind k — used for the
// Outliner's conservative upper-bound reservation.
func (a *Allocator) BumpBy(passIdx int, k Kind, n int) {
	if passIdx < 0 || passIdx >= len(a.passes) {
		return
	}
	if int(k) < len(a.passes[passIdx].Counts) {
		a.passes[passIdx].Counts[k] += n
	}
}

// BumpEntry increments Pass passIdx's exact entry count for kind k —
// one call per Edge or Instance row actually appended, regardless of how
// many segments or pixels that row covers. writeContextToBuffer uses this
// (not Counts, a segment-count reservation) to slice each Kind's table by
// Pass.
func (a *Allocator) BumpEntry(passIdx int, k Kind) {
	if passIdx < 0 || passIdx >= len(a.passes) {
		return
	}
	a.passes[passIdx].EntryCounts[k]++
}

// Passes returns every Pass the Allocator has produced so far.
func (a *Allocator) Passes() []Pass { return a.passes }
