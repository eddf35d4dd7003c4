// SPDX-License-Identifier: Unlicense OR MIT

package render

import (
	"math"
	"sync"

	"github.com/mindbrix/Rasterizer-sub000/internal/xmath"
	"github.com/mindbrix/Rasterizer-sub000/scenepkg"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

// Shards is the fixed worker-pool size K.
const Shards = 8

// Options parameterizes one Render call. It is a plain struct, not a parsed
// configuration file — this package's own Renderer takes parameters as Go
// values.
type Options struct {
	Scale        float32
	Width, Height int
	SheetW, SheetH int
	Shards       int
}

// Render is renderList: it scales the root CTM, computes K balanced shards
// over the SceneList's aggregate path-opcode weight, runs Context.DrawList
// for each shard in parallel, then copies every shard's private buffers into
// one Buffer in parallel.
func Render(list *scenepkg.SceneList, opts Options) *Buffer {
	k := opts.Shards
	if k <= 0 {
		k = Shards
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	devW := int(math.Ceil(float64(scale) * float64(opts.Width)))
	devH := int(math.Ceil(float64(scale) * float64(opts.Height)))
	sheetW, sheetH := opts.SheetW, opts.SheetH
	if sheetW == 0 {
		sheetW = devW
	}
	if sheetH == 0 {
		sheetH = devH
	}

	scaled := *list
	scaled.CTM = transform.Transform{A: scale, D: scale}.Concat(list.CTM)

	refs, weights := scaled.Flatten()
	bounds := xmath.ShardBoundaries(weights, k)

	buf := NewBuffer(len(refs))
	contexts := make([]*Context, k)
	for i := range contexts {
		contexts[i] = NewContext(sheetW, sheetH)
	}

	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		i := i
		lo, hi := bounds[i], bounds[i+1]
		wg.Add(1)
		go func() {
			defer wg.Done()
			contexts[i].DrawList(&scaled, refs[lo:hi], lo, buf)
		}()
	}
	wg.Wait()

	offsets := make([]shardOffsets, k)
	var cum shardOffsets
	for i := 0; i < k; i++ {
		offsets[i] = cum
		cum = cum.advance(contexts[i])
	}
	cum.resize(buf)

	shardEntries := make([][]Entry, k)
	var wg2 sync.WaitGroup
	for i := 0; i < k; i++ {
		i := i
		wg2.Add(1)
		go func() {
			defer wg2.Done()
			shardEntries[i] = writeContextToBuffer(contexts[i], offsets[i], buf)
		}()
	}
	wg2.Wait()

	// Concatenation happens after the parallel fan-out, in shard order:
	// appending to buf.Entries concurrently from the copy goroutines above
	// would race on the shared slice.
	for i := 0; i < k; i++ {
		buf.Entries = append(buf.Entries, shardEntries[i]...)
	}

	if buf.BytesUsed() > estimateUpperBound(&scaled) {
		panic("render: assertion failed: size >= bytes_used")
	}
	return buf
}

// shardOffsets records, for one shard, the prefix sums of every region
// length preceding it — the disjoint byte/slice ranges writeContextToBuffer
// copies into.
type shardOffsets struct {
	segments, points16, strokes                                    int
	quadEdges, fastEdges, fastOutlines, quadOutlines                int
	fastMolecules, quadMolecules, opaques, instances                int
}

func (s shardOffsets) advance(c *Context) shardOffsets {
	return shardOffsets{
		segments:      s.segments + len(c.Segments),
		points16:      s.points16 + len(c.Points16),
		strokes:       s.strokes + len(c.StrokeInstances),
		quadEdges:     s.quadEdges + len(c.QuadEdgesTable),
		fastEdges:     s.fastEdges + len(c.FastEdgesTable),
		fastOutlines:  s.fastOutlines + len(c.FastOutlinesTable),
		quadOutlines:  s.quadOutlines + len(c.QuadOutlinesTable),
		fastMolecules: s.fastMolecules + len(c.FastMoleculesTable),
		quadMolecules: s.quadMolecules + len(c.QuadMoleculesTable),
		opaques:       s.opaques + len(c.OpaquesTable),
		instances:     s.instances + len(c.InstancesTable),
	}
}

func (s shardOffsets) resize(buf *Buffer) {
	buf.Segments = make([]Segment, s.segments)
	buf.Points16 = make([]Point16, s.points16)
	buf.StrokeInstances = make([]StrokeInstance, s.strokes)
	buf.QuadEdgesTable = make([]Edge, s.quadEdges)
	buf.FastEdgesTable = make([]Edge, s.fastEdges)
	buf.FastOutlinesTable = make([]Edge, s.fastOutlines)
	buf.QuadOutlinesTable = make([]Edge, s.quadOutlines)
	buf.FastMoleculesTable = make([]Edge, s.fastMolecules)
	buf.QuadMoleculesTable = make([]Edge, s.quadMolecules)
	buf.OpaquesTable = make([]Instance, s.opaques)
	buf.InstancesTable = make([]Instance, s.instances)
}

// passKinds is the fixed emission order within one Pass's Entry group: the
// six per-pass edge kinds, then an Instances entry for the pass's fills and
// molecules. Opaques rides alongside Instances — both accumulate from the
// same solid-cell branch in closeRow — and gets its own entry when the pass
// produced any.
var passKinds = [...]Kind{QuadEdges, FastEdges, FastOutlines, QuadOutlines, FastMolecules, QuadMolecules, Opaques, Instances}

// writeContextToBuffer copies one shard's private buffers into buf at its
// precomputed disjoint offsets and returns one Entry group per Allocator
// Pass, in Pass order, so a downstream consumer can tell where one sheet's
// data ends and the next begins. Each table is a single contiguous copy;
// Allocator.Passes' exact per-kind EntryCounts (not Counts, a segment-count
// reservation) say how many of each table's leading, not-yet-sliced entries
// belong to the pass currently being emitted. It never touches buf.Entries
// itself: Render concatenates the returned per-shard entries sequentially
// once every shard has copied, keeping this function's writes disjoint
// across goroutines.
func writeContextToBuffer(c *Context, at shardOffsets, buf *Buffer) []Entry {
	copy(buf.Segments[at.segments:], c.Segments)
	copy(buf.Points16[at.points16:], c.Points16)
	copy(buf.StrokeInstances[at.strokes:], c.StrokeInstances)

	copy(buf.QuadEdgesTable[at.quadEdges:], c.QuadEdgesTable)
	copy(buf.FastEdgesTable[at.fastEdges:], c.FastEdgesTable)
	copy(buf.FastOutlinesTable[at.fastOutlines:], c.FastOutlinesTable)
	copy(buf.QuadOutlinesTable[at.quadOutlines:], c.QuadOutlinesTable)
	copy(buf.FastMoleculesTable[at.fastMolecules:], c.FastMoleculesTable)
	copy(buf.QuadMoleculesTable[at.quadMolecules:], c.QuadMoleculesTable)
	copy(buf.OpaquesTable[at.opaques:], c.OpaquesTable)
	copy(buf.InstancesTable[at.instances:], c.InstancesTable)

	// cursor tracks, per kind, how far into this shard's region (relative to
	// at.*) the previous passes have already consumed.
	var cursor [8]int
	base := [8]int{at.quadEdges, at.fastEdges, at.fastOutlines, at.quadOutlines, at.fastMolecules, at.quadMolecules, at.opaques, at.instances}

	var entries []Entry
	for _, pass := range c.Allocator.Passes() {
		for _, kind := range passKinds {
			n := pass.EntryCounts[kind]
			if n == 0 {
				continue
			}
			begin := base[kind] + cursor[kind]
			end := begin + n
			cursor[kind] += n
			e := Entry{Kind: kind, Begin: begin, End: end}
			if kind == Instances {
				e.InstBase = at.instances
			}
			entries = append(entries, e)
		}
	}
	return entries
}

// estimateUpperBound sums every item's Geometry.UpperBound at its
// transform's determinant plus its header size, the pre-sizing figure the
// "size >= bytes_used" assertion checks against.
func estimateUpperBound(list *scenepkg.SceneList) int {
	n := 0
	for si, s := range list.Scenes {
		ctm := list.CTM.Concat(list.CTMs[si])
		for i := 0; i < s.Count; i++ {
			full := ctm.Concat(s.DstCTMs[i])
			n += s.Paths[i].UpperBound(full.Det())*64 + 256
		}
	}
	return n + list.PathsCount()*256
}
