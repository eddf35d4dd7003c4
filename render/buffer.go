// SPDX-License-Identifier: Unlicense OR MIT

// Package render implements the rasterization back end: the CurveIndexer
// (scanline/cell coverage binning), the Allocator (sheet packing of
// variable-height strips), the per-shard Context pipeline, the Outliner
// (stroke instance generator), the Renderer (parallel shard dispatch), the
// flat Buffer output, and the winding hit-test. It plays the role the
// reference gpu/compute.go plays for prior art (turning a scene into GPU-
// ready primitive batches), generalized from the reference GPU-compute-
// shader instance format to a CPU-addressable Buffer a downstream consumer —
// CPU compositor or GPU uploader — can walk without understanding the scene
// that produced it.
package render

import (
	"math"

	"github.com/mindbrix/Rasterizer-sub000/colorant"
	"github.com/mindbrix/Rasterizer-sub000/transform"
)

// Kind tags one typed region of a Buffer.
type Kind uint8

const (
	QuadEdges Kind = iota
	FastEdges
	FastOutlines
	QuadOutlines
	FastMolecules
	QuadMolecules
	Opaques
	Instances
)

func (k Kind) String() string {
	switch k {
	case QuadEdges:
		return "QuadEdges"
	case FastEdges:
		return "FastEdges"
	case FastOutlines:
		return "FastOutlines"
	case QuadOutlines:
		return "QuadOutlines"
	case FastMolecules:
		return "FastMolecules"
	case QuadMolecules:
		return "QuadMolecules"
	case Opaques:
		return "Opaques"
	case Instances:
		return "Instances"
	default:
		return "Unknown"
	}
}

// Entry is one table-of-contents row pointing into one of Buffer's typed
// slices.
type Entry struct {
	Kind     Kind
	Begin    int
	End      int
	Segments int
	Points   int
	InstBase int
}

// Instance tag bits packed into the high byte of Instance.Iz: "low 24 bits
// are the path index", high bits are type tags.
const (
	TagEvenOdd   uint32 = 1 << 31
	TagRoundCap  uint32 = 1 << 30
	TagEdge      uint32 = 1 << 29
	TagSolidCell uint32 = 1 << 28
	TagSquareCap uint32 = 1 << 27
	TagOutlines  uint32 = 1 << 26
	TagFastEdges uint32 = 1 << 25
	TagMolecule  uint32 = 1 << 24

	pathIndexMask uint32 = 0x00FFFFFF
)

// PackIz packs a path index and a set of tag bits into one Iz value.
func PackIz(pathIndex int, tags uint32) uint32 {
	return tags | (uint32(pathIndex) & pathIndexMask)
}

// InstanceQuad is an Instance's destination rectangle on a sheet plus
// its accumulated coverage.
type InstanceQuad struct {
	Lx, Ly, Ux, Uy, Ox, Oy uint16
	Cover                  int16
	Base                   int32
}

// Instance is one Blend or Opaque primitive.
type Instance struct {
	Iz   uint32
	Quad InstanceQuad
}

// Segment is one clipped, subdivided line segment. The curve-continuation
// class is carried logically as Curve and packed into X0's two low mantissa
// bits only when the segment is serialized into a Buffer's flat form (see
// PackedX0), keeping ordinary arithmetic on X0 exact everywhere else.
type Segment struct {
	X0, Y0, X1, Y1 float32
	Curve          uint8 // 2-bit curve-continuation code
}

// PackedX0 returns X0 with Curve stuffed into its two low mantissa bits,
// matching the wire format requires downstream consumers to decode bitwise.
func (s Segment) PackedX0() float32 {
	return packLowBits(s.X0, s.Curve)
}

// Edge is a per-merged-span primitive pointing at a fat row's sorted index
// slice. For a fill edge, Ic carries the a0/a1 curve-continuation flags in
// its two high bits alongside the begin index into the row's sorted
// indices; for a molecule or outline edge, Ic is the record count.
type Edge struct {
	Ic uint32
	I0 uint16
	Ux uint16
}

const (
	EdgeA0 uint32 = 1 << 31
	EdgeA1 uint32 = 1 << 30
	edgeIcMask     = 0x3FFFFFFF
)

// Point16 mirrors geometry.Point16's wire shape for the Buffer's
// Points16 region.
type Point16 struct {
	X, Y uint16
}

// StrokeInstance is one Outliner-emitted per-segment stroke record: a
// clipped segment plus the ring-linkage the stroke shader needs to find its
// subpath neighbours. Prev/Next are offsets relative to this record's own
// index within the owning Outlines table's [I0,I0+Ic) range; the first and
// last record of a subpath carry a negative offset equal to their distance
// from the other end, closing the ring.
type StrokeInstance struct {
	X0, Y0, X1, Y1 float32
	Curve          uint8
	Prev, Next     int32
	Iz             uint32
}

// Buffer is the flat output of a render pass. Rather than a single opaque
// byte slab, the header and each region are kept as their own typed Go
// slices — an idiomatic Go rendering of the same "typed table of contents
// over flat regions" shape, sized exactly as the byte layout describes, with
// PackedX0/PackIz providing the explicit bit-for-bit wire encoding where a
// downstream consumer needs it.
type Buffer struct {
	PathsCount int

	// Header region, one entry per scene item in
	// flattened SceneList order.
	Colors   []colorant.Colorant
	CTMs     []transform.Transform
	ClipCTMs []transform.Transform
	Widths   []float32
	Bnds     []transform.Bounds

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

	Entries []Entry
}

// NewBuffer returns a Buffer sized for pathsCount header rows.
func NewBuffer(pathsCount int) *Buffer {
	return &Buffer{
		PathsCount: pathsCount,
		Colors:     make([]colorant.Colorant, pathsCount),
		CTMs:       make([]transform.Transform, pathsCount),
		ClipCTMs:   make([]transform.Transform, pathsCount),
		Widths:     make([]float32, pathsCount),
		Bnds:       make([]transform.Bounds, pathsCount),
	}
}

// BytesUsed returns an approximate accounting of the Buffer's payload size,
// used to satisfy the "size >= bytes_used" assertion against a
// Geometry.UpperBound-derived pre-sizing.
func (b *Buffer) BytesUsed() int {
	const (
		szColorant = 4
		szTransform = 6 * 4
		szFloat32  = 4
		szBounds   = 4 * 4
		szSegment  = 4 * 4
		szPoint16  = 2 * 2
		szEdge     = 4 + 2 + 2
		szInstance = 4 + (2*6 + 2 + 4)
	)
	n := b.PathsCount * (szColorant + 2*szTransform + szFloat32 + szBounds)
	n += len(b.Segments) * szSegment
	n += len(b.Points16) * szPoint16
	n += len(b.QuadEdgesTable) * szEdge
	n += len(b.FastEdgesTable) * szEdge
	n += len(b.FastOutlinesTable) * szEdge
	n += len(b.QuadOutlinesTable) * szEdge
	n += len(b.FastMoleculesTable) * szEdge
	n += len(b.QuadMoleculesTable) * szEdge
	n += len(b.OpaquesTable) * szInstance
	n += len(b.InstancesTable) * szInstance
	return n
}

func packLowBits(f float32, bits uint8) float32 {
	u := math.Float32bits(f)
	u = (u &^ 0x3) | uint32(bits&0x3)
	return math.Float32frombits(u)
}
