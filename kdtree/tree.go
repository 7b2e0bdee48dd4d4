package kdtree

import (
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
)

type NodeKind uint8

const (
	InnerNode NodeKind = iota
	LeafNode
)

// A kd-tree node. Nodes are stored in a contiguous slice and reference
// their children and primitives by index.
type Node struct {
	Kind NodeKind

	// Split plane for inner nodes.
	Axis  uint8
	Split float32

	// Child node indices for inner nodes. Left covers the half-space
	// below the split plane.
	Left  int32
	Right int32

	// Leaf primitive list; a range inside Tree.LeafPrims.
	FirstPrim int32
	PrimCount int32
}

// Build options.
type Options struct {
	// Recursion stops at this depth regardless of split cost.
	MaxDepth int

	// Nodes with at most this many primitives become leaves.
	MinLeafPrims int

	// Cost of traversing an inner node.
	TraversalCost float32

	// Cost of a single primitive intersection test.
	IntersectionCost float32
}

// Get the default build options.
func DefaultOptions() Options {
	return Options{
		MaxDepth:         24,
		MinLeafPrims:     2,
		TraversalCost:    1,
		IntersectionCost: 1,
	}
}

// Build statistics.
type Stats struct {
	Nodes     int
	Leaves    int
	PrimSlots int
	SumDepth  int
	MaxDepth  int
}

// A kd-tree over the primitives of a sector.
type Tree struct {
	Nodes     []Node
	LeafPrims []int32

	// Primitives and their intersection data share the same indices.
	Primitives []*scene.Primitive
	Accel      []AccelPrimitive

	// The root node bounds.
	BBox types.BBox

	Stats Stats
}

// Get a leaf primitive index list.
func (t *Tree) LeafPrimitives(node *Node) []int32 {
	return t.LeafPrims[node.FirstPrim : node.FirstPrim+node.PrimCount]
}
