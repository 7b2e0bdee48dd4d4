package kdtree

import (
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
	"github.com/bits-and-blooms/bitset"
)

// Collect all primitives whose bounding box overlaps box. Each primitive is
// reported once even if it is referenced by multiple leaves. Results are
// appended to out.
func (t *Tree) CollectPrimitives(box types.BBox, out []*scene.Primitive) []*scene.Primitive {
	if len(t.Nodes) == 0 || !t.BBox.Overlaps(box) {
		return out
	}

	seen := bitset.New(uint(len(t.Primitives)))
	t.collect(0, t.BBox, box, seen, func(primIndex int32) {
		out = append(out, t.Primitives[primIndex])
	})
	return out
}

// Collect the indices of all primitives whose bounding box overlaps box
// into a bitset.
func (t *Tree) CollectPrimitiveSet(box types.BBox) *bitset.BitSet {
	seen := bitset.New(uint(len(t.Primitives)))
	if len(t.Nodes) == 0 || !t.BBox.Overlaps(box) {
		return seen
	}
	t.collect(0, t.BBox, box, seen, func(int32) {})
	return seen
}

func (t *Tree) collect(nodeIndex int32, nodeBox, box types.BBox, seen *bitset.BitSet, emit func(int32)) {
	node := &t.Nodes[nodeIndex]
	if node.Kind == LeafNode {
		for _, primIndex := range t.LeafPrimitives(node) {
			if seen.Test(uint(primIndex)) || !t.Primitives[primIndex].BBox().Overlaps(box) {
				continue
			}
			seen.Set(uint(primIndex))
			emit(primIndex)
		}
		return
	}

	leftBox, rightBox := nodeBox.Split(int(node.Axis), node.Split)
	if leftBox.Overlaps(box) {
		t.collect(node.Left, leftBox, box, seen, emit)
	}
	if rightBox.Overlaps(box) {
		t.collect(node.Right, rightBox, box, seen, emit)
	}
}
