package kdtree

import (
	"sort"
	"time"

	"github.com/achilleasa/lighter/log"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
)

type builder struct {
	logger log.Logger
	opts   Options
	tree   *Tree

	// Per primitive bounding boxes.
	primBoxes []types.BBox

	// Scratch buffers reused across nodes.
	mins, maxs, candidates []float32
}

// Build a kd-tree over a sector's primitives.
func BuildSector(sector *scene.Sector, opts Options) *Tree {
	return Build(sector.Primitives(), opts)
}

// Build a kd-tree over a set of primitives using a greedy top-down surface
// area heuristic. Each node is split along the longest axis of its box at
// the candidate plane (a primitive bbox boundary) with the lowest cost:
//
// cost = traversal + intersection * (SA(left)*N(left) + SA(right)*N(right)) / SA(node)
//
// A node becomes a leaf when no split is cheaper than intersecting all of
// its primitives, when it holds at most MinLeafPrims primitives or when the
// maximum depth is reached. Primitives straddling the split plane are
// referenced by both children.
func Build(prims []*scene.Primitive, opts Options) *Tree {
	b := &builder{
		logger: log.New("kdtree"),
		opts:   opts,
		tree: &Tree{
			Primitives: prims,
			Accel:      make([]AccelPrimitive, len(prims)),
			BBox:       types.EmptyBBox(),
		},
		primBoxes: make([]types.BBox, len(prims)),
	}

	start := time.Now()
	work := make([]int32, len(prims))
	for i, prim := range prims {
		b.tree.Accel[i] = NewAccelPrimitive(prim)
		b.primBoxes[i] = prim.BBox()
		b.tree.BBox = b.tree.BBox.Union(prim.BBox())
		work[i] = int32(i)
	}

	b.partition(work, b.tree.BBox, 0)

	st := &b.tree.Stats
	st.Nodes = len(b.tree.Nodes)
	st.PrimSlots = len(b.tree.LeafPrims)
	avgDepth := float32(0)
	if st.Leaves > 0 {
		avgDepth = float32(st.SumDepth) / float32(st.Leaves)
	}
	b.logger.Debugf(
		"kd-tree build time: %d ms, primitives: %d, nodes: %d, leaves: %d, slots: %d, maxDepth: %d, avgDepth: %.1f",
		time.Since(start).Nanoseconds()/1e6,
		len(prims), st.Nodes, st.Leaves, st.PrimSlots, st.MaxDepth, avgDepth,
	)

	return b.tree
}

// Partition a work list bounded by box and return the node index.
func (b *builder) partition(work []int32, box types.BBox, depth int) int32 {
	nodeIndex := int32(len(b.tree.Nodes))
	b.tree.Nodes = append(b.tree.Nodes, Node{})

	if len(work) <= b.opts.MinLeafPrims || depth >= b.opts.MaxDepth || box.IsEmpty() {
		b.createLeaf(nodeIndex, work, depth)
		return nodeIndex
	}

	axis, split, ok := b.findSplit(work, box)
	if !ok {
		b.createLeaf(nodeIndex, work, depth)
		return nodeIndex
	}

	leftBox, rightBox := box.Split(axis, split)
	leftWork := make([]int32, 0, len(work))
	rightWork := make([]int32, 0, len(work))
	for _, primIndex := range work {
		pbox := b.primBoxes[primIndex].Intersection(box)
		if pbox.Min[axis] <= split {
			leftWork = append(leftWork, primIndex)
		}
		if pbox.Max[axis] >= split {
			rightWork = append(rightWork, primIndex)
		}
	}

	left := b.partition(leftWork, leftBox, depth+1)
	right := b.partition(rightWork, rightBox, depth+1)

	b.tree.Nodes[nodeIndex] = Node{
		Kind:  InnerNode,
		Axis:  uint8(axis),
		Split: split,
		Left:  left,
		Right: right,
	}
	return nodeIndex
}

// Find the cheapest split plane along the longest axis of box.
func (b *builder) findSplit(work []int32, box types.BBox) (axis int, split float32, ok bool) {
	axis = box.LongestAxis()
	lo, hi := box.Min[axis], box.Max[axis]
	if hi-lo <= 0 {
		return 0, 0, false
	}

	b.mins, b.maxs, b.candidates = b.mins[:0], b.maxs[:0], b.candidates[:0]
	for _, primIndex := range work {
		pbox := b.primBoxes[primIndex].Intersection(box)
		b.mins = append(b.mins, pbox.Min[axis])
		b.maxs = append(b.maxs, pbox.Max[axis])
		for _, pos := range [2]float32{pbox.Min[axis], pbox.Max[axis]} {
			if pos > lo && pos < hi {
				b.candidates = append(b.candidates, pos)
			}
		}
	}
	if len(b.candidates) == 0 {
		return 0, 0, false
	}

	sortFloats(b.mins)
	sortFloats(b.maxs)
	sortFloats(b.candidates)

	n := len(work)
	invArea := 1 / box.Area()
	bestCost := b.opts.IntersectionCost * float32(n)
	found := false

	prev := b.candidates[0] - 1
	for _, pos := range b.candidates {
		if pos == prev {
			continue
		}
		prev = pos

		// Primitives with min <= pos go left; those with max >= pos go right.
		nLeft := sort.Search(n, func(i int) bool { return b.mins[i] > pos })
		nRight := n - sort.Search(n, func(i int) bool { return b.maxs[i] >= pos })
		if nLeft == n && nRight == n {
			continue
		}

		leftBox, rightBox := box.Split(axis, pos)
		cost := b.opts.TraversalCost + b.opts.IntersectionCost*
			(leftBox.Area()*float32(nLeft)+rightBox.Area()*float32(nRight))*invArea
		if cost < bestCost {
			bestCost, split, found = cost, pos, true
		}
	}

	return axis, split, found
}

func (b *builder) createLeaf(nodeIndex int32, work []int32, depth int) {
	b.tree.Nodes[nodeIndex] = Node{
		Kind:      LeafNode,
		FirstPrim: int32(len(b.tree.LeafPrims)),
		PrimCount: int32(len(work)),
	}
	b.tree.LeafPrims = append(b.tree.LeafPrims, work...)

	st := &b.tree.Stats
	st.Leaves++
	st.SumDepth += depth
	if depth > st.MaxDepth {
		st.MaxDepth = depth
	}
}

func sortFloats(v []float32) {
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })
}
