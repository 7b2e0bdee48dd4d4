package kdtree

import (
	"math/rand"
	"testing"

	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
)

func randomPrimitives(rng *rand.Rand, count int, extent float32) []*scene.Primitive {
	prims := make([]*scene.Primitive, 0, count)
	for len(prims) < count {
		base := types.Vec3{
			(rng.Float32()*2 - 1) * extent,
			(rng.Float32()*2 - 1) * extent,
			(rng.Float32()*2 - 1) * extent,
		}
		var verts [3]types.Vec3
		for i := range verts {
			verts[i] = base.Add(types.Vec3{rng.Float32()*2 - 1, rng.Float32()*2 - 1, rng.Float32()*2 - 1})
		}
		prim := scene.NewPrimitive(nil, verts, [3]types.Vec3{})
		if prim.Area() < 1e-3 {
			continue
		}
		prim.Index = len(prims)
		prims = append(prims, prim)
	}
	return prims
}

// Every primitive must be referenced by every leaf whose region its bbox
// overlaps with a non-zero volume.
func TestBuildSoundness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	prims := randomPrimitives(rng, 300, 10)
	tree := Build(prims, DefaultOptions())

	if tree.Stats.Leaves < 2 {
		t.Fatalf("expected tree to be split into multiple leaves; got %d", tree.Stats.Leaves)
	}

	var walk func(nodeIndex int32, box types.BBox)
	walk = func(nodeIndex int32, box types.BBox) {
		node := &tree.Nodes[nodeIndex]
		if node.Kind == InnerNode {
			l, r := box.Split(int(node.Axis), node.Split)
			walk(node.Left, l)
			walk(node.Right, r)
			return
		}

		inLeaf := make(map[int32]bool)
		for _, primIndex := range tree.LeafPrimitives(node) {
			inLeaf[primIndex] = true
		}
		for primIndex, prim := range prims {
			overlap := prim.BBox().Intersection(box)
			size := overlap.Size()
			if size[0] <= 0 || size[1] <= 0 || size[2] <= 0 {
				continue
			}
			if !inLeaf[int32(primIndex)] {
				t.Fatalf("expected leaf %d with box %v to reference primitive %d", nodeIndex, box, primIndex)
			}
		}
	}
	walk(0, tree.BBox)

	for _, prim := range prims {
		if !tree.BBox.Contains(prim.Center()) {
			t.Fatalf("expected root bbox to contain primitive %d", prim.Index)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	tree := Build(nil, DefaultOptions())
	if len(tree.Nodes) != 1 || tree.Nodes[0].Kind != LeafNode || tree.Nodes[0].PrimCount != 0 {
		t.Fatalf("expected a single empty leaf; got %+v", tree.Nodes)
	}
	if !tree.BBox.IsEmpty() {
		t.Fatal("expected empty root bbox")
	}
	if out := tree.CollectPrimitives(types.BBox{Max: types.Vec3{1, 1, 1}}, nil); len(out) != 0 {
		t.Fatalf("expected no primitives; got %d", len(out))
	}
}

func TestBuildMaxDepth(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	prims := randomPrimitives(rng, 200, 10)

	opts := DefaultOptions()
	opts.MaxDepth = 3
	tree := Build(prims, opts)
	if tree.Stats.MaxDepth > 3 {
		t.Fatalf("expected max depth to be at most 3; got %d", tree.Stats.MaxDepth)
	}
}

func TestCollectPrimitives(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	prims := randomPrimitives(rng, 250, 10)
	tree := Build(prims, DefaultOptions())

	type spec struct {
		box types.BBox
	}
	specs := []spec{
		{types.BBox{Min: types.Vec3{-2, -2, -2}, Max: types.Vec3{2, 2, 2}}},
		{types.BBox{Min: types.Vec3{-20, -20, -20}, Max: types.Vec3{20, 20, 20}}},
		{types.BBox{Min: types.Vec3{5, -10, 0}, Max: types.Vec3{9, 0, 1}}},
		{types.BBox{Min: types.Vec3{50, 50, 50}, Max: types.Vec3{60, 60, 60}}},
	}

	for index, s := range specs {
		got := tree.CollectPrimitives(s.box, nil)
		gotSet := make(map[int]bool)
		for _, prim := range got {
			if gotSet[prim.Index] {
				t.Fatalf("[spec %d] expected primitive %d to be reported once", index, prim.Index)
			}
			gotSet[prim.Index] = true
		}

		var expCount int
		for _, prim := range prims {
			if !prim.BBox().Overlaps(s.box) {
				continue
			}
			expCount++
			if !gotSet[prim.Index] {
				t.Fatalf("[spec %d] expected primitive %d to be collected", index, prim.Index)
			}
		}
		if expCount != len(got) {
			t.Fatalf("[spec %d] expected %d primitives; got %d", index, expCount, len(got))
		}

		set := tree.CollectPrimitiveSet(s.box)
		if int(set.Count()) != expCount {
			t.Fatalf("[spec %d] expected primitive set with %d entries; got %d", index, expCount, set.Count())
		}
	}
}

func TestAccelPrimitiveIntersect(t *testing.T) {
	prim := scene.NewPrimitive(
		nil,
		[3]types.Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}},
		[3]types.Vec3{},
	)
	accel := NewAccelPrimitive(prim)

	type spec struct {
		origin types.Vec3
		dir    types.Vec3
		hit    bool
		t      float32
		lambda float32
		mu     float32
	}
	specs := []spec{
		{types.Vec3{0.5, 0.5, 5}, types.Vec3{0, 0, -1}, true, 5, 0.25, 0.25},
		{types.Vec3{1, 0, -3}, types.Vec3{0, 0, 1}, true, 3, 0.5, 0},
		{types.Vec3{1.5, 1.5, 5}, types.Vec3{0, 0, -1}, false, 0, 0, 0},
		{types.Vec3{0.5, 0.5, 5}, types.Vec3{1, 0, 0}, false, 0, 0, 0},
		// Behind the origin
		{types.Vec3{0.5, 0.5, 5}, types.Vec3{0, 0, 1}, false, 0, 0, 0},
	}

	for index, s := range specs {
		tHit, lambda, mu, ok := accel.Intersect(s.origin, s.dir, 1e-4, 100)
		if ok != s.hit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", index, s.hit, ok)
		}
		if !ok {
			continue
		}
		if abs(tHit-s.t) > 1e-4 || abs(lambda-s.lambda) > 1e-4 || abs(mu-s.mu) > 1e-4 {
			t.Fatalf("[spec %d] expected (t, lambda, mu) = (%f, %f, %f); got (%f, %f, %f)", index, s.t, s.lambda, s.mu, tHit, lambda, mu)
		}
	}

	degenerate := NewAccelPrimitive(scene.NewPrimitive(
		nil,
		[3]types.Vec3{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		[3]types.Vec3{},
	))
	if !degenerate.Degenerate() {
		t.Fatal("expected collinear primitive to be flagged as degenerate")
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
