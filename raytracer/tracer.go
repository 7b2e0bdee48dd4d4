package raytracer

import (
	"github.com/achilleasa/lighter/kdtree"
	"github.com/achilleasa/lighter/stats"
	"github.com/achilleasa/lighter/types"
)

type stackEntry struct {
	node       int32
	tmin, tmax float32
}

// A callback invoked for each leaf visited by a ray, in front-to-back order.
// Returning false stops the traversal.
type LeafFunc func(nodeIndex int32, tmin, tmax float32) bool

// A Raytracer answers ray queries against a kd-tree. It owns a traversal
// stack and a mailbox so each goroutine should use its own instance.
type Raytracer struct {
	tree     *kdtree.Tree
	counters *stats.Counters

	stack   []stackEntry
	mailbox mailbox

	hasTransparent bool

	primitiveTests uint64
	mailboxHits    uint64
}

// Create a raytracer for a tree. Counters may be nil.
func New(tree *kdtree.Tree, counters *stats.Counters) *Raytracer {
	rt := &Raytracer{
		tree:     tree,
		counters: counters,
		stack:    make([]stackEntry, 0, 64),
	}
	for _, prim := range tree.Primitives {
		if prim.IsTransparent() {
			rt.hasTransparent = true
			break
		}
	}
	return rt
}

// The tree queried by this raytracer.
func (rt *Raytracer) Tree() *kdtree.Tree {
	return rt.tree
}

// Number of primitive intersection tests performed so far.
func (rt *Raytracer) PrimitiveTests() uint64 {
	return rt.primitiveTests
}

// Number of primitive tests skipped thanks to the mailbox.
func (rt *Raytracer) MailboxHits() uint64 {
	return rt.mailboxHits
}

// Find the closest intersection along the ray.
func (rt *Raytracer) TraceClosestHit(ray Ray) (HitPoint, bool) {
	var hit HitPoint
	found := false
	best := ray.MaxLength

	rt.trace(ray, &best, func(nodeIndex int32, tmin, tmax float32) bool {
		node := &rt.tree.Nodes[nodeIndex]
		for _, primIndex := range rt.tree.LeafPrimitives(node) {
			t, lambda, mu, ok := rt.testPrimitive(&ray, primIndex, best)
			if !ok {
				continue
			}
			best = t
			found = true
			hit = HitPoint{
				Primitive: rt.tree.Primitives[primIndex],
				Distance:  t,
				Lambda:    lambda,
				Mu:        mu,
			}
		}

		// Hits inside this leaf cannot be beaten by leaves further away.
		return !(found && best <= tmax)
	})

	if found {
		hit.Position = ray.At(hit.Distance)
	}
	return hit, found
}

// Returns true if any intersection exists along the ray.
func (rt *Raytracer) TraceAnyHit(ray Ray) bool {
	found := false
	maxLen := ray.MaxLength

	rt.trace(ray, &maxLen, func(nodeIndex int32, tmin, tmax float32) bool {
		node := &rt.tree.Nodes[nodeIndex]
		for _, primIndex := range rt.tree.LeafPrimitives(node) {
			if _, _, _, ok := rt.testPrimitive(&ray, primIndex, maxLen); ok {
				found = true
				return false
			}
		}
		return true
	})

	return found
}

// Invoke onHit for every intersection along the ray. Each primitive is
// reported at most once. Returning false from onHit stops the traversal.
func (rt *Raytracer) TraceAllHits(ray Ray, onHit func(HitPoint) bool) {
	maxLen := ray.MaxLength

	rt.trace(ray, &maxLen, func(nodeIndex int32, tmin, tmax float32) bool {
		node := &rt.tree.Nodes[nodeIndex]
		for _, primIndex := range rt.tree.LeafPrimitives(node) {
			t, lambda, mu, ok := rt.testPrimitive(&ray, primIndex, maxLen)
			if !ok {
				continue
			}
			hit := HitPoint{
				Primitive: rt.tree.Primitives[primIndex],
				Distance:  t,
				Position:  ray.At(t),
				Lambda:    lambda,
				Mu:        mu,
			}
			if !onHit(hit) {
				return false
			}
		}
		return true
	})
}

// Visit the leaves pierced by the ray in front-to-back order.
func (rt *Raytracer) VisitLeaves(ray Ray, fn LeafFunc) {
	maxLen := ray.MaxLength
	rt.trace(ray, &maxLen, fn)
}

func (rt *Raytracer) trace(ray Ray, cutoff *float32, fn LeafFunc) {
	rt.counters.IncRays(ray.Type)
	rt.mailbox.next()

	testsBefore, mailboxBefore := rt.primitiveTests, rt.mailboxHits
	rt.traverse(&ray, cutoff, fn)
	rt.counters.AddPrimitiveTests(rt.primitiveTests-testsBefore, rt.mailboxHits-mailboxBefore)
}

// Walk the tree front-to-back invoking fn for each non-empty leaf. Stack
// entries starting beyond *cutoff are skipped.
func (rt *Raytracer) traverse(ray *Ray, cutoff *float32, fn LeafFunc) {
	if !ray.Valid() || len(rt.tree.Nodes) == 0 {
		return
	}

	origin, dir := ray.Origin, ray.Direction
	invDir := types.Vec3{1 / dir[0], 1 / dir[1], 1 / dir[2]}
	tmin, tmax, ok := rt.tree.BBox.ClipRay(origin, dir, invDir, ray.MinLength, ray.MaxLength)
	if !ok {
		return
	}

	stack := rt.stack[:0]
	defer func() { rt.stack = stack[:0] }()

	nodeIndex := int32(0)
	for {
		node := &rt.tree.Nodes[nodeIndex]
		for node.Kind == kdtree.InnerNode {
			axis := node.Axis
			var near, far int32
			if origin[axis] < node.Split || (origin[axis] == node.Split && dir[axis] <= 0) {
				near, far = node.Left, node.Right
			} else {
				near, far = node.Right, node.Left
			}

			if dir[axis] == 0 {
				nodeIndex = near
			} else {
				tSplit := (node.Split - origin[axis]) * invDir[axis]
				switch {
				case tSplit > tmax || tSplit <= 0:
					nodeIndex = near
				case tSplit < tmin:
					nodeIndex = far
				default:
					stack = append(stack, stackEntry{node: far, tmin: tSplit, tmax: tmax})
					nodeIndex = near
					tmax = tSplit
				}
			}
			node = &rt.tree.Nodes[nodeIndex]
		}

		if node.PrimCount > 0 && !fn(nodeIndex, tmin, tmax) {
			return
		}

		// Pop the next subtree that may still contain hits.
		for {
			if len(stack) == 0 {
				return
			}
			entry := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if entry.tmin <= *cutoff {
				nodeIndex, tmin, tmax = entry.node, entry.tmin, entry.tmax
				break
			}
		}
	}
}

// Test a leaf primitive against the ray, returning hits closer than limit.
func (rt *Raytracer) testPrimitive(ray *Ray, primIndex int32, limit float32) (float32, float32, float32, bool) {
	if rt.mailbox.check(primIndex) {
		rt.mailboxHits++
		return 0, 0, 0, false
	}
	if ray.Candidates != nil && !ray.Candidates.Test(uint(primIndex)) {
		return 0, 0, 0, false
	}
	if ray.ignores(rt.tree.Primitives[primIndex]) {
		return 0, 0, 0, false
	}

	rt.primitiveTests++
	return rt.tree.Accel[primIndex].Intersect(ray.Origin, ray.Direction, ray.MinLength, limit)
}
