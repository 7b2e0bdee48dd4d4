package kdtree

import (
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

// Precomputed intersection data for a triangle. The triangle is projected
// onto the plane perpendicular to the dominant axis of its normal; the hit
// distance is computed against the triangle plane and the barycentric
// weights are evaluated as two linear forms over the projected hit point.
type AccelPrimitive struct {
	// Dominant normal axis.
	k uint8

	// Plane: p[k] + nu*p[u] + nv*p[v] = nd
	nu, nv, nd float32

	// Barycentric weight of the second vertex.
	edgeB [3]float32

	// Barycentric weight of the third vertex.
	edgeC [3]float32

	degenerate bool
}

var axisModulo = [5]uint8{0, 1, 2, 0, 1}

// Precompute intersection data for a primitive. Degenerate primitives are
// flagged and never report hits.
func NewAccelPrimitive(prim *scene.Primitive) AccelPrimitive {
	a, b, c := prim.Vertices[0], prim.Vertices[1], prim.Vertices[2]
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	n := e1.Cross(e2)

	k := uint8(n.DominantAxis())
	u, v := axisModulo[k+1], axisModulo[k+2]

	if math32.Abs(n[k]) < types.FloatCmpEpsilon*types.FloatCmpEpsilon {
		return AccelPrimitive{degenerate: true}
	}

	det := e1[u]*e2[v] - e2[u]*e1[v]
	if det == 0 {
		return AccelPrimitive{degenerate: true}
	}
	invDet := 1 / det

	return AccelPrimitive{
		k:  k,
		nu: n[u] / n[k],
		nv: n[v] / n[k],
		nd: n.Dot(a) / n[k],
		edgeB: [3]float32{
			e2[v] * invDet,
			-e2[u] * invDet,
			(e2[u]*a[v] - e2[v]*a[u]) * invDet,
		},
		edgeC: [3]float32{
			-e1[v] * invDet,
			e1[u] * invDet,
			(e1[v]*a[u] - e1[u]*a[v]) * invDet,
		},
	}
}

// Returns true if the primitive can never be hit.
func (ap *AccelPrimitive) Degenerate() bool {
	return ap.degenerate
}

// Intersect a ray with the primitive. A hit is reported if its distance
// lies in [tmin, tmax). The returned lambda and mu values are the
// barycentric weights of the second and third vertex.
func (ap *AccelPrimitive) Intersect(origin, dir types.Vec3, tmin, tmax float32) (t, lambda, mu float32, ok bool) {
	if ap.degenerate {
		return 0, 0, 0, false
	}

	k := ap.k
	u, v := axisModulo[k+1], axisModulo[k+2]

	denom := dir[k] + ap.nu*dir[u] + ap.nv*dir[v]
	if denom == 0 {
		return 0, 0, 0, false
	}

	t = (ap.nd - origin[k] - ap.nu*origin[u] - ap.nv*origin[v]) / denom
	if !(t >= tmin && t < tmax) {
		return 0, 0, 0, false
	}

	hu := origin[u] + t*dir[u]
	hv := origin[v] + t*dir[v]

	lambda = hu*ap.edgeB[0] + hv*ap.edgeB[1] + ap.edgeB[2]
	if lambda < 0 {
		return 0, 0, 0, false
	}
	mu = hu*ap.edgeC[0] + hv*ap.edgeC[1] + ap.edgeC[2]
	if mu < 0 || lambda+mu > 1 {
		return 0, 0, 0, false
	}

	return t, lambda, mu, true
}
