package raytracer

import (
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/stats"
	"github.com/achilleasa/lighter/types"
	"github.com/bits-and-blooms/bitset"
)

// Offset applied to ray origins to avoid self intersections.
const RayEpsilon float32 = 1e-4

// Ray flags tweak which primitives a ray may hit.
type RayFlags uint8

const (
	// Skip primitives that do not cast shadows.
	RayIgnoreNoShadow RayFlags = 1 << iota

	// Skip transparent primitives.
	RaySkipTransparent
)

// A callback for rejecting individual primitives.
type IgnoreFunc func(prim *scene.Primitive) bool

// A ray segment. Hits are reported in [MinLength, MaxLength) measured in
// units of Direction.
type Ray struct {
	Origin    types.Vec3
	Direction types.Vec3

	MinLength float32
	MaxLength float32

	Flags RayFlags

	// The primitive the ray originates from.
	IgnorePrimitive *scene.Primitive

	// Set for rays leaving objects that do not shadow themselves.
	IgnoreObject *scene.Object

	Ignore IgnoreFunc

	// If set, only primitives whose tree index is in the set are tested.
	Candidates *bitset.BitSet

	Type stats.RayType
}

// Create a ray from origin towards target stopping just short of it.
func NewSegmentRay(origin, target types.Vec3, rayType stats.RayType) Ray {
	dir := target.Sub(origin)
	dist := dir.Len()
	if dist > 0 {
		dir = dir.Mul(1 / dist)
	}
	return Ray{
		Origin:    origin,
		Direction: dir,
		MinLength: RayEpsilon,
		MaxLength: dist - RayEpsilon,
		Type:      rayType,
	}
}

// Returns true if the ray can intersect anything.
func (r *Ray) Valid() bool {
	return !r.Direction.IsZero() && r.MinLength < r.MaxLength
}

// The point at distance t along the ray.
func (r *Ray) At(t float32) types.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

func (r *Ray) ignores(prim *scene.Primitive) bool {
	switch {
	case prim == r.IgnorePrimitive:
		return true
	case r.IgnoreObject != nil && prim.Object() == r.IgnoreObject:
		return true
	case r.Flags&RayIgnoreNoShadow != 0 && !prim.CastsShadows():
		return true
	case r.Flags&RaySkipTransparent != 0 && prim.IsTransparent():
		return true
	case r.Ignore != nil && r.Ignore(prim):
		return true
	}
	return false
}

// A ray-primitive intersection.
type HitPoint struct {
	Primitive *scene.Primitive
	Distance  float32
	Position  types.Vec3

	// Barycentric weights of the second and third primitive vertex.
	Lambda float32
	Mu     float32
}
