package raytracer

import (
	"github.com/achilleasa/lighter/types"
)

// The outcome of a visibility test.
type Visibility uint8

const (
	Visible Visibility = iota

	// Light reaches the target through one or more transparent surfaces.
	Partial

	Occluded
)

func (v Visibility) String() string {
	switch v {
	case Visible:
		return "visible"
	case Partial:
		return "partial"
	}
	return "occluded"
}

// Test whether the ray segment is unobstructed. Opaque shadow casters
// occlude the segment; transparent ones attenuate it by their material
// filter color which is returned along with the result.
func (rt *Raytracer) TestVisibility(ray Ray) (Visibility, types.Color) {
	white := types.Gray(1)
	if !ray.Valid() {
		return Visible, white
	}

	ray.Flags |= RayIgnoreNoShadow | RaySkipTransparent
	if rt.TraceAnyHit(ray) {
		return Occluded, types.Color{}
	}
	if !rt.hasTransparent {
		return Visible, white
	}

	ray.Flags &^= RaySkipTransparent
	filter := white
	partial := false
	rt.TraceAllHits(ray, func(hit HitPoint) bool {
		if !hit.Primitive.IsTransparent() {
			return true
		}
		partial = true
		filter = filter.MulColor(hit.Primitive.Object().Material.Filter)
		return !filter.IsBlack()
	})

	switch {
	case !partial:
		return Visible, white
	case filter.IsBlack():
		return Occluded, types.Color{}
	}
	return Partial, filter
}
