package lighting

import (
	"github.com/achilleasa/lighter/scene"
	"github.com/bits-and-blooms/bitset"
)

// The set of lights that may illuminate an object. It is computed once per
// object before any of its elements are shaded and is not modified
// afterwards.
type AffectingLights struct {
	// Indices into the light list the set was computed from.
	set    *bitset.BitSet
	lights []*scene.Light
}

// Collect the lights whose bounding sphere overlaps the object bounds.
func ComputeAffectingLights(obj *scene.Object, lights []*scene.Light) AffectingLights {
	al := AffectingLights{set: bitset.New(uint(len(lights)))}
	box := obj.BBox()
	for i, light := range lights {
		if light.Affects(box) {
			al.set.Set(uint(i))
			al.lights = append(al.lights, light)
		}
	}
	return al
}

// Create a set containing a single light.
func SingleLightSet(light *scene.Light) AffectingLights {
	al := AffectingLights{set: bitset.New(1), lights: []*scene.Light{light}}
	al.set.Set(0)
	return al
}

// Number of lights in the set.
func (al AffectingLights) Len() int {
	return len(al.lights)
}

// The lights in the set.
func (al AffectingLights) Lights() []*scene.Light {
	return al.lights
}

// Returns true if the light at index i of the source list is in the set.
func (al AffectingLights) Contains(i int) bool {
	return al.set != nil && al.set.Test(uint(i))
}
