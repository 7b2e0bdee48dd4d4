package lighting

import (
	"fmt"

	"github.com/achilleasa/lighter/raytracer"
	"github.com/achilleasa/lighter/sampling"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/stats"
	"github.com/achilleasa/lighter/types"
	"github.com/bits-and-blooms/bitset"
)

// The policy for distributing shadow rays among lights.
type Strategy uint8

const (
	// Sum the contributions of all affecting lights.
	AllLightsUniform Strategy = iota

	// Pick a single affecting light per sample and scale its
	// contribution by the number of affecting lights.
	RandomLightUniform

	// Shade a single externally specified light.
	SingleLight
)

// Parse a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "all":
		return AllLightsUniform, nil
	case "random":
		return RandomLightUniform, nil
	case "single":
		return SingleLight, nil
	}
	return 0, fmt.Errorf("lighting: unknown strategy %q", name)
}

func (s Strategy) String() string {
	switch s {
	case AllLightsUniform:
		return "all"
	case RandomLightUniform:
		return "random"
	case SingleLight:
		return "single"
	}
	return fmt.Sprintf("Strategy(%d)", s)
}

// Direct lighting options.
type Options struct {
	Strategy Strategy

	// Sub-samples per lightmap element (1 to 4).
	ElementSamples int

	// Sub-sample jitter amount in [0, 1].
	Jitter float32

	// Scale border element contributions by their covered area.
	WeightBorders bool
}

// A Shader computes direct illumination. Each worker goroutine should use
// its own shader.
type Shader struct {
	rt       *raytracer.Raytracer
	sampler  *sampling.RandomSampler
	opts     Options
	counters *stats.Counters

	// Scratch buffers.
	offsets   []types.Vec2
	positions []types.Vec3
}

// Create a shader. Counters may be nil.
func NewShader(rt *raytracer.Raytracer, sampler *sampling.RandomSampler, opts Options, counters *stats.Counters) *Shader {
	if opts.ElementSamples < 1 {
		opts.ElementSamples = 1
	} else if opts.ElementSamples > 4 {
		opts.ElementSamples = 4
	}
	return &Shader{
		rt:       rt,
		sampler:  sampler,
		opts:     opts,
		counters: counters,
	}
}

// A shading point.
type ShadingPoint struct {
	Position types.Vec3
	Normal   types.Vec3

	// The primitive the point lies on; nil for vertices.
	Primitive *scene.Primitive
	Object    *scene.Object

	// Rays from the point ignore primitives for which this returns true.
	Ignore raytracer.IgnoreFunc

	// Shadow rays only test these tree primitives when set.
	Casters *bitset.BitSet
}

// Compute the contribution of a single light at a shading point.
func (sh *Shader) ShadeLight(light *scene.Light, sp *ShadingPoint) types.Color {
	sample := light.Sample(sp.Position)
	if sample.Pdf <= 0 || sample.Color.IsBlack() {
		return types.Color{}
	}

	cosTheta := sp.Normal.Dot(sample.Direction)
	if cosTheta <= 0 {
		return types.Color{}
	}

	ray := raytracer.Ray{
		Origin:          sp.Position,
		Direction:       sample.Direction,
		MinLength:       raytracer.RayEpsilon,
		MaxLength:       sample.VisibilityDistance - raytracer.RayEpsilon,
		IgnorePrimitive: sp.Primitive,
		Ignore:          sp.Ignore,
		Candidates:      sp.Casters,
		Type:            stats.ShadowRay,
	}
	if sp.Object != nil && sp.Object.Flags&scene.ObjectNoSelfShadow != 0 {
		ray.IgnoreObject = sp.Object
	}

	color := sample.Color
	vis, filter := sh.rt.TestVisibility(ray)
	switch vis {
	case raytracer.Occluded:
		return types.Color{}
	case raytracer.Partial:
		color = color.MulColor(filter)
	}

	return color.Mul(cosTheta / sample.Pdf)
}

// Compute the direct illumination at a shading point from a set of lights
// using the configured strategy.
func (sh *Shader) ShadePoint(sp *ShadingPoint, lights AffectingLights) types.Color {
	var out types.Color
	switch {
	case lights.Len() == 0:
	case sh.opts.Strategy == RandomLightUniform:
		light := lights.lights[sh.sampler.Intn(lights.Len())]
		out = sh.ShadeLight(light, sp).Mul(float32(lights.Len()))
	default:
		for _, light := range lights.lights {
			out = out.Add(sh.ShadeLight(light, sp))
		}
	}
	return out
}
