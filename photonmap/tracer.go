package photonmap

import (
	"github.com/achilleasa/lighter/log"
	"github.com/achilleasa/lighter/raytracer"
	"github.com/achilleasa/lighter/sampling"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/stats"
	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

// Path length limit applied when the maximum recursion depth is unbounded.
// Without it photons could bounce forever inside closed white rooms.
const unboundedDepthLimit = 256

// Photon tracing options.
type Options struct {
	// Maximum number of surface interactions per photon path; 0 means
	// unbounded.
	MaxRecursionDepth int

	// Terminate paths probabilistically based on surface albedo.
	RussianRoulette bool
}

// Split a photon budget among lights in proportion to their lumen power.
// Lights that cannot emit photons get a zero share.
func AllocatePhotons(lights []*scene.Light, total int) []int {
	logger := log.New("photonmap")
	counts := make([]int, len(lights))

	var totalPower float32
	for _, l := range lights {
		if CanEmit(l) {
			totalPower += l.LumenPower()
		}
	}

	for i, l := range lights {
		if !CanEmit(l) {
			if kind := l.SourceKind(); kind == scene.DirectionalLight || kind == scene.SpotLight {
				logger.Infof("ignoring %s light %q for indirect lighting", kind, l.Name)
			}
			continue
		}
		if totalPower <= 0 {
			continue
		}
		counts[i] = int(float32(total)*l.LumenPower()/totalPower + 0.5)
	}
	return counts
}

// Returns true if photons can be emitted from the light.
func CanEmit(l *scene.Light) bool {
	switch kind := l.SourceKind(); {
	case kind == scene.DirectionalLight || kind == scene.SpotLight:
		return false
	case l.IsPseudoDynamic():
		return false
	}
	return l.LumenPower() > 0
}

// A Tracer emits photons and follows their paths through a sector. Each
// worker goroutine should use its own tracer.
type Tracer struct {
	rt       *raytracer.Raytracer
	sampler  sampling.Sampler
	photons  *PhotonMap
	opts     Options
	counters *stats.Counters

	batch []Photon
}

// Create a photon tracer storing photons into pm. Counters may be nil.
func NewTracer(rt *raytracer.Raytracer, sampler sampling.Sampler, pm *PhotonMap, opts Options, counters *stats.Counters) *Tracer {
	return &Tracer{
		rt:       rt,
		sampler:  sampler,
		photons:  pm,
		opts:     opts,
		counters: counters,
	}
}

// Emit count photons from light. Each photon carries an equal share of the
// power of totalCount photons emitted by the light. Point lights emit
// uniformly over the sphere so the radiant intensity of a light (color x
// power per steradian) is converted to a flux of 4*pi times that value.
func (t *Tracer) EmitPhotons(light *scene.Light, count, totalCount int) {
	if count <= 0 || totalCount <= 0 {
		return
	}

	power := light.Color.Mul(light.Power * 4 * math32.Pi / float32(totalCount))
	t.batch = t.batch[:0]
	var stored int
	for i := 0; i < count; i++ {
		dir := sampling.UniformSphere(t.sampler.Get2D())
		origin, ok := light.EmissionOrigin(dir)
		if !ok {
			continue
		}
		stored += t.tracePhoton(origin, dir, power)
	}

	t.photons.StoreBatch(t.batch)
	t.counters.AddPhotons(uint64(count), uint64(stored))
}

// Follow a photon path, returning the number of photons deposited.
func (t *Tracer) tracePhoton(origin, dir types.Vec3, power types.Color) int {
	maxDepth := t.opts.MaxRecursionDepth
	if maxDepth <= 0 {
		maxDepth = unboundedDepthLimit
	}

	var ignore *scene.Primitive
	var stored int
	for depth := 0; depth < maxDepth; depth++ {
		hit, ok := t.rt.TraceClosestHit(raytracer.Ray{
			Origin:          origin,
			Direction:       dir,
			MinLength:       raytracer.RayEpsilon,
			MaxLength:       math32.MaxFloat32,
			Flags:           raytracer.RayIgnoreNoShadow,
			IgnorePrimitive: ignore,
			Type:            stats.PhotonRay,
		})
		if !ok {
			break
		}

		t.batch = append(t.batch, Photon{
			Position:  hit.Position,
			Direction: dir,
			Power:     power,
			Depth:     uint8(min(depth, 255)),
		})
		stored++

		albedo := hit.Primitive.Object().Material.Albedo()
		if t.opts.RussianRoulette {
			pd := albedo.Mean()
			if depth > 0 {
				if pd <= 0 || t.sampler.Get1D() > pd {
					break
				}
				power = power.MulColor(albedo).Mul(1 / pd)
			} else {
				power = power.MulColor(albedo)
			}
		} else {
			power = power.MulColor(albedo)
		}
		if power.IsBlack() {
			break
		}

		// Scatter into the hemisphere containing the mirror lobe.
		normal := hit.Primitive.ComputeNormal(hit.Position)
		if lobe := sampling.Reflect(dir, normal); lobe.Dot(normal) < 0 {
			normal = normal.Neg()
		}
		origin = hit.Position
		dir = sampling.CosineHemisphere(normal, t.sampler.Get2D())
		ignore = hit.Primitive
	}

	return stored
}
