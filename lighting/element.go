package lighting

import (
	"github.com/achilleasa/lighter/raytracer"
	"github.com/achilleasa/lighter/sampling"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
)

// Coplanarity tolerances used when ignoring neighbors of border elements.
const (
	coplanarNormalEps float32 = 1e-3
	coplanarDistEps   float32 = 1e-3
)

// Shade all elements of an object (or its vertices for per-vertex lit
// objects). Contributions are added to the static lightmaps unless pdLight
// is set in which case they go to the light's own lightmaps.
func (sh *Shader) ShadeObject(obj *scene.Object, lights AffectingLights, pdLight *scene.Light) {
	if !obj.ReceivesLight() || lights.Len() == 0 {
		return
	}

	if obj.LitPerVertex() {
		sh.ShadeVertices(obj, lights, pdLight)
		return
	}

	casters := sh.ShadowCasters(obj, lights)
	sc := obj.Sector().Scene()
	for _, prim := range obj.Primitives {
		lm := sc.GetLightmap(prim.LightmapID, pdLight)
		if lm == nil {
			continue
		}
		sh.ShadePrimitive(prim, lights, lm, casters)
	}
}

// Collect the primitives that may shadow obj from a set of lights. Shadow
// rays end at the light position so they stay inside the box spanning the
// object and the light positions. Returns nil if a light has no position.
func (sh *Shader) ShadowCasters(obj *scene.Object, lights AffectingLights) *bitset.BitSet {
	box := obj.BBox()
	for _, l := range lights.lights {
		if l.Kind == scene.DirectionalLight {
			return nil
		}
		box = box.Extend(l.Position)
	}

	pad := types.Vec3{raytracer.RayEpsilon, raytracer.RayEpsilon, raytracer.RayEpsilon}
	box.Min = box.Min.Sub(pad)
	box.Max = box.Max.Add(pad)
	return sh.rt.Tree().CollectPrimitiveSet(box)
}

// Shade the lightmap elements covered by a primitive. Each element is
// sampled at up to 4 jittered sub-positions and the results are averaged.
// Shadow rays only test casters unless it is nil.
func (sh *Shader) ShadePrimitive(prim *scene.Primitive, lights AffectingLights, lm *scene.Lightmap, casters *bitset.BitSet) {
	if prim.Area() == 0 || prim.ElementCount() == 0 {
		return
	}

	sp := ShadingPoint{Primitive: prim, Object: prim.Object(), Casters: casters}
	coplanar := coplanarIgnore(prim)

	var shaded int
	for idx := 0; idx < prim.ElementCount(); idx++ {
		elemType := prim.ElementType(idx)
		if elemType == scene.ElementEmpty {
			continue
		}

		sh.offsets = sampling.JitteredOffsets(sh.sampler, sh.opts.ElementSamples, sh.opts.Jitter, sh.offsets)
		sh.positions = prim.ElementSamplePositions(idx, sh.offsets, sh.positions)

		sp.Ignore = nil
		if elemType == scene.ElementBorder {
			sp.Ignore = coplanar
		}

		var sum types.Color
		for _, pos := range sh.positions {
			sp.Position = pos
			sp.Normal = prim.ComputeNormal(pos)
			sum = sum.Add(sh.ShadePoint(&sp, lights))
		}
		color := sum.Mul(1 / float32(len(sh.positions)))
		if elemType == scene.ElementBorder && sh.opts.WeightBorders {
			color = color.Mul(prim.ElementFraction(idx))
		}

		if !color.IsBlack() {
			x, y := prim.ElementPixel(idx)
			lm.Lock()
			lm.SetAddPixel(x, y, color)
			lm.Unlock()
		}
		shaded++
	}

	sh.counters.AddElements(uint64(shaded))
}

// Shade the vertices of a per-vertex lit object.
func (sh *Shader) ShadeVertices(obj *scene.Object, lights AffectingLights, pdLight *scene.Light) {
	colors := obj.VertexColors(pdLight)
	sp := ShadingPoint{Object: obj, Casters: sh.ShadowCasters(obj, lights)}
	for i, pos := range obj.Positions {
		sp.Normal = obj.VertexNormal(i)
		if sp.Normal.IsZero() {
			continue
		}
		sp.Position = pos.Add(sp.Normal.Mul(raytracer.RayEpsilon))
		colors[i] = colors[i].Add(sh.ShadePoint(&sp, lights))
	}
	sh.counters.AddElements(uint64(len(obj.Positions)))
}

// Border element samples may land on the edge shared with neighboring
// coplanar primitives; rays from them ignore those neighbors.
func coplanarIgnore(prim *scene.Primitive) raytracer.IgnoreFunc {
	pl := prim.Plane()
	return func(other *scene.Primitive) bool {
		opl := other.Plane()
		return opl.Normal.Dot(pl.Normal) > 1-coplanarNormalEps && math32.Abs(opl.Dist-pl.Dist) < coplanarDistEps
	}
}
