package lighting

import (
	"github.com/achilleasa/lighter/raytracer"
	"github.com/achilleasa/lighter/sampling"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/types"
)

// IrradianceFunc returns the indirect irradiance arriving at a point of prim.
// Prim is nil for vertex shading points.
type IrradianceFunc func(prim *scene.Primitive, pos, normal types.Vec3) types.Color

// Add the indirect irradiance reported by fn to the static lightmaps (or
// lit vertex colors) of obj. Elements are sampled once at their center.
func (sh *Shader) ShadeObjectIndirect(obj *scene.Object, fn IrradianceFunc) {
	if !obj.ReceivesLight() {
		return
	}

	if obj.LitPerVertex() {
		colors := obj.VertexColors(nil)
		for i, pos := range obj.Positions {
			normal := obj.VertexNormal(i)
			if normal.IsZero() {
				continue
			}
			colors[i] = colors[i].Add(fn(nil, pos.Add(normal.Mul(raytracer.RayEpsilon)), normal))
		}
		sh.counters.AddElements(uint64(len(obj.Positions)))
		return
	}

	sc := obj.Sector().Scene()
	for _, prim := range obj.Primitives {
		lm := sc.GetLightmap(prim.LightmapID, nil)
		if lm == nil || prim.Area() == 0 {
			continue
		}

		var shaded int
		for idx := 0; idx < prim.ElementCount(); idx++ {
			elemType := prim.ElementType(idx)
			if elemType == scene.ElementEmpty {
				continue
			}

			sh.offsets = sampling.JitteredOffsets(sh.sampler, 1, 0, sh.offsets)
			sh.positions = prim.ElementSamplePositions(idx, sh.offsets, sh.positions)
			pos := sh.positions[0]

			color := fn(prim, pos, prim.ComputeNormal(pos))
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
}
