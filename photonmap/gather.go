package photonmap

import (
	"github.com/achilleasa/lighter/raytracer"
	"github.com/achilleasa/lighter/sampling"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/stats"
	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

// IrradianceSource provides irradiance estimates at arbitrary surface points.
type IrradianceSource interface {
	Irradiance(pos, normal types.Vec3) types.Color
}

// Estimate the indirect irradiance at a surface point by casting numRays
// cosine weighted rays over the hemisphere around normal and integrating
// the radiance reflected by the surfaces they hit. Ray directions follow a
// randomly rotated Halton sequence.
func FinalGather(rt *raytracer.Raytracer, sampler sampling.Sampler, prim *scene.Primitive, pos, normal types.Vec3, numRays int, source IrradianceSource) types.Color {
	if numRays <= 0 {
		return types.Color{}
	}

	var sum types.Color
	offset := sampler.Get2D()
	for i := 0; i < numRays; i++ {
		dir := sampling.CosineHemisphere(normal, sampling.RotatedHalton2D(uint32(i+1), offset))
		cosTheta := dir.Dot(normal)
		if cosTheta < 0 {
			dir, cosTheta = dir.Neg(), -cosTheta
		}
		pdf := sampling.CosineHemispherePdf(cosTheta)
		if pdf <= 0 {
			continue
		}

		hit, ok := rt.TraceClosestHit(raytracer.Ray{
			Origin:          pos,
			Direction:       dir,
			MinLength:       raytracer.RayEpsilon,
			MaxLength:       math32.MaxFloat32,
			Flags:           raytracer.RayIgnoreNoShadow,
			IgnorePrimitive: prim,
			Type:            stats.FinalGatherRay,
		})
		if !ok {
			continue
		}

		hitNormal := hit.Primitive.ComputeNormal(hit.Position)
		if hitNormal.Dot(dir) > 0 {
			hitNormal = hitNormal.Neg()
		}

		// Lambertian surfaces reflect albedo/pi of their irradiance.
		albedo := hit.Primitive.Object().Material.Albedo()
		radiance := source.Irradiance(hit.Position, hitNormal).MulColor(albedo).Mul(1 / math32.Pi)
		sum = sum.Add(radiance.Mul(cosTheta / pdf))
	}

	return sum.Mul(1 / float32(numRays))
}

// An IrradianceSource backed by photon density estimation.
type DensitySource struct {
	Photons *PhotonMap
	Radius  float32
}

// Estimate the irradiance from all photons around pos.
func (ds DensitySource) Irradiance(pos, normal types.Vec3) types.Color {
	return ds.Photons.EstimateIrradiance(pos, normal, ds.Radius, 0).Irradiance
}
