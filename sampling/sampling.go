package sampling

import (
	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

// Sample a direction uniformly over the unit sphere.
func UniformSphere(u types.Vec2) types.Vec3 {
	z := 1 - 2*u[0]
	r := math32.Sqrt(math32.Max(0, 1-z*z))
	phi := 2 * math32.Pi * u[1]
	return types.Vec3{r * math32.Cos(phi), r * math32.Sin(phi), z}
}

// Sample a cosine weighted direction in the hemisphere around the unit
// normal n. The normal is tilted by theta = acos(sqrt(u0)) around a tangent
// and then spun by phi = 2*pi*u1 around itself.
func CosineHemisphere(n types.Vec3, u types.Vec2) types.Vec3 {
	theta := math32.Acos(math32.Sqrt(u[0]))
	phi := 2 * math32.Pi * u[1]

	tangent, _ := types.OrthoBasis(n)
	tilt := types.QuatFromAxisAngle(tangent, theta)
	spin := types.QuatFromAxisAngle(n, phi)
	return spin.Rotate(tilt.Rotate(n)).Normalize()
}

// The pdf of CosineHemisphere for a direction with cosine cosTheta.
func CosineHemispherePdf(cosTheta float32) float32 {
	return cosTheta / math32.Pi
}

// Mirror d around the unit normal n.
func Reflect(d, n types.Vec3) types.Vec3 {
	return d.Sub(n.Mul(2 * d.Dot(n)))
}
