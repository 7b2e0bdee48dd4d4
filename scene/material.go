package scene

import "github.com/achilleasa/lighter/types"

// Defines a surface material.
type Material struct {
	Name string

	// Diffuse reflectance. Its mean is used as the photon survival
	// probability when Russian roulette is enabled.
	Diffuse types.Color

	// Transmission filter for transparent surfaces.
	Filter types.Color

	// Transparent surfaces do not fully occlude light; shadow rays
	// passing through them are tinted by Filter.
	Transparent bool
}

// The material used by objects without one.
var DefaultMaterial = &Material{
	Name:    "default",
	Diffuse: types.Gray(0.7),
	Filter:  types.Gray(1),
}

// Get the material albedo.
func (m *Material) Albedo() types.Color {
	if m == nil {
		return DefaultMaterial.Diffuse
	}
	return m.Diffuse
}
