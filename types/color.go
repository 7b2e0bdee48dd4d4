package types

// An RGB color or radiant power triplet.
type Color [3]float32

// Define a color from its components.
func RGB(r, g, b float32) Color {
	return Color{r, g, b}
}

// Create a gray color with all components set to v.
func Gray(v float32) Color {
	return Color{v, v, v}
}

// Add a color.
func (c Color) Add(c2 Color) Color {
	return Color{c[0] + c2[0], c[1] + c2[1], c[2] + c2[2]}
}

// Scale all components.
func (c Color) Mul(s float32) Color {
	return Color{c[0] * s, c[1] * s, c[2] * s}
}

// Component-wise multiplication (filtering).
func (c Color) MulColor(c2 Color) Color {
	return Color{c[0] * c2[0], c[1] * c2[1], c[2] * c2[2]}
}

// True if all components are zero or negative.
func (c Color) IsBlack() bool {
	return c[0] <= 0 && c[1] <= 0 && c[2] <= 0
}

// The average of the three components.
func (c Color) Mean() float32 {
	return (c[0] + c[1] + c[2]) / 3.0
}

// Rec. 709 luminance.
func (c Color) Luminance() float32 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}
