package scene

import (
	"image"
	"image/color"
	"sync"

	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

// A lightmap stores the baked irradiance of a set of primitives. Writers
// must hold the lightmap lock while updating pixels.
type Lightmap struct {
	ID     int
	Width  int
	Height int

	// The pseudo-dynamic light baked into this lightmap; zero for the
	// static lightmap.
	Light LightID

	mutex sync.Mutex
	data  []types.Color
}

// Create a black lightmap.
func NewLightmap(id, width, height int) *Lightmap {
	return &Lightmap{
		ID:     id,
		Width:  width,
		Height: height,
		data:   make([]types.Color, width*height),
	}
}

// Acquire the lightmap write lock.
func (lm *Lightmap) Lock() {
	lm.mutex.Lock()
}

// Release the lightmap write lock.
func (lm *Lightmap) Unlock() {
	lm.mutex.Unlock()
}

// Add a color to a pixel. Out of range coordinates are ignored.
func (lm *Lightmap) SetAddPixel(x, y int, c types.Color) {
	if x < 0 || y < 0 || x >= lm.Width || y >= lm.Height {
		return
	}
	idx := y*lm.Width + x
	lm.data[idx] = lm.data[idx].Add(c)
}

// Get a pixel value.
func (lm *Lightmap) Pixel(x, y int) types.Color {
	if x < 0 || y < 0 || x >= lm.Width || y >= lm.Height {
		return types.Color{}
	}
	return lm.data[y*lm.Width+x]
}

// Get the raw pixel data in row-major order.
func (lm *Lightmap) Data() []types.Color {
	return lm.data
}

// Convert the lightmap to an 8-bit image. Pixel values are multiplied by
// scale and clamped to [0, 1].
func (lm *Lightmap) ToImage(scale float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, lm.Width, lm.Height))
	toByte := func(v float32) uint8 {
		return uint8(math32.Min(math32.Max(v*scale, 0), 1)*255 + 0.5)
	}
	for y := 0; y < lm.Height; y++ {
		for x := 0; x < lm.Width; x++ {
			c := lm.data[y*lm.Width+x]
			img.SetRGBA(x, y, color.RGBA{toByte(c[0]), toByte(c[1]), toByte(c[2]), 255})
		}
	}
	return img
}
