package scene

import (
	"errors"

	"github.com/achilleasa/lighter/log"
	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

// Layout options for LayoutLightmaps.
type LayoutOptions struct {
	// Lightmap texels per world unit.
	TexelsPerUnit float32

	// Maximum lightmap width and height.
	MaxSize int

	// Empty texels around each primitive footprint.
	Margin int
}

var errInvalidLayoutOptions = errors.New("scene: texels per unit, max size must be positive and margin non-negative")

// Assign lightmap coordinates to all lightmapped primitives. Each primitive
// is projected onto its plane and packed in rows (shelves) into lightmaps
// of at most MaxSize x MaxSize texels. Primitives whose footprint exceeds
// the lightmap size are scaled down.
func LayoutLightmaps(sc *Scene, opts LayoutOptions) error {
	if opts.TexelsPerUnit <= 0 || opts.MaxSize <= 0 || opts.Margin < 0 || 2*opts.Margin+1 >= opts.MaxSize {
		return errInvalidLayoutOptions
	}

	logger := log.New("layout")
	packer := &shelfPacker{maxSize: opts.MaxSize}
	sc.LightmapSizes = sc.LightmapSizes[:0]

	var numPrims int
	for _, sector := range sc.Sectors {
		for _, obj := range sector.Objects {
			if obj.LitPerVertex() {
				continue
			}
			for _, prim := range obj.Primitives {
				uvs, w, h := projectPrimitive(prim, opts)
				id, x, y := packer.place(w+2*opts.Margin, h+2*opts.Margin)
				offset := types.Vec2{float32(x + opts.Margin), float32(y + opts.Margin)}
				for i := range uvs {
					uvs[i] = uvs[i].Add(offset)
				}
				prim.SetLightmapUVs(id, uvs)
				numPrims++
			}
		}
	}

	sc.LightmapSizes = packer.sizes()
	logger.Debugf("laid out %d primitives in %d lightmaps", numPrims, len(sc.LightmapSizes))
	return nil
}

// Project a primitive onto its plane and return its texel coordinates
// relative to the footprint origin along with the footprint size.
func projectPrimitive(prim *Primitive, opts LayoutOptions) (uvs [3]types.Vec2, w, h int) {
	t, b := types.OrthoBasis(prim.Plane().Normal)
	density := opts.TexelsPerUnit
	maxExtent := float32(opts.MaxSize - 2*opts.Margin - 1)

	for pass := 0; pass < 2; pass++ {
		minUV := types.Vec2{math32.MaxFloat32, math32.MaxFloat32}
		maxUV := types.Vec2{-math32.MaxFloat32, -math32.MaxFloat32}
		for i, v := range prim.Vertices {
			uvs[i] = types.Vec2{v.Dot(t) * density, v.Dot(b) * density}
			minUV = types.Vec2{math32.Min(minUV[0], uvs[i][0]), math32.Min(minUV[1], uvs[i][1])}
			maxUV = types.Vec2{math32.Max(maxUV[0], uvs[i][0]), math32.Max(maxUV[1], uvs[i][1])}
		}

		extent := math32.Max(maxUV[0]-minUV[0], maxUV[1]-minUV[1])
		if pass == 0 && extent > maxExtent {
			density *= 0.999 * maxExtent / extent
			continue
		}

		for i := range uvs {
			uvs[i] = uvs[i].Sub(minUV)
		}
		w = int(math32.Ceil(maxUV[0]-minUV[0])) + 1
		h = int(math32.Ceil(maxUV[1]-minUV[1])) + 1
		break
	}
	return uvs, w, h
}

type shelfPacker struct {
	maxSize int

	// Per lightmap state.
	used   []int
	widths []int
	cur    int
	x, y   int
	shelfH int
}

func (p *shelfPacker) place(w, h int) (id, x, y int) {
	if len(p.used) == 0 {
		p.newLightmap()
	}

	if p.x+w > p.maxSize {
		p.y += p.shelfH
		p.x, p.shelfH = 0, 0
	}
	if p.y+h > p.maxSize {
		p.newLightmap()
	}

	id, x, y = p.cur, p.x, p.y
	p.x += w
	if h > p.shelfH {
		p.shelfH = h
	}
	if p.y+p.shelfH > p.used[p.cur] {
		p.used[p.cur] = p.y + p.shelfH
	}
	if p.x > p.widths[p.cur] {
		p.widths[p.cur] = p.x
	}
	return id, x, y
}

func (p *shelfPacker) newLightmap() {
	p.used = append(p.used, 0)
	p.widths = append(p.widths, 0)
	p.cur = len(p.used) - 1
	p.x, p.y, p.shelfH = 0, 0, 0
}

func (p *shelfPacker) sizes() [][2]int {
	out := make([][2]int, len(p.used))
	for i := range p.used {
		out[i] = [2]int{p.widths[i], p.used[i]}
	}
	return out
}
