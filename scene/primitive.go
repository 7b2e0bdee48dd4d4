package scene

import (
	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

// The classification of a lightmap element with respect to its primitive.
type ElementType uint8

const (
	// The element does not overlap the primitive.
	ElementEmpty ElementType = iota

	// The element partially overlaps the primitive.
	ElementBorder

	// The element is fully covered by the primitive.
	ElementFull
)

// Elements whose covered area differs from 0 or 1 by less than this
// threshold are classified as empty or full.
const elementAreaEpsilon float32 = 1e-4

// A plane defined by its unit normal and distance so that Normal·p = Dist.
type Plane struct {
	Normal types.Vec3
	Dist   float32
}

// Signed distance from p to the plane.
func (pl Plane) Distance(p types.Vec3) float32 {
	return pl.Normal.Dot(p) - pl.Dist
}

// A triangle primitive. Primitives are immutable once their owning sector
// has been prepared.
type Primitive struct {
	Vertices    [3]types.Vec3
	Normals     [3]types.Vec3
	LightmapUVs [3]types.Vec2

	// The lightmap this primitive is laid out in.
	LightmapID int

	// A sector-wide unique index assigned by Sector.Prepare.
	Index int

	object *Object

	plane Plane
	bbox  types.BBox
	area  float32

	// Barycentric helpers.
	edge0, edge1        types.Vec3
	d00, d01, d11, invD float32

	// World space vectors spanning one lightmap element along u and v.
	uFormVector types.Vec3
	vFormVector types.Vec3

	// Element grid.
	minU, minV     int
	countU, countV int
	minCoord       types.Vec3
	elements       []ElementType
	fractions      []float32
	centroids      []types.Vec2
}

// Create a new triangle primitive. If the vertex normals are zero the
// geometric normal is used instead.
func NewPrimitive(obj *Object, vertices, normals [3]types.Vec3) *Primitive {
	prim := &Primitive{
		Vertices: vertices,
		Normals:  normals,
		object:   obj,
	}

	prim.edge0 = vertices[1].Sub(vertices[0])
	prim.edge1 = vertices[2].Sub(vertices[0])
	cross := prim.edge0.Cross(prim.edge1)
	prim.area = 0.5 * cross.Len()

	normal := cross.Normalize()
	prim.plane = Plane{Normal: normal, Dist: normal.Dot(vertices[0])}
	prim.bbox = types.BBoxFromPoints(vertices[0], vertices[1], vertices[2])

	for i := 0; i < 3; i++ {
		if prim.Normals[i].IsZero() {
			prim.Normals[i] = normal
		}
	}

	prim.d00 = prim.edge0.Dot(prim.edge0)
	prim.d01 = prim.edge0.Dot(prim.edge1)
	prim.d11 = prim.edge1.Dot(prim.edge1)
	denom := prim.d00*prim.d11 - prim.d01*prim.d01
	if denom != 0 {
		prim.invD = 1.0 / denom
	}

	return prim
}

// The object owning this primitive.
func (p *Primitive) Object() *Object {
	return p.object
}

// The primitive plane.
func (p *Primitive) Plane() Plane {
	return p.plane
}

// The primitive AABB.
func (p *Primitive) BBox() types.BBox {
	return p.bbox
}

// The primitive surface area.
func (p *Primitive) Area() float32 {
	return p.area
}

// The primitive centroid.
func (p *Primitive) Center() types.Vec3 {
	return p.Vertices[0].Add(p.Vertices[1]).Add(p.Vertices[2]).Mul(1.0 / 3.0)
}

// The world space vector matching a one element step along the lightmap u axis.
func (p *Primitive) UFormVector() types.Vec3 {
	return p.uFormVector
}

// The world space vector matching a one element step along the lightmap v axis.
func (p *Primitive) VFormVector() types.Vec3 {
	return p.vFormVector
}

// Returns true if the primitive casts shadows.
func (p *Primitive) CastsShadows() bool {
	return p.object == nil || p.object.Flags&ObjectNoShadow == 0
}

// Returns true if the primitive lets light through, filtered by its material.
func (p *Primitive) IsTransparent() bool {
	return p.object != nil && p.object.Material != nil && p.object.Material.Transparent
}

// Compute the barycentric weights of the second and third vertex for a
// point on the primitive plane. The first vertex weight is 1 - b1 - b2.
func (p *Primitive) ComputeBaryCoords(pt types.Vec3) (b1, b2 float32) {
	v2 := pt.Sub(p.Vertices[0])
	d20 := v2.Dot(p.edge0)
	d21 := v2.Dot(p.edge1)
	b1 = (p.d11*d20 - p.d01*d21) * p.invD
	b2 = (p.d00*d21 - p.d01*d20) * p.invD
	return b1, b2
}

// Returns true if pt (assumed to lie on the primitive plane) is inside the triangle.
func (p *Primitive) PointInside(pt types.Vec3) bool {
	b1, b2 := p.ComputeBaryCoords(pt)
	return b1 >= 0 && b2 >= 0 && b1+b2 <= 1
}

// Compute the interpolated shading normal at a point on the primitive.
func (p *Primitive) ComputeNormal(pt types.Vec3) types.Vec3 {
	b1, b2 := p.ComputeBaryCoords(pt)
	b1 = clamp01(b1)
	b2 = clamp01(b2)
	if b1+b2 > 1 {
		s := 1 / (b1 + b2)
		b1 *= s
		b2 *= s
	}

	n := p.Normals[0].Mul(1 - b1 - b2).Add(p.Normals[1].Mul(b1)).Add(p.Normals[2].Mul(b2)).Normalize()
	if n.IsZero() {
		return p.plane.Normal
	}
	return n
}

// Assign lightmap coordinates (in lightmap texel units) and compute the
// element grid covering the primitive.
func (p *Primitive) SetLightmapUVs(lightmapID int, uvs [3]types.Vec2) {
	p.LightmapID = lightmapID
	p.LightmapUVs = uvs
	p.prepareElements()
}

func (p *Primitive) prepareElements() {
	uvs := p.LightmapUVs
	p.uFormVector, p.vFormVector = types.Vec3{}, types.Vec3{}
	p.countU, p.countV = 0, 0
	p.elements, p.fractions, p.centroids = nil, nil, nil

	du1 := uvs[1].Sub(uvs[0])
	du2 := uvs[2].Sub(uvs[0])
	det := du1[0]*du2[1] - du2[0]*du1[1]
	if math32.Abs(det) < types.FloatCmpEpsilon || p.area == 0 {
		return
	}

	invDet := 1.0 / det
	p.uFormVector = p.edge0.Mul(du2[1] * invDet).Add(p.edge1.Mul(-du1[1] * invDet))
	p.vFormVector = p.edge0.Mul(-du2[0] * invDet).Add(p.edge1.Mul(du1[0] * invDet))

	minUV := types.Vec2{
		math32.Min(uvs[0][0], math32.Min(uvs[1][0], uvs[2][0])),
		math32.Min(uvs[0][1], math32.Min(uvs[1][1], uvs[2][1])),
	}
	maxUV := types.Vec2{
		math32.Max(uvs[0][0], math32.Max(uvs[1][0], uvs[2][0])),
		math32.Max(uvs[0][1], math32.Max(uvs[1][1], uvs[2][1])),
	}

	p.minU = int(math32.Floor(minUV[0]))
	p.minV = int(math32.Floor(minUV[1]))
	p.countU = int(math32.Ceil(maxUV[0])) - p.minU
	p.countV = int(math32.Ceil(maxUV[1])) - p.minV
	if p.countU < 1 {
		p.countU = 1
	}
	if p.countV < 1 {
		p.countV = 1
	}

	p.minCoord = p.Vertices[0].
		Add(p.uFormVector.Mul(float32(p.minU) - uvs[0][0])).
		Add(p.vFormVector.Mul(float32(p.minV) - uvs[0][1]))

	numElements := p.countU * p.countV
	p.elements = make([]ElementType, numElements)
	p.fractions = make([]float32, numElements)
	p.centroids = make([]types.Vec2, numElements)

	for v := 0; v < p.countV; v++ {
		for u := 0; u < p.countU; u++ {
			idx := v*p.countU + u
			x0, y0 := float32(p.minU+u), float32(p.minV+v)
			square := []types.Vec2{{x0, y0}, {x0 + 1, y0}, {x0 + 1, y0 + 1}, {x0, y0 + 1}}
			clipped := clipPolygonToTriangle(square, uvs)
			area, centroid := polygonAreaCentroid(clipped)

			p.fractions[idx] = area
			p.centroids[idx] = centroid
			switch {
			case area < elementAreaEpsilon:
				p.elements[idx] = ElementEmpty
			case area > 1-elementAreaEpsilon:
				p.elements[idx] = ElementFull
				p.fractions[idx] = 1
			default:
				p.elements[idx] = ElementBorder
			}
		}
	}
}

// Get the number of lightmap elements covering the primitive footprint.
func (p *Primitive) ElementCount() int {
	return len(p.elements)
}

// Get the classification of an element.
func (p *Primitive) ElementType(index int) ElementType {
	return p.elements[index]
}

// Get the fraction of the element area covered by the primitive.
func (p *Primitive) ElementFraction(index int) float32 {
	return p.fractions[index]
}

// Get the lightmap pixel coordinates of an element.
func (p *Primitive) ElementPixel(index int) (x, y int) {
	return p.minU + index%p.countU, p.minV + index/p.countU
}

// Get the world space center of an element.
func (p *Primitive) ElementCenter(index int) types.Vec3 {
	u, v := index%p.countU, index/p.countU
	return p.minCoord.
		Add(p.uFormVector.Mul(float32(u) + 0.5)).
		Add(p.vFormVector.Mul(float32(v) + 0.5))
}

// Map a lightmap coordinate to a world space position on the primitive plane.
func (p *Primitive) LightmapToWorld(uv types.Vec2) types.Vec3 {
	return p.minCoord.
		Add(p.uFormVector.Mul(uv[0] - float32(p.minU))).
		Add(p.vFormVector.Mul(uv[1] - float32(p.minV)))
}

// Get the world space sub-sample positions for an element. Each offset is
// specified in element units relative to the element center. For border
// elements, offsets falling outside the primitive are moved to the centroid
// of the covered element region.
func (p *Primitive) ElementSamplePositions(index int, offsets []types.Vec2, out []types.Vec3) []types.Vec3 {
	out = out[:0]
	u, v := index%p.countU, index/p.countU
	center := types.Vec2{float32(p.minU+u) + 0.5, float32(p.minV+v) + 0.5}
	border := p.elements[index] == ElementBorder

	for _, off := range offsets {
		uv := center.Add(off)
		if border && !pointInTriangle2D(uv, p.LightmapUVs) {
			uv = p.centroids[index]
		}
		out = append(out, p.LightmapToWorld(uv))
	}
	return out
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clip a convex polygon against the three edges of a 2D triangle
// (Sutherland-Hodgman). Works for both triangle windings.
func clipPolygonToTriangle(poly []types.Vec2, tri [3]types.Vec2) []types.Vec2 {
	sign := float32(1)
	if types.Area2(tri[0], tri[1], tri[2]) < 0 {
		sign = -1
	}

	for e := 0; e < 3 && len(poly) > 0; e++ {
		a, b := tri[e], tri[(e+1)%3]
		inside := func(pt types.Vec2) float32 {
			return sign * types.Area2(a, b, pt)
		}

		out := make([]types.Vec2, 0, len(poly)+1)
		for i := range poly {
			cur := poly[i]
			prev := poly[(i+len(poly)-1)%len(poly)]
			dCur, dPrev := inside(cur), inside(prev)

			if dCur >= 0 {
				if dPrev < 0 {
					out = append(out, intersect2D(prev, cur, dPrev, dCur))
				}
				out = append(out, cur)
			} else if dPrev >= 0 {
				out = append(out, intersect2D(prev, cur, dPrev, dCur))
			}
		}
		poly = out
	}
	return poly
}

func intersect2D(p0, p1 types.Vec2, d0, d1 float32) types.Vec2 {
	t := d0 / (d0 - d1)
	return p0.Add(p1.Sub(p0).Mul(t))
}

// Compute the unsigned area and centroid of a simple polygon.
func polygonAreaCentroid(poly []types.Vec2) (float32, types.Vec2) {
	if len(poly) < 3 {
		return 0, types.Vec2{}
	}

	var area2 float32
	var cx, cy float32
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		cross := a[0]*b[1] - b[0]*a[1]
		area2 += cross
		cx += (a[0] + b[0]) * cross
		cy += (a[1] + b[1]) * cross
	}

	if math32.Abs(area2) < types.FloatCmpEpsilon {
		// Degenerate sliver; fall back to the vertex average.
		var avg types.Vec2
		for _, pt := range poly {
			avg = avg.Add(pt)
		}
		return 0, avg.Mul(1 / float32(len(poly)))
	}

	return math32.Abs(area2) * 0.5, types.Vec2{cx / (3 * area2), cy / (3 * area2)}
}

func pointInTriangle2D(pt types.Vec2, tri [3]types.Vec2) bool {
	d0 := types.Area2(tri[0], tri[1], pt)
	d1 := types.Area2(tri[1], tri[2], pt)
	d2 := types.Area2(tri[2], tri[0], pt)
	hasNeg := d0 < 0 || d1 < 0 || d2 < 0
	hasPos := d0 > 0 || d1 > 0 || d2 > 0
	return !(hasNeg && hasPos)
}
