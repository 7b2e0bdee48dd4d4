package types

import "github.com/chewxy/math32"

// An axis-aligned bounding box.
type BBox struct {
	Min Vec3
	Max Vec3
}

// Create an empty (inverted) bounding box. Extending an empty box with a
// point yields a box containing only that point.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// Create the bounding box of a set of points.
func BBoxFromPoints(points ...Vec3) BBox {
	b := EmptyBBox()
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

// Returns true if the box does not contain any point.
func (b BBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Grow box to include point p.
func (b BBox) Extend(p Vec3) BBox {
	return BBox{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// Grow box to include another box.
func (b BBox) Union(b2 BBox) BBox {
	return BBox{Min: MinVec3(b.Min, b2.Min), Max: MaxVec3(b.Max, b2.Max)}
}

// Intersection of two boxes. The result may be empty.
func (b BBox) Intersection(b2 BBox) BBox {
	return BBox{Min: MaxVec3(b.Min, b2.Min), Max: MinVec3(b.Max, b2.Max)}
}

// Returns true if the two boxes overlap. Touching boxes count as overlapping.
func (b BBox) Overlaps(b2 BBox) bool {
	for axis := 0; axis < 3; axis++ {
		if b.Min[axis] > b2.Max[axis] || b.Max[axis] < b2.Min[axis] {
			return false
		}
	}
	return true
}

// Returns true if p lies inside or on the boundary of the box.
func (b BBox) Contains(p Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] || p[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Get box extents.
func (b BBox) Size() Vec3 {
	if b.IsEmpty() {
		return Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Get box center.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the surface area of the box.
func (b BBox) Area() float32 {
	s := b.Size()
	return 2 * (s[0]*s[1] + s[1]*s[2] + s[0]*s[2])
}

// Get the axis with the largest extent.
func (b BBox) LongestAxis() int {
	s := b.Size()
	if s[0] >= s[1] && s[0] >= s[2] {
		return 0
	}
	if s[1] >= s[2] {
		return 1
	}
	return 2
}

// Split the box with an axis-aligned plane.
func (b BBox) Split(axis int, pos float32) (left, right BBox) {
	left, right = b, b
	left.Max[axis] = pos
	right.Min[axis] = pos
	return left, right
}

// Clip the parametric ray segment [tmin, tmax] against the box using the
// slab method. invDir holds the reciprocal ray direction components.
func (b BBox) ClipRay(origin, dir, invDir Vec3, tmin, tmax float32) (float32, float32, bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < b.Min[axis] || origin[axis] > b.Max[axis] {
				return 0, 0, false
			}
			continue
		}

		t0 := (b.Min[axis] - origin[axis]) * invDir[axis]
		t1 := (b.Max[axis] - origin[axis]) * invDir[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}

// Squared distance from point p to the box (zero when inside).
func (b BBox) DistanceSq(p Vec3) float32 {
	var d float32
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] {
			delta := b.Min[axis] - p[axis]
			d += delta * delta
		} else if p[axis] > b.Max[axis] {
			delta := p[axis] - b.Max[axis]
			d += delta * delta
		}
	}
	return d
}

// The bounding sphere of the box.
func (b BBox) BoundingSphere() Sphere {
	if b.IsEmpty() {
		return Sphere{}
	}
	return Sphere{Center: b.Center(), Radius: b.Size().Len() * 0.5}
}

// A bounding sphere. A negative radius denotes an infinite sphere.
type Sphere struct {
	Center Vec3
	Radius float32
}

// Returns true if the spheres overlap.
func (s Sphere) Intersects(s2 Sphere) bool {
	if s.Radius < 0 || s2.Radius < 0 {
		return true
	}
	r := s.Radius + s2.Radius
	return s.Center.Sub(s2.Center).LenSq() <= r*r
}

// Returns true if the sphere overlaps the box.
func (s Sphere) IntersectsBBox(b BBox) bool {
	if s.Radius < 0 {
		return true
	}
	return b.DistanceSq(s.Center) <= s.Radius*s.Radius
}
