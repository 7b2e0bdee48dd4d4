package scene

import (
	"fmt"
	"sync"

	"github.com/achilleasa/lighter/types"
)

// Object flags control how an object participates in lighting.
type ObjectFlags uint32

const (
	// The object does not cast shadows.
	ObjectNoShadow ObjectFlags = 1 << iota

	// The object does not shadow itself.
	ObjectNoSelfShadow

	// The object does not receive lighting.
	ObjectNoLight

	// The object is lit per vertex instead of through lightmaps.
	ObjectLightPerVertex
)

// An object groups a set of primitives sharing a material and vertex data.
type Object struct {
	Name     string
	Flags    ObjectFlags
	Material *Material

	// Vertex data. Primitives index into these via Indices.
	Positions []types.Vec3
	Normals   []types.Vec3
	Indices   []int

	Primitives []*Primitive

	// Per-vertex lighting results for ObjectLightPerVertex objects.
	LitColors []types.Color

	pdMutex     sync.Mutex
	pdLitColors map[LightID][]types.Color

	sector *Sector
	bbox   types.BBox
}

// Create a new object from an indexed triangle list. Normals may be nil in
// which case geometric normals are used. Zero-area triangles are skipped.
func NewObject(name string, positions, normals []types.Vec3, indices []int, material *Material) (*Object, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("scene: object %q: index count %d is not a multiple of 3", name, len(indices))
	}
	if normals != nil && len(normals) != len(positions) {
		return nil, fmt.Errorf("scene: object %q: expected %d normals; got %d", name, len(positions), len(normals))
	}
	if material == nil {
		material = DefaultMaterial
	}

	obj := &Object{
		Name:      name,
		Material:  material,
		Positions: positions,
		Normals:   normals,
		Indices:   indices,
		LitColors: make([]types.Color, len(positions)),
		bbox:      types.EmptyBBox(),
	}

	for i := 0; i < len(indices); i += 3 {
		var verts, norms [3]types.Vec3
		for j := 0; j < 3; j++ {
			idx := indices[i+j]
			if idx < 0 || idx >= len(positions) {
				return nil, fmt.Errorf("scene: object %q: vertex index %d out of range", name, idx)
			}
			verts[j] = positions[idx]
			if normals != nil {
				norms[j] = normals[idx]
			}
		}

		prim := NewPrimitive(obj, verts, norms)
		if prim.Area() < types.FloatCmpEpsilon {
			continue
		}
		obj.Primitives = append(obj.Primitives, prim)
		obj.bbox = obj.bbox.Union(prim.BBox())
	}

	return obj, nil
}

// The object AABB.
func (o *Object) BBox() types.BBox {
	return o.bbox
}

// The sector containing this object.
func (o *Object) Sector() *Sector {
	return o.sector
}

// Returns true if the object receives lighting.
func (o *Object) ReceivesLight() bool {
	return o.Flags&ObjectNoLight == 0
}

// Returns true if the object is lit per vertex.
func (o *Object) LitPerVertex() bool {
	return o.Flags&ObjectLightPerVertex != 0
}

// Get the per-vertex color array receiving contributions from the given
// light. Pseudo-dynamic lights get their own lazily allocated arrays.
func (o *Object) VertexColors(light *Light) []types.Color {
	if light == nil || light.Flags&LightPseudoDynamic == 0 {
		return o.LitColors
	}

	o.pdMutex.Lock()
	defer o.pdMutex.Unlock()
	if o.pdLitColors == nil {
		o.pdLitColors = make(map[LightID][]types.Color)
	}
	colors, exists := o.pdLitColors[light.ID()]
	if !exists {
		colors = make([]types.Color, len(o.Positions))
		o.pdLitColors[light.ID()] = colors
	}
	return colors
}

// Get the per-vertex colors for a pseudo-dynamic light or nil.
func (o *Object) PseudoDynamicVertexColors(id LightID) []types.Color {
	o.pdMutex.Lock()
	defer o.pdMutex.Unlock()
	return o.pdLitColors[id]
}

// Get the shading normal for vertex i.
func (o *Object) VertexNormal(i int) types.Vec3 {
	if o.Normals != nil && !o.Normals[i].IsZero() {
		return o.Normals[i].Normalize()
	}

	// Average the normals of the primitives sharing this vertex.
	var n types.Vec3
	for _, prim := range o.Primitives {
		for _, v := range prim.Vertices {
			if v == o.Positions[i] {
				n = n.Add(prim.Plane().Normal)
				break
			}
		}
	}
	return n.Normalize()
}
