package scene

import "github.com/achilleasa/lighter/types"

// A sector is an independently baked region of the scene.
type Sector struct {
	Name    string
	Objects []*Object
	Lights  []*Light
	Portals []*Portal

	scene      *Scene
	primitives []*Primitive
	bbox       types.BBox
}

// Create an empty sector.
func NewSector(name string) *Sector {
	return &Sector{
		Name: name,
		bbox: types.EmptyBBox(),
	}
}

// Add an object to the sector.
func (s *Sector) AddObject(obj *Object) {
	obj.sector = s
	s.Objects = append(s.Objects, obj)
	s.primitives = nil
}

// Add a light to the sector.
func (s *Sector) AddLight(light *Light) {
	light.sector = s
	s.Lights = append(s.Lights, light)
}

// Add a portal to the sector.
func (s *Sector) AddPortal(portal *Portal) {
	s.Portals = append(s.Portals, portal)
}

// The scene owning this sector.
func (s *Sector) Scene() *Scene {
	return s.scene
}

// Assign sector-wide primitive indices, compute the sector bounds and fix
// the light identifiers.
func (s *Sector) Prepare() {
	for _, l := range s.Lights {
		l.assignID()
	}
	s.indexPrimitives()
}

func (s *Sector) indexPrimitives() {
	s.primitives = s.primitives[:0]
	s.bbox = types.EmptyBBox()
	for _, obj := range s.Objects {
		for _, prim := range obj.Primitives {
			prim.Index = len(s.primitives)
			s.primitives = append(s.primitives, prim)
			s.bbox = s.bbox.Union(prim.BBox())
		}
	}
}

// Get all sector primitives ordered by their index.
func (s *Sector) Primitives() []*Primitive {
	if s.primitives == nil {
		s.indexPrimitives()
	}
	return s.primitives
}

// The sector AABB.
func (s *Sector) BBox() types.BBox {
	if s.primitives == nil {
		s.indexPrimitives()
	}
	return s.bbox
}

// Get the lights baked into the static lightmaps.
func (s *Sector) StaticLights() []*Light {
	out := make([]*Light, 0, len(s.Lights))
	for _, l := range s.Lights {
		if !l.IsPseudoDynamic() {
			out = append(out, l)
		}
	}
	return out
}

// Get the lights baked into their own lightmaps.
func (s *Sector) PseudoDynamicLights() []*Light {
	var out []*Light
	for _, l := range s.Lights {
		if l.IsPseudoDynamic() {
			out = append(out, l)
		}
	}
	return out
}
