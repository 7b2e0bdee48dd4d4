package scene

import (
	"fmt"
	"sort"
	"sync"
)

type lightmapKey struct {
	id    int
	light LightID
}

// A scene is a collection of sectors sharing a set of lightmaps.
type Scene struct {
	Sectors []*Sector

	// The dimensions of each lightmap, indexed by lightmap id.
	LightmapSizes [][2]int

	lightsPropagated bool

	mutex     sync.Mutex
	lightmaps map[lightmapKey]*Lightmap
}

// Create an empty scene.
func NewScene() *Scene {
	return &Scene{
		lightmaps: make(map[lightmapKey]*Lightmap),
	}
}

// Add a sector to the scene.
func (sc *Scene) AddSector(sector *Sector) error {
	for _, s := range sc.Sectors {
		if s == sector || s.Name == sector.Name {
			return fmt.Errorf("scene: sector %q already added", sector.Name)
		}
	}
	sector.scene = sc
	sc.Sectors = append(sc.Sectors, sector)
	return nil
}

// Lookup a sector by name.
func (sc *Scene) Sector(name string) *Sector {
	for _, s := range sc.Sectors {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Prepare all sectors for baking.
func (sc *Scene) Prepare() {
	for _, s := range sc.Sectors {
		s.Prepare()
	}
}

// Get the lightmap with the given id receiving contributions from light.
// Pass a nil or static light to get the static lightmap. Pseudo-dynamic
// lights get their own lightmaps which are created on first access.
func (sc *Scene) GetLightmap(id int, light *Light) *Lightmap {
	if id < 0 || id >= len(sc.LightmapSizes) {
		return nil
	}

	key := lightmapKey{id: id}
	if light != nil && light.IsPseudoDynamic() {
		key.light = light.ID()
	}

	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	lm, exists := sc.lightmaps[key]
	if !exists {
		size := sc.LightmapSizes[id]
		lm = NewLightmap(id, size[0], size[1])
		lm.Light = key.light
		sc.lightmaps[key] = lm
	}
	return lm
}

// Get all allocated lightmaps sorted by id. Static lightmaps precede
// pseudo-dynamic ones with the same id.
func (sc *Scene) Lightmaps() []*Lightmap {
	sc.mutex.Lock()
	out := make([]*Lightmap, 0, len(sc.lightmaps))
	for _, lm := range sc.lightmaps {
		out = append(out, lm)
	}
	sc.mutex.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Light.String() < out[j].Light.String()
	})
	return out
}
