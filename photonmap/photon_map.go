package photonmap

import (
	"sort"
	"sync"

	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

// A photon deposited on a surface.
type Photon struct {
	Position types.Vec3

	// Incoming travel direction.
	Direction types.Vec3

	Power types.Color

	// Number of bounces before the photon was stored; 0 for photons
	// arriving straight from a light.
	Depth uint8
}

// A PhotonMap stores photons and answers radius queries using a balanced
// kd-tree. Photons may be stored concurrently; queries are only valid after
// Balance and may then run concurrently.
type PhotonMap struct {
	mutex   sync.Mutex
	photons []Photon

	// Split axis of the photon at each index of the balanced array.
	axes     []uint8
	balanced bool
}

// Create an empty photon map.
func New() *PhotonMap {
	return &PhotonMap{}
}

// Store a photon.
func (pm *PhotonMap) Store(p Photon) {
	pm.mutex.Lock()
	pm.photons = append(pm.photons, p)
	pm.balanced = false
	pm.mutex.Unlock()
}

// Store a batch of photons.
func (pm *PhotonMap) StoreBatch(batch []Photon) {
	if len(batch) == 0 {
		return
	}
	pm.mutex.Lock()
	pm.photons = append(pm.photons, batch...)
	pm.balanced = false
	pm.mutex.Unlock()
}

// Number of stored photons.
func (pm *PhotonMap) Len() int {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	return len(pm.photons)
}

// Get the stored photons. The slice order changes when the map is balanced.
func (pm *PhotonMap) Photons() []Photon {
	return pm.photons
}

// Get the total power of all stored photons.
func (pm *PhotonMap) TotalPower() types.Color {
	var sum types.Color
	for _, p := range pm.photons {
		sum = sum.Add(p.Power)
	}
	return sum
}

// Arrange the stored photons into a balanced kd-tree.
func (pm *PhotonMap) Balance() {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()
	if pm.balanced {
		return
	}
	pm.axes = make([]uint8, len(pm.photons))
	pm.balance(0, len(pm.photons))
	pm.balanced = true
}

func (pm *PhotonMap) balance(lo, hi int) {
	if hi-lo <= 0 {
		return
	}

	box := types.EmptyBBox()
	for i := lo; i < hi; i++ {
		box = box.Extend(pm.photons[i].Position)
	}
	axis := box.LongestAxis()

	sub := pm.photons[lo:hi]
	sort.Slice(sub, func(i, j int) bool {
		return sub[i].Position[axis] < sub[j].Position[axis]
	})

	mid := (lo + hi) / 2
	pm.axes[mid] = uint8(axis)
	pm.balance(lo, mid)
	pm.balance(mid+1, hi)
}

// Invoke fn for each photon within radius of pos. The map must be balanced.
func (pm *PhotonMap) Gather(pos types.Vec3, radius float32, fn func(p *Photon, distSq float32)) {
	pm.gather(0, len(pm.photons), pos, radius*radius, fn)
}

func (pm *PhotonMap) gather(lo, hi int, pos types.Vec3, radiusSq float32, fn func(p *Photon, distSq float32)) {
	if hi-lo <= 0 {
		return
	}

	mid := (lo + hi) / 2
	p := &pm.photons[mid]
	axis := pm.axes[mid]
	delta := pos[axis] - p.Position[axis]

	if delta < 0 {
		pm.gather(lo, mid, pos, radiusSq, fn)
		if delta*delta <= radiusSq {
			pm.gather(mid+1, hi, pos, radiusSq, fn)
		}
	} else {
		pm.gather(mid+1, hi, pos, radiusSq, fn)
		if delta*delta <= radiusSq {
			pm.gather(lo, mid, pos, radiusSq, fn)
		}
	}

	if distSq := p.Position.Sub(pos).LenSq(); distSq <= radiusSq {
		fn(p, distSq)
	}
}

// The result of a density estimation.
type Estimate struct {
	Irradiance types.Color

	// Mean distance of the contributing photons to the query point.
	MeanDistance float32

	Count int
}

// Estimate the irradiance at a surface point from the photons within
// radius that arrive from the normal's side and have bounced at least
// minDepth times.
func (pm *PhotonMap) EstimateIrradiance(pos, normal types.Vec3, radius float32, minDepth uint8) Estimate {
	var est Estimate
	var power types.Color
	var sumDist float32

	pm.Gather(pos, radius, func(p *Photon, distSq float32) {
		if p.Depth < minDepth || p.Direction.Dot(normal) >= 0 {
			return
		}
		power = power.Add(p.Power)
		sumDist += math32.Sqrt(distSq)
		est.Count++
	})

	if est.Count == 0 {
		return est
	}
	est.Irradiance = power.Mul(1 / (math32.Pi * radius * radius))
	est.MeanDistance = sumDist / float32(est.Count)
	return est
}
