package ircache

import (
	"errors"
	"sync"

	"github.com/achilleasa/lighter/stats"
	"github.com/achilleasa/lighter/types"
	"github.com/chewxy/math32"
)

const (
	// Samples whose validity radius falls below this value are rejected.
	minValidityRadius float32 = 1e-6

	// Tolerance of the in-front test.
	wardEpsilon float32 = 1e-3

	// Lower bound for the weight denominator.
	minWeightDenominator float32 = 1e-6

	noChildren int32 = -1
)

var (
	ErrInvalidAccuracy = errors.New("ircache: accuracy must be in (0, 1]")
	ErrInvalidRadius   = errors.New("ircache: sample validity radius too small")
)

// An irradiance sample.
type Sample struct {
	Position   types.Vec3
	Normal     types.Vec3
	Irradiance types.Color

	// Mean distance to the surfaces (or photons) the sample was computed
	// from. Controls the region where the sample is considered valid.
	MeanDistance float32
}

// A sample accepted by a query.
type WeightedSample struct {
	Index  int
	Weight float32
}

// An octree node. Children are stored contiguously starting at firstChild.
type node struct {
	center     types.Vec3
	size       float32
	firstChild int32
	samples    []int32
}

// Cache is an irradiance cache indexing samples with an octree. It is safe
// for concurrent use.
type Cache struct {
	alpha    float32
	counters *stats.Counters

	mutex   sync.RWMutex
	samples []Sample
	nodes   []node
}

// Create a cache covering bounds. Alpha controls the accuracy; smaller values
// shrink the region where each sample is considered valid. Counters may be
// nil.
func New(bounds types.BBox, alpha float32, counters *stats.Counters) (*Cache, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, ErrInvalidAccuracy
	}

	var center types.Vec3
	size := float32(1)
	if !bounds.IsEmpty() {
		center = bounds.Center()
		size = math32.Max(bounds.Size().MaxComponent(), 1e-3)
	}

	return &Cache{
		alpha:    alpha,
		counters: counters,
		nodes: []node{
			{center: center, size: size, firstChild: noChildren},
		},
	}, nil
}

// The accuracy parameter.
func (c *Cache) Alpha() float32 {
	return c.alpha
}

// Number of stored samples.
func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.samples)
}

// Get a stored sample.
func (c *Cache) Sample(index int) Sample {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.samples[index]
}

// Get the validity radius of a sample.
func (c *Cache) ValidityRadius(s Sample) float32 {
	return s.MeanDistance * c.alpha * 4
}

// Insert a sample. The sample is stored at the first node on the path to
// its position whose size is smaller than the sample validity radius;
// leaves along the path are split into octants as needed.
func (c *Cache) AddSample(s Sample) error {
	radius := c.ValidityRadius(s)
	if !(radius > minValidityRadius) {
		return ErrInvalidRadius
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	sampleIndex := int32(len(c.samples))
	c.samples = append(c.samples, s)

	nodeIndex := int32(0)
	for {
		n := &c.nodes[nodeIndex]
		if n.size < radius {
			n.samples = append(n.samples, sampleIndex)
			break
		}

		if n.firstChild == noChildren {
			c.split(nodeIndex)
			n = &c.nodes[nodeIndex]
		}
		nodeIndex = n.firstChild + int32(octant(n.center, s.Position))
	}

	c.counters.AddCache(1, 0, 0)
	return nil
}

func (c *Cache) split(nodeIndex int32) {
	parent := c.nodes[nodeIndex]
	firstChild := int32(len(c.nodes))
	childSize := parent.size * 0.5
	quarter := parent.size * 0.25

	for i := 0; i < 8; i++ {
		center := parent.center
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				center[axis] += quarter
			} else {
				center[axis] -= quarter
			}
		}
		c.nodes = append(c.nodes, node{center: center, size: childSize, firstChild: noChildren})
	}
	c.nodes[nodeIndex].firstChild = firstChild
}

// Get the octant index of p relative to center.
func octant(center, p types.Vec3) int {
	var index int
	for axis := 0; axis < 3; axis++ {
		if p[axis] >= center[axis] {
			index |= 1 << axis
		}
	}
	return index
}

// Find the samples that are valid estimators for a query point. Accepted
// samples are appended to out.
func (c *Cache) FindSamples(pos, normal types.Vec3, out []WeightedSample) []WeightedSample {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	minWeight := 1 / c.alpha
	return c.find(0, pos, normal, minWeight, out)
}

func (c *Cache) find(nodeIndex int32, pos, normal types.Vec3, minWeight float32, out []WeightedSample) []WeightedSample {
	n := &c.nodes[nodeIndex]
	for _, sampleIndex := range n.samples {
		s := &c.samples[sampleIndex]

		// Reject samples in front of the query point.
		delta := pos.Sub(s.Position)
		if delta.Dot(normal.Add(s.Normal).Mul(0.5)) < -wardEpsilon {
			continue
		}

		denom := delta.Len()/s.MeanDistance + math32.Sqrt(math32.Max(0, 1-normal.Dot(s.Normal)))
		if denom < minWeightDenominator {
			denom = minWeightDenominator
		}
		if weight := 1 / denom; weight > minWeight {
			out = append(out, WeightedSample{Index: int(sampleIndex), Weight: weight})
		}
	}

	if n.firstChild == noChildren {
		return out
	}
	for i := int32(0); i < 8; i++ {
		child := &c.nodes[n.firstChild+i]
		if child.center.Distance(pos) <= child.size {
			out = c.find(n.firstChild+i, pos, normal, minWeight, out)
		}
	}
	return out
}

// Estimate the irradiance at a point as the normalized weighted average of
// the valid samples. Returns false if no sample is valid.
func (c *Cache) Estimate(pos, normal types.Vec3) (types.Color, bool) {
	found := c.FindSamples(pos, normal, nil)
	if len(found) == 0 {
		c.counters.AddCache(0, 0, 1)
		return types.Color{}, false
	}

	c.mutex.RLock()
	var sum types.Color
	var weightSum float32
	for _, ws := range found {
		sum = sum.Add(c.samples[ws.Index].Irradiance.Mul(ws.Weight))
		weightSum += ws.Weight
	}
	c.mutex.RUnlock()

	c.counters.AddCache(0, 1, 0)
	return sum.Mul(1 / weightSum), true
}
