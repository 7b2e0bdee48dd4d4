package bake

import (
	"runtime"

	"github.com/achilleasa/lighter/kdtree"
	"github.com/achilleasa/lighter/lighting"
)

// The maximum number of photons per sector.
const MaxPhotons = 1 << 26

type Options struct {
	// Lightmap layout.
	TexelsPerUnit   float32
	MaxLightmapSize int
	LightmapMargin  int

	// Spatial index build parameters.
	KDTree kdtree.Options

	// Direct lighting.
	DirectLighting bool
	Strategy       lighting.Strategy
	ElementSamples int
	Jitter         float32
	WeightBorders  bool

	// The light shaded by the single light strategy.
	SingleLightName string

	// Scales the power of all point lights.
	PointLightMultiplier float32

	// Indirect lighting.
	IndirectLighting  bool
	NumPhotons        int
	MaxRecursionDepth int
	RussianRoulette   bool
	SearchRadius      float32

	// Final gather replaces density estimation at lightmap elements with a
	// hemisphere of gather rays.
	FinalGather     bool
	FinalGatherRays int

	// Cache the irradiance estimates used by final gather.
	IrradianceCache bool
	CacheAccuracy   float32

	// Photons emitted per work item.
	PhotonBlockSize int

	// Number of worker goroutines; 0 uses all CPUs.
	NumWorkers int

	// Seed for the per-worker random number generators.
	Seed int64

	// If set, the photon map of each sector is written to this directory.
	PhotonDumpDir string
}

// Get the default bake options.
func DefaultOptions() Options {
	return Options{
		TexelsPerUnit:        4,
		MaxLightmapSize:      1024,
		LightmapMargin:       1,
		KDTree:               kdtree.DefaultOptions(),
		DirectLighting:       true,
		Strategy:             lighting.AllLightsUniform,
		ElementSamples:       4,
		Jitter:               1,
		WeightBorders:        true,
		PointLightMultiplier: 1,
		IndirectLighting:     false,
		NumPhotons:           100000,
		MaxRecursionDepth:    4,
		RussianRoulette:      true,
		SearchRadius:         1,
		FinalGather:          false,
		FinalGatherRays:      32,
		IrradianceCache:      true,
		CacheAccuracy:        0.1,
		PhotonBlockSize:      1000,
		NumWorkers:           runtime.NumCPU(),
		Seed:                 1,
	}
}

// Validate the options.
func (o *Options) Validate() error {
	switch {
	case !o.DirectLighting && !o.IndirectLighting:
		return ErrNoLightingPass
	case o.TexelsPerUnit <= 0 || o.MaxLightmapSize <= 2*o.LightmapMargin+1 || o.LightmapMargin < 0:
		return ErrInvalidLayout
	case o.DirectLighting && (o.ElementSamples < 1 || o.ElementSamples > 4):
		return ErrInvalidElementCount
	}

	if o.IndirectLighting {
		switch {
		case o.NumPhotons < 0 || o.NumPhotons > MaxPhotons:
			return ErrTooManyPhotons
		case o.SearchRadius <= 0:
			return ErrInvalidSearchRadius
		case o.FinalGather && o.FinalGatherRays < 1:
			return ErrInvalidGatherRays
		case o.FinalGather && o.IrradianceCache && !(o.CacheAccuracy > 0 && o.CacheAccuracy <= 1):
			return ErrInvalidAccuracy
		}
	}

	if o.NumWorkers <= 0 {
		o.NumWorkers = runtime.NumCPU()
	}
	if o.PhotonBlockSize <= 0 {
		o.PhotonBlockSize = 1000
	}
	return nil
}
