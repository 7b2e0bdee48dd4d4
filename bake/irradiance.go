package bake

import (
	"github.com/achilleasa/lighter/ircache"
	"github.com/achilleasa/lighter/log"
	"github.com/achilleasa/lighter/photonmap"
	"github.com/achilleasa/lighter/types"
)

// An irradiance source that interpolates cached samples and falls back to
// photon density estimation, caching the new estimate.
type cachedIrradiance struct {
	logger  log.Logger
	cache   *ircache.Cache
	photons *photonmap.PhotonMap
	radius  float32
}

func (ci *cachedIrradiance) Irradiance(pos, normal types.Vec3) types.Color {
	if irradiance, ok := ci.cache.Estimate(pos, normal); ok {
		return irradiance
	}

	est := ci.photons.EstimateIrradiance(pos, normal, ci.radius, 0)
	if est.Count > 0 {
		// Samples with a degenerate validity radius are not cached but
		// their estimate is still used.
		err := ci.cache.AddSample(ircache.Sample{
			Position:     pos,
			Normal:       normal,
			Irradiance:   est.Irradiance,
			MeanDistance: est.MeanDistance,
		})
		if err != nil {
			ci.logger.Debugf("not caching irradiance at %v (mean photon distance %f): %v", pos, est.MeanDistance, err)
		}
	}
	return est.Irradiance
}
