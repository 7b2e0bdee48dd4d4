package bake

import "errors"

var (
	ErrNoSectors           = errors.New("bake: scene has no sectors")
	ErrNoLightingPass      = errors.New("bake: both direct and indirect lighting are disabled")
	ErrInvalidLayout       = errors.New("bake: texels per unit and lightmap size must be positive")
	ErrInvalidElementCount = errors.New("bake: element samples must be between 1 and 4")
	ErrTooManyPhotons      = errors.New("bake: photon count exceeds the supported maximum")
	ErrInvalidSearchRadius = errors.New("bake: photon search radius must be positive")
	ErrInvalidAccuracy     = errors.New("bake: irradiance cache accuracy must be in (0, 1]")
	ErrInvalidGatherRays   = errors.New("bake: final gather requires at least one ray")
	ErrUnknownLight        = errors.New("bake: single light strategy requires an existing light")
	ErrInterrupted         = errors.New("bake: interrupted while baking")
	ErrAlreadyBaked        = errors.New("bake: scene has already been baked by this context")
)
