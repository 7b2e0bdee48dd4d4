package bake

import (
	"time"

	"github.com/achilleasa/lighter/photonmap"
	"github.com/achilleasa/lighter/stats"
)

// A bake phase.
type Phase uint8

const (
	DirectPhase Phase = iota
	PhotonPhase
	IndirectPhase
)

func (p Phase) String() string {
	switch p {
	case DirectPhase:
		return "direct"
	case PhotonPhase:
		return "photons"
	case IndirectPhase:
		return "indirect"
	}
	return "unknown"
}

type PhaseStat struct {
	// The sector and phase this entry refers to.
	Sector string
	Phase  Phase

	// Individual worker stats.
	Workers []WorkerStat

	// Wall clock time for the phase.
	Time time.Duration
}

type BakeStats struct {
	// Per sector phase stats.
	Phases []PhaseStat

	// Counters accumulated over the whole bake.
	Counters *stats.Counters

	// Photon maps by sector name; only populated for indirect lighting.
	PhotonMaps map[string]*photonmap.PhotonMap

	// Total bake time.
	BakeTime time.Duration
}
