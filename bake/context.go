package bake

import (
	"context"
	"time"

	"github.com/achilleasa/lighter/ircache"
	"github.com/achilleasa/lighter/kdtree"
	"github.com/achilleasa/lighter/lighting"
	"github.com/achilleasa/lighter/log"
	"github.com/achilleasa/lighter/photonmap"
	"github.com/achilleasa/lighter/scene"
	"github.com/achilleasa/lighter/stats"
	"github.com/achilleasa/lighter/types"
)

// A Context holds the state of a single bake: the scene, the options it was
// created with and the counters collected while baking.
type Context struct {
	logger    log.Logger
	scene     *scene.Scene
	opts      Options
	scheduler BlockScheduler
	counters  *stats.Counters

	stats BakeStats
	baked bool
}

// Create a bake context for a scene. The options are validated before any
// work starts.
func NewContext(sc *scene.Scene, opts Options) (*Context, error) {
	if sc == nil || len(sc.Sectors) == 0 {
		return nil, ErrNoSectors
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if opts.DirectLighting && opts.Strategy == lighting.SingleLight && findLight(sc, opts.SingleLightName) == nil {
		return nil, ErrUnknownLight
	}

	counters := stats.NewCounters()
	return &Context{
		logger:    log.New("bake"),
		scene:     sc,
		opts:      opts,
		scheduler: NaiveScheduler(opts.PhotonBlockSize),
		counters:  counters,
		stats: BakeStats{
			Counters:   counters,
			PhotonMaps: make(map[string]*photonmap.PhotonMap),
		},
	}, nil
}

// The scene being baked.
func (c *Context) Scene() *scene.Scene {
	return c.scene
}

// Get the bake statistics.
func (c *Context) Stats() BakeStats {
	return c.stats
}

// Bake all sectors of the scene. Lighting is accumulated into the scene
// lightmaps and lit vertex colors. A context can only bake once.
func (c *Context) Bake(ctx context.Context) error {
	if c.baked {
		return ErrAlreadyBaked
	}
	c.baked = true

	start := time.Now()
	defer func() {
		c.stats.BakeTime = time.Since(start)
	}()

	c.applyLightMultiplier()
	c.scene.PropagateLights()
	c.scene.Prepare()

	if len(c.scene.LightmapSizes) == 0 {
		err := scene.LayoutLightmaps(c.scene, scene.LayoutOptions{
			TexelsPerUnit: c.opts.TexelsPerUnit,
			MaxSize:       c.opts.MaxLightmapSize,
			Margin:        c.opts.LightmapMargin,
		})
		if err != nil {
			return err
		}
	}

	for index, sector := range c.scene.Sectors {
		if err := c.bakeSector(ctx, sector, index); err != nil {
			return err
		}
	}

	if c.opts.IndirectLighting && c.opts.PhotonDumpDir != "" {
		if err := WritePhotonMaps(c.opts.PhotonDumpDir, c.stats.PhotonMaps); err != nil {
			return err
		}
	}

	c.logger.Noticef("baked %d sectors in %s", len(c.scene.Sectors), time.Since(start))
	return nil
}

// Scale point lights before any light identifiers are derived.
func (c *Context) applyLightMultiplier() {
	if c.opts.PointLightMultiplier == 1 {
		return
	}
	for _, sector := range c.scene.Sectors {
		for _, l := range sector.Lights {
			if l.Kind == scene.PointLight {
				l.Power *= c.opts.PointLightMultiplier
			}
		}
	}
}

func (c *Context) bakeSector(ctx context.Context, sector *scene.Sector, index int) error {
	start := time.Now()
	tree := kdtree.BuildSector(sector, c.opts.KDTree)
	c.counters.AddKDTree(uint64(tree.Stats.Nodes), uint64(tree.Stats.Leaves), uint64(tree.Stats.PrimSlots), uint64(tree.Stats.SumDepth), uint64(tree.Stats.MaxDepth))
	c.logger.Noticef("sector %q: built kd-tree for %d primitives in %s", sector.Name, len(tree.Primitives), time.Since(start))

	var pm *photonmap.PhotonMap
	if c.opts.IndirectLighting {
		pm = photonmap.New()
	}
	pool := newWorkerPool(tree, &c.opts, c.counters, pm, int64(index)*int64(c.opts.NumWorkers))

	if c.opts.DirectLighting {
		if err := c.runPhase(ctx, sector, DirectPhase, pool, c.directTasks(sector)); err != nil {
			return err
		}
	}

	if !c.opts.IndirectLighting {
		return nil
	}

	if err := c.runPhase(ctx, sector, PhotonPhase, pool, c.photonTasks(sector)); err != nil {
		return err
	}
	pm.Balance()
	c.stats.PhotonMaps[sector.Name] = pm
	c.logger.Noticef("sector %q: stored %d photons", sector.Name, pm.Len())

	tasks, err := c.indirectTasks(sector, pm)
	if err != nil {
		return err
	}
	return c.runPhase(ctx, sector, IndirectPhase, pool, tasks)
}

func (c *Context) runPhase(ctx context.Context, sector *scene.Sector, phase Phase, pool *workerPool, tasks []task) error {
	if len(tasks) == 0 {
		return nil
	}

	start := time.Now()
	progress := stats.NewProgress(sector.Name+"/"+phase.String(), len(tasks))
	if err := pool.Run(ctx, tasks, progress); err != nil {
		return err
	}

	stat := PhaseStat{
		Sector:  sector.Name,
		Phase:   phase,
		Workers: pool.Stats(),
		Time:    time.Since(start),
	}
	c.stats.Phases = append(c.stats.Phases, stat)
	c.logger.Noticef("sector %q: %s lighting pass completed in %s", sector.Name, phase, stat.Time)
	return nil
}

// Create one task per object and light set. Pseudo-dynamic lights are
// shaded one at a time into their own lightmaps.
func (c *Context) directTasks(sector *scene.Sector) []task {
	var tasks []task

	static := sector.StaticLights()
	if c.opts.Strategy == lighting.SingleLight {
		static = static[:0]
		for _, l := range sector.Lights {
			if l.Name == c.opts.SingleLightName && !l.IsPseudoDynamic() {
				static = append(static, l)
			}
		}
	}

	for _, obj := range sector.Objects {
		obj := obj
		if lights := lighting.ComputeAffectingLights(obj, static); lights.Len() > 0 {
			tasks = append(tasks, func(w *worker) {
				w.shader.ShadeObject(obj, lights, nil)
			})
		}

		for _, pdLight := range sector.PseudoDynamicLights() {
			pdLight := pdLight
			lights := lighting.ComputeAffectingLights(obj, []*scene.Light{pdLight})
			if lights.Len() == 0 {
				continue
			}
			tasks = append(tasks, func(w *worker) {
				w.shader.ShadeObject(obj, lights, pdLight)
			})
		}
	}
	return tasks
}

// Split each light's photon budget into blocks.
func (c *Context) photonTasks(sector *scene.Sector) []task {
	var tasks []task
	counts := photonmap.AllocatePhotons(sector.Lights, c.opts.NumPhotons)
	for i, light := range sector.Lights {
		light, total := light, counts[i]
		for _, count := range c.scheduler.Schedule(total, c.opts.NumWorkers) {
			count := count
			tasks = append(tasks, func(w *worker) {
				w.photons.EmitPhotons(light, count, total)
			})
		}
	}
	return tasks
}

func (c *Context) indirectTasks(sector *scene.Sector, pm *photonmap.PhotonMap) ([]task, error) {
	var source photonmap.IrradianceSource = photonmap.DensitySource{Photons: pm, Radius: c.opts.SearchRadius}
	if c.opts.FinalGather && c.opts.IrradianceCache {
		cache, err := ircache.New(sector.BBox(), c.opts.CacheAccuracy, c.counters)
		if err != nil {
			return nil, err
		}
		source = &cachedIrradiance{logger: c.logger, cache: cache, photons: pm, radius: c.opts.SearchRadius}
	}

	var tasks []task
	for _, obj := range sector.Objects {
		obj := obj
		tasks = append(tasks, func(w *worker) {
			w.shader.ShadeObjectIndirect(obj, c.irradianceFunc(w, pm, source))
		})
	}
	return tasks, nil
}

// Get the indirect irradiance function evaluated by a worker. Without
// final gather only photons that bounced at least once are counted since
// direct light is baked separately.
func (c *Context) irradianceFunc(w *worker, pm *photonmap.PhotonMap, source photonmap.IrradianceSource) lighting.IrradianceFunc {
	if c.opts.FinalGather {
		return func(prim *scene.Primitive, pos, normal types.Vec3) types.Color {
			return photonmap.FinalGather(w.rt, w.sampler, prim, pos, normal, c.opts.FinalGatherRays, source)
		}
	}
	return func(_ *scene.Primitive, pos, normal types.Vec3) types.Color {
		return pm.EstimateIrradiance(pos, normal, c.opts.SearchRadius, 1).Irradiance
	}
}

func findLight(sc *scene.Scene, name string) *scene.Light {
	for _, sector := range sc.Sectors {
		for _, l := range sector.Lights {
			if l.Name == name {
				return l
			}
		}
	}
	return nil
}
