package bake

import (
	"context"
	"sync"
	"time"

	"github.com/achilleasa/lighter/kdtree"
	"github.com/achilleasa/lighter/lighting"
	"github.com/achilleasa/lighter/photonmap"
	"github.com/achilleasa/lighter/raytracer"
	"github.com/achilleasa/lighter/sampling"
	"github.com/achilleasa/lighter/stats"
)

// A unit of work executed by a pool worker.
type task func(w *worker)

// A worker owns the per-goroutine state used for baking: traversal
// stacks, mailboxes and random number generators are never shared.
type worker struct {
	id      int
	rt      *raytracer.Raytracer
	sampler *sampling.RandomSampler
	shader  *lighting.Shader

	// Set when the pool is used for photon tracing.
	photons *photonmap.Tracer

	tasks    int
	busyTime time.Duration
}

// Statistics for a single worker.
type WorkerStat struct {
	Id       int
	Tasks    int
	BusyTime time.Duration
}

// A workerPool runs tasks against a sector kd-tree in parallel.
type workerPool struct {
	workers []*worker
}

func newWorkerPool(tree *kdtree.Tree, opts *Options, counters *stats.Counters, pm *photonmap.PhotonMap, seedOffset int64) *workerPool {
	wp := &workerPool{}
	shaderOpts := lighting.Options{
		Strategy:       opts.Strategy,
		ElementSamples: opts.ElementSamples,
		Jitter:         opts.Jitter,
		WeightBorders:  opts.WeightBorders,
	}
	photonOpts := photonmap.Options{
		MaxRecursionDepth: opts.MaxRecursionDepth,
		RussianRoulette:   opts.RussianRoulette,
	}

	for i := 0; i < opts.NumWorkers; i++ {
		w := &worker{
			id:      i,
			rt:      raytracer.New(tree, counters),
			sampler: sampling.NewRandomSampler(opts.Seed + seedOffset + int64(i)),
		}
		w.shader = lighting.NewShader(w.rt, w.sampler, shaderOpts, counters)
		if pm != nil {
			w.photons = photonmap.NewTracer(w.rt, w.sampler, pm, photonOpts, counters)
		}
		wp.workers = append(wp.workers, w)
	}
	return wp
}

// Run all tasks and wait for them to complete. Tasks still queued when ctx
// is cancelled are skipped and ErrInterrupted is returned.
func (wp *workerPool) Run(ctx context.Context, tasks []task, progress stats.Progress) error {
	taskQueue := make(chan task, len(tasks))
	for _, t := range tasks {
		taskQueue <- t
	}
	close(taskQueue)

	var wg sync.WaitGroup
	for _, w := range wp.workers {
		w.tasks, w.busyTime = 0, 0
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			for t := range taskQueue {
				if ctx.Err() != nil {
					continue
				}
				start := time.Now()
				t(w)
				w.busyTime += time.Since(start)
				w.tasks++
				progress.Advance(1)
			}
		}(w)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return ErrInterrupted
	}
	return nil
}

// Get per worker statistics for the last Run.
func (wp *workerPool) Stats() []WorkerStat {
	out := make([]WorkerStat, len(wp.workers))
	for i, w := range wp.workers {
		out[i] = WorkerStat{Id: w.id, Tasks: w.tasks, BusyTime: w.busyTime}
	}
	return out
}
