package stats

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/olekukonko/tablewriter"
)

// The type of a traced ray. Only used for bookkeeping.
type RayType uint8

const (
	ShadowRay RayType = iota
	PhotonRay
	FinalGatherRay
	DebugRay
	numRayTypes
)

var rayTypeNames = [numRayTypes]string{"shadow", "photon", "final gather", "debug"}

func (rt RayType) String() string {
	if rt < numRayTypes {
		return rayTypeNames[rt]
	}
	return fmt.Sprintf("RayType(%d)", rt)
}

// Counters collects bake statistics. All methods are safe for concurrent use.
type Counters struct {
	rays           [numRayTypes]atomic.Uint64
	primitiveTests atomic.Uint64
	mailboxHits    atomic.Uint64

	kdNodes     atomic.Uint64
	kdLeaves    atomic.Uint64
	kdPrimSlots atomic.Uint64
	kdSumDepth  atomic.Uint64
	kdMaxDepth  atomic.Uint64

	photonsEmitted atomic.Uint64
	photonsStored  atomic.Uint64

	cacheSamples atomic.Uint64
	cacheHits    atomic.Uint64
	cacheMisses  atomic.Uint64

	elementsShaded atomic.Uint64
}

// Create a new set of counters.
func NewCounters() *Counters {
	return &Counters{}
}

// Count a traced ray.
func (c *Counters) IncRays(rt RayType) {
	if c == nil || rt >= numRayTypes {
		return
	}
	c.rays[rt].Add(1)
}

// Count ray/primitive intersection tests and tests skipped by the mailbox.
func (c *Counters) AddPrimitiveTests(tests, mailboxHits uint64) {
	if c == nil {
		return
	}
	c.primitiveTests.Add(tests)
	c.mailboxHits.Add(mailboxHits)
}

// Record the shape of a built kd-tree.
func (c *Counters) AddKDTree(nodes, leaves, primSlots, sumDepth, maxDepth uint64) {
	if c == nil {
		return
	}
	c.kdNodes.Add(nodes)
	c.kdLeaves.Add(leaves)
	c.kdPrimSlots.Add(primSlots)
	c.kdSumDepth.Add(sumDepth)
	for {
		cur := c.kdMaxDepth.Load()
		if maxDepth <= cur || c.kdMaxDepth.CompareAndSwap(cur, maxDepth) {
			break
		}
	}
}

// Count emitted and stored photons.
func (c *Counters) AddPhotons(emitted, stored uint64) {
	if c == nil {
		return
	}
	c.photonsEmitted.Add(emitted)
	c.photonsStored.Add(stored)
}

// Count irradiance cache activity.
func (c *Counters) AddCache(samples, hits, misses uint64) {
	if c == nil {
		return
	}
	c.cacheSamples.Add(samples)
	c.cacheHits.Add(hits)
	c.cacheMisses.Add(misses)
}

// Count shaded lightmap elements and vertices.
func (c *Counters) AddElements(n uint64) {
	if c == nil {
		return
	}
	c.elementsShaded.Add(n)
}

// Get the number of traced rays of a particular type.
func (c *Counters) Rays(rt RayType) uint64 {
	return c.rays[rt].Load()
}

// Get the total number of traced rays.
func (c *Counters) TotalRays() uint64 {
	var total uint64
	for i := range c.rays {
		total += c.rays[i].Load()
	}
	return total
}

// Get the number of ray/primitive intersection tests.
func (c *Counters) PrimitiveTests() uint64 {
	return c.primitiveTests.Load()
}

// Get the number of emitted photons.
func (c *Counters) PhotonsEmitted() uint64 {
	return c.photonsEmitted.Load()
}

// Get the number of stored photons.
func (c *Counters) PhotonsStored() uint64 {
	return c.photonsStored.Load()
}

// Get the number of samples inserted into irradiance caches.
func (c *Counters) CacheSamples() uint64 {
	return c.cacheSamples.Load()
}

// Get the number of irradiance cache lookups that found valid samples.
func (c *Counters) CacheHits() uint64 {
	return c.cacheHits.Load()
}

// Get the number of shaded lightmap elements and vertices.
func (c *Counters) ElementsShaded() uint64 {
	return c.elementsShaded.Load()
}

// Build a tabular representation of the collected statistics.
func (c *Counters) Table(elapsed time.Duration) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Category", "Counter", "Value"})

	table.Append([]string{"Rays", "---", fmt.Sprintf("%d", c.TotalRays())})
	for rt := RayType(0); rt < numRayTypes; rt++ {
		table.Append([]string{"", rt.String(), fmt.Sprintf("%d", c.Rays(rt))})
	}
	table.Append([]string{"", "primitive tests", fmt.Sprintf("%d", c.primitiveTests.Load())})
	table.Append([]string{"", "mailbox hits", fmt.Sprintf("%d", c.mailboxHits.Load())})
	table.Append([]string{" ", " ", " "})

	leaves := c.kdLeaves.Load()
	avgDepth := 0.0
	if leaves > 0 {
		avgDepth = float64(c.kdSumDepth.Load()) / float64(leaves)
	}
	table.Append([]string{"KD-tree", "nodes", fmt.Sprintf("%d", c.kdNodes.Load())})
	table.Append([]string{"", "leaves", fmt.Sprintf("%d", leaves)})
	table.Append([]string{"", "primitive slots", fmt.Sprintf("%d", c.kdPrimSlots.Load())})
	table.Append([]string{"", "avg/max depth", fmt.Sprintf("%2.1f / %d", avgDepth, c.kdMaxDepth.Load())})
	table.Append([]string{" ", " ", " "})

	table.Append([]string{"Photons", "emitted", fmt.Sprintf("%d", c.photonsEmitted.Load())})
	table.Append([]string{"", "stored", fmt.Sprintf("%d", c.photonsStored.Load())})
	table.Append([]string{" ", " ", " "})

	table.Append([]string{"Irradiance cache", "samples", fmt.Sprintf("%d", c.cacheSamples.Load())})
	table.Append([]string{"", "hits", fmt.Sprintf("%d", c.cacheHits.Load())})
	table.Append([]string{"", "misses", fmt.Sprintf("%d", c.cacheMisses.Load())})
	table.Append([]string{" ", " ", " "})

	table.Append([]string{"Shading", "elements", fmt.Sprintf("%d", c.elementsShaded.Load())})
	table.SetFooter([]string{"", "TOTAL TIME", elapsed.String()})

	table.Render()
	return buf.String()
}
