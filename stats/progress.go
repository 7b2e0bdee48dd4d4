package stats

import (
	"sync"

	"github.com/achilleasa/lighter/log"
)

// Progress receives advisory progress updates from long running bake phases.
type Progress interface {
	// Set the completed fraction in the [0, 1] range.
	SetProgress(fraction float32)

	// Mark n more work units as completed.
	Advance(n int)
}

// A progress sink that discards all updates.
var NullProgress Progress = nullProgress{}

type nullProgress struct{}

func (nullProgress) SetProgress(float32) {}
func (nullProgress) Advance(int)         {}

// A Progress implementation that counts work units against a known total
// and logs a message every time another 10% of the work is completed.
type LoggingProgress struct {
	mu       sync.Mutex
	logger   log.Logger
	name     string
	total    int
	done     int
	lastStep int
}

// Create a new logging progress tracker for a phase with total work units.
func NewProgress(name string, total int) *LoggingProgress {
	return &LoggingProgress{
		logger:   log.New("progress"),
		name:     name,
		total:    total,
		lastStep: -1,
	}
}

// Reset the expected amount of work units.
func (p *LoggingProgress) SetTotal(total int) {
	p.mu.Lock()
	p.total = total
	p.done = 0
	p.lastStep = -1
	p.mu.Unlock()
}

// Set the completed fraction.
func (p *LoggingProgress) SetProgress(fraction float32) {
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	p.mu.Lock()
	p.report(int(fraction * 10))
	p.mu.Unlock()
}

// Mark n more work units as completed.
func (p *LoggingProgress) Advance(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done += n
	if p.total <= 0 {
		return
	}
	if p.done > p.total {
		p.done = p.total
	}
	p.report(p.done * 10 / p.total)
}

// Get the completed fraction.
func (p *LoggingProgress) Fraction() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total <= 0 {
		return 0
	}
	return float32(p.done) / float32(p.total)
}

func (p *LoggingProgress) report(step int) {
	if step <= p.lastStep {
		return
	}
	p.lastStep = step
	p.logger.Infof("%s: %3d%%", p.name, step*10)
}
