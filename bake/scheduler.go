package bake

// A BlockScheduler splits a work budget (e.g. a light's photon allocation)
// into blocks that are processed as independent worker pool tasks.
type BlockScheduler interface {
	Schedule(total, numWorkers int) []int
}

// The naive scheduler emits blocks of at most blockSize items. If that
// would leave workers idle the budget is instead split evenly among them.
type naiveScheduler struct {
	blockSize int
}

// Create a naive scheduler.
func NaiveScheduler(blockSize int) BlockScheduler {
	if blockSize < 1 {
		blockSize = 1
	}
	return &naiveScheduler{blockSize: blockSize}
}

func (sch *naiveScheduler) Schedule(total, numWorkers int) []int {
	if total <= 0 {
		return nil
	}

	blockSize := sch.blockSize
	if numWorkers > 0 && total/numWorkers < blockSize {
		blockSize = total / numWorkers
		if blockSize < 1 {
			blockSize = 1
		}
	}

	blocks := make([]int, 0, total/blockSize+1)
	for remaining := total; remaining > 0; remaining -= blockSize {
		if remaining < blockSize {
			blocks = append(blocks, remaining)
			break
		}
		blocks = append(blocks, blockSize)
	}
	return blocks
}
