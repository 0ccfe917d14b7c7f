// Package kernel runs elementwise, comparison and reduction ops on the CPU
// by driving Indexer workloads through a bounded pool of goroutines.
//
// Public entry points return errors; internally configuration problems panic
// and are converted at the boundary.
package kernel

import (
	"sync"
	"sync/atomic"

	"k8s.io/klog/v2"
)

// minGrainSize is the smallest number of workloads handed to one goroutine.
// Ops below it run serially.
const minGrainSize = 1024

// Launcher schedules workload ranges over the worker pool. The zero value
// is not usable; construct with NewLauncher.
type Launcher struct {
	pool *workersPool
}

// NewLauncher returns a launcher with parallelism bounded by maxParallelism;
// 0 means one worker per CPU, negative means unbounded.
func NewLauncher(maxParallelism int) *Launcher {
	return &Launcher{pool: newWorkersPool(maxParallelism)}
}

var defaultLauncher = NewLauncher(0)

// Default returns the process-wide launcher.
func Default() *Launcher { return defaultLauncher }

// Run invokes fn for every workloadIdx in [0, numWorkloads), in parallel
// chunks of grain size. fn must be safe to call concurrently for distinct
// indices. Run returns after every invocation finished.
func (l *Launcher) Run(numWorkloads int64, fn func(workloadIdx int64)) {
	if numWorkloads <= 0 {
		return
	}
	if numWorkloads < minGrainSize {
		for i := int64(0); i < numWorkloads; i++ {
			fn(i)
		}
		return
	}

	numChunks := (numWorkloads + minGrainSize - 1) / minGrainSize
	if klog.V(2).Enabled() {
		klog.Infof("launching %d workloads in %d chunks", numWorkloads, numChunks)
	}

	// Workers pull the next chunk off a shared counter until exhausted, so
	// uneven chunk costs balance out.
	var nextChunk atomic.Int64
	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for {
			chunk := nextChunk.Add(1) - 1
			if chunk >= numChunks {
				return
			}
			begin := chunk * minGrainSize
			end := min(begin+minGrainSize, numWorkloads)
			for i := begin; i < end; i++ {
				fn(i)
			}
		}
	}

	for spawned := int64(1); spawned < numChunks; spawned++ {
		wg.Add(1)
		if !l.pool.startIfAvailable(worker) {
			wg.Done()
			break
		}
	}
	// The caller participates too, so progress is guaranteed even when the
	// pool is saturated by other ops.
	wg.Add(1)
	worker()
	wg.Wait()
}
