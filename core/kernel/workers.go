package kernel

import (
	"runtime"
	"sync"
)

// workersPool bounds the number of goroutines running kernel chunks.
// maxParallelism is a soft target: 0 disables parallelism (tasks run
// inline), negative removes the bound.
type workersPool struct {
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // Signaled whenever numRunning decreases.
	numRunning     int
}

func newWorkersPool(maxParallelism int) *workersPool {
	if maxParallelism == 0 {
		maxParallelism = runtime.NumCPU()
	}
	w := &workersPool{maxParallelism: maxParallelism}
	w.cond = sync.Cond{L: &w.mu}
	return w
}

func (w *workersPool) isUnlimited() bool {
	return w.maxParallelism < 0
}

// lockedIsFull must be called with mu held.
func (w *workersPool) lockedIsFull() bool {
	if w.isUnlimited() {
		return false
	}
	return w.numRunning >= w.maxParallelism
}

// waitToStart blocks until a worker slot frees up, then runs task in its own
// goroutine.
func (w *workersPool) waitToStart(task func()) {
	if w.isUnlimited() {
		go task()
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.lockedIsFull() {
		w.cond.Wait()
	}
	w.lockedRunTaskInGoroutine(task)
}

// lockedRunTaskInGoroutine must be called with mu held.
func (w *workersPool) lockedRunTaskInGoroutine(task func()) {
	w.numRunning++
	go func() {
		task()
		w.mu.Lock()
		w.numRunning--
		w.cond.Signal()
		w.mu.Unlock()
	}()
}

// startIfAvailable runs task in a goroutine when a slot is free; the caller
// synchronizes completion.
func (w *workersPool) startIfAvailable(task func()) bool {
	if w.isUnlimited() {
		go task()
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lockedIsFull() {
		return false
	}
	w.lockedRunTaskInGoroutine(task)
	return true
}
