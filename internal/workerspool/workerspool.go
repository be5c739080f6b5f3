// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package workerspool limits the number of goroutines used to split a forward reduction over
// independent ranges of output slots.
package workerspool

import (
	"runtime"
	"sync"
)

// Pool of workers, with a soft limit on parallelism.
type Pool struct {
	// maxParallelism is a soft target on the limit of parallel work to do.
	// The actual number of goroutines may be higher than that.
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // Should be signaled whenever numRunning is decreased.
	numRunning     int
}

// New return a new Pool of workers with the default parallelism (runtime.NumCPU()).
func New() *Pool {
	return NewWithParallelism(runtime.NumCPU())
}

// NewWithParallelism returns a new Pool with the given maxParallelism. See Pool.SetMaxParallelism.
func NewWithParallelism(maxParallelism int) *Pool {
	w := &Pool{maxParallelism: maxParallelism}
	w.cond = sync.Cond{L: &w.mu}
	return w
}

// IsEnabled returns whether parallelism is enabled (maxParallelism is != 0)
func (w *Pool) IsEnabled() bool {
	return w.maxParallelism != 0
}

// IsUnlimited returns whether parallelism is unlimited (maxParallelism < 0)
func (w *Pool) IsUnlimited() bool {
	return w.maxParallelism < 0
}

// MaxParallelism is a soft-target for parallelism.
// If set to 0 parallelism is disabled.
// If set to -1 parallelism is unlimited.
func (w *Pool) MaxParallelism() int {
	return w.maxParallelism
}

// SetMaxParallelism sets the maxParallelism.
//
// You should only change the parallelism before any workers start running. If changed during the execution
// the behavior is undefined.
func (w *Pool) SetMaxParallelism(maxParallelism int) {
	w.maxParallelism = maxParallelism
}

// lockedIsFull returns whether all available workers are in use.
//
// It must be called with Pool.mu acquired.
func (w *Pool) lockedIsFull() bool {
	if w.maxParallelism == 0 {
		return true
	} else if w.maxParallelism < 0 {
		return false
	}
	return w.numRunning >= w.maxParallelism
}

// WaitToStart waits until there is a worker available to run the task.
//
// If parallelism is disabled (maxParallelism is 0), it runs the task inline and returns when it is finished.
func (w *Pool) WaitToStart(task func()) {
	if w.IsUnlimited() {
		go task()
		return

	} else if w.maxParallelism == 0 {
		task()
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for w.lockedIsFull() {
		w.cond.Wait()
	}
	w.lockedRunTaskInGoroutine(task)
}

// lockedRunTaskInGoroutine and keep tabs on w.numRunning.
//
// It must be called with Pool.mu acquired.
func (w *Pool) lockedRunTaskInGoroutine(task func()) {
	w.numRunning++
	go func() {
		task()
		w.mu.Lock()
		w.numRunning--
		w.cond.Signal()
		w.mu.Unlock()
	}()
}

// NumRanges returns into how many ranges ParallelFor splits n items, given each range has at least minRange items.
func (w *Pool) NumRanges(n, minRange int) int {
	if n <= 0 {
		return 0
	}
	if !w.IsEnabled() || minRange <= 0 || n <= minRange {
		return 1
	}
	numRanges := n / minRange
	limit := w.maxParallelism
	if w.IsUnlimited() {
		limit = runtime.NumCPU()
	}
	return max(1, min(numRanges, limit))
}

// ParallelFor splits [0, n) into contiguous ranges of at least minRange items (except if n itself is
// smaller) and calls fn(start, end) for each of them, using the pool's workers.
// It returns only after all ranges are processed.
//
// The last range is run by the calling goroutine, which is not counted as a worker: so with parallelism
// disabled (or a single range) everything runs inline.
func (w *Pool) ParallelFor(n, minRange int, fn func(start, end int)) {
	numRanges := w.NumRanges(n, minRange)
	if numRanges == 0 {
		return
	}
	if numRanges == 1 {
		fn(0, n)
		return
	}
	rangeSize := (n + numRanges - 1) / numRanges
	var wg sync.WaitGroup
	start := 0
	for ; start+rangeSize < n; start += rangeSize {
		rangeStart, rangeEnd := start, start+rangeSize
		wg.Add(1)
		w.WaitToStart(func() {
			defer wg.Done()
			fn(rangeStart, rangeEnd)
		})
	}
	fn(start, n)
	wg.Wait()
}
