// Package parallel provides small helpers for data-parallel loops.
//
// Convolutions and kernel-rotation expansions are embarrassingly
// parallel across output channels and batch entries; these helpers give
// the CPU backend a uniform way to fan that work out over the available
// cores without each op reimplementing the worker plumbing.
package parallel

import (
	"runtime"
	"sync"
)

// minWorkPerGoroutine is the smallest chunk of cheap per-index work
// worth a goroutine. Tiny loops run inline; the dispatch overhead
// otherwise dominates.
const minWorkPerGoroutine = 256

// For runs fn over [0, n) split into contiguous ranges, one range per
// worker. fn receives [start, end) bounds and must not panic across
// range boundaries. Blocks until all ranges complete. Intended for
// cheap per-index work such as elementwise kernels.
func For(n int, fn func(start, end int)) {
	run(n, minWorkPerGoroutine, fn)
}

// ForEach runs fn for every index in [0, n) using For under the hood.
func ForEach(n int, fn func(i int)) {
	For(n, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// ForEachPlane runs fn for every index in [0, n), treating each index
// as a plane-sized unit of work: a full output plane, batch entry, or
// channel slice. Unlike ForEach it fans out whenever n > 1, since a
// single unit already dwarfs the goroutine dispatch cost.
func ForEachPlane(n int, fn func(i int)) {
	run(n, 1, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// run splits [0, n) over the available cores, capping the worker count
// so each goroutine gets at least minWork indices.
func run(n, minWork int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	workers := runtime.NumCPU()
	if max := (n + minWork - 1) / minWork; workers > max {
		workers = max
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
