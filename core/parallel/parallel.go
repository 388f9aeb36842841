// Package parallel provides the worker-pool helpers used for data-parallel
// work such as prediction batches and grid-search evaluation units.
package parallel

import (
	"runtime"
	"sync"
)

// Parallelize divides items across the available CPU cores and runs fn on
// each contiguous range (start, end). It returns after every range has been
// processed.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
	}

	// Number of items per worker (ceiling division)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}

		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold runs fn in parallel only when items exceeds
// threshold, otherwise sequentially in the calling goroutine.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}

	Parallelize(items, fn)
}

// ForEach runs fn once per index in parallel. Each index is visited exactly
// once; fn must only write to state owned by its index.
func ForEach(items int, fn func(i int)) {
	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
