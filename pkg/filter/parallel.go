package filter

import (
	"runtime"
	"sync"
)

// forEachSlab splits the z range [0, nz) into contiguous slabs and runs fn on
// each from its own goroutine. workers <= 0 means one per CPU.
func forEachSlab(nz, workers int, fn func(k0, k1 int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > nz {
		workers = nz
	}
	if workers <= 1 {
		fn(0, nz)
		return
	}

	var wg sync.WaitGroup
	perCore := (nz + workers - 1) / workers
	for c := 0; c < workers; c++ {
		start := c * perCore
		end := start + perCore
		if end > nz {
			end = nz
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
