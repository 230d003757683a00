package parallel

import "sync"

// ForEachChunk splits n items into roughly equal chunks and runs fn for each
// [start, end) range on the pool, blocking until every chunk finishes. Used
// to spread per-source centrality passes over the workers; fn must only read
// shared state, writing to its own accumulator.
func ForEachChunk(pool *WorkerPool, n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	workers := pool.Workers()
	chunkSize := (n + workers - 1) / workers
	if chunkSize < 1 {
		chunkSize = 1
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		task := func(s, e int) func() {
			return func() {
				defer wg.Done()
				fn(s, e)
			}
		}(start, end)
		if !pool.Submit(task) {
			// pool closed: run inline so callers never deadlock
			task()
		}
	}
	wg.Wait()
}
