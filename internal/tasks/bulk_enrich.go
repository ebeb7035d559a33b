package tasks

import (
	"context"
	"sync"
)

// DefaultWorkers is the enrichment pool size when none is given.
const DefaultWorkers = 4

const maxWorkers = 10

// EnrichMany enriches ids concurrently with a small worker pool and returns results in input order.
//
// Each id is enriched with [Engine.Enrich], so recommender failures degrade to catalog fields.
// Ids that are not in the catalog carry their error in [EnrichResult.Err]. Rate limiting is
// left to the recommender client. A cancelled context stops dispatching; undispatched ids
// are reported with the context error.
func (e *Engine) EnrichMany(ctx context.Context, ids []int, workers int, progress chan<- ProgressUpdate) []EnrichResult {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	workers = min(workers, maxWorkers, max(len(ids), 1))

	type job struct {
		index int
		id    int
	}

	results := make([]EnrichResult, len(ids))
	for i, id := range ids {
		results[i] = EnrichResult{ID: id}
	}

	jobs := make(chan job)
	done := make(chan int, len(ids))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				meta, degraded, err := e.Enrich(ctx, j.id)
				results[j.index] = EnrichResult{ID: j.id, Meta: meta, Degraded: degraded, Err: err}
				done <- j.index
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if song, ok := e.catalog.Lookup(id); ok {
				e.sendProgress(progress, enrichUpdate(i+1, len(ids), song))
			}
			select {
			case <-ctx.Done():
				for k := i; k < len(ids); k++ {
					results[k].Err = ctx.Err()
				}
				return
			case jobs <- job{index: i, id: id}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for idx := range done {
		completed++
		e.sendProgress(progress, enrichDoneUpdate(completed, len(ids), results[idx]))
	}

	return results
}
