package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// MaxWorkers caps RunAll concurrency
const MaxWorkers = 8

// RunAll scrapes every strategy and returns the reports in input order.
// Institutions are independent, so up to workers of them run at once; each
// institution's pages are still applied in order by its own Run. onDone, if
// set, is called from the worker goroutines as each report completes.
func (r *Runner) RunAll(ctx context.Context, strategies []Strategy, workers int, onDone func(*Report)) []*Report {
	if workers <= 0 {
		workers = 1
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}
	if workers > len(strategies) {
		workers = len(strategies)
	}

	reports := make([]*Report, len(strategies))
	if len(strategies) == 0 {
		return reports
	}

	jobs := make(chan int, len(strategies))
	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			log.Debug().Int("worker_id", id).Msg("Worker started")
			for idx := range jobs {
				rep := r.Run(ctx, strategies[idx])
				reports[idx] = rep
				if onDone != nil {
					onDone(rep)
				}
			}
			log.Debug().Int("worker_id", id).Msg("Worker finished")
		}(w)
	}

	for i := range strategies {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return reports
}
