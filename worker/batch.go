package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"
)

// Func processes a single item.
type Func[T, R any] func(ctx context.Context, item T) (R, error)

// Batch runs a Func over many items in parallel. A failing item never stops
// the others; jobs not yet started when ctx is done fail with ctx.Err().
type Batch[T, R any] struct {
	fn      Func[T, R]
	workers int
}

// NewBatch creates a batch runner. If workers <= 0, it defaults to
// runtime.NumCPU().
func NewBatch[T, R any](fn Func[T, R], workers int) *Batch[T, R] {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Batch[T, R]{fn: fn, workers: workers}
}

// Workers returns the configured worker count.
func (b *Batch[T, R]) Workers() int {
	return b.workers
}

// Run processes items and returns one result per item, in item order.
func (b *Batch[T, R]) Run(ctx context.Context, items []T) *BatchResult[T, R] {
	start := time.Now()

	var res *BatchResult[T, R]
	switch {
	case len(items) == 0:
		res = &BatchResult[T, R]{Results: make([]*JobResult[T, R], 0)}
	case len(items) <= 2 || b.workers == 1:
		// Not worth the goroutines
		res = b.runSequential(ctx, items)
	default:
		res = b.runParallel(ctx, items)
	}

	res.TotalDuration = time.Since(start)
	return res
}

func (b *Batch[T, R]) runSequential(ctx context.Context, items []T) *BatchResult[T, R] {
	results := make([]*JobResult[T, R], len(items))
	for i, item := range items {
		results[i] = b.process(ctx, i, item)
	}
	return summarize(results)
}

func (b *Batch[T, R]) runParallel(ctx context.Context, items []T) *BatchResult[T, R] {
	numWorkers := b.workers
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	jobs := make(chan int)
	results := make([]*JobResult[T, R], len(items))

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Each index is written by exactly one worker.
				results[i] = b.process(ctx, i, items[i])
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return summarize(results)
}

func (b *Batch[T, R]) process(ctx context.Context, index int, item T) *JobResult[T, R] {
	jr := &JobResult[T, R]{Index: index, Item: item}
	if err := ctx.Err(); err != nil {
		jr.Err = err
		return jr
	}

	start := time.Now()
	jr.Result, jr.Err = b.fn(ctx, item)
	jr.Duration = time.Since(start)
	return jr
}

func summarize[T, R any](results []*JobResult[T, R]) *BatchResult[T, R] {
	br := &BatchResult[T, R]{
		Results:   results,
		TotalJobs: len(results),
	}
	for _, r := range results {
		if r.Err != nil {
			br.FailedJobs++
			if errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded) {
				continue
			}
		}
		br.CompletedJobs++
	}
	return br
}

// RunSimple is a convenience function using runtime.NumCPU() workers.
func RunSimple[T, R any](ctx context.Context, fn Func[T, R], items []T) *BatchResult[T, R] {
	return NewBatch(fn, runtime.NumCPU()).Run(ctx, items)
}
