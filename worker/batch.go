package worker

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Result is the outcome of processing one key. Exactly one of Value and
// Err is meaningful.
type Result[R any] struct {
	// Index is the position of the key in the input slice.
	Index int

	// Key is the processed object key.
	Key string

	// Value is the successful outcome.
	Value R

	// Err is the failure, classified by the caller.
	Err error

	// Duration is the time taken to process this key.
	Duration time.Duration
}

// Func processes one key.
type Func[R any] func(ctx context.Context, key string) (R, error)

// Run processes every key and returns one result per key, in input order.
// Keys are distributed over at most workers goroutines; workers <= 0 uses
// runtime.NumCPU(). When ctx is cancelled, unprocessed keys are returned
// with ctx.Err() so the caller can discard the batch without side effects.
func Run[R any](ctx context.Context, keys []string, workers int, fn Func[R]) []Result[R] {
	results := make([]Result[R], len(keys))
	done := make([]bool, len(keys))
	for i, key := range keys {
		results[i] = Result[R]{Index: i, Key: key}
	}
	if len(keys) == 0 {
		return results
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(keys) {
		workers = len(keys)
	}

	// Tiny batches are not worth the goroutine handoff.
	if workers == 1 || len(keys) <= 2 {
		runSequential(ctx, keys, results, done, fn)
	} else {
		runParallel(ctx, keys, results, done, fn, workers)
	}

	// Keys skipped after cancellation carry the context error, never a
	// zero value that could be mistaken for success.
	if err := ctx.Err(); err != nil {
		for i := range results {
			if !done[i] {
				results[i].Err = err
			}
		}
	}
	return results
}

func runParallel[R any](ctx context.Context, keys []string, results []Result[R], done []bool, fn Func[R], workers int) {
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runOne(ctx, i, keys[i], fn)
				done[i] = true
			}
		}()
	}

	for i := range keys {
		select {
		case <-ctx.Done():
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()
}

func runSequential[R any](ctx context.Context, keys []string, results []Result[R], done []bool, fn Func[R]) {
	for i, key := range keys {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results[i] = runOne(ctx, i, key, fn)
		done[i] = true
	}
}

func runOne[R any](ctx context.Context, index int, key string, fn Func[R]) Result[R] {
	start := time.Now()
	value, err := fn(ctx, key)
	return Result[R]{
		Index:    index,
		Key:      key,
		Value:    value,
		Err:      err,
		Duration: time.Since(start),
	}
}
