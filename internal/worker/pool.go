// Package worker provides a generic concurrent worker pool for fan-out/fan-in
// simulation runs. Used by the simulation driver and the stat weight search to
// spread independent processors across available CPUs.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Result pairs a processed value with its original index to preserve ordering.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// PanicError is the per-item error recorded when fn panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Pool fans out work items to a fixed number of goroutine workers
// and collects results preserving the original input order.
type Pool[I, O any] struct {
	concurrency int
}

// NewPool creates a worker pool with the given concurrency.
// If concurrency <= 0, defaults to runtime.NumCPU().
func NewPool[I, O any](concurrency int) *Pool[I, O] {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Pool[I, O]{concurrency: concurrency}
}

// Process distributes items across workers, applies fn to each, and returns
// results in the same order as the input slice. Errors and panics from
// individual items are captured per-result rather than aborting the whole batch.
// Items not yet started when ctx is done get ctx.Err().
func (p *Pool[I, O]) Process(ctx context.Context, items []I, fn func(context.Context, I) (O, error)) []Result[O] {
	if len(items) == 0 {
		return nil
	}

	workers := min(p.concurrency, len(items))

	type job struct {
		index int
		item  I
	}

	jobs := make(chan job, len(items))
	results := make([]Result[O], len(items))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					results[j.index] = Result[O]{Index: j.index, Err: err}
					continue
				}
				val, err := call(ctx, j.item, fn)
				results[j.index] = Result[O]{
					Index: j.index,
					Value: val,
					Err:   err,
				}
			}
		}()
	}

	for i, item := range items {
		jobs <- job{index: i, item: item}
	}
	close(jobs)

	wg.Wait()

	return results
}

func call[I, O any](ctx context.Context, item I, fn func(context.Context, I) (O, error)) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx, item)
}
