package worker

import (
	"context"
	"sync"
	"sync/atomic"
)

// Task computes the result for one position of a batch
type Task[T any] func(ctx context.Context, index int) T

// Pool runs the tasks of a batch on a fixed number of goroutines and stores
// every result at its task's index, so completion order never leaks out.
type Pool[T any] struct {
	workers  int
	every    int
	progress func(done, total int)
}

// NewPool creates a Pool with the given number of workers (at least one)
func NewPool[T any](workers int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	return &Pool[T]{workers: workers}
}

// OnProgress calls fn after every n completed tasks and after the last one
func (p *Pool[T]) OnProgress(n int, fn func(done, total int)) *Pool[T] {
	p.every = n
	p.progress = fn
	return p
}

// Run executes task for every index in [0, n) and returns the results by
// index. Once ctx is done no further task starts; the positions of tasks
// that never ran hold the zero value of T.
func (p *Pool[T]) Run(ctx context.Context, n int, task Task[T]) []T {
	results := make([]T, n)
	if n == 0 {
		return results
	}

	indices := make(chan int)
	go func() {
		defer close(indices)
		for i := 0; i < n; i++ {
			select {
			case indices <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		wg   sync.WaitGroup
		done atomic.Int64
	)
	workers := min(p.workers, n)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				if ctx.Err() != nil {
					continue
				}
				results[i] = task(ctx, i)
				p.report(int(done.Add(1)), n)
			}
		}()
	}
	wg.Wait()
	return results
}

func (p *Pool[T]) report(done, total int) {
	if p.progress == nil {
		return
	}
	if (p.every > 0 && done%p.every == 0) || done == total {
		p.progress(done, total)
	}
}
