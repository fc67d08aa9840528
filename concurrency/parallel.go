package concurrency

import (
	"context"
	"fmt"
	"sync"
)

// ParallelExecutor runs functions on a bounded number of goroutines.
type ParallelExecutor struct {
	maxWorkers int
}

// NewParallelExecutor creates an executor with at most maxWorkers
// goroutines. Values below one mean one.
func NewParallelExecutor(maxWorkers int) *ParallelExecutor {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &ParallelExecutor{maxWorkers: maxWorkers}
}

// Execute runs every fn and returns their errors by index. Functions not
// started before ctx is done report ctx.Err(); a panicking fn reports the
// panic as its error.
func (p *ParallelExecutor) Execute(ctx context.Context, fns []func() error) []error {
	if len(fns) == 0 {
		return nil
	}

	workers := p.maxWorkers
	if len(fns) < workers {
		workers = len(fns)
	}

	queue := make(chan int, len(fns))
	results := make([]error, len(fns))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range queue {
				if err := ctx.Err(); err != nil {
					results[index] = err
					continue
				}
				results[index] = run(fns[index])
			}
		}()
	}

	for i := range fns {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
