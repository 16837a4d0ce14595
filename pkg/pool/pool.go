// Package pool provides a reusable, bounded worker pool.
//
// A single Pool is created at startup and shared by every caller, so the
// concurrency limit holds across all rounds of a run rather than per call.
// Callers must not invoke Run from inside a task of the same pool: a task
// waiting on nested work would hold a slot the nested work needs.
package pool

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrInvalidSize is returned by New when size is not positive.
var ErrInvalidSize = errors.New("pool size must be positive")

// Pool bounds the number of tasks in flight across all Run calls.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New creates a pool that runs at most size tasks concurrently.
func New(size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}, nil
}

// Size returns the configured concurrency limit.
func (p *Pool) Size() int {
	return p.size
}

// Run calls fn(ctx, i) for every i in [0, n) and waits for all of them.
// The first task error cancels the context passed to the remaining tasks
// and is returned. Tasks that have not started yet when the context is
// cancelled are not started.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}

	eg, egCtx := errgroup.WithContext(ctx)

	var acquireErr error
	for i := 0; i < n; i++ {
		if err := p.sem.Acquire(egCtx, 1); err != nil {
			acquireErr = err
			break
		}

		eg.Go(func() error {
			defer p.sem.Release(1)
			return fn(egCtx, i)
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}
	return acquireErr
}
