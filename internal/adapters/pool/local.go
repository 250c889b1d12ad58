// Package pool provides the in-process worker pool adapter.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	corepool "github.com/timescope/featureset-api/internal/pool"
)

// LocalOptions configures the local worker pool.
type LocalOptions struct {
	Workers int // concurrent task slots; defaults to 4
	Logger  *slog.Logger
}

// Local executes submitted tasks on a bounded set of goroutines. Submission
// never blocks: each task waits for a slot inside its own goroutine, so the
// caller gets its future back immediately regardless of pool pressure.
type Local struct {
	sem    *semaphore.Weighted
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ corepool.Client = (*Local)(nil)

const defaultWorkers = 4

// NewLocal constructs a running local pool.
func NewLocal(opts LocalOptions) *Local {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Local{
		sem:    semaphore.NewWeighted(int64(workers)),
		logger: logger.With("component", "local_pool"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit accepts one task and returns its future immediately. The task takes
// a worker slot only after all deps have resolved.
func (p *Local) Submit(name string, task corepool.Task, deps ...*corepool.Future) *corepool.Future {
	fut := corepool.NewFuture(corepool.NewKey(name))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		// Wait for inputs before occupying a slot. Dep errors are not handled
		// here: the task awaits the same futures and propagates them.
		for _, dep := range deps {
			if _, err := dep.Await(p.ctx); err != nil && p.ctx.Err() != nil {
				fut.Resolve(nil, fmt.Errorf("pool shut down before task %s started: %w", fut.Key(), p.ctx.Err()))
				return
			}
		}

		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			fut.Resolve(nil, fmt.Errorf("pool shut down before task %s started: %w", fut.Key(), err))
			return
		}
		defer p.sem.Release(1)

		value, err := runTask(p.ctx, task)
		if err != nil {
			p.logger.Debug("task failed", "key", fut.Key(), "error", err)
		}
		fut.Resolve(value, err)
	}()

	return fut
}

// Map submits n indexed tasks and returns their futures in order.
func (p *Local) Map(name string, n int, fn corepool.MapFunc, deps ...*corepool.Future) []*corepool.Future {
	futures := make([]*corepool.Future, n)
	for i := range n {
		idx := i
		futures[i] = p.Submit(name, func(ctx context.Context) (any, error) {
			return fn(ctx, idx)
		}, deps...)
	}
	return futures
}

// runTask executes the task, converting panics into ordinary task errors so a
// misbehaving stage resolves its future instead of killing the process.
func runTask(ctx context.Context, task corepool.Task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(ctx)
}

// Shutdown drains the pool: in-flight and queued tasks keep running until
// the context expires, and only then is the pool context cancelled. Tasks
// cut off at the deadline resolve with an error and fail through their
// watchers like any other failed run.
func (p *Local) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}
