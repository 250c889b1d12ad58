// Package pool defines the worker-pool boundary: task submission, map
// fan-out, and one-shot futures carrying a correlation key that is readable
// synchronously at submission time.
package pool

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Task is one unit of remote computation.
type Task func(ctx context.Context) (any, error)

// MapFunc computes the i-th element of a map fan-out.
type MapFunc func(ctx context.Context, i int) (any, error)

// Client is the submission interface to a pool of workers. Submit and Map
// return as soon as the work is accepted, never when it completes.
//
// deps are futures the task consumes. A pool must not let the task occupy a
// worker before every dep has resolved; a bounded pool would otherwise
// deadlock when downstream stages of a deep graph fill all slots while
// awaiting upstream ones.
type Client interface {
	Submit(name string, task Task, deps ...*Future) *Future
	Map(name string, n int, fn MapFunc, deps ...*Future) []*Future
}

// Future is the handle to one submitted task. It resolves exactly once, with
// either a value or an error, and its key never changes after submission.
type Future struct {
	key  string
	done chan struct{}

	once  sync.Once
	value any
	err   error
}

// NewFuture creates an unresolved future with the given correlation key.
func NewFuture(key string) *Future {
	return &Future{
		key:  key,
		done: make(chan struct{}),
	}
}

// NewKey generates a correlation key for a task with the given stage name.
func NewKey(name string) string {
	return name + "-" + uuid.NewString()
}

// Key returns the correlation token assigned at submission time.
func (f *Future) Key() string {
	return f.key
}

// Resolve completes the future. Only the first call has any effect.
func (f *Future) Resolve(value any, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed when the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Resolved reports whether the future has completed, without blocking.
func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future resolves or the context expires.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
