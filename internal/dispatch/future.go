package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

var (
	// ErrUnavailable is returned when work cannot be handed to a worker
	// (scheduler closed or the spawn was rejected).
	ErrUnavailable = errors.New("dispatch: scheduler unavailable")

	// ErrInvalidInterval is returned by Every for non-positive intervals.
	ErrInvalidInterval = errors.New("dispatch: interval must be positive")
)

// Spawner hands a task to some worker context.
type Spawner interface {
	Spawn(ctx context.Context, task func()) error
}

// PanicError carries a panic recovered from a dispatched operation.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("dispatch: operation panicked: %v", e.Value)
}

// Unwrap returns the panic value if it was an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Future is the result of a dispatched operation.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go dispatches op to sp exactly once and returns a Future for its result.
//
// If sp rejects the task, the returned error wraps ErrUnavailable and op never runs.
func Go[T any](ctx context.Context, sp Spawner, op func() (T, error)) (*Future[T], error) {
	if sp == nil {
		return nil, ErrUnavailable
	}

	f := &Future[T]{done: make(chan struct{})}
	task := func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		f.val, f.err = op()
	}

	if err := sp.Spawn(ctx, task); err != nil {
		// A caller that gave up before enqueueing keeps its own ctx error.
		if errors.Is(err, ErrUnavailable) || ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return f, nil
}

// Done is closed once the operation has fully returned.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the operation has returned or ctx is done.
//
// Abandoning the wait does not stop the operation; it keeps running on its
// worker and its result is dropped.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Do dispatches op and waits for its result.
func Do[T any](ctx context.Context, sp Spawner, op func() (T, error)) (T, error) {
	f, err := Go(ctx, sp, op)
	if err != nil {
		var zero T
		return zero, err
	}
	return f.Await(ctx)
}
