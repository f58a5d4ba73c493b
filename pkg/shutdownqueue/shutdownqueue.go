// Package shutdownqueue collects cleanup tasks during startup and drains
// them in reverse registration order when the process shuts down.
//
// Components register their teardown with Add as they come up; main drains
// the queue once at exit:
//
//	ctx, cancel := context.WithTimeout(context.Background(), timeout)
//	defer cancel()
//	err := shutdownqueue.Shutdown(ctx)
//
// Shutdown runs each task at most once, recovers panics, and aggregates
// failures with errors.Join. Repeated calls are no-ops.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a teardown function. It should respect ctx and report an error
// when it cannot finish in time.
type Task func(ctx context.Context) error

var (
	mu     sync.Mutex
	tasks  []Task
	closed bool
)

// Add registers a task to run during Shutdown. Tasks run in LIFO order,
// mirroring the order their owners started up. Adding a nil task, or
// adding after shutdown has begun, does nothing.
func Add(t Task) {
	if t == nil {
		return
	}

	mu.Lock()
	defer mu.Unlock()

	if closed {
		return
	}

	tasks = append(tasks, t)
}

// Shutdown drains the queue. If ctx expires mid-drain the remaining tasks
// are skipped and the context error is included in the result.
func Shutdown(ctx context.Context) error {
	mu.Lock()

	closed = true
	pending := tasks
	tasks = nil

	mu.Unlock()

	var errs []error

	for i := len(pending) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		err := runTask(ctx, pending[i])
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic in shutdown task: %v", r)
		}
	}()

	return t(ctx)
}
