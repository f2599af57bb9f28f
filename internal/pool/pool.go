// Package pool runs one operation per item with a fixed number of concurrent slots and streams
// the outcomes back in completion order.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrPanic is returned in an Outcome when the worker function panicked.
var ErrPanic = errors.New("worker panicked")

// Outcome is the result of running the worker function on one item.
type Outcome[T, R any] struct {
	// Seq is the 1-based position of this outcome in completion order.
	Seq int
	// Index is the item's position in the input slice.
	Index int
	Item  T
	Value R
	Err   error
}

// Map submits every item up front and runs fn on at most limit items at a time.
// Each item is attempted exactly once. A failing or panicking item only affects its own Outcome.
// The returned channel yields len(items) outcomes and is then closed.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) <-chan Outcome[T, R] {
	if limit <= 0 {
		limit = 1
	}
	out := make(chan Outcome[T, R], len(items))

	var (
		mu  sync.Mutex
		seq int
	)
	publish := func(o Outcome[T, R]) {
		mu.Lock()
		defer mu.Unlock()
		seq++
		o.Seq = seq
		out <- o
	}

	go func() {
		var g errgroup.Group
		g.SetLimit(limit)
		for i, item := range items {
			g.Go(func() error {
				value, err := run(ctx, item, fn)
				publish(Outcome[T, R]{Index: i, Item: item, Value: value, Err: err})
				return nil
			})
		}
		_ = g.Wait()
		close(out)
	}()

	return out
}

func run[T, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error)) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			value = zero
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(ctx, item)
}
