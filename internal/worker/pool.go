package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MapOrdered runs fn over items with at most workers goroutines in flight.
// Workers pull the next unprocessed index from a shared cursor and write
// into a pre-sized results slice, so output order always matches input
// order regardless of completion order. A panic or error in one item is
// captured in that item's slot and never cancels sibling work.
func MapOrdered[T, R any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, index int, item T) (R, error)) []Slot[R] {
	results := make([]Slot[R], len(items))
	if len(items) == 0 {
		return results
	}

	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	var cursor atomic.Int64
	cursor.Store(-1)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(cursor.Add(1))
				if idx >= len(items) {
					return
				}
				if err := ctx.Err(); err != nil {
					results[idx] = Slot[R]{Err: err}
					continue
				}
				results[idx] = run(ctx, idx, items[idx], fn)
			}
		}()
	}
	wg.Wait()

	return results
}

// Slot holds the outcome for one input index.
type Slot[R any] struct {
	Value R
	Err   error
}

// run executes fn for a single item, converting panics into errors so a
// misbehaving task cannot take down the whole pool.
func run[T, R any](ctx context.Context, idx int, item T, fn func(ctx context.Context, index int, item T) (R, error)) (slot Slot[R]) {
	defer func() {
		if r := recover(); r != nil {
			slot = Slot[R]{Err: fmt.Errorf("worker panic on item %d: %v", idx, r)}
		}
	}()

	v, err := fn(ctx, idx, item)
	return Slot[R]{Value: v, Err: err}
}
