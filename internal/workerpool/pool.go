// Package workerpool provides the bounded adapter the design notes call
// for (spec.md §9, "async + blocking mix"): a small semaphore-gated pool
// that the Source Runner submits blocking work to — subprocess waits and a
// plugin's CPU-bound Parse call — so that no single slow attempt starves
// the rest of a scan. Constructed once at Driver start and passed down
// explicitly (spec.md §9, "global mutable state").
package workerpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds concurrent blocking work to a fixed number of slots, backed
// by golang.org/x/sync/semaphore rather than a hand-rolled buffered-channel
// gate — its Acquire already takes a context, which is exactly the
// cancellable-wait behavior Submit needs.
type Pool struct {
	sem *semaphore.Weighted
}

// New creates a Pool with the given concurrency limit. A non-positive size
// is clamped to 1.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Submit runs fn on the pool, blocking until a slot is free or ctx is
// cancelled. The result of fn (or ctx.Err if cancelled first) is returned.
func Submit[T any](ctx context.Context, p *Pool, fn func() T) (T, error) {
	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer p.sem.Release(1)

	type result struct {
		value T
	}
	done := make(chan result, 1)
	go func() {
		done <- result{value: fn()}
	}()

	select {
	case r := <-done:
		return r.value, nil
	case <-ctx.Done():
		// fn keeps running in the background (e.g. a subprocess wait that
		// will itself observe ctx cancellation); we just stop waiting on it.
		return zero, ctx.Err()
	}
}
