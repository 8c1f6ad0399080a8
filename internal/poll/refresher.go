// Package poll runs the fixed-interval re-fetch loops that back up the
// realtime channel. Push-triggered and timer-triggered refreshes share one
// fetch function and one sequence guard.
package poll

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrStale is returned by Refresh when a newer fetch was applied first.
var ErrStale = errors.New("refresh superseded by a newer response")

// Refresher re-fetches a value and hands it to apply. Each fetch is tagged with
// an increasing sequence id and only a response newer than the last applied one
// reaches apply, so a slow response can never overwrite a fresher one.
type Refresher[T any] struct {
	name     string
	interval time.Duration
	fetch    func(context.Context) (T, error)
	apply    func(T)

	mu      sync.Mutex
	issued  uint64
	applied uint64
	onError func(error)
	base    context.Context
	stopped bool
	wg      sync.WaitGroup
}

// New creates a Refresher. apply is called with the refresher's lock held and
// must not call back into it.
func New[T any](name string, interval time.Duration, fetch func(context.Context) (T, error), apply func(T)) *Refresher[T] {
	return &Refresher[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		apply:    apply,
		base:     context.Background(),
	}
}

// OnError registers the callback for fetch failures that were not superseded.
func (r *Refresher[T]) OnError(fn func(error)) {
	r.mu.Lock()
	r.onError = fn
	r.mu.Unlock()
}

// Refresh fetches once and applies the result if it is still the newest.
func (r *Refresher[T]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.issued++
	id := r.issued
	r.mu.Unlock()

	v, err := r.fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if id <= r.applied {
		return ErrStale
	}
	if err != nil {
		if r.onError != nil {
			r.onError(err)
		}
		return err
	}
	r.applied = id
	r.apply(v)
	return nil
}

// Trigger refreshes in the background. It is what realtime listeners call.
func (r *Refresher[T]) Trigger() {
	r.mu.Lock()
	ctx := r.base
	if r.stopped || ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()
	go func() {
		defer r.wg.Done()
		if err := r.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) && ctx.Err() == nil {
			log.Printf("%s refresh failed: %v", r.name, err)
		}
	}()
}

// Start refreshes immediately and then on every interval. The returned stop
// func cancels the loop and waits for in-flight refreshes to finish.
func (r *Refresher[T]) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.base = ctx
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(ctx)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.stopped = true
			r.mu.Unlock()
			cancel()
			r.wg.Wait()
		})
	}
}

func (r *Refresher[T]) loop(ctx context.Context) {
	_ = r.Refresh(ctx)
	if r.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.Refresh(ctx)
		}
	}
}
