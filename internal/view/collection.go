package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"tableorder-agent/internal/poll"
)

// collection is the polled list behind an admin page. A failed load keeps the
// previous items and sets the banner until the next successful load.
type collection[T any] struct {
	mu     sync.Mutex
	v      T
	banner string
	loaded bool
	ref    *poll.Refresher[T]
	onLoad func(T)
}

func newCollection[T any](name string, interval time.Duration, fetch func(context.Context) (T, error)) *collection[T] {
	c := &collection[T]{}
	c.ref = poll.New(name, interval, fetch, c.apply)
	c.ref.OnError(func(err error) {
		c.mu.Lock()
		c.banner = err.Error()
		c.mu.Unlock()
	})
	return c
}

func (c *collection[T]) apply(v T) {
	c.mu.Lock()
	c.v = v
	c.banner = ""
	c.loaded = true
	onLoad := c.onLoad
	c.mu.Unlock()
	if onLoad != nil {
		onLoad(v)
	}
}

// value returns the last loaded value, the banner and whether anything loaded.
func (c *collection[T]) value() (T, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v, c.banner, c.loaded
}

// reload fetches synchronously, as done after every mutation.
func (c *collection[T]) reload(ctx context.Context) error {
	err := c.ref.Refresh(ctx)
	if errors.Is(err, poll.ErrStale) {
		return nil
	}
	return err
}

func (c *collection[T]) start(ctx context.Context, s *scope) {
	s.add(c.ref.Start(background(ctx)))
}
