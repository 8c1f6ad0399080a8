// Package tablesession implements the customer-page inactivity countdown.
package tablesession

import (
	"sync"
	"time"
)

// DefaultTimeout is the countdown length when none is configured.
const DefaultTimeout = 300 * time.Second

// Ticker is the subset of *time.Ticker the timer needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Option configures a Timer.
type Option func(*Timer)

// WithTicker replaces the one-second ticker source.
func WithTicker(f func(time.Duration) Ticker) Option {
	return func(t *Timer) { t.newTicker = f }
}

// WithOnTick registers a callback run after every tick with the remaining time.
func WithOnTick(fn func(remaining time.Duration)) Option {
	return func(t *Timer) { t.onTick = fn }
}

// Timer counts down one second per tick. The countdown restarts whenever the
// observed item count grows, and onExpire runs once when it reaches zero.
// At most one ticker is live at any time.
type Timer struct {
	timeout   time.Duration
	onExpire  func()
	onTick    func(time.Duration)
	newTicker func(time.Duration) Ticker

	mu        sync.Mutex
	active    bool
	remaining time.Duration
	lastCount int
	gen       uint64
	epoch     uint64
	ticker    Ticker
	quit      chan struct{}
}

// New creates an idle Timer.
func New(timeout time.Duration, onExpire func(), opts ...Option) *Timer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := &Timer{
		timeout:   timeout,
		onExpire:  onExpire,
		newTicker: newRealTicker,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Handle is returned by Start; Release stops the countdown.
type Handle struct {
	t     *Timer
	epoch uint64
	once  sync.Once
}

// Release stops the countdown and returns the timer to idle. It is idempotent,
// and a handle from an earlier Start never stops a later countdown.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.t.mu.Lock()
		defer h.t.mu.Unlock()
		if h.t.epoch != h.epoch {
			return
		}
		h.t.stopLocked()
		h.t.active = false
	})
}

// Start begins a full countdown, replacing any running one.
func (t *Timer) Start() *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.epoch++
	t.lastCount = 0
	t.restartLocked()
	return &Handle{t: t, epoch: t.epoch}
}

// Observe records the current item count and restarts the countdown when it
// grew. It does nothing to an idle timer besides recording the count.
func (t *Timer) Observe(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	grew := count > t.lastCount
	t.lastCount = count
	if grew && t.active {
		t.restartLocked()
	}
}

// Remaining is the time left on the countdown, zero when idle.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return 0
	}
	return t.remaining
}

// Active reports whether the countdown is running.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Timer) restartLocked() {
	t.stopLocked()
	t.active = true
	t.remaining = t.timeout
	t.gen++
	t.ticker = t.newTicker(time.Second)
	t.quit = make(chan struct{})
	go t.run(t.gen, t.ticker, t.quit)
}

func (t *Timer) stopLocked() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	close(t.quit)
	t.ticker = nil
	t.gen++
}

func (t *Timer) run(gen uint64, tk Ticker, quit <-chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-tk.C():
		}

		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.remaining -= time.Second
		rem := t.remaining
		expired := rem <= 0
		if expired {
			t.remaining = 0
			t.stopLocked()
			t.active = false
		}
		onTick := t.onTick
		t.mu.Unlock()

		if onTick != nil {
			onTick(rem)
		}
		if expired {
			if t.onExpire != nil {
				t.onExpire()
			}
			return
		}
	}
}
