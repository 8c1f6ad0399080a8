package view

import (
	"context"
	"sort"
	"sync"

	"tableorder-agent/internal/model"
	"tableorder-agent/internal/realtime"
)

// callWatcher reports pending calls it has not seen before. The first load
// only primes it.
type callWatcher struct {
	mu     sync.Mutex
	seen   map[string]bool
	primed bool
}

func (w *callWatcher) fresh(calls []model.Call) []model.Call {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen == nil {
		w.seen = make(map[string]bool)
	}
	var out []model.Call
	for _, c := range calls {
		if c.Status != model.CallPending || w.seen[c.ID] {
			continue
		}
		w.seen[c.ID] = true
		if w.primed {
			out = append(out, c)
		}
	}
	w.primed = true
	return out
}

func alertCalls(d Deps, storeID string, w *callWatcher, calls []model.Call) {
	fresh := w.fresh(calls)
	if d.Alerts == nil {
		return
	}
	for _, c := range fresh {
		d.Alerts.NewCall(storeID, c)
	}
}

// CallsState is the staff call list.
type CallsState struct {
	Calls     []model.Call `json:"calls"`
	Pending   int          `json:"pending"`
	Banner    string       `json:"banner,omitempty"`
	Loaded    bool         `json:"loaded"`
	Connected bool         `json:"connected"`
}

// CallsPage lists staff calls, pending first.
type CallsPage struct {
	d       Deps
	scope   scope
	calls   *collection[[]model.Call]
	watcher callWatcher
}

// NewCallsPage creates an unmounted calls page.
func NewCallsPage(d Deps) *CallsPage {
	return &CallsPage{d: d}
}

func (p *CallsPage) Route() string { return RouteCalls }

func (p *CallsPage) Mount(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			p.scope.release()
		}
	}()
	storeID, err := requireAdmin(ctx, p.d, true)
	if err != nil {
		return err
	}
	p.calls = newCollection("calls", p.d.Intervals.Calls, func(ctx context.Context) ([]model.Call, error) {
		calls, err := resultErr(p.d.Backend.ListCalls(ctx, storeID))
		if err != nil {
			return nil, err
		}
		sort.SliceStable(calls, func(i, j int) bool {
			pi, pj := calls[i].Status == model.CallPending, calls[j].Status == model.CallPending
			if pi != pj {
				return pi
			}
			return calls[i].CreatedAt.Before(calls[j].CreatedAt)
		})
		return calls, nil
	})
	p.calls.onLoad = func(calls []model.Call) { alertCalls(p.d, storeID, &p.watcher, calls) }
	staffChannel(&p.scope, p.d.Realtime, p.calls.ref.Trigger, realtime.EventCallUpdated)
	p.calls.start(ctx, &p.scope)
	return nil
}

func (p *CallsPage) Unmount() { p.scope.release() }

// Retry reloads after a failure banner.
func (p *CallsPage) Retry(ctx context.Context) error { return p.calls.reload(ctx) }

// Complete marks a pending call as handled.
func (p *CallsPage) Complete(ctx context.Context, callID string) error {
	calls, _, _ := p.calls.value()
	var found *model.Call
	for i := range calls {
		if calls[i].ID == callID {
			found = &calls[i]
			break
		}
	}
	if found == nil {
		return ErrNotFound
	}
	if found.Status != model.CallPending {
		return ErrInvalidTransition
	}
	if res := p.d.Backend.UpdateCallStatus(ctx, callID, model.CallCompleted); !res.Success {
		return failed(p.d, "Completing the call failed", res)
	}
	return p.calls.reload(ctx)
}

func (p *CallsPage) State() any {
	if p.calls == nil {
		return CallsState{}
	}
	calls, banner, loaded := p.calls.value()
	pending := 0
	for _, c := range calls {
		if c.Status == model.CallPending {
			pending++
		}
	}
	return CallsState{Calls: calls, Pending: pending, Banner: banner, Loaded: loaded, Connected: connected(p.d.Realtime)}
}
