// Package view holds the page controllers. A page mounts against the shared
// session, gateway client and realtime channel, keeps its own render state and
// exposes the actions a display can trigger. Collections are always replaced
// wholesale from the backend; nothing is patched locally.
package view

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tableorder-agent/internal/backend"
	"tableorder-agent/internal/model"
	"tableorder-agent/internal/realtime"
	"tableorder-agent/internal/session"
	"tableorder-agent/internal/tablesession"
)

var (
	ErrUnauthorized      = errors.New("admin login required")
	ErrNoStore           = errors.New("no store selected")
	ErrNoTable           = errors.New("no table number set")
	ErrTableUnresolved   = errors.New("table is not registered for this store")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrSampleMenu        = errors.New("ordering is unavailable while the menu is offline")
	ErrInvalidTransition = errors.New("action is not allowed in the current status")
	ErrNotFound          = errors.New("item not found")
	ErrRateLimited       = errors.New("too many login attempts")
)

// Page is one mounted screen.
type Page interface {
	Route() string
	Mount(ctx context.Context) error
	Unmount()
	State() any
}

// Realtime is the part of the realtime manager pages use.
type Realtime interface {
	Acquire() (release func())
	On(event string, fn func(realtime.Event)) (unsubscribe func())
	JoinTable(tableID string) (leave func())
	JoinStaff() (leave func())
	Connected() bool
}

// Navigator changes the current route.
type Navigator interface {
	Navigate(route string)
}

// Notifier shows blocking alerts, used for mutation failures.
type Notifier interface {
	Alert(message string)
}

// Alerter is told about calls that just turned up pending.
type Alerter interface {
	NewCall(storeID string, call model.Call)
}

// Intervals are the polling periods per page.
type Intervals struct {
	Kitchen   time.Duration
	Orders    time.Duration
	Calls     time.Duration
	Tables    time.Duration
	Dashboard time.Duration
	Menu      time.Duration
}

// Deps is shared by every page.
type Deps struct {
	Backend        *backend.Client
	Session        *session.Session
	Realtime       Realtime
	Nav            Navigator
	Notify         Notifier
	Alerts         Alerter
	Intervals      Intervals
	SessionTimeout time.Duration
	LoginCooldown  time.Duration
	PublicURL      string

	// Ticker and Now are replaced in tests.
	Ticker func(time.Duration) tablesession.Ticker
	Now    func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// scope collects the release funcs of everything acquired during a mount.
// release runs them last-in first-out and may be called more than once.
type scope struct {
	mu  sync.Mutex
	fns []func()
}

func (s *scope) add(fn func()) {
	s.mu.Lock()
	s.fns = append(s.fns, fn)
	s.mu.Unlock()
}

func (s *scope) release() {
	s.mu.Lock()
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// background detaches page loops from the mount request.
func background(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// FieldErrors reports form validation failures by field name.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// failed turns an unsuccessful Result into a blocking alert and an error.
func failed[T any](d Deps, action string, res backend.Result[T]) error {
	msg := res.Error
	if msg == "" {
		msg = "request failed"
	}
	if d.Notify != nil {
		d.Notify.Alert(fmt.Sprintf("%s: %s", action, msg))
	}
	return fmt.Errorf("%s: %s", action, msg)
}

// resultErr adapts a Result for a Refresher fetch.
func resultErr[T any](res backend.Result[T]) (T, error) {
	if !res.Success {
		return res.Data, errors.New(res.Error)
	}
	return res.Data, nil
}

// requireAdmin redirects to the login page unless an unexpired admin session
// exists. With needStore it also requires a selected store.
func requireAdmin(ctx context.Context, d Deps, needStore bool) (string, error) {
	ok, err := d.Session.Authenticated(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		d.Nav.Navigate(RouteLogin)
		return "", ErrUnauthorized
	}
	if !needStore {
		return "", nil
	}
	id, err := d.Session.StoreID(ctx)
	if errors.Is(err, session.ErrNoStore) {
		d.Nav.Navigate(RouteStores)
		return "", ErrNoStore
	}
	return id, err
}

// staffChannel acquires the realtime connection, joins the staff room and
// turns the given events into refresh triggers.
func staffChannel(s *scope, rt Realtime, trigger func(), events ...string) {
	if rt == nil {
		return
	}
	s.add(rt.Acquire())
	s.add(rt.JoinStaff())
	for _, ev := range events {
		s.add(rt.On(ev, func(realtime.Event) { trigger() }))
	}
}

func connected(rt Realtime) bool {
	return rt != nil && rt.Connected()
}
