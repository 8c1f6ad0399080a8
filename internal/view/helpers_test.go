package view

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tableorder-agent/internal/backend"
	"tableorder-agent/internal/model"
	"tableorder-agent/internal/realtime"
	"tableorder-agent/internal/session"
	"tableorder-agent/internal/store"
	"tableorder-agent/internal/tablesession"
)

type fakeBackend struct {
	server *httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	f := &fakeBackend{
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		f.mu.Lock()
		h := f.routes[key]
		f.hits[key]++
		f.mu.Unlock()
		if h == nil {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"no route ` + key + `"}`))
			return
		}
		h(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBackend) handle(key string, h http.HandlerFunc) {
	f.mu.Lock()
	f.routes[key] = h
	f.mu.Unlock()
}

func (f *fakeBackend) json(key string, status int, body string) {
	f.handle(key, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

// fakeRealtime counts references so tests can check everything was released.
type fakeRealtime struct {
	mu        sync.Mutex
	refs      int
	rooms     map[string]int
	listeners map[string]map[int]func(realtime.Event)
	next      int
	order     []string
}

func newFakeRealtime() *fakeRealtime {
	return &fakeRealtime{rooms: make(map[string]int), listeners: make(map[string]map[int]func(realtime.Event))}
}

func (f *fakeRealtime) Acquire() func() {
	f.mu.Lock()
	f.refs++
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.refs--
			f.order = append(f.order, "release")
			f.mu.Unlock()
		})
	}
}

func (f *fakeRealtime) On(event string, fn func(realtime.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	if f.listeners[event] == nil {
		f.listeners[event] = make(map[int]func(realtime.Event))
	}
	f.listeners[event][id] = fn
	return func() {
		f.mu.Lock()
		delete(f.listeners[event], id)
		f.order = append(f.order, "off:"+event)
		f.mu.Unlock()
	}
}

func (f *fakeRealtime) join(room string) func() {
	f.mu.Lock()
	f.rooms[room]++
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			f.rooms[room]--
			if f.rooms[room] == 0 {
				delete(f.rooms, room)
			}
			f.order = append(f.order, "leave:"+room)
			f.mu.Unlock()
		})
	}
}

func (f *fakeRealtime) JoinTable(id string) func() { return f.join("table:" + id) }
func (f *fakeRealtime) JoinStaff() func()          { return f.join("staff") }
func (f *fakeRealtime) Connected() bool            { return true }

func (f *fakeRealtime) emit(event string) {
	f.mu.Lock()
	var fns []func(realtime.Event)
	for _, fn := range f.listeners[event] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(realtime.Event{Name: event})
	}
}

func (f *fakeRealtime) held() (refs, rooms, listeners int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.listeners {
		listeners += len(l)
	}
	return f.refs, len(f.rooms), listeners
}

func (f *fakeRealtime) inRoom(room string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[room] > 0
}

type alerts struct {
	mu   sync.Mutex
	msgs []string
}

func (a *alerts) Alert(msg string) {
	a.mu.Lock()
	a.msgs = append(a.msgs, msg)
	a.mu.Unlock()
}

func (a *alerts) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.msgs...)
}

type callAlerts struct {
	mu    sync.Mutex
	calls []model.Call
}

func (c *callAlerts) NewCall(storeID string, call model.Call) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
}

func (c *callAlerts) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, call := range c.calls {
		out = append(out, call.ID)
	}
	return out
}

// manualTicker lets a test drive the session countdown one second at a time.
type manualTicker struct {
	mu      sync.Mutex
	current chan time.Time
}

type manualTick struct {
	c    chan time.Time
	stop func()
}

func (m manualTick) C() <-chan time.Time { return m.c }
func (m manualTick) Stop()               { m.stop() }

func (m *manualTicker) new(time.Duration) tablesession.Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := make(chan time.Time)
	m.current = c
	return manualTick{c: c, stop: func() {}}
}

func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	c := m.current
	m.mu.Unlock()
	require.NotNil(t, c, "no ticker running")
	select {
	case c <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("ticker not consumed")
	}
}

type env struct {
	backend  *fakeBackend
	realtime *fakeRealtime
	history  *History
	alerts   *alerts
	calls    *callAlerts
	ticker   *manualTicker
	kv       store.Store
	sess     *session.Session
	deps     Deps
}

func newEnv(t *testing.T) *env {
	e := &env{
		backend:  newFakeBackend(t),
		realtime: newFakeRealtime(),
		history:  &History{},
		alerts:   &alerts{},
		calls:    &callAlerts{},
		ticker:   &manualTicker{},
		kv:       store.NewMemoryStore(),
	}
	e.sess = session.New(e.kv)
	e.deps = Deps{
		Backend:  backend.NewClient(backend.Options{BaseURL: e.backend.server.URL, Timeout: 2 * time.Second}, e.sess),
		Session:  e.sess,
		Realtime: e.realtime,
		Nav:      e.history,
		Notify:   e.alerts,
		Alerts:   e.calls,
		Intervals: Intervals{
			Kitchen: time.Hour, Orders: time.Hour, Calls: time.Hour,
			Tables: time.Hour, Dashboard: time.Hour, Menu: time.Hour,
		},
		SessionTimeout: tablesession.DefaultTimeout,
		LoginCooldown:  DefaultLoginCooldown,
		PublicURL:      "https://order.example.com",
		Ticker:         e.ticker.new,
	}
	return e
}

func (e *env) selectStore(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, e.sess.SetSelectedStore(context.Background(), model.Store{ID: id, Name: "Gangnam"}))
}

func (e *env) login(t *testing.T) {
	t.Helper()
	require.NoError(t, e.sess.SetAuth(context.Background(), model.LoginResult{
		Token: "opaque-token",
		User:  model.User{ID: "u1", Username: "owner"},
	}))
}

func (e *env) assertReleased(t *testing.T) {
	t.Helper()
	refs, rooms, listeners := e.realtime.held()
	require.Zero(t, refs, "realtime references")
	require.Zero(t, rooms, "joined rooms")
	require.Zero(t, listeners, "event listeners")
}
