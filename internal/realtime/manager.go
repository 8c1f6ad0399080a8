// Package realtime maintains the single Socket.IO connection shared by every
// mounted page. Holders acquire a reference; the connection opens lazily on
// the first reference and closes when the last one is released. Joined rooms
// are remembered and re-joined after every reconnect.
package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Server events the pages listen for.
const (
	EventOrderUpdated = "order-updated"
	EventCallUpdated  = "call-updated"
	EventMenuUpdated  = "menu-updated"
	EventTableUpdated = "table-updated"
)

const (
	joinTable = "join-table"
	joinStaff = "join-staff"
	staffRoom = "staff"
)

// Options configures a Manager.
type Options struct {
	URL          string
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	// Timeout bounds one connect attempt.
	Timeout time.Duration

	// Disabled keeps the reference counting but never dials; pages fall back
	// to polling alone.
	Disabled bool
}

type room struct {
	event string
	args  []any
	refs  int
}

// Manager owns the shared connection.
type Manager struct {
	opts Options

	mu sync.Mutex
	// gen identifies the live client. Callbacks from an older client are ignored.
	gen       uint64
	refs      int
	client    *socket.Socket
	connected bool
	rooms     map[string]*room
	listeners map[string]map[int]func(Event)
	status    map[int]func(bool)
	nextID    int
}

// NewManager creates an idle Manager. Nothing is dialed until Acquire.
func NewManager(opts Options) *Manager {
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = time.Second
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = 30 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Manager{
		opts:      opts,
		rooms:     make(map[string]*room),
		listeners: make(map[string]map[int]func(Event)),
		status:    make(map[int]func(bool)),
	}
}

// Acquire takes a reference on the connection and starts it if needed. The
// returned release func is idempotent.
func (m *Manager) Acquire() (release func()) {
	m.mu.Lock()
	m.refs++
	var client *socket.Socket
	var gen uint64
	if m.refs == 1 && !m.opts.Disabled {
		m.gen++
		gen = m.gen
		client = m.newClient(gen)
		m.client = client
	}
	m.mu.Unlock()

	if client != nil {
		// Connect dials synchronously.
		go func() {
			client.Connect()
			if m.currentGen() != gen {
				client.Disconnect()
			}
		}()
	}

	var once sync.Once
	return func() { once.Do(m.release) }
}

func (m *Manager) release() {
	m.mu.Lock()
	m.refs--
	if m.refs > 0 {
		m.mu.Unlock()
		return
	}
	client := m.client
	m.client = nil
	m.gen++
	changed := m.connected
	m.connected = false
	var fns []func(bool)
	if changed {
		for _, fn := range m.status {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(false)
	}
	if client == nil {
		return
	}
	client.Disconnect()
	log.Println("realtime: connection closed")
}

// newClient builds an unconnected client for generation gen. Every callback
// runs on the client's goroutines and is ignored once gen is stale.
func (m *Manager) newClient(gen uint64) *socket.Socket {
	origin, path, err := target(m.opts.URL)
	if err != nil {
		log.Printf("realtime: %v; staying on polling", err)
		return nil
	}

	opts := socket.DefaultOptions()
	opts.SetPath(path)
	opts.SetAutoConnect(false)
	opts.SetTransports(types.NewSet(transports.WebSocket))
	opts.SetReconnectionDelay(float64(m.opts.ReconnectMin.Milliseconds()))
	opts.SetReconnectionDelayMax(float64(m.opts.ReconnectMax.Milliseconds()))
	opts.SetTimeout(m.opts.Timeout)

	client := socket.NewManager(origin, opts).Socket("/", opts)
	client.On("connect", func(...any) {
		if m.setConnected(gen, true) {
			m.rejoin(gen, client)
		}
	})
	client.On("disconnect", func(args ...any) {
		if m.setConnected(gen, false) {
			log.Printf("realtime: connection lost: %v", args)
		}
	})
	client.On("connect_error", func(args ...any) {
		log.Printf("realtime: connect failed: %v", args)
	})
	client.OnAny(func(args ...any) {
		if ev, ok := eventFromArgs(args); ok {
			m.dispatch(gen, ev)
		}
	})
	return client
}

// Connected reports the connection indicator. It gates nothing.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// On registers fn for a server event and returns its unsubscribe func.
func (m *Manager) On(event string, fn func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	if m.listeners[event] == nil {
		m.listeners[event] = make(map[int]func(Event))
	}
	m.listeners[event][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.listeners[event], id)
			if len(m.listeners[event]) == 0 {
				delete(m.listeners, event)
			}
		})
	}
}

// OnStatus registers fn for connection indicator changes.
func (m *Manager) OnStatus(fn func(connected bool)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.status[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.status, id)
			m.mu.Unlock()
		})
	}
}

// JoinTable joins the room of one table. The room is re-joined after every
// reconnect until the returned leave func drops the last reference to it.
func (m *Manager) JoinTable(tableID string) (leave func()) {
	return m.join("table:"+tableID, joinTable, tableID)
}

// JoinStaff joins the staff room.
func (m *Manager) JoinStaff() (leave func()) {
	return m.join(staffRoom, joinStaff)
}

func (m *Manager) join(key, event string, args ...any) func() {
	m.mu.Lock()
	r, ok := m.rooms[key]
	if !ok {
		r = &room{event: event, args: args}
		m.rooms[key] = r
	}
	r.refs++
	var client *socket.Socket
	if m.connected {
		client = m.client
	}
	m.mu.Unlock()

	// Without a connection the join waits for the replay on connect.
	if client != nil {
		if err := client.Emit(event, args...); err != nil {
			log.Printf("realtime: %s failed: %v", event, err)
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if r, ok := m.rooms[key]; ok {
				r.refs--
				if r.refs <= 0 {
					delete(m.rooms, key)
				}
			}
		})
	}
}

func (m *Manager) rejoin(gen uint64, client *socket.Socket) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	rooms := make([]room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, *r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		if err := client.Emit(r.event, r.args...); err != nil {
			log.Printf("realtime: re-join %s failed: %v", r.event, err)
		}
	}
}

func (m *Manager) currentGen() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// setConnected records the indicator for generation gen. It reports false
// when gen is stale, leaving the state of the live client untouched.
func (m *Manager) setConnected(gen uint64, connected bool) bool {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return false
	}
	changed := m.connected != connected
	m.connected = connected
	var fns []func(bool)
	if changed {
		for _, fn := range m.status {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(connected)
	}
	if changed {
		log.Printf("realtime: connected=%t", connected)
	}
	return true
}

func (m *Manager) dispatch(gen uint64, ev Event) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	fns := make([]func(Event), 0, len(m.listeners[ev.Name]))
	for _, fn := range m.listeners[ev.Name] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
