package view

import (
	"context"
	"log"
	"sync"
)

// Routes.
const (
	RouteHome    = "/"
	RouteStandby = "/standby"
	RouteMenu    = "/menu"
	RouteKitchen = "/kitchen"
	RouteAdmin   = "/admin"
	RouteLogin   = "/admin/login"
	RouteOrders  = "/admin/orders"
	RouteCalls   = "/admin/calls"
	RouteMenus   = "/admin/menus"
	RouteTables  = "/admin/tables"
	RouteStores  = "/admin/stores"
)

// History records every navigation.
type History struct {
	mu     sync.Mutex
	routes []string
}

// Navigate appends route.
func (h *History) Navigate(route string) {
	h.mu.Lock()
	h.routes = append(h.routes, route)
	h.mu.Unlock()
}

// Current returns the last route, or RouteHome before any navigation.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.routes) == 0 {
		return RouteHome
	}
	return h.routes[len(h.routes)-1]
}

// Routes returns a copy of the navigation log.
func (h *History) Routes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.routes))
	copy(out, h.routes)
	return out
}

// App mounts the page registered for the current route and unmounts the
// previous one. Routes without a page (home, standby) leave nothing mounted.
type App struct {
	History

	mu      sync.Mutex
	pages   map[string]Page
	current Page
	gen     int
	ctx     context.Context
}

// NewApp creates an App with no pages registered. Pages are mounted with ctx.
func NewApp(ctx context.Context) *App {
	return &App{pages: make(map[string]Page), ctx: ctx}
}

// Register adds a page under its route.
func (a *App) Register(p Page) {
	a.mu.Lock()
	a.pages[p.Route()] = p
	a.mu.Unlock()
}

// Navigate records route and switches pages.
func (a *App) Navigate(route string) {
	a.History.Navigate(route)

	a.mu.Lock()
	a.gen++
	gen := a.gen
	old := a.current
	a.current = nil
	next := a.pages[route]
	ctx := a.ctx
	a.mu.Unlock()

	if old != nil {
		old.Unmount()
	}
	if next == nil {
		return
	}
	if err := next.Mount(ctx); err != nil {
		log.Printf("mount %s failed: %v", route, err)
		next.Unmount()
		return
	}

	a.mu.Lock()
	if a.gen == gen {
		a.current = next
		a.mu.Unlock()
		return
	}
	// A navigation happened during mount; it owns the screen now.
	stale := a.current != next
	a.mu.Unlock()
	if stale {
		next.Unmount()
	}
}

// Page returns the mounted page, or nil.
func (a *App) Page() Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Close unmounts the current page.
func (a *App) Close() {
	a.mu.Lock()
	old := a.current
	a.current = nil
	a.gen++
	a.mu.Unlock()
	if old != nil {
		old.Unmount()
	}
}
