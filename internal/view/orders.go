package view

import (
	"context"
	"sort"
	"sync"

	"tableorder-agent/internal/model"
	"tableorder-agent/internal/realtime"
)

// KitchenState lists the orders the kitchen still has to work on.
type KitchenState struct {
	Orders    []model.Order `json:"orders"`
	Banner    string        `json:"banner,omitempty"`
	Loaded    bool          `json:"loaded"`
	Connected bool          `json:"connected"`
}

// KitchenPage shows active orders, oldest first.
type KitchenPage struct {
	d      Deps
	scope  scope
	orders *collection[[]model.Order]
}

// NewKitchenPage creates an unmounted kitchen page.
func NewKitchenPage(d Deps) *KitchenPage {
	return &KitchenPage{d: d}
}

func (p *KitchenPage) Route() string { return RouteKitchen }

func (p *KitchenPage) Mount(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			p.scope.release()
		}
	}()
	storeID, err := requireAdmin(ctx, p.d, true)
	if err != nil {
		return err
	}
	p.orders = newCollection("kitchen orders", p.d.Intervals.Kitchen, func(ctx context.Context) ([]model.Order, error) {
		orders, err := resultErr(p.d.Backend.ListOrders(ctx, storeID))
		if err != nil {
			return nil, err
		}
		return activeOldestFirst(orders), nil
	})
	staffChannel(&p.scope, p.d.Realtime, p.orders.ref.Trigger, realtime.EventOrderUpdated)
	p.orders.start(ctx, &p.scope)
	return nil
}

func (p *KitchenPage) Unmount() { p.scope.release() }

// Retry reloads after a failure banner.
func (p *KitchenPage) Retry(ctx context.Context) error { return p.orders.reload(ctx) }

// Advance moves an order one step forward.
func (p *KitchenPage) Advance(ctx context.Context, orderID string) error {
	orders, _, _ := p.orders.value()
	return advanceOrder(ctx, p.d, orders, orderID, p.orders.reload)
}

// Cancel cancels a pending or preparing order.
func (p *KitchenPage) Cancel(ctx context.Context, orderID string) error {
	orders, _, _ := p.orders.value()
	return cancelOrder(ctx, p.d, orders, orderID, p.orders.reload)
}

func (p *KitchenPage) State() any {
	if p.orders == nil {
		return KitchenState{}
	}
	orders, banner, loaded := p.orders.value()
	return KitchenState{Orders: orders, Banner: banner, Loaded: loaded, Connected: connected(p.d.Realtime)}
}

func activeOldestFirst(orders []model.Order) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status.Active() {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func findOrder(orders []model.Order, id string) (model.Order, bool) {
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return model.Order{}, false
}

func advanceOrder(ctx context.Context, d Deps, orders []model.Order, id string, reload func(context.Context) error) error {
	o, ok := findOrder(orders, id)
	if !ok {
		return ErrNotFound
	}
	next, ok := o.Status.Next()
	if !ok {
		return ErrInvalidTransition
	}
	if res := d.Backend.UpdateOrderStatus(ctx, id, next); !res.Success {
		return failed(d, "Status change failed", res)
	}
	return reload(ctx)
}

func cancelOrder(ctx context.Context, d Deps, orders []model.Order, id string, reload func(context.Context) error) error {
	o, ok := findOrder(orders, id)
	if !ok {
		return ErrNotFound
	}
	if !o.Status.Cancellable() {
		return ErrInvalidTransition
	}
	if res := d.Backend.CancelOrder(ctx, id); !res.Success {
		return failed(d, "Cancel failed", res)
	}
	return reload(ctx)
}

// OrdersState is the admin order list.
type OrdersState struct {
	Orders    []model.Order     `json:"orders"`
	Filter    model.OrderStatus `json:"filter,omitempty"`
	Banner    string            `json:"banner,omitempty"`
	Loaded    bool              `json:"loaded"`
	Connected bool              `json:"connected"`
}

// OrdersPage lists every order of the store, newest first, with a status filter.
type OrdersPage struct {
	d      Deps
	scope  scope
	orders *collection[[]model.Order]

	mu     sync.Mutex
	filter model.OrderStatus
}

// NewOrdersPage creates an unmounted orders page.
func NewOrdersPage(d Deps) *OrdersPage {
	return &OrdersPage{d: d}
}

func (p *OrdersPage) Route() string { return RouteOrders }

func (p *OrdersPage) Mount(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			p.scope.release()
		}
	}()
	storeID, err := requireAdmin(ctx, p.d, true)
	if err != nil {
		return err
	}
	p.orders = newCollection("orders", p.d.Intervals.Orders, func(ctx context.Context) ([]model.Order, error) {
		orders, err := resultErr(p.d.Backend.ListOrders(ctx, storeID))
		if err != nil {
			return nil, err
		}
		sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
		return orders, nil
	})
	staffChannel(&p.scope, p.d.Realtime, p.orders.ref.Trigger, realtime.EventOrderUpdated)
	p.orders.start(ctx, &p.scope)
	return nil
}

func (p *OrdersPage) Unmount() { p.scope.release() }

// Retry reloads after a failure banner.
func (p *OrdersPage) Retry(ctx context.Context) error { return p.orders.reload(ctx) }

// SetFilter limits the list to one status; "" shows all.
func (p *OrdersPage) SetFilter(status model.OrderStatus) {
	p.mu.Lock()
	p.filter = status
	p.mu.Unlock()
}

func (p *OrdersPage) Advance(ctx context.Context, orderID string) error {
	orders, _, _ := p.orders.value()
	return advanceOrder(ctx, p.d, orders, orderID, p.orders.reload)
}

func (p *OrdersPage) Cancel(ctx context.Context, orderID string) error {
	orders, _, _ := p.orders.value()
	return cancelOrder(ctx, p.d, orders, orderID, p.orders.reload)
}

func (p *OrdersPage) State() any {
	if p.orders == nil {
		return OrdersState{}
	}
	orders, banner, loaded := p.orders.value()
	p.mu.Lock()
	filter := p.filter
	p.mu.Unlock()

	shown := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if filter == "" || o.Status == filter {
			shown = append(shown, o)
		}
	}
	return OrdersState{Orders: shown, Filter: filter, Banner: banner, Loaded: loaded, Connected: connected(p.d.Realtime)}
}
