package view

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"tableorder-agent/internal/model"
	"tableorder-agent/internal/realtime"
)

const recentOrders = 5

// DashboardState aggregates the store's current activity.
type DashboardState struct {
	StoreName      string                    `json:"storeName,omitempty"`
	OrdersByStatus map[model.OrderStatus]int `json:"ordersByStatus"`
	ActiveOrders   int                       `json:"activeOrders"`
	PendingCalls   int                       `json:"pendingCalls"`
	TablesInUse    int                       `json:"tablesInUse"`
	TablesTotal    int                       `json:"tablesTotal"`
	Revenue        decimal.Decimal           `json:"revenue"`
	RecentOrders   []model.Order             `json:"recentOrders"`
	Banner         string                    `json:"banner,omitempty"`
	Loaded         bool                      `json:"loaded"`
	Connected      bool                      `json:"connected"`
}

type dashboardData struct {
	orders []model.Order
	calls  []model.Call
	tables []model.Table
}

// DashboardPage is the admin landing page.
type DashboardPage struct {
	d         Deps
	scope     scope
	data      *collection[dashboardData]
	watcher   callWatcher
	storeName string
}

// NewDashboardPage creates an unmounted dashboard.
func NewDashboardPage(d Deps) *DashboardPage {
	return &DashboardPage{d: d}
}

func (p *DashboardPage) Route() string { return RouteAdmin }

func (p *DashboardPage) Mount(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			p.scope.release()
		}
	}()
	storeID, err := requireAdmin(ctx, p.d, true)
	if err != nil {
		return err
	}
	if st, err := p.d.Session.SelectedStore(ctx); err == nil {
		p.storeName = st.Name
	}

	p.data = newCollection("dashboard", p.d.Intervals.Dashboard, func(ctx context.Context) (dashboardData, error) {
		var out dashboardData
		var err error
		if out.orders, err = resultErr(p.d.Backend.ListOrders(ctx, storeID)); err != nil {
			return out, err
		}
		if out.calls, err = resultErr(p.d.Backend.ListCalls(ctx, storeID)); err != nil {
			return out, err
		}
		if out.tables, err = resultErr(p.d.Backend.ListTables(ctx, storeID)); err != nil {
			return out, err
		}
		return out, nil
	})
	p.data.onLoad = func(v dashboardData) { alertCalls(p.d, storeID, &p.watcher, v.calls) }
	staffChannel(&p.scope, p.d.Realtime, p.data.ref.Trigger,
		realtime.EventOrderUpdated, realtime.EventCallUpdated, realtime.EventTableUpdated)
	p.data.start(ctx, &p.scope)
	return nil
}

func (p *DashboardPage) Unmount() { p.scope.release() }

// Retry reloads after a failure banner.
func (p *DashboardPage) Retry(ctx context.Context) error { return p.data.reload(ctx) }

func (p *DashboardPage) State() any {
	if p.data == nil {
		return DashboardState{}
	}
	v, banner, loaded := p.data.value()
	st := DashboardState{
		StoreName:      p.storeName,
		OrdersByStatus: make(map[model.OrderStatus]int),
		Revenue:        decimal.Zero,
		TablesTotal:    len(v.tables),
		Banner:         banner,
		Loaded:         loaded,
		Connected:      connected(p.d.Realtime),
	}
	for _, o := range v.orders {
		st.OrdersByStatus[o.Status]++
		if o.Status.Active() {
			st.ActiveOrders++
		}
		if o.Status == model.OrderCompleted {
			st.Revenue = st.Revenue.Add(o.TotalAmount)
		}
	}
	for _, c := range v.calls {
		if c.Status == model.CallPending {
			st.PendingCalls++
		}
	}
	for _, t := range v.tables {
		if t.Status == model.TableOccupied {
			st.TablesInUse++
		}
	}
	recent := append([]model.Order(nil), v.orders...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentOrders {
		recent = recent[:recentOrders]
	}
	st.RecentOrders = recent
	return st
}
