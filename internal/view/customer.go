package view

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tableorder-agent/internal/backend"
	"tableorder-agent/internal/cart"
	"tableorder-agent/internal/model"
	"tableorder-agent/internal/poll"
	"tableorder-agent/internal/realtime"
	"tableorder-agent/internal/session"
	"tableorder-agent/internal/tablesession"
)

// Customer modals.
const (
	ModalNone = ""
	ModalCart = "cart"
	ModalCall = "call"
)

// CustomerState is what the customer screen renders.
type CustomerState struct {
	StoreID          string               `json:"storeId"`
	StoreName        string               `json:"storeName,omitempty"`
	TableNumber      string               `json:"tableNumber"`
	TableID          string               `json:"tableId,omitempty"`
	OrderingEnabled  bool                 `json:"orderingEnabled"`
	Menus            []model.MenuItem     `json:"menus"`
	Categories       []model.MenuCategory `json:"categories"`
	SelectedCategory string               `json:"selectedCategory,omitempty"`
	Query            string               `json:"query,omitempty"`
	Cart             []cart.Item          `json:"cart"`
	CartTotal        decimal.Decimal      `json:"cartTotal"`
	CartCount        int                  `json:"cartCount"`
	Modal            string               `json:"modal,omitempty"`
	SampleData       bool                 `json:"sampleData"`
	Banner           string               `json:"banner,omitempty"`
	RemainingSeconds int                  `json:"remainingSeconds"`
	Connected        bool                 `json:"connected"`
	LastOrder        *model.Order         `json:"lastOrder,omitempty"`
	Language         string               `json:"language"`
	Theme            string               `json:"theme"`
}

type menuData struct {
	menus      []model.MenuItem
	categories []model.MenuCategory
	sample     bool
}

// CustomerPage is the table-side menu, cart and staff call screen.
type CustomerPage struct {
	d Deps

	scope   scope
	timer   *tablesession.Timer
	menuRef *poll.Refresher[menuData]

	mu         sync.Mutex
	ctx        session.Context
	storeID    string
	tableID    string
	mounted    bool
	epoch      uint64
	resolveSeq uint64
	leaveTable func()
	menus      []model.MenuItem
	categories []model.MenuCategory
	category   string
	query      string
	cart       *cart.Cart
	modal      string
	sample     bool
	banner     string
	lastOrder  *model.Order
}

// NewCustomerPage creates an unmounted customer page.
func NewCustomerPage(d Deps) *CustomerPage {
	return &CustomerPage{d: d, cart: cart.New()}
}

func (p *CustomerPage) Route() string { return RouteMenu }

// Mount reads the session, resolves the table and starts the menu loop and the
// session timer. Every resource is released again if a later step fails.
func (p *CustomerPage) Mount(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			p.scope.release()
		}
	}()

	snap, err := p.d.Session.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if snap.Store == nil {
		p.d.Nav.Navigate(RouteHome)
		return ErrNoStore
	}
	if snap.TableNumber == "" {
		p.d.Nav.Navigate(RouteHome)
		return ErrNoTable
	}

	p.mu.Lock()
	p.ctx = snap
	p.storeID = snap.Store.ID
	p.tableID = ""
	p.mounted = true
	p.epoch++
	p.mu.Unlock()

	if p.d.Realtime != nil {
		p.scope.add(p.d.Realtime.Acquire())
		p.scope.add(p.d.Realtime.On(realtime.EventTableUpdated, func(realtime.Event) {
			go p.resolveTable(background(ctx))
		}))
	}
	p.scope.add(p.unmountTable)
	p.resolveTable(ctx)

	opts := []tablesession.Option{}
	if p.d.Ticker != nil {
		opts = append(opts, tablesession.WithTicker(p.d.Ticker))
	}
	p.timer = tablesession.New(p.d.SessionTimeout, p.expire, opts...)
	p.scope.add(p.timer.Start().Release)

	p.menuRef = poll.New("customer menu", p.d.Intervals.Menu, p.fetchMenu, p.applyMenu)
	p.menuRef.OnError(func(err error) {
		p.mu.Lock()
		p.banner = err.Error()
		p.mu.Unlock()
	})
	if p.d.Realtime != nil {
		p.scope.add(p.d.Realtime.On(realtime.EventMenuUpdated, func(realtime.Event) { p.menuRef.Trigger() }))
	}
	p.scope.add(p.menuRef.Start(background(ctx)))
	p.scope.add(p.clear)
	return nil
}

// Unmount releases everything acquired at mount.
func (p *CustomerPage) Unmount() {
	p.scope.release()
}

// resolveTable maps the stored table number to a table id and joins its room.
// Only the latest resolve of the current mount commits its result.
func (p *CustomerPage) resolveTable(ctx context.Context) {
	number, err := p.d.Session.TableNumber(ctx)
	if err != nil {
		log.Printf("customer: failed to read table number: %v", err)
		return
	}
	p.mu.Lock()
	p.resolveSeq++
	epoch, seq, storeID := p.epoch, p.resolveSeq, p.storeID
	p.mu.Unlock()

	res := p.d.Backend.ResolveTableID(ctx, storeID, number)

	p.mu.Lock()
	if !p.mounted || p.epoch != epoch || p.resolveSeq != seq {
		p.mu.Unlock()
		return
	}
	tableID := ""
	alert := ""
	switch {
	case !res.Success:
		p.banner = res.Error
		alert = fmt.Sprintf("Table %s could not be verified: %s", number, res.Error)
	case res.Data == "":
		alert = fmt.Sprintf("Table %s is not registered. Ordering and calls are disabled.", number)
	default:
		tableID = res.Data
	}
	if p.ctx.TableNumber != number || p.tableID != tableID {
		p.forgetTableLocked()
		p.ctx.TableNumber = number
		p.tableID = tableID
		if tableID != "" && p.d.Realtime != nil {
			p.leaveTable = p.d.Realtime.JoinTable(tableID)
		}
	}
	p.mu.Unlock()

	if alert != "" && p.d.Notify != nil {
		p.d.Notify.Alert(alert)
	}
}

// ChangeTable stores a new table number and re-resolves the table id.
func (p *CustomerPage) ChangeTable(ctx context.Context, number string) error {
	if err := p.d.Session.SetTableNumber(ctx, number); err != nil {
		return err
	}
	p.resolveTable(ctx)
	return nil
}

func (p *CustomerPage) unmountTable() {
	p.mu.Lock()
	p.mounted = false
	p.forgetTableLocked()
	p.mu.Unlock()
}

func (p *CustomerPage) forgetTableLocked() {
	if p.leaveTable != nil {
		p.leaveTable()
		p.leaveTable = nil
	}
}

func (p *CustomerPage) fetchMenu(ctx context.Context) (menuData, error) {
	p.mu.Lock()
	storeID := p.storeID
	loaded := len(p.menus) > 0 && !p.sample
	p.mu.Unlock()

	menus := p.d.Backend.CustomerMenus(ctx, storeID)
	if !menus.Success {
		if menus.Kind == backend.KindNetwork && !loaded {
			log.Printf("customer: menu unavailable, showing sample data: %s", menus.Error)
			return menuData{menus: sampleMenus(), categories: sampleCategories(), sample: true}, nil
		}
		return menuData{}, errors.New(menus.Error)
	}

	cats := p.d.Backend.CustomerCategories(ctx, storeID)
	categories := cats.Data
	if !cats.Success {
		log.Printf("customer: categories unavailable: %s", cats.Error)
		categories = nil
	}
	return menuData{menus: menus.Data, categories: categories}, nil
}

func (p *CustomerPage) applyMenu(m menuData) {
	sort.SliceStable(m.menus, func(i, j int) bool { return m.menus[i].SortOrder < m.menus[j].SortOrder })
	sort.SliceStable(m.categories, func(i, j int) bool { return m.categories[i].SortOrder < m.categories[j].SortOrder })

	if p.timer != nil {
		p.timer.Observe(len(m.menus))
	}

	p.mu.Lock()
	p.menus = m.menus
	p.categories = m.categories
	p.sample = m.sample
	p.banner = ""
	p.mu.Unlock()
}

// expire runs when the session timer reaches zero.
func (p *CustomerPage) expire() {
	p.clear()
	p.d.Nav.Navigate(RouteHome)
}

func (p *CustomerPage) clear() {
	p.mu.Lock()
	p.menus = nil
	p.categories = nil
	p.category = ""
	p.query = ""
	p.modal = ModalNone
	p.lastOrder = nil
	p.mu.Unlock()
	p.cart.Clear()
}

// Retry reloads the menu after a failure banner.
func (p *CustomerPage) Retry(ctx context.Context) error {
	if p.menuRef == nil {
		return nil
	}
	err := p.menuRef.Refresh(ctx)
	if errors.Is(err, poll.ErrStale) {
		return nil
	}
	return err
}

// SelectCategory filters the menu by category; "" shows everything.
func (p *CustomerPage) SelectCategory(id string) {
	p.mu.Lock()
	p.category = id
	p.mu.Unlock()
}

// Search filters the menu by name or description.
func (p *CustomerPage) Search(q string) {
	p.mu.Lock()
	p.query = strings.TrimSpace(q)
	p.mu.Unlock()
}

// OpenModal shows the cart or call dialog.
func (p *CustomerPage) OpenModal(name string) {
	if name != ModalCart && name != ModalCall {
		name = ModalNone
	}
	p.mu.Lock()
	p.modal = name
	p.mu.Unlock()
}

// CloseModal hides any dialog.
func (p *CustomerPage) CloseModal() {
	p.OpenModal(ModalNone)
}

// AddToCart adds a loaded menu item to the cart.
func (p *CustomerPage) AddToCart(menuID string, qty int) error {
	p.mu.Lock()
	var found *model.MenuItem
	for i := range p.menus {
		if p.menus[i].ID == menuID {
			found = &p.menus[i]
			break
		}
	}
	var item model.MenuItem
	if found != nil {
		item = *found
	}
	p.mu.Unlock()

	if found == nil {
		return ErrNotFound
	}
	return p.cart.Add(item, qty)
}

// SetQuantity changes a cart line; zero removes it.
func (p *CustomerPage) SetQuantity(menuID string, qty int) error {
	return p.cart.SetQuantity(menuID, qty)
}

// RemoveFromCart drops a cart line.
func (p *CustomerPage) RemoveFromCart(menuID string) {
	p.cart.Remove(menuID)
}

func (p *CustomerPage) orderingTarget() (storeID, tableID, deviceID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.tableID == "":
		err = ErrTableUnresolved
	case p.sample:
		err = ErrSampleMenu
	}
	return p.storeID, p.tableID, p.ctx.DeviceID, err
}

// Checkout submits the cart as a public order. The cart is kept on failure.
func (p *CustomerPage) Checkout(ctx context.Context) (model.Order, error) {
	storeID, tableID, deviceID, err := p.orderingTarget()
	if err != nil {
		return model.Order{}, err
	}
	if p.cart.Empty() {
		return model.Order{}, ErrEmptyCart
	}

	res := p.d.Backend.CreatePublicOrder(ctx, model.OrderRequest{
		StoreID:     storeID,
		TableID:     tableID,
		DeviceID:    deviceID,
		Items:       p.cart.OrderItems(),
		TotalAmount: p.cart.Total(),
	})
	if !res.Success {
		return model.Order{}, failed(p.d, "Order failed", res)
	}

	p.cart.Clear()
	p.mu.Lock()
	order := res.Data
	p.lastOrder = &order
	p.modal = ModalNone
	p.mu.Unlock()
	return res.Data, nil
}

// CallStaff raises a staff call from this table.
func (p *CustomerPage) CallStaff(ctx context.Context, kind model.CallType, message string) (model.Call, error) {
	storeID, tableID, deviceID, err := p.orderingTarget()
	if errors.Is(err, ErrTableUnresolved) {
		return model.Call{}, err
	}

	res := p.d.Backend.CreatePublicCall(ctx, model.CallRequest{
		StoreID:  storeID,
		TableID:  tableID,
		Type:     kind,
		Message:  strings.TrimSpace(message),
		DeviceID: deviceID,
	})
	if !res.Success {
		return model.Call{}, failed(p.d, "Call failed", res)
	}
	p.CloseModal()
	return res.Data, nil
}

// Remaining is the time left before the table session resets.
func (p *CustomerPage) Remaining() time.Duration {
	if p.timer == nil {
		return 0
	}
	return p.timer.Remaining()
}

// State returns a copy of the render state with filters applied.
func (p *CustomerPage) State() any {
	return p.Snapshot()
}

// Snapshot is State with its concrete type.
func (p *CustomerPage) Snapshot() CustomerState {
	p.mu.Lock()
	st := CustomerState{
		StoreID:          p.storeID,
		TableNumber:      p.ctx.TableNumber,
		TableID:          p.tableID,
		OrderingEnabled:  p.tableID != "" && !p.sample,
		Menus:            filterMenus(p.menus, p.category, p.query),
		Categories:       append([]model.MenuCategory(nil), p.categories...),
		SelectedCategory: p.category,
		Query:            p.query,
		Modal:            p.modal,
		SampleData:       p.sample,
		Banner:           p.banner,
		LastOrder:        p.lastOrder,
		Language:         p.ctx.Language,
		Theme:            p.ctx.Theme,
	}
	if p.ctx.Store != nil {
		st.StoreName = p.ctx.Store.Name
	}
	p.mu.Unlock()

	st.Cart = p.cart.Items()
	st.CartTotal = p.cart.Total()
	st.CartCount = p.cart.Count()
	st.RemainingSeconds = int(p.Remaining() / time.Second)
	st.Connected = connected(p.d.Realtime)
	return st
}

func filterMenus(menus []model.MenuItem, category, query string) []model.MenuItem {
	q := strings.ToLower(query)
	out := make([]model.MenuItem, 0, len(menus))
	for _, m := range menus {
		if category != "" && m.CategoryID != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(m.Name), q) && !strings.Contains(strings.ToLower(m.Description), q) {
			continue
		}
		out = append(out, m)
	}
	return out
}
