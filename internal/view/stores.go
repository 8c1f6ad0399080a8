package view

import (
	"context"
	"strings"
	"time"
	_ "time/tzdata"

	"tableorder-agent/internal/model"
	"tableorder-agent/internal/parse"
)

// DefaultTimezone is used when a store form leaves the timezone blank.
const DefaultTimezone = "Asia/Seoul"

// StoreForm is the admin store editor.
type StoreForm struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Timezone string `json:"timezone"`
	IsActive bool   `json:"isActive"`
}

func (f StoreForm) input() (model.StoreInput, error) {
	fe := FieldErrors{}
	in := model.StoreInput{
		Name:     strings.TrimSpace(f.Name),
		Address:  strings.TrimSpace(f.Address),
		Phone:    strings.TrimSpace(f.Phone),
		Timezone: strings.TrimSpace(f.Timezone),
		IsActive: f.IsActive,
	}
	code, err := parse.StoreCode(f.Code)
	if err != nil {
		fe["code"] = "2-32 letters, digits, dashes or underscores"
	}
	in.Code = code
	if in.Name == "" {
		fe["name"] = "required"
	}
	if in.Timezone == "" {
		in.Timezone = DefaultTimezone
	} else if _, err := time.LoadLocation(in.Timezone); err != nil {
		fe["timezone"] = "unknown timezone"
	}
	return in, fe.orNil()
}

// StoresState is the admin store screen.
type StoresState struct {
	Stores   []model.Store `json:"stores"`
	Selected string        `json:"selected,omitempty"`
	Banner   string        `json:"banner,omitempty"`
	Loaded   bool          `json:"loaded"`
}

// StoresPage manages stores and the selected store context.
type StoresPage struct {
	d      Deps
	scope  scope
	stores *collection[[]model.Store]
}

// NewStoresPage creates an unmounted store admin page.
func NewStoresPage(d Deps) *StoresPage {
	return &StoresPage{d: d}
}

func (p *StoresPage) Route() string { return RouteStores }

func (p *StoresPage) Mount(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			p.scope.release()
		}
	}()
	if _, err = requireAdmin(ctx, p.d, false); err != nil {
		return err
	}
	p.stores = newCollection("stores", p.d.Intervals.Dashboard, func(ctx context.Context) ([]model.Store, error) {
		return resultErr(p.d.Backend.ListStores(ctx))
	})
	p.stores.start(ctx, &p.scope)
	return nil
}

func (p *StoresPage) Unmount() { p.scope.release() }

// Retry reloads after a failure banner.
func (p *StoresPage) Retry(ctx context.Context) error { return p.stores.reload(ctx) }

// CreateStore validates and creates a store.
func (p *StoresPage) CreateStore(ctx context.Context, f StoreForm) (model.Store, error) {
	in, err := f.input()
	if err != nil {
		return model.Store{}, err
	}
	res := p.d.Backend.CreateStore(ctx, in)
	if !res.Success {
		return model.Store{}, failed(p.d, "Creating the store failed", res)
	}
	return res.Data, p.stores.reload(ctx)
}

// UpdateStore validates and replaces a store. The cached selection is
// refreshed when the selected store changed.
func (p *StoresPage) UpdateStore(ctx context.Context, id string, f StoreForm) error {
	in, err := f.input()
	if err != nil {
		return err
	}
	res := p.d.Backend.UpdateStore(ctx, id, in)
	if !res.Success {
		return failed(p.d, "Updating the store failed", res)
	}
	if cur, err := p.d.Session.StoreID(ctx); err == nil && cur == id && res.Data.ID == id {
		if err := p.d.Session.SetSelectedStore(ctx, res.Data); err != nil {
			return err
		}
	}
	return p.stores.reload(ctx)
}

// DeleteStore removes a store.
func (p *StoresPage) DeleteStore(ctx context.Context, id string) error {
	if res := p.d.Backend.DeleteStore(ctx, id); !res.Success {
		return failed(p.d, "Deleting the store failed", res)
	}
	return p.stores.reload(ctx)
}

// Select makes a store the active context and opens the dashboard.
func (p *StoresPage) Select(ctx context.Context, id string) error {
	stores, _, _ := p.stores.value()
	for _, s := range stores {
		if s.ID == id {
			if err := p.d.Session.SetSelectedStore(ctx, s); err != nil {
				return err
			}
			p.d.Nav.Navigate(RouteAdmin)
			return nil
		}
	}
	return ErrNotFound
}

func (p *StoresPage) State() any {
	if p.stores == nil {
		return StoresState{}
	}
	stores, banner, loaded := p.stores.value()
	st := StoresState{Stores: stores, Banner: banner, Loaded: loaded}
	if id, err := p.d.Session.StoreID(context.Background()); err == nil {
		st.Selected = id
	}
	return st
}
