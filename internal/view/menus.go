package view

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"tableorder-agent/internal/model"
	"tableorder-agent/internal/parse"
	"tableorder-agent/internal/realtime"
)

// MenuForm is the admin menu editor. Price is the raw text field.
type MenuForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	IsAvailable bool   `json:"isAvailable"`
	SortOrder   int    `json:"sortOrder"`
}

func (f MenuForm) input(storeID string, categories []model.MenuCategory) (model.MenuItemInput, error) {
	fe := FieldErrors{}
	in := model.MenuItemInput{
		StoreID:     storeID,
		CategoryID:  strings.TrimSpace(f.CategoryID),
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Image:       strings.TrimSpace(f.Image),
		IsAvailable: f.IsAvailable,
		SortOrder:   f.SortOrder,
	}
	if in.Name == "" {
		fe["name"] = "required"
	}
	if in.CategoryID == "" {
		fe["categoryId"] = "required"
	} else if !hasCategory(categories, in.CategoryID) {
		fe["categoryId"] = "unknown category"
	}
	price, err := parse.Price(f.Price)
	if err != nil {
		fe["price"] = "must be a number between 0 and " + parse.MaxPrice.String()
	}
	in.Price = price
	if in.Image != "" {
		if u, err := url.Parse(in.Image); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fe["image"] = "must be an http(s) URL"
		}
	}
	if f.SortOrder < 0 {
		fe["sortOrder"] = "must not be negative"
	}
	return in, fe.orNil()
}

// CategoryForm is the admin category editor.
type CategoryForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    bool   `json:"isActive"`
}

func (f CategoryForm) input(storeID string) (model.CategoryInput, error) {
	fe := FieldErrors{}
	in := model.CategoryInput{
		StoreID:     storeID,
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		SortOrder:   f.SortOrder,
		IsActive:    f.IsActive,
	}
	if in.Name == "" {
		fe["name"] = "required"
	}
	if f.SortOrder < 0 {
		fe["sortOrder"] = "must not be negative"
	}
	return in, fe.orNil()
}

func hasCategory(categories []model.MenuCategory, id string) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// MenusState is the admin menu screen.
type MenusState struct {
	Menus      []model.MenuItem     `json:"menus"`
	Categories []model.MenuCategory `json:"categories"`
	Banner     string               `json:"banner,omitempty"`
	Loaded     bool                 `json:"loaded"`
}

type menusData struct {
	menus      []model.MenuItem
	categories []model.MenuCategory
}

// MenusPage manages menu items and categories.
type MenusPage struct {
	d       Deps
	scope   scope
	storeID string
	data    *collection[menusData]
}

// NewMenusPage creates an unmounted menu admin page.
func NewMenusPage(d Deps) *MenusPage {
	return &MenusPage{d: d}
}

func (p *MenusPage) Route() string { return RouteMenus }

func (p *MenusPage) Mount(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			p.scope.release()
		}
	}()
	if p.storeID, err = requireAdmin(ctx, p.d, true); err != nil {
		return err
	}
	storeID := p.storeID
	p.data = newCollection("menus", p.d.Intervals.Menu, func(ctx context.Context) (menusData, error) {
		var out menusData
		var err error
		if out.menus, err = resultErr(p.d.Backend.ListMenus(ctx, storeID)); err != nil {
			return out, err
		}
		if out.categories, err = resultErr(p.d.Backend.ListCategories(ctx, storeID)); err != nil {
			return out, err
		}
		sort.SliceStable(out.menus, func(i, j int) bool { return out.menus[i].SortOrder < out.menus[j].SortOrder })
		sort.SliceStable(out.categories, func(i, j int) bool { return out.categories[i].SortOrder < out.categories[j].SortOrder })
		return out, nil
	})
	staffChannel(&p.scope, p.d.Realtime, p.data.ref.Trigger, realtime.EventMenuUpdated)
	p.data.start(ctx, &p.scope)
	return nil
}

func (p *MenusPage) Unmount() { p.scope.release() }

// Retry reloads after a failure banner.
func (p *MenusPage) Retry(ctx context.Context) error { return p.data.reload(ctx) }

func (p *MenusPage) categories() []model.MenuCategory {
	v, _, _ := p.data.value()
	return v.categories
}

func (p *MenusPage) menu(id string) (model.MenuItem, bool) {
	v, _, _ := p.data.value()
	for _, m := range v.menus {
		if m.ID == id {
			return m, true
		}
	}
	return model.MenuItem{}, false
}

// CreateMenu validates and creates a menu item.
func (p *MenusPage) CreateMenu(ctx context.Context, f MenuForm) (model.MenuItem, error) {
	in, err := f.input(p.storeID, p.categories())
	if err != nil {
		return model.MenuItem{}, err
	}
	res := p.d.Backend.CreateMenu(ctx, in)
	if !res.Success {
		return model.MenuItem{}, failed(p.d, "Creating the menu failed", res)
	}
	return res.Data, p.data.reload(ctx)
}

// UpdateMenu validates and replaces a menu item.
func (p *MenusPage) UpdateMenu(ctx context.Context, id string, f MenuForm) error {
	if _, ok := p.menu(id); !ok {
		return ErrNotFound
	}
	in, err := f.input(p.storeID, p.categories())
	if err != nil {
		return err
	}
	if res := p.d.Backend.UpdateMenu(ctx, id, in); !res.Success {
		return failed(p.d, "Updating the menu failed", res)
	}
	return p.data.reload(ctx)
}

// ToggleAvailability flips whether a menu item can be ordered.
func (p *MenusPage) ToggleAvailability(ctx context.Context, id string) error {
	m, ok := p.menu(id)
	if !ok {
		return ErrNotFound
	}
	in := m.Input()
	in.IsAvailable = !m.IsAvailable
	if res := p.d.Backend.UpdateMenu(ctx, id, in); !res.Success {
		return failed(p.d, "Updating the menu failed", res)
	}
	return p.data.reload(ctx)
}

// DeleteMenu removes a menu item.
func (p *MenusPage) DeleteMenu(ctx context.Context, id string) error {
	if res := p.d.Backend.DeleteMenu(ctx, id); !res.Success {
		return failed(p.d, "Deleting the menu failed", res)
	}
	return p.data.reload(ctx)
}

// CreateCategory validates and creates a category.
func (p *MenusPage) CreateCategory(ctx context.Context, f CategoryForm) (model.MenuCategory, error) {
	in, err := f.input(p.storeID)
	if err != nil {
		return model.MenuCategory{}, err
	}
	res := p.d.Backend.CreateCategory(ctx, in)
	if !res.Success {
		return model.MenuCategory{}, failed(p.d, "Creating the category failed", res)
	}
	return res.Data, p.data.reload(ctx)
}

// UpdateCategory validates and replaces a category.
func (p *MenusPage) UpdateCategory(ctx context.Context, id string, f CategoryForm) error {
	if !hasCategory(p.categories(), id) {
		return ErrNotFound
	}
	in, err := f.input(p.storeID)
	if err != nil {
		return err
	}
	if res := p.d.Backend.UpdateCategory(ctx, id, in); !res.Success {
		return failed(p.d, "Updating the category failed", res)
	}
	return p.data.reload(ctx)
}

// DeleteCategory removes a category. Categories that still hold items are refused.
func (p *MenusPage) DeleteCategory(ctx context.Context, id string) error {
	v, _, _ := p.data.value()
	for _, m := range v.menus {
		if m.CategoryID == id {
			return FieldErrors{"categoryId": "category still has menu items"}
		}
	}
	if res := p.d.Backend.DeleteCategory(ctx, id); !res.Success {
		return failed(p.d, "Deleting the category failed", res)
	}
	return p.data.reload(ctx)
}

func (p *MenusPage) State() any {
	if p.data == nil {
		return MenusState{}
	}
	v, banner, loaded := p.data.value()
	return MenusState{Menus: v.menus, Categories: v.categories, Banner: banner, Loaded: loaded}
}
