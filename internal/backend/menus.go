package backend

import (
	"context"
	"net/http"

	"tableorder-agent/internal/model"
)

// ListMenus returns the admin view of a store's menu.
func (c *Client) ListMenus(ctx context.Context, storeID string) Result[[]model.MenuItem] {
	return c.listMenus(ctx, request{mode: tenant, method: http.MethodGet, path: "/menus/store/" + esc(storeID)})
}

// KioskMenus returns the unauthenticated kiosk menu.
func (c *Client) KioskMenus(ctx context.Context, storeID string) Result[[]model.MenuItem] {
	return c.listMenus(ctx, request{mode: public, method: http.MethodGet, path: "/menus/kiosk", query: storeQuery(storeID)})
}

// CustomerMenus returns the unauthenticated table-order menu.
func (c *Client) CustomerMenus(ctx context.Context, storeID string) Result[[]model.MenuItem] {
	return c.listMenus(ctx, request{mode: public, method: http.MethodGet, path: "/menus/customer", query: storeQuery(storeID)})
}

func (c *Client) listMenus(ctx context.Context, r request) Result[[]model.MenuItem] {
	var ws []wireMenu
	if err := c.do(ctx, r, &ws); err != nil {
		return fail[[]model.MenuItem](err)
	}
	return ok(mapAll(ws, menuFromWire))
}

// CreateMenu adds a menu item.
func (c *Client) CreateMenu(ctx context.Context, in model.MenuItemInput) Result[model.MenuItem] {
	var w wireMenu
	if err := c.do(ctx, request{mode: tenant, method: http.MethodPost, path: "/menus", body: menuToWire(in)}, &w); err != nil {
		return fail[model.MenuItem](err)
	}
	return ok(menuFromWire(w))
}

// UpdateMenu replaces a menu item's editable fields.
func (c *Client) UpdateMenu(ctx context.Context, id string, in model.MenuItemInput) Result[model.MenuItem] {
	var w wireMenu
	if err := c.do(ctx, request{mode: tenant, method: http.MethodPut, path: "/menus/" + esc(id), body: menuToWire(in)}, &w); err != nil {
		return fail[model.MenuItem](err)
	}
	return ok(menuFromWire(w))
}

// DeleteMenu removes a menu item.
func (c *Client) DeleteMenu(ctx context.Context, id string) Result[struct{}] {
	if err := c.do(ctx, request{mode: tenant, method: http.MethodDelete, path: "/menus/" + esc(id)}, nil); err != nil {
		return fail[struct{}](err)
	}
	return ok(struct{}{})
}

// ListCategories returns the admin view of a store's categories.
func (c *Client) ListCategories(ctx context.Context, storeID string) Result[[]model.MenuCategory] {
	return c.listCategories(ctx, request{mode: tenant, method: http.MethodGet, path: "/menu-categories/store/" + esc(storeID)})
}

// CustomerCategories returns the unauthenticated category list.
func (c *Client) CustomerCategories(ctx context.Context, storeID string) Result[[]model.MenuCategory] {
	return c.listCategories(ctx, request{mode: public, method: http.MethodGet, path: "/menu-categories/customer", query: storeQuery(storeID)})
}

func (c *Client) listCategories(ctx context.Context, r request) Result[[]model.MenuCategory] {
	var ws []wireCategory
	if err := c.do(ctx, r, &ws); err != nil {
		return fail[[]model.MenuCategory](err)
	}
	return ok(mapAll(ws, categoryFromWire))
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, in model.CategoryInput) Result[model.MenuCategory] {
	var w wireCategory
	if err := c.do(ctx, request{mode: tenant, method: http.MethodPost, path: "/menu-categories", body: categoryToWire(in)}, &w); err != nil {
		return fail[model.MenuCategory](err)
	}
	return ok(categoryFromWire(w))
}

// UpdateCategory replaces a category's editable fields.
func (c *Client) UpdateCategory(ctx context.Context, id string, in model.CategoryInput) Result[model.MenuCategory] {
	var w wireCategory
	if err := c.do(ctx, request{mode: tenant, method: http.MethodPut, path: "/menu-categories/" + esc(id), body: categoryToWire(in)}, &w); err != nil {
		return fail[model.MenuCategory](err)
	}
	return ok(categoryFromWire(w))
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) Result[struct{}] {
	if err := c.do(ctx, request{mode: tenant, method: http.MethodDelete, path: "/menu-categories/" + esc(id)}, nil); err != nil {
		return fail[struct{}](err)
	}
	return ok(struct{}{})
}
