package backend

import (
	"context"
	"net/http"

	"tableorder-agent/internal/model"
)

// ListStores returns every store visible to the logged-in account.
func (c *Client) ListStores(ctx context.Context) Result[[]model.Store] {
	var ws []wireStore
	if err := c.do(ctx, request{mode: tenant, method: http.MethodGet, path: "/stores"}, &ws); err != nil {
		return fail[[]model.Store](err)
	}
	return ok(mapAll(ws, storeFromWire))
}

// GetStore fetches one store.
func (c *Client) GetStore(ctx context.Context, id string) Result[model.Store] {
	var w wireStore
	if err := c.do(ctx, request{mode: tenant, method: http.MethodGet, path: "/stores/" + esc(id)}, &w); err != nil {
		return fail[model.Store](err)
	}
	return ok(storeFromWire(w))
}

// CreateStore creates a store.
func (c *Client) CreateStore(ctx context.Context, in model.StoreInput) Result[model.Store] {
	var w wireStore
	if err := c.do(ctx, request{mode: tenant, method: http.MethodPost, path: "/stores", body: storeToWire(in)}, &w); err != nil {
		return fail[model.Store](err)
	}
	return ok(storeFromWire(w))
}

// UpdateStore replaces a store's editable fields.
func (c *Client) UpdateStore(ctx context.Context, id string, in model.StoreInput) Result[model.Store] {
	var w wireStore
	if err := c.do(ctx, request{mode: tenant, method: http.MethodPut, path: "/stores/" + esc(id), body: storeToWire(in)}, &w); err != nil {
		return fail[model.Store](err)
	}
	return ok(storeFromWire(w))
}

// DeleteStore removes a store.
func (c *Client) DeleteStore(ctx context.Context, id string) Result[struct{}] {
	if err := c.do(ctx, request{mode: tenant, method: http.MethodDelete, path: "/stores/" + esc(id)}, nil); err != nil {
		return fail[struct{}](err)
	}
	return ok(struct{}{})
}
