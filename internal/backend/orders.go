package backend

import (
	"context"
	"net/http"

	"tableorder-agent/internal/model"
)

// CreateOrder places an order on behalf of staff.
func (c *Client) CreateOrder(ctx context.Context, in model.OrderRequest) Result[model.Order] {
	return c.createOrder(ctx, request{mode: tenant, method: http.MethodPost, path: "/orders", body: orderToWire(in)}, in)
}

// CreatePublicOrder places an order from a customer table.
func (c *Client) CreatePublicOrder(ctx context.Context, in model.OrderRequest) Result[model.Order] {
	return c.createOrder(ctx, request{mode: public, method: http.MethodPost, path: "/orders/public", query: storeQuery(in.StoreID), body: orderToWire(in)}, in)
}

func (c *Client) createOrder(ctx context.Context, r request, in model.OrderRequest) Result[model.Order] {
	if in.TableID == "" {
		return fail[model.Order](invalid("table id is required"))
	}
	if len(in.Items) == 0 {
		return fail[model.Order](invalid("order has no items"))
	}
	var w wireOrder
	if err := c.do(ctx, r, &w); err != nil {
		return fail[model.Order](err)
	}
	return ok(orderFromWire(w))
}

// ListOrders returns the store's orders.
func (c *Client) ListOrders(ctx context.Context, storeID string) Result[[]model.Order] {
	var ws []wireOrder
	if err := c.do(ctx, request{mode: tenant, method: http.MethodGet, path: "/orders/store/" + esc(storeID)}, &ws); err != nil {
		return fail[[]model.Order](err)
	}
	return ok(mapAll(ws, orderFromWire))
}

// UpdateOrderStatus moves an order forward.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) Result[model.Order] {
	var w wireOrder
	err := c.do(ctx, request{
		mode:   tenant,
		method: http.MethodPatch,
		path:   "/orders/" + esc(id) + "/status",
		body:   map[string]string{"status": string(status)},
	}, &w)
	if err != nil {
		return fail[model.Order](err)
	}
	return ok(orderFromWire(w))
}

// CancelOrder cancels a pending or preparing order.
func (c *Client) CancelOrder(ctx context.Context, id string) Result[model.Order] {
	var w wireOrder
	if err := c.do(ctx, request{mode: tenant, method: http.MethodPatch, path: "/orders/" + esc(id) + "/cancel"}, &w); err != nil {
		return fail[model.Order](err)
	}
	return ok(orderFromWire(w))
}
