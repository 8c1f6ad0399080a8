package backend

import (
	"context"
	"net/http"

	"tableorder-agent/internal/model"
	"tableorder-agent/internal/parse"
)

// ListTables returns all tables of a store.
func (c *Client) ListTables(ctx context.Context, storeID string) Result[[]model.Table] {
	var ws []wireTable
	if err := c.do(ctx, request{mode: tenant, method: http.MethodGet, path: "/stores/" + esc(storeID) + "/tables"}, &ws); err != nil {
		return fail[[]model.Table](err)
	}
	return ok(mapAll(ws, tableFromWire))
}

// CreateTable adds a table to the store named in the input.
func (c *Client) CreateTable(ctx context.Context, in model.TableInput) Result[model.Table] {
	var w wireTable
	if err := c.do(ctx, request{mode: tenant, method: http.MethodPost, path: "/tables", body: tableToWire(in)}, &w); err != nil {
		return fail[model.Table](err)
	}
	return ok(tableFromWire(w))
}

// UpdateTable patches a table.
func (c *Client) UpdateTable(ctx context.Context, id string, in model.TableInput) Result[model.Table] {
	var w wireTable
	if err := c.do(ctx, request{mode: tenant, method: http.MethodPatch, path: "/tables/" + esc(id), body: tableToWire(in)}, &w); err != nil {
		return fail[model.Table](err)
	}
	return ok(tableFromWire(w))
}

// DeleteTable removes a table.
func (c *Client) DeleteTable(ctx context.Context, id string) Result[struct{}] {
	if err := c.do(ctx, request{mode: tenant, method: http.MethodDelete, path: "/tables/" + esc(id)}, nil); err != nil {
		return fail[struct{}](err)
	}
	return ok(struct{}{})
}

// ResolveTableID maps a human table number to its id by listing the store's
// tables. Data is "" with Success=true when no table matches.
func (c *Client) ResolveTableID(ctx context.Context, storeID, number string) Result[string] {
	res := c.ListTables(ctx, storeID)
	if !res.Success {
		return Result[string]{Error: res.Error, Kind: res.Kind, Status: res.Status}
	}
	return ok(MatchTable(res.Data, number))
}

// MatchTable returns the id of the table whose number equals number, or "".
func MatchTable(tables []model.Table, number string) string {
	if number == "" {
		return ""
	}
	for _, t := range tables {
		if parse.SameTable(t.Number, number) {
			return t.ID
		}
	}
	return ""
}
