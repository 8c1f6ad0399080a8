package backend

import (
	"context"
	"net/http"
	"strings"

	"tableorder-agent/internal/model"
)

// CreateCall raises a staff call from an authenticated device.
func (c *Client) CreateCall(ctx context.Context, in model.CallRequest) Result[model.Call] {
	return c.createCall(ctx, request{mode: tenant, method: http.MethodPost, path: "/calls", body: callToWire(in)}, in)
}

// CreatePublicCall raises a staff call from a customer table.
func (c *Client) CreatePublicCall(ctx context.Context, in model.CallRequest) Result[model.Call] {
	return c.createCall(ctx, request{mode: public, method: http.MethodPost, path: "/calls/public", query: storeQuery(in.StoreID), body: callToWire(in)}, in)
}

func (c *Client) createCall(ctx context.Context, r request, in model.CallRequest) Result[model.Call] {
	if in.TableID == "" {
		return fail[model.Call](invalid("table id is required"))
	}
	if !in.Type.Valid() {
		return fail[model.Call](invalid("unknown call type %q", in.Type))
	}
	if in.Type == model.CallCustom && strings.TrimSpace(in.Message) == "" {
		return fail[model.Call](invalid("a custom call needs a message"))
	}
	var w wireCall
	if err := c.do(ctx, r, &w); err != nil {
		return fail[model.Call](err)
	}
	return ok(callFromWire(w))
}

// ListCalls returns the store's calls.
func (c *Client) ListCalls(ctx context.Context, storeID string) Result[[]model.Call] {
	var ws []wireCall
	if err := c.do(ctx, request{mode: tenant, method: http.MethodGet, path: "/calls/store/" + esc(storeID)}, &ws); err != nil {
		return fail[[]model.Call](err)
	}
	return ok(mapAll(ws, callFromWire))
}

// UpdateCallStatus completes a call.
func (c *Client) UpdateCallStatus(ctx context.Context, id string, status model.CallStatus) Result[model.Call] {
	var w wireCall
	err := c.do(ctx, request{
		mode:   tenant,
		method: http.MethodPatch,
		path:   "/calls/" + esc(id) + "/status",
		body:   map[string]string{"status": string(status)},
	}, &w)
	if err != nil {
		return fail[model.Call](err)
	}
	return ok(callFromWire(w))
}
