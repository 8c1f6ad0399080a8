package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tableorder-agent/internal/model"
	"tableorder-agent/internal/view"
)

type orderActor interface {
	view.Page
	Advance(ctx context.Context, orderID string) error
	Cancel(ctx context.Context, orderID string) error
}

// orderAction builds the advance/cancel handler for a page listing orders.
func (h *Handler) orderAction(p orderActor, cancel bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.mounted(c, p) {
			return
		}
		act := p.Advance
		if cancel {
			act = p.Cancel
		}
		if err := act(c.Request.Context(), c.Param("id")); err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, p.State())
	}
}

type retrier interface {
	view.Page
	Retry(ctx context.Context) error
}

// retry builds the handler that reloads a page after a failure banner.
func (h *Handler) retry(p retrier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.mounted(c, p) {
			return
		}
		if err := p.Retry(c.Request.Context()); err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, p.State())
	}
}

type filterRequest struct {
	Status model.OrderStatus `json:"status"`
}

// SetOrdersFilter narrows the admin order list to one status; "" shows all.
// The filter may be set before the page is mounted.
func (h *Handler) SetOrdersFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	switch req.Status {
	case "", model.OrderPending, model.OrderPreparing, model.OrderCompleted, model.OrderCancelled:
	default:
		badRequest(c)
		return
	}
	h.pages.Orders.SetFilter(req.Status)
	c.JSON(http.StatusOK, h.pages.Orders.State())
}

// CompleteCall marks a pending staff call done.
func (h *Handler) CompleteCall(c *gin.Context) {
	if !h.mounted(c, h.pages.Calls) {
		return
	}
	if err := h.pages.Calls.Complete(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, h.pages.Calls.State())
}
