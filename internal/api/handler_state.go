package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tableorder-agent/internal/session"
	"tableorder-agent/internal/view"
)

type stateResponse struct {
	Route   string          `json:"route"`
	Page    any             `json:"page"`
	Session session.Context `json:"session"`
}

// GetState returns the current route, the mounted page's state and the session.
func (h *Handler) GetState(c *gin.Context) {
	snap, err := h.session.Snapshot(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := stateResponse{Route: h.app.Current(), Session: snap}
	if p := h.app.Page(); p != nil {
		resp.Page = p.State()
	}
	c.JSON(http.StatusOK, resp)
}

var knownRoutes = map[string]bool{
	view.RouteHome: true, view.RouteStandby: true, view.RouteMenu: true, view.RouteKitchen: true,
	view.RouteAdmin: true, view.RouteLogin: true, view.RouteOrders: true, view.RouteCalls: true,
	view.RouteMenus: true, view.RouteTables: true, view.RouteStores: true,
}

type navigateRequest struct {
	Route string `json:"route" binding:"required"`
}

// Navigate switches the mounted page.
func (h *Handler) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil || !knownRoutes[req.Route] {
		badRequest(c)
		return
	}
	h.app.Navigate(req.Route)
	c.JSON(http.StatusOK, gin.H{"route": h.app.Current()})
}

// GetAlerts drains the pending alerts.
func (h *Handler) GetAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, h.alerts.Drain())
}

type valueRequest struct {
	Value string `json:"value"`
}

// PutTableNumber stores the kiosk's table number.
func (h *Handler) PutTableNumber(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.session.SetTableNumber(c.Request.Context(), req.Value); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PutLanguage stores the display language.
func (h *Handler) PutLanguage(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.session.SetLanguage(c.Request.Context(), req.Value); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PutTheme stores the display theme.
func (h *Handler) PutTheme(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.session.SetTheme(c.Request.Context(), req.Value); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
