package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tableorder-agent/internal/model"
)

type cartRequest struct {
	MenuID   string `json:"menuId"`
	Quantity int    `json:"quantity"`
}

// AddToCart adds a menu item to the customer's cart.
func (h *Handler) AddToCart(c *gin.Context) {
	if !h.mounted(c, h.pages.Customer) {
		return
	}
	var req cartRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.MenuID == "" {
		badRequest(c)
		return
	}
	if err := h.pages.Customer.AddToCart(req.MenuID, req.Quantity); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, h.pages.Customer.Snapshot())
}

// SetCartQuantity changes a cart line; zero removes it.
func (h *Handler) SetCartQuantity(c *gin.Context) {
	if !h.mounted(c, h.pages.Customer) {
		return
	}
	var req cartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.pages.Customer.SetQuantity(c.Param("menu_id"), req.Quantity); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, h.pages.Customer.Snapshot())
}

// RemoveFromCart drops a cart line.
func (h *Handler) RemoveFromCart(c *gin.Context) {
	if !h.mounted(c, h.pages.Customer) {
		return
	}
	h.pages.Customer.RemoveFromCart(c.Param("menu_id"))
	c.JSON(http.StatusOK, h.pages.Customer.Snapshot())
}

// Checkout submits the cart as an order.
func (h *Handler) Checkout(c *gin.Context) {
	if !h.mounted(c, h.pages.Customer) {
		return
	}
	order, err := h.pages.Customer.Checkout(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

type callRequest struct {
	Type    model.CallType `json:"type" binding:"required"`
	Message string         `json:"message"`
}

// CallStaff raises a staff call from the table.
func (h *Handler) CallStaff(c *gin.Context) {
	if !h.mounted(c, h.pages.Customer) {
		return
	}
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	call, err := h.pages.Customer.CallStaff(c.Request.Context(), req.Type, req.Message)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

type browseRequest struct {
	Category string `json:"category"`
	Query    string `json:"query"`
	Modal    string `json:"modal"`
}

// Browse sets the category filter, search text and open modal.
func (h *Handler) Browse(c *gin.Context) {
	if !h.mounted(c, h.pages.Customer) {
		return
	}
	var req browseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	p := h.pages.Customer
	p.SelectCategory(req.Category)
	p.Search(req.Query)
	if req.Modal == "" {
		p.CloseModal()
	} else {
		p.OpenModal(req.Modal)
	}
	c.JSON(http.StatusOK, p.Snapshot())
}

// ChangeTable reassigns the kiosk to another table number.
func (h *Handler) ChangeTable(c *gin.Context) {
	if !h.mounted(c, h.pages.Customer) {
		return
	}
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.pages.Customer.ChangeTable(c.Request.Context(), req.Value); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, h.pages.Customer.Snapshot())
}

// RetryCustomer reloads the customer menu.
func (h *Handler) RetryCustomer(c *gin.Context) {
	if !h.mounted(c, h.pages.Customer) {
		return
	}
	if err := h.pages.Customer.Retry(c.Request.Context()); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, h.pages.Customer.Snapshot())
}
