package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tableorder-agent/internal/view"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates an admin through the login page.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.pages.Login.Login(c.Request.Context(), req.Username, req.Password); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": h.app.Current()})
}

// Logout drops the admin session.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.pages.Login.Logout(c.Request.Context()); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindForm decodes the request body into a form.
func bindForm[F any](c *gin.Context) (F, bool) {
	var f F
	if err := c.ShouldBindJSON(&f); err != nil {
		badRequest(c)
		return f, false
	}
	return f, true
}

// CreateMenu adds a menu item.
func (h *Handler) CreateMenu(c *gin.Context) {
	p := h.pages.Menus
	if !h.mounted(c, p) {
		return
	}
	f, ok := bindForm[view.MenuForm](c)
	if !ok {
		return
	}
	item, err := p.CreateMenu(c.Request.Context(), f)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateMenu replaces a menu item.
func (h *Handler) UpdateMenu(c *gin.Context) {
	p := h.pages.Menus
	if !h.mounted(c, p) {
		return
	}
	f, ok := bindForm[view.MenuForm](c)
	if !ok {
		return
	}
	if err := p.UpdateMenu(c.Request.Context(), c.Param("id"), f); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p.State())
}

// ToggleMenu flips a menu item's availability.
func (h *Handler) ToggleMenu(c *gin.Context) {
	p := h.pages.Menus
	if !h.mounted(c, p) {
		return
	}
	if err := p.ToggleAvailability(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p.State())
}

// DeleteMenu removes a menu item.
func (h *Handler) DeleteMenu(c *gin.Context) {
	p := h.pages.Menus
	if !h.mounted(c, p) {
		return
	}
	if err := p.DeleteMenu(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateCategory adds a menu category.
func (h *Handler) CreateCategory(c *gin.Context) {
	p := h.pages.Menus
	if !h.mounted(c, p) {
		return
	}
	f, ok := bindForm[view.CategoryForm](c)
	if !ok {
		return
	}
	cat, err := p.CreateCategory(c.Request.Context(), f)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// UpdateCategory replaces a menu category.
func (h *Handler) UpdateCategory(c *gin.Context) {
	p := h.pages.Menus
	if !h.mounted(c, p) {
		return
	}
	f, ok := bindForm[view.CategoryForm](c)
	if !ok {
		return
	}
	if err := p.UpdateCategory(c.Request.Context(), c.Param("id"), f); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p.State())
}

// DeleteCategory removes an empty menu category.
func (h *Handler) DeleteCategory(c *gin.Context) {
	p := h.pages.Menus
	if !h.mounted(c, p) {
		return
	}
	if err := p.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateTable adds a table.
func (h *Handler) CreateTable(c *gin.Context) {
	p := h.pages.Tables
	if !h.mounted(c, p) {
		return
	}
	f, ok := bindForm[view.TableForm](c)
	if !ok {
		return
	}
	t, err := p.CreateTable(c.Request.Context(), f)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// UpdateTable changes a table.
func (h *Handler) UpdateTable(c *gin.Context) {
	p := h.pages.Tables
	if !h.mounted(c, p) {
		return
	}
	f, ok := bindForm[view.TableForm](c)
	if !ok {
		return
	}
	if err := p.UpdateTable(c.Request.Context(), c.Param("id"), f); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p.State())
}

// DeleteTable removes a table.
func (h *Handler) DeleteTable(c *gin.Context) {
	p := h.pages.Tables
	if !h.mounted(c, p) {
		return
	}
	if err := p.DeleteTable(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTableQR renders a table's QR code as PNG. ?size= sets the edge in pixels.
func (h *Handler) GetTableQR(c *gin.Context) {
	p := h.pages.Tables
	if !h.mounted(c, p) {
		return
	}
	size := view.DefaultQRSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 2048 {
			badRequest(c)
			return
		}
		size = n
	}
	png, err := p.QRCode(c.Param("id"), size)
	if err != nil {
		abort(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "table-"+c.Param("id")+".png"))
	c.Data(http.StatusOK, "image/png", png)
}

// CreateStore adds a store.
func (h *Handler) CreateStore(c *gin.Context) {
	p := h.pages.Stores
	if !h.mounted(c, p) {
		return
	}
	f, ok := bindForm[view.StoreForm](c)
	if !ok {
		return
	}
	st, err := p.CreateStore(c.Request.Context(), f)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// UpdateStore replaces a store.
func (h *Handler) UpdateStore(c *gin.Context) {
	p := h.pages.Stores
	if !h.mounted(c, p) {
		return
	}
	f, ok := bindForm[view.StoreForm](c)
	if !ok {
		return
	}
	if err := p.UpdateStore(c.Request.Context(), c.Param("id"), f); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p.State())
}

// DeleteStore removes a store.
func (h *Handler) DeleteStore(c *gin.Context) {
	p := h.pages.Stores
	if !h.mounted(c, p) {
		return
	}
	if err := p.DeleteStore(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectStore switches the active store context.
func (h *Handler) SelectStore(c *gin.Context) {
	p := h.pages.Stores
	if !h.mounted(c, p) {
		return
	}
	if err := p.Select(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": h.app.Current()})
}
