package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tableorder-agent/internal/cart"
	"tableorder-agent/internal/session"
	"tableorder-agent/internal/view"
)

var errNotMounted = errors.New("page is not mounted")

// status maps a page error to the response code.
func status(err error) int {
	var fe view.FieldErrors
	switch {
	case errors.As(err, &fe):
		return http.StatusUnprocessableEntity
	case errors.Is(err, view.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, view.ErrNotFound), errors.Is(err, cart.ErrNotInCart):
		return http.StatusNotFound
	case errors.Is(err, view.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, session.ErrInvalidTableNumber),
		errors.Is(err, session.ErrInvalidLanguage),
		errors.Is(err, session.ErrInvalidTheme):
		return http.StatusBadRequest
	case errors.Is(err, errNotMounted),
		errors.Is(err, view.ErrInvalidTransition),
		errors.Is(err, view.ErrEmptyCart),
		errors.Is(err, view.ErrSampleMenu),
		errors.Is(err, view.ErrTableUnresolved),
		errors.Is(err, view.ErrNoTable),
		errors.Is(err, view.ErrNoStore),
		errors.Is(err, cart.ErrUnavailable):
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

func abort(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var fe view.FieldErrors
	if errors.As(err, &fe) {
		body["error"] = "validation failed"
		body["fields"] = fe
	}
	c.AbortWithStatusJSON(status(err), body)
}

func badRequest(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// mounted rejects actions aimed at a page that is not on screen.
func (h *Handler) mounted(c *gin.Context, p view.Page) bool {
	if h.app.Page() != p {
		abort(c, errNotMounted)
		return false
	}
	return true
}
