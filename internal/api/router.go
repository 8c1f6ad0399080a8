package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"tableorder-agent/config"
	"tableorder-agent/internal/mw"
)

// qrKey scopes cached QR images to the selected store.
func (h *Handler) qrKey(c *gin.Context) string {
	storeID, err := h.session.StoreID(c.Request.Context())
	if err != nil {
		return ""
	}
	return storeID + "|" + c.Request.RequestURI
}

// NewRouter creates the gin engine with every display route registered.
func NewRouter(h *Handler, cfg config.ServerConfig, limiter *mw.IPRateLimiter) *gin.Engine {
	r := gin.Default()

	if limiter == nil {
		limiter = mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	}
	// QR codes only change when a table's number does; entries expire after the TTL.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	qrCache := mw.Cache(cache.New(ttl, 2*ttl), ttl, h.qrKey)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter))
	{
		api.GET("/state", h.GetState)
		api.POST("/navigate", h.Navigate)
		api.GET("/alerts", h.GetAlerts)

		api.PUT("/session/table", h.PutTableNumber)
		api.PUT("/session/language", h.PutLanguage)
		api.PUT("/session/theme", h.PutTheme)

		if p := h.pages.Customer; p != nil {
			customer := api.Group("/customer")
			customer.POST("/cart", h.AddToCart)
			customer.PATCH("/cart/:menu_id", h.SetCartQuantity)
			customer.DELETE("/cart/:menu_id", h.RemoveFromCart)
			customer.POST("/checkout", h.Checkout)
			customer.POST("/call", h.CallStaff)
			customer.PUT("/browse", h.Browse)
			customer.PUT("/table", h.ChangeTable)
			customer.POST("/retry", h.RetryCustomer)
		}

		if p := h.pages.Kitchen; p != nil {
			api.POST("/kitchen/orders/:id/advance", h.orderAction(p, false))
			api.POST("/kitchen/orders/:id/cancel", h.orderAction(p, true))
			api.POST("/kitchen/retry", h.retry(p))
		}

		if h.pages.Login != nil {
			api.POST("/auth/login", h.Login)
			api.POST("/auth/logout", h.Logout)
		}

		admin := api.Group("/admin")
		if p := h.pages.Dashboard; p != nil {
			admin.POST("/dashboard/retry", h.retry(p))
		}
		if p := h.pages.Orders; p != nil {
			admin.PUT("/orders/filter", h.SetOrdersFilter)
			admin.POST("/orders/:id/advance", h.orderAction(p, false))
			admin.POST("/orders/:id/cancel", h.orderAction(p, true))
			admin.POST("/orders/retry", h.retry(p))
		}
		if p := h.pages.Calls; p != nil {
			admin.POST("/calls/:id/complete", h.CompleteCall)
			admin.POST("/calls/retry", h.retry(p))
		}
		if p := h.pages.Menus; p != nil {
			admin.POST("/menus", h.CreateMenu)
			admin.PUT("/menus/:id", h.UpdateMenu)
			admin.POST("/menus/:id/toggle", h.ToggleMenu)
			admin.DELETE("/menus/:id", h.DeleteMenu)
			admin.POST("/categories", h.CreateCategory)
			admin.PUT("/categories/:id", h.UpdateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)
			admin.POST("/menus/retry", h.retry(p))
		}
		if p := h.pages.Tables; p != nil {
			admin.POST("/tables", h.CreateTable)
			admin.PUT("/tables/:id", h.UpdateTable)
			admin.DELETE("/tables/:id", h.DeleteTable)
			admin.GET("/tables/:id/qr", qrCache, h.GetTableQR)
			admin.POST("/tables/retry", h.retry(p))
		}
		if p := h.pages.Stores; p != nil {
			admin.POST("/stores", h.CreateStore)
			admin.PUT("/stores/:id", h.UpdateStore)
			admin.DELETE("/stores/:id", h.DeleteStore)
			admin.POST("/stores/:id/select", h.SelectStore)
			admin.POST("/stores/retry", h.retry(p))
		}

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}

// WithCORS wraps the router for the configured display origins.
func WithCORS(r http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)
}
