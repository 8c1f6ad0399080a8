package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"tableorder-agent/internal/session"
	"tableorder-agent/internal/view"
)

// Pages are the controllers the API drives. A nil page has no routes.
type Pages struct {
	Customer  *view.CustomerPage
	Kitchen   *view.KitchenPage
	Login     *view.LoginPage
	Dashboard *view.DashboardPage
	Orders    *view.OrdersPage
	Calls     *view.CallsPage
	Menus     *view.MenusPage
	Tables    *view.TablesPage
	Stores    *view.StoresPage
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	app     *view.App
	pages   Pages
	session *session.Session
	alerts  *Alerts
	db      *gorm.DB
	webpush *webpush.Options
}

// NewHandler creates a new API handler. db may be nil, in which case push
// subscriptions are unavailable.
func NewHandler(app *view.App, pages Pages, sess *session.Session, alerts *Alerts, db *gorm.DB, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		app:     app,
		pages:   pages,
		session: sess,
		alerts:  alerts,
		db:      db,
		webpush: webpushOptions,
	}
}
