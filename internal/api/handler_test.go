package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableorder-agent/config"
	"tableorder-agent/internal/backend"
	"tableorder-agent/internal/model"
	"tableorder-agent/internal/realtime"
	"tableorder-agent/internal/session"
	"tableorder-agent/internal/store"
	"tableorder-agent/internal/view"
)

type quietRealtime struct{}

func (quietRealtime) Acquire() func()                        { return func() {} }
func (quietRealtime) On(string, func(realtime.Event)) func() { return func() {} }
func (quietRealtime) JoinTable(string) func()                { return func() {} }
func (quietRealtime) JoinStaff() func()                      { return func() {} }
func (quietRealtime) Connected() bool                        { return false }

type remote struct {
	mu   sync.Mutex
	hits map[string]int
}

func (r *remote) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[key]
}

func newRemote(t *testing.T) (*remote, *httptest.Server) {
	rm := &remote{hits: make(map[string]int)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		rm.mu.Lock()
		rm.hits[key]++
		rm.mu.Unlock()
		switch key {
		case "GET /stores/s1/tables":
			w.Write([]byte(`[{"id":"t1","table_number":"5"}]`))
		case "GET /menus/customer":
			w.Write([]byte(`[{"id":"m1","category_id":"c1","name":"Bibimbap","price":4500,"is_available":true},
				{"id":"m2","category_id":"c1","name":"Bulgogi","price":6500,"is_available":true}]`))
		case "GET /menu-categories/customer":
			w.Write([]byte(`[{"id":"c1","name":"Main"}]`))
		case "POST /orders/public":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"o1","table_id":"t1","status":"pending","total_amount":15500}`))
		case "POST /auth/login":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"invalid credentials"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return rm, srv
}

type fixture struct {
	remote *remote
	router *gin.Engine
	app    *view.App
	pages  Pages
	alerts *Alerts
	sess   *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rm, srv := newRemote(t)
	sess := session.New(store.NewMemoryStore())
	ctx := context.Background()
	require.NoError(t, sess.SetSelectedStore(ctx, model.Store{ID: "s1", Name: "Gangnam"}))
	require.NoError(t, sess.SetTableNumber(ctx, "5"))

	app := view.NewApp(ctx)
	t.Cleanup(app.Close)
	alerts := NewAlerts(0)
	d := view.Deps{
		Backend:  backend.NewClient(backend.Options{BaseURL: srv.URL, Timeout: 2 * time.Second}, sess),
		Session:  sess,
		Realtime: quietRealtime{},
		Nav:      app,
		Notify:   alerts,
		Intervals: view.Intervals{
			Kitchen: time.Hour, Orders: time.Hour, Calls: time.Hour,
			Tables: time.Hour, Dashboard: time.Hour, Menu: time.Hour,
		},
		PublicURL: "https://order.example.com",
	}
	pages := Pages{
		Customer: view.NewCustomerPage(d),
		Login:    view.NewLoginPage(d),
		Kitchen:  view.NewKitchenPage(d),
		Tables:   view.NewTablesPage(d),
	}
	app.Register(pages.Customer)
	app.Register(pages.Login)
	app.Register(pages.Kitchen)
	app.Register(pages.Tables)

	h := NewHandler(app, pages, sess, alerts, nil, nil)
	router := NewRouter(h, config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 60}, nil)
	return &fixture{remote: rm, router: router, app: app, pages: pages, alerts: alerts, sess: sess}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestCustomerFlowOverAPI(t *testing.T) {
	f := newFixture(t)

	w := do(f.router, http.MethodPost, "/api/customer/cart", `{"menuId":"m1","quantity":2}`)
	assert.Equal(t, http.StatusConflict, w.Code, "customer page is not mounted yet")

	w = do(f.router, http.MethodPost, "/api/navigate", `{"route":"/menu"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Eventually(t, func() bool { return len(f.pages.Customer.Snapshot().Menus) == 2 }, 2*time.Second, 5*time.Millisecond)

	w = do(f.router, http.MethodPost, "/api/customer/cart", `{"menuId":"m1","quantity":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(f.router, http.MethodPost, "/api/customer/cart", `{"menuId":"m2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[view.CustomerState](t, w)
	assert.Equal(t, "15500", st.CartTotal.String())
	assert.Equal(t, 3, st.CartCount)

	w = do(f.router, http.MethodPost, "/api/customer/cart", `{"menuId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(f.router, http.MethodPost, "/api/customer/checkout", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[model.Order](t, w)
	assert.Equal(t, "o1", order.ID)

	w = do(f.router, http.MethodPost, "/api/customer/checkout", "")
	assert.Equal(t, http.StatusConflict, w.Code, "cart is empty after checkout")

	w = do(f.router, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state struct {
		Route   string          `json:"route"`
		Session session.Context `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, view.RouteMenu, state.Route)
	assert.Equal(t, "5", state.Session.TableNumber)
}

func TestNavigate_RejectsUnknownRoute(t *testing.T) {
	f := newFixture(t)
	w := do(f.router, http.MethodPost, "/api/navigate", `{"route":"/nowhere"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionPreferences(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNoContent, do(f.router, http.MethodPut, "/api/session/table", `{"value":"b7"}`).Code)
	got, _ := f.sess.TableNumber(context.Background())
	assert.Equal(t, "B7", got)

	assert.Equal(t, http.StatusBadRequest, do(f.router, http.MethodPut, "/api/session/table", `{"value":"B 7"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(f.router, http.MethodPut, "/api/session/language", `{"value":"fr"}`).Code)
	assert.Equal(t, http.StatusNoContent, do(f.router, http.MethodPut, "/api/session/theme", `{"value":"dark"}`).Code)
}

func TestLogin_CooldownOverAPI(t *testing.T) {
	f := newFixture(t)

	w := do(f.router, http.MethodPost, "/api/auth/login", `{"username":"","password":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode[map[string]any](t, w)
	assert.Contains(t, body["fields"], "username")

	w = do(f.router, http.MethodPost, "/api/auth/login", `{"username":"owner","password":"x"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	w = do(f.router, http.MethodPost, "/api/auth/login", `{"username":"owner","password":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, 1, f.remote.count("POST /auth/login"))
}

func TestAdminRouteRedirectsToLogin(t *testing.T) {
	f := newFixture(t)

	do(f.router, http.MethodPost, "/api/navigate", `{"route":"/kitchen"}`)
	assert.Equal(t, view.RouteLogin, f.app.Current())
	assert.Equal(t, f.pages.Login, f.app.Page())

	w := do(f.router, http.MethodPost, "/api/kitchen/orders/o1/advance", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAlertsDrain(t *testing.T) {
	f := newFixture(t)
	f.alerts.Alert("Order failed: (500): Internal Server Error")

	w := do(f.router, http.MethodGet, "/api/alerts", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]Alert](t, w)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "Order failed")

	w = do(f.router, http.MethodGet, "/api/alerts", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAlerts_DropsOldest(t *testing.T) {
	a := NewAlerts(2)
	a.Alert("one")
	a.Alert("two")
	a.Alert("three")
	got := a.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
}
