package view

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableorder-agent/internal/model"
	"tableorder-agent/internal/realtime"
)

const ordersJSON = `[
	{"id":"o3","table_id":"t1","status":"completed","total_amount":9000,"created_at":"2026-03-01T12:00:00Z"},
	{"id":"o2","table_id":"t2","status":"preparing","total_amount":6500,"created_at":"2026-03-01T12:05:00Z"},
	{"id":"o1","table_id":"t1","status":"pending","total_amount":4500,"created_at":"2026-03-01T11:55:00Z"},
	{"id":"o4","table_id":"t2","status":"cancelled","total_amount":3000,"created_at":"2026-03-01T11:50:00Z"}]`

func staffEnv(t *testing.T) *env {
	t.Helper()
	e := newEnv(t)
	e.login(t)
	e.selectStore(t, "s1")
	e.backend.json("GET /orders/store/s1", http.StatusOK, ordersJSON)
	return e
}

func TestAdminPages_RequireLogin(t *testing.T) {
	e := newEnv(t)
	pages := []Page{
		NewKitchenPage(e.deps), NewDashboardPage(e.deps), NewOrdersPage(e.deps), NewCallsPage(e.deps),
		NewMenusPage(e.deps), NewTablesPage(e.deps), NewStoresPage(e.deps),
	}
	for _, p := range pages {
		assert.ErrorIs(t, p.Mount(context.Background()), ErrUnauthorized, p.Route())
	}
	assert.Len(t, e.history.Routes(), len(pages))
	for _, r := range e.history.Routes() {
		assert.Equal(t, RouteLogin, r)
	}
	e.assertReleased(t)
}

func TestAdminPages_RequireStore(t *testing.T) {
	e := newEnv(t)
	e.login(t)
	p := NewKitchenPage(e.deps)
	assert.ErrorIs(t, p.Mount(context.Background()), ErrNoStore)
	assert.Equal(t, []string{RouteStores}, e.history.Routes())
}

func TestKitchen_ActiveOrdersOldestFirst(t *testing.T) {
	e := staffEnv(t)
	p := NewKitchenPage(e.deps)
	require.NoError(t, p.Mount(context.Background()))
	defer p.Unmount()

	require.Eventually(t, func() bool { return p.State().(KitchenState).Loaded }, 2*time.Second, 5*time.Millisecond)
	st := p.State().(KitchenState)
	require.Len(t, st.Orders, 2)
	assert.Equal(t, "o1", st.Orders[0].ID)
	assert.Equal(t, "o2", st.Orders[1].ID)
	assert.True(t, e.realtime.inRoom("staff"))

	before := e.backend.count("GET /orders/store/s1")
	e.realtime.emit(realtime.EventOrderUpdated)
	require.Eventually(t, func() bool { return e.backend.count("GET /orders/store/s1") > before }, 2*time.Second, 5*time.Millisecond)
}

func TestKitchen_AdvanceAndCancel(t *testing.T) {
	e := staffEnv(t)
	var sent map[string]any
	e.backend.handle("PATCH /orders/o1/status", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "s1", r.Header.Get("X-Store-ID"))
		assert.Equal(t, "Bearer opaque-token", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &sent))
		w.Write([]byte(`{"id":"o1","status":"preparing"}`))
	})
	e.backend.json("PATCH /orders/o2/cancel", http.StatusOK, `{"id":"o2","status":"cancelled"}`)

	p := NewKitchenPage(e.deps)
	require.NoError(t, p.Mount(context.Background()))
	defer p.Unmount()
	require.Eventually(t, func() bool { return p.State().(KitchenState).Loaded }, 2*time.Second, 5*time.Millisecond)
	loads := e.backend.count("GET /orders/store/s1")

	require.NoError(t, p.Advance(context.Background(), "o1"))
	assert.Equal(t, "preparing", sent["status"])
	assert.Equal(t, loads+1, e.backend.count("GET /orders/store/s1"), "list reloaded after the mutation")

	require.NoError(t, p.Cancel(context.Background(), "o2"))
	assert.ErrorIs(t, p.Advance(context.Background(), "o3"), ErrNotFound, "completed orders are not on the kitchen list")
}

func TestOrders_FilterAndInvalidActions(t *testing.T) {
	e := staffEnv(t)
	p := NewOrdersPage(e.deps)
	p.SetFilter(model.OrderCompleted)
	require.NoError(t, p.Mount(context.Background()))
	defer p.Unmount()
	require.Eventually(t, func() bool { return p.State().(OrdersState).Loaded }, 2*time.Second, 5*time.Millisecond)

	st := p.State().(OrdersState)
	require.Len(t, st.Orders, 1)
	assert.Equal(t, "o3", st.Orders[0].ID)

	p.SetFilter("")
	st = p.State().(OrdersState)
	require.Len(t, st.Orders, 4)
	assert.Equal(t, "o2", st.Orders[0].ID, "newest first")

	assert.ErrorIs(t, p.Advance(context.Background(), "o3"), ErrInvalidTransition)
	assert.ErrorIs(t, p.Cancel(context.Background(), "o4"), ErrInvalidTransition)
	assert.ErrorIs(t, p.Cancel(context.Background(), "o3"), ErrInvalidTransition)
	assert.Zero(t, e.backend.count("PATCH /orders/o3/status"))
}

func TestOrders_StatusFailureAlerts(t *testing.T) {
	e := staffEnv(t)
	e.backend.json("PATCH /orders/o1/status", http.StatusInternalServerError, ``)
	p := NewOrdersPage(e.deps)
	require.NoError(t, p.Mount(context.Background()))
	defer p.Unmount()
	require.Eventually(t, func() bool { return p.State().(OrdersState).Loaded }, 2*time.Second, 5*time.Millisecond)

	require.Error(t, p.Advance(context.Background(), "o1"))
	require.Len(t, e.alerts.all(), 1)
	assert.Contains(t, e.alerts.all()[0], "(500)")
}

func TestList_LoadFailureShowsBannerAndRetry(t *testing.T) {
	e := staffEnv(t)
	e.backend.json("GET /orders/store/s1", http.StatusServiceUnavailable, `{"error":"maintenance"}`)
	p := NewKitchenPage(e.deps)
	require.NoError(t, p.Mount(context.Background()))
	defer p.Unmount()

	require.Eventually(t, func() bool { return p.State().(KitchenState).Banner == "maintenance" }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, e.alerts.all(), "load failures are banners, not alerts")

	e.backend.json("GET /orders/store/s1", http.StatusOK, ordersJSON)
	require.NoError(t, p.Retry(context.Background()))
	st := p.State().(KitchenState)
	assert.Empty(t, st.Banner)
	assert.Len(t, st.Orders, 2)
}

func TestCalls_CompleteAndAlertNewCalls(t *testing.T) {
	e := staffEnv(t)
	e.backend.json("GET /calls/store/s1", http.StatusOK, `[
		{"id":"c1","table_id":"t1","call_type":"bill","status":"pending","created_at":"2026-03-01T12:00:00Z"},
		{"id":"c0","table_id":"t2","call_type":"help","status":"completed","created_at":"2026-03-01T11:00:00Z"}]`)
	e.backend.json("PATCH /calls/c1/status", http.StatusOK, `{"id":"c1","status":"completed"}`)

	p := NewCallsPage(e.deps)
	require.NoError(t, p.Mount(context.Background()))
	defer p.Unmount()
	require.Eventually(t, func() bool { return p.State().(CallsState).Loaded }, 2*time.Second, 5*time.Millisecond)

	st := p.State().(CallsState)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, "c1", st.Calls[0].ID, "pending first")
	assert.Empty(t, e.calls.ids(), "calls present at mount are not alerted")

	e.backend.json("GET /calls/store/s1", http.StatusOK, `[
		{"id":"c1","table_id":"t1","call_type":"bill","status":"pending"},
		{"id":"c2","table_id":"t2","call_type":"service","status":"pending"}]`)
	e.realtime.emit(realtime.EventCallUpdated)
	require.Eventually(t, func() bool { return len(e.calls.ids()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"c2"}, e.calls.ids())

	require.NoError(t, p.Complete(context.Background(), "c1"))
	assert.Equal(t, 1, e.backend.count("PATCH /calls/c1/status"))
	assert.ErrorIs(t, p.Complete(context.Background(), "missing"), ErrNotFound)
}

func TestDashboard_Aggregates(t *testing.T) {
	e := staffEnv(t)
	e.backend.json("GET /calls/store/s1", http.StatusOK, `[{"id":"c1","status":"pending"},{"id":"c2","status":"completed"}]`)
	e.backend.json("GET /stores/s1/tables", http.StatusOK, `[
		{"id":"t1","table_number":"1","status":"occupied"},
		{"id":"t2","table_number":"2","status":"available"}]`)

	p := NewDashboardPage(e.deps)
	require.NoError(t, p.Mount(context.Background()))
	defer p.Unmount()
	require.Eventually(t, func() bool { return p.State().(DashboardState).Loaded }, 2*time.Second, 5*time.Millisecond)

	st := p.State().(DashboardState)
	assert.Equal(t, "Gangnam", st.StoreName)
	assert.Equal(t, 2, st.ActiveOrders)
	assert.Equal(t, 1, st.PendingCalls)
	assert.Equal(t, 1, st.TablesInUse)
	assert.Equal(t, 2, st.TablesTotal)
	assert.Equal(t, "9000", st.Revenue.String())
	assert.Equal(t, 1, st.OrdersByStatus[model.OrderCancelled])
	require.Len(t, st.RecentOrders, 4)
	assert.Equal(t, "o2", st.RecentOrders[0].ID)

	p.Unmount()
	e.assertReleased(t)
}
