package internal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tableorder-agent/internal/backend"
	"tableorder-agent/internal/db"
	"tableorder-agent/internal/model"
	"tableorder-agent/internal/realtime"
	"tableorder-agent/internal/session"
	"tableorder-agent/internal/store"
	"tableorder-agent/internal/view"
)

type recordedAlerts struct {
	mu    sync.Mutex
	calls []string
	msgs  []string
}

func (r *recordedAlerts) Alert(msg string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recordedAlerts) NewCall(storeID string, call model.Call) {
	r.mu.Lock()
	r.calls = append(r.calls, storeID+"/"+call.ID)
	r.mu.Unlock()
}

func (r *recordedAlerts) newCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// fakeRestaurant is a minimal remote backend: one store, one table, two menu
// items, and an order list that grows when customers check out.
type fakeRestaurant struct {
	mu     sync.Mutex
	orders []map[string]any
	calls  []map[string]any
}

func (f *fakeRestaurant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	write := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method + " " + r.URL.Path {
	case "GET /stores/s1/tables":
		write(http.StatusOK, []map[string]any{{"id": "t1", "table_number": "5", "store_id": "s1"}})
	case "GET /menus/customer":
		write(http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
			{"id": "m1", "category_id": "c1", "name": "Bibimbap", "price": 4500, "is_available": true, "sort_order": 1},
			{"id": "m2", "category_id": "c1", "name": "Bulgogi", "price": 6500, "is_available": true, "sort_order": 2},
		}})
	case "GET /menu-categories/customer":
		write(http.StatusOK, []map[string]any{{"id": "c1", "name": "Main"}})
	case "POST /orders/public":
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		order := map[string]any{
			"id": "o1", "table_id": body["table_id"], "table_number": "5", "status": "pending",
			"total_amount": body["total_amount"], "items": body["items"], "created_at": time.Now().UTC(),
		}
		f.orders = append(f.orders, order)
		write(http.StatusCreated, order)
	case "POST /calls/public":
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		call := map[string]any{
			"id": "c1", "table_id": body["table_id"], "table_number": "5", "call_type": body["call_type"],
			"status": "pending", "created_at": time.Now().UTC(),
		}
		f.calls = append(f.calls, call)
		write(http.StatusCreated, call)
	case "POST /auth/login":
		write(http.StatusOK, map[string]any{
			"token":  "opaque",
			"user":   map[string]any{"id": "u1", "username": "owner", "role": "admin"},
			"stores": []map[string]any{{"id": "s1", "code": "GN", "name": "Gangnam"}},
		})
	case "GET /orders/store/s1":
		if r.Header.Get("Authorization") != "Bearer opaque" || r.Header.Get(backend.TenantHeader) != "s1" {
			write(http.StatusUnauthorized, map[string]any{"message": "unauthorized"})
			return
		}
		write(http.StatusOK, f.orders)
	case "GET /calls/store/s1":
		write(http.StatusOK, f.calls)
	default:
		write(http.StatusNotFound, map[string]any{"message": "not found"})
	}
}

func newSessionDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(testDB))
	return testDB
}

// TestTableOrderLifecycle walks a customer order from the table to the kitchen
// with the session persisted in sqlite and realtime disabled.
func TestTableOrderLifecycle(t *testing.T) {
	// --- Setup ---
	server := httptest.NewServer(&fakeRestaurant{})
	defer server.Close()

	testDB := newSessionDB(t)
	sess := session.New(store.NewGormStore(testDB))
	ctx := context.Background()
	require.NoError(t, sess.SetSelectedStore(ctx, model.Store{ID: "s1", Name: "Gangnam"}))
	require.NoError(t, sess.SetTableNumber(ctx, "5"))

	app := view.NewApp(ctx)
	defer app.Close()
	alerts := &recordedAlerts{}
	deps := view.Deps{
		Backend:  backend.NewClient(backend.Options{BaseURL: server.URL, Timeout: 2 * time.Second}, sess),
		Session:  sess,
		Realtime: realtime.NewManager(realtime.Options{Disabled: true}),
		Nav:      app,
		Notify:   alerts,
		Alerts:   alerts,
		Intervals: view.Intervals{
			Kitchen: time.Hour, Orders: time.Hour, Calls: time.Hour,
			Tables: time.Hour, Dashboard: time.Hour, Menu: time.Hour,
		},
	}
	customer := view.NewCustomerPage(deps)
	kitchen := view.NewKitchenPage(deps)
	login := view.NewLoginPage(deps)
	calls := view.NewCallsPage(deps)
	for _, p := range []view.Page{customer, kitchen, login, calls} {
		app.Register(p)
	}

	// --- Customer orders at table 5 ---
	t.Run("Customer Checks Out", func(t *testing.T) {
		app.Navigate(view.RouteMenu)
		require.Equal(t, customer, app.Page())
		require.Eventually(t, func() bool { return len(customer.Snapshot().Menus) == 2 }, 2*time.Second, 5*time.Millisecond)

		st := customer.Snapshot()
		assert.Equal(t, "t1", st.TableID)
		assert.True(t, st.OrderingEnabled)

		require.NoError(t, customer.AddToCart("m1", 2))
		require.NoError(t, customer.AddToCart("m2", 1))
		order, err := customer.Checkout(ctx)
		require.NoError(t, err)
		assert.Equal(t, "15500", order.TotalAmount.String())
		assert.Empty(t, customer.Snapshot().Cart)

		_, err = customer.CallStaff(ctx, model.CallBill, "")
		require.NoError(t, err)
	})

	// --- The device id survives a restart ---
	t.Run("Session Persists", func(t *testing.T) {
		first, err := sess.DeviceID(ctx)
		require.NoError(t, err)
		again, err := session.New(store.NewGormStore(testDB)).DeviceID(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	})

	// --- Staff open the kitchen ---
	t.Run("Kitchen Sees The Order", func(t *testing.T) {
		app.Navigate(view.RouteKitchen)
		assert.Equal(t, view.RouteLogin, app.Current(), "kitchen needs a login")

		require.NoError(t, login.Login(ctx, "owner", "secret"))
		assert.Equal(t, view.RouteAdmin, app.Current())

		app.Navigate(view.RouteKitchen)
		require.Equal(t, kitchen, app.Page())
		require.Eventually(t, func() bool {
			st := kitchen.State().(view.KitchenState)
			return len(st.Orders) == 1
		}, 2*time.Second, 5*time.Millisecond)
		st := kitchen.State().(view.KitchenState)
		assert.Equal(t, model.OrderPending, st.Orders[0].Status)
		require.Len(t, st.Orders[0].Items, 2)
	})

	// --- The first calls load only primes the watcher ---
	t.Run("Calls Page", func(t *testing.T) {
		app.Navigate(view.RouteCalls)
		require.Equal(t, calls, app.Page())
		require.Eventually(t, func() bool {
			return len(calls.State().(view.CallsState).Calls) == 1
		}, 2*time.Second, 5*time.Millisecond)
		assert.Empty(t, alerts.newCalls())
	})
}
