package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tableorder-agent/internal/db"
	"tableorder-agent/internal/model"
	"tableorder-agent/internal/session"
	"tableorder-agent/internal/store"
	"tableorder-agent/internal/view"
)

func newSubscriptionDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	sqlDB, _ := gdb.DB()
	// Every pooled connection would otherwise open its own empty database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return gdb
}

func setupSubscriptionRouter(gdb *gorm.DB, sess *session.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(view.NewApp(context.Background()), Pages{}, sess, NewAlerts(0), gdb, &webpush.Options{VAPIDPublicKey: "pub"})
	r.GET("/api/subscriptions", handler.GetSubscription)
	r.PUT("/api/subscriptions", handler.PutSubscription)
	r.DELETE("/api/subscriptions", handler.DeleteSubscription)
	r.GET("/api/vapid_public_key", handler.GetVAPIDPublicKey)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestPutSubscription_InvalidRequest(t *testing.T) {
	router := setupSubscriptionRouter(nil, session.New(store.NewMemoryStore()))

	w := do(router, http.MethodPut, "/api/subscriptions", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())

	w = do(router, http.MethodPut, "/api/subscriptions", `{"endpoint":"http://push.example.com/x","p256dh":"k","auth":"a","store_id":"s1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscriptions_NeedDatabase(t *testing.T) {
	router := setupSubscriptionRouter(nil, session.New(store.NewMemoryStore()))

	w := do(router, http.MethodPut, "/api/subscriptions", `{"endpoint":"https://push.example.com/x","p256dh":"k","auth":"a","store_id":"s1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	gdb := newSubscriptionDB(t)
	sess := session.New(store.NewMemoryStore())
	router := setupSubscriptionRouter(gdb, sess)

	body := `{"endpoint":"https://push.example.com/abc","p256dh":"k1","auth":"a1"}`
	w := do(router, http.MethodPut, "/api/subscriptions", body)
	assert.Equal(t, http.StatusConflict, w.Code, "no explicit store and none selected")

	require.NoError(t, sess.SetSelectedStore(context.Background(), model.Store{ID: "s1"}))
	w = do(router, http.MethodPut, "/api/subscriptions", body)
	require.Equal(t, http.StatusCreated, w.Code)

	// Re-subscribing moves the device to another store.
	w = do(router, http.MethodPut, "/api/subscriptions", `{"endpoint":"https://push.example.com/abc","p256dh":"k2","auth":"a2","store_id":"s2"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var subs []model.PushSubscription
	require.NoError(t, gdb.Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, "s2", subs[0].StoreID)
	assert.Equal(t, "k2", subs[0].P256DH)

	w = do(router, http.MethodGet, "/api/subscriptions?endpoint=https://push.example.com/abc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"store_id":"s2"}`, w.Body.String())

	w = do(router, http.MethodDelete, "/api/subscriptions", `{"endpoint":"https://push.example.com/abc"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(router, http.MethodGet, "/api/subscriptions?endpoint=https://push.example.com/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(router, http.MethodGet, "/api/subscriptions", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	sess := session.New(store.NewMemoryStore())

	w := do(setupSubscriptionRouter(nil, sess), http.MethodGet, "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no database means nowhere to keep subscriptions")

	w = do(setupSubscriptionRouter(newSubscriptionDB(t), sess), http.MethodGet, "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"pub"}`, w.Body.String())
}
