package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(NewIPRateLimiter(rate.Limit(1), 2)))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", w.Header().Get("Retry-After"))
			assert.JSONEq(t, `{"error":"too many requests"}`, w.Body.String())
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIPRateLimiter_Sweep(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.GetLimiter("a")
	now = now.Add(10 * time.Minute)
	l.GetLimiter("b")

	assert.Equal(t, 1, l.Sweep(5*time.Minute))
	assert.Equal(t, 1, l.Len())
}

func TestCache(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	hits := 0
	r := gin.New()
	r.GET("/qr/:id", Cache(store, time.Minute, nil), func(c *gin.Context) {
		hits++
		if c.Param("id") == "missing" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Data(http.StatusOK, "image/png", []byte("png-"+c.Param("id")))
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		req.RequestURI = path
		r.ServeHTTP(w, req)
		return w
	}

	first := get("/qr/t1")
	second := get("/qr/t1")
	assert.Equal(t, 1, hits)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "image/png", second.Header().Get("Content-Type"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	get("/qr/missing")
	get("/qr/missing")
	assert.Equal(t, 3, hits, "failures are not cached")
}

func TestCache_EmptyKeyBypasses(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	hits := 0
	r := gin.New()
	r.GET("/x", Cache(store, time.Minute, func(*gin.Context) string { return "" }), func(c *gin.Context) {
		hits++
		c.String(http.StatusOK, "x")
	})
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/x", nil)
		r.ServeHTTP(w, req)
	}
	assert.Equal(t, 2, hits)
	assert.Zero(t, store.ItemCount())
}
