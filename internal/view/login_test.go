package view

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

const loginJSON = `{"success":true,"data":{"token":"opaque-token","user":{"id":"u1","username":"owner","role":"admin"},
	"stores":[{"id":"s1","code":"GN","name":"Gangnam"},{"id":"s2","code":"HD","name":"Hongdae"}]}}`

func loginEnv(t *testing.T) (*env, *stepClock) {
	t.Helper()
	e := newEnv(t)
	clock := &stepClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	e.deps.Now = clock.Now
	return e, clock
}

func TestLogin_SecondAttemptWithinCooldownRejected(t *testing.T) {
	e, clock := loginEnv(t)
	e.backend.json("POST /auth/login", http.StatusUnauthorized, `{"message":"invalid credentials"}`)
	p := NewLoginPage(e.deps)
	require.NoError(t, p.Mount(context.Background()))

	err := p.Login(context.Background(), "owner", "wrong")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", p.State().(LoginState).Error)

	clock.advance(1200 * time.Millisecond)
	err = p.Login(context.Background(), "owner", "wrong")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, p.State().(LoginState).Error, "wait 2 seconds")
	assert.Equal(t, 1, e.backend.count("POST /auth/login"), "rejected attempt never reaches the network")

	clock.advance(2 * time.Second)
	require.Error(t, p.Login(context.Background(), "owner", "wrong"))
	assert.Equal(t, 2, e.backend.count("POST /auth/login"))
}

func TestLogin_ValidationBeforeCooldown(t *testing.T) {
	e, _ := loginEnv(t)
	p := NewLoginPage(e.deps)

	err := p.Login(context.Background(), "  ", "")
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "username")
	assert.Contains(t, fe, "password")
	assert.Zero(t, e.backend.count("POST /auth/login"))

	e.backend.json("POST /auth/login", http.StatusOK, loginJSON)
	require.NoError(t, p.Login(context.Background(), "owner", "secret"), "invalid forms do not consume the cooldown")
}

func TestLogin_StoreSelectionFailureClearsBusy(t *testing.T) {
	e, _ := loginEnv(t)
	e.backend.json("POST /auth/login", http.StatusOK, `{"success":true,"data":{"token":"opaque-token",
		"user":{"id":"u1","username":"owner","role":"admin"},"stores":[{"id":"","code":"GN","name":"Gangnam"}]}}`)
	p := NewLoginPage(e.deps)

	require.Error(t, p.Login(context.Background(), "owner", "secret"))
	st := p.State().(LoginState)
	assert.False(t, st.Busy, "a failed store selection must not leave the form locked")
	assert.Equal(t, "could not select a store", st.Error)
	assert.Equal(t, "owner", st.Username)
	assert.Empty(t, e.history.Routes())
}

func TestLogin_SuccessPersistsSession(t *testing.T) {
	e, _ := loginEnv(t)
	e.backend.json("POST /auth/login", http.StatusOK, loginJSON)
	p := NewLoginPage(e.deps)

	require.NoError(t, p.Login(context.Background(), " owner ", "secret"))
	ctx := context.Background()
	ok, err := e.sess.Authenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	id, err := e.sess.StoreID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", id, "first granted store is selected")
	stores, _ := e.sess.UserStores(ctx)
	assert.Len(t, stores, 2)
	assert.Equal(t, []string{RouteAdmin}, e.history.Routes())

	require.NoError(t, p.Logout(ctx))
	ok, _ = e.sess.Authenticated(ctx)
	assert.False(t, ok)
	assert.Equal(t, RouteLogin, e.history.Current())
}
