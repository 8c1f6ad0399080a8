package view

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultLoginCooldown is the window in which only one login attempt is sent.
const DefaultLoginCooldown = 3 * time.Second

// LoginState is the login form.
type LoginState struct {
	Username string      `json:"username"`
	Error    string      `json:"error,omitempty"`
	Fields   FieldErrors `json:"fields,omitempty"`
	Busy     bool        `json:"busy"`
}

// LoginPage authenticates an admin. Attempts are throttled client side before
// anything is sent.
type LoginPage struct {
	d        Deps
	cooldown time.Duration

	mu       sync.Mutex
	limiter  *rate.Limiter
	last     time.Time
	username string
	err      string
	fields   FieldErrors
	busy     bool
}

// NewLoginPage creates the login page.
func NewLoginPage(d Deps) *LoginPage {
	cooldown := d.LoginCooldown
	if cooldown <= 0 {
		cooldown = DefaultLoginCooldown
	}
	return &LoginPage{
		d:        d,
		cooldown: cooldown,
		limiter:  rate.NewLimiter(rate.Every(cooldown), 1),
	}
}

func (p *LoginPage) Route() string { return RouteLogin }

func (p *LoginPage) Mount(ctx context.Context) error {
	p.mu.Lock()
	p.err = ""
	p.fields = nil
	p.busy = false
	p.mu.Unlock()
	return nil
}

func (p *LoginPage) Unmount() {}

// Login validates the form, applies the cooldown and then calls the backend.
// On success the session is stored, the first granted store is selected and
// the dashboard opens.
func (p *LoginPage) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	fields := FieldErrors{}
	if username == "" {
		fields["username"] = "required"
	}
	if password == "" {
		fields["password"] = "required"
	}
	if err := fields.orNil(); err != nil {
		p.setResult(username, "", fields)
		return err
	}

	now := p.d.now()
	p.mu.Lock()
	if !p.limiter.AllowN(now, 1) {
		wait := p.cooldown - now.Sub(p.last)
		p.mu.Unlock()
		secs := int(math.Ceil(wait.Seconds()))
		if secs < 1 {
			secs = 1
		}
		msg := fmt.Sprintf("Please wait %d seconds before trying again.", secs)
		p.setResult(username, msg, nil)
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	}
	p.last = now
	p.busy = true
	p.mu.Unlock()

	res := p.d.Backend.Login(ctx, username, password)
	if !res.Success {
		p.setResult(username, res.Error, nil)
		return fmt.Errorf("login failed: %s", res.Error)
	}

	if err := p.d.Session.SetAuth(ctx, res.Data); err != nil {
		p.setResult(username, "could not save the session", nil)
		return fmt.Errorf("failed to persist login: %w", err)
	}
	if len(res.Data.Stores) > 0 {
		if err := p.d.Session.SetSelectedStore(ctx, res.Data.Stores[0]); err != nil {
			p.setResult(username, "could not select a store", nil)
			return fmt.Errorf("failed to select store: %w", err)
		}
	}
	p.setResult(username, "", nil)
	p.d.Nav.Navigate(RouteAdmin)
	return nil
}

// Logout clears the credentials and returns to the login page.
func (p *LoginPage) Logout(ctx context.Context) error {
	if err := p.d.Session.Logout(ctx); err != nil {
		return err
	}
	p.d.Nav.Navigate(RouteLogin)
	return nil
}

func (p *LoginPage) setResult(username, msg string, fields FieldErrors) {
	p.mu.Lock()
	p.username = username
	p.err = msg
	p.fields = fields
	p.busy = false
	p.mu.Unlock()
}

func (p *LoginPage) State() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return LoginState{Username: p.username, Error: p.err, Fields: p.fields, Busy: p.busy}
}
