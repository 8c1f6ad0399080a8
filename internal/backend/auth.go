package backend

import (
	"context"
	"net/http"
	"strings"

	"tableorder-agent/internal/model"
)

// Login exchanges credentials for a token. It is a public request.
func (c *Client) Login(ctx context.Context, username, password string) Result[model.LoginResult] {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fail[model.LoginResult](invalid("username and password are required"))
	}
	var w wireLogin
	err := c.do(ctx, request{
		mode:   public,
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"username": username, "password": password},
	}, &w)
	if err != nil {
		return fail[model.LoginResult](err)
	}
	if w.Token == "" {
		return fail[model.LoginResult](&Error{Kind: KindDecode, Message: "login response carried no token"})
	}
	return ok(loginFromWire(w))
}
