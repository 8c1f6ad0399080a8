// Package backend is the gateway to the remote ordering API. Every exported
// call returns a Result; transport, status and decode failures never escape
// as errors or panics.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrorKind classifies a failed Result.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindNetwork    ErrorKind = "network"
	KindStatus     ErrorKind = "status"
	KindDecode     ErrorKind = "decode"
	KindValidation ErrorKind = "validation"
)

// Result is the uniform outcome of every gateway call.
type Result[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Status  int       `json:"status,omitempty"`
}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func fail[T any](err error) Result[T] {
	r := Result[T]{Error: err.Error(), Kind: KindNetwork}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		r.Kind = apiErr.Kind
		r.Status = apiErr.Status
		r.Error = apiErr.Message
	}
	return r
}

// Error is the internal failure carried up to the Result boundary.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Credentials supplies the tenant-mode headers. Both values are read on every
// request so a login or store switch takes effect immediately.
type Credentials interface {
	AuthToken(ctx context.Context) (string, error)
	TenantID(ctx context.Context) (string, error)
}

// TenantHeader carries the selected store id on tenant-mode requests.
const TenantHeader = "X-Store-ID"

type mode int

const (
	// tenant requests carry the bearer token (when present) and the store header.
	tenant mode = iota
	// public requests carry neither; the store id travels as a query parameter.
	public
)

// Client talks to the REST backend.
type Client struct {
	baseURL string
	http    *http.Client
	creds   Credentials
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	HTTPProxy string
}

// NewClient creates a gateway client.
func NewClient(opts Options, creds Credentials) *Client {
	var transport http.RoundTripper = &http.Transport{}
	if opts.HTTPProxy != "" {
		proxyURL, err := url.Parse(opts.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Backend client will not use a proxy.", opts.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		creds: creds,
	}
}

type request struct {
	mode   mode
	method string
	path   string
	query  url.Values
	body   any
}

// do performs one request and decodes the payload into out. It never retries.
func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return &Error{Kind: KindDecode, Message: fmt.Sprintf("failed to marshal request payload: %v", err), Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.mode == tenant && c.creds != nil {
		if err := c.attachTenant(ctx, req); err != nil {
			return &Error{Kind: KindNetwork, Message: fmt.Sprintf("failed to read credentials: %v", err), Err: err}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("http request failed: %v", err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("failed to read response body: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Kind: KindStatus, Status: resp.StatusCode, Message: statusMessage(resp, raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	payload, err := unwrap(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &Error{Kind: KindDecode, Message: fmt.Sprintf("failed to unmarshal api response: %v", err), Err: err}
	}
	return nil
}

func (c *Client) attachTenant(ctx context.Context, req *http.Request) error {
	tok, err := c.creds.AuthToken(ctx)
	if err != nil {
		return err
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	storeID, err := c.creds.TenantID(ctx)
	if err != nil {
		return err
	}
	if storeID != "" {
		req.Header.Set(TenantHeader, storeID)
	}
	return nil
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// unwrap accepts both {success, data} envelopes and bare payloads.
func unwrap(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return nil, &Error{Kind: KindDecode, Message: "failed to unmarshal api response: malformed JSON"}
		}
		return trimmed, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, &Error{Kind: KindDecode, Message: fmt.Sprintf("failed to unmarshal api response: %v", err), Err: err}
	}
	if env.Success != nil && !*env.Success {
		msg := firstNonEmpty(env.Message, env.Error, "request was not successful")
		return nil, &Error{Kind: KindStatus, Status: http.StatusOK, Message: msg}
	}
	if env.Success != nil || len(env.Data) > 0 {
		if len(env.Data) == 0 {
			return []byte("null"), nil
		}
		return env.Data, nil
	}
	return trimmed, nil
}

// statusMessage prefers the server's message and falls back to "(status): text".
func statusMessage(resp *http.Response, raw []byte) string {
	var env envelope
	if json.Unmarshal(raw, &env) == nil {
		if msg := firstNonEmpty(env.Message, env.Error); msg != "" {
			return msg
		}
	}
	text := http.StatusText(resp.StatusCode)
	if i := strings.IndexByte(resp.Status, ' '); i > 0 {
		text = resp.Status[i+1:]
	}
	return fmt.Sprintf("(%d): %s", resp.StatusCode, text)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func storeQuery(storeID string) url.Values {
	return url.Values{"store_id": []string{storeID}}
}

func esc(s string) string {
	return url.PathEscape(s)
}
