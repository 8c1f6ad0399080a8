package realtime

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Event is a server push. The payload is an untrusted refresh trigger.
type Event struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// eventFromArgs builds an Event from the arguments of a catch-all listener:
// the event name followed by its decoded payload. Ack callbacks and payloads
// that cannot be re-encoded are left out.
func eventFromArgs(args []any) (Event, bool) {
	if len(args) == 0 {
		return Event{}, false
	}
	name, ok := args[0].(string)
	if !ok || name == "" {
		return Event{}, false
	}
	ev := Event{Name: name}
	if len(args) > 1 && args[1] != nil {
		if b, err := json.Marshal(args[1]); err == nil {
			ev.Payload = b
		}
	}
	return ev, true
}

// target splits a backend base URL into the origin the client dials and the
// Socket.IO path under it.
func target(raw string) (origin, path string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid realtime url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "http"
	case "https", "wss":
		u.Scheme = "https"
	default:
		return "", "", fmt.Errorf("unsupported realtime url scheme %q", u.Scheme)
	}
	path = strings.TrimRight(u.Path, "/") + "/socket.io"
	u.Path, u.RawQuery, u.Fragment = "", "", ""
	return u.String(), path, nil
}
