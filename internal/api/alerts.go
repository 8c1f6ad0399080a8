package api

import (
	"log"
	"sync"
	"time"
)

// Alert is one blocking message raised by a page.
type Alert struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Alerts buffers page alerts until the display collects them.
type Alerts struct {
	mu    sync.Mutex
	limit int
	items []Alert
}

// NewAlerts keeps at most limit pending alerts, dropping the oldest.
func NewAlerts(limit int) *Alerts {
	if limit <= 0 {
		limit = 32
	}
	return &Alerts{limit: limit}
}

// Alert implements view.Notifier.
func (a *Alerts) Alert(message string) {
	log.Printf("alert: %s", message)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, Alert{Message: message, At: time.Now().UTC()})
	if over := len(a.items) - a.limit; over > 0 {
		a.items = append([]Alert(nil), a.items[over:]...)
	}
}

// Drain returns and clears the pending alerts.
func (a *Alerts) Drain() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.items
	a.items = nil
	if out == nil {
		out = []Alert{}
	}
	return out
}
