// Package cart holds the customer's unsubmitted order lines.
package cart

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"tableorder-agent/internal/model"
)

var (
	ErrUnavailable = errors.New("menu item is not available")
	ErrNotInCart   = errors.New("menu item is not in the cart")
)

// Item is one cart line. TotalPrice is always Price*Quantity rounded to a whole unit.
type Item struct {
	MenuID     string          `json:"menuId"`
	MenuName   string          `json:"menuName"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func (it *Item) reprice() {
	it.TotalPrice = it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(0)
}

// Cart is safe for concurrent use. Lines keep insertion order.
type Cart struct {
	mu    sync.Mutex
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts qty units of m into the cart, merging with an existing line.
func (c *Cart) Add(m model.MenuItem, qty int) error {
	if !m.IsAvailable {
		return ErrUnavailable
	}
	if qty <= 0 {
		qty = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(m.ID); i >= 0 {
		c.items[i].Quantity += qty
		c.items[i].reprice()
		return nil
	}
	it := Item{MenuID: m.ID, MenuName: m.Name, Price: m.Price, Quantity: qty}
	it.reprice()
	c.items = append(c.items, it)
	return nil
}

// SetQuantity sets a line's quantity. A quantity of zero or less removes the line.
func (c *Cart) SetQuantity(menuID string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(menuID)
	if i < 0 {
		return ErrNotInCart
	}
	if qty <= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
		return nil
	}
	c.items[i].Quantity = qty
	c.items[i].reprice()
	return nil
}

// Increment adds one unit to an existing line.
func (c *Cart) Increment(menuID string) error {
	return c.adjust(menuID, 1)
}

// Decrement removes one unit; the line disappears when it reaches zero.
func (c *Cart) Decrement(menuID string) error {
	return c.adjust(menuID, -1)
}

func (c *Cart) adjust(menuID string, delta int) error {
	c.mu.Lock()
	i := c.index(menuID)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotInCart
	}
	qty := c.items[i].Quantity + delta
	c.mu.Unlock()
	return c.SetQuantity(menuID, qty)
}

// Remove drops a line. Removing a missing line is a no-op.
func (c *Cart) Remove(menuID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(menuID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// Items returns a copy of the lines.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Total sums the line totals.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// OrderItems converts the lines into order lines for checkout.
func (c *Cart) OrderItems() []model.OrderItem {
	items := c.Items()
	out := make([]model.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, model.OrderItem{
			MenuID:     it.MenuID,
			MenuName:   it.MenuName,
			Price:      it.Price,
			Quantity:   it.Quantity,
			TotalPrice: it.TotalPrice,
		})
	}
	return out
}

func (c *Cart) index(menuID string) int {
	for i, it := range c.items {
		if it.MenuID == menuID {
			return i
		}
	}
	return -1
}
