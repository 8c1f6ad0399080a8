package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the kitchen state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Next returns the forward transition from s, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderPending:
		return OrderPreparing, true
	case OrderPreparing:
		return OrderCompleted, true
	}
	return "", false
}

// Cancellable reports whether an order in state s may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderPending || s == OrderPreparing
}

// Active reports whether the kitchen still has work to do on the order.
func (s OrderStatus) Active() bool {
	return s == OrderPending || s == OrderPreparing
}

// OrderItem is one line of a placed order.
type OrderItem struct {
	MenuID     string          `json:"menuId"`
	MenuName   string          `json:"menuName"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Order is a table's order as reported by the backend.
type Order struct {
	ID          string          `json:"id"`
	TableID     string          `json:"tableId"`
	TableNumber string          `json:"tableNumber,omitempty"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      OrderStatus     `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OrderRequest is what the client submits at checkout.
type OrderRequest struct {
	StoreID     string          `json:"storeId"`
	TableID     string          `json:"tableId"`
	DeviceID    string          `json:"deviceId,omitempty"`
	Items       []OrderItem     `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}
