package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuCategory groups menu items for display.
type MenuCategory struct {
	ID          string `json:"id"`
	StoreID     string `json:"storeId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    bool   `json:"isActive"`
}

// MenuItem is an orderable dish. Unavailable items stay listed but cannot be ordered.
type MenuItem struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"storeId"`
	CategoryID  string          `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	IsAvailable bool            `json:"isAvailable"`
	SortOrder   int             `json:"sortOrder"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// MenuItemInput carries the fields the client can send for a menu item.
type MenuItemInput struct {
	StoreID     string          `json:"storeId"`
	CategoryID  string          `json:"categoryId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	IsAvailable bool            `json:"isAvailable"`
	SortOrder   int             `json:"sortOrder"`
}

// Input returns the sendable subset of the item.
func (m MenuItem) Input() MenuItemInput {
	return MenuItemInput{
		StoreID:     m.StoreID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Image:       m.Image,
		IsAvailable: m.IsAvailable,
		SortOrder:   m.SortOrder,
	}
}

// CategoryInput carries the editable category fields.
type CategoryInput struct {
	StoreID     string `json:"storeId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    bool   `json:"isActive"`
}
