package model

import "time"

// TableStatus is the occupancy state of a table.
type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableMaintenance TableStatus = "maintenance"
)

// Valid reports whether s is a known table status.
func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableMaintenance:
		return true
	}
	return false
}

// Table is a physical table in a store.
type Table struct {
	ID                string      `json:"id"`
	StoreID           string      `json:"storeId"`
	Number            string      `json:"number"`
	Name              string      `json:"name,omitempty"`
	Status            TableStatus `json:"status"`
	Capacity          int         `json:"capacity"`
	IsActive          bool        `json:"isActive"`
	CurrentOrderCount int         `json:"currentOrderCount"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// TableInput carries the editable table fields.
type TableInput struct {
	StoreID  string      `json:"storeId"`
	Number   string      `json:"number"`
	Name     string      `json:"name,omitempty"`
	Status   TableStatus `json:"status"`
	Capacity int         `json:"capacity"`
	IsActive bool        `json:"isActive"`
}
