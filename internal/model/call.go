package model

import "time"

// CallType is the reason a table called staff.
type CallType string

const (
	CallService CallType = "service"
	CallBill    CallType = "bill"
	CallHelp    CallType = "help"
	CallCustom  CallType = "custom"
)

// Valid reports whether t is a known call type.
func (t CallType) Valid() bool {
	switch t {
	case CallService, CallBill, CallHelp, CallCustom:
		return true
	}
	return false
}

// CallStatus moves one way, pending to completed.
type CallStatus string

const (
	CallPending   CallStatus = "pending"
	CallCompleted CallStatus = "completed"
)

// Call is a staff call raised from a table.
type Call struct {
	ID          string     `json:"id"`
	TableID     string     `json:"tableId"`
	TableNumber string     `json:"tableNumber,omitempty"`
	Type        CallType   `json:"type"`
	Status      CallStatus `json:"status"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CallRequest is what the client submits when calling staff.
type CallRequest struct {
	StoreID  string   `json:"storeId"`
	TableID  string   `json:"tableId"`
	Type     CallType `json:"type"`
	Message  string   `json:"message,omitempty"`
	DeviceID string   `json:"deviceId,omitempty"`
}
