package backend

import (
	"bytes"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"tableorder-agent/internal/model"
)

// Wire types mirror the backend's snake_case payloads. Fields the client does
// not know about are dropped by the decoder.

// money accepts bare and quoted numbers ("4500.00" from numeric columns) and
// is sent back as a bare number.
type money struct {
	decimal.Decimal
}

func dec(d decimal.Decimal) money { return money{d} }

func (m money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

func (m *money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" || string(b) == `""` {
		m.Decimal = decimal.Zero
		return nil
	}
	return m.Decimal.UnmarshalJSON(b)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// wireTime never fails a payload: values in no known layout decode as zero.
// Zone-less values are read as UTC; bare numbers are epoch milliseconds.
type wireTime struct {
	time.Time
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	raw := string(bytes.TrimSpace(b))
	if raw == "" || raw == "null" {
		return nil
	}
	if s, err := strconv.Unquote(raw); err == nil {
		raw = s
	} else if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, raw); err == nil {
			t.Time = v
			return nil
		}
	}
	return nil
}

func timePtr(t *wireTime) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

type wireStore struct {
	ID        string   `json:"id,omitempty"`
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Timezone  string   `json:"timezone"`
	IsActive  bool     `json:"is_active"`
	CreatedAt wireTime `json:"created_at"`
	UpdatedAt wireTime `json:"updated_at"`
}

type wireStoreInput struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Timezone string `json:"timezone"`
	IsActive bool   `json:"is_active"`
}

func storeFromWire(w wireStore) model.Store {
	return model.Store{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		Phone:     w.Phone,
		Timezone:  w.Timezone,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt.Time,
		UpdatedAt: w.UpdatedAt.Time,
	}
}

func storeToWire(in model.StoreInput) wireStoreInput {
	return wireStoreInput{
		Code:     in.Code,
		Name:     in.Name,
		Address:  in.Address,
		Phone:    in.Phone,
		Timezone: in.Timezone,
		IsActive: in.IsActive,
	}
}

type wireTable struct {
	ID                string   `json:"id"`
	StoreID           string   `json:"store_id"`
	TableNumber       string   `json:"table_number"`
	Name              string   `json:"name,omitempty"`
	Status            string   `json:"status"`
	Capacity          int      `json:"capacity"`
	IsActive          bool     `json:"is_active"`
	CurrentOrderCount int      `json:"current_order_count"`
	CreatedAt         wireTime `json:"created_at"`
	UpdatedAt         wireTime `json:"updated_at"`
}

type wireTableInput struct {
	StoreID     string `json:"store_id,omitempty"`
	TableNumber string `json:"table_number"`
	Name        string `json:"name,omitempty"`
	Status      string `json:"status,omitempty"`
	Capacity    int    `json:"capacity"`
	IsActive    bool   `json:"is_active"`
}

func tableFromWire(w wireTable) model.Table {
	return model.Table{
		ID:                w.ID,
		StoreID:           w.StoreID,
		Number:            w.TableNumber,
		Name:              w.Name,
		Status:            model.TableStatus(w.Status),
		Capacity:          w.Capacity,
		IsActive:          w.IsActive,
		CurrentOrderCount: w.CurrentOrderCount,
		CreatedAt:         w.CreatedAt.Time,
		UpdatedAt:         w.UpdatedAt.Time,
	}
}

func tableToWire(in model.TableInput) wireTableInput {
	return wireTableInput{
		StoreID:     in.StoreID,
		TableNumber: in.Number,
		Name:        in.Name,
		Status:      string(in.Status),
		Capacity:    in.Capacity,
		IsActive:    in.IsActive,
	}
}

type wireCategory struct {
	ID          string `json:"id,omitempty"`
	StoreID     string `json:"store_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

func categoryFromWire(w wireCategory) model.MenuCategory {
	return model.MenuCategory{
		ID:          w.ID,
		StoreID:     w.StoreID,
		Name:        w.Name,
		Description: w.Description,
		SortOrder:   w.SortOrder,
		IsActive:    w.IsActive,
	}
}

func categoryToWire(in model.CategoryInput) wireCategory {
	return wireCategory{
		StoreID:     in.StoreID,
		Name:        in.Name,
		Description: in.Description,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive,
	}
}

type wireMenu struct {
	ID          string   `json:"id,omitempty"`
	StoreID     string   `json:"store_id"`
	CategoryID  string   `json:"category_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       money    `json:"price"`
	ImageURL    string   `json:"image_url,omitempty"`
	IsAvailable bool     `json:"is_available"`
	SortOrder   int      `json:"sort_order"`
	CreatedAt   wireTime `json:"created_at"`
	UpdatedAt   wireTime `json:"updated_at"`
}

type wireMenuInput struct {
	StoreID     string `json:"store_id"`
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       money  `json:"price"`
	ImageURL    string `json:"image_url,omitempty"`
	IsAvailable bool   `json:"is_available"`
	SortOrder   int    `json:"sort_order"`
}

func menuFromWire(w wireMenu) model.MenuItem {
	return model.MenuItem{
		ID:          w.ID,
		StoreID:     w.StoreID,
		CategoryID:  w.CategoryID,
		Name:        w.Name,
		Description: w.Description,
		Price:       w.Price.Decimal,
		Image:       w.ImageURL,
		IsAvailable: w.IsAvailable,
		SortOrder:   w.SortOrder,
		CreatedAt:   w.CreatedAt.Time,
		UpdatedAt:   w.UpdatedAt.Time,
	}
}

func menuToWire(in model.MenuItemInput) wireMenuInput {
	return wireMenuInput{
		StoreID:     in.StoreID,
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		Price:       dec(in.Price),
		ImageURL:    in.Image,
		IsAvailable: in.IsAvailable,
		SortOrder:   in.SortOrder,
	}
}

type wireOrderItem struct {
	MenuID     string `json:"menu_id"`
	MenuName   string `json:"menu_name"`
	Price      money  `json:"price"`
	Quantity   int    `json:"quantity"`
	TotalPrice money  `json:"total_price"`
}

type wireOrder struct {
	ID          string          `json:"id"`
	TableID     string          `json:"table_id"`
	TableNumber string          `json:"table_number,omitempty"`
	Items       []wireOrderItem `json:"items"`
	TotalAmount money           `json:"total_amount"`
	Status      string          `json:"status"`
	CreatedAt   wireTime        `json:"created_at"`
	UpdatedAt   wireTime        `json:"updated_at"`
}

type wireOrderRequest struct {
	StoreID     string          `json:"store_id,omitempty"`
	TableID     string          `json:"table_id"`
	DeviceID    string          `json:"device_id,omitempty"`
	Items       []wireOrderItem `json:"items"`
	TotalAmount money           `json:"total_amount"`
}

func orderItemFromWire(w wireOrderItem) model.OrderItem {
	return model.OrderItem{
		MenuID:     w.MenuID,
		MenuName:   w.MenuName,
		Price:      w.Price.Decimal,
		Quantity:   w.Quantity,
		TotalPrice: w.TotalPrice.Decimal,
	}
}

func orderItemToWire(in model.OrderItem) wireOrderItem {
	return wireOrderItem{
		MenuID:     in.MenuID,
		MenuName:   in.MenuName,
		Price:      dec(in.Price),
		Quantity:   in.Quantity,
		TotalPrice: dec(in.TotalPrice),
	}
}

func orderFromWire(w wireOrder) model.Order {
	items := make([]model.OrderItem, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, orderItemFromWire(it))
	}
	return model.Order{
		ID:          w.ID,
		TableID:     w.TableID,
		TableNumber: w.TableNumber,
		Items:       items,
		TotalAmount: w.TotalAmount.Decimal,
		Status:      model.OrderStatus(w.Status),
		CreatedAt:   w.CreatedAt.Time,
		UpdatedAt:   w.UpdatedAt.Time,
	}
}

func orderToWire(in model.OrderRequest) wireOrderRequest {
	items := make([]wireOrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, orderItemToWire(it))
	}
	return wireOrderRequest{
		StoreID:     in.StoreID,
		TableID:     in.TableID,
		DeviceID:    in.DeviceID,
		Items:       items,
		TotalAmount: dec(in.TotalAmount),
	}
}

type wireCall struct {
	ID          string    `json:"id"`
	TableID     string    `json:"table_id"`
	TableNumber string    `json:"table_number,omitempty"`
	CallType    string    `json:"call_type"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   wireTime  `json:"created_at"`
	CompletedAt *wireTime `json:"completed_at,omitempty"`
}

type wireCallRequest struct {
	StoreID  string `json:"store_id,omitempty"`
	TableID  string `json:"table_id"`
	CallType string `json:"call_type"`
	Message  string `json:"message,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
}

func callFromWire(w wireCall) model.Call {
	return model.Call{
		ID:          w.ID,
		TableID:     w.TableID,
		TableNumber: w.TableNumber,
		Type:        model.CallType(w.CallType),
		Status:      model.CallStatus(w.Status),
		Message:     w.Message,
		CreatedAt:   w.CreatedAt.Time,
		CompletedAt: timePtr(w.CompletedAt),
	}
}

func callToWire(in model.CallRequest) wireCallRequest {
	return wireCallRequest{
		StoreID:  in.StoreID,
		TableID:  in.TableID,
		CallType: string(in.Type),
		Message:  in.Message,
		DeviceID: in.DeviceID,
	}
}

type wireUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type wireLogin struct {
	Token  string      `json:"token"`
	User   wireUser    `json:"user"`
	Stores []wireStore `json:"stores"`
}

func loginFromWire(w wireLogin) model.LoginResult {
	stores := make([]model.Store, 0, len(w.Stores))
	for _, s := range w.Stores {
		stores = append(stores, storeFromWire(s))
	}
	return model.LoginResult{
		Token:  w.Token,
		User:   model.User{ID: w.User.ID, Username: w.User.Username, Role: w.User.Role},
		Stores: stores,
	}
}

func mapAll[W, M any](ws []W, f func(W) M) []M {
	out := make([]M, 0, len(ws))
	for _, w := range ws {
		out = append(out, f(w))
	}
	return out
}
