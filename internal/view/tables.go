package view

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/skip2/go-qrcode"

	"tableorder-agent/internal/model"
	"tableorder-agent/internal/parse"
	"tableorder-agent/internal/realtime"
)

// Table capacity bounds accepted by the form.
const (
	MinCapacity = 1
	MaxCapacity = 20
)

// DefaultQRSize is the QR image edge in pixels.
const DefaultQRSize = 256

// TableForm is the admin table editor.
type TableForm struct {
	Number   string            `json:"number"`
	Name     string            `json:"name"`
	Capacity int               `json:"capacity"`
	Status   model.TableStatus `json:"status"`
	IsActive bool              `json:"isActive"`
}

func (f TableForm) input(storeID, selfID string, existing []model.Table) (model.TableInput, error) {
	fe := FieldErrors{}
	in := model.TableInput{
		StoreID:  storeID,
		Name:     strings.TrimSpace(f.Name),
		Capacity: f.Capacity,
		Status:   f.Status,
		IsActive: f.IsActive,
	}
	number, err := parse.TableNumber(f.Number)
	if err != nil {
		fe["number"] = "1-10 letters, digits or dashes"
	} else {
		in.Number = number
		for _, t := range existing {
			if t.ID != selfID && parse.SameTable(t.Number, number) {
				fe["number"] = "already in use"
				break
			}
		}
	}
	if f.Capacity < MinCapacity || f.Capacity > MaxCapacity {
		fe["capacity"] = fmt.Sprintf("must be between %d and %d", MinCapacity, MaxCapacity)
	}
	if in.Status == "" {
		in.Status = model.TableAvailable
	} else if !in.Status.Valid() {
		fe["status"] = "unknown status"
	}
	return in, fe.orNil()
}

// TablesState is the admin table screen.
type TablesState struct {
	Tables    []model.Table `json:"tables"`
	Banner    string        `json:"banner,omitempty"`
	Loaded    bool          `json:"loaded"`
	Connected bool          `json:"connected"`
}

// TablesPage manages tables and renders their QR codes.
type TablesPage struct {
	d       Deps
	scope   scope
	storeID string
	tables  *collection[[]model.Table]
}

// NewTablesPage creates an unmounted table admin page.
func NewTablesPage(d Deps) *TablesPage {
	return &TablesPage{d: d}
}

func (p *TablesPage) Route() string { return RouteTables }

func (p *TablesPage) Mount(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			p.scope.release()
		}
	}()
	if p.storeID, err = requireAdmin(ctx, p.d, true); err != nil {
		return err
	}
	storeID := p.storeID
	p.tables = newCollection("tables", p.d.Intervals.Tables, func(ctx context.Context) ([]model.Table, error) {
		tables, err := resultErr(p.d.Backend.ListTables(ctx, storeID))
		if err != nil {
			return nil, err
		}
		sort.SliceStable(tables, func(i, j int) bool { return tables[i].Number < tables[j].Number })
		return tables, nil
	})
	staffChannel(&p.scope, p.d.Realtime, p.tables.ref.Trigger, realtime.EventTableUpdated, realtime.EventOrderUpdated)
	p.tables.start(ctx, &p.scope)
	return nil
}

func (p *TablesPage) Unmount() { p.scope.release() }

// Retry reloads after a failure banner.
func (p *TablesPage) Retry(ctx context.Context) error { return p.tables.reload(ctx) }

func (p *TablesPage) table(id string) (model.Table, bool) {
	tables, _, _ := p.tables.value()
	for _, t := range tables {
		if t.ID == id {
			return t, true
		}
	}
	return model.Table{}, false
}

// CreateTable validates and creates a table.
func (p *TablesPage) CreateTable(ctx context.Context, f TableForm) (model.Table, error) {
	tables, _, _ := p.tables.value()
	in, err := f.input(p.storeID, "", tables)
	if err != nil {
		return model.Table{}, err
	}
	res := p.d.Backend.CreateTable(ctx, in)
	if !res.Success {
		return model.Table{}, failed(p.d, "Creating the table failed", res)
	}
	return res.Data, p.tables.reload(ctx)
}

// UpdateTable validates and updates a table.
func (p *TablesPage) UpdateTable(ctx context.Context, id string, f TableForm) error {
	if _, ok := p.table(id); !ok {
		return ErrNotFound
	}
	tables, _, _ := p.tables.value()
	in, err := f.input(p.storeID, id, tables)
	if err != nil {
		return err
	}
	if res := p.d.Backend.UpdateTable(ctx, id, in); !res.Success {
		return failed(p.d, "Updating the table failed", res)
	}
	return p.tables.reload(ctx)
}

// DeleteTable removes a table.
func (p *TablesPage) DeleteTable(ctx context.Context, id string) error {
	if res := p.d.Backend.DeleteTable(ctx, id); !res.Success {
		return failed(p.d, "Deleting the table failed", res)
	}
	return p.tables.reload(ctx)
}

// TableURL is the customer entry link encoded in a table's QR code.
func TableURL(publicURL, storeID, number string) string {
	q := url.Values{"store": {storeID}, "table": {number}}
	return strings.TrimRight(publicURL, "/") + RouteMenu + "?" + q.Encode()
}

// QRCode renders the PNG QR code for one table.
func (p *TablesPage) QRCode(id string, size int) ([]byte, error) {
	t, ok := p.table(id)
	if !ok {
		return nil, ErrNotFound
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(TableURL(p.d.PublicURL, p.storeID, t.Number), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return png, nil
}

func (p *TablesPage) State() any {
	if p.tables == nil {
		return TablesState{}
	}
	tables, banner, loaded := p.tables.value()
	return TablesState{Tables: tables, Banner: banner, Loaded: loaded, Connected: connected(p.d.Realtime)}
}
