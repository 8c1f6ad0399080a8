package view

import (
	"github.com/shopspring/decimal"

	"tableorder-agent/internal/model"
)

// Sample menu shown when the backend cannot be reached, so the customer screen
// stays usable. Ordering is disabled while it is displayed.
func sampleCategories() []model.MenuCategory {
	return []model.MenuCategory{
		{ID: "sample-main", Name: "Main", SortOrder: 1, IsActive: true},
		{ID: "sample-side", Name: "Side", SortOrder: 2, IsActive: true},
		{ID: "sample-drink", Name: "Drinks", SortOrder: 3, IsActive: true},
	}
}

func sampleMenus() []model.MenuItem {
	item := func(id, cat, name string, price int64, order int) model.MenuItem {
		return model.MenuItem{
			ID:          id,
			CategoryID:  cat,
			Name:        name,
			Price:       decimal.NewFromInt(price),
			IsAvailable: true,
			SortOrder:   order,
		}
	}
	return []model.MenuItem{
		item("sample-1", "sample-main", "Bibimbap", 9000, 1),
		item("sample-2", "sample-main", "Bulgogi", 13000, 2),
		item("sample-3", "sample-main", "Kimchi Jjigae", 8500, 3),
		item("sample-4", "sample-side", "Japchae", 7000, 1),
		item("sample-5", "sample-side", "Pajeon", 12000, 2),
		item("sample-6", "sample-drink", "Sikhye", 3000, 1),
		item("sample-7", "sample-drink", "Cola", 2000, 2),
	}
}
