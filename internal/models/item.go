package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// LowStockThreshold is the remaining quantity at or below which an item is
// reported as running low.
const LowStockThreshold = 5

// MaxQuantity is the largest count an item may hold. It matches the range of
// the Postgres INTEGER column so both stores agree.
const MaxQuantity = math.MaxInt32

// ErrQuantityOutOfRange is returned for a stock quantity below zero or one
// that would push an item past MaxQuantity.
var ErrQuantityOutOfRange = errors.New("quantity out of range")

// CheckStockQuantity validates a quantity granted by a restock, either from
// the admin API or a spreadsheet import. Zero registers an item without stock.
func CheckStockQuantity(qty int) error {
	if qty < 0 || qty > MaxQuantity {
		return fmt.Errorf("%w: %d is not within 0..%d", ErrQuantityOutOfRange, qty, MaxQuantity)
	}
	return nil
}

type Item struct {
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsLow reports whether the item is at or below the low-stock threshold.
func (it Item) IsLow() bool {
	return it.Quantity <= LowStockThreshold
}

// AvailableItem is the shape served to the request form dropdown.
type AvailableItem struct {
	Name string `json:"name"`
}

// AdminItem is an item as listed on the admin dashboard.
type AdminItem struct {
	Item
	LowStock bool `json:"lowStock"`
}

// StockRequest is the body of the admin add-or-update stock call.
type StockRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
