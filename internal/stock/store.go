package stock

import (
	"context"

	"github.com/vichambarde/serverroom/internal/models"
)

// Catalog holds named items and their available quantity.
type Catalog interface {
	// FindByName returns ErrItemNotFound when no item carries the name.
	FindByName(ctx context.Context, name string) (models.Item, error)
	// Save upserts the item, overwriting the quantity of an existing name.
	Save(ctx context.Context, item models.Item) (models.Item, error)
	// AddStock creates the item on first grant and increments it otherwise.
	AddStock(ctx context.Context, name string, qty int) (item models.Item, created bool, err error)
	ListAvailable(ctx context.Context) ([]models.Item, error)
	List(ctx context.Context) ([]models.Item, error)
}

// Ledger is the append-only record of issued items. There is deliberately no
// update or delete.
type Ledger interface {
	Create(ctx context.Context, e models.Entry) (models.Entry, error)
	// List returns matching entries, newest first.
	List(ctx context.Context, f models.EntryFilter) ([]models.Entry, error)
}

// Store is a catalog and ledger sharing one backing database.
type Store interface {
	Catalog() Catalog
	Ledger() Ledger

	// Reserve decrements e.ItemTaken by e.Quantity only if enough units remain
	// and records e in the ledger, as a single atomic unit. It returns the
	// stored entry and the quantity left, or ErrInsufficientStock with no
	// change at all.
	Reserve(ctx context.Context, e models.Entry) (models.Entry, int, error)

	Ping(ctx context.Context) error
	Close()
}
