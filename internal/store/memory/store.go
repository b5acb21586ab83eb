// Package memory keeps the catalog and ledger in process memory. It backs the
// development server and the handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vichambarde/serverroom/internal/models"
	"github.com/vichambarde/serverroom/internal/stock"
)

// Store holds the in-memory data.
type Store struct {
	mu      sync.RWMutex
	items   map[string]models.Item
	entries []models.Entry
	now     func() time.Time
}

// New initializes an empty Store.
func New() *Store {
	return &Store{
		items: make(map[string]models.Item),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

var _ stock.Store = (*Store)(nil)

func (s *Store) Catalog() stock.Catalog { return catalog{s} }
func (s *Store) Ledger() stock.Ledger   { return ledger{s} }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

// Reserve checks and deducts under the write lock, so concurrent requests can
// never drive an item below zero.
func (s *Store) Reserve(ctx context.Context, e models.Entry) (models.Entry, int, error) {
	if err := ctx.Err(); err != nil {
		return models.Entry{}, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[e.ItemTaken]
	if !ok || it.Quantity < e.Quantity {
		return models.Entry{}, 0, stock.ErrInsufficientStock
	}
	it.Quantity -= e.Quantity
	it.UpdatedAt = s.now()
	s.items[it.Name] = it
	s.entries = append(s.entries, e)
	return e, it.Quantity, nil
}

// EntryCount returns the ledger size.
func (s *Store) EntryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

type catalog struct{ s *Store }

func (c catalog) FindByName(ctx context.Context, name string) (models.Item, error) {
	if err := ctx.Err(); err != nil {
		return models.Item{}, err
	}
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	it, ok := c.s.items[name]
	if !ok {
		return models.Item{}, stock.ErrItemNotFound
	}
	return it, nil
}

func (c catalog) Save(ctx context.Context, item models.Item) (models.Item, error) {
	if err := ctx.Err(); err != nil {
		return models.Item{}, err
	}
	if err := models.CheckStockQuantity(item.Quantity); err != nil {
		return models.Item{}, fmt.Errorf("item %q: %w", item.Name, err)
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	now := c.s.now()
	if prev, ok := c.s.items[item.Name]; ok {
		item.CreatedAt = prev.CreatedAt
	} else {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	c.s.items[item.Name] = item
	return item, nil
}

func (c catalog) AddStock(ctx context.Context, name string, qty int) (models.Item, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Item{}, false, err
	}
	if err := models.CheckStockQuantity(qty); err != nil {
		return models.Item{}, false, fmt.Errorf("item %q: %w", name, err)
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	now := c.s.now()
	it, ok := c.s.items[name]
	if ok {
		if qty > models.MaxQuantity-it.Quantity {
			return models.Item{}, false, fmt.Errorf("item %q holds %d, cannot add %d: %w",
				name, it.Quantity, qty, models.ErrQuantityOutOfRange)
		}
		it.Quantity += qty
	} else {
		it = models.Item{Name: name, Quantity: qty, CreatedAt: now}
	}
	it.UpdatedAt = now
	c.s.items[name] = it
	return it, !ok, nil
}

func (c catalog) ListAvailable(ctx context.Context) ([]models.Item, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, it := range all {
		if it.Quantity > 0 {
			out = append(out, it)
		}
	}
	return out, nil
}

func (c catalog) List(ctx context.Context) ([]models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.s.mu.RLock()
	out := make([]models.Item, 0, len(c.s.items))
	for _, it := range c.s.items {
		out = append(out, it)
	}
	c.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type ledger struct{ s *Store }

func (l ledger) Create(ctx context.Context, e models.Entry) (models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return models.Entry{}, err
	}
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.entries = append(l.s.entries, e)
	return e, nil
}

func (l ledger) List(ctx context.Context, f models.EntryFilter) ([]models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.s.mu.RLock()
	matched := make([]models.Entry, 0, len(l.s.entries))
	for _, e := range l.s.entries {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}
	l.s.mu.RUnlock()

	// Stable keeps insertion order for entries sharing a timestamp.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []models.Entry{}, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}
