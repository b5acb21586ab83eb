// Package postgres stores the catalog and ledger in PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vichambarde/serverroom/internal/models"
	"github.com/vichambarde/serverroom/internal/stock"
)

const defaultTimeout = 5 * time.Second

// numericOutOfRange is the SQLSTATE raised when an INTEGER column overflows.
const numericOutOfRange = "22003"

func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange
}

type Store struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

var _ stock.Store = (*Store)(nil)

// Open connects a pool to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string, timeout time.Duration) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	s := New(pool, timeout)
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Println("[Store] Connected to PostgreSQL")
	return s, nil
}

// New wraps an existing pool. Every call is bounded by timeout.
func New(pool *pgxpool.Pool, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{pool: pool, timeout: timeout}
}

func (s *Store) Catalog() stock.Catalog { return catalog{s} }
func (s *Store) Ledger() stock.Ledger   { return ledger{s} }

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

// Reserve runs the conditional decrement and the ledger insert in a single
// transaction. The WHERE clause makes the stock check and the deduction one
// statement, so concurrent reservations serialize on the item row.
func (s *Store) Reserve(ctx context.Context, e models.Entry) (models.Entry, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Entry{}, 0, fmt.Errorf("begin reserve: %w", err)
	}
	defer tx.Rollback(ctx)

	var remaining int
	err = tx.QueryRow(ctx, `
		UPDATE items
		SET quantity = quantity - $2, updated_at = now()
		WHERE name = $1 AND quantity >= $2
		RETURNING quantity`, e.ItemTaken, e.Quantity).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Entry{}, 0, stock.ErrInsufficientStock
	}
	if err != nil {
		return models.Entry{}, 0, fmt.Errorf("deduct stock: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO entries (id, full_name, department, mobile_number, item_taken, quantity, purpose, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING issued_at`,
		e.ID, e.FullName, e.Department, e.MobileNumber, e.ItemTaken, e.Quantity, e.Purpose, e.Timestamp,
	).Scan(&e.Timestamp)
	if err != nil {
		return models.Entry{}, 0, fmt.Errorf("insert entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Entry{}, 0, fmt.Errorf("commit reserve: %w", err)
	}
	e.Timestamp = e.Timestamp.UTC()
	return e, remaining, nil
}

type catalog struct{ s *Store }

const itemColumns = `name, quantity, created_at, updated_at`

func scanItem(row pgx.Row) (models.Item, error) {
	var it models.Item
	err := row.Scan(&it.Name, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (c catalog) FindByName(ctx context.Context, name string) (models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.s.timeout)
	defer cancel()

	it, err := scanItem(c.s.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Item{}, stock.ErrItemNotFound
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("find item %q: %w", name, err)
	}
	return it, nil
}

func (c catalog) Save(ctx context.Context, item models.Item) (models.Item, error) {
	if err := models.CheckStockQuantity(item.Quantity); err != nil {
		return models.Item{}, fmt.Errorf("save item %q: %w", item.Name, err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.s.timeout)
	defer cancel()

	it, err := scanItem(c.s.pool.QueryRow(ctx, `
		INSERT INTO items (name, quantity) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()
		RETURNING `+itemColumns, item.Name, item.Quantity))
	if err != nil {
		return models.Item{}, fmt.Errorf("save item %q: %w", item.Name, err)
	}
	return it, nil
}

func (c catalog) AddStock(ctx context.Context, name string, qty int) (models.Item, bool, error) {
	if err := models.CheckStockQuantity(qty); err != nil {
		return models.Item{}, false, fmt.Errorf("add stock to %q: %w", name, err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.s.timeout)
	defer cancel()

	var (
		it      models.Item
		created bool
	)
	// xmax is zero only for a freshly inserted row.
	err := c.s.pool.QueryRow(ctx, `
		INSERT INTO items (name, quantity) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET quantity = items.quantity + EXCLUDED.quantity, updated_at = now()
		RETURNING `+itemColumns+`, (xmax = 0)`, name, qty).
		Scan(&it.Name, &it.Quantity, &it.CreatedAt, &it.UpdatedAt, &created)
	if isOutOfRange(err) {
		return models.Item{}, false, fmt.Errorf("add stock to %q: %w", name, models.ErrQuantityOutOfRange)
	}
	if err != nil {
		return models.Item{}, false, fmt.Errorf("add stock to %q: %w", name, err)
	}
	return it, created, nil
}

func (c catalog) ListAvailable(ctx context.Context) ([]models.Item, error) {
	return c.query(ctx, `SELECT `+itemColumns+` FROM items WHERE quantity > 0 ORDER BY name`)
}

func (c catalog) List(ctx context.Context) ([]models.Item, error) {
	return c.query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY name`)
}

func (c catalog) query(ctx context.Context, sql string) ([]models.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, c.s.timeout)
	defer cancel()

	rows, err := c.s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type ledger struct{ s *Store }

const entryColumns = `id, full_name, department, mobile_number, item_taken, quantity, purpose, issued_at`

func (l ledger) Create(ctx context.Context, e models.Entry) (models.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, l.s.timeout)
	defer cancel()

	err := l.s.pool.QueryRow(ctx, `
		INSERT INTO entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING issued_at`,
		e.ID, e.FullName, e.Department, e.MobileNumber, e.ItemTaken, e.Quantity, e.Purpose, e.Timestamp,
	).Scan(&e.Timestamp)
	if err != nil {
		return models.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	e.Timestamp = e.Timestamp.UTC()
	return e, nil
}

func (l ledger) List(ctx context.Context, f models.EntryFilter) ([]models.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, l.s.timeout)
	defer cancel()

	clauses := []string{}
	args := []any{}
	arg := 1

	if f.Department != "" {
		clauses = append(clauses, fmt.Sprintf("department = $%d", arg))
		args = append(args, f.Department)
		arg++
	}
	if f.Item != "" {
		clauses = append(clauses, fmt.Sprintf("item_taken = $%d", arg))
		args = append(args, f.Item)
		arg++
	}
	if f.HasRange() {
		clauses = append(clauses, fmt.Sprintf("issued_at BETWEEN $%d AND $%d", arg, arg+1))
		args = append(args, *f.From, *f.To)
		arg += 2
	}

	sqlStr := `SELECT id::text, full_name, department, mobile_number, item_taken, quantity, purpose, issued_at FROM entries`
	if len(clauses) > 0 {
		sqlStr += " WHERE " + strings.Join(clauses, " AND ")
	}
	sqlStr += " ORDER BY issued_at DESC, id"
	if f.Limit > 0 {
		sqlStr += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	if f.Offset > 0 {
		sqlStr += fmt.Sprintf(" OFFSET %d", f.Offset)
	}

	rows, err := l.s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.FullName, &e.Department, &e.MobileNumber,
			&e.ItemTaken, &e.Quantity, &e.Purpose, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
