package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently at startup. The trigger makes the ledger
// append-only at the database level.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		name       TEXT PRIMARY KEY,
		quantity   INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		id            UUID PRIMARY KEY,
		full_name     TEXT NOT NULL,
		department    TEXT NOT NULL,
		mobile_number TEXT NOT NULL,
		item_taken    TEXT NOT NULL,
		quantity      INTEGER NOT NULL CHECK (quantity >= 1),
		purpose       TEXT NOT NULL DEFAULT '',
		issued_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS entries_issued_at_idx ON entries (issued_at DESC)`,
	`CREATE INDEX IF NOT EXISTS entries_department_idx ON entries (department)`,
	`CREATE OR REPLACE FUNCTION entries_append_only() RETURNS trigger AS $$
	BEGIN
		RAISE EXCEPTION 'entries is append-only';
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS entries_append_only ON entries`,
	`CREATE TRIGGER entries_append_only BEFORE UPDATE OR DELETE ON entries
		FOR EACH ROW EXECUTE FUNCTION entries_append_only()`,
}

// EnsureSchema creates the items and entries tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*s.timeout)
	defer cancel()

	for i, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
