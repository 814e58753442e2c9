// Package db provides shared Postgres helpers for bulk copy and keyed
// replacement of row sets.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into a table using the PostgreSQL COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}

// ReplaceConfig names the row set to replace: every row of Table whose
// KeyColumn equals Key.
type ReplaceConfig struct {
	Table     string
	KeyColumn string
	Key       any
	Columns   []string
}

// Replace deletes the keyed row set and copies the new rows in, inside one
// transaction. An empty rows slice clears the set.
func Replace(ctx context.Context, pool Pool, cfg ReplaceConfig, rows [][]any) (int64, error) {
	if cfg.Table == "" || cfg.KeyColumn == "" {
		return 0, eris.New("db: replace: table and key column are required")
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: replace: no columns specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer tx.Rollback(ctx)

	del := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		pgx.Identifier{cfg.Table}.Sanitize(),
		pgx.Identifier{cfg.KeyColumn}.Sanitize(),
	)
	if _, err := tx.Exec(ctx, del, cfg.Key); err != nil {
		return 0, eris.Wrapf(err, "db: replace: delete from %s", cfg.Table)
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, pgx.Identifier{cfg.Table}, cfg.Columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, eris.Wrapf(err, "db: replace: COPY INTO %s", cfg.Table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}
	return n, nil
}
