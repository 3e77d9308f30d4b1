// Package postgres implements the notification store and the recipient
// directory on PostgreSQL. Queries are built with the ent SQL builder over
// the *sql.DB that shares the pgx pool.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables this package reads and writes.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply notification schema: %w", err)
	}
	return nil
}
