// Package testutil gives integration tests a throwaway PostgreSQL schema
// with the notification tables applied.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"tracehub.io/tracehub/internal/repository/postgres"
)

// maxIdentLen is PostgreSQL's NAMEDATALEN-1.
const maxIdentLen = 63

// DSN returns TEST_DATABASE_URL, falling back to DATABASE_URL. The test is
// skipped when neither is set.
func DSN(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"TEST_DATABASE_URL", "DATABASE_URL"} {
		if dsn := strings.TrimSpace(os.Getenv(key)); dsn != "" {
			return dsn
		}
	}
	t.Skip("PostgreSQL integration test: set TEST_DATABASE_URL or DATABASE_URL")
	return ""
}

// OpenPGXPool creates a fresh schema named after prefix and returns a pool
// whose connections use it as search_path. The schema is dropped when the
// test ends.
func OpenPGXPool(t *testing.T, prefix string) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	dsn := DSN(t)
	schema := newSchemaName(prefix)

	admin, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	quoted := pgx.Identifier{schema}.Sanitize()
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+quoted); err != nil {
		_ = admin.Close(ctx)
		t.Fatalf("create schema %s: %v", schema, err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(ctx, "DROP SCHEMA IF EXISTS "+quoted+" CASCADE")
		_ = admin.Close(ctx)
	})

	cfg, err := poolConfig(dsn, schema)
	if err != nil {
		t.Fatalf("%v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("open schema pool: %v", err)
	}
	// registered after the schema drop so it runs first
	t.Cleanup(pool.Close)
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping schema pool: %v", err)
	}
	return pool
}

// OpenMigratedDB is OpenPGXPool with the notification tables applied,
// returned as a *sql.DB.
func OpenMigratedDB(t *testing.T, prefix string) *sql.DB {
	t.Helper()
	db := stdlib.OpenDBFromPool(OpenPGXPool(t, prefix))
	t.Cleanup(func() { _ = db.Close() })

	if err := postgres.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}
	return db
}

// poolConfig parses dsn in either URL or keyword form and pins every
// connection to schema.
func poolConfig(dsn, schema string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse test DSN: %w", err)
	}
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	cfg.MaxConns = 4
	return cfg, nil
}

// newSchemaName turns prefix into a lowercase identifier and appends a
// random suffix, staying within maxIdentLen.
func newSchemaName(prefix string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(prefix) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	base := strings.TrimRight(b.String(), "_")
	if base == "" {
		base = "test"
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	if room := maxIdentLen - len("th__") - len(suffix); len(base) > room {
		base = base[:room]
	}
	return "th_" + base + "_" + suffix
}
