// Package dbtest provides throwaway databases for repository tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver

	"price_simulator/migrations"
	"price_simulator/pkg/application/connectors"
)

// NewSQLite opens a migrated sqlite database in a temporary directory that
// is removed when the test finishes.
func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prices.db")

	db, err := sqlx.Open("sqlite3", connectors.SQLiteDSN(path))
	if err != nil {
		t.Fatalf("sqlx.Open: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Apply(context.Background(), db, migrations.DialectSQLite); err != nil {
		t.Fatalf("migrations.Apply: %v", err)
	}

	return db
}
