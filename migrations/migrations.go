// Package migrations embeds the schema of the price store for every
// supported SQL dialect.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jmoiron/sqlx"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Apply executes every migration of dialect in file name order. All
// statements are idempotent.
func Apply(ctx context.Context, db *sqlx.DB, dialect string) error {
	names, err := fs.Glob(files, dialect+"/*.sql")
	if err != nil {
		return fmt.Errorf("fs.Glob: %w", err)
	}

	if len(names) == 0 {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}

	sort.Strings(names)

	for _, name := range names {
		b, err := files.ReadFile(name)
		if err != nil {
			return fmt.Errorf("files.ReadFile(%s): %w", name, err)
		}

		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("db.Exec(%s): %w", name, err)
		}
	}

	return nil
}
