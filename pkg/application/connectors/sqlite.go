package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/samber/lo"

	"price_simulator/pkg/logx"
)

const sqliteBusyTimeoutMs = 5000

// SQLite opens a single-file database in WAL mode so that readers are not
// blocked by the writer.
type SQLite struct {
	value *sqlx.DB
	Path  string
	init  sync.Once
}

func (s *SQLite) Client(ctx context.Context) *sqlx.DB {
	s.init.Do(func() {
		s.value = lo.Must(sqlx.ConnectContext(ctx, "sqlite3", SQLiteDSN(s.Path)))

		logger(ctx).Info("sqlite opened", slog.String("path", s.Path))
	})

	return s.value
}

func (s *SQLite) Close(ctx context.Context) {
	if s.value == nil {
		return
	}

	if err := s.value.Close(); err != nil {
		logger(ctx).Error("sqliteClient.Close", logx.Error(err))
	}

	logger(ctx).Info("sqlite closed", slog.String("path", s.Path))
}

func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_txlock=immediate", path, sqliteBusyTimeoutMs)
}
