package application

import (
	"context"
	"fmt"

	"price_simulator/internal/config"
	"price_simulator/internal/domain/entity"
	"price_simulator/internal/domain/value"
	"price_simulator/internal/infrastructure/persistence"
	"price_simulator/migrations"
	"price_simulator/pkg/application/connectors"
)

type priceStore interface {
	Append(ctx context.Context, key value.TrackedKey, price float64) (entity.PriceSample, error)
	AppendBatch(ctx context.Context, samples []entity.PriceSample) ([]entity.PriceSample, error)
	Latest(ctx context.Context, key value.TrackedKey) (entity.PriceSample, bool, error)
	History(ctx context.Context, key value.TrackedKey, q entity.HistoryQuery) ([]entity.PriceSample, error)
	EnforceRetention(ctx context.Context, key value.TrackedKey, maxRecords int) (int64, error)
	Ping(ctx context.Context) error
}

// openStore connects the configured backend and applies its schema.
func openStore(ctx context.Context, cfg config.Config) (priceStore, func(context.Context), error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pg := &connectors.Postgres{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		}

		db := pg.Client(ctx)

		if err := migrations.Apply(ctx, db, migrations.DialectPostgres); err != nil {
			pg.Close(ctx)
			return nil, nil, fmt.Errorf("migrations.Apply: %w", err)
		}

		return persistence.NewPriceRepository(db), pg.Close, nil
	case config.StorageSQLite:
		sqlite := &connectors.SQLite{Path: cfg.SQLite.Path}

		db := sqlite.Client(ctx)

		if err := migrations.Apply(ctx, db, migrations.DialectSQLite); err != nil {
			sqlite.Close(ctx)
			return nil, nil, fmt.Errorf("migrations.Apply: %w", err)
		}

		return persistence.NewPriceRepository(db), sqlite.Close, nil
	case config.StorageMemory:
		return persistence.NewMemoryPriceRepository(), func(context.Context) {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage.Driver)
	}
}

func newRedisConnector(cfg config.Redis) *connectors.Redis {
	return &connectors.Redis{
		Address:        cfg.Address,
		Username:       cfg.Username,
		Password:       cfg.Password,
		DatabaseNumber: cfg.DatabaseNumber,
		PoolSize:       cfg.PoolSize,
	}
}
