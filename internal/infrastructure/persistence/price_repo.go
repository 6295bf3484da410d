package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"price_simulator/internal/domain"
	"price_simulator/internal/domain/entity"
	"price_simulator/internal/domain/value"
)

const selectColumns = `id, name, time, value`

// PriceRepository stores price samples in the real_time_price table. Queries
// are written with '?' placeholders and rebound for the driver, so the same
// repository serves postgres (pgx) and sqlite.
type PriceRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPriceRepository(db *sqlx.DB) *PriceRepository {
	return &PriceRepository{
		db:  db,
		now: time.Now,
	}
}

// WithClock overrides the timestamp source used by Append.
func (r *PriceRepository) WithClock(now func() time.Time) *PriceRepository {
	r.now = now
	return r
}

func (r *PriceRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.StorageFailure(err, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.StorageFailure(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.StorageFailure(err, "failed to commit")
	}

	return nil
}

// Append stores a sample stamped with the current time. The row is visible
// to readers only after its transaction commits.
func (r *PriceRepository) Append(ctx context.Context, key value.TrackedKey, price float64) (entity.PriceSample, error) {
	schema := priceSampleSchema{
		Name:  key.String(),
		Time:  normalizeTime(r.now()),
		Value: price,
	}

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		return r.insertTx(ctx, tx, &schema)
	})
	if err != nil {
		return entity.PriceSample{}, err
	}

	return schema.toDomain(), nil
}

// AppendBatch stores backdated samples atomically and returns them with
// their assigned ids.
func (r *PriceRepository) AppendBatch(ctx context.Context, samples []entity.PriceSample) ([]entity.PriceSample, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	stored := make([]entity.PriceSample, 0, len(samples))

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		for i, sample := range samples {
			schema := fromPriceSample(sample)
			if err := r.insertTx(ctx, tx, &schema); err != nil {
				return domain.StorageFailure(err, fmt.Sprintf("failed at index %d", i))
			}

			stored = append(stored, schema.toDomain())
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// Latest returns the newest sample of key. found is false when the key has
// no samples.
func (r *PriceRepository) Latest(ctx context.Context, key value.TrackedKey) (sample entity.PriceSample, found bool, err error) {
	query := r.db.Rebind(`
		SELECT ` + selectColumns + `
		FROM real_time_price
		WHERE name = ?
		ORDER BY time DESC, id DESC
		LIMIT 1`)

	var schema priceSampleSchema
	if err := r.db.GetContext(ctx, &schema, query, key.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.PriceSample{}, false, nil
		}
		return entity.PriceSample{}, false, domain.StorageFailure(err, "failed to get latest sample")
	}

	return schema.toDomain(), true, nil
}

// History returns the samples of key inside the query bounds in ascending
// order. When more than q.Limit samples match, the most recent q.Limit are
// returned. A non-positive limit returns every match.
func (r *PriceRepository) History(ctx context.Context, key value.TrackedKey, q entity.HistoryQuery) ([]entity.PriceSample, error) {
	var (
		where = []string{"name = ?"}
		args  = []any{key.String()}
	)

	if q.Start != nil {
		where = append(where, "time >= ?")
		args = append(args, q.Start.UTC())
	}

	if q.End != nil {
		where = append(where, "time <= ?")
		args = append(args, q.End.UTC())
	}

	query := `
		SELECT ` + selectColumns + `
		FROM real_time_price
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY time DESC, id DESC`

	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	var schemas []priceSampleSchema
	if err := r.db.SelectContext(ctx, &schemas, r.db.Rebind(query), args...); err != nil {
		return nil, domain.StorageFailure(err, "failed to query history")
	}

	// newest first from the query, ascending for callers
	samples := make([]entity.PriceSample, len(schemas))
	for i, s := range schemas {
		samples[len(schemas)-1-i] = s.toDomain()
	}

	return samples, nil
}

func (r *PriceRepository) Count(ctx context.Context, key value.TrackedKey) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM real_time_price WHERE name = ?`), key.String()); err != nil {
		return 0, domain.StorageFailure(err, "failed to count samples")
	}

	return count, nil
}

// EnforceRetention deletes every sample of key older than the newest
// maxRecords in a single range delete. Rows appended concurrently are newer
// than the cutoff and therefore never removed.
func (r *PriceRepository) EnforceRetention(ctx context.Context, key value.TrackedKey, maxRecords int) (int64, error) {
	if maxRecords <= 0 {
		return 0, fmt.Errorf("maxRecords must be positive, got %d", maxRecords)
	}

	var deleted int64

	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		cutoffQuery := tx.Rebind(`
			SELECT ` + selectColumns + `
			FROM real_time_price
			WHERE name = ?
			ORDER BY time DESC, id DESC
			LIMIT 1 OFFSET ?`)

		var cutoff priceSampleSchema
		if err := tx.GetContext(ctx, &cutoff, cutoffQuery, key.String(), maxRecords); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return domain.StorageFailure(err, "failed to find retention cutoff")
		}

		cutoffTime := cutoff.Time.UTC()

		deleteQuery := tx.Rebind(`
			DELETE FROM real_time_price
			WHERE name = ?
			  AND (time < ? OR (time = ? AND id <= ?))`)

		res, err := tx.ExecContext(ctx, deleteQuery, key.String(), cutoffTime, cutoffTime, cutoff.ID)
		if err != nil {
			return domain.StorageFailure(err, "failed to delete old samples")
		}

		deleted, err = res.RowsAffected()
		if err != nil {
			return domain.StorageFailure(err, "failed to check affected rows")
		}

		return nil
	})

	return deleted, err
}

func (r *PriceRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return domain.StorageFailure(err, "failed to ping database")
	}

	return nil
}

func (r *PriceRepository) insertTx(ctx context.Context, tx *sqlx.Tx, schema *priceSampleSchema) error {
	query, args, err := sqlx.Named(`
		INSERT INTO real_time_price (name, time, value)
		VALUES (:name, :time, :value)
		RETURNING id`, schema)
	if err != nil {
		return domain.StorageFailure(err, "failed to build insert")
	}

	if err := tx.GetContext(ctx, &schema.ID, tx.Rebind(query), args...); err != nil {
		return domain.StorageFailure(err, "failed to insert sample")
	}

	return nil
}
