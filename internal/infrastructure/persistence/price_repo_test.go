package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"price_simulator/internal/domain"
	"price_simulator/internal/domain/entity"
	"price_simulator/internal/domain/value"
	"price_simulator/pkg/dbtest"
)

type priceStore interface {
	Append(ctx context.Context, key value.TrackedKey, price float64) (entity.PriceSample, error)
	AppendBatch(ctx context.Context, samples []entity.PriceSample) ([]entity.PriceSample, error)
	Latest(ctx context.Context, key value.TrackedKey) (entity.PriceSample, bool, error)
	History(ctx context.Context, key value.TrackedKey, q entity.HistoryQuery) ([]entity.PriceSample, error)
	Count(ctx context.Context, key value.TrackedKey) (int, error)
	EnforceRetention(ctx context.Context, key value.TrackedKey, maxRecords int) (int64, error)
	Ping(ctx context.Context) error
}

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// stepClock returns baseTime advanced by one second on every call.
func stepClock() func() time.Time {
	var (
		mu sync.Mutex
		n  int
	)

	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return baseTime.Add(time.Duration(n) * time.Second)
	}
}

func stores(t *testing.T) map[string]func(now func() time.Time) priceStore {
	return map[string]func(now func() time.Time) priceStore{
		"sqlite": func(now func() time.Time) priceStore {
			return NewPriceRepository(dbtest.NewSQLite(t)).WithClock(now)
		},
		"memory": func(now func() time.Time) priceStore {
			return NewMemoryPriceRepository().WithClock(now)
		},
	}
}

func values(samples []entity.PriceSample) []float64 {
	out := make([]float64, 0, len(samples))
	for _, s := range samples {
		out = append(out, s.Value)
	}
	return out
}

func TestPriceStore_AppendAndLatest(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rq := require.New(t)
			ctx := context.Background()
			store := newStore(stepClock())

			_, found, err := store.Latest(ctx, "apple")
			rq.NoError(err)
			rq.False(found)

			first, err := store.Append(ctx, "apple", 5000)
			rq.NoError(err)
			rq.NotZero(first.ID)
			rq.Equal(value.TrackedKey("apple"), first.Key)

			second, err := store.Append(ctx, "apple", 5010.5)
			rq.NoError(err)
			rq.Greater(second.ID, first.ID)
			rq.True(second.Timestamp.After(first.Timestamp))

			_, err = store.Append(ctx, "xiaomi", 3000)
			rq.NoError(err)

			latest, found, err := store.Latest(ctx, "apple")
			rq.NoError(err)
			rq.True(found)
			rq.Equal(second.ID, latest.ID)
			rq.Equal(5010.5, latest.Value)
			rq.True(second.Timestamp.Equal(latest.Timestamp))
		})
	}
}

func TestPriceStore_LatestTieBreaksOnID(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rq := require.New(t)
			ctx := context.Background()
			store := newStore(func() time.Time { return baseTime })

			_, err := store.Append(ctx, "oppo", 1)
			rq.NoError(err)
			last, err := store.Append(ctx, "oppo", 2)
			rq.NoError(err)

			latest, found, err := store.Latest(ctx, "oppo")
			rq.NoError(err)
			rq.True(found)
			rq.Equal(last.ID, latest.ID)
			rq.Equal(2.0, latest.Value)
		})
	}
}

func TestPriceStore_AppendBatch(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rq := require.New(t)
			ctx := context.Background()
			store := newStore(stepClock())

			batch := make([]entity.PriceSample, 0, 5)
			for i := range 5 {
				batch = append(batch, entity.PriceSample{
					Key:       "vivo",
					Timestamp: baseTime.Add(-time.Duration(5-i) * 5 * time.Second),
					Value:     float64(2600 + i),
				})
			}

			stored, err := store.AppendBatch(ctx, batch)
			rq.NoError(err)
			rq.Len(stored, 5)
			for _, s := range stored {
				rq.NotZero(s.ID)
			}

			history, err := store.History(ctx, "vivo", entity.HistoryQuery{})
			rq.NoError(err)
			rq.Equal([]float64{2600, 2601, 2602, 2603, 2604}, values(history))

			empty, err := store.AppendBatch(ctx, nil)
			rq.NoError(err)
			rq.Empty(empty)
		})
	}
}

func TestPriceStore_History(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(stepClock())

			for i := 1; i <= 10; i++ {
				_, err := store.Append(ctx, "huawei", float64(i))
				require.NoError(t, err)
			}
			_, err := store.Append(ctx, "apple", 100)
			require.NoError(t, err)

			at := func(sec int) *time.Time {
				ts := baseTime.Add(time.Duration(sec) * time.Second)
				return &ts
			}

			tests := []struct {
				name  string
				query entity.HistoryQuery
				want  []float64
			}{
				{
					name:  "unbounded",
					query: entity.HistoryQuery{},
					want:  []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
				},
				{
					name:  "inclusive range",
					query: entity.HistoryQuery{Start: at(3), End: at(5)},
					want:  []float64{3, 4, 5},
				},
				{
					name:  "start only",
					query: entity.HistoryQuery{Start: at(9)},
					want:  []float64{9, 10},
				},
				{
					name:  "end only",
					query: entity.HistoryQuery{End: at(2)},
					want:  []float64{1, 2},
				},
				{
					name:  "limit keeps most recent",
					query: entity.HistoryQuery{Limit: 3},
					want:  []float64{8, 9, 10},
				},
				{
					name:  "limit inside range",
					query: entity.HistoryQuery{Start: at(2), End: at(6), Limit: 2},
					want:  []float64{5, 6},
				},
				{
					name:  "empty range",
					query: entity.HistoryQuery{Start: at(20)},
					want:  []float64{},
				},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					rq := require.New(t)

					got, err := store.History(ctx, "huawei", tt.query)
					rq.NoError(err)
					rq.Equal(tt.want, values(got))

					for i := 1; i < len(got); i++ {
						rq.False(got[i].Timestamp.Before(got[i-1].Timestamp))
					}
				})
			}
		})
	}
}

func TestPriceStore_EnforceRetention(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rq := require.New(t)
			ctx := context.Background()
			store := newStore(stepClock())

			for _, v := range []float64{10, 20, 30, 40} {
				_, err := store.Append(ctx, "oneplus", v)
				rq.NoError(err)
			}
			_, err := store.Append(ctx, "apple", 1)
			rq.NoError(err)

			deleted, err := store.EnforceRetention(ctx, "oneplus", 3)
			rq.NoError(err)
			rq.EqualValues(1, deleted)

			history, err := store.History(ctx, "oneplus", entity.HistoryQuery{})
			rq.NoError(err)
			rq.Equal([]float64{20, 30, 40}, values(history))

			deleted, err = store.EnforceRetention(ctx, "oneplus", 3)
			rq.NoError(err)
			rq.Zero(deleted)

			count, err := store.Count(ctx, "apple")
			rq.NoError(err)
			rq.Equal(1, count)

			deleted, err = store.EnforceRetention(ctx, "missing", 3)
			rq.NoError(err)
			rq.Zero(deleted)

			_, err = store.EnforceRetention(ctx, "oneplus", 0)
			rq.Error(err)
		})
	}
}

func TestPriceStore_EnforceRetentionEqualTimestamps(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rq := require.New(t)
			ctx := context.Background()
			store := newStore(func() time.Time { return baseTime })

			for i := 1; i <= 5; i++ {
				_, err := store.Append(ctx, "apple", float64(i))
				rq.NoError(err)
			}

			deleted, err := store.EnforceRetention(ctx, "apple", 2)
			rq.NoError(err)
			rq.EqualValues(3, deleted)

			history, err := store.History(ctx, "apple", entity.HistoryQuery{})
			rq.NoError(err)
			rq.Equal([]float64{4, 5}, values(history))
		})
	}
}

func TestPriceStore_ConcurrentReadsDuringAppends(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(stepClock())

			const (
				appends    = 50
				maxRecords = 10
			)

			var wg sync.WaitGroup
			errs := make(chan error, appends*2)

			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range appends {
					if _, err := store.Append(ctx, "xiaomi", float64(i)); err != nil {
						errs <- err
						return
					}
					if _, err := store.EnforceRetention(ctx, "xiaomi", maxRecords); err != nil {
						errs <- err
						return
					}
				}
			}()

			for range 4 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range appends {
						history, err := store.History(ctx, "xiaomi", entity.HistoryQuery{})
						if err != nil {
							errs <- err
							return
						}
						for i := 1; i < len(history); i++ {
							if history[i].Value <= history[i-1].Value {
								errs <- errors.New("history out of order")
								return
							}
						}
					}
				}()
			}

			wg.Wait()
			close(errs)

			for err := range errs {
				require.NoError(t, err)
			}

			count, err := store.Count(ctx, "xiaomi")
			require.NoError(t, err)
			require.Equal(t, maxRecords, count)
		})
	}
}

func TestPriceStore_Ping(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, newStore(time.Now).Ping(context.Background()))
		})
	}
}

func TestPriceStore_CanceledContext(t *testing.T) {
	rq := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryPriceRepository()
	_, err := store.Append(ctx, "apple", 1)
	rq.ErrorIs(err, context.Canceled)
}

func TestPriceRepository_StorageFailure(t *testing.T) {
	rq := require.New(t)

	db := dbtest.NewSQLite(t)
	repo := NewPriceRepository(db)
	rq.NoError(db.Close())

	_, err := repo.Append(context.Background(), "apple", 1)
	rq.Error(err)
	rq.True(domain.IsStorageFailure(err))
}
