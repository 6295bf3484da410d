package price_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/stretchr/testify/require"

	"price_simulator/internal/domain"
	"price_simulator/internal/domain/entity"
	"price_simulator/internal/domain/service/price"
	"price_simulator/internal/domain/value"
	"price_simulator/internal/infrastructure/persistence"
	"price_simulator/pkg/errcodes"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newKeys(t *testing.T, names ...string) value.KeySet {
	t.Helper()

	keys, err := value.NewKeySet(names...)
	require.NoError(t, err)

	return keys
}

type recordingStore struct {
	*persistence.MemoryPriceRepository
	lastQuery   entity.HistoryQuery
	latestCalls int
	err         error
}

func (s *recordingStore) Latest(ctx context.Context, key value.TrackedKey) (entity.PriceSample, bool, error) {
	s.latestCalls++
	if s.err != nil {
		return entity.PriceSample{}, false, s.err
	}
	return s.MemoryPriceRepository.Latest(ctx, key)
}

func (s *recordingStore) History(ctx context.Context, key value.TrackedKey, q entity.HistoryQuery) ([]entity.PriceSample, error) {
	s.lastQuery = q
	if s.err != nil {
		return nil, s.err
	}
	return s.MemoryPriceRepository.History(ctx, key, q)
}

func newStore() *recordingStore {
	step := 0
	return &recordingStore{
		MemoryPriceRepository: persistence.NewMemoryPriceRepository().WithClock(func() time.Time {
			step++
			return now.Add(time.Duration(step) * time.Second)
		}),
	}
}

func TestService_LatestAll(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newStore()
	_, err := store.Append(ctx, "xiaomi", 3010)
	rq.NoError(err)
	_, err = store.Append(ctx, "apple", 4990)
	rq.NoError(err)

	svc := price.NewService(store, newKeys(t, "apple", "xiaomi", "huawei")).
		WithClock(func() time.Time { return now }).
		WithLatestCacheTTL(0)

	latest, err := svc.LatestAll(ctx)
	rq.NoError(err)
	rq.Len(latest, 3)

	rq.Equal(value.TrackedKey("apple"), latest[0].Key)
	rq.Equal(4990.0, latest[0].Value)
	rq.Equal(value.TrackedKey("xiaomi"), latest[1].Key)
	rq.Equal(3010.0, latest[1].Value)

	rq.Equal(value.TrackedKey("huawei"), latest[2].Key)
	rq.Zero(latest[2].Value)
	rq.True(now.Equal(latest[2].Timestamp))
}

func TestService_LatestAllCached(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newStore()
	svc := price.NewService(store, newKeys(t, "apple", "oppo")).WithLatestCacheTTL(time.Minute)

	first, err := svc.LatestAll(ctx)
	rq.NoError(err)
	rq.Equal(2, store.latestCalls)

	_, err = store.Append(ctx, "apple", 1)
	rq.NoError(err)

	second, err := svc.LatestAll(ctx)
	rq.NoError(err)
	rq.Equal(2, store.latestCalls)
	rq.Equal(first, second)

	second[0].Value = 42
	third, err := svc.LatestAll(ctx)
	rq.NoError(err)
	rq.Zero(third[0].Value)
}

func TestService_Latest(t *testing.T) {
	ctx := context.Background()

	store := newStore()
	_, err := store.Append(ctx, "vivo", 2600.25)
	require.NoError(t, err)

	svc := price.NewService(store, newKeys(t, "vivo", "oneplus")).
		WithClock(func() time.Time { return now })

	testCases := []struct {
		name    string
		key     string
		value   float64
		errCode string
	}{
		{name: "Existing key", key: "vivo", value: 2600.25},
		{name: "Key without samples", key: "oneplus", value: 0},
		{name: "Unknown key", key: "bogus-key", errCode: errcodes.InvalidTrackedKey.String()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			sample, err := svc.Latest(ctx, tc.key)
			if tc.errCode != "" {
				rq.Error(err)
				rq.True(failure.IsInvalidArgumentError(err))
				rq.Equal(tc.errCode, failure.Code(err).String())
				return
			}

			rq.NoError(err)
			rq.Equal(value.TrackedKey(tc.key), sample.Key)
			rq.Equal(tc.value, sample.Value)
		})
	}
}

func TestService_History(t *testing.T) {
	ctx := context.Background()

	store := newStore()
	for i := 1; i <= 5; i++ {
		_, err := store.Append(ctx, "apple", float64(i))
		require.NoError(t, err)
	}

	svc := price.NewService(store, newKeys(t, "apple")).WithHistoryLimits(2, 4)

	ts := func(sec int) *time.Time {
		v := now.Add(time.Duration(sec) * time.Second)
		return &v
	}

	testCases := []struct {
		name      string
		key       string
		query     entity.HistoryQuery
		wantLimit int
		want      []float64
		errCode   string
	}{
		{
			name:      "Default limit",
			key:       "apple",
			wantLimit: 2,
			want:      []float64{4, 5},
		},
		{
			name:      "Limit above max is clamped",
			key:       "apple",
			query:     entity.HistoryQuery{Limit: 100},
			wantLimit: 4,
			want:      []float64{2, 3, 4, 5},
		},
		{
			name:      "Negative limit uses default",
			key:       "apple",
			query:     entity.HistoryQuery{Limit: -1},
			wantLimit: 2,
			want:      []float64{4, 5},
		},
		{
			name:      "Range",
			key:       "apple",
			query:     entity.HistoryQuery{Start: ts(1), End: ts(3), Limit: 4},
			wantLimit: 4,
			want:      []float64{1, 2, 3},
		},
		{
			name:      "Start equals end",
			key:       "apple",
			query:     entity.HistoryQuery{Start: ts(2), End: ts(2), Limit: 4},
			wantLimit: 4,
			want:      []float64{2},
		},
		{
			name:    "Unknown key",
			key:     "bogus-key",
			errCode: errcodes.InvalidTrackedKey.String(),
		},
		{
			name:    "Inverted range",
			key:     "apple",
			query:   entity.HistoryQuery{Start: ts(3), End: ts(1)},
			errCode: errcodes.InvalidTimeRange.String(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			samples, err := svc.History(ctx, tc.key, tc.query)
			if tc.errCode != "" {
				rq.Error(err)
				rq.True(failure.IsInvalidArgumentError(err))
				rq.Equal(tc.errCode, failure.Code(err).String())
				return
			}

			rq.NoError(err)
			rq.Equal(tc.wantLimit, store.lastQuery.Limit)

			got := make([]float64, 0, len(samples))
			for _, s := range samples {
				got = append(got, s.Value)
			}
			rq.Equal(tc.want, got)
		})
	}
}

func TestService_StorageFailure(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	store := newStore()
	store.err = domain.StorageFailure(errors.New("connection refused"), "failed to get latest sample")

	svc := price.NewService(store, newKeys(t, "apple"))

	_, err := svc.Latest(ctx, "apple")
	rq.Error(err)
	rq.True(domain.IsStorageFailure(err))
	rq.False(failure.IsInvalidArgumentError(err))

	_, err = svc.History(ctx, "apple", entity.HistoryQuery{})
	rq.True(domain.IsStorageFailure(err))

	_, err = svc.LatestAll(ctx)
	rq.True(domain.IsStorageFailure(err))
}
