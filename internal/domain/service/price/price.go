// Package price serves the read side of the price series: latest values for
// the dashboard and bounded history queries.
package price

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/patrickmn/go-cache"

	"price_simulator/internal/domain/entity"
	"price_simulator/internal/domain/value"
	"price_simulator/pkg/contextx"
	"price_simulator/pkg/errcodes"
	"price_simulator/pkg/logx"
)

const (
	DefaultHistoryLimit   = 100
	MaxHistoryLimit       = 1000
	DefaultLatestCacheTTL = time.Second

	latestAllCacheKey = "latest:all"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Store interface {
	Latest(ctx context.Context, key value.TrackedKey) (entity.PriceSample, bool, error)
	History(ctx context.Context, key value.TrackedKey, q entity.HistoryQuery) ([]entity.PriceSample, error)
}

type Service struct {
	store        Store
	keys         value.KeySet
	defaultLimit int
	maxLimit     int
	now          func() time.Time
	latestTTL    time.Duration
	latestCache  *cache.Cache
}

func NewService(store Store, keys value.KeySet) *Service {
	return &Service{
		store:        store,
		keys:         keys,
		defaultLimit: DefaultHistoryLimit,
		maxLimit:     MaxHistoryLimit,
		now:          time.Now,
		latestTTL:    DefaultLatestCacheTTL,
		latestCache:  cache.New(DefaultLatestCacheTTL, time.Minute),
	}
}

func (s *Service) WithHistoryLimits(defaultLimit, maxLimit int) *Service {
	s.defaultLimit = defaultLimit
	s.maxLimit = maxLimit
	return s
}

// WithLatestCacheTTL sets how long LatestAll results are reused. Zero
// disables caching.
func (s *Service) WithLatestCacheTTL(ttl time.Duration) *Service {
	s.latestTTL = ttl
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Keys() []value.TrackedKey {
	return s.keys.Keys()
}

// LatestAll returns one sample per tracked key in key-set order. Keys without
// samples are represented by a zero-valued placeholder.
func (s *Service) LatestAll(ctx context.Context) ([]entity.PriceSample, error) {
	if s.latestTTL > 0 {
		if cached, ok := s.latestCache.Get(latestAllCacheKey); ok {
			if samples, ok := cached.([]entity.PriceSample); ok {
				return append([]entity.PriceSample(nil), samples...), nil
			}
		}
	}

	samples := make([]entity.PriceSample, 0, s.keys.Len())

	for _, key := range s.keys.Keys() {
		sample, err := s.latest(ctx, key)
		if err != nil {
			return nil, err
		}

		samples = append(samples, sample)
	}

	if s.latestTTL > 0 {
		s.latestCache.Set(latestAllCacheKey, samples, s.latestTTL)
	}

	return append([]entity.PriceSample(nil), samples...), nil
}

// Latest returns the newest sample of a single key, or a placeholder when the
// key has no samples yet.
func (s *Service) Latest(ctx context.Context, rawKey string) (entity.PriceSample, error) {
	key, err := s.keys.Parse(rawKey)
	if err != nil {
		return entity.PriceSample{}, err
	}

	return s.latest(ctx, key)
}

// History returns samples of a key inside [q.Start, q.End] in ascending
// order. The limit is clamped to [1, maxLimit] with non-positive values
// replaced by the default.
func (s *Service) History(ctx context.Context, rawKey string, q entity.HistoryQuery) ([]entity.PriceSample, error) {
	key, err := s.keys.Parse(rawKey)
	if err != nil {
		return nil, err
	}

	if q.Start != nil && q.End != nil && q.Start.After(*q.End) {
		return nil, failure.NewInvalidArgumentError(
			fmt.Sprintf("start %s is after end %s", q.Start.Format(time.RFC3339Nano), q.End.Format(time.RFC3339Nano)),
			failure.WithCode(errcodes.InvalidTimeRange),
			failure.WithDescription("start must not be after end"),
		)
	}

	q.Limit = s.clampLimit(q.Limit)

	samples, err := s.store.History(ctx, key, q)
	if err != nil {
		return nil, fmt.Errorf("store.History: %w", err)
	}

	return samples, nil
}

func (s *Service) latest(ctx context.Context, key value.TrackedKey) (entity.PriceSample, error) {
	sample, found, err := s.store.Latest(ctx, key)
	if err != nil {
		return entity.PriceSample{}, fmt.Errorf("store.Latest: %w", err)
	}

	if !found {
		logger(ctx).Debug("no samples yet, returning placeholder", slog.String(logx.FieldPriceKey, key.String()))
		return entity.Placeholder(key, s.now().UTC()), nil
	}

	return sample, nil
}

func (s *Service) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return min(s.defaultLimit, s.maxLimit)
	case limit > s.maxLimit:
		return s.maxLimit
	default:
		return limit
	}
}
