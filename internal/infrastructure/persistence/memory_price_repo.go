package persistence

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"price_simulator/internal/domain/entity"
	"price_simulator/internal/domain/value"
)

// MemoryPriceRepository keeps samples in process memory. Samples of each key
// are kept sorted by (timestamp, id).
type MemoryPriceRepository struct {
	mu      sync.RWMutex
	samples map[value.TrackedKey][]entity.PriceSample
	nextID  int64
	now     func() time.Time
}

func NewMemoryPriceRepository() *MemoryPriceRepository {
	return &MemoryPriceRepository{
		samples: make(map[value.TrackedKey][]entity.PriceSample),
		now:     time.Now,
	}
}

func (r *MemoryPriceRepository) WithClock(now func() time.Time) *MemoryPriceRepository {
	r.now = now
	return r
}

func (r *MemoryPriceRepository) Append(ctx context.Context, key value.TrackedKey, price float64) (entity.PriceSample, error) {
	if err := ctx.Err(); err != nil {
		return entity.PriceSample{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insert(entity.PriceSample{Key: key, Timestamp: r.now(), Value: price}), nil
}

func (r *MemoryPriceRepository) AppendBatch(ctx context.Context, samples []entity.PriceSample) ([]entity.PriceSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(samples) == 0 {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]entity.PriceSample, 0, len(samples))
	for _, s := range samples {
		stored = append(stored, r.insert(s))
	}

	return stored, nil
}

func (r *MemoryPriceRepository) Latest(ctx context.Context, key value.TrackedKey) (entity.PriceSample, bool, error) {
	if err := ctx.Err(); err != nil {
		return entity.PriceSample{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	series := r.samples[key]
	if len(series) == 0 {
		return entity.PriceSample{}, false, nil
	}

	return series[len(series)-1], true, nil
}

func (r *MemoryPriceRepository) History(ctx context.Context, key value.TrackedKey, q entity.HistoryQuery) ([]entity.PriceSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entity.PriceSample, 0)
	for _, s := range r.samples[key] {
		if q.Contains(s.Timestamp) {
			result = append(result, s)
		}
	}

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[len(result)-q.Limit:]
	}

	return slices.Clone(result), nil
}

func (r *MemoryPriceRepository) Count(ctx context.Context, key value.TrackedKey) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.samples[key]), nil
}

func (r *MemoryPriceRepository) EnforceRetention(ctx context.Context, key value.TrackedKey, maxRecords int) (int64, error) {
	if maxRecords <= 0 {
		return 0, fmt.Errorf("maxRecords must be positive, got %d", maxRecords)
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	series := r.samples[key]
	excess := len(series) - maxRecords
	if excess <= 0 {
		return 0, nil
	}

	r.samples[key] = slices.Clone(series[excess:])

	return int64(excess), nil
}

func (r *MemoryPriceRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// insert must be called with the write lock held.
func (r *MemoryPriceRepository) insert(s entity.PriceSample) entity.PriceSample {
	r.nextID++
	s.ID = r.nextID
	s.Timestamp = normalizeTime(s.Timestamp)

	series := r.samples[s.Key]
	idx, _ := slices.BinarySearchFunc(series, s, compareSamples)
	r.samples[s.Key] = slices.Insert(series, idx, s)

	return s
}

func compareSamples(a, b entity.PriceSample) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}

	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}
