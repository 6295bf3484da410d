package persistence

import (
	"time"

	"price_simulator/internal/domain/entity"
	"price_simulator/internal/domain/value"
)

// priceSampleSchema maps a row of the real_time_price table.
type priceSampleSchema struct {
	ID    int64     `db:"id"`
	Name  string    `db:"name"`
	Time  time.Time `db:"time"`
	Value float64   `db:"value"`
}

func fromPriceSample(s entity.PriceSample) priceSampleSchema {
	return priceSampleSchema{
		ID:    s.ID,
		Name:  s.Key.String(),
		Time:  normalizeTime(s.Timestamp),
		Value: s.Value,
	}
}

func (s priceSampleSchema) toDomain() entity.PriceSample {
	return entity.PriceSample{
		ID:        s.ID,
		Key:       value.TrackedKey(s.Name),
		Timestamp: s.Time.UTC(),
		Value:     s.Value,
	}
}

// normalizeTime brings timestamps to the precision both postgres and sqlite
// round-trip exactly, in UTC so that sqlite's text comparison stays ordered.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
