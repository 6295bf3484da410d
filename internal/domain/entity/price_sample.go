package entity

import (
	"time"

	"price_simulator/internal/domain/value"
)

// PriceSample is an immutable point of a key's price series. ID is assigned
// by the store and breaks ties between equal timestamps.
type PriceSample struct {
	ID        int64
	Key       value.TrackedKey
	Timestamp time.Time
	Value     float64
}

// Placeholder stands in for a key that has no samples yet so that dashboards
// always receive one entry per key.
func Placeholder(key value.TrackedKey, now time.Time) PriceSample {
	return PriceSample{
		Key:       key,
		Timestamp: now,
	}
}

// HistoryQuery selects samples with Start <= Timestamp <= End. Nil bounds are
// unbounded.
type HistoryQuery struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

// Contains reports whether ts lies within the query bounds.
func (q HistoryQuery) Contains(ts time.Time) bool {
	if q.Start != nil && ts.Before(*q.Start) {
		return false
	}

	if q.End != nil && ts.After(*q.End) {
		return false
	}

	return true
}
