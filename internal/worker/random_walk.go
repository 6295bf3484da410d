package worker

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"price_simulator/internal/domain/entity"
	"price_simulator/internal/domain/value"
)

// seedFluctuation is the spread of backdated bootstrap samples around the
// base price.
const seedFluctuation = 0.1

// Rand is a source of uniformly distributed values in [0, 1).
type Rand interface {
	Float64() float64
}

// Bounds is the closed interval a key's price is kept in.
type Bounds struct {
	Lower float64
	Upper float64
}

// BoundsFor returns [base*(1-2f), base*(1+2f)].
func BoundsFor(base, fluctuation float64) Bounds {
	return Bounds{
		Lower: base * (1 - 2*fluctuation),
		Upper: base * (1 + 2*fluctuation),
	}
}

// NextPrice moves current by a uniform relative step in [-f, f] and clamps
// the result to the bounds of base.
func NextPrice(r Rand, current, base, fluctuation float64) float64 {
	candidate := current * (1 + uniform(r, -fluctuation, fluctuation))
	bounds := BoundsFor(base, fluctuation)

	return lo.Clamp(candidate, bounds.Lower, bounds.Upper)
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// SeedSamples builds count backdated samples of key spaced apart, oldest
// first, the last one stamped at now.
func SeedSamples(
	r Rand,
	key value.TrackedKey,
	base float64,
	now time.Time,
	count int,
	spacing time.Duration,
) []entity.PriceSample {
	samples := make([]entity.PriceSample, 0, count)

	for i := range count {
		samples = append(samples, entity.PriceSample{
			Key:       key,
			Timestamp: now.Add(-time.Duration(count-1-i) * spacing),
			Value:     Round2(base * (1 + uniform(r, -seedFluctuation, seedFluctuation))),
		})
	}

	return samples
}

func uniform(r Rand, lower, upper float64) float64 {
	return lower + r.Float64()*(upper-lower)
}

func uniformDuration(r Rand, lower, upper time.Duration) time.Duration {
	if upper <= lower {
		return lower
	}

	return lower + time.Duration(r.Float64()*float64(upper-lower))
}
