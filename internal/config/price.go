package config

import (
	"fmt"
	"strings"
	"time"

	"price_simulator/internal/domain/value"
)

type Price struct {
	TrackedKeys            []string           `env:"PRICE_TRACKED_KEYS" envSeparator:"," envDefault:"apple,xiaomi,huawei,oppo,vivo,oneplus" validate:"min=1,dive,required"`
	BasePrices             map[string]float64 `env:"PRICE_BASE_PRICES" envSeparator:"," envKeyValSeparator:":" envDefault:"apple:5000,xiaomi:3000,huawei:4000,oppo:2500,vivo:2600,oneplus:3500"`
	FluctuationFraction    float64            `env:"PRICE_FLUCTUATION_FRACTION" envDefault:"0.05" validate:"gt=0,lt=0.5"`
	MinTickInterval        time.Duration      `env:"PRICE_MIN_TICK_INTERVAL" envDefault:"2s" validate:"gt=0"`
	MaxTickInterval        time.Duration      `env:"PRICE_MAX_TICK_INTERVAL" envDefault:"5s" validate:"gtefield=MinTickInterval"`
	MaxRecordsPerKey       int                `env:"PRICE_MAX_RECORDS_PER_KEY" envDefault:"1000" validate:"gt=0"`
	BootstrapSampleCount   int                `env:"PRICE_BOOTSTRAP_SAMPLE_COUNT" envDefault:"50" validate:"gte=0"`
	BootstrapSampleSpacing time.Duration      `env:"PRICE_BOOTSTRAP_SAMPLE_SPACING" envDefault:"5s" validate:"gt=0"`
	IOTimeout              time.Duration      `env:"PRICE_IO_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	HistoryDefaultLimit    int                `env:"PRICE_HISTORY_DEFAULT_LIMIT" envDefault:"100" validate:"gt=0,ltefield=HistoryMaxLimit"`
	HistoryMaxLimit        int                `env:"PRICE_HISTORY_MAX_LIMIT" envDefault:"1000" validate:"gt=0"`
	LatestCacheTTL         time.Duration      `env:"PRICE_LATEST_CACHE_TTL" envDefault:"1s" validate:"gte=0,ltfield=MinTickInterval"`
}

// KeySet returns the tracked keys in configured order.
func (p Price) KeySet() (value.KeySet, error) {
	return value.NewKeySet(p.TrackedKeys...)
}

// BaseOf returns the base price of key.
func (p Price) BaseOf(key value.TrackedKey) float64 {
	return p.BasePrices[key.String()]
}

// normalize trims the names in PRICE_BASE_PRICES the same way tracked keys
// are trimmed.
func (p *Price) normalize() {
	if len(p.BasePrices) == 0 {
		return
	}

	bases := make(map[string]float64, len(p.BasePrices))
	for name, base := range p.BasePrices {
		bases[strings.TrimSpace(name)] = base
	}

	p.BasePrices = bases
}

func (p Price) validate() error {
	keys, err := p.KeySet()
	if err != nil {
		return fmt.Errorf("PRICE_TRACKED_KEYS: %w", err)
	}

	for _, key := range keys.Keys() {
		base, ok := p.BasePrices[key.String()]
		if !ok {
			return fmt.Errorf("PRICE_BASE_PRICES: no base price for %q", key)
		}

		if base <= 0 {
			return fmt.Errorf("PRICE_BASE_PRICES: base price of %q must be positive", key)
		}
	}

	return nil
}
