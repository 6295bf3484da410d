package worker

import (
	"context"
	"log/slog"

	"price_simulator/internal/domain/value"
	"price_simulator/pkg/logx"
)

// bootstrap sets the starting price of every key. Keys with stored samples
// resume from their latest value; empty keys are seeded with backdated
// samples and start from their base price.
func (w *PriceSimulator) bootstrap(ctx context.Context) {
	for _, key := range w.keys {
		if ctx.Err() != nil {
			return
		}

		w.setCurrent(key, w.bootstrapKey(ctx, key))
	}
}

func (w *PriceSimulator) bootstrapKey(ctx context.Context, key value.TrackedKey) float64 {
	ioCtx, cancel := w.ioContext(ctx)
	defer cancel()

	base := w.bases[key]

	latest, found, err := w.store.Latest(ioCtx, key)
	if err != nil {
		logger(ctx).Error(
			"failed to read latest price, starting from base",
			slog.String(logx.FieldPriceKey, key.String()),
			logx.Error(err),
		)
		return base
	}

	if found {
		return latest.Value
	}

	if w.bootstrapCount <= 0 {
		return base
	}

	seeds := SeedSamples(w.rand, key, base, w.now(), w.bootstrapCount, w.bootstrapSpacing)

	if _, err := w.store.AppendBatch(ioCtx, seeds); err != nil {
		logger(ctx).Error(
			"failed to seed prices, starting from base",
			slog.String(logx.FieldPriceKey, key.String()),
			logx.Error(err),
		)
		return base
	}

	logger(ctx).Info(
		"prices seeded",
		slog.String(logx.FieldPriceKey, key.String()),
		slog.Int("count", len(seeds)),
	)

	w.enforceRetention(ctx, ioCtx, key)

	return base
}
