package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"price_simulator/internal/domain/entity"
	"price_simulator/internal/domain/value"
	"price_simulator/internal/metrics"
	"price_simulator/pkg/contextx"
	"price_simulator/pkg/logx"
)

const (
	defaultFluctuation      = 0.05
	defaultMinInterval      = 2 * time.Second
	defaultMaxInterval      = 5 * time.Second
	defaultMaxRecords       = 1000
	defaultBootstrapCount   = 50
	defaultBootstrapSpacing = 5 * time.Second
	defaultIOTimeout        = 5 * time.Second
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Store interface {
	Append(ctx context.Context, key value.TrackedKey, price float64) (entity.PriceSample, error)
	AppendBatch(ctx context.Context, samples []entity.PriceSample) ([]entity.PriceSample, error)
	Latest(ctx context.Context, key value.TrackedKey) (entity.PriceSample, bool, error)
	EnforceRetention(ctx context.Context, key value.TrackedKey, maxRecords int) (int64, error)
}

type Publisher interface {
	Publish(ctx context.Context, sample entity.PriceSample) error
}

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// PriceSimulator is the single writer of the price series. Once started it
// seeds empty keys and then, after every randomized sleep, moves each key by
// one random-walk step and persists the result.
type PriceSimulator struct {
	store     Store
	keys      []value.TrackedKey
	bases     map[value.TrackedKey]float64
	publisher Publisher
	metrics   *metrics.Simulator
	rand      Rand
	now       func() time.Time

	fluctuation      float64
	minInterval      time.Duration
	maxInterval      time.Duration
	maxRecords       int
	bootstrapCount   int
	bootstrapSpacing time.Duration
	ioTimeout        time.Duration

	priceMu sync.RWMutex
	current map[value.TrackedKey]float64

	ticks atomic.Uint64

	// Control fields
	mu         sync.Mutex
	state      State
	cancelFunc context.CancelFunc
	done       chan struct{} // closed when the current run exits
}

func NewPriceSimulator(
	store Store,
	keys value.KeySet,
	bases map[value.TrackedKey]float64,
) *PriceSimulator {
	return &PriceSimulator{
		store:            store,
		keys:             keys.Keys(),
		bases:            bases,
		metrics:          metrics.NewSimulator(prometheus.NewRegistry()),
		rand:             globalRand{},
		now:              time.Now,
		fluctuation:      defaultFluctuation,
		minInterval:      defaultMinInterval,
		maxInterval:      defaultMaxInterval,
		maxRecords:       defaultMaxRecords,
		bootstrapCount:   defaultBootstrapCount,
		bootstrapSpacing: defaultBootstrapSpacing,
		ioTimeout:        defaultIOTimeout,
		current:          make(map[value.TrackedKey]float64, keys.Len()),
	}
}

func (w *PriceSimulator) WithFluctuation(fraction float64) *PriceSimulator {
	w.fluctuation = fraction
	return w
}

func (w *PriceSimulator) WithTickInterval(minInterval, maxInterval time.Duration) *PriceSimulator {
	w.minInterval = minInterval
	w.maxInterval = maxInterval
	return w
}

func (w *PriceSimulator) WithMaxRecords(n int) *PriceSimulator {
	w.maxRecords = n
	return w
}

func (w *PriceSimulator) WithBootstrap(count int, spacing time.Duration) *PriceSimulator {
	w.bootstrapCount = count
	w.bootstrapSpacing = spacing
	return w
}

// WithIOTimeout bounds every store call made by the loop.
func (w *PriceSimulator) WithIOTimeout(d time.Duration) *PriceSimulator {
	w.ioTimeout = d
	return w
}

func (w *PriceSimulator) WithPublisher(p Publisher) *PriceSimulator {
	w.publisher = p
	return w
}

func (w *PriceSimulator) WithMetrics(m *metrics.Simulator) *PriceSimulator {
	w.metrics = m
	return w
}

func (w *PriceSimulator) WithRand(r Rand) *PriceSimulator {
	w.rand = r
	return w
}

func (w *PriceSimulator) WithClock(now func() time.Time) *PriceSimulator {
	w.now = now
	return w
}

// Start launches the simulation loop. It returns once the loop goroutine is
// spawned; bootstrap runs in that goroutine. Calling Start while the
// simulator is starting or running is a no-op. While a previous run is
// stopping, Start waits for it to exit and then starts a new one. The loop
// outlives ctx cancellation and ends only on Stop, while values carried by
// ctx (the logger) are kept.
func (w *PriceSimulator) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for w.state == StateStopping {
		done := w.done

		w.mu.Unlock()
		<-done
		w.mu.Lock()
	}

	if w.state != StateStopped {
		return nil
	}

	if err := w.validate(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	w.cancelFunc = cancel
	w.done = done
	w.state = StateStarting

	go func() {
		defer func() {
			cancel()

			w.mu.Lock()
			w.state = StateStopped
			w.cancelFunc = nil
			w.done = nil
			close(done)
			w.mu.Unlock()
		}()

		w.run(runCtx)
	}()

	return nil
}

// Stop interrupts the pending sleep, lets the key update in flight finish
// and waits for the loop to exit. It waits only for the run that was active
// when it was called. Safe to call in any state.
func (w *PriceSimulator) Stop() {
	w.mu.Lock()

	if w.state == StateStopped {
		w.mu.Unlock()
		return
	}

	done := w.done

	w.state = StateStopping
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	<-done
}

func (w *PriceSimulator) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *PriceSimulator) IsRunning() bool {
	return w.State() == StateRunning
}

// Ticks returns the number of completed ticks since construction.
func (w *PriceSimulator) Ticks() uint64 {
	return w.ticks.Load()
}

// Current returns the in-memory price of key with full precision.
func (w *PriceSimulator) Current(key value.TrackedKey) (float64, bool) {
	w.priceMu.RLock()
	defer w.priceMu.RUnlock()

	v, ok := w.current[key]
	return v, ok
}

// Ready reports an error unless the loop is running.
func (w *PriceSimulator) Ready(context.Context) error {
	if state := w.State(); state != StateRunning {
		return fmt.Errorf("price simulator is %s", state)
	}

	return nil
}

func (w *PriceSimulator) validate() error {
	if len(w.keys) == 0 {
		return errors.New("no tracked keys")
	}

	for _, key := range w.keys {
		if base, ok := w.bases[key]; !ok || base <= 0 {
			return fmt.Errorf("no positive base price for %q", key)
		}
	}

	if w.minInterval <= 0 || w.maxInterval < w.minInterval {
		return fmt.Errorf("invalid tick interval [%s, %s]", w.minInterval, w.maxInterval)
	}

	if w.maxRecords <= 0 {
		return fmt.Errorf("max records must be positive, got %d", w.maxRecords)
	}

	return nil
}

func (w *PriceSimulator) run(ctx context.Context) {
	logger(ctx).Info("price simulator starting", slog.Int("keys", len(w.keys)))

	w.bootstrap(ctx)

	if !w.markRunning() {
		logger(ctx).Info("price simulator stopped during bootstrap")
		return
	}

	logger(ctx).Info("price simulator running", logx.Stringer(logx.FieldState, StateRunning))

	for {
		if err := w.sleep(ctx); err != nil {
			logger(ctx).Info("price simulator stopped", slog.Uint64(logx.FieldTick, w.Ticks()))
			return
		}

		w.tick(ctx)
	}
}

func (w *PriceSimulator) markRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateStarting {
		return false
	}

	w.state = StateRunning
	return true
}

func (w *PriceSimulator) sleep(ctx context.Context) error {
	timer := time.NewTimer(uniformDuration(w.rand, w.minInterval, w.maxInterval))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// tick updates every key once. A stop request is honored between keys; the
// interrupted tick is not counted.
func (w *PriceSimulator) tick(ctx context.Context) {
	start := time.Now()

	for _, key := range w.keys {
		if ctx.Err() != nil {
			return
		}

		w.updateKey(ctx, key)
	}

	w.ticks.Add(1)
	w.metrics.RecordTick(time.Since(start))
}

// updateKey persists one random-walk step of key. On a failed append the
// in-memory price stays unchanged so the next tick retries from it.
func (w *PriceSimulator) updateKey(ctx context.Context, key value.TrackedKey) {
	ioCtx, cancel := w.ioContext(ctx)
	defer cancel()

	current, _ := w.Current(key)
	next := NextPrice(w.rand, current, w.bases[key], w.fluctuation)

	sample, err := w.store.Append(ioCtx, key, Round2(next))
	if err != nil {
		w.metrics.RecordAppendError(key.String())
		logger(ctx).Error(
			"failed to append price",
			slog.String(logx.FieldPriceKey, key.String()),
			logx.Error(err),
		)
		return
	}

	w.setCurrent(key, next)
	w.metrics.SetCurrentPrice(key.String(), sample.Value)

	w.enforceRetention(ctx, ioCtx, key)

	if w.publisher != nil {
		if err := w.publisher.Publish(ioCtx, sample); err != nil {
			w.metrics.RecordPublishError()
			logger(ctx).Warn(
				"failed to publish price",
				slog.String(logx.FieldPriceKey, key.String()),
				logx.Error(err),
			)
		}
	}

	logger(ctx).Debug(
		"price updated",
		slog.String(logx.FieldPriceKey, key.String()),
		slog.Float64(logx.FieldPriceValue, sample.Value),
	)
}

func (w *PriceSimulator) enforceRetention(ctx, ioCtx context.Context, key value.TrackedKey) {
	deleted, err := w.store.EnforceRetention(ioCtx, key, w.maxRecords)
	if err != nil {
		logger(ctx).Error(
			"failed to enforce retention",
			slog.String(logx.FieldPriceKey, key.String()),
			logx.Error(err),
		)
		return
	}

	w.metrics.RecordRetention(key.String(), deleted)

	if deleted > 0 {
		logger(ctx).Debug(
			"old prices deleted",
			slog.String(logx.FieldPriceKey, key.String()),
			slog.Int64(logx.FieldDeleted, deleted),
		)
	}
}

// ioContext detaches store calls from the stop signal so that an in-flight
// write completes, bounded by the I/O timeout.
func (w *PriceSimulator) ioContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), w.ioTimeout)
}

func (w *PriceSimulator) setCurrent(key value.TrackedKey, price float64) {
	w.priceMu.Lock()
	defer w.priceMu.Unlock()

	w.current[key] = price
}

type globalRand struct{}

func (globalRand) Float64() float64 {
	return rand.Float64() //nolint:gosec
}
