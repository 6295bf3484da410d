// Package application assembles the price simulator service from its
// configuration and runs it until the context is cancelled.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"price_simulator/internal/config"
	"price_simulator/internal/domain/service/price"
	"price_simulator/internal/domain/value"
	"price_simulator/internal/infrastructure/broadcast"
	"price_simulator/internal/metrics"
	"price_simulator/internal/server"
	"price_simulator/internal/worker"
	"price_simulator/pkg/application/modules"
	"price_simulator/pkg/contextx"
	"price_simulator/pkg/logx"
	"price_simulator/pkg/probe"
)

const httpReadHeaderTimeout = 5 * time.Second

func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	log := logx.NewLogger(os.Stdout, cfg.Log.Level).With(
		slog.String(logx.FieldAppName, cfg.App.Name),
		slog.String(logx.FieldAppVersion, cfg.App.Version),
	)
	slog.SetDefault(log)
	ctx = contextx.WithLogger(ctx, log)

	keys, err := cfg.Price.KeySet()
	if err != nil {
		return fmt.Errorf("cfg.Price.KeySet: %w", err)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("openStore: %w", err)
	}
	defer closeStore(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	simulator := worker.NewPriceSimulator(store, keys, basePrices(cfg.Price)).
		WithFluctuation(cfg.Price.FluctuationFraction).
		WithTickInterval(cfg.Price.MinTickInterval, cfg.Price.MaxTickInterval).
		WithMaxRecords(cfg.Price.MaxRecordsPerKey).
		WithBootstrap(cfg.Price.BootstrapSampleCount, cfg.Price.BootstrapSampleSpacing).
		WithIOTimeout(cfg.Price.IOTimeout).
		WithMetrics(metrics.NewSimulator(registry))

	if cfg.Redis.Enabled() {
		redisConnector := newRedisConnector(cfg.Redis)
		defer redisConnector.Close(ctx)

		simulator.WithPublisher(
			broadcast.NewRedisPublisher(redisConnector.Client(ctx)).WithLatestTTL(cfg.Redis.LatestTTL),
		)
	}

	priceService := price.NewService(store, keys).
		WithHistoryLimits(cfg.Price.HistoryDefaultLimit, cfg.Price.HistoryMaxLimit).
		WithLatestCacheTTL(cfg.Price.LatestCacheTTL)

	router := server.NewRouter(
		server.NewServer(
			server.NewPriceServer(priceService),
			server.NewSimulatorServer(simulator),
		),
		logx.NewSensitiveDataMasker(),
		cfg.HTTP.LogFieldMaxLen,
	)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: httpReadHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	modules.Background{
		Name:   "price-simulator",
		Worker: simulator,
	}.Run(gctx, g)

	modules.HTTPServer{
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}.Run(gctx, g, httpServer)

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.Probe.ListenAddress,
		Checks: []probe.Check{
			{Name: "store", Check: store.Ping},
			{Name: "simulator", Check: simulator.Ready},
		},
	}.Run(gctx, g)

	modules.MetricServer{
		ListenAddress: cfg.Metrics.ListenAddress,
		Gatherer:      registry,
	}.Run(gctx, g)

	log.Info("application started", slog.String(logx.FieldStorage, cfg.Storage.Driver))

	if err := g.Wait(); err != nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	log.Info("application stopped")

	return nil
}

func basePrices(cfg config.Price) map[value.TrackedKey]float64 {
	return lo.MapKeys(cfg.BasePrices, func(_ float64, name string) value.TrackedKey {
		return value.TrackedKey(name)
	})
}
