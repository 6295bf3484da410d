package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"price_simulator/internal/application"
	"price_simulator/pkg/logx"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.SetDefault(logx.NewLogger(os.Stdout, "info"))

	if err := application.Run(ctx); err != nil {
		slog.Error("application failed", logx.Error(err))
		cancel()
		os.Exit(1) //nolint:gocritic
	}
}
