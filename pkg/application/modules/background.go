package modules

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

type startStopper interface {
	Start(ctx context.Context) error
	Stop()
}

// Background starts a long-running worker and stops it synchronously when
// ctx is cancelled.
type Background struct {
	Name   string
	Worker startStopper
}

func (b Background) Run(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		if err := b.Worker.Start(ctx); err != nil {
			return fmt.Errorf("%s.Start: %w", b.Name, err)
		}

		logger(ctx).Info("background worker started", slog.String("name", b.Name))

		<-ctx.Done()

		b.Worker.Stop()

		logger(ctx).Info("background worker stopped", slog.String("name", b.Name))

		return nil
	})
}
