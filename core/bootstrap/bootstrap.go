package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/rosterbot/core/config"
	"github.com/m3rciful/rosterbot/core/logger"
)

// Options control the bootstrap pipeline: logger first, then storage.
type Options[S io.Closer] struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	OpenStore  func(ctx context.Context, cfg coreconfig.StorageConfig) (S, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result[S io.Closer] struct {
	Store S
}

// Run initializes the logger and opens the configured store.
func Run[S io.Closer](ctx context.Context, opts Options[S]) (*Result[S], error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	if opts.OpenStore == nil {
		return nil, fmt.Errorf("bootstrap: OpenStore is required")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	start := time.Now()
	st, err := opts.OpenStore(ctx, opts.Config.Storage)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: storage initialization failed: %w", err)
	}
	logger.Store.Info("storage ready",
		slog.String("event", "store.ready"),
		slog.String("driver", opts.Config.Storage.Driver),
		slog.Duration("duration", logger.Took(start)),
	)
	return &Result[S]{Store: st}, nil
}
