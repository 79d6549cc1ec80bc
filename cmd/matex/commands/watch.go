package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/orthopole/matex/internal/build"
	"github.com/orthopole/matex/internal/config"
	"github.com/orthopole/matex/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Interval time.Duration `help:"Also rebuild on a fixed interval (e.g. 10m); zero disables"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForBuild(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rebuild := func(ctx context.Context) error {
		builder := build.NewBuilder(".", cfg)
		result, err := builder.Run(ctx, false)
		if errors.Is(err, build.ErrCompileFailed) {
			for _, issue := range result.Diagnostics.Issues {
				slog.Error("Compile error", "file", issue.File, "line", issue.Line, "message", issue.Message)
			}
		}
		return err
	}

	// Initial build; watch keeps running when it fails.
	if err := rebuild(ctx); err != nil {
		slog.Warn("Initial build failed", "error", err)
	}

	return watch.New(".", cfg, w.Interval, rebuild).Run(ctx)
}
