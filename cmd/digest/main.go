// Package main runs one paper digest and exits.
// Usage: paper-digest [-dry-run] [-timeout 2h]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paper-digest/internal/app"
	"paper-digest/internal/config"
	"paper-digest/internal/observability/logging"
	"paper-digest/internal/usecase/digest"
)

func main() {
	var (
		dryRun  bool
		timeout time.Duration
	)
	flag.BoolVar(&dryRun, "dry-run", false, "Print digests to stdout instead of delivering them")
	flag.DurationVar(&timeout, "timeout", 2*time.Hour, "Upper bound for the whole run")
	flag.Parse()

	logger := logging.NewFromEnv()
	slog.SetDefault(logger)

	// Dry runs need no delivery secrets.
	if dryRun {
		_ = os.Setenv("DELIVERY_CHANNEL", config.DeliveryStdout)
	}
	cfg, err := config.LoadDigestConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Any("config", cfg), slog.Bool("dry_run", dryRun))

	svc, err := app.Build(cfg, app.Options{DryRun: dryRun})
	if err != nil {
		logger.Error("failed to build pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stats, err := svc.Run(ctx)
	if stats != nil {
		logger.Info("digest finished",
			slog.String("run_id", stats.RunID),
			slog.Int("candidates", stats.Candidates),
			slog.Int("selected", stats.Selected),
			slog.Int("delivered", stats.Delivered),
			slog.Int("extract_errors", stats.ExtractErrors),
			slog.Int("delivery_errors", stats.DeliveryErrors),
			slog.Bool("insufficient", stats.Insufficient),
			slog.Duration("duration", stats.Duration))
	}
	if err != nil {
		logger.Error("digest failed", slog.Any("error", err))
		if errors.Is(err, digest.ErrDeliveryFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
