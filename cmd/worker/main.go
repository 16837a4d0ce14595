package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"paper-digest/internal/app"
	"paper-digest/internal/config"
	"paper-digest/internal/infra/worker"
	"paper-digest/internal/observability/logging"
)

func main() {
	logger := logging.NewFromEnv()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Worker settings fail open; the digest settings must be valid.
	workerMetrics := worker.NewWorkerMetrics(prometheus.DefaultRegisterer)
	workerConfig := worker.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Bool("run_on_start", workerConfig.RunOnStart))

	digestConfig, err := config.LoadDigestConfig()
	if err != nil {
		logger.Error("failed to load digest configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("digest configuration loaded", slog.Any("config", digestConfig))

	svc, err := app.Build(digestConfig, app.Options{})
	if err != nil {
		logger.Error("failed to build pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := worker.NewHealthServer(healthAddr, logger, prometheus.DefaultGatherer)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	job := func(ctx context.Context) error {
		stats, err := svc.Run(ctx)
		if stats != nil {
			logger.Info("digest run finished",
				slog.String("run_id", stats.RunID),
				slog.Int("delivered", stats.Delivered),
				slog.Int("delivery_errors", stats.DeliveryErrors),
				slog.Duration("duration", stats.Duration))
		}
		return err
	}

	scheduler := worker.NewScheduler(*workerConfig, job, workerMetrics, logger)
	if err := scheduler.Start(ctx, func() { healthServer.SetReady(true) }); err != nil {
		logger.Error("scheduler failed", slog.Any("error", err))
		os.Exit(1)
	}
	healthServer.SetReady(false)
	logger.Info("worker stopped")
}
