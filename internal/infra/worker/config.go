package worker

import (
	"log/slog"
	"time"

	"paper-digest/internal/pkg/config"
)

// WorkerConfig controls when the digest runs and where health is served.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression. Default "0 7 * * *".
	CronSchedule string

	// Timezone is the IANA zone the schedule is evaluated in. Default "UTC",
	// which matches the UTC day window of the feed query.
	Timezone string

	// RunTimeout bounds one digest run. Range 1m-6h, default 2h.
	RunTimeout time.Duration

	// HealthPort serves /health, /health/ready and /metrics. Range 1024-65535.
	HealthPort int

	// RunOnStart triggers one run immediately after startup.
	RunOnStart bool
}

// DefaultConfig returns the production schedule.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "0 7 * * *",
		Timezone:     "UTC",
		RunTimeout:   2 * time.Hour,
		HealthPort:   9091,
	}
}

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, err)
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, err)
	}
	if err := config.ValidateDuration(c.RunTimeout, time.Minute, 6*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

// ValidationErrors aggregates field errors.
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	msg := "validation failed:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// LoadConfigFromEnv overlays the environment on DefaultConfig. It never
// fails: an invalid value is replaced by its default, logged and counted.
//
// Environment variables:
//   - CRON_SCHEDULE
//   - WORKER_TIMEZONE
//   - RUN_TIMEOUT (e.g. "90m")
//   - WORKER_HEALTH_PORT
//   - RUN_ON_START ("true"/"false")
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, result config.ConfigLoadResult) config.ConfigLoadResult {
		if result.FallbackApplied {
			fallbackApplied = true
			metrics.RecordFallback(field)
			for _, warning := range result.Warnings {
				logger.Warn("Configuration fallback applied",
					slog.String("field", field),
					slog.String("warning", warning))
			}
		}
		return result
	}

	cfg.CronSchedule = apply("cron_schedule",
		config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)).Value.(string)

	cfg.Timezone = apply("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)).Value.(string)

	cfg.RunTimeout = apply("run_timeout",
		config.LoadEnvDuration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 6*time.Hour)
		})).Value.(time.Duration)

	cfg.HealthPort = apply("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		})).Value.(int)

	cfg.RunOnStart = apply("run_on_start",
		config.LoadEnvBool("RUN_ON_START", cfg.RunOnStart)).Value.(bool)

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg
}
