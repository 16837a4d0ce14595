package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"paper-digest/internal/pkg/config"
)

// WorkerMetrics adds scheduled-run metrics to the worker's configuration metrics.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// JobRunsTotal counts runs by status (started, success, failure, skipped).
	JobRunsTotal *prometheus.CounterVec

	JobDurationSeconds prometheus.Histogram

	// LastSuccessTimestamp is the Unix time of the last successful run.
	LastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics with reg, or with the
// default registerer when reg is nil.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics(reg, "worker"),

		JobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_digest_job_runs_total",
			Help: "Total number of scheduled digest runs by status",
		}, []string{"status"}),

		JobDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_digest_job_duration_seconds",
			Help:    "Duration of scheduled digest runs in seconds",
			Buckets: []float64{10, 30, 60, 300, 900, 1800, 3600, 7200},
		}),

		LastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_digest_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful digest run",
		}),
	}
}

func (m *WorkerMetrics) RecordJobRun(status string) {
	m.JobRunsTotal.WithLabelValues(status).Inc()
}

func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.JobDurationSeconds.Observe(seconds)
}

func (m *WorkerMetrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}
