package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConfigMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConfigMetrics(reg, "test_component")

	m.RecordFallback("cron_schedule")
	m.RecordFallback("cron_schedule")
	m.SetFallbackActive(true)
	m.RecordLoadTimestamp()

	if got := testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("cron_schedule")); got != 2 {
		t.Errorf("fallbacks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("cron_schedule")); got != 2 {
		t.Errorf("validation errors = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FallbackActive); got != 1 {
		t.Errorf("fallback active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LoadTimestamp); got <= 0 {
		t.Errorf("load timestamp = %v, want > 0", got)
	}

	m.SetFallbackActive(false)
	if got := testutil.ToFloat64(m.FallbackActive); got != 0 {
		t.Errorf("fallback active = %v, want 0", got)
	}

	if n, err := testutil.GatherAndCount(reg); err != nil || n != 4 {
		t.Errorf("gathered %d metric families (err %v), want 4", n, err)
	}
}
