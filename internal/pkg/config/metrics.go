package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics tracks configuration loads of one component:
// <component>_config_load_timestamp, _validation_errors_total{field},
// _fallbacks_total{field} and _fallback_active.
type ConfigMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	FallbackActive        prometheus.Gauge
}

// NewConfigMetrics registers the metrics with reg. A nil reg uses the
// default registerer.
func NewConfigMetrics(reg prometheus.Registerer, componentName string) *ConfigMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &ConfigMetrics{
		LoadTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", componentName),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", componentName),
		}),
		ValidationErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", componentName),
		}, []string{"field"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", componentName),
		}, []string{"field"}),
		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", componentName),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName),
		}),
	}
}

func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordFallback counts a rejected value of field and the default it fell back to.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
		return
	}
	m.FallbackActive.Set(0)
}
