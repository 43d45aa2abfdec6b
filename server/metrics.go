package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "envpipe"

// Metrics holds prometheus metrics for the compile API.
type Metrics struct {
	compilations    *prometheus.CounterVec
	compileDuration *prometheus.HistogramVec
	environments    prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		compilations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compilations_total",
				Help:      "Pipeline definitions compiled, by variant and result.",
			},
			[]string{"variant", "result"},
		),
		compileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compile_duration_seconds",
				Help:      "Time spent validating and compiling a definition.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
			},
			[]string{"result"},
		),
		environments: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "environments_per_pipeline",
				Help:      "Environments in each successfully compiled pipeline.",
				Buckets:   prometheus.LinearBuckets(1, 2, 8),
			},
		),
	}
}

// ObserveCompile records one compilation.
func (m *Metrics) ObserveCompile(variant string, envs int, elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	if variant == "" {
		variant = "unknown"
	}
	m.compilations.WithLabelValues(variant, result).Inc()
	m.compileDuration.WithLabelValues(result).Observe(elapsed.Seconds())
	if err == nil {
		m.environments.Observe(float64(envs))
	}
}

// MustRegister registers the metrics with the given Prometheus registry.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(m.compilations)
	registry.MustRegister(m.compileDuration)
	registry.MustRegister(m.environments)
}
