package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "redditpersona"

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// GenerationsTotal counts generate requests by outcome.
	GenerationsTotal *prometheus.CounterVec
	// GenerationDuration measures pipeline runs in seconds.
	GenerationDuration prometheus.Histogram
	// RecordsPerRun observes how many records a run analyzed.
	RecordsPerRun prometheus.Histogram
	// DownloadsTotal counts report downloads by result.
	DownloadsTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Total number of persona generation requests",
			},
			[]string{"status"},
		),
		GenerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_duration_seconds",
				Help:      "Duration of persona generation runs in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
		),
		RecordsPerRun: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "records_per_run",
				Help:      "Distribution of normalized records per run",
				Buckets:   []float64{0, 10, 50, 100, 200, 300},
			},
		),
		DownloadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloads_total",
				Help:      "Total number of report downloads",
			},
			[]string{"result"},
		),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordGeneration records one generate request.
func (m *Metrics) RecordGeneration(status string, seconds float64, records int) {
	m.GenerationsTotal.WithLabelValues(status).Inc()
	if seconds > 0 {
		m.GenerationDuration.Observe(seconds)
	}
	if records >= 0 {
		m.RecordsPerRun.Observe(float64(records))
	}
}
