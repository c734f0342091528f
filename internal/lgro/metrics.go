package lgro

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per-run counters for the node_exporter textfile collector.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	steps    *prometheus.CounterVec
	entities *prometheus.GaugeVec
	duration *prometheus.GaugeVec
	lastRun  *prometheus.GaugeVec
}

// NewMetrics creates a Metrics with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "npadb",
			Subsystem: "lgro",
			Name:      "steps_total",
			Help:      "Reorganization write steps attempted, by step and result.",
		}, []string{"step", "result"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "npadb",
			Subsystem: "lgro",
			Name:      "entities",
			Help:      "Entities in the last run, by outcome.",
		}, []string{"year", "mode", "outcome"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "npadb",
			Subsystem: "lgro",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}, []string{"year", "mode"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "npadb",
			Subsystem: "lgro",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}, []string{"year", "mode"}),
	}
	m.registry.MustRegister(m.steps, m.entities, m.duration, m.lastRun)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeStep(step string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.steps.WithLabelValues(step, result).Inc()
}

// ObserveSummary records the outcome counts of a finished run.
func (m *Metrics) ObserveSummary(s Summary, elapsed time.Duration) {
	if m == nil {
		return
	}
	year := fmt.Sprint(s.Year)
	mode := s.Mode()
	m.entities.WithLabelValues(year, mode, "created").Set(float64(len(s.Created)))
	m.entities.WithLabelValues(year, mode, "existing").Set(float64(len(s.Existing)))
	m.entities.WithLabelValues(year, mode, "abolished").Set(float64(len(s.Abolished)))
	m.entities.WithLabelValues(year, mode, "skipped").Set(float64(len(s.Skipped)))
	m.entities.WithLabelValues(year, mode, "failed").Set(float64(len(s.Failed)))
	m.duration.WithLabelValues(year, mode).Set(elapsed.Seconds())
	m.lastRun.WithLabelValues(year, mode).SetToCurrentTime()
}

// WriteTextfile writes the metrics in text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
