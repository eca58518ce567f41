// Package metrics records release step timings and outcomes on a private
// Prometheus registry and snapshots them in text exposition format after a
// run, so a node_exporter textfile collector (or a human) can pick them up.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder accumulates metrics for a single release run.
type Recorder struct {
	registry     *prometheus.Registry
	stepDuration *prometheus.GaugeVec
	releaseInfo  *prometheus.GaugeVec
	lastRun      prometheus.Gauge
}

// NewRecorder creates a Recorder for the given project.
func NewRecorder(project string) *Recorder {
	registry := prometheus.NewRegistry()

	constLabels := prometheus.Labels{"project": project}

	stepDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "relkit_step_duration_seconds",
		Help:        "Duration of each release pipeline step.",
		ConstLabels: constLabels,
	}, []string{"step", "status"})

	releaseInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "relkit_release_info",
		Help:        "Release run outcome; value is always 1.",
		ConstLabels: constLabels,
	}, []string{"version", "status"})

	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "relkit_last_run_timestamp_seconds",
		Help:        "Unix timestamp of the last release run.",
		ConstLabels: constLabels,
	})

	registry.MustRegister(stepDuration, releaseInfo, lastRun)

	return &Recorder{
		registry:     registry,
		stepDuration: stepDuration,
		releaseInfo:  releaseInfo,
		lastRun:      lastRun,
	}
}

// ObserveStep records the duration and outcome of a step.
func (r *Recorder) ObserveStep(step, status string, duration time.Duration) {
	r.stepDuration.WithLabelValues(step, status).Set(duration.Seconds())
}

// SetOutcome records the overall run outcome.
func (r *Recorder) SetOutcome(version, status string) {
	r.releaseInfo.WithLabelValues(version, status).Set(1)
	r.lastRun.SetToCurrentTime()
}

// WriteTextfile writes the gathered metrics to path in text exposition
// format. The write goes through a temp file plus rename so a collector
// never reads a partial snapshot.
func (r *Recorder) WriteTextfile(path string) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp metrics file: %w", err)
	}
	tmpName := tmp.Name()

	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(tmp, family); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp metrics file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move metrics file into place: %w", err)
	}

	return nil
}
