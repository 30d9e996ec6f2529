// Package metrics provides the Stats sink the shredder core reports
// timing and shred-count telemetry to, standing in for spec.md's opaque
// "Stats" collaborator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricNameElapsedMicroseconds = "turboshred_stage_elapsed_microseconds_total"
	MetricNameShredsProduced      = "turboshred_shreds_produced_total"

	LabelStage = "stage"
	LabelKind  = "kind"

	StageSerialize   = "serialize"
	StageGenCoding   = "gen_coding"
	StageSignCoding  = "sign_coding"
	StageSignData    = "sign_data"
	StageMerkleTree  = "merkle_tree"
	StageReconstruct = "reconstruct"
)

// Stats records elapsed-microsecond counters and shred counts emitted by
// the shredder core's inner loops. Implementations must be safe for
// concurrent use: the worker pool reports from multiple goroutines.
type Stats interface {
	// AddElapsedMicroseconds adds d (in microseconds) to the named
	// stage's running total.
	AddElapsedMicroseconds(stage string, d int64)

	// AddShredsProduced adds n to the named shred kind's running count.
	AddShredsProduced(kind string, n int)
}

// prometheusStats is the production Stats backed by promauto-registered
// collectors, mirroring the doublezero telemetry agent's metrics style.
type prometheusStats struct {
	elapsed *prometheus.CounterVec
	shreds  *prometheus.CounterVec
}

// NewPrometheusStats registers and returns a Prometheus-backed Stats
// sink. Call once per process; registering twice against the default
// registry panics, matching promauto's own behavior.
func NewPrometheusStats() Stats {
	return &prometheusStats{
		elapsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricNameElapsedMicroseconds,
				Help: "Cumulative microseconds spent in each shredder pipeline stage",
			},
			[]string{LabelStage},
		),
		shreds: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricNameShredsProduced,
				Help: "Number of shreds produced, by kind",
			},
			[]string{LabelKind},
		),
	}
}

func (s *prometheusStats) AddElapsedMicroseconds(stage string, d int64) {
	if d < 0 {
		return
	}
	s.elapsed.WithLabelValues(stage).Add(float64(d))
}

func (s *prometheusStats) AddShredsProduced(kind string, n int) {
	if n < 0 {
		return
	}
	s.shreds.WithLabelValues(kind).Add(float64(n))
}

type noopStats struct{}

// NewNoopStats returns a Stats that discards everything, for tests and
// callers that don't want a Prometheus registry dependency.
func NewNoopStats() Stats { return noopStats{} }

func (noopStats) AddElapsedMicroseconds(string, int64) {}
func (noopStats) AddShredsProduced(string, int)        {}
