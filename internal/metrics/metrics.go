// Package metrics provides Prometheus metrics for the sequence predictor:
// observation intake, prediction volume and confidence, learning steps,
// and persistence activity, exposed via the metrics endpoint of the host
// process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the predictor.
type Metrics struct {
	// Intake metrics
	ObservationsTotal prometheus.Counter // Valid observations appended to the sequence
	RejectedInputs    prometheus.Counter // Inputs dropped by validation
	SequenceLength    prometheus.Gauge   // Current length of the capped sequence

	// Prediction metrics
	PredictionsTotal prometheus.Counter   // Total predictions generated
	ConfidenceScores prometheus.Histogram // Distribution of prediction confidence

	// Learning metrics
	LearnSteps       prometheus.Counter // Parameter updates applied
	LearnSkips       prometheus.Counter // Updates skipped for missing context
	TrailingAccuracy prometheus.Gauge   // Rolling accuracy over recent outcomes

	// Persistence metrics
	SnapshotSaves    prometheus.Counter // Session snapshots persisted
	SnapshotRestores prometheus.Counter // Session snapshots restored
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for
// testing). This keeps test metric collection isolated from the global
// Prometheus registry.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		ObservationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "observations_total",
			Help: "Valid observations appended to the sequence",
		}),
		RejectedInputs: factory.NewCounter(prometheus.CounterOpts{
			Name: "rejected_inputs_total",
			Help: "Inputs dropped by validation before entering the sequence",
		}),
		SequenceLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sequence_length",
			Help: "Current length of the capped observation sequence",
		}),
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total predictions generated",
		}),
		ConfidenceScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_confidence",
			Help:    "Distribution of prediction confidence scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		LearnSteps: factory.NewCounter(prometheus.CounterOpts{
			Name: "learn_steps_total",
			Help: "Online parameter updates applied",
		}),
		LearnSkips: factory.NewCounter(prometheus.CounterOpts{
			Name: "learn_skips_total",
			Help: "Updates skipped because the learning context was missing",
		}),
		TrailingAccuracy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trailing_accuracy",
			Help: "Rolling accuracy over the most recent confirmed outcomes",
		}),
		SnapshotSaves: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_saves_total",
			Help: "Session snapshots persisted",
		}),
		SnapshotRestores: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_restores_total",
			Help: "Session snapshots restored",
		}),
	}
}
