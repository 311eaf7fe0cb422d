package model

import (
	"encoding/json"
	"fmt"

	"seqpredict/internal/features"
)

// LogisticParams are the four learned scalars of the logistic strategy.
type LogisticParams struct {
	Intercept   float64 `json:"intercept"`
	MeanWeight  float64 `json:"meanWeight"`
	StdWeight   float64 `json:"stdWeight"`
	SlopeWeight float64 `json:"slopeWeight"`
}

// DefaultLogisticParams returns the fixed reset vector.
func DefaultLogisticParams() LogisticParams {
	return LogisticParams{
		Intercept:   -3.5,
		MeanWeight:  0.4,
		StdWeight:   1.1,
		SlopeWeight: 0.8,
	}
}

// Logistic predicts the probability that the next observation exceeds the
// spike threshold from three recency-weighted window statistics.
type Logistic struct {
	params  LogisticParams
	window  int
	decay   float64
	spikeAt float64
	rate    float64
}

func NewLogistic(cfg Config) *Logistic {
	cfg = cfg.WithDefaults()
	return &Logistic{
		params:  DefaultLogisticParams(),
		window:  cfg.Window,
		decay:   cfg.Decay,
		spikeAt: cfg.SpikeThreshold,
		rate:    cfg.LearningRate,
	}
}

func (m *Logistic) Name() string { return VariantLogistic }

// Params returns a copy of the current parameter vector.
func (m *Logistic) Params() LogisticParams { return m.params }

func (m *Logistic) Predict(seq []float64) Prediction {
	if len(seq) < 2 {
		// Not enough data for window statistics; neutral default, no
		// learning context so a confirm against it is skipped.
		return Prediction{
			Probability: 0.5,
			Confidence:  0,
			Certainty:   certainty(0),
			Explanation: "insufficient data for a spike estimate",
		}
	}

	window := features.Tail(seq, m.window)
	mean, std, slope := features.Stats(window, m.decay)

	p := sigmoid(m.score(mean, std, slope))
	conf := probConfidence(p)

	return Prediction{
		Spike:       p > 0.5,
		Probability: p,
		Confidence:  conf,
		Certainty:   certainty(conf),
		Explanation: fmt.Sprintf("weighted mean %.2f, std %.2f, slope %.2f over last %d values", mean, std, slope, len(window)),
		ctx: &learnContext{
			features: []float64{mean, std, slope},
			prob:     p,
		},
	}
}

func (m *Logistic) score(mean, std, slope float64) float64 {
	return m.params.Intercept + m.params.MeanWeight*mean + m.params.StdWeight*std + m.params.SlopeWeight*slope
}

// Learn takes one gradient step toward the realized outcome. The intercept
// updates with an implicit feature of 1.
func (m *Logistic) Learn(actual float64, p *Prediction) error {
	ctx, err := p.takeContext()
	if err != nil {
		return err
	}
	errv := target(actual, m.spikeAt) - ctx.prob
	m.params.MeanWeight += m.rate * errv * ctx.features[0]
	m.params.StdWeight += m.rate * errv * ctx.features[1]
	m.params.SlopeWeight += m.rate * errv * ctx.features[2]
	m.params.Intercept += m.rate * errv
	return nil
}

func (m *Logistic) Reset() { m.params = DefaultLogisticParams() }

func (m *Logistic) MarshalParams() (json.RawMessage, error) {
	return json.Marshal(m.params)
}

func (m *Logistic) UnmarshalParams(raw json.RawMessage) error {
	var p LogisticParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("logistic params: %w", err)
	}
	m.params = p
	return nil
}
