package model

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"seqpredict/internal/features"
)

// NeuralParams are the learned weights of the one-hidden-unit network:
// an 8-element input weight vector, hidden bias, output weight, output bias.
type NeuralParams struct {
	W1 []float64 `json:"w1"`
	B1 float64   `json:"b1"`
	W2 float64   `json:"w2"`
	B2 float64   `json:"b2"`
}

// DefaultNeuralParams returns the fixed reset vector.
func DefaultNeuralParams() NeuralParams {
	return NeuralParams{
		W1: []float64{0.2, 0.5, 0.8, -0.4, 0.6, 0.3, -0.2, 0.5},
		B1: 0.1,
		W2: 2.4,
		B2: -3.0,
	}
}

// Neural scores an 8-feature window vector through a single tanh hidden
// unit and a sigmoid output. The decision threshold sits at 0.55 rather
// than 0.5 to bias the spike call toward precision.
type Neural struct {
	params  NeuralParams
	window  int
	decay   float64
	spikeAt float64
	rate    float64
}

const neuralDecision = 0.55

func NewNeural(cfg Config) *Neural {
	cfg = cfg.WithDefaults()
	return &Neural{
		params:  DefaultNeuralParams(),
		window:  cfg.Window,
		decay:   cfg.NeuralDecay,
		spikeAt: cfg.SpikeThreshold,
		rate:    cfg.LearningRate,
	}
}

func (m *Neural) Name() string { return VariantNeural }

// Params returns a copy of the current parameter vector.
func (m *Neural) Params() NeuralParams {
	p := m.params
	p.W1 = append([]float64(nil), m.params.W1...)
	return p
}

func (m *Neural) Predict(seq []float64) Prediction {
	window := features.Tail(seq, m.window)
	vec := features.Vector(window, m.decay)

	hz := m.params.B1 + floats.Dot(vec, m.params.W1)
	h := tanh(hz)
	oz := m.params.W2*h + m.params.B2
	p := sigmoid(oz)
	conf := probConfidence(p)

	return Prediction{
		Spike:       p > neuralDecision,
		Probability: p,
		Confidence:  conf,
		Certainty:   certainty(conf),
		Explanation: fmt.Sprintf("hidden activation %.3f over last %d values", h, len(window)),
		ctx: &learnContext{
			features: vec,
			hidden:   h,
			prob:     p,
		},
	}
}

// Learn backpropagates one step using the feature vector and hidden
// activation retained at scoring time. A freshly recomputed activation
// would drift from the prediction the outcome was confirmed against.
func (m *Neural) Learn(actual float64, p *Prediction) error {
	ctx, err := p.takeContext()
	if err != nil {
		return err
	}
	errv := target(actual, m.spikeAt) - ctx.prob
	for i := range m.params.W1 {
		m.params.W1[i] += m.rate * errv * ctx.features[i]
	}
	m.params.B1 += m.rate * errv
	m.params.W2 += m.rate * errv * ctx.hidden
	m.params.B2 += m.rate * errv
	return nil
}

func (m *Neural) Reset() { m.params = DefaultNeuralParams() }

func (m *Neural) MarshalParams() (json.RawMessage, error) {
	return json.Marshal(m.params)
}

func (m *Neural) UnmarshalParams(raw json.RawMessage) error {
	var p NeuralParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("neural params: %w", err)
	}
	if len(p.W1) != features.VectorSize {
		return fmt.Errorf("neural params: want %d hidden weights, got %d", features.VectorSize, len(p.W1))
	}
	m.params = p
	return nil
}
