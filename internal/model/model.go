// Package model implements the scoring strategies of the online predictor:
// a categorical mode vote, a logistic regression, and a one-hidden-unit
// network, all behind a single Model interface. Scoring is a pure function
// of the trailing sequence and the current parameters; learning mutates the
// parameters in place, one step per confirmed outcome.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Variant names accepted by New.
const (
	VariantCategory = "category"
	VariantLogistic = "logistic"
	VariantNeural   = "neural"
)

// ErrMissingLearningContext signals a learn call whose prediction no longer
// carries the retained feature/activation snapshot. Callers skip the update
// instead of guessing values.
var ErrMissingLearningContext = errors.New("missing learning context")

// Prediction is the value produced by a single scoring pass. It carries the
// retained internals the matching learning step needs; those are consumed
// exactly once and must not be reused across unrelated updates.
type Prediction struct {
	Label       string  `json:"label,omitempty"`      // categorical decision
	Spike       bool    `json:"spike"`                // threshold-exceedance decision
	Probability float64 `json:"probability"`          // in [0,1]; 0.5 when neutral
	Confidence  float64 `json:"confidence"`           // in [0,100]
	Certainty   string  `json:"certainty,omitempty"`  // High / Medium / Low
	Explanation string  `json:"explanation,omitempty"`
	RoughValue  float64 `json:"roughValue,omitempty"` // categorical value estimate

	ctx *learnContext
}

// learnContext is the snapshot of scoring internals a gradient step consumes.
// Recomputing these from a possibly-mutated sequence would decouple the
// gradient from the prediction actually shown, so they travel with the
// Prediction instead.
type learnContext struct {
	features []float64
	hidden   float64
	prob     float64
	consumed bool
}

// takeContext hands out the retained context exactly once.
func (p *Prediction) takeContext() (*learnContext, error) {
	if p == nil || p.ctx == nil {
		return nil, ErrMissingLearningContext
	}
	if p.ctx.consumed {
		return nil, fmt.Errorf("%w: already consumed", ErrMissingLearningContext)
	}
	p.ctx.consumed = true
	return p.ctx, nil
}

// Model is the contract shared by the three scoring strategies.
type Model interface {
	// Name reports the variant identifier.
	Name() string
	// Predict scores the trailing window of seq against the current
	// parameters. It never fails for well-formed numeric input; with too
	// little data it returns a neutral default.
	Predict(seq []float64) Prediction
	// Learn applies one parameter update from a confirmed outcome using the
	// context retained in p. Returns ErrMissingLearningContext when that
	// snapshot is absent or already spent; the update is then skipped.
	Learn(actual float64, p *Prediction) error
	// Reset restores the documented default parameters.
	Reset()
	// MarshalParams serializes the learned parameters as flat JSON.
	MarshalParams() (json.RawMessage, error)
	// UnmarshalParams replaces the learned parameters from a snapshot,
	// failing loudly on malformed input.
	UnmarshalParams(raw json.RawMessage) error
}

// Config tunes a strategy at construction time. Zero values fall back to
// the documented defaults.
type Config struct {
	SpikeThreshold float64 // outcome level that counts as a spike (7.0)
	LearningRate   float64 // gradient step size (0.01)
	Window         int     // raw-value window length (10)
	LagWindow      int     // categorical lag window length (5)
	Decay          float64 // recency decay, categorical/logistic (0.8)
	NeuralDecay    float64 // recency decay, neural features (0.85)
}

func (c Config) WithDefaults() Config {
	if c.SpikeThreshold == 0 {
		c.SpikeThreshold = 7.0
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.01
	}
	if c.Window == 0 {
		c.Window = 10
	}
	if c.LagWindow == 0 {
		c.LagWindow = 5
	}
	if c.Decay == 0 {
		c.Decay = 0.8
	}
	if c.NeuralDecay == 0 {
		c.NeuralDecay = 0.85
	}
	return c
}

// New constructs the strategy for the named variant.
func New(variant string, cfg Config) (Model, error) {
	switch variant {
	case VariantCategory:
		return NewCategorical(cfg), nil
	case VariantLogistic:
		return NewLogistic(cfg), nil
	case VariantNeural:
		return NewNeural(cfg), nil
	}
	return nil, fmt.Errorf("unknown model variant %q", variant)
}

func target(actual, threshold float64) float64 {
	if actual > threshold {
		return 1
	}
	return 0
}
