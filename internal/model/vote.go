package model

import (
	"encoding/json"
	"fmt"

	"seqpredict/internal/category"
	"seqpredict/internal/features"
)

// stateMidpoints are the fallback value estimates when no recent value
// shares the predicted category.
var stateMidpoints = [3]float64{1.75, 3.10, 4.40}

// Categorical predicts the next ordinal state as the mode of the last few
// categorized observations. It has no learned weights; its only persistent
// companion state is the transition map maintained by the session.
type Categorical struct {
	lagWindow   int
	valueWindow int
	decay       float64
}

func NewCategorical(cfg Config) *Categorical {
	cfg = cfg.WithDefaults()
	return &Categorical{
		lagWindow:   cfg.LagWindow,
		valueWindow: cfg.Window,
		decay:       cfg.Decay,
	}
}

func (m *Categorical) Name() string { return VariantCategory }

func (m *Categorical) Predict(seq []float64) Prediction {
	states := category.States(seq)
	if len(states) > m.lagWindow {
		states = states[len(states)-m.lagWindow:]
	}
	if len(states) == 0 {
		return Prediction{
			Label:       category.Mid.String(),
			RoughValue:  stateMidpoints[category.Mid],
			Confidence:  0,
			Certainty:   certainty(0),
			Explanation: "no observations yet",
		}
	}

	mode := modeState(states)
	conf := lagConfidence(states)

	return Prediction{
		Label:       mode.String(),
		RoughValue:  m.roughValue(seq, mode),
		Confidence:  conf,
		Certainty:   certainty(conf),
		Explanation: fmt.Sprintf("mode of last %d states is %s", len(states), mode),
	}
}

// modeState returns the most frequent state. Equal counts resolve to the
// highest state code so the result is deterministic.
func modeState(states []category.State) category.State {
	var counts [3]int
	for _, s := range states {
		counts[s]++
	}
	best := category.Low
	for s := category.Mid; s <= category.High; s++ {
		if counts[s] >= counts[best] {
			best = s
		}
	}
	return best
}

// lagConfidence maps the number of distinct recent states onto [0,100]:
// fewer distinct states means a more locked-in pattern.
func lagConfidence(states []category.State) float64 {
	var seen [3]bool
	unique := 0
	for _, s := range states {
		if !seen[s] {
			seen[s] = true
			unique++
		}
	}
	return (6 - float64(unique)) / 5 * 100
}

// roughValue estimates the next raw value as the recency-weighted mean of
// recent values in the predicted category, falling back to the category
// midpoint when none match.
func (m *Categorical) roughValue(seq []float64, mode category.State) float64 {
	window := features.Tail(seq, m.valueWindow)
	weights := features.Weights(len(window), m.decay)

	var sum, sumW float64
	for i, x := range window {
		s, err := category.Categorize(x)
		if err != nil || s != mode {
			continue
		}
		sum += weights[i] * x
		sumW += weights[i]
	}
	if sumW == 0 {
		return stateMidpoints[mode]
	}
	return sum / sumW
}

// Learn is a no-op: the categorical strategy has no gradient. The session
// refreshes the transition map from the capped sequence instead.
func (m *Categorical) Learn(actual float64, p *Prediction) error { return nil }

func (m *Categorical) Reset() {}

func (m *Categorical) MarshalParams() (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (m *Categorical) UnmarshalParams(raw json.RawMessage) error {
	if len(raw) > 0 && !json.Valid(raw) {
		return fmt.Errorf("categorical params: invalid JSON")
	}
	return nil
}
