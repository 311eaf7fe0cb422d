package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqpredict/internal/features"
)

func TestNeural_EmptySequence(t *testing.T) {
	m := NewNeural(Config{})

	// Degenerate feature vector [1 0 0 0 0 0 0 0]:
	// h = tanh(0.1 + 0.2), p = sigmoid(2.4*h - 3.0).
	p := m.Predict(nil)
	h := math.Tanh(0.3)
	want := 1.0 / (1.0 + math.Exp(-(2.4*h - 3.0)))

	assert.InDelta(t, want, p.Probability, 1e-12)
	assert.InDelta(t, 0.09105, p.Probability, 1e-4)
	assert.False(t, p.Spike)
	assert.Equal(t, "High", p.Certainty)
}

func TestNeural_PredictMatchesFeatureVector(t *testing.T) {
	m := NewNeural(Config{})
	seq := []float64{1.5, 6.2, 7.9, 3.3, 8.8}

	vec := features.Vector(seq, 0.85)
	def := DefaultNeuralParams()
	hz := def.B1
	for i, f := range vec {
		hz += f * def.W1[i]
	}
	h := math.Tanh(hz)
	want := 1.0 / (1.0 + math.Exp(-(def.W2*h + def.B2)))

	p := m.Predict(seq)
	assert.InDelta(t, want, p.Probability, 1e-12)
	assert.Equal(t, want > 0.55, p.Spike)
}

func TestNeural_AsymmetricDecisionThreshold(t *testing.T) {
	m := NewNeural(Config{})
	// Force the output into (0.5, 0.55): with h = tanh(0.3) ~ 0.2913,
	// W2*h + B2 = 0.08 gives p ~ 0.52.
	require.NoError(t, m.UnmarshalParams([]byte(
		`{"w1":[0.2,0,0,0,0,0,0,0],"b1":0.1,"w2":0.2746,"b2":0.0}`)))

	p := m.Predict(nil)
	assert.Greater(t, p.Probability, 0.5)
	assert.Less(t, p.Probability, 0.55)
	assert.False(t, p.Spike, "probability above 0.5 but below 0.55 must not call a spike")
}

func TestNeural_LearnUsesRetainedActivation(t *testing.T) {
	m := NewNeural(Config{})
	seq := []float64{1.0, 2.0, 3.0}

	p := m.Predict(seq)
	vec := features.Vector(seq, 0.85)
	def := DefaultNeuralParams()
	hz := def.B1
	for i, f := range vec {
		hz += f * def.W1[i]
	}
	h := math.Tanh(hz)
	errv := 1.0 - p.Probability

	// Mutating the sequence after prediction must not change the gradient:
	// the learner works from the retained snapshot.
	seq = append(seq, 100.0, 200.0)
	_ = seq

	require.NoError(t, m.Learn(9.0, &p))

	got := m.Params()
	for i := range def.W1 {
		assert.InDelta(t, def.W1[i]+0.01*errv*vec[i], got.W1[i], 1e-12, "W1[%d]", i)
	}
	assert.InDelta(t, def.B1+0.01*errv, got.B1, 1e-12)
	assert.InDelta(t, def.W2+0.01*errv*h, got.W2, 1e-12)
	assert.InDelta(t, def.B2+0.01*errv, got.B2, 1e-12)
}

func TestNeural_LearnSkipsWithoutContext(t *testing.T) {
	m := NewNeural(Config{})

	err := m.Learn(9.0, &Prediction{})
	assert.ErrorIs(t, err, ErrMissingLearningContext)

	err = m.Learn(9.0, nil)
	assert.ErrorIs(t, err, ErrMissingLearningContext)

	before := m.Params()
	assert.Equal(t, DefaultNeuralParams(), before, "skipped updates must not touch parameters")
}

func TestNeural_Reset(t *testing.T) {
	m := NewNeural(Config{})
	p := m.Predict([]float64{4.0, 9.0})
	require.NoError(t, m.Learn(9.0, &p))
	require.NotEqual(t, DefaultNeuralParams(), m.Params())

	m.Reset()
	assert.Equal(t, DefaultNeuralParams(), m.Params())
}

func TestNeural_UnmarshalValidatesShape(t *testing.T) {
	m := NewNeural(Config{})

	err := m.UnmarshalParams([]byte(`{"w1":[1,2,3],"b1":0,"w2":1,"b2":0}`))
	assert.Error(t, err, "short hidden weight vector must be rejected")

	err = m.UnmarshalParams([]byte(`not json`))
	assert.Error(t, err)
}

func TestActivationClamps(t *testing.T) {
	assert.Equal(t, 1.0, sigmoid(25))
	assert.Equal(t, 0.0, sigmoid(-25))
	assert.Equal(t, 1.0, tanh(21))
	assert.Equal(t, -1.0, tanh(-21))

	// Inside the clamp the exact functions apply.
	assert.InDelta(t, 0.5, sigmoid(0), 1e-12)
	assert.InDelta(t, math.Tanh(1.5), tanh(1.5), 1e-12)
}

func TestCertaintyLabels(t *testing.T) {
	assert.Equal(t, "High", certainty(80))
	assert.Equal(t, "High", certainty(95))
	assert.Equal(t, "Medium", certainty(60))
	assert.Equal(t, "Medium", certainty(79.9))
	assert.Equal(t, "Low", certainty(59.9))
	assert.Equal(t, "Low", certainty(0))
}
