package model

import "math"

// activationClamp bounds pre-activation inputs; beyond it the exact result
// is indistinguishable from the saturated value and exp would overflow.
const activationClamp = 20.0

func sigmoid(x float64) float64 {
	if x > activationClamp {
		return 1
	}
	if x < -activationClamp {
		return 0
	}
	return 1.0 / (1.0 + math.Exp(-x))
}

func tanh(x float64) float64 {
	if x > activationClamp {
		return 1
	}
	if x < -activationClamp {
		return -1
	}
	return math.Tanh(x)
}

// probConfidence scales distance from the decision midpoint onto [0,100].
func probConfidence(p float64) float64 {
	c := math.Abs(p-0.5) * 200
	if c > 100 {
		c = 100
	}
	return c
}

// certainty buckets a confidence score into a coarse label.
func certainty(conf float64) string {
	switch {
	case conf >= 80:
		return "High"
	case conf >= 60:
		return "Medium"
	default:
		return "Low"
	}
}
