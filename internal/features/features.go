// Package features derives fixed-size numeric feature vectors from the
// trailing window of an observation sequence. All functions are pure;
// vectors are recomputed per prediction and never persisted.
package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// VectorSize is the length of the full feature vector consumed by the
// neural strategy, bias term included.
const VectorSize = 8

// Tail returns the trailing n elements of seq, or all of seq when it is
// shorter. The returned slice aliases seq; callers must not mutate it.
func Tail(seq []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if len(seq) <= n {
		return seq
	}
	return seq[len(seq)-n:]
}

// Weights builds exponential recency weights decay^(N-i) for a window of
// length n. The most recent element (index n-1) carries weight 1.
func Weights(n int, decay float64) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n)
	w[n-1] = 1
	for i := n - 2; i >= 0; i-- {
		w[i] = w[i+1] * decay
	}
	return w
}

// Stats computes the recency-weighted mean and standard deviation of the
// window plus its slope (last minus first). An empty window yields zeros.
func Stats(window []float64, decay float64) (mean, std, slope float64) {
	n := len(window)
	if n == 0 {
		return 0, 0, 0
	}
	w := Weights(n, decay)
	sumW := floats.Sum(w)
	mean = floats.Dot(w, window) / sumW

	d := make([]float64, n)
	copy(d, window)
	floats.AddConst(-mean, d)
	floats.Mul(d, d)
	variance := floats.Dot(w, d) / sumW
	if variance > 0 {
		std = math.Sqrt(variance)
	}
	slope = window[n-1] - window[0]
	return mean, std, slope
}

// Vector assembles the 8-element feature vector for the neural strategy:
// [1, mean, std, slope, last, log(|last|+1)*sign(last), mean*std, slope^2].
// The leading 1 is the bias input. An empty window leaves every derived
// feature at zero.
func Vector(window []float64, decay float64) []float64 {
	v := make([]float64, VectorSize)
	v[0] = 1
	if len(window) == 0 {
		return v
	}
	mean, std, slope := Stats(window, decay)
	last := window[len(window)-1]
	v[1] = mean
	v[2] = std
	v[3] = slope
	v[4] = last
	v[5] = math.Log(math.Abs(last)+1) * sign(last)
	v[6] = mean * std
	v[7] = slope * slope
	return v
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
