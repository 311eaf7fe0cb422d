// Package category maps rating-scale observations onto three ordinal
// states and tracks state-to-state transition counts for diagnostics.
package category

import (
	"fmt"

	"seqpredict/internal/validate"
)

// State is one of the three ordinal levels a rating can fall into.
type State int

const (
	Low State = iota
	Mid
	High
)

func (s State) String() string {
	switch s {
	case Low:
		return "Low"
	case Mid:
		return "Mid"
	case High:
		return "High"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Categorize buckets a rating by fixed thresholds: x ≤ 2.5 is Low,
// 2.5 < x ≤ 3.75 is Mid, x > 3.75 is High. Values outside [1, 5] fail
// with ErrOutOfRange even though the validator should have caught them.
func Categorize(x float64) (State, error) {
	if err := validate.Rating(x); err != nil {
		return Low, err
	}
	switch {
	case x <= 2.5:
		return Low, nil
	case x <= 3.75:
		return Mid, nil
	default:
		return High, nil
	}
}

// States categorizes every value in seq, skipping values that fail the
// rating check. The sequence owner validates on append, so skips indicate
// a corrupted snapshot rather than normal flow.
func States(seq []float64) []State {
	out := make([]State, 0, len(seq))
	for _, x := range seq {
		s, err := Categorize(x)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}
