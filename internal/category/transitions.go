package category

import "fmt"

// Transitions counts adjacent state-to-state moves across a sequence.
// Keys are "from>to" so the map serializes to flat JSON. At most nine
// keys exist for three states; counts grow monotonically within one
// rebuild of the capped window.
type Transitions map[string]int

// Key builds the composite map key for an ordered state pair.
func Key(from, to State) string {
	return fmt.Sprintf("%d>%d", int(from), int(to))
}

// Rebuild re-derives the full transition map from the current capped
// sequence. Deterministic and idempotent: the same sequence always yields
// the same counts. O(len(seq)), acceptable with the 200-entry cap.
func (t Transitions) Rebuild(seq []float64) {
	for k := range t {
		delete(t, k)
	}
	states := States(seq)
	for i := 1; i < len(states); i++ {
		t[Key(states[i-1], states[i])]++
	}
}

// Count returns the observed occurrences of one ordered state pair.
func (t Transitions) Count(from, to State) int {
	return t[Key(from, to)]
}
