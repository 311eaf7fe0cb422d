package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"seqpredict/internal/category"
)

// ErrCorruptSnapshot marks a persisted snapshot that cannot be restored.
// Restore fails loudly with it; falling back to defaults is the caller's
// explicit decision, never a silent one.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Snapshot is the flat JSON-shaped state that survives process restarts:
// the capped sequence, the variant's parameter vector, the transition
// counts, and the rolling outcome flags.
type Snapshot struct {
	Variant     string               `json:"variant"`
	Sequence    []float64            `json:"sequence"`
	Params      json.RawMessage      `json:"params"`
	Transitions category.Transitions `json:"transitions,omitempty"`
	Outcomes    []bool               `json:"outcomes"`
}

// Snapshot captures the session's persistable state.
func (s *Session) Snapshot() (Snapshot, error) {
	params, err := s.model.MarshalParams()
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal params: %w", err)
	}
	return Snapshot{
		Variant:     s.cfg.Variant,
		Sequence:    s.Sequence(),
		Params:      params,
		Transitions: s.Transitions(),
		Outcomes:    s.Outcomes(),
	}, nil
}

// Restore replaces the session state from a snapshot. Any malformed or
// mismatched content fails with ErrCorruptSnapshot and leaves the session
// untouched; a pending prediction is invalidated on success.
func (s *Session) Restore(snap Snapshot) error {
	if snap.Variant != s.cfg.Variant {
		return fmt.Errorf("%w: snapshot variant %q, session variant %q",
			ErrCorruptSnapshot, snap.Variant, s.cfg.Variant)
	}
	for _, x := range snap.Sequence {
		if err := s.validateInput(x); err != nil {
			return fmt.Errorf("%w: sequence value %v: %v", ErrCorruptSnapshot, x, err)
		}
	}
	if err := s.model.UnmarshalParams(snap.Params); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	seq := snap.Sequence
	if len(seq) > s.cfg.SequenceCap {
		seq = seq[len(seq)-s.cfg.SequenceCap:]
	}
	s.seq = append([]float64(nil), seq...)

	outcomes := snap.Outcomes
	if len(outcomes) > s.cfg.OutcomeCap {
		outcomes = outcomes[len(outcomes)-s.cfg.OutcomeCap:]
	}
	s.outcomes = append([]bool(nil), outcomes...)

	s.transitions = category.Transitions{}
	for k, v := range snap.Transitions {
		s.transitions[k] = v
	}
	s.pending = nil

	s.metrics.SequenceLenSet(float64(len(s.seq)))
	s.metrics.AccuracySet(s.Accuracy())
	s.log.Info().Int("sequence", len(s.seq)).Int("outcomes", len(s.outcomes)).Msg("session restored from snapshot")
	return nil
}
