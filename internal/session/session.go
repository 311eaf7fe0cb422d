// Package session owns one predictor instance: the capped observation
// sequence, the scoring model and its parameters, the transition map, and
// the rolling outcome history. All model mutation and prediction
// generation is serialized through a Session, one per user; nothing in
// here is safe for concurrent use.
package session

import (
	"errors"
	"fmt"

	montstats "github.com/montanaflynn/stats"
	"github.com/rs/zerolog"

	"seqpredict/internal/category"
	"seqpredict/internal/model"
	"seqpredict/internal/validate"
)

const (
	// SequenceCap bounds the observation sequence; the oldest entry is
	// evicted once the cap is exceeded.
	SequenceCap = 200
	// OutcomeCap bounds the rolling correctness history used for the
	// trailing accuracy metric.
	OutcomeCap = 20
)

// Tracker is the narrow metrics surface the session reports to.
// metrics.MetricsWrapper satisfies it; tests substitute a mock.
type Tracker interface {
	ObservationInc()
	RejectInc()
	SequenceLenSet(float64)
	PredictionInc()
	ConfidenceObserve(float64)
	LearnStepInc()
	LearnSkipInc()
	AccuracySet(float64)
}

type nopTracker struct{}

func (nopTracker) ObservationInc()           {}
func (nopTracker) RejectInc()                {}
func (nopTracker) SequenceLenSet(float64)    {}
func (nopTracker) PredictionInc()            {}
func (nopTracker) ConfidenceObserve(float64) {}
func (nopTracker) LearnStepInc()             {}
func (nopTracker) LearnSkipInc()             {}
func (nopTracker) AccuracySet(float64)       {}

// Config selects the model variant and its tuning for one session.
type Config struct {
	Variant     string
	Model       model.Config
	SequenceCap int
	OutcomeCap  int
}

// Session is the single logical owner of one model's state.
type Session struct {
	cfg         Config
	model       model.Model
	seq         []float64
	outcomes    []bool
	transitions category.Transitions
	pending     *model.Prediction
	metrics     Tracker
	log         zerolog.Logger
}

// New builds a session for the configured variant. A nil tracker disables
// metrics reporting.
func New(cfg Config, tracker Tracker, logger zerolog.Logger) (*Session, error) {
	if cfg.SequenceCap == 0 {
		cfg.SequenceCap = SequenceCap
	}
	if cfg.OutcomeCap == 0 {
		cfg.OutcomeCap = OutcomeCap
	}
	cfg.Model = cfg.Model.WithDefaults()

	m, err := model.New(cfg.Variant, cfg.Model)
	if err != nil {
		return nil, err
	}
	if tracker == nil {
		tracker = nopTracker{}
	}
	return &Session{
		cfg:         cfg,
		model:       m,
		transitions: category.Transitions{},
		metrics:     tracker,
		log:         logger.With().Str("variant", cfg.Variant).Logger(),
	}, nil
}

// validateInput applies the variant's input domain: the rating scale for
// the categorical variant, any finite real otherwise.
func (s *Session) validateInput(x float64) error {
	if s.cfg.Variant == model.VariantCategory {
		return validate.Rating(x)
	}
	return validate.Finite(x)
}

// Append validates x and appends it to the sequence, evicting the oldest
// entry once the cap is exceeded. Invalid values never enter the model.
func (s *Session) Append(x float64) error {
	if err := s.validateInput(x); err != nil {
		s.metrics.RejectInc()
		return err
	}
	if len(s.seq) >= s.cfg.SequenceCap {
		s.seq = s.seq[1:]
	}
	s.seq = append(s.seq, x)
	s.metrics.ObservationInc()
	s.metrics.SequenceLenSet(float64(len(s.seq)))
	return nil
}

// Observe tokenizes raw input on commas and whitespace and appends every
// value that passes validation. Invalid tokens are dropped and logged,
// never surfaced as a failure.
func (s *Session) Observe(raw string) (accepted, rejected int) {
	for _, tok := range validate.Tokenize(raw) {
		v, err := validate.Parse(tok)
		if err != nil {
			s.metrics.RejectInc()
			s.log.Debug().Err(err).Str("token", tok).Msg("observation dropped")
			rejected++
			continue
		}
		// Append counts its own rejects.
		if err := s.Append(v); err != nil {
			s.log.Debug().Err(err).Str("token", tok).Msg("observation dropped")
			rejected++
			continue
		}
		accepted++
	}
	return accepted, rejected
}

// Predict scores the current sequence and retains the result for the
// matching learning step. A new prediction replaces any pending one.
func (s *Session) Predict() model.Prediction {
	p := s.model.Predict(s.seq)
	s.pending = &p
	s.metrics.PredictionInc()
	s.metrics.ConfidenceObserve(p.Confidence)
	return p
}

// Confirm feeds the realized outcome to the learner exactly once against
// the pending prediction, records correctness, refreshes the transition
// map for the categorical variant, and regenerates the next prediction
// from the updated state. A missing learning context skips the parameter
// update and is reported, not fatal.
func (s *Session) Confirm(actual float64) (model.Prediction, error) {
	if err := s.validateInput(actual); err != nil {
		return model.Prediction{}, fmt.Errorf("confirmed outcome: %w", err)
	}

	var learnErr error
	if s.pending == nil {
		learnErr = fmt.Errorf("confirm without prediction: %w", model.ErrMissingLearningContext)
		s.metrics.LearnSkipInc()
		s.log.Warn().Msg("outcome confirmed with no pending prediction, update skipped")
	} else {
		s.recordOutcome(actual, s.pending)
		if err := s.model.Learn(actual, s.pending); err != nil {
			if errors.Is(err, model.ErrMissingLearningContext) {
				learnErr = err
				s.metrics.LearnSkipInc()
				s.log.Warn().Err(err).Msg("parameter update skipped")
			} else {
				return model.Prediction{}, err
			}
		} else {
			s.metrics.LearnStepInc()
		}
	}
	s.pending = nil

	if s.cfg.Variant == model.VariantCategory {
		s.transitions.Rebuild(s.seq)
	}

	return s.Predict(), learnErr
}

// recordOutcome appends a correctness flag for the prediction that was
// actually shown, bounded by the outcome cap.
func (s *Session) recordOutcome(actual float64, p *model.Prediction) {
	var correct bool
	if s.cfg.Variant == model.VariantCategory {
		st, err := category.Categorize(actual)
		if err != nil {
			return
		}
		correct = p.Label == st.String()
	} else {
		correct = p.Spike == (actual > s.cfg.Model.SpikeThreshold)
	}
	if len(s.outcomes) >= s.cfg.OutcomeCap {
		s.outcomes = s.outcomes[1:]
	}
	s.outcomes = append(s.outcomes, correct)
	s.metrics.AccuracySet(s.Accuracy())
}

// Accuracy returns the trailing mean of the rolling correctness flags,
// or 0 before any outcome has been confirmed.
func (s *Session) Accuracy() float64 {
	if len(s.outcomes) == 0 {
		return 0
	}
	flags := make([]float64, len(s.outcomes))
	for i, ok := range s.outcomes {
		if ok {
			flags[i] = 1
		}
	}
	mean, err := montstats.Mean(flags)
	if err != nil {
		return 0
	}
	return mean
}

// Sequence returns a copy of the current capped sequence.
func (s *Session) Sequence() []float64 {
	return append([]float64(nil), s.seq...)
}

// Outcomes returns a copy of the rolling correctness flags.
func (s *Session) Outcomes() []bool {
	return append([]bool(nil), s.outcomes...)
}

// Transitions returns a copy of the diagnostic transition counts.
func (s *Session) Transitions() category.Transitions {
	out := category.Transitions{}
	for k, v := range s.transitions {
		out[k] = v
	}
	return out
}

// Variant reports the configured model variant.
func (s *Session) Variant() string { return s.cfg.Variant }

// Reset clears the sequence, parameters, transition map, and outcome
// history together, restoring the documented default parameter vector.
func (s *Session) Reset() {
	s.seq = nil
	s.outcomes = nil
	s.transitions = category.Transitions{}
	s.pending = nil
	s.model.Reset()
	s.metrics.SequenceLenSet(0)
	s.metrics.AccuracySet(0)
	s.log.Info().Msg("session reset to defaults")
}
