// Package validate gates raw observations before they enter a session
// sequence. Invalid values are reported as structured errors and must be
// dropped by the caller; they never reach the model.
package validate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNotANumber marks input that does not parse to a real number, or NaN.
	ErrNotANumber = errors.New("not a number")
	// ErrNonFinite marks ±Inf input.
	ErrNonFinite = errors.New("non-finite value")
	// ErrOutOfRange marks a finite value outside the accepted domain.
	ErrOutOfRange = errors.New("value out of range")
)

// Finite accepts any finite real. Used by the spike-prediction variants,
// which place no bound on observation magnitude.
func Finite(x float64) error {
	if math.IsNaN(x) {
		return ErrNotANumber
	}
	if math.IsInf(x, 0) {
		return ErrNonFinite
	}
	return nil
}

// Rating accepts finite reals in [1, 5], the rating-scale domain.
func Rating(x float64) error {
	if err := Finite(x); err != nil {
		return err
	}
	if x < 1.0 || x > 5.0 {
		return fmt.Errorf("%w: %v not in [1, 5]", ErrOutOfRange, x)
	}
	return nil
}

// Tokenize splits raw input on commas and whitespace, discarding empty
// tokens. "1, 2  3" yields ["1" "2" "3"].
func Tokenize(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return fields
}

// Parse converts a single token to a float64, mapping parse failures and
// NaN onto ErrNotANumber and infinities onto ErrNonFinite.
func Parse(tok string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, tok)
	}
	if err := Finite(v); err != nil {
		return 0, err
	}
	return v, nil
}
