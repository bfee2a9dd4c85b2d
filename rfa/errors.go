/*
errors.go - Centralized error types for the rebate engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (API layer, record store glue) wrap these with transport context.

ERROR CATEGORIES:
  1. Validation errors - malformed input, raised synchronously, never retried
  2. Not-found errors  - dangling references, detected by the caller or
     downgraded to aggregation warnings
  3. Transition errors - illegal lifecycle moves

USAGE:
  if errors.Is(err, rfa.ErrInvalidTier) { ... }

  var verr *rfa.ValidationError
  if errors.As(err, &verr) { log.Printf("bad field %s", verr.Field) }
*/
package rfa

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTurnover is returned when a calculation is requested for a
	// negative turnover amount.
	ErrInvalidTurnover = errors.New("invalid turnover")

	// ErrEmptyTierSet is returned when a progressive configuration carries
	// no tiers.
	ErrEmptyTierSet = errors.New("progressive config has no tiers")

	// ErrInvalidTier is returned when a tier is malformed: rate outside
	// [0, 1], max below min, overlap with the previous tier, or an unbounded
	// tier that is not last.
	ErrInvalidTier = errors.New("invalid tier")

	// ErrConfigMismatch is returned when a contract's declared type and its
	// discount configuration variant diverge.
	ErrConfigMismatch = errors.New("contract type does not match discount config")

	// ErrInvalidPeriod is returned when a calculation period is empty or
	// inverted.
	ErrInvalidPeriod = errors.New("invalid period: end not after start")

	// ErrContractNotFound is returned when a referenced contract id has no
	// corresponding record.
	ErrContractNotFound = errors.New("contract not found")

	// ErrCalculationNotFound is returned when a referenced calculation id
	// has no corresponding record.
	ErrCalculationNotFound = errors.New("calculation not found")

	// ErrAlertNotFound is returned when an alert key has no corresponding
	// record.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrInvalidTransition is returned when a lifecycle transition is not
	// permitted from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the offending field
// =============================================================================

// ValidationError identifies the field that failed validation. Always raised
// synchronously at construction or calculation entry, never retried.
type ValidationError struct {
	Field  string // e.g. "tiers[2].rate", "turnover_amount"
	Reason string
	err    error // sentinel for errors.Is
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.err }

func newValidationError(sentinel error, field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, err: sentinel}
}

// TransitionError reports an illegal lifecycle move with both endpoints.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid input.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrCalculationNotFound) ||
		errors.Is(err, ErrAlertNotFound)
}
