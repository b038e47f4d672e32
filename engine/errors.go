/*
errors.go - Centralized error kinds for the leave engine

PURPOSE:
  All validation failures are detected before any mutation and returned as
  typed failures. The API layer maps each kind to a 4xx status; anything
  else is a 5xx and gets logged.

ERROR KINDS:
  ConfigurationMissing   no leave settings / leave type for the company
  NotEligible            encashment disabled, or nothing accrued
  InsufficientBalance    reservation or cash-out exceeds remaining days
  DuplicateRequest       a second pending request for the same period
  InvalidDateRange       start/end/return ordering violated, or start past
  CapExceeded            cash-out days above the configured maximum
  InvalidTransition      state-machine action illegal from current state
  ConcurrentModification optimistic version check failed; caller may retry

USAGE:
  if errors.Is(err, engine.ErrInsufficientBalance) { ... }

  Structured variants carry context and Unwrap() to the sentinel.
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrConfigurationMissing   = errors.New("leave configuration missing")
	ErrNotEligible            = errors.New("not eligible")
	ErrInsufficientBalance    = errors.New("insufficient balance")
	ErrDuplicateRequest       = errors.New("duplicate pending request")
	ErrInvalidDateRange       = errors.New("invalid date range")
	ErrCapExceeded            = errors.New("cap exceeded")
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrNotFound               = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports how far a request overshot the balance.
type InsufficientBalanceError struct {
	EmployeeID string
	LeaveType  string
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s/%s: available %s, requested %s",
		e.EmployeeID, e.LeaveType, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// InvalidTransitionError names the rejected state-machine move.
type InvalidTransitionError struct {
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s an application in state %s", e.Action, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the failure is the caller's fault (4xx).
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotEligible) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrDuplicateRequest) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrCapExceeded) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsRetryable reports whether the operation may succeed if replayed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsNotFound reports a missing entity or configuration record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConfigurationMissing)
}
