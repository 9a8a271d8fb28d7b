/*
errors.go - Error types for the vacation request store

PURPOSE:
  Sentinel errors for errors.Is checks, plus structured errors that carry
  the offending request. The roster engine itself never sees these: a
  missing request is simply "no request".

SEE ALSO:
  - memory.go: returns these errors
  - api/handlers.go: maps them to HTTP status codes
*/
package vacation

import (
	"errors"
	"fmt"

	"github.com/warp/roster-engine/roster"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrRequestNotFound is returned when no request exists for the employee and date.
	ErrRequestNotFound = errors.New("vacation request not found")

	// ErrAlreadyRequested is returned when a request already exists for the employee and date.
	ErrAlreadyRequested = errors.New("vacation already requested for this date")

	// ErrInvalidTransition is returned when approving or denying a non-pending request.
	ErrInvalidTransition = errors.New("invalid request status transition")

	// ErrCapacityExceeded is returned when approval would put too many employees on vacation the same day.
	ErrCapacityExceeded = errors.New("same-day vacation capacity exceeded")

	// ErrInvalidStatus is returned when seeding with an unknown status.
	ErrInvalidStatus = errors.New("invalid request status")

	// ErrDayNotBookable is returned when requesting a past, closed or holiday date.
	ErrDayNotBookable = errors.New("day cannot be requested")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TransitionError reports a request that is not in a state allowing the action.
type TransitionError struct {
	EmployeeID roster.EmployeeID
	Date       string
	Current    Status
	Action     Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s request for employee %d on %s: status is %s",
		e.Action, e.EmployeeID, e.Date, e.Current)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// CapacityError reports the approved count already booked on a date.
type CapacityError struct {
	Date     string
	Limit    int
	Approved int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%d of %d vacation slots already approved on %s", e.Approved, e.Limit, e.Date)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// DayReason says why a date cannot be requested.
type DayReason string

const (
	ReasonPast    DayReason = "in the past"
	ReasonClosed  DayReason = "closed"
	ReasonHoliday DayReason = "a holiday"
)

// DayError reports a request for a date the day policy refuses.
type DayError struct {
	Date    string
	Reason  DayReason
	Holiday string
}

func (e *DayError) Error() string {
	if e.Holiday != "" {
		return fmt.Sprintf("%s is %s (%s)", e.Date, e.Reason, e.Holiday)
	}
	return fmt.Sprintf("%s is %s", e.Date, e.Reason)
}

func (e *DayError) Unwrap() error { return ErrDayNotBookable }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing request.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound)
}

// IsNotBookable returns true if the date itself cannot be requested.
func IsNotBookable(err error) bool {
	return errors.Is(err, ErrDayNotBookable)
}

// IsConflict returns true if the request exists but its state forbids the change.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyRequested) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrCapacityExceeded)
}
