package floor

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrAlreadyOccupied   = errors.New("table already occupied")
	ErrInvalidTransition = errors.New("invalid table transition")
	ErrOverlapConflict   = errors.New("reservation interval overlaps an existing reservation")
	ErrCheckInWindow     = errors.New("reservation outside check-in window")
	ErrReservationClosed = errors.New("reservation already completed or cancelled")
	ErrTableReferenced   = errors.New("table still referenced by orders")
)

// InvalidTransitionError reports a status change the guard table does not allow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid table transition from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// OverlapConflictError carries the interval that blocked a new reservation so
// callers can surface it to the operator.
type OverlapConflictError struct {
	ExistingID    string
	ExistingStart time.Time
	ExistingEnd   time.Time
}

func (e *OverlapConflictError) Error() string {
	return fmt.Sprintf("reservation overlaps existing reservation %s [%s, %s)",
		e.ExistingID,
		e.ExistingStart.Format(time.RFC3339),
		e.ExistingEnd.Format(time.RFC3339))
}

func (e *OverlapConflictError) Unwrap() error {
	return ErrOverlapConflict
}
