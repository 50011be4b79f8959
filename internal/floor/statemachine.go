package floor

import (
	"time"

	"github.com/google/uuid"
)

// allowedTransitions is the single source of truth for table status changes.
// Every status mutation goes through Transition; nothing infers status as a
// side effect of other writes.
var allowedTransitions = map[string][]string{
	StatusAvailable: {StatusOccupied, StatusReserved, StatusBlocked},
	StatusOccupied:  {StatusCleaning, StatusAvailable},
	StatusReserved:  {StatusOccupied, StatusAvailable},
	StatusCleaning:  {StatusAvailable},
	StatusBlocked:   {StatusAvailable},
}

// TransitionOpts carries optional side-channel data for a transition.
type TransitionOpts struct {
	// CurrentOrderID is attached when occupying a table via order assignment.
	CurrentOrderID *uuid.UUID
}

// Transition applies target to the table after checking the guard table.
// Occupying an already occupied table fails with ErrAlreadyOccupied; any
// other undeclared edge fails with an InvalidTransitionError.
func (t *Table) Transition(target string, opts TransitionOpts) error {
	if target == StatusOccupied && t.Status == StatusOccupied {
		return ErrAlreadyOccupied
	}

	if !transitionAllowed(t.Status, target) {
		return &InvalidTransitionError{From: t.Status, To: target}
	}

	t.Status = target
	switch target {
	case StatusOccupied:
		if opts.CurrentOrderID != nil {
			t.CurrentOrderID = opts.CurrentOrderID
		}
	case StatusAvailable, StatusCleaning:
		// Releasing the table closes out its current transaction.
		t.CurrentOrderID = nil
	}
	t.UpdatedAt = time.Now()
	return nil
}

// ReleaseIfIdle is the named auto-release transition: it frees an occupied
// table once the register reports no remaining active work. Callers that want
// to keep the table held simply do not invoke it.
func (t *Table) ReleaseIfIdle() error {
	if t.Status != StatusOccupied {
		return nil
	}
	return t.Transition(StatusAvailable, TransitionOpts{})
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s names a known table status.
func ValidStatus(s string) bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusReserved, StatusCleaning, StatusBlocked:
		return true
	}
	return false
}
