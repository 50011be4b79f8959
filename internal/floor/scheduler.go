package floor

import (
	"context"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

// DefaultCheckInLead is how early a party may check in ahead of its
// reservation start. Deployments override it via config.
const DefaultCheckInLead = 15 * time.Minute

// Scheduler validates and stores reservation intervals per table and drives
// the check-in and cancel transitions.
type Scheduler struct {
	reservationRepo ReservationRepo
	tableRepo       TableRepo
	checkInLead     time.Duration
	now             func() time.Time
	logger          aqm.Logger
}

func NewScheduler(reservationRepo ReservationRepo, tableRepo TableRepo, checkInLead time.Duration, logger aqm.Logger) *Scheduler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	if checkInLead <= 0 {
		checkInLead = DefaultCheckInLead
	}
	return &Scheduler{
		reservationRepo: reservationRepo,
		tableRepo:       tableRepo,
		checkInLead:     checkInLead,
		now:             time.Now,
		logger:          logger,
	}
}

// CreateReservation persists a confirmed reservation after checking the
// interval against every confirmed reservation already held by the table.
func (s *Scheduler) CreateReservation(ctx context.Context, reservation *Reservation) error {
	if reservation == nil {
		return fmt.Errorf("reservation is nil")
	}
	if !reservation.EndTime.After(reservation.StartTime) {
		return fmt.Errorf("reservation end time must be after start time")
	}

	existing, err := s.reservationRepo.ListByTable(ctx, reservation.TableID)
	if err != nil {
		return fmt.Errorf("cannot list reservations for table: %w", err)
	}

	for _, other := range existing {
		if other.Status != ReservationConfirmed {
			continue
		}
		if other.Overlaps(reservation.StartTime, reservation.EndTime) {
			return &OverlapConflictError{
				ExistingID:    other.ID.String(),
				ExistingStart: other.StartTime,
				ExistingEnd:   other.EndTime,
			}
		}
	}

	reservation.Status = ReservationConfirmed
	reservation.BeforeCreate()
	if err := s.reservationRepo.Create(ctx, reservation); err != nil {
		return fmt.Errorf("cannot create reservation: %w", err)
	}
	return nil
}

// CheckIn completes a confirmed reservation and occupies its table as one
// logical operation. Permitted only inside [start - lead, end).
func (s *Scheduler) CheckIn(ctx context.Context, reservationID uuid.UUID) (*Reservation, *Table, error) {
	reservation, err := s.reservationRepo.Get(ctx, reservationID)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load reservation: %w", err)
	}
	if reservation == nil {
		return nil, nil, fmt.Errorf("reservation not found")
	}
	if reservation.Status != ReservationConfirmed {
		return nil, nil, ErrReservationClosed
	}

	now := s.now()
	if now.Before(reservation.StartTime.Add(-s.checkInLead)) || !now.Before(reservation.EndTime) {
		return nil, nil, ErrCheckInWindow
	}

	table, err := s.tableRepo.Get(ctx, reservation.TableID)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot load table: %w", err)
	}
	if table == nil {
		return nil, nil, fmt.Errorf("table not found")
	}

	if err := table.Transition(StatusOccupied, TransitionOpts{}); err != nil {
		return nil, nil, err
	}

	reservation.MarkCompleted()

	if err := s.reservationRepo.Save(ctx, reservation); err != nil {
		return nil, nil, fmt.Errorf("cannot save reservation: %w", err)
	}
	table.BeforeUpdate()
	if err := s.tableRepo.Save(ctx, table); err != nil {
		return nil, nil, fmt.Errorf("cannot save table: %w", err)
	}

	return reservation, table, nil
}

// Cancel voids a confirmed reservation that has not yet run out.
func (s *Scheduler) Cancel(ctx context.Context, reservationID uuid.UUID) (*Reservation, error) {
	reservation, err := s.reservationRepo.Get(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("cannot load reservation: %w", err)
	}
	if reservation == nil {
		return nil, fmt.Errorf("reservation not found")
	}
	if reservation.Status != ReservationConfirmed {
		return nil, ErrReservationClosed
	}
	if !s.now().Before(reservation.EndTime) {
		return nil, ErrReservationClosed
	}

	reservation.Cancel()
	if err := s.reservationRepo.Save(ctx, reservation); err != nil {
		return nil, fmt.Errorf("cannot save reservation: %w", err)
	}
	return reservation, nil
}

// NextReservation returns the confirmed reservation with the smallest start
// time at or after now among those that have not yet ended, or nil.
func (s *Scheduler) NextReservation(ctx context.Context, tableID uuid.UUID, now time.Time) (*Reservation, error) {
	reservations, err := s.reservationRepo.ListByTable(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("cannot list reservations for table: %w", err)
	}

	var next *Reservation
	for _, r := range reservations {
		if r.Status != ReservationConfirmed {
			continue
		}
		if r.StartTime.Before(now) || r.EndTime.Before(now) {
			continue
		}
		if next == nil || r.StartTime.Before(next.StartTime) {
			next = r
		}
	}
	return next, nil
}
