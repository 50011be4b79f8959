package floor

import (
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

const (
	ReservationConfirmed = "confirmed"
	ReservationCompleted = "completed"
	ReservationCancelled = "cancelled"
)

type Reservation struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	TableID     uuid.UUID `json:"table_id" bson:"table_id"`
	PartySize   int       `json:"party_size" bson:"party_size"`
	StartTime   time.Time `json:"start_time" bson:"start_time"`
	EndTime     time.Time `json:"end_time" bson:"end_time"`
	ContactName string    `json:"contact_name" bson:"contact_name"`
	ContactInfo string    `json:"contact_info" bson:"contact_info"`
	Status      string    `json:"status" bson:"status"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	CreatedBy   string    `json:"created_by" bson:"created_by"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy   string    `json:"updated_by" bson:"updated_by"`
}

func (r *Reservation) GetID() uuid.UUID {
	return r.ID
}

func (r *Reservation) ResourceType() string {
	return "reservation"
}

func (r *Reservation) SetID(id uuid.UUID) {
	r.ID = id
}

func NewReservation() *Reservation {
	return &Reservation{
		ID:     aqm.GenerateNewID(),
		Status: ReservationConfirmed,
	}
}

func (r *Reservation) EnsureID() {
	if r.ID == uuid.Nil {
		r.ID = aqm.GenerateNewID()
	}
}

func (r *Reservation) BeforeCreate() {
	r.EnsureID()
	r.CreatedAt = time.Now()
	r.UpdatedAt = time.Now()
}

func (r *Reservation) BeforeUpdate() {
	r.UpdatedAt = time.Now()
}

// Overlaps applies the half-open interval test: [s, e) conflicts with
// [start, end) when start < e && end > s. Touching endpoints do not conflict.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return start.Before(r.EndTime) && end.After(r.StartTime)
}

func (r *Reservation) MarkCompleted() {
	r.Status = ReservationCompleted
	r.UpdatedAt = time.Now()
}

func (r *Reservation) Cancel() {
	r.Status = ReservationCancelled
	r.UpdatedAt = time.Now()
}
