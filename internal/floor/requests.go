package floor

import (
	"time"

	"github.com/google/uuid"
)

type TableCreateRequest struct {
	Number   string `json:"number"`
	Capacity int    `json:"capacity,omitempty"`
	Zone     string `json:"zone,omitempty"`
	BranchID string `json:"branch_id,omitempty"`
}

type TableUpdateRequest struct {
	Number   string `json:"number,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
	Zone     string `json:"zone,omitempty"`
}

type TableNoteRequest struct {
	Content   string `json:"content"`
	CreatedBy string `json:"created_by,omitempty"`
}

type TableStatusRequest struct {
	Status         string     `json:"status"`
	CurrentOrderID *uuid.UUID `json:"current_order_id,omitempty"`
}

type ReservationCreateRequest struct {
	PartySize   int       `json:"party_size"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ContactName string    `json:"contact_name"`
	ContactInfo string    `json:"contact_info"`
	Notes       string    `json:"notes,omitempty"`
}

type ReservationUpdateRequest struct {
	PartySize   int    `json:"party_size,omitempty"`
	ContactName string `json:"contact_name,omitempty"`
	ContactInfo string `json:"contact_info,omitempty"`
	Notes       string `json:"notes,omitempty"`
}
