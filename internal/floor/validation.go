package floor

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

func ValidateTableCreate(ctx context.Context, req TableCreateRequest) []string {
	var errors []string

	if strings.TrimSpace(req.Number) == "" {
		errors = append(errors, "number is required")
	}

	if req.Capacity < 0 {
		errors = append(errors, "capacity cannot be negative")
	}

	return errors
}

func ValidateTableStatus(ctx context.Context, id uuid.UUID, req TableStatusRequest) []string {
	var errors []string

	if id == uuid.Nil {
		errors = append(errors, "invalid table id")
	}

	if !ValidStatus(req.Status) {
		errors = append(errors, "invalid status")
	}

	return errors
}

func ValidateReservationCreate(ctx context.Context, req ReservationCreateRequest) []string {
	var errors []string

	if req.PartySize <= 0 {
		errors = append(errors, "party_size must be greater than 0")
	}

	if req.StartTime.IsZero() {
		errors = append(errors, "start_time is required")
	}

	if req.EndTime.IsZero() {
		errors = append(errors, "end_time is required")
	}

	if !req.StartTime.IsZero() && !req.EndTime.IsZero() && !req.EndTime.After(req.StartTime) {
		errors = append(errors, "end_time must be after start_time")
	}

	if strings.TrimSpace(req.ContactName) == "" {
		errors = append(errors, "contact_name is required")
	}

	return errors
}
