package floor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opentabclub/opentab/pkg"
)

const MaxBodyBytes = 1 << 20

const tableEventSource = "floor"

// OrderRefChecker reports whether a table still has active orders attached.
// The floor package does not own orders; the order module provides this.
type OrderRefChecker interface {
	HasActiveOrders(ctx context.Context, tableID uuid.UUID) (bool, error)
}

type HandlerDeps struct {
	Repos
	Scheduler *Scheduler
	Publisher events.Publisher
	OrderRefs OrderRefChecker
}

type Handler struct {
	tableRepo       TableRepo
	reservationRepo ReservationRepo
	scheduler       *Scheduler
	orderRefs       OrderRefChecker
	logger          aqm.Logger
	config          *aqm.Config
	tlm             *telemetry.HTTP
	publisher       events.Publisher
}

func NewHandler(deps HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		tableRepo:       deps.TableRepo,
		reservationRepo: deps.ReservationRepo,
		scheduler:       deps.Scheduler,
		orderRefs:       deps.OrderRefs,
		logger:          logger,
		config:          config,
		tlm:             telemetry.NewHTTP(),
		publisher:       deps.Publisher,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Post("/", h.CreateTable)
		r.Get("/", h.ListTables)
		r.Get("/{id}", h.GetTable)
		r.Patch("/{id}", h.UpdateTable)
		r.Delete("/{id}", h.DeleteTable)

		r.Patch("/{id}/status", h.ChangeTableStatus)
		r.Post("/{id}/release", h.ReleaseTable)
		r.Post("/{id}/notes", h.AddTableNote)

		r.Route("/{tableID}/reservations", func(r chi.Router) {
			r.Post("/", h.CreateReservation)
			r.Get("/", h.ListTableReservations)
			r.Get("/next", h.NextReservation)
		})
	})

	r.Route("/reservations", func(r chi.Router) {
		r.Get("/", h.ListReservations)
		r.Get("/{id}", h.GetReservation)
		r.Put("/{id}", h.UpdateReservation)
		r.Put("/{id}/cancel", h.CancelReservation)
		r.Post("/{id}/check-in", h.CheckInReservation)
	})
}

// Table Handlers

func (h *Handler) CreateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeTableCreatePayload(w, r, log)
	if !ok {
		return
	}

	validationErrors := ValidateTableCreate(ctx, req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	table := NewTable()
	table.Number = req.Number
	table.Capacity = req.Capacity
	table.Zone = req.Zone
	table.BranchID = req.BranchID
	table.BeforeCreate()

	if err := h.tableRepo.Create(ctx, table); err != nil {
		log.Error("cannot create table", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not create table")
		return
	}

	h.publishTableStatusChanged(ctx, table, "", "table.created")

	links := aqm.RESTfulLinksFor(table)
	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, table, links...)
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	table, err := h.tableRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading table", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	if table == nil {
		aqm.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	links := aqm.RESTfulLinksFor(table)
	aqm.RespondSuccess(w, table, links...)
}

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTables")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	status := r.URL.Query().Get("status")

	var tables []*Table
	var err error

	if status != "" {
		tables, err = h.tableRepo.ListByStatus(ctx, status)
	} else {
		tables, err = h.tableRepo.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving tables", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve tables")
		return
	}

	aqm.RespondCollection(w, tables, "table")
}

func (h *Handler) UpdateTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeTableUpdatePayload(w, r, log)
	if !ok {
		return
	}

	table, err := h.tableRepo.Get(ctx, id)
	if err != nil || table == nil {
		log.Error("table not found", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	if req.Number != "" {
		table.Number = req.Number
	}
	if req.Capacity > 0 {
		table.Capacity = req.Capacity
	}
	if req.Zone != "" {
		table.Zone = req.Zone
	}

	table.BeforeUpdate()

	if err := h.tableRepo.Save(ctx, table); err != nil {
		log.Error("cannot update table", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not update table")
		return
	}

	links := aqm.RESTfulLinksFor(table)
	aqm.RespondSuccess(w, table, links...)
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	if h.orderRefs != nil {
		referenced, err := h.orderRefs.HasActiveOrders(ctx, id)
		if err != nil {
			log.Error("cannot check order references", "error", err, "id", id.String())
			aqm.RespondError(w, http.StatusInternalServerError, "Could not delete table")
			return
		}
		if referenced {
			log.Debug("table still referenced by orders", "id", id.String())
			aqm.RespondError(w, http.StatusConflict, ErrTableReferenced.Error())
			return
		}
	}

	if err := h.tableRepo.Delete(ctx, id); err != nil {
		log.Error("cannot delete table", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not delete table")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddTableNote(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddTableNote")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req TableNoteRequest
	if !h.decodePayload(w, r, log, &req, true) {
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		aqm.RespondError(w, http.StatusBadRequest, "Note content is required")
		return
	}

	table, err := h.tableRepo.Get(ctx, id)
	if err != nil || table == nil {
		log.Error("table not found", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	table.AddNote(req.Content, req.CreatedBy)
	table.BeforeUpdate()

	if err := h.tableRepo.Save(ctx, table); err != nil {
		log.Error("cannot add note", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not add note")
		return
	}

	links := aqm.RESTfulLinksFor(table)
	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, table, links...)
}

func (h *Handler) ChangeTableStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ChangeTableStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeTableStatusPayload(w, r, log)
	if !ok {
		return
	}

	validationErrors := ValidateTableStatus(ctx, id, req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	table, err := h.tableRepo.Get(ctx, id)
	if err != nil || table == nil {
		log.Error("table not found", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	previousStatus := table.Status
	err = table.Transition(req.Status, TransitionOpts{CurrentOrderID: req.CurrentOrderID})
	if err != nil {
		if errors.Is(err, ErrAlreadyOccupied) {
			log.Debug("table already occupied", "id", id.String())
			aqm.RespondError(w, http.StatusConflict, "Table already occupied")
			return
		}
		log.Debug("transition rejected", "from", previousStatus, "to", req.Status)
		aqm.RespondError(w, http.StatusConflict, err.Error())
		return
	}

	table.BeforeUpdate()
	if err := h.tableRepo.Save(ctx, table); err != nil {
		log.Error("cannot update table status", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not update table status")
		return
	}

	h.publishTableStatusChanged(ctx, table, previousStatus, "table.status_requested")

	links := aqm.RESTfulLinksFor(table)
	aqm.RespondSuccess(w, table, links...)
}

func (h *Handler) ReleaseTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ReleaseTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	table, err := h.tableRepo.Get(ctx, id)
	if err != nil || table == nil {
		log.Error("table not found", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Table not found")
		return
	}

	previousStatus := table.Status
	if err := table.ReleaseIfIdle(); err != nil {
		log.Error("cannot release table", "error", err)
		aqm.RespondError(w, http.StatusConflict, err.Error())
		return
	}

	if table.Status != previousStatus {
		table.BeforeUpdate()
		if err := h.tableRepo.Save(ctx, table); err != nil {
			log.Error("cannot save released table", "error", err)
			aqm.RespondError(w, http.StatusInternalServerError, "Could not release table")
			return
		}
		h.publishTableStatusChanged(ctx, table, previousStatus, "table.auto_released")
	}

	links := aqm.RESTfulLinksFor(table)
	aqm.RespondSuccess(w, table, links...)
}

func (h *Handler) publishTableStatusChanged(ctx context.Context, table *Table, previousStatus, reason string) {
	if h.publisher == nil || table == nil {
		return
	}

	event := pkg.TableStatusEvent{
		EventType:      pkg.EventTableStatusChanged,
		TableID:        table.ID.String(),
		Status:         table.Status,
		PreviousStatus: previousStatus,
		Reason:         reason,
		Source:         tableEventSource,
		OccurredAt:     time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("cannot marshal table status event", "error", err, "table_id", table.ID.String())
		return
	}

	if err := h.publisher.Publish(ctx, pkg.TableStatusTopic, payload); err != nil {
		h.logger.Error("cannot publish table status event", "error", err, "table_id", table.ID.String())
	}
}

// Reservation Handlers

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateReservation")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableIDStr := chi.URLParam(r, "tableID")
	tableID, err := uuid.Parse(tableIDStr)
	if err != nil {
		log.Debug("invalid table ID", "tableID", tableIDStr)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid table ID")
		return
	}

	req, ok := h.decodeReservationCreatePayload(w, r, log)
	if !ok {
		return
	}

	validationErrors := ValidateReservationCreate(ctx, req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	reservation := NewReservation()
	reservation.TableID = tableID
	reservation.PartySize = req.PartySize
	reservation.StartTime = req.StartTime
	reservation.EndTime = req.EndTime
	reservation.ContactName = req.ContactName
	reservation.ContactInfo = req.ContactInfo
	reservation.Notes = req.Notes

	if err := h.scheduler.CreateReservation(ctx, reservation); err != nil {
		if errors.Is(err, ErrOverlapConflict) {
			log.Debug("reservation overlap", "table_id", tableID.String(), "error", err)
			aqm.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("cannot create reservation", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not create reservation")
		return
	}

	links := aqm.RESTfulLinksFor(reservation)
	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, reservation, links...)
}

func (h *Handler) ListTableReservations(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTableReservations")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableIDStr := chi.URLParam(r, "tableID")
	tableID, err := uuid.Parse(tableIDStr)
	if err != nil {
		log.Debug("invalid table ID", "tableID", tableIDStr)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid table ID")
		return
	}

	reservations, err := h.reservationRepo.ListByTable(ctx, tableID)
	if err != nil {
		log.Error("error retrieving reservations", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve reservations")
		return
	}

	aqm.RespondCollection(w, reservations, "reservation")
}

func (h *Handler) NextReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.NextReservation")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableIDStr := chi.URLParam(r, "tableID")
	tableID, err := uuid.Parse(tableIDStr)
	if err != nil {
		log.Debug("invalid table ID", "tableID", tableIDStr)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid table ID")
		return
	}

	next, err := h.scheduler.NextReservation(ctx, tableID, time.Now())
	if err != nil {
		log.Error("error retrieving next reservation", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve next reservation")
		return
	}

	if next == nil {
		aqm.RespondError(w, http.StatusNotFound, "No upcoming reservation")
		return
	}

	links := aqm.RESTfulLinksFor(next)
	aqm.RespondSuccess(w, next, links...)
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListReservations")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	date := r.URL.Query().Get("date")

	var reservations []*Reservation
	var err error

	if date != "" {
		reservations, err = h.reservationRepo.ListByDate(ctx, date)
	} else {
		reservations, err = h.reservationRepo.List(ctx)
	}

	if err != nil {
		log.Error("error retrieving reservations", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve reservations")
		return
	}

	aqm.RespondCollection(w, reservations, "reservation")
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetReservation")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	reservation, err := h.reservationRepo.Get(ctx, id)
	if err != nil {
		log.Error("error loading reservation", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	if reservation == nil {
		aqm.RespondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	links := aqm.RESTfulLinksFor(reservation)
	aqm.RespondSuccess(w, reservation, links...)
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateReservation")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	req, ok := h.decodeReservationUpdatePayload(w, r, log)
	if !ok {
		return
	}

	reservation, err := h.reservationRepo.Get(ctx, id)
	if err != nil || reservation == nil {
		log.Error("reservation not found", "error", err, "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Reservation not found")
		return
	}

	if reservation.Status != ReservationConfirmed {
		// Terminal reservations stay frozen except for display fields.
		aqm.RespondError(w, http.StatusConflict, "Reservation already completed or cancelled")
		return
	}

	if req.PartySize > 0 {
		reservation.PartySize = req.PartySize
	}
	if req.ContactName != "" {
		reservation.ContactName = req.ContactName
	}
	if req.ContactInfo != "" {
		reservation.ContactInfo = req.ContactInfo
	}
	if req.Notes != "" {
		reservation.Notes = req.Notes
	}

	reservation.BeforeUpdate()

	if err := h.reservationRepo.Save(ctx, reservation); err != nil {
		log.Error("cannot update reservation", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not update reservation")
		return
	}

	links := aqm.RESTfulLinksFor(reservation)
	aqm.RespondSuccess(w, reservation, links...)
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CancelReservation")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	reservation, err := h.scheduler.Cancel(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReservationClosed) {
			aqm.RespondError(w, http.StatusConflict, "Reservation already completed or cancelled")
			return
		}
		log.Error("cannot cancel reservation", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not cancel reservation")
		return
	}

	links := aqm.RESTfulLinksFor(reservation)
	aqm.RespondSuccess(w, reservation, links...)
}

func (h *Handler) CheckInReservation(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CheckInReservation")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	reservation, table, err := h.scheduler.CheckIn(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrCheckInWindow):
			aqm.RespondError(w, http.StatusConflict, "Outside check-in window")
		case errors.Is(err, ErrReservationClosed):
			aqm.RespondError(w, http.StatusConflict, "Reservation already completed or cancelled")
		case errors.Is(err, ErrAlreadyOccupied):
			aqm.RespondError(w, http.StatusConflict, "Table already occupied")
		default:
			log.Error("cannot check in reservation", "error", err)
			aqm.RespondError(w, http.StatusInternalServerError, "Could not check in reservation")
		}
		return
	}

	h.publishTableStatusChanged(ctx, table, StatusReserved, "reservation.checked_in")

	links := aqm.RESTfulLinksFor(reservation)
	aqm.RespondSuccess(w, reservation, links...)
}

// Helper methods

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log aqm.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		aqm.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr, "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) decodeTableCreatePayload(w http.ResponseWriter, r *http.Request, log aqm.Logger) (TableCreateRequest, bool) {
	var req TableCreateRequest
	if !h.decodePayload(w, r, log, &req, true) {
		return TableCreateRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeTableUpdatePayload(w http.ResponseWriter, r *http.Request, log aqm.Logger) (TableUpdateRequest, bool) {
	var req TableUpdateRequest
	if !h.decodePayload(w, r, log, &req, false) {
		return TableUpdateRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeTableStatusPayload(w http.ResponseWriter, r *http.Request, log aqm.Logger) (TableStatusRequest, bool) {
	var req TableStatusRequest
	if !h.decodePayload(w, r, log, &req, true) {
		return TableStatusRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeReservationCreatePayload(w http.ResponseWriter, r *http.Request, log aqm.Logger) (ReservationCreateRequest, bool) {
	var req ReservationCreateRequest
	if !h.decodePayload(w, r, log, &req, true) {
		return ReservationCreateRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeReservationUpdatePayload(w http.ResponseWriter, r *http.Request, log aqm.Logger) (ReservationUpdateRequest, bool) {
	var req ReservationUpdateRequest
	if !h.decodePayload(w, r, log, &req, false) {
		return ReservationUpdateRequest{}, false
	}
	return req, true
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, log aqm.Logger, dest interface{}, requireBody bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		if requireBody {
			aqm.RespondError(w, http.StatusBadRequest, "Request body is empty")
			return false
		}
		return true
	}

	if err := json.Unmarshal(body, dest); err != nil {
		log.Debug("error decoding JSON", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}

	return true
}
