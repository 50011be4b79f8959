package cashier

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const MaxBodyBytes = 1 << 20

type HandlerDeps struct {
	Ledger *Ledger
	Repo   Repo
}

type Handler struct {
	ledger *Ledger
	repo   Repo
	logger aqm.Logger
	config *aqm.Config
	tlm    *telemetry.HTTP
}

func NewHandler(deps HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		ledger: deps.Ledger,
		repo:   deps.Repo,
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/open", h.OpenSession)
		r.Post("/{id}/close", h.CloseSession)
		r.Get("/current", h.CurrentSession)
		r.Get("/{id}", h.GetSession)
	})
}

type openRequest struct {
	BranchID     string  `json:"branch_id"`
	RestaurantID string  `json:"restaurant_id,omitempty"`
	CashierID    string  `json:"cashier_id,omitempty"`
	OpeningFloat float64 `json:"opening_float"`
	Notes        string  `json:"notes,omitempty"`
}

type closeRequest struct {
	ClosingCash   float64            `json:"closing_cash"`
	ExpectedCash  float64            `json:"expected_cash"`
	OrdersCount   int                `json:"orders_count,omitempty"`
	GrossSales    float64            `json:"gross_sales,omitempty"`
	PaymentTotals map[string]float64 `json:"payment_totals,omitempty"`
	Notes         string             `json:"notes,omitempty"`
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OpenSession")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req openRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	if strings.TrimSpace(req.BranchID) == "" {
		aqm.RespondError(w, http.StatusBadRequest, "branch_id is required")
		return
	}
	if req.OpeningFloat < 0 {
		aqm.RespondError(w, http.StatusBadRequest, "opening_float cannot be negative")
		return
	}

	session, err := h.ledger.Open(ctx, OpenParams{
		BranchID:     req.BranchID,
		RestaurantID: req.RestaurantID,
		CashierID:    req.CashierID,
		OpeningFloat: req.OpeningFloat,
		Notes:        req.Notes,
	})
	if err != nil {
		if errors.Is(err, ErrSessionAlreadyOpen) {
			log.Debug("open refused", "branch_id", req.BranchID)
			aqm.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("cannot open session", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not open session")
		return
	}

	links := aqm.RESTfulLinksFor(session)
	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, session, links...)
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CloseSession")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req closeRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	session, err := h.ledger.Close(ctx, id, CloseParams{
		ClosingCash:   req.ClosingCash,
		ExpectedCash:  req.ExpectedCash,
		OrdersCount:   req.OrdersCount,
		GrossSales:    req.GrossSales,
		PaymentTotals: req.PaymentTotals,
		Notes:         req.Notes,
	})
	if err != nil {
		var blocked *CloseBlockedError
		if errors.As(err, &blocked) {
			log.Debug("close refused",
				"session_id", id.String(),
				"active_orders", blocked.ActiveOrdersCount,
				"occupied_tables", blocked.OccupiedTablesCount)
			h.respondCloseBlocked(w, blocked)
			return
		}
		if errors.Is(err, ErrSessionNotOpen) {
			aqm.RespondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Error("cannot close session", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not close session")
		return
	}

	links := aqm.RESTfulLinksFor(session)
	aqm.RespondSuccess(w, session, links...)
}

func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CurrentSession")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	branchID := r.URL.Query().Get("branch_id")
	if branchID == "" {
		aqm.RespondError(w, http.StatusBadRequest, "branch_id is required")
		return
	}

	session, err := h.ledger.Current(ctx, branchID)
	if err != nil {
		log.Error("cannot fetch current session", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not fetch session")
		return
	}
	if session == nil {
		aqm.RespondError(w, http.StatusNotFound, "No open session for branch")
		return
	}

	links := aqm.RESTfulLinksFor(session)
	aqm.RespondSuccess(w, session, links...)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSession")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	session, err := h.repo.Get(ctx, id)
	if err != nil || session == nil {
		log.Debug("session not found", "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Session not found")
		return
	}

	links := aqm.RESTfulLinksFor(session)
	aqm.RespondSuccess(w, session, links...)
}

// respondCloseBlocked returns the guard counts in the error body so the
// operator can see exactly what to resolve.
func (h *Handler) respondCloseBlocked(w http.ResponseWriter, blocked *CloseBlockedError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":                 blocked.Error(),
		"active_orders_count":   blocked.ActiveOrdersCount,
		"occupied_tables_count": blocked.OccupiedTablesCount,
	})
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

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request, log aqm.Logger, dest interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("error reading request body", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return false
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		aqm.RespondError(w, http.StatusBadRequest, "Request body is empty")
		return false
	}

	if err := json.Unmarshal(body, dest); err != nil {
		log.Debug("error decoding JSON", "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}

	return true
}
