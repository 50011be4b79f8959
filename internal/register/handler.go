package register

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opentabclub/opentab/pkg"
)

const MaxBodyBytes = 1 << 20

// TableCounter reports how many tables currently hold a given status.
type TableCounter interface {
	CountByStatus(ctx context.Context, status string) (int, error)
}

type HandlerDeps struct {
	Cache      *Cache
	Mover      *MoveOperator
	Reconciler *Reconciler
	Orders     OrderSource
	Tables     TableCounter
}

// Handler exposes the register-side view: per-table batches and carts, the
// printed flag, table moves, and the expected cash estimate.
type Handler struct {
	cache      *Cache
	mover      *MoveOperator
	reconciler *Reconciler
	orders     OrderSource
	tables     TableCounter
	logger     aqm.Logger
	config     *aqm.Config
	tlm        *telemetry.HTTP
}

func NewHandler(deps HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		cache:      deps.Cache,
		mover:      deps.Mover,
		reconciler: deps.Reconciler,
		orders:     deps.Orders,
		tables:     deps.Tables,
		logger:     logger,
		config:     config,
		tlm:        telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/register", func(r chi.Router) {
		r.Post("/move", h.MoveTable)
		r.Post("/resync", h.Resync)
		r.Get("/expected-cash", h.ExpectedCash)

		r.Route("/tables/{tableID}", func(r chi.Router) {
			r.Get("/batches", h.GetBatches)
			r.Put("/cart", h.PutCart)
			r.Delete("/cart", h.DeleteCart)
			r.Post("/printed", h.MarkPrinted)
			r.Delete("/printed", h.ClearPrinted)
		})
	})
}

type moveRequest struct {
	SourceTableID      uuid.UUID `json:"source_table_id"`
	DestinationTableID uuid.UUID `json:"destination_table_id"`
}

func (h *Handler) MoveTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MoveTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req moveRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	if req.SourceTableID == uuid.Nil || req.DestinationTableID == uuid.Nil {
		aqm.RespondError(w, http.StatusBadRequest, "source_table_id and destination_table_id are required")
		return
	}

	report, err := h.mover.Move(ctx, req.SourceTableID, req.DestinationTableID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSameTable),
			errors.Is(err, ErrNothingToMove):
			aqm.RespondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrAlreadyPrinted),
			errors.Is(err, ErrDestinationUnavailable):
			aqm.RespondError(w, http.StatusConflict, err.Error())
		default:
			log.Error("move failed", "error", err)
			aqm.RespondError(w, http.StatusInternalServerError, "Could not move table")
		}
		return
	}

	aqm.RespondSuccess(w, report)
}

func (h *Handler) Resync(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.Resync")
	defer finish()

	log := h.log(r)

	if err := h.reconciler.FullResync(r.Context()); err != nil {
		log.Error("resync failed", "error", err)
		aqm.RespondError(w, http.StatusBadGateway, "Could not resync from order service")
		return
	}

	aqm.RespondSuccess(w, map[string]string{"status": "resynced"})
}

type tableView struct {
	TableID   string     `json:"table_id"`
	Batch     *Batch     `json:"batch,omitempty"`
	Cart      *CartState `json:"cart,omitempty"`
	ItemCount int        `json:"item_count"`
	Printed   bool       `json:"printed"`
}

func (h *Handler) GetBatches(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetBatches")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseTableIDParam(w, r, log)
	if !ok {
		return
	}

	batch, err := h.cache.GetBatch(ctx, tableID.String())
	if err != nil {
		log.Error("cannot read batch", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not read batch view")
		return
	}
	cart, err := h.cache.GetCart(ctx, tableID.String())
	if err != nil {
		log.Error("cannot read cart", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not read cart")
		return
	}
	printed, err := h.cache.IsPrinted(ctx, tableID.String())
	if err != nil {
		log.Error("cannot read printed flag", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not read printed flag")
		return
	}

	view := tableView{
		TableID: tableID.String(),
		Batch:   batch,
		Cart:    cart,
		Printed: printed,
	}
	if batch != nil {
		view.ItemCount = batch.ItemCount()
	}

	aqm.RespondSuccess(w, view)
}

type cartRequest struct {
	Items    []pkg.OrderLineItem `json:"items"`
	Customer CustomerMeta        `json:"customer"`
}

func (h *Handler) PutCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.PutCart")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseTableIDParam(w, r, log)
	if !ok {
		return
	}

	var req cartRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	cart := NewCartState(tableID.String())
	cart.Items = req.Items
	cart.Customer = req.Customer

	if err := h.cache.SetCart(ctx, cart); err != nil {
		log.Error("cannot persist cart", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not save cart")
		return
	}

	aqm.RespondSuccess(w, cart)
}

func (h *Handler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteCart")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseTableIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.cache.DeleteCart(ctx, tableID.String()); err != nil {
		log.Error("cannot delete cart", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not delete cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkPrinted(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MarkPrinted")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseTableIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.cache.SetPrinted(ctx, tableID.String()); err != nil {
		log.Error("cannot mark printed", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not set printed flag")
		return
	}

	aqm.RespondSuccess(w, map[string]interface{}{"table_id": tableID.String(), "printed": true})
}

func (h *Handler) ClearPrinted(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearPrinted")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, ok := h.parseTableIDParam(w, r, log)
	if !ok {
		return
	}

	if err := h.cache.ClearPrinted(ctx, tableID.String()); err != nil {
		log.Error("cannot clear printed flag", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not clear printed flag")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ExpectedCash(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ExpectedCash")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	query := r.URL.Query()

	openAt, err := time.Parse(time.RFC3339, query.Get("open_at"))
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "open_at must be RFC3339")
		return
	}

	var openingFloat float64
	if raw := query.Get("opening_float"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			aqm.RespondError(w, http.StatusBadRequest, "opening_float must be a number")
			return
		}
		openingFloat = parsed
	}

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		log.Error("cannot fetch orders for estimate", "error", err)
		aqm.RespondError(w, http.StatusBadGateway, "Could not fetch orders")
		return
	}

	estimate := EstimateExpectedCash(openingFloat, openAt, orders)
	result := map[string]interface{}{
		"expected_cash": estimate,
		"open_at":       openAt,
		"opening_float": openingFloat,
	}

	if h.tables != nil {
		occupied, err := h.tables.CountByStatus(ctx, "occupied")
		if err != nil {
			log.Debug("cannot count occupied tables", "error", err)
		} else {
			result["occupied_tables"] = occupied
		}
	}

	aqm.RespondSuccess(w, result)
}

// Helper methods

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}

func (h *Handler) parseTableIDParam(w http.ResponseWriter, r *http.Request, log aqm.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "tableID")
	if idStr == "" {
		log.Debug("missing table id parameter")
		aqm.RespondError(w, http.StatusBadRequest, "Missing table id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid table id parameter", "table_id", idStr, "error", err)
		aqm.RespondError(w, http.StatusBadRequest, "Invalid table id parameter")
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
