package order

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

type HandlerDeps struct {
	Repo      Repo
	Stock     StockChecker
	Publisher events.Publisher
}

type Handler struct {
	repo      Repo
	stock     StockChecker
	logger    aqm.Logger
	config    *aqm.Config
	tlm       *telemetry.HTTP
	publisher events.Publisher
}

func NewHandler(deps HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		repo:      deps.Repo,
		stock:     deps.Stock,
		logger:    logger,
		config:    config,
		tlm:       telemetry.NewHTTP(),
		publisher: deps.Publisher,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Patch("/{id}/payment-status", h.UpdatePaymentStatus)
		r.Patch("/{id}/move-table", h.MoveTable)
	})
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeCreatePayload(w, r, log)
	if !ok {
		return
	}

	validationErrors := ValidateCreate(ctx, req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	if h.stock != nil {
		if err := h.stock.CheckStock(ctx, req.Items); err != nil {
			var shortage *InsufficientStockError
			if errors.As(err, &shortage) {
				log.Debug("stock shortfall", "items", len(shortage.Shortfalls))
				aqm.RespondError(w, http.StatusConflict, shortage.Error())
				return
			}
			log.Error("stock check failed", "error", err)
			aqm.RespondError(w, http.StatusInternalServerError, "Could not verify stock")
			return
		}
	}

	order := NewOrder()
	order.TableID = req.TableID
	order.BranchID = req.BranchID
	if req.OrderType != "" {
		order.OrderType = req.OrderType
	}
	order.Items = req.Items
	order.Tax = req.Tax
	order.Discount = req.Discount
	order.CustomerName = req.CustomerName
	order.CustomerPhone = req.CustomerPhone
	order.Instructions = req.Instructions

	// Totals are always derived server side from the items.
	order.ComputeTotals()

	order.BeforeCreate()

	if err := h.repo.Create(ctx, order); err != nil {
		log.Error("cannot create order", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not create order")
		return
	}

	h.publishOrderEvent(ctx, order, pkg.EventOrderCreated)

	links := aqm.RESTfulLinksFor(order)
	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, order, links...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	order, err := h.repo.Get(ctx, id)
	if err != nil || order == nil {
		log.Debug("order not found", "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	links := aqm.RESTfulLinksFor(order)
	aqm.RespondSuccess(w, order, links...)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	query := r.URL.Query()
	branchID := query.Get("branch_id")
	startStr := query.Get("start_date")
	endStr := query.Get("end_date")
	sort := query.Get("sort")

	if branchID == "" && startStr == "" && endStr == "" {
		orders, err := h.repo.List(ctx)
		if err != nil {
			log.Error("error retrieving orders", "error", err)
			aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve orders")
			return
		}
		aqm.RespondCollection(w, orders, "order")
		return
	}

	start, end, ok := h.parseDateRange(w, startStr, endStr, log)
	if !ok {
		return
	}

	orders, err := h.repo.ListByBranchAndRange(ctx, branchID, start, end, sort != "desc")
	if err != nil {
		log.Error("error retrieving orders", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not retrieve orders")
		return
	}

	aqm.RespondCollection(w, orders, "order")
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req StatusRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	validationErrors := ValidateStatus(ctx, req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	order, err := h.repo.Get(ctx, id)
	if err != nil || order == nil {
		log.Debug("order not found", "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if err := order.TransitionStatus(req.Status); err != nil {
		log.Debug("status transition rejected", "from", order.Status, "to", req.Status)
		aqm.RespondError(w, http.StatusConflict, err.Error())
		return
	}

	if err := h.repo.Save(ctx, order); err != nil {
		log.Error("cannot update order status", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not update order")
		return
	}

	h.publishOrderEvent(ctx, order, pkg.EventOrderStatusUpdated)

	links := aqm.RESTfulLinksFor(order)
	aqm.RespondSuccess(w, order, links...)
}

func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdatePaymentStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req PaymentStatusRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	validationErrors := ValidatePaymentStatus(ctx, req)
	if len(validationErrors) > 0 {
		log.Debug("validation failed", "errors", validationErrors)
		aqm.RespondError(w, http.StatusBadRequest, "Validation failed")
		return
	}

	order, err := h.repo.Get(ctx, id)
	if err != nil || order == nil {
		log.Debug("order not found", "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if err := order.TransitionPayment(req.PaymentStatus, req.PaymentMethod); err != nil {
		log.Debug("payment transition rejected", "from", order.PaymentStatus, "to", req.PaymentStatus)
		aqm.RespondError(w, http.StatusConflict, err.Error())
		return
	}

	if err := h.repo.Save(ctx, order); err != nil {
		log.Error("cannot update payment status", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not update order")
		return
	}

	h.publishOrderEvent(ctx, order, pkg.EventOrderPaymentUpdated)

	links := aqm.RESTfulLinksFor(order)
	aqm.RespondSuccess(w, order, links...)
}

func (h *Handler) MoveTable(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MoveTable")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req MoveTableRequest
	if !h.decodePayload(w, r, log, &req) {
		return
	}

	if req.TableID == uuid.Nil {
		aqm.RespondError(w, http.StatusBadRequest, "table_id is required")
		return
	}

	order, err := h.repo.Get(ctx, id)
	if err != nil || order == nil {
		log.Debug("order not found", "id", id.String())
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if err := order.MoveToTable(req.TableID); err != nil {
		log.Debug("move rejected", "id", id.String(), "error", err)
		aqm.RespondError(w, http.StatusConflict, err.Error())
		return
	}

	if err := h.repo.Save(ctx, order); err != nil {
		log.Error("cannot move order", "error", err)
		aqm.RespondError(w, http.StatusInternalServerError, "Could not move order")
		return
	}

	h.publishOrderEvent(ctx, order, pkg.EventOrderUpdated)

	links := aqm.RESTfulLinksFor(order)
	aqm.RespondSuccess(w, order, links...)
}

func (h *Handler) publishOrderEvent(ctx context.Context, order *Order, eventType string) {
	if h.publisher == nil || order == nil {
		return
	}

	payload, err := json.Marshal(EventFromOrder(order, eventType))
	if err != nil {
		h.logger.Error("cannot marshal order event", "error", err, "order_id", order.ID.String())
		return
	}

	if err := h.publisher.Publish(ctx, pkg.OrderLifecycleTopic, payload); err != nil {
		h.logger.Error("cannot publish order event", "error", err, "order_id", order.ID.String())
	}
}

// EventFromOrder builds the wire event carrying the full updated record.
func EventFromOrder(order *Order, eventType string) pkg.OrderEvent {
	event := pkg.OrderEvent{
		EventType:     eventType,
		OrderID:       order.ID.String(),
		BranchID:      order.BranchID,
		OrderType:     order.OrderType,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
		Subtotal:      order.Subtotal,
		TotalAmount:   order.TotalAmount,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Instructions:  order.Instructions,
		CreatedAt:     order.CreatedAt,
		OccurredAt:    time.Now().UTC(),
	}
	if order.TableID != nil {
		event.TableID = order.TableID.String()
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, pkg.OrderLineItem{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Note:      item.Note,
		})
	}
	return event
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

func (h *Handler) parseDateRange(w http.ResponseWriter, startStr, endStr string, log aqm.Logger) (time.Time, time.Time, bool) {
	start := time.Time{}
	end := time.Now().Add(24 * time.Hour)

	if startStr != "" {
		parsed, err := time.Parse("2006-01-02", startStr)
		if err != nil {
			log.Debug("invalid start_date", "start_date", startStr)
			aqm.RespondError(w, http.StatusBadRequest, "Invalid start_date")
			return time.Time{}, time.Time{}, false
		}
		start = parsed
	}

	if endStr != "" {
		parsed, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			log.Debug("invalid end_date", "end_date", endStr)
			aqm.RespondError(w, http.StatusBadRequest, "Invalid end_date")
			return time.Time{}, time.Time{}, false
		}
		end = parsed.Add(24 * time.Hour)
	}

	return start, end, true
}

func (h *Handler) decodeCreatePayload(w http.ResponseWriter, r *http.Request, log aqm.Logger) (CreateRequest, bool) {
	var req CreateRequest
	if !h.decodePayload(w, r, log, &req) {
		return CreateRequest{}, false
	}
	return req, true
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
