package order

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opentabclub/opentab/pkg"
)

func TestNewHandler(t *testing.T) {
	h := NewHandler(HandlerDeps{}, aqm.NewConfig(), nil)

	if h == nil {
		t.Fatal("NewHandler() returned nil")
	}
	if h.logger == nil {
		t.Error("NewHandler() should set noop logger when nil")
	}
}

func TestHandlerCreateOrder(t *testing.T) {
	tableID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440050")

	tests := []struct {
		name           string
		payload        map[string]interface{}
		stockErr       error
		expectedStatus int
		expectedEvents int
	}{
		{
			name: "validDineIn",
			payload: map[string]interface{}{
				"table_id": tableID.String(),
				"items": []map[string]interface{}{
					{"name": "Margherita", "unit_price": 12.5, "quantity": 2},
				},
			},
			expectedStatus: http.StatusCreated,
			expectedEvents: 1,
		},
		{
			name: "missingItems",
			payload: map[string]interface{}{
				"table_id": tableID.String(),
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "dineInWithoutTable",
			payload: map[string]interface{}{
				"order_type": TypeDineIn,
				"items": []map[string]interface{}{
					{"name": "Espresso", "unit_price": 3, "quantity": 1},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "stockShortfall",
			payload: map[string]interface{}{
				"table_id": tableID.String(),
				"items": []map[string]interface{}{
					{"name": "Margherita", "unit_price": 12.5, "quantity": 5},
				},
			},
			stockErr: &InsufficientStockError{
				Shortfalls: []StockShortfall{{Name: "Margherita", Requested: 5, Available: 2}},
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepo()
			publisher := &MockPublisher{}

			deps := HandlerDeps{
				Repo:      repo,
				Stock:     &MockStockChecker{Err: tt.stockErr},
				Publisher: publisher,
			}
			h := NewHandler(deps, aqm.NewConfig(), nil)

			body, _ := json.Marshal(tt.payload)
			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
			w := httptest.NewRecorder()
			h.CreateOrder(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("CreateOrder() status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if len(publisher.Published) != tt.expectedEvents {
				t.Errorf("published events = %d, want %d", len(publisher.Published), tt.expectedEvents)
			}
			if tt.expectedEvents > 0 {
				msg := publisher.Published[0]
				if msg.Topic != pkg.OrderLifecycleTopic {
					t.Errorf("event topic = %q, want %q", msg.Topic, pkg.OrderLifecycleTopic)
				}
				var event pkg.OrderEvent
				if err := json.Unmarshal(msg.Payload, &event); err != nil {
					t.Fatalf("cannot decode event: %v", err)
				}
				if event.EventType != pkg.EventOrderCreated {
					t.Errorf("event type = %q, want %q", event.EventType, pkg.EventOrderCreated)
				}
				if event.TotalAmount != 25 {
					t.Errorf("event total = %v, want 25", event.TotalAmount)
				}
			}
		})
	}
}

func TestHandlerCreateOrderComputesTotals(t *testing.T) {
	repo := NewMockRepo()
	h := NewHandler(HandlerDeps{Repo: repo}, aqm.NewConfig(), nil)

	tableID := uuid.New()
	payload := map[string]interface{}{
		"table_id": tableID.String(),
		"tax":      1.5,
		"items": []map[string]interface{}{
			{"name": "Margherita", "unit_price": 10, "quantity": 2},
		},
	}

	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.CreateOrder(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("CreateOrder() status = %d, want %d", w.Code, http.StatusCreated)
	}

	orders, _ := repo.List(context.Background())
	if len(orders) != 1 {
		t.Fatalf("expected 1 stored order, got %d", len(orders))
	}
	if orders[0].Subtotal != 20 || orders[0].TotalAmount != 21.5 {
		t.Errorf("totals = %v/%v, want 20/21.5", orders[0].Subtotal, orders[0].TotalAmount)
	}
}

func TestHandlerGetOrder(t *testing.T) {
	orderID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440051")

	tests := []struct {
		name           string
		orderID        string
		setupRepo      func(*MockRepo)
		expectedStatus int
	}{
		{
			name:    "validOrder",
			orderID: orderID.String(),
			setupRepo: func(repo *MockRepo) {
				repo.orders[orderID] = &Order{ID: orderID, Status: StatusPending}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "orderNotFound",
			orderID:        uuid.New().String(),
			setupRepo:      func(repo *MockRepo) {},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalidID",
			orderID:        "not-a-uuid",
			setupRepo:      func(repo *MockRepo) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepo()
			tt.setupRepo(repo)

			h := NewHandler(HandlerDeps{Repo: repo}, aqm.NewConfig(), nil)

			req := httptest.NewRequest(http.MethodGet, "/orders/"+tt.orderID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.orderID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			h.GetOrder(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("GetOrder() status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandlerUpdateStatus(t *testing.T) {
	orderID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440052")

	tests := []struct {
		name           string
		initialStatus  string
		targetStatus   string
		expectedStatus int
		expectedEvents int
	}{
		{
			name:           "confirmPending",
			initialStatus:  StatusPending,
			targetStatus:   StatusConfirmed,
			expectedStatus: http.StatusOK,
			expectedEvents: 1,
		},
		{
			name:           "unknownStatus",
			initialStatus:  StatusPending,
			targetStatus:   "plated",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "regressRejected",
			initialStatus:  StatusReady,
			targetStatus:   StatusConfirmed,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "terminalRejected",
			initialStatus:  StatusDelivered,
			targetStatus:   StatusCancelled,
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepo()
			repo.orders[orderID] = &Order{ID: orderID, Status: tt.initialStatus, PaymentStatus: PaymentUnpaid}
			publisher := &MockPublisher{}

			h := NewHandler(HandlerDeps{Repo: repo, Publisher: publisher}, aqm.NewConfig(), nil)

			body, _ := json.Marshal(StatusRequest{Status: tt.targetStatus})
			req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID.String()+"/status", bytes.NewReader(body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", orderID.String())
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			h.UpdateStatus(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("UpdateStatus() status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if len(publisher.Published) != tt.expectedEvents {
				t.Errorf("published events = %d, want %d", len(publisher.Published), tt.expectedEvents)
			}
		})
	}
}

func TestHandlerMoveTable(t *testing.T) {
	orderID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440053")
	sourceTable := uuid.MustParse("550e8400-e29b-41d4-a716-446655440054")
	targetTable := uuid.MustParse("550e8400-e29b-41d4-a716-446655440055")

	t.Run("movesOpenOrder", func(t *testing.T) {
		repo := NewMockRepo()
		src := sourceTable
		repo.orders[orderID] = &Order{ID: orderID, TableID: &src, Status: StatusPending, PaymentStatus: PaymentUnpaid}
		publisher := &MockPublisher{}

		h := NewHandler(HandlerDeps{Repo: repo, Publisher: publisher}, aqm.NewConfig(), nil)

		body, _ := json.Marshal(MoveTableRequest{TableID: targetTable})
		req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID.String()+"/move-table", bytes.NewReader(body))
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", orderID.String())
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		w := httptest.NewRecorder()
		h.MoveTable(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("MoveTable() status = %d, want %d", w.Code, http.StatusOK)
		}

		moved, _ := repo.Get(context.Background(), orderID)
		if moved.TableID == nil || *moved.TableID != targetTable {
			t.Error("expected order to reference target table")
		}
		if len(publisher.Published) != 1 {
			t.Errorf("published events = %d, want 1", len(publisher.Published))
		}
	})

	t.Run("rejectsTerminalOrder", func(t *testing.T) {
		repo := NewMockRepo()
		src := sourceTable
		repo.orders[orderID] = &Order{ID: orderID, TableID: &src, Status: StatusDelivered}

		h := NewHandler(HandlerDeps{Repo: repo}, aqm.NewConfig(), nil)

		body, _ := json.Marshal(MoveTableRequest{TableID: targetTable})
		req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID.String()+"/move-table", bytes.NewReader(body))
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", orderID.String())
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		w := httptest.NewRecorder()
		h.MoveTable(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("MoveTable() status = %d, want %d", w.Code, http.StatusConflict)
		}
	})
}
