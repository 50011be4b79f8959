package cashier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aquamarinepk/aqm"
	"github.com/go-chi/chi/v5"
)

func TestHandlerOpenSession(t *testing.T) {
	tests := []struct {
		name           string
		payload        map[string]interface{}
		expectedStatus int
	}{
		{
			name:           "validOpen",
			payload:        map[string]interface{}{"branch_id": "branch-1", "opening_float": 100.0},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missingBranch",
			payload:        map[string]interface{}{"opening_float": 100.0},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negativeFloat",
			payload:        map[string]interface{}{"branch_id": "branch-1", "opening_float": -5.0},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockRepo()
			ledger := NewLedger(repo, &MockOrderCounter{}, &MockTableCounter{}, nil, nil)
			h := NewHandler(HandlerDeps{Ledger: ledger, Repo: repo}, aqm.NewConfig(), nil)

			body, _ := json.Marshal(tt.payload)
			req := httptest.NewRequest(http.MethodPost, "/sessions/open", bytes.NewReader(body))
			w := httptest.NewRecorder()
			h.OpenSession(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("OpenSession() status = %d, want %d", w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandlerCloseSessionBlocked(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepo()
	ledger := NewLedger(repo, &MockOrderCounter{Count: 2}, &MockTableCounter{Count: 1}, nil, nil)
	h := NewHandler(HandlerDeps{Ledger: ledger, Repo: repo}, aqm.NewConfig(), nil)

	session, err := ledger.Open(ctx, OpenParams{BranchID: "branch-1", OpeningFloat: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body, _ := json.Marshal(closeRequest{ClosingCash: 150, ExpectedCash: 140})
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+session.ID.String()+"/close", bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", session.ID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	h.CloseSession(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("CloseSession() status = %d, want %d", w.Code, http.StatusConflict)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	if resp["active_orders_count"] != float64(2) {
		t.Errorf("active_orders_count = %v, want 2", resp["active_orders_count"])
	}
	if resp["occupied_tables_count"] != float64(1) {
		t.Errorf("occupied_tables_count = %v, want 1", resp["occupied_tables_count"])
	}
}

func TestHandlerCurrentSession(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepo()
	ledger := NewLedger(repo, &MockOrderCounter{}, &MockTableCounter{}, nil, nil)
	h := NewHandler(HandlerDeps{Ledger: ledger, Repo: repo}, aqm.NewConfig(), nil)

	t.Run("missingBranch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sessions/current", nil)
		w := httptest.NewRecorder()
		h.CurrentSession(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("CurrentSession() status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("noOpenSession", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sessions/current?branch_id=branch-1", nil)
		w := httptest.NewRecorder()
		h.CurrentSession(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("CurrentSession() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("openSession", func(t *testing.T) {
		if _, err := ledger.Open(ctx, OpenParams{BranchID: "branch-1", OpeningFloat: 100}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/sessions/current?branch_id=branch-1", nil)
		w := httptest.NewRecorder()
		h.CurrentSession(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("CurrentSession() status = %d, want %d", w.Code, http.StatusOK)
		}
	})
}
