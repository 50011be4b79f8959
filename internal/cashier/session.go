package cashier

import (
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Session is one cash register shift for a branch. Sessions are an audit
// trail and are never deleted; a close mutates the record once and freezes it.
type Session struct {
	ID            uuid.UUID          `json:"id" bson:"_id"`
	BranchID      string             `json:"branch_id" bson:"branch_id"`
	RestaurantID  string             `json:"restaurant_id,omitempty" bson:"restaurant_id,omitempty"`
	CashierID     string             `json:"cashier_id,omitempty" bson:"cashier_id,omitempty"`
	Status        string             `json:"status" bson:"status"`
	OpenAt        time.Time          `json:"open_at" bson:"open_at"`
	OpeningFloat  float64            `json:"opening_float" bson:"opening_float"`
	ClosedAt      *time.Time         `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
	ClosingCash   float64            `json:"closing_cash,omitempty" bson:"closing_cash,omitempty"`
	ExpectedCash  float64            `json:"expected_cash,omitempty" bson:"expected_cash,omitempty"`
	CashVariance  float64            `json:"cash_variance,omitempty" bson:"cash_variance,omitempty"`
	OrdersCount   int                `json:"orders_count,omitempty" bson:"orders_count,omitempty"`
	GrossSales    float64            `json:"gross_sales,omitempty" bson:"gross_sales,omitempty"`
	PaymentTotals map[string]float64 `json:"payment_totals,omitempty" bson:"payment_totals,omitempty"`
	Notes         string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

func (s *Session) GetID() uuid.UUID {
	return s.ID
}

func (s *Session) ResourceType() string {
	return "session"
}

func (s *Session) SetID(id uuid.UUID) {
	s.ID = id
}

func NewSession(branchID string) *Session {
	return &Session{
		ID:       aqm.GenerateNewID(),
		BranchID: branchID,
		Status:   StatusOpen,
	}
}

func (s *Session) EnsureID() {
	if s.ID == uuid.Nil {
		s.ID = aqm.GenerateNewID()
	}
}

func (s *Session) BeforeCreate() {
	s.EnsureID()
	s.CreatedAt = time.Now()
	s.UpdatedAt = time.Now()
}

func (s *Session) BeforeUpdate() {
	s.UpdatedAt = time.Now()
}

func (s *Session) IsOpen() bool {
	return s.Status == StatusOpen
}
