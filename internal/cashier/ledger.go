package cashier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"
	"github.com/google/uuid"

	"github.com/opentabclub/opentab/internal/floor"
	"github.com/opentabclub/opentab/pkg"
)

// OrderCounter reports how many non-terminal orders a branch still carries.
type OrderCounter interface {
	CountActiveByBranch(ctx context.Context, branchID string) (int, error)
}

// TableCounter reports how many tables a branch holds in a given status.
type TableCounter interface {
	CountByStatus(ctx context.Context, branchID, status string) (int, error)
}

type OpenParams struct {
	BranchID     string
	RestaurantID string
	CashierID    string
	OpeningFloat float64
	Notes        string
}

type CloseParams struct {
	ClosingCash   float64
	ExpectedCash  float64
	OrdersCount   int
	GrossSales    float64
	PaymentTotals map[string]float64
	Notes         string
}

// Ledger owns the open/close lifecycle of cash sessions and the guards that
// keep a shift from closing over unresolved work.
type Ledger struct {
	repo      Repo
	orders    OrderCounter
	tables    TableCounter
	publisher events.Publisher
	logger    aqm.Logger
	now       func() time.Time
}

func NewLedger(repo Repo, orders OrderCounter, tables TableCounter, publisher events.Publisher, logger aqm.Logger) *Ledger {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Ledger{
		repo:      repo,
		orders:    orders,
		tables:    tables,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Open starts a new shift. At most one open session may exist per branch.
func (l *Ledger) Open(ctx context.Context, params OpenParams) (*Session, error) {
	existing, err := l.repo.FindOpenByBranch(ctx, params.BranchID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSessionAlreadyOpen
	}

	session := NewSession(params.BranchID)
	session.RestaurantID = params.RestaurantID
	session.CashierID = params.CashierID
	session.OpeningFloat = params.OpeningFloat
	session.Notes = params.Notes
	session.OpenAt = l.now()
	session.BeforeCreate()

	if err := l.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	l.publishSessionChanged(ctx, session)
	return session, nil
}

// Close ends a shift. It refuses while the branch still has active orders or
// occupied tables, reporting both counts so the operator can resolve them.
func (l *Ledger) Close(ctx context.Context, id uuid.UUID, params CloseParams) (*Session, error) {
	session, err := l.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil || !session.IsOpen() {
		return nil, ErrSessionNotOpen
	}

	activeOrders, err := l.orders.CountActiveByBranch(ctx, session.BranchID)
	if err != nil {
		return nil, err
	}
	occupiedTables, err := l.tables.CountByStatus(ctx, session.BranchID, floor.StatusOccupied)
	if err != nil {
		return nil, err
	}
	if activeOrders > 0 || occupiedTables > 0 {
		return nil, &CloseBlockedError{
			ActiveOrdersCount:   activeOrders,
			OccupiedTablesCount: occupiedTables,
		}
	}

	closedAt := l.now()
	session.Status = StatusClosed
	session.ClosedAt = &closedAt
	session.ClosingCash = params.ClosingCash
	session.ExpectedCash = params.ExpectedCash
	session.CashVariance = params.ClosingCash - params.ExpectedCash
	session.OrdersCount = params.OrdersCount
	session.GrossSales = params.GrossSales
	session.PaymentTotals = params.PaymentTotals
	if params.Notes != "" {
		session.Notes = params.Notes
	}
	session.BeforeUpdate()

	if err := l.repo.Save(ctx, session); err != nil {
		return nil, err
	}

	l.publishSessionChanged(ctx, session)
	return session, nil
}

// Current returns the branch's open session, or nil when none is open.
func (l *Ledger) Current(ctx context.Context, branchID string) (*Session, error) {
	return l.repo.FindOpenByBranch(ctx, branchID)
}

func (l *Ledger) publishSessionChanged(ctx context.Context, session *Session) {
	if l.publisher == nil {
		return
	}

	payload, err := json.Marshal(pkg.SessionEvent{
		EventType:  pkg.EventSessionChanged,
		SessionID:  session.ID.String(),
		BranchID:   session.BranchID,
		Status:     session.Status,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		l.logger.Error("cannot marshal session event", "error", err)
		return
	}

	if err := l.publisher.Publish(ctx, pkg.SessionLifecycleTopic, payload); err != nil {
		l.logger.Error("cannot publish session event", "session_id", session.ID.String(), "error", err)
	}
}
