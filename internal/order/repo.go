package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repo interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context) ([]*Order, error)
	ListByTable(ctx context.Context, tableID uuid.UUID) ([]*Order, error)
	// ListByBranchAndRange returns orders for a branch created inside
	// [start, end), sorted by creation time (ascending when asc is true).
	ListByBranchAndRange(ctx context.Context, branchID string, start, end time.Time, asc bool) ([]*Order, error)
	ListActiveByTable(ctx context.Context, tableID uuid.UUID) ([]*Order, error)
	CountActiveByBranch(ctx context.Context, branchID string) (int, error)
	Save(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// StockChecker verifies that the inventory can cover the requested items.
// Catalog and inventory live outside this service; implementations call out
// to them and return an *InsufficientStockError on shortfall.
type StockChecker interface {
	CheckStock(ctx context.Context, items []LineItem) error
}
