package register

import (
	"context"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

// OrderMover reassigns orders between tables, one order at a time.
type OrderMover interface {
	ListActiveByTable(ctx context.Context, tableID uuid.UUID) ([]OrderRecord, error)
	MoveOrderTable(ctx context.Context, orderID, tableID uuid.UUID) error
}

// TableGateway reads and mutates authoritative table status.
type TableGateway interface {
	TableStatus(ctx context.Context, id uuid.UUID) (string, error)
	SetTableStatus(ctx context.Context, id uuid.UUID, status string) error
}

// MoveReport describes what a move actually accomplished. Orders that failed
// to reassign stay on the source table; the caller may retry just those.
type MoveReport struct {
	MovedOrderIDs   []uuid.UUID `json:"moved_order_ids"`
	FailedOrderIDs  []uuid.UUID `json:"failed_order_ids"`
	CartItemsMoved  int         `json:"cart_items_moved"`
	SourceReleased  bool        `json:"source_released"`
	DestinationHeld bool        `json:"destination_held"`
}

// MoveOperator relocates a table's unsent cart and active orders to another
// table. There is no cross-order transaction: each order reassignment is a
// discrete operation and partial failure is reported, not rolled back.
type MoveOperator struct {
	cache  *Cache
	orders OrderMover
	tables TableGateway
	logger aqm.Logger
}

func NewMoveOperator(cache *Cache, orders OrderMover, tables TableGateway, logger aqm.Logger) *MoveOperator {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &MoveOperator{
		cache:  cache,
		orders: orders,
		tables: tables,
		logger: logger,
	}
}

func (op *MoveOperator) Move(ctx context.Context, sourceID, destID uuid.UUID) (*MoveReport, error) {
	if sourceID == destID {
		return nil, ErrSameTable
	}

	sourcePrinted, err := op.cache.IsPrinted(ctx, sourceID.String())
	if err != nil {
		return nil, fmt.Errorf("cannot read source printed flag: %w", err)
	}
	if sourcePrinted {
		return nil, ErrAlreadyPrinted
	}

	destPrinted, err := op.cache.IsPrinted(ctx, destID.String())
	if err != nil {
		return nil, fmt.Errorf("cannot read destination printed flag: %w", err)
	}
	if destPrinted {
		return nil, ErrDestinationUnavailable
	}

	destStatus, err := op.tables.TableStatus(ctx, destID)
	if err != nil {
		return nil, fmt.Errorf("cannot read destination status: %w", err)
	}
	if destStatus != "available" && destStatus != "occupied" {
		return nil, ErrDestinationUnavailable
	}

	sourceCart, err := op.cache.GetCart(ctx, sourceID.String())
	if err != nil {
		return nil, fmt.Errorf("cannot read source cart: %w", err)
	}

	activeOrders, err := op.orders.ListActiveByTable(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("cannot list source orders: %w", err)
	}

	cartItems := 0
	if sourceCart != nil {
		cartItems = len(sourceCart.Items)
	}
	if cartItems == 0 && len(activeOrders) == 0 {
		return nil, ErrNothingToMove
	}

	report := &MoveReport{}

	if cartItems > 0 || (sourceCart != nil && sourceCart.Customer != (CustomerMeta{})) {
		if err := op.moveCart(ctx, sourceCart, destID); err != nil {
			return nil, err
		}
		report.CartItemsMoved = cartItems
	}

	for _, record := range activeOrders {
		orderID, parseErr := uuid.Parse(record.ID)
		if parseErr != nil {
			op.logger.Debug("skipping order with invalid id", "order_id", record.ID)
			continue
		}
		if err := op.orders.MoveOrderTable(ctx, orderID, destID); err != nil {
			op.logger.Error("order reassignment failed", "order_id", record.ID, "error", err)
			report.FailedOrderIDs = append(report.FailedOrderIDs, orderID)
			continue
		}
		report.MovedOrderIDs = append(report.MovedOrderIDs, orderID)
	}

	movedSomething := report.CartItemsMoved > 0 || len(report.MovedOrderIDs) > 0

	if destStatus == "available" && movedSomething {
		if err := op.tables.SetTableStatus(ctx, destID, "occupied"); err != nil {
			op.logger.Error("cannot occupy destination table", "table_id", destID.String(), "error", err)
		} else {
			report.DestinationHeld = true
		}
	}

	// The source is released only when nothing active stayed behind. A source
	// already marked available (a cart-only move) has nothing to release.
	if len(report.FailedOrderIDs) == 0 {
		sourceStatus, err := op.tables.TableStatus(ctx, sourceID)
		switch {
		case err != nil:
			op.logger.Error("cannot read source status", "table_id", sourceID.String(), "error", err)
		case sourceStatus == "available":
			report.SourceReleased = true
		default:
			if err := op.tables.SetTableStatus(ctx, sourceID, "available"); err != nil {
				op.logger.Error("cannot release source table", "table_id", sourceID.String(), "error", err)
			} else {
				report.SourceReleased = true
			}
		}
	}

	return report, nil
}

// moveCart concatenates the source cart onto the destination cart. Entries
// stay distinct lines; customer metadata keeps destination values, falling
// back to the source.
func (op *MoveOperator) moveCart(ctx context.Context, sourceCart *CartState, destID uuid.UUID) error {
	destCart, err := op.cache.GetCart(ctx, destID.String())
	if err != nil {
		return fmt.Errorf("cannot read destination cart: %w", err)
	}
	if destCart == nil {
		destCart = NewCartState(destID.String())
	}

	destCart.Items = append(destCart.Items, sourceCart.Items...)

	merged := sourceCart.Customer
	merged.Merge(destCart.Customer)
	destCart.Customer = merged

	if err := op.cache.SetCart(ctx, destCart); err != nil {
		return fmt.Errorf("cannot persist destination cart: %w", err)
	}

	if err := op.cache.DeleteCart(ctx, sourceCart.TableID); err != nil {
		return fmt.Errorf("cannot clear source cart: %w", err)
	}

	return nil
}
