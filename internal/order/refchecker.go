package order

import (
	"context"

	"github.com/google/uuid"
)

// RefChecker answers whether a table still carries open orders. The floor
// package consults it before deleting or releasing a table.
type RefChecker struct {
	repo Repo
}

func NewRefChecker(repo Repo) *RefChecker {
	return &RefChecker{repo: repo}
}

func (c *RefChecker) HasActiveOrders(ctx context.Context, tableID uuid.UUID) (bool, error) {
	orders, err := c.repo.ListActiveByTable(ctx, tableID)
	if err != nil {
		return false, err
	}
	return len(orders) > 0, nil
}
