package order

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOrderTerminal          = errors.New("order is in a terminal status")
	ErrInvalidOrderTransition = errors.New("invalid order transition")
	ErrInsufficientStock      = errors.New("insufficient stock")
)

// InvalidOrderTransitionError reports a status or payment change outside the
// allowed flow.
type InvalidOrderTransitionError struct {
	From string
	To   string
}

func (e *InvalidOrderTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition from %q to %q", e.From, e.To)
}

func (e *InvalidOrderTransitionError) Unwrap() error {
	return ErrInvalidOrderTransition
}

// StockShortfall describes one line item the inventory could not cover.
type StockShortfall struct {
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStockError carries the per-item shortfall so the register can
// offer the operator a remediation (drop or reduce the item).
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	names := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		names = append(names, fmt.Sprintf("%s (requested %d, available %d)", s.Name, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(names, ", ")
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
