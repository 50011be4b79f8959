package cashier

import (
	"errors"
	"fmt"
)

var (
	ErrSessionAlreadyOpen = errors.New("an open session already exists for the branch")
	ErrSessionNotOpen     = errors.New("session is not open")
	ErrSessionCloseBlock  = errors.New("session close blocked")
)

// CloseBlockedError reports why a close was refused so the operator can
// resolve the remaining work before retrying.
type CloseBlockedError struct {
	ActiveOrdersCount   int `json:"active_orders_count"`
	OccupiedTablesCount int `json:"occupied_tables_count"`
}

func (e *CloseBlockedError) Error() string {
	return fmt.Sprintf("session close blocked: %d active orders, %d occupied tables",
		e.ActiveOrdersCount, e.OccupiedTablesCount)
}

func (e *CloseBlockedError) Unwrap() error {
	return ErrSessionCloseBlock
}
