package order

import (
	"github.com/google/uuid"
)

type CreateRequest struct {
	TableID       *uuid.UUID `json:"table_id,omitempty"`
	BranchID      string     `json:"branch_id,omitempty"`
	OrderType     string     `json:"order_type,omitempty"`
	Items         []LineItem `json:"items"`
	Tax           float64    `json:"tax,omitempty"`
	Discount      float64    `json:"discount,omitempty"`
	Subtotal      float64    `json:"subtotal,omitempty"`
	TotalAmount   float64    `json:"total_amount,omitempty"`
	CustomerName  string     `json:"customer_name,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	Instructions  string     `json:"instructions,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

type MoveTableRequest struct {
	TableID uuid.UUID `json:"table_id"`
}
