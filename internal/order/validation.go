package order

import (
	"context"
	"strings"
)

func ValidateCreate(ctx context.Context, req CreateRequest) []string {
	var errors []string

	if len(req.Items) == 0 {
		errors = append(errors, "items are required")
	}

	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			errors = append(errors, "item name is required")
		}
		if item.Quantity <= 0 {
			errors = append(errors, "item quantity must be greater than 0")
		}
		if item.UnitPrice < 0 {
			errors = append(errors, "item unit price cannot be negative")
		}
	}

	if req.OrderType != "" {
		switch req.OrderType {
		case TypeDineIn, TypeTakeaway, TypeDelivery:
		default:
			errors = append(errors, "invalid order type")
		}
	}

	if req.OrderType == TypeDineIn && req.TableID == nil {
		errors = append(errors, "table_id is required for dine-in orders")
	}

	return errors
}

func ValidateStatus(ctx context.Context, req StatusRequest) []string {
	var errors []string

	switch req.Status {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
	default:
		errors = append(errors, "invalid status")
	}

	return errors
}

func ValidatePaymentStatus(ctx context.Context, req PaymentStatusRequest) []string {
	var errors []string

	switch req.PaymentStatus {
	case PaymentUnpaid, PaymentPartial, PaymentPaid:
	default:
		errors = append(errors, "invalid payment status")
	}

	return errors
}
