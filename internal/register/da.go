package register

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"

	"github.com/opentabclub/opentab/pkg"
)

// OrderRecord mirrors the order payload returned by the order API.
type OrderRecord struct {
	ID            string              `json:"id"`
	TableID       string              `json:"table_id,omitempty"`
	BranchID      string              `json:"branch_id,omitempty"`
	OrderType     string              `json:"order_type,omitempty"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	PaymentMethod string              `json:"payment_method,omitempty"`
	Items         []pkg.OrderLineItem `json:"items,omitempty"`
	Subtotal      float64             `json:"subtotal"`
	TotalAmount   float64             `json:"total_amount"`
	CustomerName  string              `json:"customer_name,omitempty"`
	CustomerPhone string              `json:"customer_phone,omitempty"`
	Instructions  string              `json:"instructions,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// Event converts a pulled record into the same shape push delivery uses, so
// both paths flow through one reconciler entry point.
func (r OrderRecord) Event() pkg.OrderEvent {
	return pkg.OrderEvent{
		EventType:     pkg.EventOrderUpdated,
		OrderID:       r.ID,
		TableID:       r.TableID,
		BranchID:      r.BranchID,
		OrderType:     r.OrderType,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
		PaymentMethod: r.PaymentMethod,
		Items:         r.Items,
		Subtotal:      r.Subtotal,
		TotalAmount:   r.TotalAmount,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Instructions:  r.Instructions,
		CreatedAt:     r.CreatedAt,
		OccurredAt:    r.CreatedAt,
	}
}

type tableRecord struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrderDataAccess centralizes decoding of order API responses.
type OrderDataAccess struct {
	client *aqm.ServiceClient
}

func NewOrderDataAccess(client *aqm.ServiceClient) *OrderDataAccess {
	return &OrderDataAccess{client: client}
}

func (da *OrderDataAccess) ListOrders(ctx context.Context) ([]OrderRecord, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("order client not configured")
	}

	resp, err := da.client.List(ctx, "orders")
	if err != nil {
		return nil, err
	}

	var orders []OrderRecord
	if err := decodeSuccessResponse(resp, &orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (da *OrderDataAccess) ListActiveByTable(ctx context.Context, tableID uuid.UUID) ([]OrderRecord, error) {
	orders, err := da.ListOrders(ctx)
	if err != nil {
		return nil, err
	}

	var active []OrderRecord
	for _, record := range orders {
		if record.TableID != tableID.String() {
			continue
		}
		if isTerminalRecord(record.Status, record.PaymentStatus) {
			continue
		}
		active = append(active, record)
	}
	return active, nil
}

// MoveOrderTable reassigns one order's table reference. The order API accepts
// this as a generic field update.
func (da *OrderDataAccess) MoveOrderTable(ctx context.Context, orderID, tableID uuid.UUID) error {
	if da == nil || da.client == nil {
		return fmt.Errorf("order client not configured")
	}

	payload := map[string]interface{}{"table_id": tableID.String()}
	_, err := da.client.Update(ctx, "orders", orderID.String(), payload)
	return err
}

// TableDataAccess centralizes decoding of table API responses.
type TableDataAccess struct {
	client *aqm.ServiceClient
}

func NewTableDataAccess(client *aqm.ServiceClient) *TableDataAccess {
	return &TableDataAccess{client: client}
}

func (da *TableDataAccess) TableStatus(ctx context.Context, id uuid.UUID) (string, error) {
	if da == nil || da.client == nil {
		return "", fmt.Errorf("table client not configured")
	}

	resp, err := da.client.Get(ctx, "tables", id.String())
	if err != nil {
		return "", err
	}

	var table tableRecord
	if err := decodeSuccessResponse(resp, &table); err != nil {
		return "", err
	}

	return table.Status, nil
}

func (da *TableDataAccess) SetTableStatus(ctx context.Context, id uuid.UUID, status string) error {
	if da == nil || da.client == nil {
		return fmt.Errorf("table client not configured")
	}

	payload := map[string]interface{}{"status": status}
	_, err := da.client.Update(ctx, "tables", id.String()+"/status", payload)
	return err
}

func (da *TableDataAccess) CountByStatus(ctx context.Context, status string) (int, error) {
	if da == nil || da.client == nil {
		return 0, fmt.Errorf("table client not configured")
	}

	resp, err := da.client.List(ctx, "tables")
	if err != nil {
		return 0, err
	}

	var tables []tableRecord
	if err := decodeSuccessResponse(resp, &tables); err != nil {
		return 0, err
	}

	count := 0
	for _, table := range tables {
		if table.Status == status {
			count++
		}
	}
	return count, nil
}

// decodeSuccessResponse copies the dynamic response payload into dest.
func decodeSuccessResponse(resp *aqm.SuccessResponse, dest interface{}) error {
	if resp == nil {
		return errors.New("nil success response")
	}

	raw, err := json.Marshal(resp.Data)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, dest)
}

func isTerminalRecord(status, paymentStatus string) bool {
	return status == "delivered" || status == "cancelled" || paymentStatus == "paid"
}
