package pkg

import "time"

const (
	// OrderLifecycleTopic delivers order create/update notifications to registers.
	OrderLifecycleTopic = "orders.lifecycle"
	// TableStatusTopic delivers authoritative status changes for tables.
	TableStatusTopic = "tables.status"
	// SessionLifecycleTopic delivers cash session open/close notifications.
	SessionLifecycleTopic = "sessions.lifecycle"
	// RegisterBatchesTopic notifies register views that a table's batch list changed.
	RegisterBatchesTopic = "register.batches"

	// EventOrderCreated identifies a freshly created order payload.
	EventOrderCreated = "order.created"
	// EventOrderUpdated identifies a general order update (items, table, metadata).
	EventOrderUpdated = "order.updated"
	// EventOrderStatusUpdated identifies an order status transition.
	EventOrderStatusUpdated = "order.status.updated"
	// EventOrderPaymentUpdated identifies a payment status transition.
	EventOrderPaymentUpdated = "order.payment.updated"
	// EventTableStatusChanged identifies a table status change event payload.
	EventTableStatusChanged = "table.status.changed"
	// EventSessionChanged identifies a session open or close.
	EventSessionChanged = "session.changed"
	// EventBatchesChanged identifies a register-local batch view refresh signal.
	EventBatchesChanged = "register.batches.changed"
)

// OrderLineItem is the wire form of a single order line.
type OrderLineItem struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Note      string  `json:"note,omitempty"`
}

// OrderEvent carries the full updated order record. Delivery is at-least-once
// and unordered; consumers must dedupe by OrderID.
type OrderEvent struct {
	EventType     string          `json:"event_type"`
	OrderID       string          `json:"order_id"`
	TableID       string          `json:"table_id,omitempty"`
	BranchID      string          `json:"branch_id,omitempty"`
	OrderType     string          `json:"order_type,omitempty"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Items         []OrderLineItem `json:"items,omitempty"`
	Subtotal      float64         `json:"subtotal"`
	TotalAmount   float64         `json:"total_amount"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	Instructions  string          `json:"instructions,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// TableStatusEvent captures the minimal information a register needs to
// reason about a table's availability.
type TableStatusEvent struct {
	EventType      string    `json:"event_type"`
	TableID        string    `json:"table_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Source         string    `json:"source,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// SessionEvent announces a cash session transition for a branch.
type SessionEvent struct {
	EventType  string    `json:"event_type"`
	SessionID  string    `json:"session_id"`
	BranchID   string    `json:"branch_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BatchesChangedEvent signals that the batch view for a table was rebuilt and
// dependent views should refresh.
type BatchesChangedEvent struct {
	EventType  string    `json:"event_type"`
	TableID    string    `json:"table_id"`
	Entries    int       `json:"entries"`
	OccurredAt time.Time `json:"occurred_at"`
}
