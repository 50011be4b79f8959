package order

import (
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"

	PaymentUnpaid  = "unpaid"
	PaymentPartial = "partial"
	PaymentPaid    = "paid"

	TypeDineIn   = "dine_in"
	TypeTakeaway = "takeaway"
	TypeDelivery = "delivery"
)

type Order struct {
	ID            uuid.UUID  `json:"id" bson:"_id"`
	TableID       *uuid.UUID `json:"table_id,omitempty" bson:"table_id,omitempty"`
	BranchID      string     `json:"branch_id,omitempty" bson:"branch_id,omitempty"`
	OrderType     string     `json:"order_type" bson:"order_type"`
	Status        string     `json:"status" bson:"status"`
	PaymentStatus string     `json:"payment_status" bson:"payment_status"`
	PaymentMethod string     `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	Items         []LineItem `json:"items" bson:"items"`
	Subtotal      float64    `json:"subtotal" bson:"subtotal"`
	Tax           float64    `json:"tax,omitempty" bson:"tax,omitempty"`
	Discount      float64    `json:"discount,omitempty" bson:"discount,omitempty"`
	TotalAmount   float64    `json:"total_amount" bson:"total_amount"`
	CustomerName  string     `json:"customer_name,omitempty" bson:"customer_name,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty" bson:"customer_phone,omitempty"`
	Instructions  string     `json:"instructions,omitempty" bson:"instructions,omitempty"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	CreatedBy     string     `json:"created_by" bson:"created_by"`
	UpdatedAt     time.Time  `json:"updated_at" bson:"updated_at"`
	UpdatedBy     string     `json:"updated_by" bson:"updated_by"`
}

type LineItem struct {
	Name      string  `json:"name" bson:"name"`
	UnitPrice float64 `json:"unit_price" bson:"unit_price"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Note      string  `json:"note,omitempty" bson:"note,omitempty"`
}

func (o *Order) GetID() uuid.UUID {
	return o.ID
}

func (o *Order) ResourceType() string {
	return "order"
}

func (o *Order) SetID(id uuid.UUID) {
	o.ID = id
}

func NewOrder() *Order {
	return &Order{
		ID:            aqm.GenerateNewID(),
		OrderType:     TypeDineIn,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		Items:         []LineItem{},
	}
}

func (o *Order) EnsureID() {
	if o.ID == uuid.Nil {
		o.ID = aqm.GenerateNewID()
	}
}

func (o *Order) BeforeCreate() {
	o.EnsureID()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
}

func (o *Order) BeforeUpdate() {
	o.UpdatedAt = time.Now()
}

// IsTerminal reports whether the order has left the active set: delivered,
// cancelled, or fully paid orders never reappear on a table.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusDelivered || o.Status == StatusCancelled || o.PaymentStatus == PaymentPaid
}

// ComputeTotals derives subtotal and total from line items. Tax and discount
// are kept as explicit overrides on top of the derived subtotal.
func (o *Order) ComputeTotals() {
	var subtotal float64
	for _, item := range o.Items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	o.Subtotal = subtotal
	o.TotalAmount = subtotal + o.Tax - o.Discount
}

// statusFlow lists the forward transitions for order status. Cancellation is
// allowed from any non-terminal status.
var statusFlow = map[string]string{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusPreparing,
	StatusPreparing: StatusReady,
	StatusReady:     StatusDelivered,
}

// TransitionStatus advances the order along the status flow.
func (o *Order) TransitionStatus(target string) error {
	if o.IsTerminal() {
		return ErrOrderTerminal
	}
	if target == StatusCancelled {
		o.Status = StatusCancelled
		o.UpdatedAt = time.Now()
		return nil
	}

	// Walk forward from the current status; skipping intermediate steps is
	// allowed (an order can go straight from pending to delivered).
	for current := o.Status; current != ""; current = statusFlow[current] {
		if statusFlow[current] == target {
			o.Status = target
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return &InvalidOrderTransitionError{From: o.Status, To: target}
}

// TransitionPayment updates the payment status. Delivered orders can still be
// paid: the bill is settled after the food lands, and the order only leaves
// the billable set once paid or cancelled.
func (o *Order) TransitionPayment(target, method string) error {
	if o.Status == StatusCancelled {
		return ErrOrderTerminal
	}
	if o.PaymentStatus == PaymentPaid {
		return ErrOrderTerminal
	}
	switch target {
	case PaymentUnpaid, PaymentPartial, PaymentPaid:
	default:
		return &InvalidOrderTransitionError{From: o.PaymentStatus, To: target}
	}
	o.PaymentStatus = target
	if method != "" {
		o.PaymentMethod = method
	}
	o.UpdatedAt = time.Now()
	return nil
}

// MoveToTable reassigns the order's table reference. Terminal orders are
// frozen and cannot move.
func (o *Order) MoveToTable(tableID uuid.UUID) error {
	if o.IsTerminal() {
		return ErrOrderTerminal
	}
	o.TableID = &tableID
	o.UpdatedAt = time.Now()
	return nil
}
