package register

import (
	"time"

	"github.com/opentabclub/opentab/pkg"
)

// SchemaVersion tags every cached record so a future layout change can detect
// and discard stale entries instead of misreading them.
const SchemaVersion = 1

// BatchEntry is one confirmed order currently sitting on a table. Identity is
// the order id; Sequence preserves arrival order within the table.
type BatchEntry struct {
	OrderID       string              `json:"order_id"`
	Sequence      int                 `json:"sequence"`
	Status        string              `json:"status"`
	PaymentStatus string              `json:"payment_status"`
	Items         []pkg.OrderLineItem `json:"items"`
	Subtotal      float64             `json:"subtotal"`
	TotalAmount   float64             `json:"total_amount"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Batch is the aggregated per-table view of confirmed orders. A table with no
// active orders has no Batch record at all.
type Batch struct {
	SchemaVersion int          `json:"schema_version"`
	TableID       string       `json:"table_id"`
	Entries       []BatchEntry `json:"entries"`
	NextSequence  int          `json:"next_sequence"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func NewBatch(tableID string) *Batch {
	return &Batch{
		SchemaVersion: SchemaVersion,
		TableID:       tableID,
		NextSequence:  1,
	}
}

// Find returns the entry for an order id, or nil.
func (b *Batch) Find(orderID string) *BatchEntry {
	for i := range b.Entries {
		if b.Entries[i].OrderID == orderID {
			return &b.Entries[i]
		}
	}
	return nil
}

// Remove drops the entry for an order id and reports whether it was present.
func (b *Batch) Remove(orderID string) bool {
	for i := range b.Entries {
		if b.Entries[i].OrderID == orderID {
			b.Entries = append(b.Entries[:i], b.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Append adds a new entry with the next per-table sequence number. Callers
// must run the duplicate guard (Find) first.
func (b *Batch) Append(entry BatchEntry) {
	entry.Sequence = b.NextSequence
	b.NextSequence++
	b.Entries = append(b.Entries, entry)
}

// ItemCount sums line item quantities across all entries.
func (b *Batch) ItemCount() int {
	total := 0
	for _, entry := range b.Entries {
		for _, item := range entry.Items {
			total += item.Quantity
		}
	}
	return total
}

// CustomerMeta is the register-entered customer context for a table.
type CustomerMeta struct {
	Name         string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	OrderType    string `json:"order_type,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Merge overwrites only the fields where the incoming value is non-empty.
func (m *CustomerMeta) Merge(incoming CustomerMeta) {
	if incoming.Name != "" {
		m.Name = incoming.Name
	}
	if incoming.Phone != "" {
		m.Phone = incoming.Phone
	}
	if incoming.OrderType != "" {
		m.OrderType = incoming.OrderType
	}
	if incoming.Instructions != "" {
		m.Instructions = incoming.Instructions
	}
}

// CartState is the unsent, still-editable cart for a table.
type CartState struct {
	SchemaVersion int                 `json:"schema_version"`
	TableID       string              `json:"table_id"`
	Items         []pkg.OrderLineItem `json:"items"`
	Customer      CustomerMeta        `json:"customer"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func NewCartState(tableID string) *CartState {
	return &CartState{
		SchemaVersion: SchemaVersion,
		TableID:       tableID,
	}
}

// PrintedFlag marks a table whose current transaction was finalized for
// billing. Printed tables are frozen for moves and merges.
type PrintedFlag struct {
	SchemaVersion int       `json:"schema_version"`
	Printed       bool      `json:"printed"`
	PrintedAt     time.Time `json:"printed_at,omitempty"`
}
