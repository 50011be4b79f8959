package register

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/opentabclub/opentab/pkg"
)

const (
	cacheWriteAttempts = 3
	cacheWriteBackoff  = 50 * time.Millisecond
)

// OrderSource provides the periodic full pull of server-confirmed orders.
type OrderSource interface {
	ListOrders(ctx context.Context) ([]OrderRecord, error)
}

// Reconciler merges order records arriving from push events and pull refreshes
// into the per-table batch view. It is idempotent with respect to duplicated
// and reordered delivery: identity is the order id, and full pulls replay in
// creation order so both paths converge on the same final state.
type Reconciler struct {
	cache     *Cache
	source    OrderSource
	publisher events.Publisher
	logger    aqm.Logger
}

func NewReconciler(cache *Cache, source OrderSource, publisher events.Publisher, logger aqm.Logger) *Reconciler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Reconciler{
		cache:     cache,
		source:    source,
		publisher: publisher,
		logger:    logger,
	}
}

// Apply folds one order record into the batch view. Records without a table
// reference are not table-scoped and are skipped.
func (r *Reconciler) Apply(ctx context.Context, event pkg.OrderEvent) error {
	if event.TableID == "" || event.OrderID == "" {
		return nil
	}

	if isTerminalRecord(event.Status, event.PaymentStatus) {
		return r.applyTerminal(ctx, event)
	}
	return r.applyActive(ctx, event)
}

func (r *Reconciler) applyTerminal(ctx context.Context, event pkg.OrderEvent) error {
	batch, err := r.cache.GetBatch(ctx, event.TableID)
	if err != nil {
		r.logger.Error("cannot read batch", "table_id", event.TableID, "error", err)
		return nil
	}
	if batch == nil || !batch.Remove(event.OrderID) {
		return nil
	}

	if len(batch.Entries) == 0 {
		// The transaction is closed; a leftover cart for this table is stale.
		if err := r.cache.DeleteBatch(ctx, event.TableID); err != nil {
			r.logger.Error("cannot delete batch", "table_id", event.TableID, "error", err)
			return nil
		}
		if err := r.cache.DeleteCart(ctx, event.TableID); err != nil {
			r.logger.Error("cannot purge cart", "table_id", event.TableID, "error", err)
		}
		r.publishBatchesChanged(ctx, event.TableID, 0)
		return nil
	}

	if !r.persistWithRetry(ctx, batch) {
		return nil
	}
	r.publishBatchesChanged(ctx, event.TableID, len(batch.Entries))
	return nil
}

func (r *Reconciler) applyActive(ctx context.Context, event pkg.OrderEvent) error {
	batch, err := r.cache.GetBatch(ctx, event.TableID)
	if err != nil {
		r.logger.Error("cannot read batch", "table_id", event.TableID, "error", err)
		return nil
	}
	if batch == nil {
		batch = NewBatch(event.TableID)
	}

	if entry := batch.Find(event.OrderID); entry != nil {
		// Update in place so earlier orders keep their position.
		entry.Status = event.Status
		entry.PaymentStatus = event.PaymentStatus
		entry.Items = event.Items
		entry.Subtotal = event.Subtotal
		entry.TotalAmount = event.TotalAmount
		entry.UpdatedAt = event.OccurredAt
	} else {
		batch.Append(BatchEntry{
			OrderID:       event.OrderID,
			Status:        event.Status,
			PaymentStatus: event.PaymentStatus,
			Items:         event.Items,
			Subtotal:      event.Subtotal,
			TotalAmount:   event.TotalAmount,
			CreatedAt:     event.CreatedAt,
			UpdatedAt:     event.OccurredAt,
		})
	}

	if !r.persistWithRetry(ctx, batch) {
		return nil
	}

	r.mergeCustomerMeta(ctx, event)
	r.publishBatchesChanged(ctx, event.TableID, len(batch.Entries))
	return nil
}

// mergeCustomerMeta folds customer context carried on the order into the
// table's cached cart metadata, overwriting only with non-empty values.
func (r *Reconciler) mergeCustomerMeta(ctx context.Context, event pkg.OrderEvent) {
	incoming := CustomerMeta{
		Name:         event.CustomerName,
		Phone:        event.CustomerPhone,
		OrderType:    event.OrderType,
		Instructions: event.Instructions,
	}
	if incoming == (CustomerMeta{}) {
		return
	}

	cart, err := r.cache.GetCart(ctx, event.TableID)
	if err != nil {
		r.logger.Error("cannot read cart", "table_id", event.TableID, "error", err)
		return
	}
	if cart == nil {
		cart = NewCartState(event.TableID)
	}
	cart.Customer.Merge(incoming)
	if err := r.cache.SetCart(ctx, cart); err != nil {
		r.logger.Error("cannot persist cart metadata", "table_id", event.TableID, "error", err)
	}
}

// persistWithRetry absorbs transient write contention with a bounded retry.
// After the final failure the update is logged and dropped; the next full
// pull repairs the view.
func (r *Reconciler) persistWithRetry(ctx context.Context, batch *Batch) bool {
	var lastErr error
	for attempt := 1; attempt <= cacheWriteAttempts; attempt++ {
		lastErr = r.cache.SetBatch(ctx, batch)
		if lastErr == nil {
			return true
		}
		time.Sleep(time.Duration(attempt) * cacheWriteBackoff)
	}
	r.logger.Error("dropping batch update after retries", "table_id", batch.TableID, "error", lastErr)
	return false
}

func (r *Reconciler) publishBatchesChanged(ctx context.Context, tableID string, entries int) {
	if r.publisher == nil {
		return
	}

	payload, err := json.Marshal(pkg.BatchesChangedEvent{
		EventType:  pkg.EventBatchesChanged,
		TableID:    tableID,
		Entries:    entries,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		r.logger.Error("cannot marshal batches event", "error", err)
		return
	}

	if err := r.publisher.Publish(ctx, pkg.RegisterBatchesTopic, payload); err != nil {
		r.logger.Error("cannot publish batches event", "table_id", tableID, "error", err)
	}
}

// FullResync heals missed or reordered push events. It clears all batch and
// cart state, then replays every fetched order oldest first so sequence
// numbers come out identical to what incremental processing would have
// produced.
func (r *Reconciler) FullResync(ctx context.Context) error {
	if r.source == nil {
		return nil
	}

	records, err := r.source.ListOrders(ctx)
	if err != nil {
		return err
	}

	if err := r.cache.ClearSyncedState(ctx); err != nil {
		return err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	for _, record := range records {
		if err := r.Apply(ctx, record.Event()); err != nil {
			return err
		}
	}

	r.logger.Debug("full resync complete", "orders", len(records))
	return nil
}

// RunResyncLoop performs a full pull on every tick until the context ends.
func (r *Reconciler) RunResyncLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.FullResync(ctx); err != nil {
				r.logger.Error("full resync failed", "error", err)
			}
		}
	}
}
