package register

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/opentabclub/opentab/pkg"
)

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemoryStore(), nil)
	tableID := uuid.New().String()

	batch := NewBatch(tableID)
	batch.Append(BatchEntry{
		OrderID: uuid.New().String(),
		Status:  "pending",
		Items:   []pkg.OrderLineItem{{Name: "Margherita", UnitPrice: 12.5, Quantity: 1}},
	})
	if err := cache.SetBatch(ctx, batch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := cache.GetBatch(ctx, tableID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded == nil || len(loaded.Entries) != 1 || loaded.NextSequence != 2 {
		t.Fatalf("round trip lost data: %+v", loaded)
	}
}

func TestCacheMissReturnsNil(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemoryStore(), nil)

	batch, err := cache.GetBatch(ctx, uuid.New().String())
	if err != nil || batch != nil {
		t.Fatalf("expected clean miss, got %+v %v", batch, err)
	}
	cart, err := cache.GetCart(ctx, uuid.New().String())
	if err != nil || cart != nil {
		t.Fatalf("expected clean miss, got %+v %v", cart, err)
	}
}

func TestCacheDiscardsStaleSchema(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	cache := NewCache(store, nil)
	tableID := uuid.New().String()

	old := Batch{SchemaVersion: SchemaVersion + 1, TableID: tableID, NextSequence: 7}
	raw, _ := json.Marshal(old)
	_ = store.Set(ctx, cacheKey(KindBatches, tableID), raw)

	batch, err := cache.GetBatch(ctx, tableID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch != nil {
		t.Fatalf("expected stale record discarded, got %+v", batch)
	}
}

func TestCachePurgeTable(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemoryStore(), nil)
	tableID := uuid.New().String()

	_ = cache.SetBatch(ctx, NewBatch(tableID))
	_ = cache.SetCart(ctx, NewCartState(tableID))
	_ = cache.SetPrinted(ctx, tableID)

	if err := cache.PurgeTable(ctx, tableID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if batch, _ := cache.GetBatch(ctx, tableID); batch != nil {
		t.Fatal("batch survived purge")
	}
	if cart, _ := cache.GetCart(ctx, tableID); cart != nil {
		t.Fatal("cart survived purge")
	}
	if printed, _ := cache.IsPrinted(ctx, tableID); printed {
		t.Fatal("printed flag survived purge")
	}
}

func TestClearSyncedStateKeepsPrintedFlags(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemoryStore(), nil)
	tableID := uuid.New().String()

	_ = cache.SetBatch(ctx, NewBatch(tableID))
	_ = cache.SetCart(ctx, NewCartState(tableID))
	_ = cache.SetPrinted(ctx, tableID)

	if err := cache.ClearSyncedState(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if batch, _ := cache.GetBatch(ctx, tableID); batch != nil {
		t.Fatal("batch survived clear")
	}
	if cart, _ := cache.GetCart(ctx, tableID); cart != nil {
		t.Fatal("cart survived clear")
	}
	printed, _ := cache.IsPrinted(ctx, tableID)
	if !printed {
		t.Fatal("printed flag must survive a full pull")
	}
}
