package register

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aquamarinepk/aqm"
)

const (
	KindCart    = "cart"
	KindBatches = "batches"
	KindPrinted = "printed"

	keyPrefix = "register"
)

// Store is the raw byte-level persistence behind the cache. A miss returns
// (nil, nil), not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Cache is the typed view over the store, keyed by (table id, kind). Records
// carry a schema version; entries written under a different version are
// discarded on read.
type Cache struct {
	store  Store
	logger aqm.Logger
}

func NewCache(store Store, logger aqm.Logger) *Cache {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Cache{store: store, logger: logger}
}

func cacheKey(kind, tableID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, tableID)
}

func kindPrefix(kind string) string {
	return fmt.Sprintf("%s:%s:", keyPrefix, kind)
}

func (c *Cache) GetBatch(ctx context.Context, tableID string) (*Batch, error) {
	raw, err := c.store.Get(ctx, cacheKey(KindBatches, tableID))
	if err != nil || raw == nil {
		return nil, err
	}
	var batch Batch
	if err := json.Unmarshal(raw, &batch); err != nil {
		c.logger.Debug("discarding unreadable batch record", "table_id", tableID, "error", err)
		return nil, nil
	}
	if batch.SchemaVersion != SchemaVersion {
		c.logger.Debug("discarding batch record with stale schema", "table_id", tableID, "version", batch.SchemaVersion)
		return nil, nil
	}
	return &batch, nil
}

func (c *Cache) SetBatch(ctx context.Context, batch *Batch) error {
	batch.SchemaVersion = SchemaVersion
	batch.UpdatedAt = time.Now()
	raw, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, cacheKey(KindBatches, batch.TableID), raw)
}

func (c *Cache) DeleteBatch(ctx context.Context, tableID string) error {
	return c.store.Delete(ctx, cacheKey(KindBatches, tableID))
}

func (c *Cache) GetCart(ctx context.Context, tableID string) (*CartState, error) {
	raw, err := c.store.Get(ctx, cacheKey(KindCart, tableID))
	if err != nil || raw == nil {
		return nil, err
	}
	var cart CartState
	if err := json.Unmarshal(raw, &cart); err != nil {
		c.logger.Debug("discarding unreadable cart record", "table_id", tableID, "error", err)
		return nil, nil
	}
	if cart.SchemaVersion != SchemaVersion {
		c.logger.Debug("discarding cart record with stale schema", "table_id", tableID, "version", cart.SchemaVersion)
		return nil, nil
	}
	return &cart, nil
}

func (c *Cache) SetCart(ctx context.Context, cart *CartState) error {
	cart.SchemaVersion = SchemaVersion
	cart.UpdatedAt = time.Now()
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, cacheKey(KindCart, cart.TableID), raw)
}

func (c *Cache) DeleteCart(ctx context.Context, tableID string) error {
	return c.store.Delete(ctx, cacheKey(KindCart, tableID))
}

func (c *Cache) IsPrinted(ctx context.Context, tableID string) (bool, error) {
	raw, err := c.store.Get(ctx, cacheKey(KindPrinted, tableID))
	if err != nil || raw == nil {
		return false, err
	}
	var flag PrintedFlag
	if err := json.Unmarshal(raw, &flag); err != nil {
		return false, nil
	}
	if flag.SchemaVersion != SchemaVersion {
		return false, nil
	}
	return flag.Printed, nil
}

func (c *Cache) SetPrinted(ctx context.Context, tableID string) error {
	flag := PrintedFlag{SchemaVersion: SchemaVersion, Printed: true, PrintedAt: time.Now()}
	raw, err := json.Marshal(flag)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, cacheKey(KindPrinted, tableID), raw)
}

func (c *Cache) ClearPrinted(ctx context.Context, tableID string) error {
	return c.store.Delete(ctx, cacheKey(KindPrinted, tableID))
}

// PurgeTable removes every cached kind for a table.
func (c *Cache) PurgeTable(ctx context.Context, tableID string) error {
	for _, kind := range []string{KindCart, KindBatches, KindPrinted} {
		if err := c.store.Delete(ctx, cacheKey(kind, tableID)); err != nil {
			return err
		}
	}
	return nil
}

// ClearSyncedState drops all batch and cart records ahead of a full pull
// replay. Printed flags are register-local and survive.
func (c *Cache) ClearSyncedState(ctx context.Context) error {
	for _, kind := range []string{KindBatches, KindCart} {
		keys, err := c.store.Keys(ctx, kindPrefix(kind))
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := c.store.Delete(ctx, key); err != nil {
				return err
			}
		}
	}
	return nil
}

// TablesWithBatches lists the table ids that currently hold a batch record.
func (c *Cache) TablesWithBatches(ctx context.Context) ([]string, error) {
	keys, err := c.store.Keys(ctx, kindPrefix(KindBatches))
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(keys))
	for _, key := range keys {
		tables = append(tables, strings.TrimPrefix(key, kindPrefix(KindBatches)))
	}
	return tables, nil
}

// MemoryStore is an in-process Store used in tests and single-node setups.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	copied := make([]byte, len(raw))
	copy(copied, raw)
	return copied, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(value))
	copy(copied, value)
	s.data[key] = copied
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
