package register

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/opentabclub/opentab/pkg"
)

// TableStatusSubscriber tracks authoritative table status changes. When a
// table returns to available or cleaning its transaction is over, so the
// register-local printed flag is cleared and the next party starts unfrozen.
type TableStatusSubscriber struct {
	subscriber events.Subscriber
	cache      *Cache
	logger     aqm.Logger
}

func NewTableStatusSubscriber(sub events.Subscriber, cache *Cache, logger aqm.Logger) *TableStatusSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &TableStatusSubscriber{
		subscriber: sub,
		cache:      cache,
		logger:     logger,
	}
}

func (s *TableStatusSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting table status subscriber", "topic", pkg.TableStatusTopic)
	if s.subscriber == nil {
		return fmt.Errorf("table status subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, pkg.TableStatusTopic, s.handleEvent)
}

func (s *TableStatusSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var event pkg.TableStatusEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.logger.Info("invalid table status event", "error", err)
		return nil
	}
	if event.TableID == "" {
		return nil
	}

	switch event.Status {
	case "available", "cleaning":
	default:
		return nil
	}

	if err := s.cache.ClearPrinted(ctx, event.TableID); err != nil {
		s.logger.Error("cannot clear printed flag", "table_id", event.TableID, "error", err)
		return nil
	}

	s.logger.Debug("printed flag cleared", "table_id", event.TableID, "status", event.Status)
	return nil
}

// SessionEventSubscriber listens for cash session transitions. A shift
// boundary is a natural reconciliation point, so each session change triggers
// a full pull.
type SessionEventSubscriber struct {
	subscriber events.Subscriber
	reconciler *Reconciler
	logger     aqm.Logger
}

func NewSessionEventSubscriber(sub events.Subscriber, reconciler *Reconciler, logger aqm.Logger) *SessionEventSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &SessionEventSubscriber{
		subscriber: sub,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (s *SessionEventSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting session event subscriber", "topic", pkg.SessionLifecycleTopic)
	if s.subscriber == nil {
		return fmt.Errorf("session event subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, pkg.SessionLifecycleTopic, s.handleEvent)
}

func (s *SessionEventSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var event pkg.SessionEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.logger.Info("invalid session event", "error", err)
		return nil
	}

	if err := s.reconciler.FullResync(ctx); err != nil {
		s.logger.Error("cannot resync after session change", "session_id", event.SessionID, "error", err)
		return nil
	}

	s.logger.Debug("resynced after session change", "session_id", event.SessionID, "status", event.Status)
	return nil
}
