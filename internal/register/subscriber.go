package register

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/opentabclub/opentab/pkg"
)

// OrderEventSubscriber feeds pushed order lifecycle events into the
// reconciler. Delivery is at-least-once and unordered; malformed events are
// logged and dropped so the bus does not redeliver them forever.
type OrderEventSubscriber struct {
	subscriber events.Subscriber
	reconciler *Reconciler
	logger     aqm.Logger
}

func NewOrderEventSubscriber(sub events.Subscriber, reconciler *Reconciler, logger aqm.Logger) *OrderEventSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &OrderEventSubscriber{
		subscriber: sub,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (s *OrderEventSubscriber) Start(ctx context.Context) error {
	s.logger.Info("starting order event subscriber", "topic", pkg.OrderLifecycleTopic)
	if s.reconciler != nil {
		if err := s.reconciler.FullResync(ctx); err != nil {
			s.logger.Info("initial resync failed", "error", err)
		}
	}
	if s.subscriber == nil {
		return fmt.Errorf("order event subscriber not configured")
	}
	return s.subscriber.Subscribe(ctx, pkg.OrderLifecycleTopic, s.handleEvent)
}

func (s *OrderEventSubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var event pkg.OrderEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		s.logger.Info("invalid order event", "error", err)
		return nil
	}

	if err := s.reconciler.Apply(ctx, event); err != nil {
		s.logger.Error("cannot apply order event", "order_id", event.OrderID, "error", err)
		return nil
	}

	s.logger.Debug("order event applied", "order_id", event.OrderID, "table_id", event.TableID)
	return nil
}
