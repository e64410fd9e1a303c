// internal/handler/event_bus.go
package handler

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"link-service/internal/model"
)

// EventBus manages event distribution
type EventBus struct {
	subscribers []chan model.LinkEvent
	events      chan model.LinkEvent
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		events: make(chan model.LinkEvent, 1000),
		logger: logger,
	}
}

// Run distributes published events until ctx is done
func (eb *EventBus) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-eb.events:
			eb.distributeEvent(event)
		}
	}
}

// Publish publishes an event without blocking the caller
func (eb *EventBus) Publish(event model.LinkEvent) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
		)
	}
}

// SubscribeAll receives every event. The returned func removes the subscription.
func (eb *EventBus) SubscribeAll() (<-chan model.LinkEvent, func()) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan model.LinkEvent, 100)
	eb.subscribers = append(eb.subscribers, subscriber)

	var once sync.Once
	return subscriber, func() {
		once.Do(func() {
			eb.mutex.Lock()
			defer eb.mutex.Unlock()
			for i, ch := range eb.subscribers {
				if ch == subscriber {
					eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
					break
				}
			}
		})
	}
}

// distributeEvent distributes an event to subscribers
func (eb *EventBus) distributeEvent(event model.LinkEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for _, subscriber := range eb.subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
