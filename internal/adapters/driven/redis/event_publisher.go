package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.EventPublisher = (*EventPublisher)(nil)

const eventChannelPrefix = "ragcompare:events:"

// EventPublisher fans domain events out over Redis pub/sub.
// The channel is the prefix followed by the event type.
type EventPublisher struct {
	client redis.UniversalClient
}

// NewEventPublisher creates a publisher on the given client
func NewEventPublisher(client redis.UniversalClient) *EventPublisher {
	return &EventPublisher{client: client}
}

// Channel returns the pub/sub channel for an event type
func Channel(eventType domain.EventType) string {
	return eventChannelPrefix + string(eventType)
}

// Publish sends the event as JSON. Having no subscribers is not an error.
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType(), err)
	}
	if err := p.client.Publish(ctx, Channel(event.EventType()), payload).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", event.EventType(), err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller
func (p *EventPublisher) Close() error {
	return nil
}
