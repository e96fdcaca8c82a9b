package driven

import (
	"context"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// EventHandler reacts to a dispatched domain event
type EventHandler func(ctx context.Context, event domain.DomainEvent) error

// EventDispatcher is an in-process pub/sub keyed by event type
type EventDispatcher interface {
	// Register adds a handler for an exact event type.
	// Handlers run in registration order.
	Register(eventType domain.EventType, handler EventHandler)

	// Dispatch runs every handler for the event's type and returns the
	// failures it captured. A failing handler does not stop the rest.
	Dispatch(ctx context.Context, event domain.DomainEvent) []error
}
