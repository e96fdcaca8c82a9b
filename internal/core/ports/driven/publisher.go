package driven

import (
	"context"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// EventPublisher forwards domain events to an external system.
// Publish has the EventHandler signature so it can be registered directly.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
	Close() error
}
