package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Ensure EventDispatcher implements driven.EventDispatcher
var _ driven.EventDispatcher = (*EventDispatcher)(nil)

// EventDispatcher is an in-process pub/sub keyed by exact event type.
// The process entry point owns the instance and registers handlers at startup.
type EventDispatcher struct {
	mu       sync.Mutex
	handlers map[domain.EventType][]driven.EventHandler
	logger   *slog.Logger
}

// NewEventDispatcher creates an empty dispatcher.
func NewEventDispatcher(logger *slog.Logger) *EventDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventDispatcher{
		handlers: make(map[domain.EventType][]driven.EventHandler),
		logger:   logger,
	}
}

// Register adds a handler for eventType.
func (d *EventDispatcher) Register(eventType domain.EventType, handler driven.EventHandler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Dispatch runs the handlers for the event's type in registration order.
// Handler errors and panics are logged and returned, never propagated.
func (d *EventDispatcher) Dispatch(ctx context.Context, event domain.DomainEvent) []error {
	if event == nil {
		return nil
	}

	d.mu.Lock()
	handlers := append([]driven.EventHandler(nil), d.handlers[event.EventType()]...)
	d.mu.Unlock()

	var errs []error
	for i, h := range handlers {
		if err := d.invoke(ctx, h, event); err != nil {
			d.logger.Error("event handler failed",
				"event_type", event.EventType(),
				"handler", i,
				"error", err)
			errs = append(errs, err)
		}
	}
	return errs
}

// HandlerCount returns how many handlers are registered for eventType.
func (d *EventDispatcher) HandlerCount(eventType domain.EventType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers[eventType])
}

func (d *EventDispatcher) invoke(ctx context.Context, h driven.EventHandler, event domain.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, event)
}

// LogEventHandler returns a handler that records every event at info level.
func LogEventHandler(logger *slog.Logger) driven.EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, event domain.DomainEvent) error {
		attrs := []any{"event_type", event.EventType(), "occurred_at", event.OccurredAt()}
		if e, ok := event.(domain.DocumentUploadedEvent); ok {
			attrs = append(attrs, "document_id", e.DocumentID, "filename", e.Filename)
		}
		logger.InfoContext(ctx, "domain event", attrs...)
		return nil
	}
}
