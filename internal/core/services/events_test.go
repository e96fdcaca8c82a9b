package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

type otherEvent struct{}

func (otherEvent) EventType() domain.EventType { return "document.deleted" }
func (otherEvent) OccurredAt() time.Time { return time.Time{} }

func TestEventDispatcher_NoHandlers(t *testing.T) {
	d := NewEventDispatcher(nil)

	errs := d.Dispatch(context.Background(), domain.NewDocumentUploadedEvent("doc-1", "a.txt"))
	assert.Empty(t, errs)
}

func TestEventDispatcher_RegistrationOrder(t *testing.T) {
	d := NewEventDispatcher(nil)
	var calls []string

	d.Register(domain.EventDocumentUploaded, func(ctx context.Context, e domain.DomainEvent) error {
		calls = append(calls, "first")
		return nil
	})
	d.Register(domain.EventDocumentUploaded, func(ctx context.Context, e domain.DomainEvent) error {
		calls = append(calls, "second")
		return nil
	})

	errs := d.Dispatch(context.Background(), domain.NewDocumentUploadedEvent("doc-1", "a.txt"))
	assert.Empty(t, errs)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestEventDispatcher_FailingHandlerDoesNotStopOthers(t *testing.T) {
	d := NewEventDispatcher(nil)
	secondRan := false

	d.Register(domain.EventDocumentUploaded, func(ctx context.Context, e domain.DomainEvent) error {
		return errors.New("broker down")
	})
	d.Register(domain.EventDocumentUploaded, func(ctx context.Context, e domain.DomainEvent) error {
		secondRan = true
		return nil
	})

	errs := d.Dispatch(context.Background(), domain.NewDocumentUploadedEvent("doc-1", "a.txt"))
	assert.True(t, secondRan)
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "broker down")
}

func TestEventDispatcher_PanickingHandlerIsCaptured(t *testing.T) {
	d := NewEventDispatcher(nil)
	secondRan := false

	d.Register(domain.EventDocumentUploaded, func(ctx context.Context, e domain.DomainEvent) error {
		panic("nil map")
	})
	d.Register(domain.EventDocumentUploaded, func(ctx context.Context, e domain.DomainEvent) error {
		secondRan = true
		return nil
	})

	var errs []error
	assert.NotPanics(t, func() {
		errs = d.Dispatch(context.Background(), domain.NewDocumentUploadedEvent("doc-1", "a.txt"))
	})
	assert.True(t, secondRan)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "nil map")
}

func TestEventDispatcher_ExactTypeMatch(t *testing.T) {
	d := NewEventDispatcher(nil)
	uploaded := 0

	d.Register(domain.EventDocumentUploaded, func(ctx context.Context, e domain.DomainEvent) error {
		uploaded++
		return nil
	})

	d.Dispatch(context.Background(), otherEvent{})
	assert.Equal(t, 0, uploaded)

	d.Dispatch(context.Background(), domain.NewDocumentUploadedEvent("doc-1", "a.txt"))
	assert.Equal(t, 1, uploaded)
}

func TestEventDispatcher_HandlerReceivesEvent(t *testing.T) {
	d := NewEventDispatcher(nil)
	var got domain.DocumentUploadedEvent

	d.Register(domain.EventDocumentUploaded, func(ctx context.Context, e domain.DomainEvent) error {
		got = e.(domain.DocumentUploadedEvent)
		return nil
	})
	d.Dispatch(context.Background(), domain.NewDocumentUploadedEvent("doc-9", "notes.md"))

	assert.Equal(t, "doc-9", got.DocumentID)
	assert.Equal(t, "notes.md", got.Filename)
}

func TestEventDispatcher_ConcurrentRegisterAndDispatch(t *testing.T) {
	d := NewEventDispatcher(nil)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			d.Register(domain.EventDocumentUploaded, LogEventHandler(nil))
		}
	}()
	for i := 0; i < 100; i++ {
		d.Dispatch(context.Background(), domain.NewDocumentUploadedEvent("doc", "f"))
	}
	<-done

	assert.Equal(t, 100, d.HandlerCount(domain.EventDocumentUploaded))
}

func TestEventDispatcher_IgnoresNilHandler(t *testing.T) {
	d := NewEventDispatcher(nil)
	d.Register(domain.EventDocumentUploaded, nil)
	assert.Equal(t, 0, d.HandlerCount(domain.EventDocumentUploaded))
}
