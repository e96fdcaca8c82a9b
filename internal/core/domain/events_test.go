package domain

import "testing"

func TestNewDocumentUploadedEvent(t *testing.T) {
	e := NewDocumentUploadedEvent("doc-1", "report.pdf")

	if e.EventType() != EventDocumentUploaded {
		t.Errorf("expected type %s, got %s", EventDocumentUploaded, e.EventType())
	}
	if e.DocumentID != "doc-1" || e.Filename != "report.pdf" {
		t.Errorf("unexpected event %+v", e)
	}
	if e.OccurredAt().IsZero() {
		t.Error("expected OccurredAt to be set")
	}

	var _ DomainEvent = e
}
