package domain

import "time"

// EventType identifies a kind of domain event
type EventType string

const (
	// EventDocumentUploaded fires once a document has been fully indexed
	EventDocumentUploaded EventType = "document.uploaded"
)

// DomainEvent is a fire-and-forget notification about something that happened
type DomainEvent interface {
	EventType() EventType
	OccurredAt() time.Time
}

// DocumentUploadedEvent announces a document that finished ingestion
type DocumentUploadedEvent struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	Occurred   time.Time `json:"occurred_at"`
}

// NewDocumentUploadedEvent stamps the event with the current time.
func NewDocumentUploadedEvent(documentID, filename string) DocumentUploadedEvent {
	return DocumentUploadedEvent{
		DocumentID: documentID,
		Filename:   filename,
		Occurred:   time.Now().UTC(),
	}
}

func (e DocumentUploadedEvent) EventType() EventType { return EventDocumentUploaded }
func (e DocumentUploadedEvent) OccurredAt() time.Time { return e.Occurred }
