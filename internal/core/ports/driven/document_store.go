package driven

import (
	"context"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// DocumentRepository handles document persistence (PostgreSQL or Redis).
// Save is last-write-wins on the document ID.
type DocumentRepository interface {
	// Save creates or updates a document with whatever state it currently holds
	Save(ctx context.Context, doc *domain.Document) error

	// FindByID retrieves a document by ID, or domain.ErrNotFound
	FindByID(ctx context.Context, id string) (*domain.Document, error)

	// FindAll retrieves every stored document, newest first
	FindAll(ctx context.Context) ([]*domain.Document, error)

	// Count returns the number of stored documents without loading them
	Count(ctx context.Context) (int, error)
}
