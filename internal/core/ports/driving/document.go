package driving

import (
	"context"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// DocumentProcessor runs the ingestion pipeline for one file
type DocumentProcessor interface {
	// Execute parses, extracts, embeds and indexes the file at path.
	// Failures are reported on the returned document (status FAILED), never as an error.
	Execute(ctx context.Context, path string) *domain.Document
}

// DocumentService provides read-only access to documents
type DocumentService interface {
	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns all documents, newest first
	List(ctx context.Context) ([]*domain.Document, error)

	// Graph returns the knowledge graph extracted from a document
	Graph(ctx context.Context, id string) (domain.GraphData, error)

	// Count returns the total number of documents
	Count(ctx context.Context) (int, error)
}
