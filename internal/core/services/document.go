package services

import (
	"context"
	"fmt"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface
type documentService struct {
	documents driven.DocumentRepository
	graphs    driven.GraphRepository
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documents driven.DocumentRepository,
	graphs driven.GraphRepository,
) driving.DocumentService {
	return &documentService{
		documents: documents,
		graphs:    graphs,
	}
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	return s.documents.FindByID(ctx, id)
}

// List returns all documents, newest first
func (s *documentService) List(ctx context.Context) ([]*domain.Document, error) {
	return s.documents.FindAll(ctx)
}

// Graph retrieves the knowledge graph of an existing document
func (s *documentService) Graph(ctx context.Context, id string) (domain.GraphData, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return domain.GraphData{}, err
	}
	return s.graphs.GetGraphData(ctx, id)
}

// Count returns the total number of documents
func (s *documentService) Count(ctx context.Context) (int, error) {
	return s.documents.Count(ctx)
}
