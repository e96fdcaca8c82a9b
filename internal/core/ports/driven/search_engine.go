package driven

import (
	"context"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// VectorRepository stores chunk embeddings and runs similarity search (pgvector)
type VectorRepository interface {
	// StoreEmbeddings replaces the chunks of a document.
	// chunks and vectors must have the same length.
	StoreEmbeddings(ctx context.Context, documentID string, chunks []string, vectors [][]float32) error

	// Search returns up to topK results ordered by descending score
	Search(ctx context.Context, queryVector []float32, topK int) ([]domain.QueryResult, error)
}

// GraphRepository stores per-document knowledge graphs (Neo4j)
type GraphRepository interface {
	// StoreGraph replaces the graph extracted from a document
	StoreGraph(ctx context.Context, documentID string, graph domain.GraphData) error

	// Search matches the raw query text against stored entities
	Search(ctx context.Context, query string) ([]domain.QueryResult, error)

	// GetGraphData returns the graph of a document, or domain.ErrNotFound
	GetGraphData(ctx context.Context, documentID string) (domain.GraphData, error)
}
