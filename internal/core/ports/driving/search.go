package driving

import (
	"context"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// Comparator answers one query with both retrieval strategies
type Comparator interface {
	// Execute runs vector and graph retrieval concurrently.
	// Per-strategy failures are carried in the result; an error is returned
	// only for invalid arguments.
	Execute(ctx context.Context, query string, topK int) (*domain.ComparisonResult, error)
}
