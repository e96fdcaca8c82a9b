package driven

import (
	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// AIServiceFactory creates AI services based on configuration
type AIServiceFactory interface {
	// CreateEmbeddingService creates an embedding service from settings
	// Returns nil, nil if settings are not configured
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)

	// CreateInferenceService creates an inference service from settings
	// Returns nil, nil if settings are not configured
	CreateInferenceService(settings *domain.InferenceSettings) (InferenceService, error)
}
