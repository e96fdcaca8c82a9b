package driven

import (
	"context"
)

// EmbeddingService generates text embeddings
type EmbeddingService interface {
	// CreateEmbeddings returns one vector per input text, in input order
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension size (0 if unknown until first call)
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}
