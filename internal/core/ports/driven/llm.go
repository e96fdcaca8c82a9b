package driven

import (
	"context"
)

// InferenceService runs prompts against a large language model.
// No retries are expected from callers; an adapter may retry internally.
type InferenceService interface {
	// Generate returns the raw model output for a rendered prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the inference backend is available
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the service
	Close() error
}
