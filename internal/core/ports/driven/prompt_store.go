package driven

import (
	"context"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

// PromptRepository loads prompt templates by type (YAML files)
type PromptRepository interface {
	// Load returns the template for a prompt type, or domain.ErrPromptNotFound
	Load(ctx context.Context, promptType domain.PromptType) (domain.PromptTemplate, error)
}
