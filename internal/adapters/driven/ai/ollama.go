package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

var (
	_ driven.EmbeddingService = (*OllamaEmbedding)(nil)
	_ driven.InferenceService = (*OllamaInference)(nil)
)

const defaultOllamaBaseURL = "http://localhost:11434"

// Known output sizes for common Ollama embedding models
var ollamaModelDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
	"bge-m3":            1024,
}

func newOllamaClient(baseURL string, timeout time.Duration) (*api.Client, *http.Client, error) {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid Ollama base URL: %v", domain.ErrInvalidInput, err)
	}
	hc := &http.Client{Timeout: timeout}
	return api.NewClient(u, hc), hc, nil
}

// OllamaEmbedding implements EmbeddingService against a local Ollama server
type OllamaEmbedding struct {
	client     *api.Client
	httpClient *http.Client
	model      string
	dimensions atomic.Int64
}

// NewOllamaEmbedding creates an embedding service. A zero dimensions value
// falls back to the known size for the model, or is learned on first call.
func NewOllamaEmbedding(baseURL, model string, dimensions int) (*OllamaEmbedding, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: Ollama embedding model is required", domain.ErrInvalidInput)
	}
	client, hc, err := newOllamaClient(baseURL, 120*time.Second)
	if err != nil {
		return nil, err
	}

	e := &OllamaEmbedding{client: client, httpClient: hc, model: model}
	if dimensions <= 0 {
		dimensions = ollamaModelDimensions[model]
	}
	e.dimensions.Store(int64(dimensions))
	return e, nil
}

// CreateEmbeddings embeds all texts in one batch request
func (e *OllamaEmbedding) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama embed: %v", domain.ErrEmbedding, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrEmbedding, len(texts), len(resp.Embeddings))
	}

	if e.dimensions.Load() == 0 && len(resp.Embeddings[0]) > 0 {
		e.dimensions.Store(int64(len(resp.Embeddings[0])))
	}
	return resp.Embeddings, nil
}

// Dimensions returns the embedding size, or 0 before the first call for unknown models
func (e *OllamaEmbedding) Dimensions() int {
	return int(e.dimensions.Load())
}

// Model returns the model name being used
func (e *OllamaEmbedding) Model() string {
	return e.model
}

// HealthCheck pings the Ollama server
func (e *OllamaEmbedding) HealthCheck(ctx context.Context) error {
	if err := e.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("%w: ollama unreachable: %v", domain.ErrEmbedding, err)
	}
	return nil
}

// Close releases idle connections
func (e *OllamaEmbedding) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

// OllamaInference implements InferenceService with non-streaming generation
type OllamaInference struct {
	client     *api.Client
	httpClient *http.Client
	model      string
}

// NewOllamaInference creates an inference service for the given model
func NewOllamaInference(baseURL, model string) (*OllamaInference, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: Ollama model is required", domain.ErrInvalidInput)
	}
	client, hc, err := newOllamaClient(baseURL, 5*time.Minute)
	if err != nil {
		return nil, err
	}
	return &OllamaInference{client: client, httpClient: hc, model: model}, nil
}

// Generate runs the prompt in JSON mode and returns the full response text
func (s *OllamaInference) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	var out string
	err := s.client.Generate(ctx, &api.GenerateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Stream:  &stream,
		Format:  json.RawMessage(`"json"`),
		Options: map[string]any{"temperature": 0},
	}, func(resp api.GenerateResponse) error {
		out += resp.Response
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama generate: %v", domain.ErrInference, err)
	}
	return out, nil
}

// Model returns the model name being used
func (s *OllamaInference) Model() string {
	return s.model
}

// HealthCheck pings the Ollama server
func (s *OllamaInference) HealthCheck(ctx context.Context) error {
	if err := s.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("%w: ollama unreachable: %v", domain.ErrInference, err)
	}
	return nil
}

// Close releases idle connections
func (s *OllamaInference) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
