package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

var (
	_ driven.EmbeddingService = (*OpenAIEmbedding)(nil)
	_ driven.InferenceService = (*OpenAIInference)(nil)
)

const (
	defaultOpenAIBaseURL        = "https://api.openai.com/v1"
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"
	defaultOpenAIChatModel      = "gpt-4o-mini"
)

// Model dimensions for OpenAI embedding models
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// newOpenAIClient builds a client for the OpenAI API or any compatible server.
func newOpenAIClient(apiKey, baseURL string, timeout time.Duration) (*openai.Client, *http.Client) {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	hc := &http.Client{Timeout: timeout}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = hc
	return openai.NewClientWithConfig(cfg), hc
}

// describeOpenAIError flattens API errors into a readable message.
func describeOpenAIError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("OpenAI API error: %s (status: %d)", apiErr.Message, apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("OpenAI request failed with status %d", reqErr.HTTPStatusCode)
	}
	return err.Error()
}

// OpenAIEmbedding implements EmbeddingService using OpenAI's embedding API
type OpenAIEmbedding struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	baseURL    string
	dimensions int
}

// NewOpenAIEmbedding creates a new OpenAI embedding service
func NewOpenAIEmbedding(apiKey, model, baseURL string) (*OpenAIEmbedding, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", domain.ErrInvalidInput)
	}
	if model == "" {
		model = defaultOpenAIEmbeddingModel
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	dimensions, ok := openAIModelDimensions[model]
	if !ok {
		// Default to 1536 for unknown models
		dimensions = 1536
	}

	client, hc := newOpenAIClient(apiKey, baseURL, 60*time.Second)
	return &OpenAIEmbedding{
		client:     client,
		httpClient: hc,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
	}, nil
}

// CreateEmbeddings generates embeddings for multiple texts
func (e *OpenAIEmbedding) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbedding, describeOpenAIError(err))
	}

	// Sort by index to ensure order matches input
	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}
	for i, v := range embeddings {
		if v == nil {
			return nil, fmt.Errorf("%w: no embedding returned for input %d", domain.ErrEmbedding, i)
		}
	}

	return embeddings, nil
}

// Dimensions returns the embedding dimension size
func (e *OpenAIEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *OpenAIEmbedding) Model() string {
	return e.model
}

// HealthCheck verifies the embedding service is available
func (e *OpenAIEmbedding) HealthCheck(ctx context.Context) error {
	// Make a small embedding request to verify connectivity
	_, err := e.CreateEmbeddings(ctx, []string{"health check"})
	return err
}

// Close releases resources held by the embedding service
func (e *OpenAIEmbedding) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

// OpenAIInference implements InferenceService using the chat completions API
type OpenAIInference struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
}

// NewOpenAIInference creates a new OpenAI inference service
func NewOpenAIInference(apiKey, model, baseURL string) (*OpenAIInference, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", domain.ErrInvalidInput)
	}
	if model == "" {
		model = defaultOpenAIChatModel
	}

	client, hc := newOpenAIClient(apiKey, baseURL, 120*time.Second)
	return &OpenAIInference{client: client, httpClient: hc, model: model}, nil
}

// Generate sends the prompt as a single user message and returns the reply
func (s *OpenAIInference) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrInference, describeOpenAIError(err))
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrInference)
	}
	return resp.Choices[0].Message.Content, nil
}

// Model returns the model name being used
func (s *OpenAIInference) Model() string {
	return s.model
}

// HealthCheck lists models to verify the API is reachable
func (s *OpenAIInference) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInference, describeOpenAIError(err))
	}
	return nil
}

// Close releases resources held by the service
func (s *OpenAIInference) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
