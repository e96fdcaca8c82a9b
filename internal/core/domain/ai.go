package domain

// AIProvider identifies the inference/embedding backend
type AIProvider string

const (
	AIProviderOllama AIProvider = "ollama"
	AIProviderOpenAI AIProvider = "openai"
)

// RequiresAPIKey returns true if this provider requires an API key
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOllama:
		return false // Self-hosted, no API key needed
	default:
		return true
	}
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// InferenceSettings configures the text generation backend
type InferenceSettings struct {
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	APIKey   string     `json:"-"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty"`
}

// IsConfigured returns true if inference settings are usable
func (s *InferenceSettings) IsConfigured() bool {
	if s.Provider == "" || s.Model == "" {
		return false
	}
	return !s.Provider.RequiresAPIKey() || s.APIKey != ""
}

// EmbeddingSettings configures the embedding backend
type EmbeddingSettings struct {
	Provider   AIProvider `json:"provider"`
	Model      string     `json:"model"`
	APIKey     string     `json:"-"`
	BaseURL    string     `json:"base_url,omitempty"`
	Dimensions int        `json:"dimensions"`
}

// IsConfigured returns true if embedding settings are usable
func (s *EmbeddingSettings) IsConfigured() bool {
	if s.Provider == "" || s.Model == "" {
		return false
	}
	return !s.Provider.RequiresAPIKey() || s.APIKey != ""
}
