package domain

import "testing"

func TestAIProvider(t *testing.T) {
	if AIProviderOllama.RequiresAPIKey() {
		t.Error("ollama should not require an API key")
	}
	if !AIProviderOpenAI.RequiresAPIKey() {
		t.Error("openai should require an API key")
	}
	if AIProvider("anthropic").IsValid() {
		t.Error("expected unknown provider to be invalid")
	}
}

func TestSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name string
		s    InferenceSettings
		want bool
	}{
		{"empty", InferenceSettings{}, false},
		{"ollama without key", InferenceSettings{Provider: AIProviderOllama, Model: "llama3"}, true},
		{"openai without key", InferenceSettings{Provider: AIProviderOpenAI, Model: "gpt-4o-mini"}, false},
		{"openai with key", InferenceSettings{Provider: AIProviderOpenAI, Model: "gpt-4o-mini", APIKey: "sk"}, true},
		{"missing model", InferenceSettings{Provider: AIProviderOllama}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
			e := EmbeddingSettings{Provider: tt.s.Provider, Model: tt.s.Model, APIKey: tt.s.APIKey}
			if got := e.IsConfigured(); got != tt.want {
				t.Errorf("embedding IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}
