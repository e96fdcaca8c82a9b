package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DocumentStorePostgres, cfg.DocumentStore)
	assert.Equal(t, domain.AIProviderOllama, cfg.AIProvider)
	assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 0, cfg.ChunkOverlap)
	assert.True(t, cfg.NormalizeWhitespace)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce)
	assert.False(t, cfg.AuthEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("CHUNK_DEDUPLICATE", "yes")
	t.Setenv("WATCH_INITIAL_SCAN", "off")
	t.Setenv("INGEST_LOCK_TTL", "90s")
	t.Setenv("MAX_UPLOAD_MB", "2")

	cfg := FromEnv()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, domain.AIProviderOpenAI, cfg.AIProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.InferenceModel)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.Deduplicate)
	assert.False(t, cfg.WatchInitialScan)
	assert.Equal(t, 90*time.Second, cfg.IngestLockTTL)
	assert.Equal(t, int64(2<<20), cfg.MaxUploadBytes())
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("WATCH_DEBOUNCE", "soon")

	cfg := FromEnv()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"unknown store", func(c *Config) { c.DocumentStore = "sqlite" }},
		{"redis store without url", func(c *Config) { c.DocumentStore = DocumentStoreRedis }},
		{"unknown provider", func(c *Config) { c.AIProvider = "anthropic" }},
		{"openai without key", func(c *Config) { c.AIProvider = domain.AIProviderOpenAI }},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"overlap too large", func(c *Config) { c.ChunkOverlap = 500 }},
		{"no workers", func(c *Config) { c.WorkerConcurrency = 0 }},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromEnv()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestValidate_RedisStoreWithURL(t *testing.T) {
	cfg := FromEnv()
	cfg.DocumentStore = DocumentStoreRedis
	cfg.RedisURL = "redis://localhost:6379/0"

	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RAGCMP_TEST_VALUE=from-file\nPORT=7070\n"), 0o600))

	// Existing environment variables take precedence.
	t.Setenv("PORT", "6060")
	t.Setenv("RAGCMP_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("RAGCMP_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { _ = os.Unsetenv("RAGCMP_TEST_VALUE") })

	assert.Equal(t, "from-file", os.Getenv("RAGCMP_TEST_VALUE"))
	assert.Equal(t, 6060, FromEnv().Port)
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoad_InvalidConfig(t *testing.T) {
	t.Setenv("DOCUMENT_STORE", "sqlite")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsBuilders(t *testing.T) {
	cfg := FromEnv()
	cfg.AIProvider = domain.AIProviderOpenAI
	cfg.OpenAIAPIKey = "sk-test"
	cfg.AIBaseURL = "http://proxy:8000/v1"
	cfg.EmbeddingDimensions = 1536

	inf := cfg.InferenceSettings()
	emb := cfg.EmbeddingSettings()

	assert.True(t, inf.IsConfigured())
	assert.True(t, emb.IsConfigured())
	assert.Equal(t, "http://proxy:8000/v1", inf.BaseURL)
	assert.Equal(t, 1536, emb.Dimensions)
	assert.Equal(t, cfg.EmbeddingModel, emb.Model)
}

func TestNewLogger(t *testing.T) {
	cfg := FromEnv()
	cfg.LogFormat = "json"
	cfg.LogLevel = "debug"

	assert.NotNil(t, cfg.NewLogger())
}
