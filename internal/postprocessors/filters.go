package postprocessors

import (
	"strings"
	"unicode/utf8"

	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// DeduplicatorConfig configures the deduplicator.
type DeduplicatorConfig struct {
	// MinDuplicateLength is the minimum chunk length (runes) to check for duplicates
	MinDuplicateLength int
}

// DefaultDeduplicatorConfig returns sensible defaults.
func DefaultDeduplicatorConfig() DeduplicatorConfig {
	return DeduplicatorConfig{
		MinDuplicateLength: 50,
	}
}

// Deduplicator removes chunks whose normalized text was already seen.
type Deduplicator struct {
	config DeduplicatorConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Deduplicator)(nil)

// NewDeduplicator creates a new deduplicator with the given config.
func NewDeduplicator(config DeduplicatorConfig) *Deduplicator {
	return &Deduplicator{config: config}
}

// Process removes duplicate chunks, keeping the first occurrence.
func (d *Deduplicator) Process(chunks []driven.Chunk) []driven.Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	seen := make(map[string]bool)
	var result []driven.Chunk

	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk.Content) < d.config.MinDuplicateLength {
			result = append(result, chunk)
			continue
		}

		normalized := strings.TrimSpace(strings.ToLower(chunk.Content))
		if !seen[normalized] {
			seen[normalized] = true
			result = append(result, chunk)
		}
	}

	return result
}

// Name returns the processor name.
func (d *Deduplicator) Name() string {
	return "deduplicator"
}

// Order returns 10 - deduplicator runs after chunker.
func (d *Deduplicator) Order() int {
	return 10
}

// WhitespaceNormalizer normalizes whitespace in chunks and drops blank ones.
type WhitespaceNormalizer struct{}

// Verify interface compliance
var _ driven.PostProcessor = (*WhitespaceNormalizer)(nil)

// NewWhitespaceNormalizer creates a new whitespace normalizer.
func NewWhitespaceNormalizer() *WhitespaceNormalizer {
	return &WhitespaceNormalizer{}
}

// Process normalizes whitespace in chunks.
func (w *WhitespaceNormalizer) Process(chunks []driven.Chunk) []driven.Chunk {
	result := make([]driven.Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		content := strings.ReplaceAll(chunk.Content, "\r\n", "\n")
		content = strings.ReplaceAll(content, "\r", "\n")

		// Collapse runs of spaces and tabs (but preserve newlines)
		lines := strings.Split(content, "\n")
		for i, line := range lines {
			lines[i] = strings.Join(strings.Fields(line), " ")
		}
		content = strings.Join(lines, "\n")

		for strings.Contains(content, "\n\n\n") {
			content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
		}

		content = strings.TrimSpace(content)
		if content != "" {
			newChunk := chunk
			newChunk.Content = content
			result = append(result, newChunk)
		}
	}

	return result
}

// Name returns the processor name.
func (w *WhitespaceNormalizer) Name() string {
	return "whitespace-normalizer"
}

// Order returns 5 - runs between chunker and deduplicator.
func (w *WhitespaceNormalizer) Order() int {
	return 5
}

// ShortChunkFilter drops chunks shorter than a minimum rune count.
type ShortChunkFilter struct {
	minLength int
}

var _ driven.PostProcessor = (*ShortChunkFilter)(nil)

func NewShortChunkFilter(minLength int) *ShortChunkFilter {
	return &ShortChunkFilter{minLength: minLength}
}

func (f *ShortChunkFilter) Process(chunks []driven.Chunk) []driven.Chunk {
	result := make([]driven.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk.Content) >= f.minLength {
			result = append(result, chunk)
		}
	}
	return result
}

func (f *ShortChunkFilter) Name() string {
	return "short-chunk-filter"
}

func (f *ShortChunkFilter) Order() int {
	return 20
}
