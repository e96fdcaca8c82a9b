package driven

import "context"

// FileParser turns a file on disk into plain text.
// Failures wrap domain.ErrParse.
type FileParser interface {
	Parse(ctx context.Context, path string) (string, error)
}

// FormatParser extracts text from one family of file formats.
type FormatParser interface {
	// ParseFile extracts text from the file at path.
	ParseFile(ctx context.Context, path string) (string, error)

	// SupportedTypes returns MIME types this parser handles.
	// Can include wildcards like "text/*" or specific types like "application/pdf".
	SupportedTypes() []string

	// Priority returns the parser priority (higher = more specific).
	// Priority ranges:
	//   50-89:  Format-specific (PDF, HTML, spreadsheets)
	//   10-49:  Generic (plain text)
	//   1-9:    Fallback
	Priority() int
}

// ParserRegistry manages format parsers.
// When multiple parsers match a MIME type, the highest priority one is used.
type ParserRegistry interface {
	FileParser

	// Get retrieves the best-matching parser for a MIME type, or nil.
	Get(mimeType string) FormatParser

	// Register registers a parser.
	Register(parser FormatParser)

	// List returns all registered MIME types.
	List() []string
}

// PostProcessor applies post-processing to document chunks.
// Processors form a pipeline: Chunker -> WhitespaceNormalizer -> Deduplicator -> etc.
type PostProcessor interface {
	// Process applies post-processing to content chunks.
	// The first processor (Chunker) receives a single chunk with the full content.
	// Subsequent processors receive the chunks from the previous stage.
	Process(chunks []Chunk) []Chunk

	// Name returns the processor name for logging/debugging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	// Chunker should be 0, subsequent processors increment from there.
	Order() int
}

// Chunk represents a piece of document content for processing.
type Chunk struct {
	// Content is the text content of the chunk
	Content string

	// Position is the chunk index within the document (0-based)
	Position int

	// StartOffset is the rune offset from document start
	StartOffset int

	// EndOffset is the rune offset for chunk end
	EndOffset int

	// Metadata contains additional chunk-specific data
	Metadata map[string]string
}

// PostProcessorPipeline chains multiple post-processors in order.
// The same input always yields the same chunks.
type PostProcessorPipeline interface {
	// Process applies all processors in order.
	// Input is the raw document content.
	// Output is the processed chunks ready for embedding.
	Process(content string) []Chunk

	// Add adds a processor to the pipeline.
	// Processors are sorted by Order() before processing.
	Add(processor PostProcessor)

	// List returns processor names in order.
	List() []string
}
