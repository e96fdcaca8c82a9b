package postprocessors

import (
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline implements PostProcessorPipeline.
// It chains multiple post-processors in order, starting with a Chunker.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.PostProcessor
	sorted     bool
}

// NewPipeline creates a new post-processor pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.PostProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order.
// Input is the raw document content.
// Output is the processed chunks ready for embedding.
func (p *Pipeline) Process(content string) []driven.Chunk {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	processors := make([]driven.PostProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.Unlock()

	if content == "" {
		return nil
	}

	// Start with a single chunk containing all content
	chunks := []driven.Chunk{
		{
			Content:     content,
			Position:    0,
			StartOffset: 0,
			EndOffset:   utf8.RuneCountInString(content),
		},
	}

	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}

	// Positions are renumbered so filters leave no gaps
	for i := range chunks {
		chunks[i].Position = i
	}
	return chunks
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// Options selects the optional processors of a pipeline.
type Options struct {
	Chunk               ChunkConfig
	NormalizeWhitespace bool
	Deduplicate         bool
	MinChunkLength      int
}

// DefaultOptions returns the chunking defaults: 500-rune chunks with no
// overlap and whitespace normalization.
func DefaultOptions() Options {
	return Options{
		Chunk:               DefaultChunkConfig(),
		NormalizeWhitespace: true,
	}
}

// NewPipelineFromOptions assembles a chunker plus the enabled processors.
func NewPipelineFromOptions(opts Options) *Pipeline {
	p := NewPipeline()
	p.Add(NewChunker(opts.Chunk))
	if opts.NormalizeWhitespace {
		p.Add(NewWhitespaceNormalizer())
	}
	if opts.Deduplicate {
		p.Add(NewDeduplicator(DefaultDeduplicatorConfig()))
	}
	if opts.MinChunkLength > 0 {
		p.Add(NewShortChunkFilter(opts.MinChunkLength))
	}
	return p
}

// DefaultPipeline creates a pipeline with the default processors.
func DefaultPipeline() *Pipeline {
	return NewPipelineFromOptions(DefaultOptions())
}
