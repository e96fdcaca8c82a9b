package postprocessors

import (
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// ChunkConfig configures the chunker behavior.
// Sizes are counted in runes so multi-byte text is never split mid-character.
type ChunkConfig struct {
	// MaxChunkSize is the maximum runes per chunk
	MaxChunkSize int

	// Overlap is the rune overlap between chunks
	Overlap int

	// PreserveSentences tries to break at sentence boundaries
	PreserveSentences bool

	// PreserveParagraphs tries to break at paragraph boundaries
	PreserveParagraphs bool
}

// DefaultChunkConfig returns fixed 500-rune chunks without overlap.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize: 500,
		Overlap:      0,
	}
}

// breakWindow is how far back from the size limit a break point is searched.
const breakWindow = 100

var sentenceEnders = [][]rune{
	[]rune(". "), []rune("! "), []rune("? "),
	[]rune(".\n"), []rune("!\n"), []rune("?\n"),
	[]rune("。"), []rune("！"), []rune("？"),
}

// Chunker splits content into overlapping chunks.
// This is typically the first processor in the pipeline (Order = 0).
type Chunker struct {
	config ChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a new chunker with the given config.
func NewChunker(config ChunkConfig) *Chunker {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultChunkConfig().MaxChunkSize
	}
	if config.Overlap < 0 || config.Overlap >= config.MaxChunkSize {
		config.Overlap = 0
	}
	return &Chunker{config: config}
}

// Process splits content into chunks.
func (c *Chunker) Process(chunks []driven.Chunk) []driven.Chunk {
	var result []driven.Chunk
	position := 0

	for _, chunk := range chunks {
		newChunks := c.splitContent([]rune(chunk.Content), chunk.StartOffset, &position)
		result = append(result, newChunks...)
	}

	return result
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 0 - chunker should be first.
func (c *Chunker) Order() int {
	return 0
}

// splitContent splits content into overlapping chunks.
func (c *Chunker) splitContent(content []rune, baseOffset int, position *int) []driven.Chunk {
	if len(content) == 0 {
		return nil
	}
	if len(content) <= c.config.MaxChunkSize {
		chunk := driven.Chunk{
			Content:     string(content),
			Position:    *position,
			StartOffset: baseOffset,
			EndOffset:   baseOffset + len(content),
		}
		*position++
		return []driven.Chunk{chunk}
	}

	var chunks []driven.Chunk
	start := 0

	for start < len(content) {
		end := min(start+c.config.MaxChunkSize, len(content))

		// Try to find a good break point
		if end < len(content) && (c.config.PreserveSentences || c.config.PreserveParagraphs) {
			if bp := c.findBreakPoint(content, start, end); bp > start {
				end = bp
			}
		}

		chunks = append(chunks, driven.Chunk{
			Content:     string(content[start:end]),
			Position:    *position,
			StartOffset: baseOffset + start,
			EndOffset:   baseOffset + end,
		})
		*position++

		if end >= len(content) {
			break
		}

		// Move start with overlap, ensuring we always advance
		nextStart := end - c.config.Overlap
		if nextStart <= start {
			nextStart = start + 1
		}
		start = nextStart
	}

	return chunks
}

// findBreakPoint finds a good break point for chunking.
func (c *Chunker) findBreakPoint(content []rune, start, maxEnd int) int {
	searchStart := max(maxEnd-breakWindow, start)
	window := content[searchStart:maxEnd]

	if c.config.PreserveParagraphs {
		if idx := lastIndexRunes(window, []rune("\n\n")); idx != -1 {
			return searchStart + idx + 2
		}
	}

	if c.config.PreserveSentences {
		best := -1
		for _, ender := range sentenceEnders {
			if idx := lastIndexRunes(window, ender); idx != -1 {
				best = max(best, idx+len(ender))
			}
		}
		if best > 0 {
			return searchStart + best
		}

		if idx := lastIndexRunes(window, []rune(" ")); idx != -1 {
			return searchStart + idx + 1
		}
	}

	return maxEnd
}

func lastIndexRunes(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
