package parsers

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ParserRegistry = (*Registry)(nil)

// extensionTypes overrides content sniffing for formats that look like
// plain text on disk.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".htm":      "text/html",
	".html":     "text/html",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Registry implements ParserRegistry with priority-based selection.
// When multiple parsers match a MIME type, the highest priority one is used.
type Registry struct {
	mu      sync.RWMutex
	parsers []driven.FormatParser
}

// NewRegistry creates a new parser registry.
func NewRegistry() *Registry {
	return &Registry{
		parsers: make([]driven.FormatParser, 0),
	}
}

// DefaultRegistry creates a registry with the built-in parsers registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&TextParser{})
	r.Register(&MarkdownParser{})
	r.Register(&HTMLParser{})
	r.Register(&PDFParser{})
	r.Register(&SpreadsheetParser{})

	return r
}

// Register registers a parser.
func (r *Registry) Register(parser driven.FormatParser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parsers = append(r.parsers, parser)
}

// Get retrieves the best-matching parser for a MIME type.
// Returns nil if no parser is registered for the type.
func (r *Registry) Get(mimeType string) driven.FormatParser {
	matches := r.GetAll(mimeType)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// GetAll retrieves all parsers that match a MIME type, sorted by priority (highest first).
func (r *Registry) GetAll(mimeType string) []driven.FormatParser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []driven.FormatParser
	for _, p := range r.parsers {
		if matchesMIMEType(p.SupportedTypes(), mimeType) {
			matches = append(matches, p)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority() > matches[j].Priority()
	})

	return matches
}

// List returns all registered MIME types.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeSet := make(map[string]struct{})
	for _, p := range r.parsers {
		for _, t := range p.SupportedTypes() {
			typeSet[t] = struct{}{}
		}
	}

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Parse detects the file type and extracts text with the best-matching parser.
// Every failure wraps domain.ErrParse.
func (r *Registry) Parse(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	mimeType, err := DetectType(path)
	if err != nil {
		return "", err
	}

	parser := r.Get(mimeType)
	if parser == nil {
		return "", fmt.Errorf("%w: unsupported file type %s", domain.ErrParse, mimeType)
	}

	text, err := parser.ParseFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrParse, filepath.Base(path), err)
	}
	return text, nil
}

// DetectType returns the MIME type of the file at path, without parameters.
func DetectType(path string) (string, error) {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t, nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to detect MIME type: %v", domain.ErrParse, err)
	}
	return stripParams(mtype.String()), nil
}

func stripParams(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

// matchesMIMEType checks if any of the supported types match the given MIME type.
// Supports wildcard matching (e.g., "text/*" matches "text/plain").
func matchesMIMEType(supportedTypes []string, mimeType string) bool {
	mimeType = stripParams(mimeType)

	for _, supported := range supportedTypes {
		supported = strings.ToLower(strings.TrimSpace(supported))

		if supported == mimeType || supported == "*/*" {
			return true
		}

		if strings.HasSuffix(supported, "/*") {
			prefix := supported[:len(supported)-1]
			if strings.HasPrefix(mimeType, prefix) {
				return true
			}
		}
	}

	return false
}
