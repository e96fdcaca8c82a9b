package prompts

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funayamateppei/local-rag-comparator/internal/core/domain"
	"github.com/funayamateppei/local-rag-comparator/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PromptRepository = (*Store)(nil)

//go:embed defaults/*.yaml
var defaults embed.FS

// Store loads <prompt_type>.yaml templates. Sources are searched in order,
// so a directory override wins over the embedded defaults.
// Files are read on every Load so edits apply without a restart.
type Store struct {
	sources []fs.FS
}

// promptFile is the on-disk YAML shape
type promptFile struct {
	Name      string   `yaml:"name"`
	Template  string   `yaml:"template"`
	Version   string   `yaml:"version"`
	Variables []string `yaml:"variables"`
}

// NewStore searches the given filesystems in order
func NewStore(sources ...fs.FS) *Store {
	return &Store{sources: sources}
}

// NewDefaultStore serves only the embedded templates
func NewDefaultStore() *Store {
	return NewStore(DefaultFS())
}

// NewDirStore serves templates from dir, falling back to the embedded ones.
// An empty dir is the same as NewDefaultStore.
func NewDirStore(dir string) *Store {
	if dir == "" {
		return NewDefaultStore()
	}
	return NewStore(os.DirFS(dir), DefaultFS())
}

// DefaultFS exposes the embedded templates at the filesystem root
func DefaultFS() fs.FS {
	sub, err := fs.Sub(defaults, "defaults")
	if err != nil {
		panic(fmt.Sprintf("embedded prompts: %v", err))
	}
	return sub
}

// Load reads and validates the template for promptType
func (s *Store) Load(ctx context.Context, promptType domain.PromptType) (domain.PromptTemplate, error) {
	if !promptType.Valid() {
		return domain.PromptTemplate{}, fmt.Errorf("%w: unknown prompt type %q", domain.ErrPromptNotFound, promptType)
	}
	if err := ctx.Err(); err != nil {
		return domain.PromptTemplate{}, err
	}

	file := string(promptType) + ".yaml"
	for _, src := range s.sources {
		data, err := fs.ReadFile(src, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.PromptTemplate{}, fmt.Errorf("read prompt %s: %w", file, err)
		}
		return parsePrompt(file, data)
	}
	return domain.PromptTemplate{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, file)
}

func parsePrompt(file string, data []byte) (domain.PromptTemplate, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil || raw == nil {
		return domain.PromptTemplate{}, fmt.Errorf("%w: invalid YAML format in %s", domain.ErrInvalidInput, file)
	}
	for _, field := range []string{"name", "template", "version"} {
		if _, ok := raw[field]; !ok {
			return domain.PromptTemplate{}, fmt.Errorf("%w: missing required field '%s' in %s", domain.ErrInvalidInput, field, file)
		}
	}

	var p promptFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return domain.PromptTemplate{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, file, err)
	}
	return domain.NewPromptTemplate(p.Name, p.Template, p.Version, p.Variables)
}
