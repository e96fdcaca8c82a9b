package domain

import (
	"fmt"
	"slices"
	"strings"
)

// PromptType identifies which prompt a use case needs
type PromptType string

const (
	PromptEntityExtraction PromptType = "entity_extraction"
	PromptSearchQuery      PromptType = "search_query"
	PromptSummarization    PromptType = "summarization"
)

// Valid reports whether t is a known prompt type.
func (t PromptType) Valid() bool {
	switch t {
	case PromptEntityExtraction, PromptSearchQuery, PromptSummarization:
		return true
	}
	return false
}

// PromptTemplate is a versioned prompt with {{name}} placeholders.
// It is immutable once constructed.
type PromptTemplate struct {
	name      string
	template  string
	version   string
	variables []string
}

// NewPromptTemplate validates and builds a template.
func NewPromptTemplate(name, template, version string, variables []string) (PromptTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return PromptTemplate{}, fmt.Errorf("%w: prompt name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(template) == "" {
		return PromptTemplate{}, fmt.Errorf("%w: prompt template is required", ErrInvalidInput)
	}
	return PromptTemplate{
		name:      name,
		template:  template,
		version:   version,
		variables: slices.Clone(variables),
	}, nil
}

func (p PromptTemplate) Name() string { return p.name }
func (p PromptTemplate) Template() string { return p.template }
func (p PromptTemplate) Version() string { return p.version }
func (p PromptTemplate) Variables() []string { return slices.Clone(p.variables) }

// Render substitutes args into the template. Every declared variable must be
// present in args; undeclared keys are ignored unless the template uses them.
func (p PromptTemplate) Render(args map[string]string) (string, error) {
	for _, v := range p.variables {
		if _, ok := args[v]; !ok {
			return "", &MissingVariableError{Name: v}
		}
	}

	pairs := make([]string, 0, len(args)*2)
	for k, v := range args {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(p.template), nil
}
