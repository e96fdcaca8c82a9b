package parsers

import (
	"context"
	"os"
	"strings"
)

// TextParser reads plain text files.
type TextParser struct{}

func (p *TextParser) ParseFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return cleanText(string(data)), nil
}

func (p *TextParser) SupportedTypes() []string {
	return []string{"text/*"}
}

func (p *TextParser) Priority() int {
	return 10
}

// MarkdownParser reads Markdown files and collapses runs of blank lines.
type MarkdownParser struct{}

func (p *MarkdownParser) ParseFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	content := cleanText(string(data))
	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}
	return content, nil
}

func (p *MarkdownParser) SupportedTypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (p *MarkdownParser) Priority() int {
	return 50
}

// cleanText normalizes line endings, drops invalid UTF-8 and trims the result.
func cleanText(content string) string {
	content = strings.ToValidUTF8(content, "")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.TrimSpace(content)
}
