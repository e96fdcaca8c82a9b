package parsers

import (
	"context"
	"os"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// HTMLParser converts HTML files to Markdown.
type HTMLParser struct{}

func (p *HTMLParser) ParseFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	markdown, err := htmltomarkdown.ConvertString(string(data))
	if err != nil {
		return "", err
	}
	return cleanText(markdown), nil
}

func (p *HTMLParser) SupportedTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (p *HTMLParser) Priority() int {
	return 60
}
