package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ContentExtractor turns a story's source page into plain deep-dive text.
type ContentExtractor struct {
	maxLength int
}

func NewContentExtractor(maxLength int) *ContentExtractor {
	return &ContentExtractor{maxLength: maxLength}
}

func (e *ContentExtractor) Run(data []byte, pageURL *url.URL) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.Join(strings.Fields(article.TextContent), " ")
	if text == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	if e.maxLength > 0 && len([]rune(text)) > e.maxLength {
		text = strings.TrimSpace(string([]rune(text)[:e.maxLength])) + "…"
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(text))

	return text, nil
}
