package extract

import (
	"strings"
	"unicode/utf8"
)

// TextExtractor passes plain-text Acts through
type TextExtractor struct{}

// NewTextExtractor creates a new plain-text extractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Name returns the extractor name
func (e *TextExtractor) Name() string {
	return "text"
}

// Extract returns the text with CRLF normalised, ending in a newline
func (e *TextExtractor) Extract(data []byte) (string, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text, nil
}
