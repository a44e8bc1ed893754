// Package analyze asks the completion service for an Act summary and its
// legislative sections.
package analyze

import (
	"fmt"
	"io"

	"github.com/ppiankov/actcheck/internal/llm"
)

// Options configures the summarizer and the section extractor
type Options struct {
	// Model overrides the provider's configured model
	Model string

	// MaxTokens caps each completion; 0 uses the provider default
	MaxTokens int

	// MaxInputChars bounds the text sent for summaries
	MaxInputChars int

	// TruncateSections applies MaxInputChars to section extraction as well
	TruncateSections bool

	// StrictSchema replaces schema-invalid sections with an error mapping
	StrictSchema bool

	// Log receives warnings (truncation, schema mismatches); nil discards them
	Log io.Writer
}

// DefaultOptions returns options matching the reference behaviour
func DefaultOptions() Options {
	return Options{MaxInputChars: DefaultMaxInputChars}
}

func (o Options) warnf(format string, args ...any) {
	if o.Log == nil {
		return
	}
	fmt.Fprintf(o.Log, "Warning: "+format+"\n", args...)
}

func (o Options) request(prompt string) llm.CompletionRequest {
	return llm.CompletionRequest{
		Prompt:    prompt,
		Model:     o.Model,
		MaxTokens: o.MaxTokens,
	}
}
