package analyze

import (
	"context"
	"fmt"

	"github.com/ppiankov/actcheck/internal/llm"
)

// Summarizer produces a bullet-point summary of an Act
type Summarizer struct {
	provider llm.Provider
	opts     Options
}

// NewSummarizer creates a summarizer backed by provider
func NewSummarizer(provider llm.Provider, opts Options) *Summarizer {
	return &Summarizer{provider: provider, opts: opts}
}

// Summarize returns the model's summary verbatim.
// Text past MaxInputChars is not sent.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	input, cut := Truncate(text, s.opts.MaxInputChars)
	if cut {
		s.opts.warnf("Act text truncated to %d characters for summary", s.opts.MaxInputChars)
	}

	resp, err := s.provider.Complete(ctx, s.opts.request(SummaryPrompt(input)))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	return resp.Text, nil
}
