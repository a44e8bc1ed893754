package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/actcheck/internal/analyze"
	"github.com/ppiankov/actcheck/internal/cache"
	"github.com/ppiankov/actcheck/internal/evaluate"
	"github.com/ppiankov/actcheck/internal/extract"
	"github.com/ppiankov/actcheck/internal/extract/adapters"
	"github.com/ppiankov/actcheck/internal/llm"
	"github.com/ppiankov/actcheck/internal/model"
	"github.com/ppiankov/actcheck/internal/worker"
)

// Pipeline runs extract, summarize, extract sections and evaluate for one Act
type Pipeline struct {
	registry   *extract.Registry
	fetcher    *Fetcher
	adapters   *adapters.Registry
	summarizer *analyze.Summarizer
	sections   *analyze.SectionExtractor
	evaluator  evaluate.Evaluator
	renderer   *Renderer
	config     *model.Config
	progress   io.Writer
}

// New creates a pipeline talking to the configured LLM provider
func New(cfg *model.Config) (*Pipeline, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	return NewWithProvider(cfg, provider)
}

// NewWithProvider creates a pipeline around an existing provider.
// The provider is wrapped with the configured cache, pacing and retries.
func NewWithProvider(cfg *model.Config, provider llm.Provider) (*Pipeline, error) {
	client := llm.NewClient(provider, llm.ClientOptions{
		Model:      cfg.LLM.Model,
		Cache:      cache.FromConfig(cfg.Cache),
		Limiter:    worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		MaxRetries: cfg.LLM.MaxRetries,
	})

	progress := io.Discard
	if cfg.Output.Verbose {
		progress = os.Stderr
	}

	opts := analyze.Options{
		Model:            cfg.LLM.Model,
		MaxTokens:        cfg.LLM.MaxTokens,
		MaxInputChars:    cfg.Limits.MaxInputChars,
		TruncateSections: cfg.Limits.TruncateSections,
		StrictSchema:     cfg.Sections.StrictSchema,
		Log:              progress,
	}

	evaluator, err := evaluate.New(cfg.Evaluator, client, evaluate.JudgeOptions{
		Model:         cfg.LLM.Model,
		MaxTokens:     cfg.LLM.MaxTokens,
		MaxInputChars: cfg.Limits.MaxInputChars,
		Workers:       cfg.Concurrency.JudgeWorkers,
	})
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		registry: extract.NewRegistry(),
		adapters: adapters.NewRegistry(),
		fetcher: NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
			cfg.HTTP.RespectRobots, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		summarizer: analyze.NewSummarizer(client, opts),
		sections:   analyze.NewSectionExtractor(client, opts),
		evaluator:  evaluator,
		renderer:   NewRenderer(os.Stdout),
		config:     cfg,
		progress:   os.Stderr,
	}, nil
}

// SetProgress redirects stage progress lines (stderr by default)
func (p *Pipeline) SetProgress(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	p.progress = w
}

// SetSummaryOutput redirects the run summary printed by RenderReport (stdout by default)
func (p *Pipeline) SetSummaryOutput(w io.Writer) {
	p.renderer = NewRenderer(w)
}

// Evaluator returns the configured rule evaluator
func (p *Pipeline) Evaluator() evaluate.Evaluator {
	return p.evaluator
}

// Run analyzes the Act stored at path
func (p *Pipeline) Run(ctx context.Context, path string) (*model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.RunBytes(ctx, filepath.Base(path), data)
}

// RunURL downloads and analyzes an Act
func (p *Pipeline) RunURL(ctx context.Context, rawURL string) (*model.Report, error) {
	p.stage("Fetching %s...", rawURL)
	result, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	// Landing pages on known publishers point at the Act's PDF
	if target, ok := p.adapters.Resolve(result.FinalURL, result.ContentType, result.Data); ok {
		p.stage("Following %s...", target)
		doc, err := p.fetcher.FetchWithRetry(ctx, target)
		switch {
		case err == nil:
			result = doc
		case ctx.Err() != nil:
			return nil, fmt.Errorf("fetch: %w", err)
		default:
			fmt.Fprintf(p.progress, "Warning: %v; analyzing the page instead\n", err)
		}
	}

	return p.RunBytes(ctx, result.Name, result.Data)
}

// RunBytes analyzes an in-memory document; name selects the extractor by extension
func (p *Pipeline) RunBytes(ctx context.Context, name string, data []byte) (*model.Report, error) {
	ex, err := p.registry.ForName(name, data)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	p.stage("Extracting %s...", strings.ToUpper(ex.Name()))
	text, err := ex.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if p.config.Output.Verbose {
		fmt.Fprintf(p.progress, "✓ Extracted %d characters\n", len([]rune(text)))
	}

	return p.RunText(ctx, text)
}

// RunText runs the model stages on already-extracted Act text
func (p *Pipeline) RunText(ctx context.Context, text string) (*model.Report, error) {
	p.stage("Summarizing...")
	summary, err := p.summarizer.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}

	p.stage("Extracting sections...")
	sections, err := p.sections.Extract(ctx, text)
	if err != nil {
		return nil, err
	}
	if msg, isErr := sections.Err(); isErr {
		fmt.Fprintf(p.progress, "Warning: %s\n", msg)
	}

	p.stage("Running rule checks...")
	checks, err := p.evaluator.Evaluate(ctx, text, sections)
	if err != nil {
		return nil, fmt.Errorf("rule checks: %w", err)
	}

	return &model.Report{
		Summary:    summary,
		Sections:   sections,
		RuleChecks: checks,
	}, nil
}

// Analyze runs a path or http(s) URL; it lets the batch processor drive the pipeline
func (p *Pipeline) Analyze(ctx context.Context, input string) (*model.Report, error) {
	if IsURL(input) {
		return p.RunURL(ctx, input)
	}
	return p.Run(ctx, input)
}

// RenderReport writes the JSON and optional Markdown outputs and prints a summary
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report)

	return nil
}

func (p *Pipeline) stage(format string, args ...any) {
	fmt.Fprintf(p.progress, "\n"+format+"\n", args...)
}

// IsURL reports whether input should be downloaded rather than read from disk
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}
