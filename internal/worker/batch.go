package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/actcheck/internal/model"
)

// Analyzer runs the full pipeline for one Act (path or URL)
type Analyzer interface {
	Analyze(ctx context.Context, input string) (*model.Report, error)
}

// AnalyzeJob represents one Act to analyze
type AnalyzeJob struct {
	Input    string
	Analyzer Analyzer
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	report, err := j.Analyzer.Analyze(ctx, j.Input)
	return &AnalyzeResult{
		Input:  j.Input,
		Report: report,
		Error:  err,
	}
}

// AnalyzeResult represents the result of an analysis job
type AnalyzeResult struct {
	Input  string
	Report *model.Report
	Error  error
}

// GetError returns the error from the analysis
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple Acts concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessInputs analyzes inputs concurrently; results keep input order
func (b *BatchProcessor) ProcessInputs(ctx context.Context, inputs []string) []*AnalyzeResult {
	jobs := make([]Job, len(inputs))
	for i, input := range inputs {
		jobs[i] = &AnalyzeJob{Input: input, Analyzer: b.analyzer}
	}

	results := Run(ctx, b.concurrency, jobs)

	out := make([]*AnalyzeResult, len(results))
	for i, r := range results {
		if r == nil {
			out[i] = &AnalyzeResult{Input: inputs[i], Error: fmt.Errorf("not started: %w", ctx.Err())}
			continue
		}
		out[i] = r.(*AnalyzeResult)
	}

	return out
}

// ProcessPath analyzes every Act in a directory, or every entry of a list file
func (b *BatchProcessor) ProcessPath(ctx context.Context, path string) ([]*AnalyzeResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	var inputs []string
	if info.IsDir() {
		inputs, err = ListActs(path)
	} else {
		inputs, err = ReadInputsFromFile(path)
	}
	if err != nil {
		return nil, err
	}

	return b.ProcessInputs(ctx, inputs), nil
}

// actExtensions are the file types picked up from a batch directory
var actExtensions = map[string]bool{
	".pdf":  true,
	".html": true,
	".htm":  true,
	".txt":  true,
}

// ListActs returns the Act files directly inside dir, sorted by name
func ListActs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var acts []string
	for _, e := range entries {
		if e.IsDir() || !actExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		acts = append(acts, filepath.Join(dir, e.Name()))
	}
	sort.Strings(acts)

	return acts, nil
}

// ReadInputsFromFile reads paths or URLs from a file (one per line)
func ReadInputsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var inputs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			inputs = append(inputs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return inputs, nil
}
