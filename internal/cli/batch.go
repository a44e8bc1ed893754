package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actcheck/internal/pipeline"
	"github.com/ppiankov/actcheck/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchMD      bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir|file>",
	Short: "Analyze many Acts in parallel",
	Long: `Batch analyzes several Acts concurrently:
- A directory is scanned for .pdf, .html, .htm and .txt files
- Any other file is read as a list of paths or URLs (one per line, # comments)
- Each Act gets <name>.json (and <name>.md with --md) in the output directory

Example:
  actcheck batch ./acts
  actcheck batch acts.txt --concurrency 4 --output-dir ./reports
  actcheck batch ./acts --evaluator llm --md`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of Acts analyzed in parallel")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./actcheck-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 2*time.Hour, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchMD, "md", false, "also write Markdown reports")

	// Shared flags
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the completion cache")
	batchCmd.Flags().StringVar(&evaluatorName, "evaluator", "heuristic", "rule evaluator (heuristic, llm)")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
	batchCmd.Flags().DurationVar(&llmTimeout, "llm-timeout", 2*time.Minute, "timeout per completion call")
}

func runBatch(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("evaluator") {
		cfg.Evaluator = evaluatorName
	}
	applyLLMFlags(cmd, cfg)
	applyProviderEnv(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  actcheck Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", source)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Evaluator:    %s\n", cfg.Evaluator)
	fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	// Interleaved stage lines from parallel runs are noise
	if !cfg.Output.Verbose {
		p.SetProgress(nil)
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	results, err := processor.ProcessPath(ctx, source)
	if err != nil {
		return fmt.Errorf("process %s: %w", source, err)
	}

	renderer := pipeline.NewRenderer(os.Stdout)
	used := make(map[string]int)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Input, result.Error)
			continue
		}

		name := uniqueName(reportName(result.Input), used)
		jsonPath := filepath.Join(outputDir, name+".json")
		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Input, err)
			continue
		}
		if batchMD {
			if err := renderer.RenderMarkdown(result.Report, filepath.Join(outputDir, name+".md")); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Input, err)
			}
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s -> %s (%d/%d rules passed)\n",
			result.Input, jsonPath, result.Report.Passed(), len(result.Report.RuleChecks))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d Acts\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d Acts failed", failureCount)
	}
	return nil
}

// reportName derives a report file name (without extension) from a path or URL
func reportName(input string) string {
	if pipeline.IsURL(input) {
		if u, err := url.Parse(input); err == nil {
			p := strings.Trim(u.Path, "/")
			if p == "" {
				return sanitizeFilename(u.Host)
			}
			p = strings.TrimSuffix(p, path.Ext(p))
			return sanitizeFilename(strings.ReplaceAll(p, "/", "_"))
		}
	}
	base := filepath.Base(input)
	return sanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base)))
}

// uniqueName appends a counter when two inputs map to the same name
func uniqueName(name string, used map[string]int) string {
	used[name]++
	if n := used[name]; n > 1 {
		return fmt.Sprintf("%s-%d", name, n)
	}
	return name
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" || s == "." || s == ".." {
		s = "act"
	}

	return s
}
