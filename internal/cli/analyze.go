package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actcheck/internal/model"
	"github.com/ppiankov/actcheck/internal/pipeline"
)

var (
	outJSON       string
	outMD         string
	runTimeout    time.Duration
	noCache       bool
	evaluatorName string
	llmProvider   string
	llmModel      string
	maxInputChars int
	llmTimeout    time.Duration
	strictSchema  bool
	judgeWorkers  int
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [input]",
	Short: "Summarize an Act, extract its sections and check the compliance rules",
	Long: `Analyze runs the full pipeline on one Act:
- Extract the text (PDF, HTML or plain text; path or http(s) URL)
- Summarize it in 5-10 bullet points
- Extract definitions, obligations, responsibilities, eligibility,
  payments, penalties and record keeping as JSON
- Check the six compliance rules with the heuristic or the LLM judge

The input defaults to ukpga_20250022_en.pdf in the current directory.

Example:
  actcheck analyze
  actcheck analyze ukpga_20250022_en.pdf --out final_output.json --md report.md
  actcheck analyze https://www.legislation.gov.uk/ukpga/2025/22 --evaluator llm
  actcheck analyze act.pdf --llm-provider anthropic --llm-model claude-3-5-haiku-latest`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "out", "final_output.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// Run flags
	analyzeCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "overall run timeout (0 = none)")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the completion cache")
	analyzeCmd.Flags().StringVar(&evaluatorName, "evaluator", "heuristic", "rule evaluator (heuristic, llm)")
	analyzeCmd.Flags().IntVar(&maxInputChars, "max-input-chars", 25000, "characters of Act text sent for summaries and judgments")
	analyzeCmd.Flags().BoolVar(&strictSchema, "strict-schema", false, "replace schema-invalid sections with an error")
	analyzeCmd.Flags().IntVar(&judgeWorkers, "judge-workers", 1, "parallel rule judgments for --evaluator llm")

	// LLM flags
	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
	analyzeCmd.Flags().DurationVar(&llmTimeout, "llm-timeout", 2*time.Minute, "timeout per completion call")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAnalyzeFlags(cmd, cfg)
	applyProviderEnv(cfg)

	input := cfg.Input
	if len(args) == 1 {
		input = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", input)
		fmt.Fprintf(os.Stderr, "LLM: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Evaluator: %s\n", cfg.Evaluator)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	report, err := p.Analyze(ctx, input)
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if err := p.RenderReport(report, cfg.Output.JSONPath, cfg.Output.MarkdownPath, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	fmt.Printf("\nDone! JSON saved as %s\n", cfg.Output.JSONPath)
	return nil
}

// applyAnalyzeFlags overrides configuration with explicitly set flags
func applyAnalyzeFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("out") || cfg.Output.JSONPath == "" {
		cfg.Output.JSONPath = outJSON
	}
	if flags.Changed("md") {
		cfg.Output.MarkdownPath = outMD
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("evaluator") {
		cfg.Evaluator = evaluatorName
	}
	if flags.Changed("max-input-chars") {
		cfg.Limits.MaxInputChars = maxInputChars
	}
	if flags.Changed("strict-schema") {
		cfg.Sections.StrictSchema = strictSchema
	}
	if flags.Changed("judge-workers") {
		cfg.Concurrency.JudgeWorkers = judgeWorkers
	}
	applyLLMFlags(cmd, cfg)
}

// applyLLMFlags overrides the LLM section; shared by analyze, batch and serve
func applyLLMFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("llm-provider") {
		if cfg.LLM.Provider != llmProvider {
			// Credentials from the config belong to the other provider
			cfg.LLM.APIKey = ""
			cfg.LLM.BaseURL = ""
		}
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("llm-timeout") {
		cfg.LLM.Timeout = llmTimeout
	}
}
