package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/actcheck/internal/pipeline"
	"github.com/ppiankov/actcheck/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page and JSON API",
	Long: `Serve starts an HTTP server with:
  GET  /          upload form
  POST /analyze   multipart upload (field "pdf"), returns final_output.json
  GET  /health    liveness check

Uploads are limited in size, in concurrent runs and per client IP.

Example:
  actcheck serve --addr :8501
  actcheck serve --evaluator llm`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8501", "listen address")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the completion cache")
	serveCmd.Flags().StringVar(&evaluatorName, "evaluator", "heuristic", "rule evaluator (heuristic, llm)")
	serveCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	serveCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
	serveCmd.Flags().DurationVar(&llmTimeout, "llm-timeout", 2*time.Minute, "timeout per completion call")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("evaluator") {
		cfg.Evaluator = evaluatorName
	}
	applyLLMFlags(cmd, cfg)
	applyProviderEnv(cfg)

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	// Concurrent uploads would interleave stage lines
	if !cfg.Output.Verbose {
		p.SetProgress(nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "actcheck %s: serving %s (LLM %s/%s, evaluator %s)\n",
		version, cfg.Server.Addr, cfg.LLM.Provider, cfg.LLM.Model, cfg.Evaluator)

	return server.New(cfg.Server, p).ListenAndServe(ctx)
}
