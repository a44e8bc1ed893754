package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/actcheck/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage actcheck configuration",
	Long: `Manage actcheck configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (ACTCHECK_*)
3. Config file (~/.actcheck/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after defaults, config file and environment variables are applied. API keys are never shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyProviderEnv(cfg)

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
		fmt.Fprintln(out, "  Current Configuration")
		fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
		fmt.Fprintln(out)

		if err := writeConfigYAML(out, cfg); err != nil {
			return err
		}

		key := "not set"
		if cfg.LLM.APIKey != "" {
			key = "set"
		}
		fmt.Fprintf(out, "\nAPI key (%s): %s\n", cfg.LLM.Provider, key)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Configuration hierarchy (highest to lowest priority):")
		fmt.Fprintln(out, "  1. CLI flags")
		fmt.Fprintln(out, "  2. Environment variables (ACTCHECK_*, OPENAI_API_KEY, ANTHROPIC_API_KEY, .env)")
		fmt.Fprintln(out, "  3. Config file (~/.actcheck/config.yaml)")
		fmt.Fprintln(out, "  4. Defaults")
		fmt.Fprintln(out)

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.actcheck/config.yaml with all available options.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configPath := filepath.Join(home, ".actcheck", "config.yaml")
		if err := initConfigFile(configPath); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created configuration file: %s\n", configPath)
		fmt.Fprintf(cmd.OutOrStdout(), "\nEdit this file to customize actcheck behavior.\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func writeConfigYAML(w io.Writer, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// initConfigFile writes the default configuration to path, refusing to overwrite
func initConfigFile(path string) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'actcheck config show' to view it, or delete it first to recreate", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	// Helper for writing with error checking
	printf := func(format string, a ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(f, format, a...)
	}

	printf("# actcheck Configuration File\n")
	printf("#\n")
	printf("# Configuration hierarchy (highest to lowest priority):\n")
	printf("#   1. CLI flags\n")
	printf("#   2. Environment variables (ACTCHECK_*, e.g. ACTCHECK_LLM_MODEL)\n")
	printf("#   3. This config file\n")
	printf("#   4. Built-in defaults\n\n")
	if err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	if err = writeConfigYAML(f, model.DefaultConfig()); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	printf("\n# API keys are read from the environment or a .env file, never from here:\n")
	printf("#   OPENAI_API_KEY=sk-...\n")
	printf("#   ANTHROPIC_API_KEY=sk-ant-...\n")
	printf("#   OLLAMA_BASE_URL=http://localhost:11434\n")
	if err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}
