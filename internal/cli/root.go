package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/actcheck/internal/llm"
	"github.com/ppiankov/actcheck/internal/model"
)

// version is overridden at build time with -ldflags "-X ..."
var version = "v0.1.0"

var (
	cfgFile string
	envFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "actcheck",
	Short: "actcheck - legislative Act summary, section extraction and compliance checks",
	Long: `actcheck reads a legislative Act (PDF, HTML or text, local or by URL),
asks a language model to summarize it and to extract its key sections,
and checks six compliance rules against the result.

The output is a JSON document with the keys summary, sections and
rule_checks.

Rule checks are indicators, not legal advice: the heuristic evaluator only
measures whether a section was found, and model confidence scores are not
calibrated.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of actcheck.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "actcheck %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.actcheck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with API keys (missing file is ignored)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	loadDotEnv(envFile)

	if err := registerDefaults(viper.GetViper(), model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err == nil {
			// Search for config in home directory
			viper.AddConfigPath(home + "/.actcheck")
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match ACTCHECK_* (llm.model -> ACTCHECK_LLM_MODEL)
	viper.SetEnvPrefix("ACTCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: cannot read config file %s: %v\n", cfgFile, err)
	}
}

// loadDotEnv exports the variables of a dotenv file. Variables already set
// in the environment win.
func loadDotEnv(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot read %s: %v\n", path, err)
		return
	}

	for key, value := range v.AllSettings() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		_ = os.Setenv(name, fmt.Sprint(value))
	}
}

// registerDefaults makes every config key known to viper so that
// environment variables can override keys absent from the config file
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults(v, "", tree)
	// api_key is kept out of YAML output but may come from ACTCHECK_LLM_API_KEY
	v.SetDefault("llm.api_key", "")
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, value)
	}
}

// loadConfig resolves defaults, the config file and ACTCHECK_* environment.
// Callers apply their flags and then call applyProviderEnv.
func loadConfig() (*model.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// applyProviderEnv fills provider credentials from their conventional
// variables (OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_BASE_URL)
func applyProviderEnv(cfg *model.Config) {
	if cfg.LLM.APIKey == "" {
		if name := llm.APIKeyEnv(cfg.LLM.Provider); name != "" {
			cfg.LLM.APIKey = os.Getenv(name)
		}
	}
	if cfg.LLM.BaseURL == "" && strings.EqualFold(cfg.LLM.Provider, "ollama") {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}
