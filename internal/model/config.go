package model

import "time"

// Config holds the complete actcheck configuration.
// Field tags serve both viper (mapstructure) and `config show` (yaml).
type Config struct {
	Input     string `yaml:"input" mapstructure:"input"`         // Default Act path or URL for `analyze`
	Evaluator string `yaml:"evaluator" mapstructure:"evaluator"` // heuristic or llm

	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Limits       LimitsConfig       `yaml:"limits" mapstructure:"limits"`
	Sections     SectionsConfig     `yaml:"sections" mapstructure:"sections"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// LLMConfig configures the completion endpoint
type LLMConfig struct {
	Provider   string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model      string        `yaml:"model" mapstructure:"model"`
	APIKey     string        `yaml:"-" mapstructure:"api_key"` // never written to config files
	BaseURL    string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"` // per completion call
	MaxTokens  int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"` // transient failures only
}

// HTTPConfig configures downloads of Acts given by URL
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LimitsConfig bounds how much Act text is sent to the model.
// Text beyond MaxInputChars is never seen by the summarizer or the judge.
type LimitsConfig struct {
	MaxInputChars    int  `yaml:"max_input_chars" mapstructure:"max_input_chars"`
	TruncateSections bool `yaml:"truncate_sections" mapstructure:"truncate_sections"` // also limit section extraction input
}

// SectionsConfig controls section extraction
type SectionsConfig struct {
	StrictSchema bool `yaml:"strict_schema" mapstructure:"strict_schema"` // replace schema-invalid output with an error mapping
}

// CacheConfig controls the completion cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir,omitempty" mapstructure:"dir"` // empty = $HOME/.actcheck/cache
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls worker counts
type ConcurrencyConfig struct {
	Workers      int `yaml:"workers" mapstructure:"workers"`             // Acts processed in parallel by `batch`
	JudgeWorkers int `yaml:"judge_workers" mapstructure:"judge_workers"` // parallel rule judgments (1 = sequential)
}

// RateLimitingConfig paces completion calls. Zero disables pacing.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ServerConfig configures the upload server
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	MaxConcurrent     int64         `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	RequestsPerMinute int           `yaml:"requests_per_minute" mapstructure:"requests_per_minute"` // per client IP
	RunTimeout        time.Duration `yaml:"run_timeout" mapstructure:"run_timeout"`
	// Forwarding headers are only honoured from these addresses or CIDRs
	TrustedProxies []string `yaml:"trusted_proxies" mapstructure:"trusted_proxies"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	JSONPath     string `yaml:"json_path" mapstructure:"json_path"`
	MarkdownPath string `yaml:"markdown_path,omitempty" mapstructure:"markdown_path"`
	Verbose      bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the defaults used when nothing else is configured
func DefaultConfig() *Config {
	return &Config{
		Input:     "ukpga_20250022_en.pdf",
		Evaluator: "heuristic",
		LLM: LLMConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			Timeout:    2 * time.Minute,
			MaxTokens:  0, // provider default
			MaxRetries: 2,
		},
		HTTP: HTTPConfig{
			Timeout:       time.Minute,
			UserAgent:     "actcheck/0.1 (+https://github.com/ppiankov/actcheck)",
			MaxBodyBytes:  50 << 20,
			RespectRobots: true,
		},
		Limits: LimitsConfig{
			MaxInputChars: 25000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:      2,
			JudgeWorkers: 1,
		},
		RateLimiting: RateLimitingConfig{
			BurstSize: 1,
		},
		Server: ServerConfig{
			Addr:              ":8501",
			MaxUploadBytes:    50 << 20,
			MaxConcurrent:     4,
			RequestsPerMinute: 10,
			RunTimeout:        15 * time.Minute,
		},
		Output: OutputConfig{
			JSONPath: "final_output.json",
		},
	}
}
