package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig holds OpenTelemetry tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// ProviderConfig holds settings for one LLM backend.
type ProviderConfig struct {
	Name        string        `yaml:"name"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"` // env var holding the key; never stored in config
	Model       string        `yaml:"model"`
	ChatModel   string        `yaml:"chat_model"`   // fallback conversational model
	IntentModel string        `yaml:"intent_model"` // structured-output classifier model
	Timeout     time.Duration `yaml:"timeout"`
}

// APIKey resolves the provider API key from the environment.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// ClassifierConfig holds intent classifier settings.
type ClassifierConfig struct {
	RuleConfidenceThreshold float64       `yaml:"rule_confidence_threshold"`
	EnableLLM               bool          `yaml:"enable_llm"`
	LLMTimeout              time.Duration `yaml:"llm_timeout"`
}

// RouterConfig holds routing settings.
type RouterConfig struct {
	EnableMultiAgent bool `yaml:"enable_multi_agent"`
}

// OrchestratorConfig holds agent execution settings.
type OrchestratorConfig struct {
	AgentTimeout   time.Duration `yaml:"agent_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	EnableParallel bool          `yaml:"enable_parallel"`
	MaxIterations  int           `yaml:"max_iterations"` // tool-call loop bound per agent
}

// CacheConfig holds tiered cache settings.
type CacheConfig struct {
	MaxEntries int           `yaml:"max_entries"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// TraceStoreConfig holds trace store settings.
type TraceStoreConfig struct {
	MaxSize int `yaml:"max_size"`
}

// ToolsConfig holds tool wiring settings.
type ToolsConfig struct {
	SearchBaseURL    string        `yaml:"search_base_url"`
	SearchRatePerSec float64       `yaml:"search_rate_per_sec"`
	SearchBurst      int           `yaml:"search_burst"`
	DiscoveryTTL     time.Duration `yaml:"discovery_ttl"`
}

// Config is the top-level application configuration.
type Config struct {
	Logger       LoggerConfig       `yaml:"logger"`
	Tracer       TracerConfig       `yaml:"tracer"`
	Provider     ProviderConfig     `yaml:"provider"`
	Classifier   ClassifierConfig   `yaml:"classifier"`
	Router       RouterConfig       `yaml:"router"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Cache        CacheConfig        `yaml:"cache"`
	TraceStore   TraceStoreConfig   `yaml:"trace_store"`
	Tools        ToolsConfig        `yaml:"tools"`
}

// Default returns a config populated with defaults.
func Default() Config {
	return Config{
		Logger: LoggerConfig{Level: "info", Format: "text", Output: "stderr"},
		Tracer: TracerConfig{Enabled: false, Exporter: "noop"},
		Provider: ProviderConfig{
			Name:      "openai",
			APIKeyEnv: "LEGALMIND_API_KEY",
			Timeout:   60 * time.Second,
		},
		Classifier: ClassifierConfig{
			RuleConfidenceThreshold: 0.85,
			EnableLLM:               true,
			LLMTimeout:              5 * time.Second,
		},
		Router: RouterConfig{EnableMultiAgent: true},
		Orchestrator: OrchestratorConfig{
			AgentTimeout:   60 * time.Second,
			MaxRetries:     1,
			EnableParallel: true,
			MaxIterations:  10,
		},
		Cache:      CacheConfig{MaxEntries: 100, DefaultTTL: 5 * time.Minute},
		TraceStore: TraceStoreConfig{MaxSize: 1000},
		Tools: ToolsConfig{
			SearchRatePerSec: 5,
			SearchBurst:      10,
			DiscoveryTTL:     time.Minute,
		},
	}
}

// Load reads a YAML config file and merges it over the defaults.
// A missing path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail deep inside a turn.
func (c Config) Validate() error {
	if c.Classifier.RuleConfidenceThreshold < 0 || c.Classifier.RuleConfidenceThreshold > 1 {
		return fmt.Errorf("classifier.rule_confidence_threshold must be in [0,1], got %v",
			c.Classifier.RuleConfidenceThreshold)
	}
	if c.Orchestrator.MaxRetries < 0 {
		return fmt.Errorf("orchestrator.max_retries must be >= 0, got %d", c.Orchestrator.MaxRetries)
	}
	if c.Orchestrator.AgentTimeout <= 0 {
		return fmt.Errorf("orchestrator.agent_timeout must be positive, got %v", c.Orchestrator.AgentTimeout)
	}
	if c.TraceStore.MaxSize <= 0 {
		return fmt.Errorf("trace_store.max_size must be positive, got %d", c.TraceStore.MaxSize)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	return nil
}
