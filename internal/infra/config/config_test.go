package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Classifier.RuleConfidenceThreshold != 0.85 {
		t.Fatalf("expected default threshold 0.85, got %v", cfg.Classifier.RuleConfidenceThreshold)
	}
	if cfg.Orchestrator.AgentTimeout != 60*time.Second {
		t.Fatalf("expected default agent timeout 60s, got %v", cfg.Orchestrator.AgentTimeout)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
provider:
  name: openai
  model: gpt-4o
  api_key_env: MY_KEY
orchestrator:
  agent_timeout: 30s
  max_retries: 2
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Model != "gpt-4o" {
		t.Fatalf("expected gpt-4o, got %s", cfg.Provider.Model)
	}
	if cfg.Orchestrator.AgentTimeout != 30*time.Second {
		t.Fatalf("expected 30s, got %v", cfg.Orchestrator.AgentTimeout)
	}
	if cfg.Orchestrator.MaxRetries != 2 {
		t.Fatalf("expected 2 retries, got %d", cfg.Orchestrator.MaxRetries)
	}
	// Untouched sections keep their defaults.
	if cfg.Cache.MaxEntries != 100 {
		t.Fatalf("expected default cache size, got %d", cfg.Cache.MaxEntries)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
classifier:
  rule_confidence_threshold: 1.5
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("out-of-range threshold should fail validation")
	}
}

func TestAPIKeyResolvesFromEnv(t *testing.T) {
	t.Setenv("CONFIG_TEST_KEY", "sk-abc")
	p := ProviderConfig{APIKeyEnv: "CONFIG_TEST_KEY"}
	if got := p.APIKey(); got != "sk-abc" {
		t.Fatalf("expected sk-abc, got %q", got)
	}
	if got := (ProviderConfig{}).APIKey(); got != "" {
		t.Fatalf("no env var configured should mean no key, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative retries", func(c *Config) { c.Orchestrator.MaxRetries = -1 }, true},
		{"zero agent timeout", func(c *Config) { c.Orchestrator.AgentTimeout = 0 }, true},
		{"zero trace store", func(c *Config) { c.TraceStore.MaxSize = 0 }, true},
		{"zero cache", func(c *Config) { c.Cache.MaxEntries = 0 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
