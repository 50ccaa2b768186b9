package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("TOLLGATE_TEST_KEY", "sk-test-123")

	path := filepath.Join(t.TempDir(), "tollgate.yaml")
	raw := `
listen: ":9090"
db_path: "/tmp/gov.db"
provider:
  name: anthropic
  url: "https://api.anthropic.com"
  api_key: "${TOLLGATE_TEST_KEY}"
budget:
  weekly_usd: 10.0
  warn_threshold: 0.5
cache:
  enabled: true
  max_age: 1h
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9090" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.Provider.APIKey != "sk-test-123" {
		t.Errorf("env expansion failed: %q", cfg.Provider.APIKey)
	}
	if cfg.Budget.WeeklyUsd != 10.0 || cfg.Budget.WarnThreshold != 0.5 {
		t.Errorf("budget overrides lost: %+v", cfg.Budget)
	}
	if cfg.Cache.MaxAge != time.Hour {
		t.Errorf("cache max_age = %v", cfg.Cache.MaxAge)
	}
	// Unset sections keep defaults.
	if len(cfg.Models) != 3 {
		t.Errorf("default models lost: %d entries", len(cfg.Models))
	}
	if cfg.Tiers.Simple.Model != "claude-haiku-4-5" {
		t.Errorf("default tiers lost: %+v", cfg.Tiers.Simple)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateRejectsUnpricedTierModel(t *testing.T) {
	cfg := Default()
	cfg.Tiers.Expert.Model = "model-nobody-priced"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "unpriced") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadWarnThreshold(t *testing.T) {
	for _, v := range []float64{0, -0.1, 1.5} {
		cfg := Default()
		cfg.Budget.WarnThreshold = v
		if err := cfg.Validate(); err == nil {
			t.Errorf("warn_threshold %v accepted", v)
		}
	}
}

func TestValidateLowercasesKeywords(t *testing.T) {
	cfg := Default()
	cfg.Tiers.Simple.Keywords = []string{"TYPO", "ReadMe"}

	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	for _, kw := range cfg.Tiers.Simple.Keywords {
		if kw != strings.ToLower(kw) {
			t.Errorf("keyword %q not lowercased", kw)
		}
	}
}

func TestValidateDefaultsCacheMaxAge(t *testing.T) {
	cfg := Default()
	cfg.Cache.MaxAge = 0
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.MaxAge != 7*24*time.Hour {
		t.Errorf("max_age = %v, want one week", cfg.Cache.MaxAge)
	}
}
