package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tollgate-ai/tollgate/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all Tollgate configuration. It is loaded once at startup and
// treated as read-only afterwards.
type Config struct {
	Listen   string                `yaml:"listen"`
	DBPath   string                `yaml:"db_path"`
	Provider ProviderConfig        `yaml:"provider"`
	Cache    CacheConfig           `yaml:"cache"`
	Budget   BudgetConfig          `yaml:"budget"`
	Models   []models.ModelPricing `yaml:"models"`
	Tiers    TierTable             `yaml:"tiers"`
}

// ProviderConfig defines the upstream inference provider.
// Type is "anthropic" (default) or "openai".
type ProviderConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Type   string `yaml:"type"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	MaxAge  time.Duration `yaml:"max_age"`
}

// BudgetConfig controls spend enforcement over the rolling window.
type BudgetConfig struct {
	WeeklyUsd     float64 `yaml:"weekly_usd"`
	WarnThreshold float64 `yaml:"warn_threshold"`
	ResetSchedule string  `yaml:"reset_schedule"`
}

// TierConfig is the classifier table row for one complexity tier.
type TierConfig struct {
	Keywords  []string `yaml:"keywords"`
	MaxLength int      `yaml:"max_length"`
	MinScore  int      `yaml:"min_score"`
	Model     string   `yaml:"model"`
}

// TierTable maps each complexity tier to its classifier configuration.
type TierTable struct {
	Simple   TierConfig `yaml:"simple"`
	Moderate TierConfig `yaml:"moderate"`
	Complex  TierConfig `yaml:"complex"`
	Expert   TierConfig `yaml:"expert"`
}

// For returns the row for a tier.
func (t TierTable) For(tier models.Tier) TierConfig {
	switch tier {
	case models.TierModerate:
		return t.Moderate
	case models.TierComplex:
		return t.Complex
	case models.TierExpert:
		return t.Expert
	default:
		return t.Simple
	}
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "tollgate.db",
		Provider: ProviderConfig{
			Name: "anthropic",
			URL:  "https://api.anthropic.com",
			Type: "anthropic",
		},
		Cache: CacheConfig{
			Enabled: true,
			MaxAge:  7 * 24 * time.Hour,
		},
		Budget: BudgetConfig{
			WeeklyUsd:     25.0,
			WarnThreshold: 0.8,
			ResetSchedule: "0 0 * * 1", // Monday midnight
		},
		Models: []models.ModelPricing{
			{Model: "claude-haiku-4-5", InputCostPer1K: 0.80, OutputCostPer1K: 4.00},
			{Model: "claude-sonnet-4-5", InputCostPer1K: 3.00, OutputCostPer1K: 15.00, SearchCostPerQuery: 10.0},
			{Model: "claude-opus-4-5", InputCostPer1K: 15.00, OutputCostPer1K: 75.00},
		},
		Tiers: TierTable{
			Simple: TierConfig{
				Keywords:  []string{"typo", "readme", "rename", "comment", "format", "docs", "whitespace", "link"},
				MaxLength: 400,
				MinScore:  0,
				Model:     "claude-haiku-4-5",
			},
			Moderate: TierConfig{
				Keywords:  []string{"bug", "fix", "test", "endpoint", "validation", "refactor", "update", "error"},
				MaxLength: 2000,
				MinScore:  40,
				Model:     "claude-sonnet-4-5",
			},
			Complex: TierConfig{
				Keywords:  []string{"architecture", "optimize", "performance", "migration", "concurrency", "integration", "algorithm", "database"},
				MaxLength: 6000,
				MinScore:  60,
				Model:     "claude-opus-4-5",
			},
			Expert: TierConfig{
				Keywords:  []string{"design", "distributed", "scalable", "exactly-once", "consensus", "pipeline", "guarantee", "security"},
				MaxLength: 12000,
				MinScore:  80,
				Model:     "claude-opus-4-5",
			},
		},
	}
}

// Load reads a YAML config file, expands environment variables, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate cross-checks the tier table against the pricing table and
// normalizes keywords to lowercase. Every model a tier recommends must be
// priced, otherwise the estimator could never cost a classified request.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("config: no models configured")
	}
	priced := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.Model == "" {
			return fmt.Errorf("config: model entry with empty id")
		}
		priced[m.Model] = true
	}

	for _, tier := range models.Tiers {
		tc := c.Tiers.For(tier)
		if tc.Model == "" {
			return fmt.Errorf("config: tier %s has no model", tier)
		}
		if !priced[tc.Model] {
			return fmt.Errorf("config: tier %s references unpriced model %q", tier, tc.Model)
		}
	}

	if c.Budget.WarnThreshold <= 0 || c.Budget.WarnThreshold > 1 {
		return fmt.Errorf("config: warn_threshold must be in (0, 1], got %v", c.Budget.WarnThreshold)
	}
	if c.Budget.WeeklyUsd < 0 {
		return fmt.Errorf("config: weekly_usd must not be negative")
	}
	if c.Cache.MaxAge <= 0 {
		c.Cache.MaxAge = 7 * 24 * time.Hour
	}

	c.Tiers.Simple.Keywords = lowerAll(c.Tiers.Simple.Keywords)
	c.Tiers.Moderate.Keywords = lowerAll(c.Tiers.Moderate.Keywords)
	c.Tiers.Complex.Keywords = lowerAll(c.Tiers.Complex.Keywords)
	c.Tiers.Expert.Keywords = lowerAll(c.Tiers.Expert.Keywords)

	return nil
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}
