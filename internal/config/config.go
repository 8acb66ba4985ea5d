// Package config loads and validates scout configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs for one scout run.
type Config struct {
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Scout    ScoutConfig    `mapstructure:"scout"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// OpenAIConfig holds the ranking service credential and model selection.
// An empty APIKey selects the deterministic fallback ranking strategy.
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// TelegramConfig holds digest delivery credentials. Both BotToken and ChatID
// must be set for delivery; otherwise the digest step is skipped.
type TelegramConfig struct {
	BotToken       string `mapstructure:"bot_token"`
	ChatID         string `mapstructure:"chat_id"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ScoutConfig controls digest size, labeling, and output location.
type ScoutConfig struct {
	ProductCount int    `mapstructure:"product_count"`
	SessionLabel string `mapstructure:"session_label"`
	OutputDir    string `mapstructure:"output_dir"`
}

// ScrapeConfig governs marketplace fetch and extraction behavior.
type ScrapeConfig struct {
	TimeoutSeconds      int                 `mapstructure:"timeout_seconds"`
	AlibabaMaxItems     int                 `mapstructure:"alibaba_max_items"`
	DHgateMaxItems      int                 `mapstructure:"dhgate_max_items"`
	KeywordsPerCategory int                 `mapstructure:"keywords_per_category"`
	JitterMinMs         int                 `mapstructure:"jitter_min_ms"`
	JitterMaxMs         int                 `mapstructure:"jitter_max_ms"`
	Categories          map[string][]string `mapstructure:"categories"`
}

// MetricsConfig enables the debug metrics listener when Port > 0.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "https://api.openai.com")
	v.SetDefault("openai.timeout_seconds", 60)
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.timeout_seconds", 15)
	v.SetDefault("scout.product_count", 5)
	v.SetDefault("scout.output_dir", "output")
	v.SetDefault("scrape.timeout_seconds", 20)
	v.SetDefault("scrape.alibaba_max_items", 8)
	v.SetDefault("scrape.dhgate_max_items", 5)
	v.SetDefault("scrape.keywords_per_category", 2)
	v.SetDefault("scrape.jitter_min_ms", 500)
	v.SetDefault("scrape.jitter_max_ms", 1500)
	v.SetDefault("scrape.categories", defaultCategories())
	v.SetDefault("metrics.port", 0)
	v.SetDefault("logging.development", true)
}

func defaultCategories() map[string][]string {
	return map[string][]string{
		"lamps":      {"led lamp", "desk lamp", "night light", "smart lamp", "table lamp", "moon lamp"},
		"telescopes": {"telescope", "astronomical telescope", "monocular telescope", "spotting scope"},
		"binoculars": {"binoculars", "night vision binoculars", "compact binoculars", "hunting binoculars"},
		"kids_toys":  {"kids toys", "educational toys", "rc car toy", "building blocks", "plush toy trending"},
		"electronics": {
			"wireless earbuds", "smart watch", "phone accessories", "portable charger", "led strip",
		},
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scout.ProductCount <= 0 {
		return fmt.Errorf("scout.product_count must be > 0")
	}
	if c.Scout.OutputDir == "" {
		return fmt.Errorf("scout.output_dir must be set")
	}
	if c.Scrape.TimeoutSeconds <= 0 {
		return fmt.Errorf("scrape.timeout_seconds must be > 0")
	}
	if c.Scrape.KeywordsPerCategory <= 0 {
		return fmt.Errorf("scrape.keywords_per_category must be > 0")
	}
	if c.Scrape.JitterMinMs < 0 || c.Scrape.JitterMaxMs < c.Scrape.JitterMinMs {
		return fmt.Errorf("scrape jitter bounds must satisfy 0 <= min <= max")
	}
	if len(c.Scrape.Categories) == 0 {
		return fmt.Errorf("scrape.categories must not be empty")
	}
	return nil
}

// ScrapeTimeout converts the configured per-request ceiling into a duration.
func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

// OpenAITimeout bounds a single ranking-service call.
func (c Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAI.TimeoutSeconds) * time.Second
}

// TelegramTimeout bounds a single message-send call.
func (c Config) TelegramTimeout() time.Duration {
	return time.Duration(c.Telegram.TimeoutSeconds) * time.Second
}

// JitterBounds returns the inter-submission delay range.
func (c Config) JitterBounds() (time.Duration, time.Duration) {
	return time.Duration(c.Scrape.JitterMinMs) * time.Millisecond,
		time.Duration(c.Scrape.JitterMaxMs) * time.Millisecond
}
