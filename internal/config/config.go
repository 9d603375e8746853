package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for roastlens.
type Config struct {
	Scraper    ScraperConfig    `mapstructure:"scraper"    yaml:"scraper"`
	Cache      CacheConfig      `mapstructure:"cache"      yaml:"cache"`
	Store      StoreConfig      `mapstructure:"store"      yaml:"store"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment" yaml:"enrichment"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// ScraperConfig controls fetching and batch processing.
type ScraperConfig struct {
	Concurrency       int           `mapstructure:"concurrency"         yaml:"concurrency"`
	MaxRetries        int           `mapstructure:"max_retries"         yaml:"max_retries"`
	BackoffBase       time.Duration `mapstructure:"backoff_base"        yaml:"backoff_base"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"     yaml:"request_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent"          yaml:"user_agent"`
	MaxBodySize       int64         `mapstructure:"max_body_size"       yaml:"max_body_size"`
}

// CacheConfig controls the file cache.
type CacheConfig struct {
	Dir             string `mapstructure:"dir"               yaml:"dir"`
	PageTTLDays     int    `mapstructure:"page_ttl_days"     yaml:"page_ttl_days"`
	MerchantTTLDays int    `mapstructure:"merchant_ttl_days" yaml:"merchant_ttl_days"`
	ProductTTLDays  int    `mapstructure:"product_ttl_days"  yaml:"product_ttl_days"`
}

// StoreConfig controls the persistent record store.
type StoreConfig struct {
	Type     string `mapstructure:"type"     yaml:"type"` // mongo or memory
	URI      string `mapstructure:"uri"      yaml:"uri"`
	Database string `mapstructure:"database" yaml:"database"`
}

// EnrichmentConfig controls LLM enrichment. Enrichment is a no-op
// when APIKey is empty.
type EnrichmentConfig struct {
	APIKey  string `mapstructure:"api_key"  yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Model   string `mapstructure:"model"    yaml:"model"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Concurrency:       4,
			MaxRetries:        3,
			BackoffBase:       1 * time.Second,
			RequestTimeout:    30 * time.Second,
			RequestsPerSecond: 2,
			UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MaxBodySize:       10 * 1024 * 1024, // 10MB
		},
		Cache: CacheConfig{
			Dir:             "./cache",
			PageTTLDays:     7,
			MerchantTTLDays: 30,
			ProductTTLDays:  7,
		},
		Store: StoreConfig{
			Type:     "mongo",
			URI:      "mongodb://localhost:27017",
			Database: "roastlens",
		},
		Enrichment: EnrichmentConfig{
			BaseURL: "https://api.deepseek.com",
			Model:   "deepseek-chat",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
