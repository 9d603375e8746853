package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("ROASTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("roastlens")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".roastlens"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("scraper.concurrency", cfg.Scraper.Concurrency)
	v.SetDefault("scraper.max_retries", cfg.Scraper.MaxRetries)
	v.SetDefault("scraper.backoff_base", cfg.Scraper.BackoffBase)
	v.SetDefault("scraper.request_timeout", cfg.Scraper.RequestTimeout)
	v.SetDefault("scraper.requests_per_second", cfg.Scraper.RequestsPerSecond)
	v.SetDefault("scraper.user_agent", cfg.Scraper.UserAgent)
	v.SetDefault("scraper.max_body_size", cfg.Scraper.MaxBodySize)

	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.page_ttl_days", cfg.Cache.PageTTLDays)
	v.SetDefault("cache.merchant_ttl_days", cfg.Cache.MerchantTTLDays)
	v.SetDefault("cache.product_ttl_days", cfg.Cache.ProductTTLDays)

	v.SetDefault("store.type", cfg.Store.Type)
	v.SetDefault("store.uri", cfg.Store.URI)
	v.SetDefault("store.database", cfg.Store.Database)

	// An explicit empty default so ROASTLENS_ENRICHMENT_API_KEY binds.
	v.SetDefault("enrichment.api_key", cfg.Enrichment.APIKey)
	v.SetDefault("enrichment.base_url", cfg.Enrichment.BaseURL)
	v.SetDefault("enrichment.model", cfg.Enrichment.Model)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
