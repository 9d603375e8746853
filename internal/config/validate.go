package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Scraper.Concurrency < 1 {
		return fmt.Errorf("scraper.concurrency must be >= 1, got %d", cfg.Scraper.Concurrency)
	}
	if cfg.Scraper.Concurrency > 100 {
		return fmt.Errorf("scraper.concurrency must be <= 100, got %d", cfg.Scraper.Concurrency)
	}
	if cfg.Scraper.MaxRetries < 0 {
		return fmt.Errorf("scraper.max_retries must be >= 0, got %d", cfg.Scraper.MaxRetries)
	}
	if cfg.Scraper.RequestTimeout <= 0 {
		return fmt.Errorf("scraper.request_timeout must be > 0")
	}
	if cfg.Scraper.BackoffBase <= 0 {
		return fmt.Errorf("scraper.backoff_base must be > 0")
	}
	if cfg.Scraper.RequestsPerSecond <= 0 {
		return fmt.Errorf("scraper.requests_per_second must be > 0")
	}
	if cfg.Scraper.MaxBodySize <= 0 {
		return fmt.Errorf("scraper.max_body_size must be > 0")
	}

	if cfg.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must not be empty")
	}

	if cfg.Store.Type != "mongo" && cfg.Store.Type != "memory" {
		return fmt.Errorf("store.type must be 'mongo' or 'memory', got %q", cfg.Store.Type)
	}
	if cfg.Store.Type == "mongo" && cfg.Store.URI == "" {
		return fmt.Errorf("store.uri must not be empty for mongo store")
	}

	if cfg.Enrichment.APIKey != "" && !strings.HasPrefix(cfg.Enrichment.BaseURL, "http") {
		return fmt.Errorf("enrichment.base_url must be an http(s) URL, got %q", cfg.Enrichment.BaseURL)
	}

	return nil
}

// ValidateURL checks that a raw URL is usable as a crawl target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}
