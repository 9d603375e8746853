// Package cache provides a file-backed cache for raw pages, merchant
// records, and per-merchant product lists. Freshness is driven by file
// mtime against a TTL, optionally overridden by a field stability
// class; stale entries are treated as misses, never deleted eagerly.
//
// Storage errors are logged and degrade to a miss or a no-op. The cache
// must never abort the pipeline.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/roastlens/roastlens/internal/config"
)

// Namespace identifies one of the disjoint cache stores.
type Namespace string

const (
	Pages     Namespace = "pages"
	Merchants Namespace = "merchants"
	Products  Namespace = "products"
)

var namespaces = []Namespace{Pages, Merchants, Products}

// Cache is safe for concurrent use across workers. Concurrent writes to
// the same key are last-writer-wins; entries are derived data, not
// source of truth.
type Cache struct {
	root   string
	cfg    *config.CacheConfig
	logger *slog.Logger
}

func New(cfg *config.CacheConfig, logger *slog.Logger) (*Cache, error) {
	c := &Cache{
		root:   cfg.Dir,
		cfg:    cfg,
		logger: logger.With("component", "cache"),
	}
	for _, ns := range namespaces {
		if err := os.MkdirAll(filepath.Join(cfg.Dir, string(ns)), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir %s: %w", ns, err)
		}
	}
	return c, nil
}

var wwwPrefix = regexp.MustCompile(`^www\.`)

// NormalizeURL collapses scheme variance, a leading "www.", and
// trailing slashes so equivalent URLs produce the same cache key.
// It is idempotent.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(strings.TrimRight(raw, "/"))
	}
	host := wwwPrefix.ReplaceAllString(strings.ToLower(u.Host), "")
	out := "https://" + host
	if path := strings.TrimRight(u.Path, "/"); path != "" {
		out += path
	}
	return out
}

// PageKey hashes a normalized URL into a cache key.
func PageKey(rawURL string) string {
	sum := sha256.Sum256([]byte(NormalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

// MerchantKey combines name and URL so renames or domain moves get a
// fresh entry.
func MerchantKey(name, rawURL string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(name) + "_" + NormalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(ns Namespace, key string) string {
	ext := ".json"
	if ns == Pages {
		ext = ".html"
	}
	return filepath.Join(c.root, string(ns), key+ext)
}

// Get returns the cached payload for a key if it is fresher than
// maxAgeDays. A non-empty stability class overrides maxAgeDays via the
// stability TTL mapping. Stale or unreadable entries are a miss.
func (c *Cache) Get(ns Namespace, key string, maxAgeDays int, class StabilityClass) ([]byte, bool) {
	path := c.path(ns, key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if class != StabilityUnknown {
		maxAgeDays = class.TTLDays(maxAgeDays)
	}
	age := time.Since(info.ModTime())
	if age > time.Duration(maxAgeDays)*24*time.Hour {
		c.logger.Debug("cache entry stale",
			"namespace", ns, "key", key,
			"age_days", int(age.Hours()/24), "max_age_days", maxAgeDays)
		return nil, false
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("cache read failed", "namespace", ns, "key", key, "error", err)
		return nil, false
	}
	return payload, true
}

// Put stores a payload under a key. Empty payloads are not cached.
func (c *Cache) Put(ns Namespace, key string, payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	if err := os.WriteFile(c.path(ns, key), payload, 0o644); err != nil {
		c.logger.Warn("cache write failed", "namespace", ns, "key", key, "error", err)
		return false
	}
	return true
}

// GetJSON decodes a cached JSON entry into v.
func (c *Cache) GetJSON(ns Namespace, key string, maxAgeDays int, class StabilityClass, v any) bool {
	payload, ok := c.Get(ns, key, maxAgeDays, class)
	if !ok {
		return false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		c.logger.Warn("cache entry corrupt", "namespace", ns, "key", key, "error", err)
		return false
	}
	return true
}

// PutJSON encodes v and stores it under a key.
func (c *Cache) PutJSON(ns Namespace, key string, v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", "namespace", ns, "key", key, "error", err)
		return false
	}
	return c.Put(ns, key, payload)
}

// Clear removes cache entries and returns the number of files removed.
// An empty namespace clears all namespaces; an empty key clears the
// whole namespace.
func (c *Cache) Clear(ns Namespace, key string) int {
	targets := namespaces
	if ns != "" {
		targets = []Namespace{ns}
	}

	removed := 0
	for _, t := range targets {
		if key != "" {
			if err := os.Remove(c.path(t, key)); err == nil {
				removed++
			}
			continue
		}
		entries, err := os.ReadDir(filepath.Join(c.root, string(t)))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if err := os.Remove(filepath.Join(c.root, string(t), e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed
}
