// Package platform classifies a site's commerce platform from weighted
// HTML signals. Five signature scanners run over the same document and
// the highest-scoring one wins; weak evidence reports "unknown".
package platform

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/roastlens/roastlens/internal/cache"
)

// Platform names as persisted on merchant records.
const (
	Shopify     = "shopify"
	WooCommerce = "woocommerce"
	Magento     = "magento"
	WordPress   = "wordpress"
	Webflow     = "webflow"
	Unknown     = "unknown"
)

// Threshold below which the best score is not trusted.
const minConfidence = 40

type result struct {
	platform   string
	confidence int
}

// Classifier scores homepages against platform signatures. Results are
// cached per normalized URL for the lifetime of one crawl run.
type Classifier struct {
	mu     sync.Mutex
	seen   map[string]result
	logger *slog.Logger
}

func NewClassifier(logger *slog.Logger) *Classifier {
	return &Classifier{
		seen:   make(map[string]result),
		logger: logger.With("component", "platform"),
	}
}

type scanner func(html, pageURL string, doc *goquery.Document) int

// Declaration order breaks ties; signatures are near-disjoint in
// practice so order rarely matters.
var scanners = []struct {
	platform string
	scan     scanner
}{
	{Shopify, scanShopify},
	{WooCommerce, scanWooCommerce},
	{Magento, scanMagento},
	{WordPress, scanWordPress},
	{Webflow, scanWebflow},
}

// Classify scores the HTML of pageURL against every platform signature
// and returns the best match with a 0-100 confidence. Parse failures
// yield (unknown, 0), never an error.
func (c *Classifier) Classify(html []byte, pageURL string) (string, int) {
	key := cache.NormalizeURL(pageURL)

	c.mu.Lock()
	if r, ok := c.seen[key]; ok {
		c.mu.Unlock()
		return r.platform, r.confidence
	}
	c.mu.Unlock()

	platform, confidence := classify(html, pageURL)
	if platform == Unknown && confidence == 0 {
		c.logger.Debug("platform classification failed", "url", pageURL)
	} else {
		c.logger.Info("platform detected",
			"url", pageURL, "platform", platform, "confidence", confidence)
	}

	c.mu.Lock()
	c.seen[key] = result{platform, confidence}
	c.mu.Unlock()
	return platform, confidence
}

func classify(html []byte, pageURL string) (string, int) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Unknown, 0
	}
	raw := string(html)

	best, bestScore := Unknown, 0
	for _, s := range scanners {
		score := s.scan(raw, pageURL, doc)
		if score > 100 {
			score = 100
		}
		if score > bestScore {
			best, bestScore = s.platform, score
		}
	}
	if bestScore < minConfidence {
		return Unknown, bestScore
	}
	return best, bestScore
}

func scanShopify(html, pageURL string, doc *goquery.Document) int {
	score := 0
	if doc.Find(`script[src*="cdn.shopify.com"]`).Length() > 0 {
		score += 40
	}
	if doc.Find(`[data-shopify]`).Length() > 0 {
		score += 30
	}
	// The CDN path is a URL signal, not a markup one.
	if strings.Contains(pageURL, "/cdn/shop/") {
		score += 10
	}
	if strings.Contains(html, "Shopify.theme") {
		score += 20
	}
	return score
}

func scanWooCommerce(html, _ string, doc *goquery.Document) int {
	score := 0
	if body, ok := doc.Find("body").Attr("class"); ok && strings.Contains(body, "woocommerce") {
		score += 40
	}
	if doc.Find(`link[href*="woocommerce"]`).Length() > 0 {
		score += 20
	}
	if strings.Contains(strings.ToLower(html), "woocommerce") {
		score += 20
	}
	if doc.Find(`.woocommerce, [class*="woocommerce"]`).Length() > 0 {
		score += 20
	}
	return score
}

func scanMagento(html, _ string, doc *goquery.Document) int {
	score := 0
	if generatorContains(doc, "Magento") {
		score += 60
	}
	if strings.Contains(html, "/pub/static/frontend/") {
		score += 30
	}
	if doc.Find(`script[type="text/x-magento-init"]`).Length() > 0 {
		score += 30
	}
	if doc.Find(`[data-mage-init]`).Length() > 0 {
		score += 20
	}
	if strings.Contains(html, "var require = {") &&
		strings.Contains(html, "baseUrl") &&
		strings.Contains(html, "/pub/static/frontend/") {
		score += 20
	}
	if strings.Contains(html, "mage-") {
		score += 10
	}
	return score
}

func scanWordPress(html, _ string, doc *goquery.Document) int {
	score := 0
	if generatorContains(doc, "WordPress") {
		score += 40
	}
	if strings.Contains(html, "/wp-content/") || strings.Contains(html, "/wp-includes/") {
		score += 30
	}
	return score
}

func scanWebflow(html, _ string, doc *goquery.Document) int {
	score := 0
	if generatorContains(doc, "Webflow") {
		score += 60
	}
	if strings.Contains(html, "Webflow.require") {
		score += 30
	}
	return score
}

func generatorContains(doc *goquery.Document, token string) bool {
	found := false
	doc.Find(`meta[name="generator"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if content, ok := s.Attr("content"); ok && strings.Contains(content, token) {
			found = true
			return false
		}
		return true
	})
	return found
}
