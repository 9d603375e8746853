// Package pipeline orchestrates a crawl run: cached fetch, platform
// classification, attribute and price extraction, optional enrichment,
// and the final upsert. Failures are contained at the smallest unit
// that makes sense: one product, or one site. A batch always reports
// successes and failures side by side.
package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	gosync "sync"

	"golang.org/x/sync/semaphore"

	"github.com/roastlens/roastlens/internal/cache"
	"github.com/roastlens/roastlens/internal/config"
	"github.com/roastlens/roastlens/internal/enrich"
	"github.com/roastlens/roastlens/internal/extract"
	"github.com/roastlens/roastlens/internal/fetcher"
	"github.com/roastlens/roastlens/internal/platform"
	"github.com/roastlens/roastlens/internal/price"
	"github.com/roastlens/roastlens/internal/sync"
	"github.com/roastlens/roastlens/internal/types"
)

// RawExtractor turns a fetched page into loosely-typed product records.
// Platform-specific walkers (Shopify, WooCommerce product APIs) plug in
// here; the pipeline itself stays platform-agnostic.
type RawExtractor func(ctx context.Context, site *types.Site, page []byte) ([]*types.RawProduct, error)

// HintExtractor is the built-in RawExtractor: it harvests the page's
// structured hints (JSON-LD, meta tags) into a single product record.
// Pages without a recognizable product yield nothing.
func HintExtractor(_ context.Context, site *types.Site, page []byte) ([]*types.RawProduct, error) {
	hints := extract.ParseStructuredHints(page)
	name, _ := hints["name"].(string)
	if name == "" {
		return nil, nil
	}
	raw := &types.RawProduct{
		Name:            name,
		StructuredHints: hints,
		SourceURL:       site.BaseURL,
	}
	raw.Description, _ = hints["description"].(string)
	raw.ImageURL, _ = hints["image"].(string)
	return []*types.RawProduct{raw}, nil
}

// ItemError records one failed item of a batch alongside its identity,
// so partial success stays inspectable.
type ItemError struct {
	Name string
	URL  string
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Name, e.URL, e.Err)
}

// Result is the outcome of processing one site.
type Result struct {
	Site       types.Site
	MerchantID string
	Products   []*types.ProductCandidate
	Enriched   int

	// ProductErrors holds per-product failures that did not stop the
	// rest of the site from processing.
	ProductErrors []ItemError
}

// Runner wires the crawl stages together.
type Runner struct {
	cfg        *config.Config
	fetcher    *fetcher.Fetcher
	cache      *cache.Cache
	classifier *platform.Classifier
	enricher   *enrich.Client
	syncer     *sync.Engine
	extractRaw RawExtractor
	logger     *slog.Logger
}

// New creates a Runner. A nil RawExtractor falls back to HintExtractor.
func New(
	cfg *config.Config,
	f *fetcher.Fetcher,
	ch *cache.Cache,
	cl *platform.Classifier,
	en *enrich.Client,
	sy *sync.Engine,
	raw RawExtractor,
	logger *slog.Logger,
) *Runner {
	if raw == nil {
		raw = HintExtractor
	}
	return &Runner{
		cfg:        cfg,
		fetcher:    f,
		cache:      ch,
		classifier: cl,
		enricher:   en,
		syncer:     sy,
		extractRaw: raw,
		logger:     logger.With("component", "pipeline"),
	}
}

// fetchPage returns a page body, through the page cache.
func (r *Runner) fetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	key := cache.PageKey(rawURL)
	if page, ok := r.cache.Get(cache.Pages, key, r.cfg.Cache.PageTTLDays, cache.StabilityUnknown); ok {
		return page, nil
	}

	page, _, err := r.fetcher.Fetch(ctx, rawURL, &fetcher.Options{RateLimit: true})
	if err != nil {
		return nil, err
	}
	r.cache.Put(cache.Pages, key, page)
	return page, nil
}

// DetectPlatform classifies the platform serving a URL.
func (r *Runner) DetectPlatform(ctx context.Context, rawURL string) (string, int, error) {
	page, err := r.fetchPage(ctx, rawURL)
	if err != nil {
		return platform.Unknown, 0, err
	}
	plat, conf := r.classifier.Classify(page, rawURL)
	return plat, conf, nil
}

// ProcessMerchant scrapes and upserts the roaster entity for a site.
// The merchant record is cached under the merchants namespace so an
// unchanged site within its TTL skips re-extraction, not the upsert.
func (r *Runner) ProcessMerchant(ctx context.Context, site *types.Site) (*types.MerchantRecord, error) {
	key := cache.MerchantKey(site.Name, site.BaseURL)

	m := &types.MerchantRecord{}
	hit := r.cache.GetJSON(cache.Merchants, key, r.cfg.Cache.MerchantTTLDays, cache.StabilityUnknown, m)
	if !hit {
		page, err := r.fetchPage(ctx, site.BaseURL)
		if err != nil {
			return nil, err
		}

		plat, conf := r.classifier.Classify(page, site.BaseURL)
		site.DetectedPlatform = plat
		site.PlatformConfidence = conf

		m = &types.MerchantRecord{
			Name:       site.Name,
			Slug:       extract.Slugify(site.Name),
			WebsiteURL: cache.NormalizeURL(site.BaseURL),
			Platform:   plat,
			IsActive:   true,
		}
		extract.ExtractMerchant(page, m)
	}

	id, err := r.syncer.UpsertMerchant(ctx, m)
	if err != nil {
		return nil, err
	}
	m.ID = id
	if !hit {
		// Cached only after the upsert so a later cache hit replays the
		// record with its store id attached.
		r.cache.PutJSON(cache.Merchants, key, m)
	}
	return m, nil
}

// ProcessSite runs the full pipeline for one site. Product-level
// failures are collected on the result; only merchant-level failures
// fail the site.
func (r *Runner) ProcessSite(ctx context.Context, site types.Site) (*Result, error) {
	merchant, err := r.ProcessMerchant(ctx, &site)
	if err != nil {
		return nil, err
	}
	res := &Result{Site: site, MerchantID: merchant.ID}

	page, err := r.fetchPage(ctx, site.BaseURL)
	if err != nil {
		return nil, err
	}
	raws, err := r.extractRaw(ctx, &site, page)
	if err != nil {
		// No products is a degraded run, not a failed one.
		r.logger.Warn("raw product extraction failed", "site", site.Name, "error", err)
		return res, nil
	}

	for _, raw := range raws {
		cand, err := r.processProduct(ctx, merchant, raw)
		if err != nil {
			r.logger.Warn("product failed", "site", site.Name, "product", raw.Name, "error", err)
			res.ProductErrors = append(res.ProductErrors, ItemError{Name: raw.Name, URL: raw.SourceURL, Err: err})
			continue
		}
		res.Products = append(res.Products, cand)
		if cand.Enriched {
			res.Enriched++
		}
	}

	r.logger.Info("site processed",
		"site", site.Name,
		"platform", site.DetectedPlatform,
		"products", len(res.Products),
		"failed", len(res.ProductErrors))
	return res, nil
}

func (r *Runner) processProduct(ctx context.Context, merchant *types.MerchantRecord, raw *types.RawProduct) (*types.ProductCandidate, error) {
	if raw.Name == "" {
		return nil, fmt.Errorf("product without a name: %s", raw.SourceURL)
	}
	cand := types.NewProductCandidate(raw.Name, raw.SourceURL)
	cand.MerchantID = merchant.ID
	cand.Slug = extract.Slugify(raw.Name)
	cand.Description = raw.Description
	cand.ImageURL = raw.ImageURL
	cand.Tags = raw.Tags

	extract.EnrichCandidate(cand, raw)
	price.Reconcile(cand, raw.Variants)

	if err := r.enricher.Enhance(ctx, cand, merchant.Name); err != nil {
		// Enrichment is best effort; the deterministic result stands.
		r.logger.Warn("enrichment failed", "product", cand.Name, "error", err)
	}

	if _, err := r.syncer.UpsertProduct(ctx, cand); err != nil {
		return nil, err
	}
	return cand, nil
}

// ProcessBatch runs sites through a bounded worker pool and returns
// results plus a parallel error list. Partial success is the normal
// outcome.
func (r *Runner) ProcessBatch(ctx context.Context, sites []types.Site) ([]*Result, []ItemError) {
	workers := int64(r.cfg.Scraper.Concurrency)
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(workers)

	var (
		mu      gosync.Mutex
		results []*Result
		failed  []ItemError
		wg      gosync.WaitGroup
	)

	for _, site := range sites {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failed = append(failed, ItemError{Name: site.Name, URL: site.BaseURL, Err: err})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(site types.Site) {
			defer wg.Done()
			defer sem.Release(1)

			res, err := r.ProcessSite(ctx, site)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, ItemError{Name: site.Name, URL: site.BaseURL, Err: err})
				return
			}
			results = append(results, res)
		}(site)
	}

	wg.Wait()
	r.logger.Info("batch done", "succeeded", len(results), "failed", len(failed))
	return results, failed
}

// LoadSitesCSV reads crawl targets from a CSV file with name and url
// columns. A header row is detected by a "url" cell and skipped; limit
// caps the number of sites when positive.
func LoadSitesCSV(path string, limit int) ([]types.Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sites file: %w", err)
	}
	defer f.Close()
	return parseSites(f, limit)
}

func parseSites(r io.Reader, limit int) ([]types.Site, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var sites []types.Site
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse sites file: %w", err)
		}
		if len(record) < 2 {
			continue
		}
		name := strings.TrimSpace(record[0])
		url := strings.TrimSpace(record[1])
		if name == "" || url == "" || strings.EqualFold(url, "url") {
			continue
		}
		sites = append(sites, types.Site{Name: name, BaseURL: url})
		if limit > 0 && len(sites) >= limit {
			break
		}
	}
	return sites, nil
}
