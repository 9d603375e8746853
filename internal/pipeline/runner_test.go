package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastlens/roastlens/internal/cache"
	"github.com/roastlens/roastlens/internal/config"
	"github.com/roastlens/roastlens/internal/enrich"
	"github.com/roastlens/roastlens/internal/fetcher"
	"github.com/roastlens/roastlens/internal/platform"
	"github.com/roastlens/roastlens/internal/store"
	"github.com/roastlens/roastlens/internal/sync"
	"github.com/roastlens/roastlens/internal/types"
)

const shopifyProductPage = `<!DOCTYPE html>
<html>
<head>
<meta name="description" content="Specialty coffee roasted to order.">
<script src="https://cdn.shopify.com/s/files/theme.js"></script>
<script type="application/ld+json">
{
  "@type": "Product",
  "name": "Monsoon Malabar",
  "description": "Monsooned arabica from the Malabar coast. Notes of chocolate and spice. Medium roast.",
  "image": "https://cdn.shopify.com/s/files/malabar.jpg"
}
</script>
</head>
<body>
<div data-shopify></div>
<p>Founded in 2015, we roast single origin arabica coffee every week.</p>
</body>
</html>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRunner builds a Runner over an in-memory store, a temp-dir cache
// and a disabled enrichment client.
func testRunner(t *testing.T, st store.Store, raw RawExtractor) (*Runner, *config.Config) {
	t.Helper()
	logger := testLogger()

	cfg := config.DefaultConfig()
	cfg.Cache.Dir = t.TempDir()
	cfg.Scraper.MaxRetries = 1
	cfg.Scraper.RequestsPerSecond = 1000

	ch, err := cache.New(&cfg.Cache, logger)
	require.NoError(t, err)

	return New(
		cfg,
		fetcher.New(&cfg.Scraper, logger),
		ch,
		platform.NewClassifier(logger),
		enrich.NewClient(cfg.Enrichment, logger),
		sync.New(st, logger),
		raw,
		logger,
	), cfg
}

func TestDetectPlatform(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, shopifyProductPage)
	}))
	defer srv.Close()

	r, _ := testRunner(t, store.NewMemoryStore(), nil)
	plat, conf, err := r.DetectPlatform(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, platform.Shopify, plat)
	assert.GreaterOrEqual(t, conf, 40)
}

func TestProcessSiteEndToEnd(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, shopifyProductPage)
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	r, _ := testRunner(t, st, nil)

	res, err := r.ProcessSite(context.Background(), types.Site{Name: "Malabar Roasters", BaseURL: srv.URL})
	require.NoError(t, err)
	require.NotEmpty(t, res.MerchantID)
	require.Len(t, res.Products, 1)
	assert.Empty(t, res.ProductErrors)

	// Page cache means the homepage was fetched once, not once per stage.
	assert.Equal(t, 1, calls)

	cand := res.Products[0]
	assert.Equal(t, "Monsoon Malabar", cand.Name)
	assert.Equal(t, "monsooned", cand.ProcessingMethod)
	assert.Equal(t, "medium", cand.RoastLevel)
	assert.Contains(t, cand.FlavorProfiles, "chocolate")
	assert.Equal(t, res.MerchantID, cand.MerchantID)

	ctx := context.Background()
	merchant, err := st.Get(ctx, store.Merchants, res.MerchantID)
	require.NoError(t, err)
	assert.Equal(t, "Malabar Roasters", merchant["name"])
	assert.Equal(t, platform.Shopify, merchant["platform"])
	assert.Equal(t, 2015, merchant["founded_year"])

	products, err := st.ListByField(ctx, store.Products, "merchant_id", res.MerchantID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "monsoon-malabar", products[0]["slug"])
}

func TestProcessSiteRerunUpdatesInsteadOfDuplicating(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, shopifyProductPage)
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	r, _ := testRunner(t, st, nil)
	ctx := context.Background()
	site := types.Site{Name: "Malabar Roasters", BaseURL: srv.URL}

	first, err := r.ProcessSite(ctx, site)
	require.NoError(t, err)

	second, err := r.ProcessSite(ctx, site)
	require.NoError(t, err)
	assert.Equal(t, first.MerchantID, second.MerchantID)

	merchants, err := st.ListByField(ctx, store.Merchants, "slug", "malabar-roasters")
	require.NoError(t, err)
	assert.Len(t, merchants, 1)

	products, err := st.ListByField(ctx, store.Products, "merchant_id", first.MerchantID)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestProcessMerchantCachesRecordWithID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, shopifyProductPage)
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	r, cfg := testRunner(t, st, nil)
	ctx := context.Background()

	site := types.Site{Name: "Malabar Roasters", BaseURL: srv.URL}
	first, err := r.ProcessMerchant(ctx, &site)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// A cache hit must replay the record with its store id so the
	// upsert goes straight to an update.
	ch, err := cache.New(&cfg.Cache, testLogger())
	require.NoError(t, err)
	cached := &types.MerchantRecord{}
	key := cache.MerchantKey(site.Name, site.BaseURL)
	require.True(t, ch.GetJSON(cache.Merchants, key, cfg.Cache.MerchantTTLDays, cache.StabilityUnknown, cached))
	assert.Equal(t, first.ID, cached.ID)
}

func TestProcessSiteContainsProductFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, shopifyProductPage)
	}))
	defer srv.Close()

	raw := func(_ context.Context, site *types.Site, _ []byte) ([]*types.RawProduct, error) {
		return []*types.RawProduct{
			{Name: "Good Coffee", SourceURL: site.BaseURL + "/good"},
			{Name: "", SourceURL: site.BaseURL + "/bad"}, // empty name fails the upsert
		}, nil
	}

	r, _ := testRunner(t, store.NewMemoryStore(), raw)
	res, err := r.ProcessSite(context.Background(), types.Site{Name: "Flaky Roasters", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.Len(t, res.Products, 1)
	require.Len(t, res.ProductErrors, 1)
	assert.Equal(t, srv.URL+"/bad", res.ProductErrors[0].URL)
}

func TestProcessBatchPartialSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/gone") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, shopifyProductPage)
	}))
	defer srv.Close()

	r, _ := testRunner(t, store.NewMemoryStore(), nil)
	results, failed := r.ProcessBatch(context.Background(), []types.Site{
		{Name: "Alive Roasters", BaseURL: srv.URL},
		{Name: "Gone Roasters", BaseURL: srv.URL + "/gone"},
	})

	require.Len(t, results, 1)
	require.Len(t, failed, 1)
	assert.Equal(t, "Gone Roasters", failed[0].Name)
	assert.Error(t, failed[0].Err)
}

func TestParseSites(t *testing.T) {
	input := `name,url
Alive Roasters, https://alive.example
Second Roasters, https://second.example

Third Roasters, https://third.example
`
	sites, err := parseSites(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Len(t, sites, 3)
	assert.Equal(t, "Alive Roasters", sites[0].Name)
	assert.Equal(t, "https://alive.example", sites[0].BaseURL)

	limited, err := parseSites(strings.NewReader(input), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
