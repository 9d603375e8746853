package platform

import (
	"io"
	"log/slog"
	"testing"
)

func testClassifier() *Classifier {
	return NewClassifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const shopifyHTML = `<!DOCTYPE html>
<html>
<head>
<script src="https://cdn.shopify.com/s/files/theme.js"></script>
<script>Shopify.theme = {"name":"Dawn"};</script>
</head>
<body data-shopify="true">
<img src="/cdn/shop/products/beans.jpg">
</body>
</html>`

const wooHTML = `<!DOCTYPE html>
<html>
<head>
<link rel="stylesheet" href="/wp-content/plugins/woocommerce/assets/css/woocommerce.css">
</head>
<body class="home woocommerce woocommerce-page">
<div class="woocommerce-product-gallery"></div>
</body>
</html>`

const magentoHTML = `<!DOCTYPE html>
<html>
<head>
<meta name="generator" content="Magento 2.4">
<script>var require = {"baseUrl": "https://shop.example/pub/static/frontend/Theme/en_US"};</script>
</head>
<body>
<script type="text/x-magento-init">{"*": {}}</script>
<div data-mage-init='{"slider":{}}'></div>
</body>
</html>`

const wordpressHTML = `<!DOCTYPE html>
<html>
<head>
<meta name="generator" content="WordPress 6.4">
<link rel="stylesheet" href="/wp-content/themes/storefront/style.css">
</head>
<body></body>
</html>`

const webflowHTML = `<!DOCTYPE html>
<html>
<head>
<meta name="generator" content="Webflow">
<script>Webflow.require('ix2').init();</script>
</head>
<body></body>
</html>`

func TestClassifyKnownPlatforms(t *testing.T) {
	cases := []struct {
		name     string
		html     string
		platform string
		minConf  int
	}{
		{"shopify", shopifyHTML, Shopify, 90},
		{"woocommerce", wooHTML, WooCommerce, 100},
		{"magento", magentoHTML, Magento, 100},
		{"wordpress", wordpressHTML, WordPress, 70},
		{"webflow", webflowHTML, Webflow, 90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testClassifier()
			platform, conf := c.Classify([]byte(tc.html), "https://"+tc.name+".example")
			if platform != tc.platform {
				t.Errorf("platform = %s, want %s", platform, tc.platform)
			}
			if conf < tc.minConf {
				t.Errorf("confidence = %d, want >= %d", conf, tc.minConf)
			}
			if conf > 100 {
				t.Errorf("confidence = %d, exceeds cap", conf)
			}
		})
	}
}

func TestClassifyShopifyCDNPathInURL(t *testing.T) {
	// The /cdn/shop/ signal reads the page URL, not the markup.
	html := `<html><head><script src="https://cdn.shopify.com/s/files/theme.js"></script></head><body></body></html>`

	c := testClassifier()
	platform, conf := c.Classify([]byte(html), "https://roaster.example/cdn/shop/products/beans")
	if platform != Shopify {
		t.Errorf("platform = %s, want shopify", platform)
	}
	if conf != 50 {
		t.Errorf("confidence = %d, want 50", conf)
	}

	// The same path appearing only in the HTML does not score.
	c2 := testClassifier()
	_, conf2 := c2.Classify([]byte(html+`<img src="/cdn/shop/products/beans.jpg">`), "https://roaster.example")
	if conf2 != 40 {
		t.Errorf("confidence = %d, want 40", conf2)
	}
}

func TestClassifyWeakSignalsReportUnknown(t *testing.T) {
	// A single 30-point WordPress path signal stays under the threshold.
	html := `<html><body><a href="/wp-content/uploads/logo.png">logo</a></body></html>`
	c := testClassifier()
	platform, conf := c.Classify([]byte(html), "https://weak.example")
	if platform != Unknown {
		t.Errorf("platform = %s, want unknown", platform)
	}
	if conf != 30 {
		t.Errorf("confidence = %d, want 30", conf)
	}
}

func TestClassifyPlainHTML(t *testing.T) {
	c := testClassifier()
	platform, conf := c.Classify([]byte("<html><body>hand-rolled site</body></html>"), "https://plain.example")
	if platform != Unknown || conf != 0 {
		t.Errorf("got (%s, %d), want (unknown, 0)", platform, conf)
	}
}

func TestClassifyCachesPerNormalizedURL(t *testing.T) {
	c := testClassifier()
	first, _ := c.Classify([]byte(shopifyHTML), "http://www.cachetest.example/")
	// Same site under URL variants must hit the cached result even with
	// different HTML.
	second, _ := c.Classify([]byte("<html></html>"), "https://cachetest.example")
	if first != second {
		t.Errorf("cache miss across equivalent URLs: %s vs %s", first, second)
	}
}
