package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastlens/roastlens/internal/types"
)

const roasterHomepage = `<!DOCTYPE html>
<html>
<head>
<meta name="description" content="Small-batch specialty coffee roasted in Bengaluru since 2013.">
<link rel="shortcut icon" href="/favicon.ico">
</head>
<body>
<header><img src="/assets/logo-dark.png" alt="Hillside Coffee"></header>
<p>Founded in 2013, we source single origin arabica beans from estates across
Chikmagalur and roast them in small batches every week. Subscribe to our monthly
delivery and never run out of fresh coffee again.</p>
<a href="mailto:hello@hillside.coffee">Write to us</a>
<a href="tel:+91 98450 12345">Call</a>
<a href="https://instagram.com/hillsidecoffee">Instagram</a>
<a href="https://facebook.com/hillsidecoffee">Facebook</a>
<iframe src="https://www.google.com/maps/embed?pb=abc"></iframe>
<footer>Visit us at our cafe, opening hours 8am to 6pm.</footer>
</body>
</html>`

func TestExtractMerchant(t *testing.T) {
	m := &types.MerchantRecord{
		Name:       "Hillside Coffee",
		WebsiteURL: "https://hillside.coffee",
		Platform:   "shopify",
	}
	ExtractMerchant([]byte(roasterHomepage), m)

	assert.Equal(t, "Small-batch specialty coffee roasted in Bengaluru since 2013.", m.Description)
	assert.Equal(t, "https://hillside.coffee/assets/logo-dark.png", m.LogoURL)
	assert.Equal(t, "hello@hillside.coffee", m.ContactEmail)
	assert.Equal(t, "+91 98450 12345", m.ContactPhone)
	assert.Equal(t, 2013, m.FoundedYear)
	assert.Equal(t, "hillsidecoffee", m.InstagramHandle)
	assert.Equal(t, []string{
		"https://facebook.com/hillsidecoffee",
		"https://instagram.com/hillsidecoffee",
	}, m.SocialLinks)

	require.NotNil(t, m.HasSubscription)
	assert.True(t, *m.HasSubscription)
	require.NotNil(t, m.HasPhysicalStore)
	assert.True(t, *m.HasPhysicalStore)

	assert.Contains(t, m.Tags, "specialty")
	assert.Contains(t, m.Tags, "single-origin")
	assert.Contains(t, m.Tags, "arabica")
	assert.Contains(t, m.Tags, "subscription")
	assert.Contains(t, m.Tags, "shopify")
}

func TestExtractMerchantKeepsExistingValues(t *testing.T) {
	m := &types.MerchantRecord{
		Name:         "Hillside Coffee",
		WebsiteURL:   "https://hillside.coffee",
		Description:  "Hand-curated description.",
		ContactEmail: "owner@hillside.coffee",
	}
	ExtractMerchant([]byte(roasterHomepage), m)

	assert.Equal(t, "Hand-curated description.", m.Description)
	assert.Equal(t, "owner@hillside.coffee", m.ContactEmail)
}

func TestExtractMerchantEmptyPage(t *testing.T) {
	m := &types.MerchantRecord{Name: "Ghost Roasters", WebsiteURL: "https://ghost.example"}
	ExtractMerchant([]byte("<html><body></body></html>"), m)

	assert.Empty(t, m.Description)
	assert.Empty(t, m.ContactEmail)
	assert.Zero(t, m.FoundedYear)
	require.NotNil(t, m.HasSubscription)
	assert.False(t, *m.HasSubscription)
}
