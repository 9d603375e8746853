package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roastlens/roastlens/internal/config"
	"github.com/roastlens/roastlens/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chatServer fakes an OpenAI-compatible chat completions endpoint that
// always answers with the given message content.
func chatServer(t *testing.T, content string, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
}

func clientFor(url string) *Client {
	return NewClient(config.EnrichmentConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "deepseek-chat",
	}, testLogger())
}

func TestNeedsEnhancement(t *testing.T) {
	tests := []struct {
		name string
		cand *types.ProductCandidate
		want bool
	}{
		{
			name: "empty candidate needs it",
			cand: types.NewProductCandidate("Mystery Coffee", "https://x.com/p"),
			want: true,
		},
		{
			name: "one missing field is not enough",
			cand: func() *types.ProductCandidate {
				c := types.NewProductCandidate("Almost Complete", "https://x.com/p")
				c.RoastLevel = "medium"
				c.BeanType = "arabica"
				c.ProcessingMethod = "washed"
				c.FlavorProfiles = []string{"chocolate"}
				return c
			}(),
			want: false,
		},
		{
			name: "unknown counts as missing",
			cand: func() *types.ProductCandidate {
				c := types.NewProductCandidate("Vague Coffee", "https://x.com/p")
				c.RoastLevel = "unknown"
				c.BeanType = "unknown"
				c.ProcessingMethod = "washed"
				c.RegionName = "Chikmagalur"
				c.FlavorProfiles = []string{"nutty"}
				return c
			}(),
			want: true,
		},
		{
			name: "blend does not count processing method",
			cand: func() *types.ProductCandidate {
				c := types.NewProductCandidate("House Blend", "https://x.com/p")
				c.IsBlend = true
				c.RoastLevel = "dark"
				c.BeanType = "arabica-robusta"
				c.RegionName = ""
				c.FlavorProfiles = []string{"chocolate"}
				return c
			}(),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsEnhancement(tt.cand))
		})
	}
}

func TestEnhanceDisabledWithoutKey(t *testing.T) {
	calls := 0
	srv := chatServer(t, `{}`, &calls)
	defer srv.Close()

	c := NewClient(config.EnrichmentConfig{BaseURL: srv.URL, Model: "deepseek-chat"}, testLogger())
	cand := types.NewProductCandidate("Mystery Coffee", "https://x.com/p")

	require.NoError(t, c.Enhance(context.Background(), cand, "Blue Tokai"))
	assert.Equal(t, 0, calls)
	assert.False(t, cand.Enriched)
}

func TestEnhanceSkipsWhenNotNeeded(t *testing.T) {
	calls := 0
	srv := chatServer(t, `{}`, &calls)
	defer srv.Close()

	cand := types.NewProductCandidate("Complete Coffee", "https://x.com/p")
	cand.RoastLevel = "medium"
	cand.BeanType = "arabica"
	cand.ProcessingMethod = "washed"
	cand.RegionName = "Yirgacheffe"
	cand.FlavorProfiles = []string{"floral"}

	require.NoError(t, clientFor(srv.URL).Enhance(context.Background(), cand, ""))
	assert.Equal(t, 0, calls)
	assert.False(t, cand.Enriched)
}

func TestEnhanceFillsOnlyMissingFields(t *testing.T) {
	content := `Here you go:
{"roast_level":"dark","bean_type":"arabica","processing_method":"natural","region_name":"Sidamo","flavor_profiles":["berry","floral"],"brew_methods":["pour-over"],"is_single_origin":true,"is_seasonal":null}`
	srv := chatServer(t, content, nil)
	defer srv.Close()

	cand := types.NewProductCandidate("Ethiopia Lot 7", "https://x.com/p")
	cand.RoastLevel = "light"
	cand.SetConf("roast_level", 0.9)

	require.NoError(t, clientFor(srv.URL).Enhance(context.Background(), cand, "Corridor Seven"))

	// Existing value survives the model's answer.
	assert.Equal(t, "light", cand.RoastLevel)
	assert.InDelta(t, 0.9, cand.Conf("roast_level"), 1e-9)

	assert.Equal(t, "arabica", cand.BeanType)
	assert.Equal(t, "natural", cand.ProcessingMethod)
	assert.Equal(t, "Sidamo", cand.RegionName)
	assert.Equal(t, []string{"berry", "floral"}, cand.FlavorProfiles)
	assert.Equal(t, []string{"pour-over"}, cand.BrewMethods)
	require.NotNil(t, cand.IsSingleOrigin)
	assert.True(t, *cand.IsSingleOrigin)
	assert.Nil(t, cand.IsSeasonal)

	assert.InDelta(t, llmConfidence, cand.Conf("bean_type"), 1e-9)
	assert.InDelta(t, llmConfidence, cand.Conf("flavor_profiles"), 1e-9)
	assert.True(t, cand.Enriched)
}

func TestEnhanceFillsSensoryProfile(t *testing.T) {
	content := `{"acidity":"bright","sweetness":"high","body":"full","aroma":"floral","with_milk_suitable":false}`
	srv := chatServer(t, content, nil)
	defer srv.Close()

	cand := types.NewProductCandidate("Mystery Coffee", "https://x.com/p")
	cand.Body = "light"
	cand.SetConf("body", 0.9)

	require.NoError(t, clientFor(srv.URL).Enhance(context.Background(), cand, ""))

	assert.Equal(t, "bright", cand.Acidity)
	assert.Equal(t, "high", cand.Sweetness)
	assert.Equal(t, "floral", cand.Aroma)
	require.NotNil(t, cand.WithMilkSuitable)
	assert.False(t, *cand.WithMilkSuitable)
	assert.InDelta(t, llmConfidence, cand.Conf("acidity"), 1e-9)

	// Existing sensory value survives the model's answer.
	assert.Equal(t, "light", cand.Body)
	assert.InDelta(t, 0.9, cand.Conf("body"), 1e-9)
}

func TestEnhanceIgnoresUnknownAnswers(t *testing.T) {
	srv := chatServer(t, `{"roast_level":"unknown","bean_type":null,"region_name":"Coorg"}`, nil)
	defer srv.Close()

	cand := types.NewProductCandidate("Mystery Coffee", "https://x.com/p")
	require.NoError(t, clientFor(srv.URL).Enhance(context.Background(), cand, ""))

	assert.Empty(t, cand.RoastLevel)
	assert.Empty(t, cand.BeanType)
	assert.Equal(t, "Coorg", cand.RegionName)
}

func TestEnhanceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cand := types.NewProductCandidate("Mystery Coffee", "https://x.com/p")
	err := clientFor(srv.URL).Enhance(context.Background(), cand, "")
	require.Error(t, err)
	assert.False(t, cand.Enriched)
}

func TestExtractJSON(t *testing.T) {
	attrs, err := extractJSON("```json\n{\"roast_level\":\"medium\"}\n```")
	require.NoError(t, err)
	require.NotNil(t, attrs.RoastLevel)
	assert.Equal(t, "medium", *attrs.RoastLevel)

	_, err = extractJSON("no structured answer here")
	require.Error(t, err)
}
