// Package enrich fills attribute gaps that deterministic extraction
// left behind by asking an OpenAI-compatible chat endpoint. It is a
// collaborator of the pipeline, never a requirement: with no API key
// configured every call is a pass-through no-op.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/roastlens/roastlens/internal/config"
	"github.com/roastlens/roastlens/internal/types"
)

// llmConfidence is recorded for every field the model fills. It sits
// below all extraction tiers so a later re-scrape with real page
// evidence overwrites model guesses.
const llmConfidence = 0.5

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg    config.EnrichmentConfig
	client *http.Client
	logger *slog.Logger
}

// NewClient creates an enrichment client. The client is usable even
// when cfg.APIKey is empty; Enhance simply does nothing then.
func NewClient(cfg config.EnrichmentConfig, logger *slog.Logger) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger.With("component", "enrich_client"),
	}
}

// Enabled reports whether enrichment is configured.
func (c *Client) Enabled() bool {
	return c.cfg.APIKey != ""
}

// NeedsEnhancement reports whether a candidate is worth an external
// call. At least two of the core attributes must be missing; a single
// gap is not worth the API cost. Processing method is not counted for
// blends, which legitimately have none.
func NeedsEnhancement(cand *types.ProductCandidate) bool {
	missing := 0
	if cand.RoastLevel == "" || cand.RoastLevel == "unknown" {
		missing++
	}
	if cand.BeanType == "" || cand.BeanType == "unknown" {
		missing++
	}
	if (cand.ProcessingMethod == "" || cand.ProcessingMethod == "unknown") && !cand.IsBlend {
		missing++
	}
	if cand.RegionName == "" {
		missing++
	}
	if len(cand.FlavorProfiles) == 0 {
		missing++
	}
	return missing >= 2
}

// attributes is the JSON shape the model is asked to return. Pointer
// fields distinguish "returned null" from "returned a value".
type attributes struct {
	RoastLevel       *string  `json:"roast_level"`
	BeanType         *string  `json:"bean_type"`
	ProcessingMethod *string  `json:"processing_method"`
	RegionName       *string  `json:"region_name"`
	FlavorProfiles   []string `json:"flavor_profiles"`
	BrewMethods      []string `json:"brew_methods"`
	Acidity          *string  `json:"acidity"`
	Sweetness        *string  `json:"sweetness"`
	Body             *string  `json:"body"`
	Aroma            *string  `json:"aroma"`
	IsSingleOrigin   *bool    `json:"is_single_origin"`
	IsSeasonal       *bool    `json:"is_seasonal"`
	WithMilkSuitable *bool    `json:"with_milk_suitable"`
}

// Enhance fills missing attributes on the candidate from the model's
// answer. Only fields the model returns non-null are considered, and
// each is written only when the candidate does not already have a
// value for it. Errors from the endpoint are returned to the caller
// but the candidate is always left in a usable state.
func (c *Client) Enhance(ctx context.Context, cand *types.ProductCandidate, roasterName string) error {
	if !c.Enabled() {
		return nil
	}
	if !NeedsEnhancement(cand) {
		c.logger.Debug("enrichment skipped, enough attributes present", "product", cand.Name)
		return nil
	}

	raw, err := c.chat(ctx, buildPrompt(cand, roasterName))
	if err != nil {
		return fmt.Errorf("enrich %q: %w", cand.Name, err)
	}

	attrs, err := extractJSON(raw)
	if err != nil {
		return fmt.Errorf("enrich %q: %w", cand.Name, err)
	}

	c.apply(cand, attrs)
	cand.Enriched = true
	return nil
}

func (c *Client) apply(cand *types.ProductCandidate, attrs *attributes) {
	fill := func(field string, dst *string, src *string) {
		if src == nil || *src == "" || *src == "unknown" {
			return
		}
		if *dst != "" && *dst != "unknown" {
			return
		}
		*dst = *src
		cand.SetConf(field, llmConfidence)
		c.logger.Debug("field enriched", "product", cand.Name, "field", field)
	}

	fill("roast_level", &cand.RoastLevel, attrs.RoastLevel)
	fill("bean_type", &cand.BeanType, attrs.BeanType)
	fill("processing_method", &cand.ProcessingMethod, attrs.ProcessingMethod)
	fill("region_name", &cand.RegionName, attrs.RegionName)
	fill("acidity", &cand.Acidity, attrs.Acidity)
	fill("sweetness", &cand.Sweetness, attrs.Sweetness)
	fill("body", &cand.Body, attrs.Body)
	fill("aroma", &cand.Aroma, attrs.Aroma)

	if len(cand.FlavorProfiles) == 0 && len(attrs.FlavorProfiles) > 0 {
		cand.FlavorProfiles = attrs.FlavorProfiles
		cand.SetConf("flavor_profiles", llmConfidence)
	}
	if len(cand.BrewMethods) == 0 && len(attrs.BrewMethods) > 0 {
		cand.BrewMethods = attrs.BrewMethods
		cand.SetConf("brew_methods", llmConfidence)
	}
	if cand.IsSingleOrigin == nil && attrs.IsSingleOrigin != nil {
		cand.IsSingleOrigin = attrs.IsSingleOrigin
		cand.SetConf("is_single_origin", llmConfidence)
	}
	if cand.IsSeasonal == nil && attrs.IsSeasonal != nil {
		cand.IsSeasonal = attrs.IsSeasonal
		cand.SetConf("is_seasonal", llmConfidence)
	}
	if cand.WithMilkSuitable == nil && attrs.WithMilkSuitable != nil {
		cand.WithMilkSuitable = attrs.WithMilkSuitable
		cand.SetConf("with_milk_suitable", llmConfidence)
	}
}

func (c *Client) chat(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a coffee expert who extracts structured attributes from product descriptions."},
			{"role": "user", "content": prompt},
		},
		"max_tokens":  800,
		"temperature": 0.1,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat request: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", types.ErrEmptyResponse
	}
	return result.Choices[0].Message.Content, nil
}

// extractJSON pulls the JSON object out of a chat answer, which may be
// wrapped in prose or a markdown fence. The object spans the first "{"
// to the last "}".
func extractJSON(text string) (*attributes, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model response")
	}
	var attrs attributes
	if err := json.Unmarshal([]byte(text[start:end+1]), &attrs); err != nil {
		return nil, fmt.Errorf("parse model JSON: %w", err)
	}
	return &attrs, nil
}

func buildPrompt(cand *types.ProductCandidate, roasterName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product Name: %s\n", cand.Name)
	if roasterName != "" {
		fmt.Fprintf(&b, "Roaster: %s\n", roasterName)
	}
	if cand.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", cand.Description)
	}
	if len(cand.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(cand.Tags, ", "))
	}

	b.WriteString(`
Based on the coffee product information above, extract these attributes:

1. roast_level: exactly one of light, light-medium, medium, medium-dark, dark, cinnamon, filter, espresso, omniroast, unknown
2. bean_type: exactly one of arabica, robusta, liberica, blend, mixed-arabica, arabica-robusta, unknown
3. processing_method: exactly one of washed, natural, honey, pulped-natural, anaerobic, monsooned, wet-hulled, carbonic-maceration, double-fermented, unknown
4. region_name: geographic origin of the beans as a string
5. flavor_profiles: array of flavor descriptors like chocolate, fruity, nutty, caramel, berry, citrus, floral, spicy
6. brew_methods: array of brewing methods like espresso, filter, pour-over, french-press, aeropress, moka-pot, cold-brew
7. acidity: exactly one of low, medium, medium-high, high, bright, mellow, crisp, unknown
8. sweetness: exactly one of low, medium, medium-high, high, unknown
9. body: exactly one of light, medium, full, unknown
10. aroma: a short aroma description like floral, nutty, spicy, chocolaty, fruity, earthy, woody
11. is_single_origin: true if explicitly described as single origin, false if a blend, null if unclear
12. is_seasonal: true if described as seasonal or a limited release, false if regular, null if unclear
13. with_milk_suitable: true if described as suitable with milk or espresso-based, false if best black, null if unclear

DO NOT infer or guess values. If a field is not clearly stated in the text, return null for that field.
Return ONLY a valid JSON object with these fields and nothing else.
`)
	return b.String()
}
