package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// ParseStructuredHints harvests machine-readable product metadata from
// a page: JSON-LD Product blocks and OpenGraph meta tags. The result
// feeds the extractors' highest-confidence strategy, so only explicit
// attribute data is collected, never free text guesses.
func ParseStructuredHints(page []byte) map[string]any {
	doc, err := htmlquery.Parse(bytes.NewReader(page))
	if err != nil {
		return nil
	}

	hints := make(map[string]any)
	for _, node := range htmlquery.Find(doc, `//script[@type="application/ld+json"]`) {
		collectJSONLD(htmlquery.InnerText(node), hints)
	}
	collectMeta(doc, hints)

	if len(hints) == 0 {
		return nil
	}
	return hints
}

func collectJSONLD(raw string, hints map[string]any) {
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return
	}
	for _, obj := range flattenLD(payload) {
		if t, _ := obj["@type"].(string); !strings.EqualFold(t, "Product") {
			continue
		}
		if s, ok := obj["name"].(string); ok {
			putHint(hints, "name", s)
		}
		if s, ok := obj["description"].(string); ok {
			putHint(hints, "description", s)
		}
		if s, ok := obj["image"].(string); ok {
			putHint(hints, "image", s)
		}
		if brand, ok := obj["brand"].(map[string]any); ok {
			if s, ok := brand["name"].(string); ok {
				putHint(hints, "brand", s)
			}
		}
		if props, ok := obj["additionalProperty"].([]any); ok {
			for _, p := range props {
				prop, ok := p.(map[string]any)
				if !ok {
					continue
				}
				name, _ := prop["name"].(string)
				value, _ := prop["value"].(string)
				if name == "" || value == "" {
					continue
				}
				key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
				putHint(hints, key, value)
			}
		}
	}
}

// flattenLD unwraps top-level arrays and @graph containers into a flat
// object list.
func flattenLD(payload any) []map[string]any {
	var out []map[string]any
	switch v := payload.(type) {
	case map[string]any:
		if graph, ok := v["@graph"].([]any); ok {
			for _, g := range graph {
				if obj, ok := g.(map[string]any); ok {
					out = append(out, obj)
				}
			}
			return out
		}
		out = append(out, v)
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
	}
	return out
}

func collectMeta(doc *html.Node, hints map[string]any) {
	for _, node := range htmlquery.Find(doc, `//meta[@property or @name]`) {
		key := htmlquery.SelectAttr(node, "property")
		if key == "" {
			key = htmlquery.SelectAttr(node, "name")
		}
		content := htmlquery.SelectAttr(node, "content")
		if content == "" {
			continue
		}
		switch key {
		case "og:title":
			putHint(hints, "name", content)
		case "og:description", "description":
			putHint(hints, "description", content)
		case "og:image":
			putHint(hints, "image", content)
		}
	}
}

// putHint keeps the first non-empty value for a key; JSON-LD runs
// before meta tags so richer sources win.
func putHint(hints map[string]any, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, exists := hints[key]; !exists {
		hints[key] = value
	}
}
