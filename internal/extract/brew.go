package extract

import (
	"regexp"
	"strings"
)

var knownBrewMethods = []string{
	"espresso", "filter", "pour over", "pourover", "french press",
	"aeropress", "cold brew", "moka pot", "siphon", "chemex", "drip",
	"v60", "hario v60", "kalita", "clever dripper", "immersion",
	"percolator", "turkish", "ibrik", "south indian filter",
	"vietnamese press",
}

var brewRecommendationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:perfect|ideal|great|excellent|recommended)\s+for\s+([A-Za-z0-9,\s&+]+)`),
	regexp.MustCompile(`(?i)best\s+(?:when\s+)?(?:brewed|prepared|made)\s+(?:as|with|using)?\s*([A-Za-z0-9,\s&+]+)`),
	regexp.MustCompile(`(?i)(?:recommended|suggested)\s+(?:brewing\s+)?method:?\s+([A-Za-z0-9,\s&+:]+)`),
}

var brewSeparators = regexp.MustCompile(`\s+and\s+|\s*[&+:]\s*`)

// ExtractBrewMethods finds recommended brewing methods. Explicit
// recommendation phrases are parsed first; if none name a known
// method, any whole-word mention in the description counts.
func ExtractBrewMethods(description string) []string {
	var found []string
	seen := make(map[string]struct{})
	add := func(m string) {
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			found = append(found, m)
		}
	}

	for _, re := range brewRecommendationPatterns {
		m := re.FindStringSubmatch(description)
		if m == nil {
			continue
		}
		methodsText := brewSeparators.ReplaceAllString(strings.ToLower(m[1]), ",")
		for _, part := range strings.Split(methodsText, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			for _, known := range knownBrewMethods {
				if part == known || strings.Contains(part, known) {
					add(known)
				}
			}
		}
	}
	if len(found) > 0 {
		return found
	}

	lower := strings.ToLower(description)
	for _, known := range knownBrewMethods {
		if wordMatch(lower, known) {
			add(known)
		}
	}
	return found
}
