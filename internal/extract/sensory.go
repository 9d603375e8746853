package extract

import (
	"regexp"
	"strings"
)

var acidityTagPatterns = []weighted{
	{regexp.MustCompile(`\bacidity[\s-]*medium[\s-]*high\b`), "medium-high", 0.9},
	{regexp.MustCompile(`\bacidity[\s-]*low\b`), "low", 0.9},
	{regexp.MustCompile(`\bacidity[\s-]*medium\b`), "medium", 0.9},
	{regexp.MustCompile(`\bacidity[\s-]*high\b`), "high", 0.9},
	{regexp.MustCompile(`\blow[\s-]*acidity\b`), "low", 0.9},
	{regexp.MustCompile(`\bmedium[\s-]*acidity\b`), "medium", 0.9},
	{regexp.MustCompile(`\bhigh[\s-]*acidity\b`), "high", 0.9},
	{regexp.MustCompile(`\bbright[\s-]*acidity\b`), "bright", 0.85},
	{regexp.MustCompile(`\bmellow[\s-]*acidity\b`), "mellow", 0.85},
	{regexp.MustCompile(`\bcrisp[\s-]*acidity\b`), "crisp", 0.85},
}

var acidityExplicit = []struct {
	re         *regexp.Regexp
	confidence float64
}{
	{regexp.MustCompile(`\b(?:acidity|acidic)\s+(?:is\s+)?(low|medium|high|bright|mellow|crisp)\b`), 0.8},
	{regexp.MustCompile(`\b(low|medium|high|bright|mellow|crisp)\s+(?:acidity|acidic)\b`), 0.8},
	{regexp.MustCompile(`\b(low|medium|high|bright|mellow|crisp)\s+(?:acidity|acidic)\s+(?:profile|character)\b`), 0.75},
}

var acidityKeywords = []weighted{
	{regexp.MustCompile(`\blow acidity\b`), "low", 0.7},
	{regexp.MustCompile(`\bmedium acidity\b`), "medium", 0.7},
	{regexp.MustCompile(`\bhigh acidity\b`), "high", 0.7},
	// bare cupping words with no acidity context score lower
	{regexp.MustCompile(`\bbright\b`), "bright", 0.6},
	{regexp.MustCompile(`\bcrisp\b`), "crisp", 0.6},
	{regexp.MustCompile(`\bmellow\b`), "mellow", 0.6},
}

// ExtractAcidity runs the acidity waterfall: structured hint, tags,
// explicit declarations in text, then bare cupping keywords.
func ExtractAcidity(text string, tags []string, hints map[string]any) (string, float64) {
	if s, ok := hintString(hints, "acidity", "acidity_level", "acidityLevel"); ok {
		return strings.ToLower(strings.TrimSpace(s)), 0.95
	}

	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		for _, p := range acidityTagPatterns {
			if p.re.MatchString(lower) {
				return p.value, p.confidence
			}
		}
	}

	lower := strings.ToLower(text)
	for _, p := range acidityExplicit {
		if m := p.re.FindStringSubmatch(lower); m != nil {
			return m[1], p.confidence
		}
	}

	for _, p := range acidityKeywords {
		if p.re.MatchString(lower) {
			return p.value, p.confidence
		}
	}

	return "", 0
}

var sweetnessTagPatterns = []weighted{
	{regexp.MustCompile(`\bsweetness[\s-]*medium[\s-]*high\b`), "medium-high", 0.9},
	{regexp.MustCompile(`\bsweetness[\s-]*low\b`), "low", 0.9},
	{regexp.MustCompile(`\bsweetness[\s-]*medium\b`), "medium", 0.9},
	{regexp.MustCompile(`\bsweetness[\s-]*high\b`), "high", 0.9},
	{regexp.MustCompile(`\blow[\s-]*sweetness\b`), "low", 0.9},
	{regexp.MustCompile(`\bmedium[\s-]*high[\s-]*sweetness\b`), "medium-high", 0.9},
	{regexp.MustCompile(`\bmedium[\s-]*sweetness\b`), "medium", 0.9},
	{regexp.MustCompile(`\bhigh[\s-]*sweetness\b`), "high", 0.9},
}

// Bitterness reads as inverted sweetness: low bitterness tags a sweet
// cup and high bitterness the opposite.
var bitternessTagPatterns = []weighted{
	{regexp.MustCompile(`\bbitterness[\s-]*medium[\s-]*high\b`), "low", 0.7},
	{regexp.MustCompile(`\bbitterness[\s-]*low\b`), "high", 0.7},
	{regexp.MustCompile(`\bbitterness[\s-]*medium\b`), "medium", 0.7},
	{regexp.MustCompile(`\bbitterness[\s-]*high\b`), "low", 0.7},
	{regexp.MustCompile(`\blow[\s-]*bitterness\b`), "high", 0.7},
	{regexp.MustCompile(`\bmedium[\s-]*bitterness\b`), "medium", 0.7},
	{regexp.MustCompile(`\bhigh[\s-]*bitterness\b`), "low", 0.7},
}

var sweetnessExplicit = []struct {
	re         *regexp.Regexp
	confidence float64
}{
	{regexp.MustCompile(`\b(?:sweetness|sweet)\s+(?:is\s+)?(low|medium|high|bright|mellow)\b`), 0.8},
	{regexp.MustCompile(`\b(low|medium|high|bright|mellow)\s+(?:sweetness|sweet)\b`), 0.8},
	{regexp.MustCompile(`\b(low|medium|high|bright|mellow)\s+(?:sweetness|sweet)\s+(?:profile|character)\b`), 0.75},
}

// Sugary flavor language implies a sweet cup.
var sweetnessKeywords = []weighted{
	{regexp.MustCompile(`\bhoney-like\b`), "high", 0.7},
	{regexp.MustCompile(`\bcaramel\b`), "high", 0.7},
	{regexp.MustCompile(`\bbrown sugar\b`), "high", 0.7},
	{regexp.MustCompile(`\bmaple\b`), "high", 0.7},
	{regexp.MustCompile(`\bmolasses\b`), "high", 0.7},
	{regexp.MustCompile(`\btoffee\b`), "high", 0.7},
	{regexp.MustCompile(`\bbutterscotch\b`), "high", 0.7},
}

// ExtractSweetness runs the sweetness waterfall. Bitterness tags count
// as inverted evidence between direct tags and text declarations.
func ExtractSweetness(text string, tags []string, hints map[string]any) (string, float64) {
	if s, ok := hintString(hints, "sweetness", "sweetness_level", "sweetnessLevel"); ok {
		return strings.ToLower(strings.TrimSpace(s)), 0.95
	}

	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		for _, p := range sweetnessTagPatterns {
			if p.re.MatchString(lower) {
				return p.value, p.confidence
			}
		}
	}
	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		for _, p := range bitternessTagPatterns {
			if p.re.MatchString(lower) {
				return p.value, p.confidence
			}
		}
	}

	lower := strings.ToLower(text)
	for _, p := range sweetnessExplicit {
		if m := p.re.FindStringSubmatch(lower); m != nil {
			return m[1], p.confidence
		}
	}

	for _, p := range sweetnessKeywords {
		if p.re.MatchString(lower) {
			return p.value, p.confidence
		}
	}

	return "", 0
}

var bodyTagPatterns = []weighted{
	{regexp.MustCompile(`\bbody[\s-]*light\b`), "light", 0.9},
	{regexp.MustCompile(`\bbody[\s-]*medium\b`), "medium", 0.9},
	{regexp.MustCompile(`\bbody[\s-]*high\b`), "high", 0.9},
	{regexp.MustCompile(`\bbody[\s-]*full\b`), "full", 0.9},
	{regexp.MustCompile(`\blight[\s-]*body\b`), "light", 0.9},
	{regexp.MustCompile(`\bmedium[\s-]*body\b`), "medium", 0.9},
	{regexp.MustCompile(`\bheavy[\s-]*body\b`), "full", 0.9},
	{regexp.MustCompile(`\bfull[\s-]*body\b`), "full", 0.9},
	{regexp.MustCompile(`\bsyrupy[\s-]*body\b`), "full", 0.85},
	{regexp.MustCompile(`\btea[\s-]*like[\s-]*body\b`), "light", 0.85},
}

var bodyExplicit = []struct {
	re         *regexp.Regexp
	confidence float64
}{
	{regexp.MustCompile(`\b(?:body|mouthfeel)\s+(?:is\s+)?(light|medium|heavy|full|syrupy|tea[\s-]*like)\b`), 0.8},
	{regexp.MustCompile(`\b(light|medium|heavy|full|syrupy|tea[\s-]*like)\s+(?:body|mouthfeel)\b`), 0.8},
	{regexp.MustCompile(`\b(light|medium|heavy|full|syrupy|tea[\s-]*like)\s+(?:body|mouthfeel)\s+(?:profile|character)\b`), 0.75},
}

var bodyKeywords = []weighted{
	{regexp.MustCompile(`\bsyrupy\b`), "full", 0.7},
	{regexp.MustCompile(`\bvelvety\b`), "full", 0.7},
	{regexp.MustCompile(`\bheavy\b`), "full", 0.7},
	{regexp.MustCompile(`\bfull-bodied\b`), "full", 0.7},
	{regexp.MustCompile(`\btea-like\b`), "light", 0.7},
	{regexp.MustCompile(`\bthin\b`), "light", 0.7},
	{regexp.MustCompile(`\blight-bodied\b`), "light", 0.7},
}

// ExtractBody runs the body waterfall. Heavy and syrupy normalize to
// full, tea-like and thin to light.
func ExtractBody(text string, tags []string, hints map[string]any) (string, float64) {
	if s, ok := hintString(hints, "body", "body_level", "bodyLevel"); ok {
		return strings.ToLower(strings.TrimSpace(s)), 0.95
	}

	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		for _, p := range bodyTagPatterns {
			if p.re.MatchString(lower) {
				return p.value, p.confidence
			}
		}
	}

	lower := strings.ToLower(text)
	for _, p := range bodyExplicit {
		if m := p.re.FindStringSubmatch(lower); m != nil {
			return standardizeBodyWord(m[1]), p.confidence
		}
	}

	for _, p := range bodyKeywords {
		if p.re.MatchString(lower) {
			return p.value, p.confidence
		}
	}

	return "", 0
}

func standardizeBodyWord(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heavy", "syrupy":
		return "full"
	case "tea-like", "tea like", "tealike":
		return "light"
	default:
		return strings.ToLower(strings.TrimSpace(s))
	}
}

var aromaTagPatterns = []weighted{
	{regexp.MustCompile(`\baroma[\s-]*floral\b`), "floral", 0.9},
	{regexp.MustCompile(`\baroma[\s-]*nutty\b`), "nutty", 0.9},
	{regexp.MustCompile(`\baroma[\s-]*spicy\b`), "spicy", 0.9},
	{regexp.MustCompile(`\baroma[\s-]*chocolaty\b`), "chocolaty", 0.9},
	{regexp.MustCompile(`\baroma[\s-]*fruity\b`), "fruity", 0.9},
	{regexp.MustCompile(`\baroma[\s-]*earthy\b`), "earthy", 0.9},
	{regexp.MustCompile(`\baroma[\s-]*woody\b`), "woody", 0.9},
}

var aromaExplicit = []struct {
	re         *regexp.Regexp
	confidence float64
}{
	{regexp.MustCompile(`\b(?:aroma|fragrance|smell)\s+(?:of|is)\s+([\w\s]+)`), 0.8},
	{regexp.MustCompile(`\b(?:with|has)\s+(?:aroma|fragrance|smell)\s+of\s+([\w\s]+)`), 0.8},
	{regexp.MustCompile(`\b(?:aroma|fragrance|smell)\s+(?:notes?|profile)\s+(?:of|include)\s+([\w\s]+)`), 0.75},
}

var aromaFiller = regexp.MustCompile(`\b(and|with|notes?|profile|include)\b`)

var aromaKeywords = []weighted{
	{regexp.MustCompile(`\bjasmine\b`), "floral", 0.7},
	{regexp.MustCompile(`\brose\b`), "floral", 0.7},
	{regexp.MustCompile(`\bcinnamon\b`), "spicy", 0.7},
	{regexp.MustCompile(`\bvanilla\b`), "sweet", 0.7},
	{regexp.MustCompile(`\bfloral\b`), "floral", 0.6},
	{regexp.MustCompile(`\bnutty\b`), "nutty", 0.6},
	{regexp.MustCompile(`\bspicy\b`), "spicy", 0.6},
	{regexp.MustCompile(`\bchocolaty\b`), "chocolaty", 0.6},
	{regexp.MustCompile(`\bfruity\b`), "fruity", 0.6},
	{regexp.MustCompile(`\bearthy\b`), "earthy", 0.6},
	{regexp.MustCompile(`\bwoody\b`), "woody", 0.6},
}

// ExtractAroma runs the aroma waterfall. Captured free text is cleaned
// of connective filler before it is accepted.
func ExtractAroma(text string, tags []string, hints map[string]any) (string, float64) {
	if s, ok := hintString(hints, "aroma", "aroma_description", "aromaDescription"); ok {
		return strings.ToLower(strings.TrimSpace(s)), 0.95
	}

	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		for _, p := range aromaTagPatterns {
			if p.re.MatchString(lower) {
				return p.value, p.confidence
			}
		}
	}

	lower := strings.ToLower(text)
	for _, p := range aromaExplicit {
		if m := p.re.FindStringSubmatch(lower); m != nil {
			cleaned := strings.TrimSpace(aromaFiller.ReplaceAllString(m[1], ""))
			cleaned = strings.Join(strings.Fields(cleaned), " ")
			if cleaned != "" {
				return cleaned, p.confidence
			}
		}
	}

	for _, p := range aromaKeywords {
		if p.re.MatchString(lower) {
			return p.value, p.confidence
		}
	}

	return "", 0
}

var milkPositiveTags = []*regexp.Regexp{
	regexp.MustCompile(`\bwith[\s-]*milk\b`),
	regexp.MustCompile(`\bmilk[\s-]*suitable\b`),
	regexp.MustCompile(`\bsuitable[\s-]*with[\s-]*milk\b`),
	regexp.MustCompile(`\bgood[\s-]*with[\s-]*milk\b`),
	regexp.MustCompile(`\bperfect[\s-]*with[\s-]*milk\b`),
	regexp.MustCompile(`\bespresso[\s-]*based\b`),
	regexp.MustCompile(`\blatte\b`),
	regexp.MustCompile(`\bcappuccino\b`),
	regexp.MustCompile(`\bmacchiato\b`),
}

// Brew methods that imply a black cup count as negative evidence.
var milkNegativeTags = []*regexp.Regexp{
	regexp.MustCompile(`\bblack[\s-]*only\b`),
	regexp.MustCompile(`\bnot[\s-]*with[\s-]*milk\b`),
	regexp.MustCompile(`\bavoid[\s-]*milk\b`),
	regexp.MustCompile(`\bno[\s-]*milk\b`),
	regexp.MustCompile(`\bpour[\s-]*over\b`),
	regexp.MustCompile(`\baeropress\b`),
}

var milkPositiveText = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:with|in)\s+milk\b`),
	regexp.MustCompile(`\b(?:suitable|good|perfect)\s+(?:with|for)\s+milk\b`),
	regexp.MustCompile(`\bespresso[\s-]*based\b`),
	regexp.MustCompile(`\b(?:latte|cappuccino|macchiato)\b`),
	regexp.MustCompile(`\bmilk[\s-]*drinks?\b`),
	regexp.MustCompile(`\b(?:creamy|smooth)\s+(?:with|in)\s+milk\b`),
}

var milkNegativeText = []*regexp.Regexp{
	regexp.MustCompile(`\bblack[\s-]*only\b`),
	regexp.MustCompile(`\bnot[\s-]*suitable[\s-]*with[\s-]*milk\b`),
	regexp.MustCompile(`\bavoid[\s-]*milk\b`),
	regexp.MustCompile(`\bno[\s-]*milk\b`),
	regexp.MustCompile(`\bbest[\s-]*black\b`),
	regexp.MustCompile(`\bdrink[\s-]*black\b`),
}

var milkDarkRoast = regexp.MustCompile(`\b(?:dark|french|italian)\s+roast\b`)
var milkLightRoast = regexp.MustCompile(`\b(?:light|medium)\s+roast\b`)

// DetectWithMilkSuitable runs the milk suitability waterfall. A zero
// confidence means no evidence either way. The weakest rung leans on
// roast level: dark roasts take milk, light roasts are drunk black.
func DetectWithMilkSuitable(text string, tags []string, hints map[string]any) (bool, float64) {
	for _, k := range []string{"with_milk_suitable", "milk_suitable", "milkSuitable"} {
		v, ok := hints[k]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case bool:
			return val, 0.95
		case string:
			lower := strings.ToLower(strings.TrimSpace(val))
			yes := lower == "true" || lower == "yes" || lower == "1" || lower == "suitable"
			return yes, 0.9
		}
	}

	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		for _, re := range milkPositiveTags {
			if re.MatchString(lower) {
				return true, 0.9
			}
		}
		for _, re := range milkNegativeTags {
			if re.MatchString(lower) {
				return false, 0.9
			}
		}
	}

	lower := strings.ToLower(text)
	for _, re := range milkPositiveText {
		if re.MatchString(lower) {
			return true, 0.8
		}
	}
	for _, re := range milkNegativeText {
		if re.MatchString(lower) {
			return false, 0.8
		}
	}

	if milkDarkRoast.MatchString(lower) {
		return true, 0.6
	}
	if milkLightRoast.MatchString(lower) {
		return false, 0.6
	}

	return false, 0
}

// ExtractVarietals collects named arabica varietals from text and tags.
// Order of first appearance in the table is kept; duplicates collapse.
func ExtractVarietals(text string, tags []string) ([]string, float64) {
	haystack := strings.ToLower(text)
	for _, tag := range tags {
		haystack += " " + strings.ToLower(tag)
	}

	var found []string
	seen := make(map[string]struct{})
	for _, v := range arabicaVarietals {
		canonical := v
		// geisha is a spelling variant of gesha
		if v == "geisha" {
			canonical = "gesha"
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		if wordMatch(haystack, v) {
			seen[canonical] = struct{}{}
			found = append(found, canonical)
		}
	}
	if len(found) == 0 {
		return nil, 0
	}
	return found, 0.8
}
