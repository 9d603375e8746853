package extract

import (
	"regexp"
	"strings"
)

// weighted pairs a compiled pattern with the value it yields and the
// confidence assigned to that evidence.
type weighted struct {
	re         *regexp.Regexp
	value      string
	confidence float64
}

func hintString(hints map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := hints[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
	}
	return "", false
}

var roastTagPatterns = []weighted{
	{regexp.MustCompile(`\blight[\s-]*roast\b`), "light", 0.9},
	{regexp.MustCompile(`\bmedium[\s-]*dark[\s-]*roast\b`), "medium-dark", 0.9},
	{regexp.MustCompile(`\bmedium[\s-]*roast\b`), "medium", 0.9},
	{regexp.MustCompile(`\bdark[\s-]*roast\b`), "dark", 0.9},
	{regexp.MustCompile(`\bfrench[\s-]*roast\b`), "french", 0.9},
	{regexp.MustCompile(`\blight[\s-]*medium\s+roast\b`), "light-medium", 0.9},
	{regexp.MustCompile(`\blight\s+roast\b`), "light", 0.9},
	{regexp.MustCompile(`\bmedium[\s-]*dark\s+roast\b`), "medium-dark", 0.9},
	{regexp.MustCompile(`\bdark\s+roast\b`), "dark", 0.9},
	{regexp.MustCompile(`\b(?:city[\s-]*plus|city\+)\b`), "city-plus", 0.85},
	{regexp.MustCompile(`\bfull[\s-]*city\b`), "full-city", 0.85},
	{regexp.MustCompile(`\bcity\b`), "city", 0.8},
	{regexp.MustCompile(`\bfrench\b`), "french", 0.8},
	{regexp.MustCompile(`\bitalian\b`), "italian", 0.8},
	// espresso and filter double as brew methods, so trust them less
	{regexp.MustCompile(`\bespresso\b`), "espresso", 0.7},
	{regexp.MustCompile(`\bcinnamon\b`), "cinnamon", 0.8},
	{regexp.MustCompile(`\bfilter\b`), "filter", 0.7},
	{regexp.MustCompile(`\bomni[\s-]*roast\b`), "omniroast", 0.85},
}

var roastExplicit = []struct {
	re         *regexp.Regexp
	confidence float64
}{
	{regexp.MustCompile(`roast(?:ed)?\s*(?:level)?(?:\s*(?:is|:))?\s*(light|medium[\s-]*light|medium|medium[\s-]*dark|dark|city[\s-]*plus|city\+|full[\s-]*city|city|french|italian|espresso|cinnamon|filter|omni[\s-]*roast)`), 0.8},
	{regexp.MustCompile(`(light|medium[\s-]*light|medium|medium[\s-]*dark|dark|city[\s-]*plus|city\+|full[\s-]*city|city|french|italian|cinnamon|omni[\s-]*roast)\s+roast(?:ed)?`), 0.75},
}

var roastKeywords = []weighted{
	{regexp.MustCompile(`\blight\b`), "light", 0.6},
	{regexp.MustCompile(`\bmedium[\s-]light\b`), "medium-light", 0.6},
	// ambiguous common words score lower
	{regexp.MustCompile(`\bmedium\b`), "medium", 0.55},
	{regexp.MustCompile(`\bmedium[\s-]dark\b`), "medium-dark", 0.6},
	{regexp.MustCompile(`\bdark\b`), "dark", 0.55},
}

var roastContext = regexp.MustCompile(`\broast|profile`)

// ExtractRoastLevel runs the roast level waterfall: structured hint,
// tags, explicit declarations in text, then bare keywords that only
// count when roast context is nearby.
func ExtractRoastLevel(text string, tags []string, hints map[string]any) (string, float64) {
	if s, ok := hintString(hints, "roast_level", "roast", "roastLevel", "roast-level"); ok {
		return StandardizeRoastLevel(s), 0.95
	}

	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		for _, p := range roastTagPatterns {
			if p.re.MatchString(lower) {
				return p.value, p.confidence
			}
		}
	}

	lower := strings.ToLower(text)
	for _, p := range roastExplicit {
		if m := p.re.FindStringSubmatch(lower); m != nil {
			return StandardizeRoastLevel(m[1]), p.confidence
		}
	}

	for _, p := range roastKeywords {
		if p.re.MatchString(lower) && roastContext.MatchString(lower) {
			return p.value, p.confidence
		}
	}

	return "", 0
}

var beanTagPatterns = []weighted{
	{regexp.MustCompile(`\barabica[\s-]*robusta\b`), "arabica-robusta", 0.9},
	{regexp.MustCompile(`\bmixed[\s-]*arabica\b`), "mixed-arabica", 0.9},
	{regexp.MustCompile(`\barabica\b`), "arabica", 0.9},
	{regexp.MustCompile(`\brobusta\b`), "robusta", 0.9},
	{regexp.MustCompile(`\bliberica\b`), "liberica", 0.9},
	{regexp.MustCompile(`\bblend\b`), "blend", 0.8},
}

var beanBothSpecies = regexp.MustCompile(`\barabica\b[\s\S]*\brobusta\b|\brobusta\b[\s\S]*\barabica\b`)

var beanExplicit = []weighted{
	{regexp.MustCompile(`(?:bean|coffee)(?:\s*(?:type|variety))?(?:\s*(?:is|:))?\s*(?:100%\s*)?arabica`), "arabica", 0.85},
	{regexp.MustCompile(`(?:bean|coffee)(?:\s*(?:type|variety))?(?:\s*(?:is|:))?\s*(?:100%\s*)?robusta`), "robusta", 0.85},
	{regexp.MustCompile(`(?:bean|coffee)(?:\s*(?:type|variety))?(?:\s*(?:is|:))?\s*(?:100%\s*)?liberica`), "liberica", 0.85},
	{regexp.MustCompile(`(?:bean|coffee)(?:\s*(?:type|variety))?(?:\s*(?:is|:))?\s*blend`), "blend", 0.8},
	{regexp.MustCompile(`(?:100%\s*)?arabica(?:\s*(?:bean|coffee|type|variety))?`), "arabica", 0.8},
	{regexp.MustCompile(`(?:100%\s*)?robusta(?:\s*(?:bean|coffee|type|variety))?`), "robusta", 0.8},
	{regexp.MustCompile(`(?:100%\s*)?liberica(?:\s*(?:bean|coffee|type|variety))?`), "liberica", 0.8},
}

// Varietals imply arabica even when the species is never named.
var arabicaVarietals = []string{
	"bourbon", "typica", "gesha", "geisha", "sl28", "sl34",
	"caturra", "catuai", "catimor", "pacamara", "maragogipe",
	"pacas", "villa sarchi", "mundo novo",
}

var beanKeywords = []weighted{
	{regexp.MustCompile(`\barabica\b`), "arabica", 0.6},
	{regexp.MustCompile(`\brobusta\b`), "robusta", 0.6},
	{regexp.MustCompile(`\bliberica\b`), "liberica", 0.6},
	{regexp.MustCompile(`\bblend\b`), "blend", 0.5},
}

// ExtractBeanType runs the bean type waterfall. Varietal names count as
// inferred arabica evidence below explicit declarations.
func ExtractBeanType(text string, tags []string, hints map[string]any) (string, float64) {
	if s, ok := hintString(hints, "bean_type", "beanType", "bean-type", "bean", "variety"); ok {
		return StandardizeBeanType(s), 0.95
	}

	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		for _, p := range beanTagPatterns {
			if p.re.MatchString(lower) {
				return p.value, p.confidence
			}
		}
	}

	lower := strings.ToLower(text)
	if beanBothSpecies.MatchString(lower) {
		return "arabica-robusta", 0.85
	}
	for _, p := range beanExplicit {
		if p.re.MatchString(lower) {
			return p.value, p.confidence
		}
	}

	for _, v := range arabicaVarietals {
		if wordMatch(lower, v) {
			return "arabica", 0.75
		}
	}

	for _, p := range beanKeywords {
		if p.re.MatchString(lower) {
			return p.value, p.confidence
		}
	}

	return "", 0
}

var processTagPatterns = []weighted{
	{regexp.MustCompile(`\b(?:washed|wet[\s-]*process)\b`), "washed", 0.9},
	{regexp.MustCompile(`\b(?:natural|dry[\s-]*process)\b`), "natural", 0.9},
	{regexp.MustCompile(`\b(?:honey|pulped[\s-]*natural)\b`), "honey", 0.9},
	{regexp.MustCompile(`\banaerobic\b`), "anaerobic", 0.9},
	{regexp.MustCompile(`\b(?:monsooned|monsoon[\s-]*process)\b`), "monsooned", 0.9},
	{regexp.MustCompile(`\bwet[\s-]*hulled\b`), "wet-hulled", 0.9},
	{regexp.MustCompile(`\bcarbonic[\s-]*maceration\b`), "carbonic-maceration", 0.9},
	{regexp.MustCompile(`\bdouble[\s-]*fermented\b`), "double-fermented", 0.9},
}

var processExplicit = []struct {
	re         *regexp.Regexp
	confidence float64
}{
	{regexp.MustCompile(`process(?:ing)?(?:\s*(?:method|type))?(?:\s*(?:is|:))?\s*(washed|natural|honey|anaerobic|monsooned|wet[\s-]*hulled|carbonic[\s-]*maceration|double[\s-]*fermented)`), 0.8},
	{regexp.MustCompile(`(washed|natural|honey|anaerobic|monsooned|wet[\s-]*hulled|carbonic[\s-]*maceration|double[\s-]*fermented)\s*(?:process|processing|processed)`), 0.8},
}

var processKeywords = []weighted{
	{regexp.MustCompile(`\bwashed\b`), "washed", 0.7},
	{regexp.MustCompile(`\bwet process\b`), "washed", 0.7},
	// common words that double as flavor language score lower
	{regexp.MustCompile(`\bnatural\b`), "natural", 0.65},
	{regexp.MustCompile(`\bdry process\b`), "natural", 0.7},
	{regexp.MustCompile(`\bhoney\b`), "honey", 0.65},
	{regexp.MustCompile(`\bpulped natural\b`), "pulped-natural", 0.7},
	{regexp.MustCompile(`\banaerobic\b`), "anaerobic", 0.7},
	{regexp.MustCompile(`\bmonsooned\b`), "monsooned", 0.7},
	{regexp.MustCompile(`\bmonsoon malabar\b`), "monsooned", 0.7},
	{regexp.MustCompile(`\bwet hulled\b`), "wet-hulled", 0.7},
	{regexp.MustCompile(`\bcarbonic maceration\b`), "carbonic-maceration", 0.7},
	{regexp.MustCompile(`\bdouble fermented\b`), "double-fermented", 0.7},
}

// ExtractProcessingMethod runs the processing method waterfall.
func ExtractProcessingMethod(text string, tags []string, hints map[string]any) (string, float64) {
	if s, ok := hintString(hints, "processing_method", "process", "processing", "process_method"); ok {
		return StandardizeProcessingMethod(s), 0.95
	}

	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		for _, p := range processTagPatterns {
			if p.re.MatchString(lower) {
				return p.value, p.confidence
			}
		}
	}

	lower := strings.ToLower(text)
	for _, p := range processExplicit {
		if m := p.re.FindStringSubmatch(lower); m != nil {
			return StandardizeProcessingMethod(m[1]), p.confidence
		}
	}

	for _, p := range processKeywords {
		if p.re.MatchString(lower) {
			return p.value, p.confidence
		}
	}

	return "", 0
}

// wordMatch reports whether term appears in text on word boundaries.
func wordMatch(text, term string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
