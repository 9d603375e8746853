// Package extract turns free text, tags, and structured hints into
// typed coffee attributes. Every extractor runs a strategy waterfall
// and reports a confidence score alongside its value.
package extract

import (
	"regexp"
	"strings"
)

// mapping is an ordered term table. Exact match wins, then the first
// term that appears as a substring, then "unknown".
type mapping []struct {
	term  string
	value string
}

func (m mapping) standardize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return "unknown"
	}
	for _, e := range m {
		if e.term == text {
			return e.value
		}
	}
	for _, e := range m {
		if strings.Contains(text, e.term) {
			return e.value
		}
	}
	return ""
}

var roastMapping = mapping{
	{"light roast", "light"},
	{"half city", "light"},
	{"blonde", "light"},
	{"new england", "light"},
	{"cinnamon", "cinnamon"},
	{"light medium", "light-medium"},
	{"light-medium", "light-medium"},
	{"medium roast", "medium"},
	{"city+", "city-plus"},
	{"city plus", "city-plus"},
	{"full city+", "medium-dark"},
	{"full-city+", "medium-dark"},
	{"full city", "full-city"},
	{"city", "light-medium"},
	{"american", "medium"},
	{"breakfast", "medium"},
	{"medium dark", "medium-dark"},
	{"medium-dark", "medium-dark"},
	{"vienna", "medium-dark"},
	{"continental", "medium-dark"},
	{"medium", "medium"},
	{"dark roast", "dark"},
	{"high roast", "dark"},
	{"spanish", "dark"},
	{"dark", "dark"},
	{"french roast", "french"},
	{"french", "french"},
	{"italian roast", "italian"},
	{"italian", "italian"},
	{"espresso roast", "espresso"},
	{"espresso", "espresso"},
	{"omni roast", "omniroast"},
	{"omniroast", "omniroast"},
	{"omni", "omniroast"},
	{"light", "light"},
}

// StandardizeRoastLevel maps free-text roast descriptions onto the
// canonical roast levels.
func StandardizeRoastLevel(text string) string {
	if v := roastMapping.standardize(text); v != "" {
		return v
	}
	if strings.Contains(strings.ToLower(text), "filter") {
		return "filter"
	}
	return "unknown"
}

var processMapping = mapping{
	{"fully washed", "washed"},
	{"traditional washed", "washed"},
	{"water process", "washed"},
	{"wet process", "washed"},
	{"wet hulled", "wet-hulled"},
	{"wet-hulled", "wet-hulled"},
	{"giling basah", "wet-hulled"},
	{"wet", "washed"},
	{"washed", "washed"},
	{"dry process", "natural"},
	{"sun dried", "natural"},
	{"sundried", "natural"},
	{"unwashed", "natural"},
	{"traditional natural", "natural"},
	{"anaerobic natural", "anaerobic"},
	{"anaerobic washed", "anaerobic"},
	{"anaerobic fermentation", "anaerobic"},
	{"double anaerobic", "anaerobic"},
	{"anaerobic", "anaerobic"},
	{"natural", "natural"},
	{"dry", "natural"},
	{"black honey", "honey"},
	{"red honey", "honey"},
	{"yellow honey", "honey"},
	{"white honey", "honey"},
	{"golden honey", "honey"},
	{"pulped natural", "pulped-natural"},
	{"semi-washed", "honey"},
	{"semi washed", "honey"},
	{"honey", "honey"},
	{"carbonic maceration", "carbonic-maceration"},
	{"carbonic", "carbonic-maceration"},
	{"monsooned malabar", "monsooned"},
	{"monsooning", "monsooned"},
	{"monsooned", "monsooned"},
	{"monsoon", "monsooned"},
	{"double fermented", "double-fermented"},
	{"extended fermentation", "double-fermented"},
	{"experimental process", "unknown"},
	{"experimental", "unknown"},
}

// StandardizeProcessingMethod maps free-text process descriptions onto
// the canonical processing methods.
func StandardizeProcessingMethod(text string) string {
	if v := processMapping.standardize(text); v != "" {
		return v
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "double") && strings.Contains(lower, "ferment"):
		return "double-fermented"
	case strings.Contains(lower, "honey"):
		return "honey"
	case strings.Contains(lower, "anaerobic"):
		return "anaerobic"
	case strings.Contains(lower, "natural"), strings.Contains(lower, "dry"):
		return "natural"
	case strings.Contains(lower, "washed"):
		return "washed"
	}
	return "unknown"
}

var beanMapping = mapping{
	{"100% arabica", "arabica"},
	{"arabica robusta blend", "arabica-robusta"},
	{"arabica robusta", "arabica-robusta"},
	{"arabica/robusta", "arabica-robusta"},
	{"arabica and robusta", "arabica-robusta"},
	{"arabica & robusta", "arabica-robusta"},
	{"80/20 blend", "arabica-robusta"},
	{"80/20", "arabica-robusta"},
	{"arabica blend", "mixed-arabica"},
	{"mixed arabica", "mixed-arabica"},
	{"arabica mix", "mixed-arabica"},
	{"arabica", "arabica"},
	{"100% robusta", "robusta"},
	{"canephora", "robusta"},
	{"robusta", "robusta"},
	{"100% liberica", "liberica"},
	{"excelsa", "liberica"},
	{"liberica", "liberica"},
	{"coffee blend", "blend"},
	{"house blend", "blend"},
	{"espresso blend", "blend"},
	{"signature blend", "blend"},
	{"blend", "blend"},
	{"bourbon", "arabica"},
	{"typica", "arabica"},
	{"gesha", "arabica"},
	{"geisha", "arabica"},
	{"sl-28", "arabica"},
	{"sl28", "arabica"},
	{"sl-34", "arabica"},
	{"sl34", "arabica"},
	{"caturra", "arabica"},
	{"catuai", "arabica"},
	{"catimor", "arabica"},
	{"pacamara", "arabica"},
	{"maragogipe", "arabica"},
	{"pacas", "arabica"},
	{"villa sarchi", "arabica"},
	{"mundo novo", "arabica"},
}

// StandardizeBeanType maps free-text bean descriptions onto the
// canonical bean types.
func StandardizeBeanType(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return "unknown"
	}
	for _, e := range beanMapping {
		if e.term == lower {
			return e.value
		}
	}
	// Context combinations before plain substring fallback.
	if strings.Contains(lower, "arabica") && strings.Contains(lower, "robusta") {
		return "arabica-robusta"
	}
	if strings.Contains(lower, "arabica") &&
		(strings.Contains(lower, "blend") || strings.Contains(lower, "mix")) {
		return "mixed-arabica"
	}
	for _, e := range beanMapping {
		if strings.Contains(lower, e.term) {
			return e.value
		}
	}
	return "unknown"
}

var (
	slugStrip    = regexp.MustCompile(`[^a-z0-9]+`)
	slugCollapse = regexp.MustCompile(`-+`)
)

// Slugify produces a URL-safe identifier from a display name.
func Slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	s = slugCollapse.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
