package cache

// StabilityClass categorizes how often a field's underlying data is
// expected to change, which in turn drives cache TTLs and selective
// re-fetch decisions.
type StabilityClass string

const (
	StabilityUnknown  StabilityClass = ""
	HighlyStable      StabilityClass = "highly_stable"
	ModeratelyStable  StabilityClass = "moderately_stable"
	Variable          StabilityClass = "variable"
	HighlyVariable    StabilityClass = "highly_variable"
)

// ttlDays maps a stability class to a cache TTL in days.
var ttlDays = map[StabilityClass]int{
	HighlyStable:     30,
	ModeratelyStable: 30,
	Variable:         30,
	HighlyVariable:   7,
}

// TTLDays returns the cache TTL for the class, or def for unknown classes.
func (s StabilityClass) TTLDays(def int) int {
	if d, ok := ttlDays[s]; ok {
		return d
	}
	return def
}

// recheckDays maps a stability class to how often the field itself
// should be re-scraped, independent of the raw page cache TTL.
var recheckDays = map[StabilityClass]int{
	HighlyStable:     365,
	ModeratelyStable: 90,
	Variable:         30,
	HighlyVariable:   7,
}

// merchantFieldStability classifies merchant record fields.
var merchantFieldStability = map[string]StabilityClass{
	"name":           HighlyStable,
	"slug":           HighlyStable,
	"founded_year":   HighlyStable,
	"city":           HighlyStable,
	"state":          HighlyStable,
	"description":    ModeratelyStable,
	"logo_url":       ModeratelyStable,
	"hero_image_url": ModeratelyStable,
	"website_url":    Variable,
	"email":          Variable,
	"phone":          Variable,
	"social_links":   Variable,
	"address":        Variable,
	"has_subscription":   Variable,
	"has_physical_store": Variable,
	"is_active":      HighlyVariable,
}

// productFieldStability classifies product candidate fields.
var productFieldStability = map[string]StabilityClass{
	"name":              HighlyStable,
	"slug":              HighlyStable,
	"bean_type":         ModeratelyStable,
	"processing_method": ModeratelyStable,
	"region_name":       ModeratelyStable,
	"roast_level":       ModeratelyStable,
	"flavor_profiles":   ModeratelyStable,
	"brew_methods":      ModeratelyStable,
	"description":       Variable,
	"image_url":         Variable,
	"is_seasonal":       Variable,
	"prices":            HighlyVariable,
	"is_available":      HighlyVariable,
}

// FieldStability returns the stability class for a field on the given
// entity type ("merchant" or "product"). Unmapped fields are treated
// as Variable so they re-check on the default schedule.
func FieldStability(entity, field string) StabilityClass {
	var table map[string]StabilityClass
	switch entity {
	case "merchant":
		table = merchantFieldStability
	case "product":
		table = productFieldStability
	default:
		return Variable
	}
	if c, ok := table[field]; ok {
		return c
	}
	return Variable
}

// ShouldRefreshField reports whether a field scraped ageDays ago is due
// for a re-check given its stability class.
func ShouldRefreshField(entity, field string, ageDays int) bool {
	class := FieldStability(entity, field)
	limit, ok := recheckDays[class]
	if !ok {
		limit = recheckDays[Variable]
	}
	return ageDays >= limit
}
