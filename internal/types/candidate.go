package types

// VariantPrice is one raw (size label, price) pair from a product page
// or platform API, before weight parsing.
type VariantPrice struct {
	Label string
	Price float64
}

// RawProduct is the loosely-typed record handed over by platform-specific
// scrapers. Any field except Name may be absent.
type RawProduct struct {
	Name            string
	Description     string
	Tags            []string
	StructuredHints map[string]any
	Variants        []VariantPrice
	SourceURL       string
	ImageURL        string
}

// ProductCandidate is an in-flight product record: produced by raw
// extraction, then enriched in place by the attribute and price engines
// before it is handed to the sync engine. Confidence is first-class data:
// every extracted field carries a score in [0,1] keyed by field name.
type ProductCandidate struct {
	ID          string
	MerchantID  string
	Name        string
	Slug        string
	SourceURL   string
	Description string
	ImageURL    string

	RoastLevel       string
	BeanType         string
	ProcessingMethod string
	RegionName       string
	FlavorProfiles   []string
	BrewMethods      []string
	Varietals        []string

	// Sensory profile. Acidity, Sweetness and Body hold level words
	// (low, medium, high, full); Aroma holds a short description.
	Acidity   string
	Sweetness string
	Body      string
	Aroma     string

	IsSingleOrigin   *bool
	IsSeasonal       *bool
	WithMilkSuitable *bool
	IsBlend          bool
	IsAvailable      bool

	// Prices maps grams of a standard weight class to price.
	Prices      map[int]float64
	IsMultipack bool
	PackCount   int

	// Warnings collects price reconciliation flags. They are data
	// attached for downstream review, never raised as errors.
	Warnings []ReconciliationWarning

	Tags       []string
	Confidence map[string]float64

	Enriched bool
}

// Warning kinds attached during price validation.
const (
	WarnPriceInconsistency  = "price_inconsistency"
	WarnBulkDiscountAnomaly = "bulk_discount_anomaly"
)

// ReconciliationWarning marks a price-table observation from validation.
type ReconciliationWarning struct {
	Kind    string
	Grams   int
	Message string
}

// NewProductCandidate creates an empty candidate for a source URL.
func NewProductCandidate(name, sourceURL string) *ProductCandidate {
	return &ProductCandidate{
		Name:        name,
		SourceURL:   sourceURL,
		IsAvailable: true,
		Prices:      make(map[int]float64),
		Confidence:  make(map[string]float64),
	}
}

// Conf returns the confidence score recorded for a field, 0 if none.
func (c *ProductCandidate) Conf(field string) float64 {
	return c.Confidence[field]
}

// Stronger reports whether a new score beats the one on record for a
// field. This is the single gate through which extraction strategies may
// overwrite each other: scores are never silently lowered.
func (c *ProductCandidate) Stronger(field string, conf float64) bool {
	return conf > c.Confidence[field]
}

// SetConf records a confidence score for a field.
func (c *ProductCandidate) SetConf(field string, conf float64) {
	c.Confidence[field] = conf
}

// TrueP and FalseP are helpers for the optional boolean fields.
func TrueP() *bool  { b := true; return &b }
func FalseP() *bool { b := false; return &b }
