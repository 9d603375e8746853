// Package price reconciles free-text variant labels and prices into a
// table of standard weight classes, validates per-gram consistency,
// and derives the canonical 250g price when absent.
package price

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/roastlens/roastlens/internal/types"
)

// Standard weight classes in grams, ascending.
var weightClasses = []int{100, 200, 250, 500, 750, 1000, 2000}

var (
	unitWeightRe    = regexp.MustCompile(`(\d+\.?\d*)\s*(kg|grams|gram|gm|g)`)
	bareNumberRe    = regexp.MustCompile(`(\d+\.?\d*)\s*(?:size|weight|pack)`)
	multiPackRe     = regexp.MustCompile(`(\d+)\s*x\s*(\d+\.?\d*)\s*(kg|gram|gm|g)`)
)

var namedSizes = []struct {
	text  string
	grams int
}{
	{"quarter pound", 113},
	{"half pound", 227},
	{"one pound", 454},
	{"1 pound", 454},
	{"1 lb", 454},
	{"1lb", 454},
	{"half kilo", 500},
	{"one kilo", 1000},
	{"1 kilo", 1000},
	{"1 kg", 1000},
	{"1kg", 1000},
}

// ParseWeight extracts a weight in grams from a size label. Strategies
// in order: explicit unit, bare number next to a size word, named
// common sizes, then a bare standard number.
func ParseWeight(label string) (int, float64) {
	lower := strings.ToLower(label)
	if strings.TrimSpace(lower) == "" {
		return 0, 0
	}

	if m := unitWeightRe.FindStringSubmatch(lower); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			if strings.Contains(m[2], "kg") {
				return int(value * 1000), 0.9
			}
			return int(value), 0.9
		}
	}

	if m := bareNumberRe.FindStringSubmatch(lower); m != nil {
		if value, err := strconv.ParseFloat(m[1], 64); err == nil && value >= 100 && value <= 1000 {
			return int(value), 0.7
		}
	}

	for _, s := range namedSizes {
		if strings.Contains(lower, s.text) {
			return s.grams, 0.8
		}
	}

	switch strings.TrimSpace(lower) {
	case "250", "500", "1000":
		n, _ := strconv.Atoi(strings.TrimSpace(lower))
		return n, 0.6
	}

	return 0, 0
}

// bucket maps a parsed weight onto the standard class by upper bound.
func bucket(grams int) int {
	for _, class := range weightClasses {
		if grams <= class {
			return class
		}
	}
	return weightClasses[len(weightClasses)-1]
}

// FieldName names the price field for a weight class, matching the
// persisted column names.
func FieldName(grams int) string {
	switch grams {
	case 1000:
		return "price_1kg"
	case 2000:
		return "price_2kg"
	default:
		return fmt.Sprintf("price_%dg", grams)
	}
}

// Reconcile fills a candidate's price table from its raw variants,
// validates per-gram ordering, and derives the 250g price if missing.
func Reconcile(c *types.ProductCandidate, variants []types.VariantPrice) {
	if len(variants) == 0 {
		return
	}
	if c.Prices == nil {
		c.Prices = make(map[int]float64)
	}

	type parsed struct {
		grams      int
		price      float64
		confidence float64
	}
	var pairs []parsed
	for _, v := range variants {
		if v.Price <= 0 {
			continue
		}
		// Multi-packs like "2 x 250g" go first: the unit pattern would
		// otherwise read them as a single 250g bag at the pack price.
		if m := multiPackRe.FindStringSubmatch(strings.ToLower(v.Label)); m != nil {
			count, _ := strconv.Atoi(m[1])
			value, err := strconv.ParseFloat(m[2], 64)
			if err != nil || count <= 0 {
				continue
			}
			grams := int(value)
			if strings.Contains(m[3], "kg") {
				grams = int(value * 1000)
			}
			pairs = append(pairs, parsed{grams, v.Price / float64(count), 0.9})
			c.IsMultipack = true
			c.PackCount = count
			continue
		}
		if grams, conf := ParseWeight(v.Label); grams > 0 {
			pairs = append(pairs, parsed{grams, v.Price, conf})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].grams < pairs[j].grams })

	for _, p := range pairs {
		class := bucket(p.grams)
		c.Prices[class] = p.price
		c.SetConf(FieldName(class), p.confidence)
	}

	// Last resort: assume the first variant is the 250g offering.
	if len(c.Prices) == 0 {
		for _, v := range variants {
			if v.Price > 0 {
				c.Prices[250] = v.Price
				c.SetConf(FieldName(250), 0.3)
				break
			}
		}
	}

	Validate(c)
	Derive250(c)
}

// Validate checks per-gram price ordering across populated classes.
// A larger size more than 10% costlier per gram than the next smaller
// one is flagged for review, not corrected. A drop below 70% of the
// smaller size's per-gram price is an informational bulk-discount flag.
func Validate(c *types.ProductCandidate) {
	populated := make([]int, 0, len(c.Prices))
	for grams, p := range c.Prices {
		if p > 0 {
			populated = append(populated, grams)
		}
	}
	if len(populated) < 2 {
		return
	}
	sort.Ints(populated)

	for i := 0; i < len(populated)-1; i++ {
		small, large := populated[i], populated[i+1]
		perGramSmall := c.Prices[small] / float64(small)
		perGramLarge := c.Prices[large] / float64(large)

		if perGramLarge > perGramSmall*1.1 {
			c.Warnings = append(c.Warnings, types.ReconciliationWarning{
				Kind:  types.WarnPriceInconsistency,
				Grams: large,
				Message: fmt.Sprintf("%dg pack has higher price per gram than %dg pack",
					large, small),
			})
		} else if perGramLarge < perGramSmall*0.7 {
			c.Warnings = append(c.Warnings, types.ReconciliationWarning{
				Kind:  types.WarnBulkDiscountAnomaly,
				Grams: large,
				Message: fmt.Sprintf("%dg pack is unusually discounted against %dg pack",
					large, small),
			})
		}
	}
}

// derivation rules for the canonical 250g price, tried in order of
// reliability. The penalty decays the source class's confidence.
var derivations = []struct {
	source  int
	factor  float64
	penalty float64
}{
	{200, 1.25, 0.9},
	{500, 0.5, 0.8},
	{100, 2.5, 0.7},
	{750, 1.0 / 3.0, 0.7},
	{1000, 0.25, 0.7},
	{2000, 0.125, 0.6},
}

// Derive250 fills the 250g class by linear scaling from the nearest
// known class when it is absent.
func Derive250(c *types.ProductCandidate) {
	if _, ok := c.Prices[250]; ok {
		return
	}
	for _, d := range derivations {
		src, ok := c.Prices[d.source]
		if !ok || src <= 0 {
			continue
		}
		c.Prices[250] = src * d.factor
		srcConf := c.Conf(FieldName(d.source))
		if srcConf == 0 {
			srcConf = 0.7
		}
		c.SetConf(FieldName(250), srcConf*d.penalty)
		return
	}
}
