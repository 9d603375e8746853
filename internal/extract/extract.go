package extract

import (
	"strings"

	"github.com/roastlens/roastlens/internal/types"
)

// EnrichCandidate runs every attribute extractor over a candidate's
// text, tags, and structured hints, writing each value together with
// its confidence. Overwrite policy lives here, not in the extractors:
// an existing value is only replaced when the new evidence carries
// strictly higher confidence.
func EnrichCandidate(c *types.ProductCandidate, raw *types.RawProduct) {
	text := raw.Description
	tags := raw.Tags
	hints := raw.StructuredHints

	if roast, conf := ExtractRoastLevel(text, tags, hints); roast != "" {
		if c.RoastLevel == "" || c.Stronger("roast_level", conf) {
			c.RoastLevel = roast
			c.SetConf("roast_level", conf)
		}
	}

	if bean, conf := ExtractBeanType(text, tags, hints); bean != "" {
		if c.BeanType == "" || c.Stronger("bean_type", conf) {
			c.BeanType = bean
			c.SetConf("bean_type", conf)
		}
	}

	if process, conf := ExtractProcessingMethod(text, tags, hints); process != "" {
		if c.ProcessingMethod == "" || c.Stronger("processing_method", conf) {
			c.ProcessingMethod = process
			c.SetConf("processing_method", conf)
		}
	}

	if flavors, conf := ExtractFlavorProfiles(text, tags, hints); len(flavors) > 0 {
		if len(c.FlavorProfiles) == 0 || c.Stronger("flavor_profiles", conf) {
			c.FlavorProfiles = flavors
			c.SetConf("flavor_profiles", conf)
		}
	}

	if methods := ExtractBrewMethods(text); len(methods) > 0 && len(c.BrewMethods) == 0 {
		c.BrewMethods = methods
	}

	if acidity, conf := ExtractAcidity(text, tags, hints); acidity != "" {
		if c.Acidity == "" || c.Stronger("acidity", conf) {
			c.Acidity = acidity
			c.SetConf("acidity", conf)
		}
	}

	if sweetness, conf := ExtractSweetness(text, tags, hints); sweetness != "" {
		if c.Sweetness == "" || c.Stronger("sweetness", conf) {
			c.Sweetness = sweetness
			c.SetConf("sweetness", conf)
		}
	}

	if body, conf := ExtractBody(text, tags, hints); body != "" {
		if c.Body == "" || c.Stronger("body", conf) {
			c.Body = body
			c.SetConf("body", conf)
		}
	}

	if aroma, conf := ExtractAroma(text, tags, hints); aroma != "" {
		if c.Aroma == "" || c.Stronger("aroma", conf) {
			c.Aroma = aroma
			c.SetConf("aroma", conf)
		}
	}

	if milk, conf := DetectWithMilkSuitable(text, tags, hints); conf > 0 {
		if c.WithMilkSuitable == nil || c.Stronger("with_milk_suitable", conf) {
			c.WithMilkSuitable = boolPtr(milk)
			c.SetConf("with_milk_suitable", conf)
		}
	}

	if varietals, conf := ExtractVarietals(text, tags); len(varietals) > 0 && len(c.Varietals) == 0 {
		c.Varietals = varietals
		c.SetConf("varietals", conf)
	}

	if single, conf := DetectSingleOrigin(c.Name, text, tags); conf > 0 {
		if c.IsSingleOrigin == nil || c.Stronger("is_single_origin", conf) {
			c.IsSingleOrigin = boolPtr(single)
			c.SetConf("is_single_origin", conf)
		}
	}

	if seasonal, conf := DetectSeasonal(c.Name, text, tags); conf > 0 {
		if c.IsSeasonal == nil || c.Stronger("is_seasonal", conf) {
			c.IsSeasonal = boolPtr(seasonal)
			c.SetConf("is_seasonal", conf)
		}
	}

	deriveBlend(c)
}

// deriveBlend sets the blend flag from evidence already on the
// candidate. Blend status is derived, never extracted directly.
func deriveBlend(c *types.ProductCandidate) {
	blend := false

	if beanType, isBlend := percentPairBeanType(c.Name); isBlend {
		blend = true
		if c.BeanType == "" && beanType != "" {
			c.BeanType = beanType
			c.SetConf("bean_type", 0.9)
		}
	}

	switch {
	case c.BeanType == "blend":
		blend = true
	case c.IsSingleOrigin != nil && !*c.IsSingleOrigin:
		blend = true
	case strings.Contains(strings.ToLower(c.Name), "blend"):
		blend = true
	}

	if blend {
		c.IsBlend = true
		switch {
		case c.IsSingleOrigin == nil:
			c.IsSingleOrigin = boolPtr(false)
		case *c.IsSingleOrigin && c.Stronger("is_single_origin", 0.85):
			// Explicit blend evidence outranks the weak no-blend-words lean.
			c.IsSingleOrigin = boolPtr(false)
			c.SetConf("is_single_origin", 0.85)
		}
	}
}

func boolPtr(b bool) *bool { return &b }
