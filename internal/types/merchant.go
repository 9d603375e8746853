package types

// Site is a crawl target. Platform fields are mutable until the
// classifier reports confidence at or above threshold, then frozen for
// the run.
type Site struct {
	Name               string
	BaseURL            string
	DetectedPlatform   string
	PlatformConfidence int
}

// MerchantRecord is the persisted roaster entity. Identity fields
// (Name, Slug) are immutable once created; everything else is mutated
// only through the sync engine's merge, never overwritten wholesale.
type MerchantRecord struct {
	ID               string
	Name             string
	Slug             string
	WebsiteURL       string
	Description      string
	Address          string
	Country          string
	City             string
	State            string
	FoundedYear      int
	LogoURL          string
	ImageURL         string
	ContactEmail     string
	ContactPhone     string
	SocialLinks      []string
	InstagramHandle  string
	HasSubscription  *bool
	HasPhysicalStore *bool
	Platform         string
	Tags             []string
	IsActive         bool
	IsVerified       bool

	Confidence map[string]float64
}

// Document converts the record to the keyed-document shape the store
// works with. Zero-valued optional fields map to nil so the sync engine
// can tell "absent" from "empty" when merging.
func (m *MerchantRecord) Document() map[string]any {
	doc := map[string]any{
		"name":        m.Name,
		"slug":        m.Slug,
		"website_url": m.WebsiteURL,
		"is_active":   m.IsActive,
	}
	putString(doc, "description", m.Description)
	putString(doc, "address", m.Address)
	putString(doc, "country", m.Country)
	putString(doc, "city", m.City)
	putString(doc, "state", m.State)
	putString(doc, "logo_url", m.LogoURL)
	putString(doc, "image_url", m.ImageURL)
	putString(doc, "contact_email", m.ContactEmail)
	putString(doc, "contact_phone", m.ContactPhone)
	putString(doc, "instagram_handle", m.InstagramHandle)
	putString(doc, "platform", m.Platform)
	if m.FoundedYear > 0 {
		doc["founded_year"] = m.FoundedYear
	} else {
		doc["founded_year"] = nil
	}
	putStrings(doc, "social_links", m.SocialLinks)
	putStrings(doc, "tags", m.Tags)
	putBool(doc, "has_subscription", m.HasSubscription)
	putBool(doc, "has_physical_store", m.HasPhysicalStore)
	return doc
}

// Document converts the candidate to its store document. Child
// collections (prices, flavor profiles, brew methods) are excluded: they
// live in their own record types and are fully scraper-owned.
func (c *ProductCandidate) Document() map[string]any {
	doc := map[string]any{
		"name":           c.Name,
		"slug":           c.Slug,
		"merchant_id":    c.MerchantID,
		"direct_buy_url": c.SourceURL,
		"is_available":   c.IsAvailable,
		"is_blend":       c.IsBlend,
	}
	putString(doc, "description", c.Description)
	putString(doc, "image_url", c.ImageURL)
	putString(doc, "roast_level", c.RoastLevel)
	putString(doc, "bean_type", c.BeanType)
	putString(doc, "processing_method", c.ProcessingMethod)
	putString(doc, "region_name", c.RegionName)
	putString(doc, "acidity", c.Acidity)
	putString(doc, "sweetness", c.Sweetness)
	putString(doc, "body", c.Body)
	putString(doc, "aroma", c.Aroma)
	putStrings(doc, "varietals", c.Varietals)
	putStrings(doc, "tags", c.Tags)
	putBool(doc, "is_single_origin", c.IsSingleOrigin)
	putBool(doc, "is_seasonal", c.IsSeasonal)
	putBool(doc, "with_milk_suitable", c.WithMilkSuitable)
	if p, ok := c.Prices[250]; ok {
		doc["price_250g"] = p
	} else {
		doc["price_250g"] = nil
	}
	return doc
}

func putString(doc map[string]any, key, val string) {
	if val != "" {
		doc[key] = val
	} else {
		doc[key] = nil
	}
}

func putStrings(doc map[string]any, key string, vals []string) {
	if len(vals) > 0 {
		doc[key] = vals
	} else {
		doc[key] = nil
	}
}

func putBool(doc map[string]any, key string, val *bool) {
	if val != nil {
		doc[key] = *val
	} else {
		doc[key] = nil
	}
}
