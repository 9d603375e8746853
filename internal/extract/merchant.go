package extract

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/roastlens/roastlens/internal/types"
)

var (
	emailRe       = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	mailtoRe      = regexp.MustCompile(`mailto:([\w.+-]+@[\w-]+\.[\w.-]+)`)
	telRe         = regexp.MustCompile(`tel:([\d\+\-\(\)\s]+)`)
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+91[-\s]?\d{3}[-\s]?\d{3}[-\s]?\d{4}`),
		regexp.MustCompile(`0?\d{3}[-\s]?\d{3}[-\s]?\d{4}`),
	}
	foundedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)founded in (\d{4})`),
		regexp.MustCompile(`(?i)established in (\d{4})`),
		regexp.MustCompile(`(?i)since (\d{4})`),
		regexp.MustCompile(`(?i)est\. (\d{4})`),
		regexp.MustCompile(`(?i)started in (\d{4})`),
		regexp.MustCompile(`(?i)began in (\d{4})`),
		regexp.MustCompile(`(?i)founded:?\s*(\d{4})`),
		regexp.MustCompile(`(?i)established:?\s*(\d{4})`),
	}
)

// socialPlatforms maps a platform to the host tokens that identify its
// profile links. Ordered so output is deterministic.
var socialPlatforms = []struct {
	name    string
	domains []string
}{
	{"facebook", []string{"facebook.com", "fb.com"}},
	{"twitter", []string{"twitter.com", "x.com"}},
	{"instagram", []string{"instagram.com"}},
	{"linkedin", []string{"linkedin.com"}},
	{"youtube", []string{"youtube.com"}},
}

var merchantTagIndicators = []struct {
	tag        string
	indicators []string
}{
	{"specialty", []string{"specialty", "speciality", "artisanal", "craft"}},
	{"organic", []string{"organic", "chemical-free", "sustainable"}},
	{"single-origin", []string{"single origin", "single estate", "micro lot"}},
	{"fair-trade", []string{"fair trade", "direct trade", "ethical"}},
	{"arabica", []string{"arabica", "100% arabica"}},
	{"robusta", []string{"robusta"}},
	{"subscription", []string{"subscription", "monthly delivery"}},
}

// ExtractMerchant fills merchant fields from a homepage. Existing
// non-empty fields are never overwritten; parse failure leaves the
// record untouched.
func ExtractMerchant(page []byte, m *types.MerchantRecord) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return
	}
	html := string(page)
	lower := strings.ToLower(html)

	if m.Description == "" {
		m.Description = merchantDescription(doc)
	}
	if m.LogoURL == "" {
		m.LogoURL = merchantLogo(doc, m.WebsiteURL)
	}
	if m.ContactEmail == "" {
		m.ContactEmail = merchantEmail(doc, html)
	}
	if m.ContactPhone == "" {
		m.ContactPhone = merchantPhone(doc, html)
	}
	if m.FoundedYear == 0 {
		m.FoundedYear = foundedYear(html)
	}
	if len(m.SocialLinks) == 0 {
		m.SocialLinks, m.InstagramHandle = socialLinks(doc)
	}
	if m.HasSubscription == nil {
		m.HasSubscription = boolPtr(containsAny(lower, []string{"subscription", "subscribe", "recurring", "monthly delivery"}))
	}
	if m.HasPhysicalStore == nil {
		m.HasPhysicalStore = boolPtr(hasPhysicalStore(doc, lower))
	}
	if len(m.Tags) == 0 {
		m.Tags = merchantTags(lower, m.Platform)
	}
}

// merchantDescription prefers the meta description, then falls back to
// the longest substantial paragraph that talks about coffee.
func merchantDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			desc := strings.TrimSpace(content)
			if desc != "" && !strings.HasPrefix(desc, "JavaScript seems to be disabled") {
				return desc
			}
		}
	}

	var best string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) < 100 {
			return
		}
		coffeeish := containsAny(strings.ToLower(text), []string{"coffee", "roast", "bean", "brew"})
		if coffeeish && !containsAny(strings.ToLower(best), []string{"coffee", "roast", "bean", "brew"}) {
			best = text
			return
		}
		if len(text) > len(best) {
			best = text
		}
	})
	return best
}

func merchantLogo(doc *goquery.Document, baseURL string) string {
	var logo string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if strings.Contains(strings.ToLower(src), "logo") {
			logo = src
			return false
		}
		return true
	})
	if logo == "" {
		logo, _ = doc.Find("header img").First().Attr("src")
	}
	if logo == "" {
		doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			rel, _ := s.Attr("rel")
			if strings.Contains(strings.ToLower(rel), "icon") {
				logo, _ = s.Attr("href")
				return logo == ""
			}
			return true
		})
	}
	if logo == "" {
		return ""
	}
	return absoluteURL(logo, baseURL)
}

func merchantEmail(doc *goquery.Document, html string) string {
	if href, ok := doc.Find(`a[href^="mailto:"]`).First().Attr("href"); ok {
		if m := mailtoRe.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	for _, prefix := range []string{"info@", "contact@", "hello@", "support@"} {
		re := regexp.MustCompile(regexp.QuoteMeta(prefix) + `[\w-]+\.[\w.-]+`)
		if m := re.FindString(html); m != "" {
			return m
		}
	}
	for _, candidate := range emailRe.FindAllString(html, -1) {
		if !containsAny(candidate, []string{"@example", "@domain", "@email", "filler@"}) {
			return candidate
		}
	}
	return ""
}

func merchantPhone(doc *goquery.Document, html string) string {
	if href, ok := doc.Find(`a[href^="tel:"]`).First().Attr("href"); ok {
		if m := telRe.FindStringSubmatch(href); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	for _, re := range phonePatterns {
		if m := re.FindString(html); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func foundedYear(html string) int {
	for _, re := range foundedPatterns {
		m := re.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if year > 1800 && year < time.Now().Year()+1 {
			return year
		}
	}
	return 0
}

func socialLinks(doc *goquery.Document) ([]string, string) {
	found := make(map[string]string)
	var handle string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.ToLower(href)
		for _, sp := range socialPlatforms {
			if _, seen := found[sp.name]; seen {
				continue
			}
			if !containsAny(href, sp.domains) {
				continue
			}
			found[sp.name] = href
			if sp.name == "instagram" && !strings.Contains(href, "/p/") {
				if _, rest, ok := strings.Cut(href, "instagram.com/"); ok {
					h := strings.SplitN(rest, "/", 2)[0]
					if h != "" && !strings.HasPrefix(h, "?") {
						handle = h
					}
				}
			}
			break
		}
	})

	var links []string
	for _, sp := range socialPlatforms {
		if link, ok := found[sp.name]; ok {
			links = append(links, link)
		}
	}
	return links, handle
}

func hasPhysicalStore(doc *goquery.Document, lower string) bool {
	mapped := false
	doc.Find("iframe[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		src = strings.ToLower(src)
		if strings.Contains(src, "map") || strings.Contains(src, "google.com/maps") {
			mapped = true
			return false
		}
		return true
	})
	if mapped {
		return true
	}
	return containsAny(lower, []string{
		"visit us", "our store", "physical location", "cafe",
		"directions", "opening hours", "coffee shop",
	})
}

func merchantTags(lower, platform string) []string {
	var tags []string
	for _, ti := range merchantTagIndicators {
		if containsAny(lower, ti.indicators) {
			tags = append(tags, ti.tag)
		}
	}
	if platform != "" && platform != "unknown" && platform != "static" {
		tags = append(tags, platform)
	}
	return tags
}

func absoluteURL(href, baseURL string) string {
	switch {
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"), strings.HasPrefix(href, "//"):
		return href
	case strings.HasPrefix(href, "/"):
		return strings.TrimRight(baseURL, "/") + href
	default:
		return strings.TrimRight(baseURL, "/") + "/" + href
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
