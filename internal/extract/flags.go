package extract

import (
	"regexp"
	"strings"
)

var (
	singleOriginRe = regexp.MustCompile(`\bsingle[\s-]*origin\b`)
	blendWordRe    = regexp.MustCompile(`\bblend\b`)
	mixWordRe      = regexp.MustCompile(`\bmix\b`)
	singleFarmRe   = regexp.MustCompile(`\bsingle\s+farm\b|\bone\s+farm\b`)

	// Two "<N>% <bean>" fragments in a name mark an explicit blend.
	percentPairRe = regexp.MustCompile(`(\d+)%\s*([a-zA-Z]+).*?(\d+)%\s*([a-zA-Z]+)`)
)

var originIndicators = []string{
	"estate", "farm", "ethiopia", "colombian", "kenya", "sumatra",
	"guatemala", "brazil", "costa rica", "honduras", "rwanda",
	"burundi", "el salvador", "nicaragua", "panama", "indonesia",
	"india", "vietnam", "mexico", "peru", "jamaica", "hawaii", "kona",
}

// DetectSingleOrigin decides whether a product is single origin rather
// than a blend. Evidence order: explicit wording, tags, origin names in
// the product name, blend wording, then a weak single-origin lean when
// nothing suggests a blend.
func DetectSingleOrigin(name, text string, tags []string) (bool, float64) {
	nameL, textL := strings.ToLower(name), strings.ToLower(text)

	if singleOriginRe.MatchString(nameL) || singleOriginRe.MatchString(textL) {
		return true, 0.95
	}

	for _, tag := range tags {
		tagL := strings.ToLower(tag)
		if singleOriginRe.MatchString(tagL) {
			return true, 0.9
		}
		if blendWordRe.MatchString(tagL) {
			return false, 0.9
		}
	}

	for _, origin := range originIndicators {
		if wordMatch(nameL, origin) {
			return true, 0.85
		}
	}

	if blendWordRe.MatchString(nameL) || mixWordRe.MatchString(nameL) {
		return false, 0.85
	}

	if singleFarmRe.MatchString(textL) {
		return true, 0.8
	}

	if strings.Contains(textL, "from") || strings.Contains(textL, "origin") || strings.Contains(textL, "region") {
		for _, origin := range originIndicators {
			if wordMatch(textL, origin) {
				return true, 0.75
			}
		}
	}

	if !blendWordRe.MatchString(textL) && !mixWordRe.MatchString(textL) {
		return true, 0.6
	}

	return false, 0
}

var seasonalTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bseasonal\b`),
	regexp.MustCompile(`\blimited\s+(?:time|edition|release|availability)\b`),
	regexp.MustCompile(`\bavailable\s+(?:only|just)\s+for\b`),
	regexp.MustCompile(`\bspecial\s+harvest\b`),
	regexp.MustCompile(`\bshort\s+time\b`),
	regexp.MustCompile(`\bwhile\s+supplies\s+last\b`),
}

var seasonWords = []string{
	"summer", "winter", "spring", "autumn", "fall",
	"holiday", "christmas", "festival",
}

var seasonalTagRe = regexp.MustCompile(`\bseasonal\b|\blimited\b`)

// DetectSeasonal decides whether a product is a seasonal or limited
// release.
func DetectSeasonal(name, text string, tags []string) (bool, float64) {
	for _, tag := range tags {
		if seasonalTagRe.MatchString(strings.ToLower(tag)) {
			return true, 0.9
		}
	}

	nameL, textL := strings.ToLower(name), strings.ToLower(text)
	if seasonalTagRe.MatchString(nameL) {
		return true, 0.85
	}

	for _, re := range seasonalTextPatterns {
		if re.MatchString(textL) {
			return true, 0.8
		}
	}

	for _, season := range seasonWords {
		if wordMatch(nameL, season) {
			return true, 0.8
		}
		if wordMatch(textL, season) {
			return true, 0.7
		}
	}

	return false, 0
}

// percentPairBeanType inspects a name like "60% Arabica 40% Robusta"
// and, when both species appear, returns the combined bean type.
func percentPairBeanType(name string) (beanType string, isBlend bool) {
	m := percentPairRe.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return "", false
	}
	b1, b2 := m[2], m[4]
	if (strings.Contains(b1, "arabica") && strings.Contains(b2, "robusta")) ||
		(strings.Contains(b1, "robusta") && strings.Contains(b2, "arabica")) {
		return "arabica-robusta", true
	}
	return "", true
}
