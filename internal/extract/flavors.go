package extract

import (
	"regexp"
	"sort"
	"strings"
)

var knownFlavors = []string{
	"chocolate", "cocoa", "nutty", "nuts", "almond", "hazelnut",
	"caramel", "toffee", "butterscotch", "fruity", "berry", "blueberry",
	"strawberry", "cherry", "citrus", "lemon", "orange", "lime",
	"floral", "jasmine", "rose", "spice", "cinnamon", "vanilla",
	"earthy", "woody", "tobacco", "cedar", "honey", "maple", "malt",
	"molasses", "stone fruit", "peach", "apricot", "plum", "tropical",
	"pineapple", "mango", "coconut", "apple", "pear", "wine", "winey",
	"grapes", "blackcurrant", "melon", "herbal", "roasted",
}

var (
	notesOfPattern = regexp.MustCompile(`(?:notes|flavors|flavours|aromas|tasting\s*profile)\s+of\s+([\w\s,&+]+)`)

	// Explicitly labeled flavor sections, e.g.
	// "FLAVOUR NOTES: ..." or "Taste Notes - Juicy Mango, Mixed berries"
	flavorSectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)(?:flavour|flavor)\s+notes:\s*(.*?)(?:\.|$)`),
		regexp.MustCompile(`(?is)taste\s+notes\s*[-:]\s*(.*?)(?:\.|$)`),
	}
)

func flavorsIn(text string) []string {
	seen := make(map[string]struct{})
	for _, f := range knownFlavors {
		if strings.Contains(text, f) {
			seen[f] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ExtractFlavorProfiles finds tasting notes. Explicit "notes of" and
// labeled flavor sections are preferred over incidental whole-text
// mentions because enumeration is higher precision.
func ExtractFlavorProfiles(text string, tags []string, hints map[string]any) ([]string, float64) {
	if hints != nil {
		for _, k := range []string{"flavor_profiles", "flavor_notes", "tasting_notes", "flavors"} {
			if v, ok := hints[k]; ok {
				if flavors := hintFlavors(v); len(flavors) > 0 {
					return flavors, 0.95
				}
			}
		}
	}

	var fromTags []string
	for _, tag := range tags {
		fromTags = append(fromTags, flavorsIn(strings.ToLower(strings.TrimSpace(tag)))...)
	}
	if len(fromTags) > 0 {
		return dedupe(fromTags), 0.9
	}

	lower := strings.ToLower(text)
	if m := notesOfPattern.FindStringSubmatch(lower); m != nil {
		if flavors := flavorsIn(m[1]); len(flavors) > 0 {
			return flavors, 0.85
		}
	}

	for _, re := range flavorSectionPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if flavors := flavorsIn(strings.ToLower(m[1])); len(flavors) > 0 {
				return flavors, 0.8
			}
		}
	}

	if flavors := flavorsIn(lower); len(flavors) > 0 {
		return flavors, 0.7
	}

	return nil, 0
}

// hintFlavors filters a structured hint list down to known flavors.
func hintFlavors(v any) []string {
	var raw []string
	switch list := v.(type) {
	case []string:
		raw = list
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	var out []string
	for _, f := range raw {
		lower := strings.ToLower(f)
		for _, kf := range knownFlavors {
			if strings.Contains(lower, kf) {
				out = append(out, lower)
				break
			}
		}
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
