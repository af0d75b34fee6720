// Package classify assigns a geographic region to free-form article text
// using a keyword containment heuristic.
package classify

import "strings"

// General is the sentinel region returned when no keyword matches.
const General = "General"

// Classify returns the first region whose keywords occur as a substring of
// title or description. When candidates is non-empty, only those regions are
// considered, in the order given; otherwise the full region table is searched
// in canonical order. Matching is case-sensitive with no tokenization, and
// the function is pure: identical inputs always produce the same region.
func Classify(title, description string, candidates []string) string {
	regions := candidates
	if len(regions) == 0 {
		regions = allRegions
	}
	for _, region := range regions {
		for _, kw := range regionKeywords[region] {
			if strings.Contains(title, kw) || strings.Contains(description, kw) {
				return region
			}
		}
	}
	return General
}
