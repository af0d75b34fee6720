package classify

import "sort"

// regionKeywords maps each known region to the keywords that identify it.
// Keywords are matched case-sensitively, so proper nouns stay proper nouns.
var regionKeywords = map[string][]string{
	"Arizona":        {"Arizona", "Phoenix", "Tucson", "Scottsdale", "Mesa"},
	"California":     {"California", "Los Angeles", "San Francisco", "Sacramento", "San Diego", "Silicon Valley"},
	"Colorado":       {"Colorado", "Denver", "Boulder", "Colorado Springs"},
	"Florida":        {"Florida", "Miami", "Orlando", "Tampa", "Jacksonville"},
	"Georgia":        {"Georgia", "Atlanta", "Savannah", "Augusta"},
	"Illinois":       {"Illinois", "Chicago", "Springfield"},
	"Massachusetts":  {"Massachusetts", "Boston", "Cambridge", "Worcester"},
	"Michigan":       {"Michigan", "Detroit", "Grand Rapids", "Ann Arbor"},
	"Nevada":         {"Nevada", "Las Vegas", "Reno"},
	"New York":       {"New York", "NYC", "Manhattan", "Brooklyn", "Albany"},
	"North Carolina": {"North Carolina", "Charlotte", "Raleigh", "Durham"},
	"Ohio":           {"Ohio", "Columbus", "Cleveland", "Cincinnati"},
	"Oregon":         {"Oregon", "Portland", "Eugene", "Salem"},
	"Pennsylvania":   {"Pennsylvania", "Philadelphia", "Pittsburgh"},
	"Texas":          {"Texas", "Houston", "Dallas", "Austin", "San Antonio"},
	"Washington":     {"Washington", "Seattle", "Tacoma", "Spokane"},
}

// allRegions holds the region names in canonical (sorted) order so
// classification over the full table is order-stable.
var allRegions = func() []string {
	names := make([]string, 0, len(regionKeywords))
	for name := range regionKeywords {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

// Regions returns all known regions in canonical order.
func Regions() []string {
	out := make([]string, len(allRegions))
	copy(out, allRegions)
	return out
}

// Keywords returns the keyword list for a region, or nil if unknown.
func Keywords(region string) []string {
	return regionKeywords[region]
}
