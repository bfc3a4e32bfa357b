package cities

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the records whose name or country contains search,
// ignoring case. An empty search returns records itself, not a copy.
func Filter(records []Record, search string) []Record {
	if search == "" {
		return records
	}

	needle := fold(search)
	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		if matchesFolded(r, needle) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func matchesFolded(r Record, needle string) bool {
	return strings.Contains(fold(r.Name), needle) || strings.Contains(fold(r.Country), needle)
}

// fold applies Unicode case folding. A Caser is stateful, so a fresh one is
// taken per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
