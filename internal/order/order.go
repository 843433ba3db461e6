package order

import "strings"

// DateLayout is the canonical calendar-date form used across the system.
// Ledger rows, snapshots and period keys all carry dates in this format.
const DateLayout = "2006/01/02"

// SizeCategory is a normalized lunch size.
type SizeCategory string

const (
	SizeLarge   SizeCategory = "large"
	SizeRegular SizeCategory = "regular"
	SizeSmall   SizeCategory = "small"
)

// Size keywords accepted in free-text input. Matching is substring-based
// and case-sensitive: a lone uppercase L or S marks a size, while the
// lowercase letters inside ordinary words do not.
var (
	largeKeywords = []string{"large", "L", "大"}
	smallKeywords = []string{"small", "S", "小"}
)

// Record is one line of a lunch order: one person, one date, one size.
// Records originate in the external order ledger and are never mutated here.
type Record struct {
	// Date in YYYY/MM/DD form
	Date string

	// Person is the name of the orderer
	Person string

	// Size is the raw size text as entered; normalize before comparing
	Size string

	// Count is the number of units; values below 1 are treated as 1
	Count int
}

// NormalizedCount returns the effective unit count for a record.
// The ledger leaves the count cell blank for single orders.
func (r Record) NormalizedCount() int {
	if r.Count < 1 {
		return 1
	}
	return r.Count
}

// NormalizeSize maps free-text size input to a category. Large keywords win
// over small keywords; anything else, including empty input, is regular.
// The function is total and idempotent: canonical category names never
// contain a keyword of the opposite category.
func NormalizeSize(raw string) SizeCategory {
	if raw == "" {
		return SizeRegular
	}
	for _, kw := range largeKeywords {
		if strings.Contains(raw, kw) {
			return SizeLarge
		}
	}
	for _, kw := range smallKeywords {
		if strings.Contains(raw, kw) {
			return SizeSmall
		}
	}
	return SizeRegular
}
