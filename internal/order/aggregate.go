package order

// DailyCounts holds unit totals per size category for a single date.
type DailyCounts struct {
	Large   int `json:"large"`
	Regular int `json:"regular"`
	Small   int `json:"small"`
}

// Total returns the sum across all size categories.
func (d DailyCounts) Total() int {
	return d.Large + d.Regular + d.Small
}

// Get returns the count for one category.
func (d DailyCounts) Get(size SizeCategory) int {
	switch size {
	case SizeLarge:
		return d.Large
	case SizeSmall:
		return d.Small
	default:
		return d.Regular
	}
}

// Aggregated maps a date (YYYY/MM/DD) to its per-size totals. Dates with no
// records are absent from the map; callers treat missing dates as all-zero.
type Aggregated map[string]DailyCounts

// AggregateByDateAndSize sums record counts into (date, normalized size)
// buckets. Accumulation is commutative: input order does not affect the
// result.
func AggregateByDateAndSize(records []Record) Aggregated {
	agg := make(Aggregated, len(records))
	for _, r := range records {
		counts := agg[r.Date]
		switch NormalizeSize(r.Size) {
		case SizeLarge:
			counts.Large += r.NormalizedCount()
		case SizeSmall:
			counts.Small += r.NormalizedCount()
		default:
			counts.Regular += r.NormalizedCount()
		}
		agg[r.Date] = counts
	}
	return agg
}
