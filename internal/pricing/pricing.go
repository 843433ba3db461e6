// Package pricing holds the tiered per-unit price table and the monthly
// order aggregation used to cross-check vendor invoices.
package pricing

import (
	"github.com/interh852/lunch-order/internal/invoice"
	"github.com/interh852/lunch-order/internal/order"
)

// Tier boundaries fixed by the vendor's volume discount: the monthly total
// unit count, summed across all sizes, selects the tier.
const (
	tier1Max = 8
	tier2Max = 13
)

// SizePrices holds per-unit prices keyed by size category, for the price
// schedule that charges sizes differently.
type SizePrices struct {
	Large   int `json:"large"`
	Regular int `json:"regular"`
	Small   int `json:"small"`
}

// Table maps each volume tier to its unit price. Exactly one of the two
// schedules is active: Flat (one price per tier regardless of size) or
// PerSize (a price per size per tier).
type Table struct {
	Flat    *FlatPrices    `json:"flat,omitempty"`
	PerSize *PerSizePrices `json:"per_size,omitempty"`
}

// FlatPrices is the single-unit-price schedule, one price per tier.
type FlatPrices struct {
	Range1To8   int `json:"range_1_8"`
	Range9To13  int `json:"range_9_13"`
	Range14Plus int `json:"range_14_plus"`
}

// PerSizePrices is the per-size schedule, one price row per tier.
type PerSizePrices struct {
	Range1To8   SizePrices `json:"range_1_8"`
	Range9To13  SizePrices `json:"range_9_13"`
	Range14Plus SizePrices `json:"range_14_plus"`
}

// flatFor returns the flat unit price for a monthly total. Zero orders
// select no tier.
func (p *FlatPrices) flatFor(totalCount int) int {
	switch {
	case totalCount >= tier2Max+1:
		return p.Range14Plus
	case totalCount >= tier1Max+1:
		return p.Range9To13
	case totalCount >= 1:
		return p.Range1To8
	default:
		return 0
	}
}

// sizesFor returns the per-size price row for a monthly total.
func (p *PerSizePrices) sizesFor(totalCount int) SizePrices {
	switch {
	case totalCount >= tier2Max+1:
		return p.Range14Plus
	case totalCount >= tier1Max+1:
		return p.Range9To13
	case totalCount >= 1:
		return p.Range1To8
	default:
		return SizePrices{}
	}
}

// AggregateMonth filters records to the target month (YYYY/MM), sums counts
// per normalized size, and prices the total with the table. The result has
// the same shape as an extracted invoice so the two can be reconciled.
func AggregateMonth(records []order.Record, targetMonth string, table Table) invoice.Summary {
	var large, regular, small int
	for _, r := range records {
		if order.MonthOf(r.Date) != targetMonth {
			continue
		}
		switch order.NormalizeSize(r.Size) {
		case order.SizeLarge:
			large += r.NormalizedCount()
		case order.SizeSmall:
			small += r.NormalizedCount()
		default:
			regular += r.NormalizedCount()
		}
	}
	total := large + regular + small

	summary := invoice.Summary{
		TargetMonth:  targetMonth,
		CountLarge:   large,
		CountRegular: regular,
		CountSmall:   small,
		TotalCount:   total,
	}

	switch {
	case table.PerSize != nil:
		prices := table.PerSize.sizesFor(total)
		summary.TotalAmount = large*prices.Large + regular*prices.Regular + small*prices.Small
	case table.Flat != nil:
		unit := table.Flat.flatFor(total)
		summary.UnitPrice = unit
		summary.TotalAmount = total * unit
	}
	return summary
}
