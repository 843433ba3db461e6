// Package invoice defines the invoice summary shape and the reconciliation
// check that gates any financial action on an extracted invoice.
package invoice

import "fmt"

// Summary describes one monthly lunch invoice: either extracted from a
// vendor PDF by the LLM (untrusted until reconciled) or computed from the
// order ledger and the price table.
type Summary struct {
	// TargetMonth in YYYY/MM form
	TargetMonth string `json:"targetMonth"`

	CountLarge   int `json:"countLarge"`
	CountRegular int `json:"countRegular"`
	CountSmall   int `json:"countSmall"`
	TotalCount   int `json:"totalCount"`

	// UnitPrice is set only under the flat price schedule
	UnitPrice int `json:"unitPrice,omitempty"`

	// TotalAmount in yen
	TotalAmount int `json:"totalAmount"`
}

// Result is the outcome of reconciling an extracted invoice against the
// system aggregate. A mismatch is a legitimate terminal state, not an error.
type Result struct {
	IsMatch bool     `json:"is_match"`
	Diffs   []string `json:"diffs"`
}

// Reconcile compares the extracted invoice against the system aggregate for
// the same month. Totals are financial integers compared for exact equality;
// each mismatched field contributes one readable diff line.
func Reconcile(inv, system Summary) Result {
	var diffs []string

	if inv.TotalCount != system.TotalCount {
		diffs = append(diffs, fmt.Sprintf(
			"total count mismatch: invoice=%d, system=%d", inv.TotalCount, system.TotalCount))
	}
	if inv.TotalAmount != system.TotalAmount {
		diffs = append(diffs, fmt.Sprintf(
			"total amount mismatch: invoice=%d, system=%d", inv.TotalAmount, system.TotalAmount))
	}

	return Result{
		IsMatch: len(diffs) == 0,
		Diffs:   diffs,
	}
}
