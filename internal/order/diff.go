package order

import "fmt"

// ChangeEntry is one added or cancelled order line.
type ChangeEntry struct {
	Date   string       `json:"date"`
	Person string       `json:"person"`
	Size   SizeCategory `json:"size"`
	Count  int          `json:"count"`
}

// QuantityChange reports the total unit count for one (date, size) group
// before and after, ignoring who ordered.
type QuantityChange struct {
	Date   string       `json:"date"`
	Size   SizeCategory `json:"size"`
	Before int          `json:"before"`
	After  int          `json:"after"`
}

// ChangeSet is the result of comparing two order snapshots. Added and
// Cancelled carry no ordering guarantee; QuantityChanges holds only groups
// whose totals differ.
type ChangeSet struct {
	Added           []ChangeEntry    `json:"added"`
	Cancelled       []ChangeEntry    `json:"cancelled"`
	QuantityChanges []QuantityChange `json:"quantity_changes"`
}

// HasChanges reports whether any order line was added or cancelled.
// Quantity deltas alone do not trigger the change path.
func (c ChangeSet) HasChanges() bool {
	return len(c.Added) > 0 || len(c.Cancelled) > 0
}

// changeKey identifies an order line for diffing. Count is part of the
// identity, so a count change surfaces as one cancellation plus one
// addition rather than a modification. Records producing the same key
// collapse to a single entry.
func changeKey(r Record) string {
	return fmt.Sprintf("%s|%s|%s|%d", r.Date, r.Person, NormalizeSize(r.Size), r.NormalizedCount())
}

// Diff compares a previous order snapshot against the current ledger state
// and returns the symmetric difference plus per-(date,size) quantity deltas.
func Diff(previous, current []Record) ChangeSet {
	prevByKey := make(map[string]Record, len(previous))
	for _, r := range previous {
		prevByKey[changeKey(r)] = r
	}
	currByKey := make(map[string]Record, len(current))
	for _, r := range current {
		currByKey[changeKey(r)] = r
	}

	var added []ChangeEntry
	for key, r := range currByKey {
		if _, ok := prevByKey[key]; !ok {
			added = append(added, toEntry(r))
		}
	}

	var cancelled []ChangeEntry
	for key, r := range prevByKey {
		if _, ok := currByKey[key]; !ok {
			cancelled = append(cancelled, toEntry(r))
		}
	}

	return ChangeSet{
		Added:           added,
		Cancelled:       cancelled,
		QuantityChanges: quantityChanges(previous, current),
	}
}

func toEntry(r Record) ChangeEntry {
	return ChangeEntry{
		Date:   r.Date,
		Person: r.Person,
		Size:   NormalizeSize(r.Size),
		Count:  r.NormalizedCount(),
	}
}

// quantityChanges groups both snapshots by (date, normalized size) and keeps
// the groups whose totals moved. Person-level churn that nets out to the
// same total produces no entry here.
func quantityChanges(previous, current []Record) []QuantityChange {
	type groupKey struct {
		date string
		size SizeCategory
	}
	groups := make(map[groupKey]*QuantityChange)

	touch := func(r Record) *QuantityChange {
		key := groupKey{date: r.Date, size: NormalizeSize(r.Size)}
		qc, ok := groups[key]
		if !ok {
			qc = &QuantityChange{Date: key.date, Size: key.size}
			groups[key] = qc
		}
		return qc
	}

	for _, r := range previous {
		touch(r).Before += r.NormalizedCount()
	}
	for _, r := range current {
		touch(r).After += r.NormalizedCount()
	}

	var changed []QuantityChange
	for _, qc := range groups {
		if qc.Before != qc.After {
			changed = append(changed, *qc)
		}
	}
	return changed
}
