package pricing

import (
	"testing"

	"github.com/interh852/lunch-order/internal/order"
)

func flatTable() Table {
	return Table{Flat: &FlatPrices{Range1To8: 700, Range9To13: 680, Range14Plus: 650}}
}

func recordsWithTotal(n int) []order.Record {
	records := make([]order.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, order.Record{
			Date: "2025/12/16", Person: "P", Size: "regular", Count: 1,
		})
	}
	return records
}

func TestAggregateMonth_TierBoundaries(t *testing.T) {
	tests := []struct {
		totalCount int
		wantUnit   int
	}{
		{1, 700},
		{8, 700},  // top of tier 1
		{9, 680},  // bottom of tier 2
		{13, 680}, // top of tier 2
		{14, 650}, // bottom of tier 3
		{50, 650},
	}
	for _, tt := range tests {
		got := AggregateMonth(recordsWithTotal(tt.totalCount), "2025/12", flatTable())
		if got.UnitPrice != tt.wantUnit {
			t.Errorf("totalCount=%d: UnitPrice = %d, want %d", tt.totalCount, got.UnitPrice, tt.wantUnit)
		}
		if got.TotalAmount != tt.totalCount*tt.wantUnit {
			t.Errorf("totalCount=%d: TotalAmount = %d, want %d", tt.totalCount, got.TotalAmount, tt.totalCount*tt.wantUnit)
		}
	}
}

func TestAggregateMonth_ZeroOrders(t *testing.T) {
	got := AggregateMonth(nil, "2025/12", flatTable())
	if got.TotalCount != 0 || got.UnitPrice != 0 || got.TotalAmount != 0 {
		t.Errorf("empty month should price as zero: %+v", got)
	}
}

func TestAggregateMonth_FiltersByMonth(t *testing.T) {
	records := []order.Record{
		{Date: "2025/12/16", Person: "A", Size: "regular", Count: 1},
		{Date: "2025/11/28", Person: "B", Size: "regular", Count: 5},
		{Date: "2026/01/05", Person: "C", Size: "regular", Count: 5},
	}
	got := AggregateMonth(records, "2025/12", flatTable())
	if got.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1 (other months excluded)", got.TotalCount)
	}
}

func TestAggregateMonth_SizeSplit(t *testing.T) {
	records := []order.Record{
		{Date: "2025/12/16", Person: "A", Size: "L", Count: 2},
		{Date: "2025/12/16", Person: "B", Size: "regular", Count: 3},
		{Date: "2025/12/17", Person: "C", Size: "small", Count: 1},
		{Date: "2025/12/17", Person: "D", Size: "", Count: 0}, // blank size/count: one regular
	}
	got := AggregateMonth(records, "2025/12", flatTable())

	if got.CountLarge != 2 || got.CountRegular != 4 || got.CountSmall != 1 {
		t.Errorf("size split = %d/%d/%d, want 2/4/1", got.CountLarge, got.CountRegular, got.CountSmall)
	}
	if got.TotalCount != 7 {
		t.Errorf("TotalCount = %d, want 7", got.TotalCount)
	}
	if got.TotalAmount != 7*700 {
		t.Errorf("TotalAmount = %d, want %d", got.TotalAmount, 7*700)
	}
}

func TestAggregateMonth_PerSizeSchedule(t *testing.T) {
	table := Table{PerSize: &PerSizePrices{
		Range1To8:   SizePrices{Large: 800, Regular: 700, Small: 600},
		Range9To13:  SizePrices{Large: 780, Regular: 680, Small: 580},
		Range14Plus: SizePrices{Large: 750, Regular: 650, Small: 550},
	}}

	records := []order.Record{
		{Date: "2025/12/16", Person: "A", Size: "large", Count: 4},
		{Date: "2025/12/16", Person: "B", Size: "regular", Count: 6},
		{Date: "2025/12/17", Person: "C", Size: "small", Count: 4},
	}
	// total 14 selects the 14+ row; the tier is chosen by the total, not per size
	got := AggregateMonth(records, "2025/12", table)

	want := 4*750 + 6*650 + 4*550
	if got.TotalAmount != want {
		t.Errorf("TotalAmount = %d, want %d", got.TotalAmount, want)
	}
	if got.UnitPrice != 0 {
		t.Errorf("UnitPrice = %d, want 0 under the per-size schedule", got.UnitPrice)
	}
}

func TestAggregateMonth_PerSizeZeroCount(t *testing.T) {
	table := Table{PerSize: &PerSizePrices{
		Range1To8: SizePrices{Large: 800, Regular: 700, Small: 600},
	}}
	got := AggregateMonth(nil, "2025/12", table)
	if got.TotalAmount != 0 {
		t.Errorf("TotalAmount = %d, want 0", got.TotalAmount)
	}
}
