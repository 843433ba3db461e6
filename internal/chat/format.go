package chat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/interh852/lunch-order/internal/invoice"
	"github.com/interh852/lunch-order/internal/order"
)

var weekdayKanji = []string{"日", "月", "火", "水", "木", "金", "土"}

var sizeLabels = map[order.SizeCategory]string{
	order.SizeLarge:   "大盛",
	order.SizeRegular: "普通",
	order.SizeSmall:   "小盛",
}

// dateWithDay renders a canonical date as "MM/DD (曜)".
func dateWithDay(date string) string {
	t, err := order.ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%02d/%02d (%s)", int(t.Month()), t.Day(), weekdayKanji[int(t.Weekday())])
}

// FormatWeeklyOrders renders the roster of next week's orders grouped by
// date. No orders is still a message: the channel expects the weekly post.
func FormatWeeklyOrders(records []order.Record) string {
	if len(records) == 0 {
		return "【来週の弁当注文状況🍱】\n来週の弁当注文はありませんでした。"
	}

	byDate := make(map[string][]order.Record)
	for _, r := range records {
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var b strings.Builder
	b.WriteString("【来週の弁当注文状況🍱】\n")
	for _, date := range dates {
		details := make([]string, 0, len(byDate[date]))
		for _, r := range byDate[date] {
			details = append(details, fmt.Sprintf("%s %s", r.Person, sizeLabels[order.NormalizeSize(r.Size)]))
		}
		fmt.Fprintf(&b, "- %s: %s\n", dateWithDay(date), strings.Join(details, ", "))
	}
	return b.String()
}

// FormatChangeReport renders an order-change report. Entries are sorted by
// date for display; the underlying change set carries no order.
func FormatChangeReport(changes order.ChangeSet, periodStart, periodEnd string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "【注文変更のお知らせ🔔】\n対象期間: %s〜%s\n", periodStart, periodEnd)

	if len(changes.Added) > 0 {
		b.WriteString("\n*■ 追加された注文*\n")
		for _, e := range sortedEntries(changes.Added) {
			fmt.Fprintf(&b, "• %s %s %s ×%d\n", dateWithDay(e.Date), e.Person, sizeLabels[e.Size], e.Count)
		}
	}
	if len(changes.Cancelled) > 0 {
		b.WriteString("\n*■ キャンセルされた注文*\n")
		for _, e := range sortedEntries(changes.Cancelled) {
			fmt.Fprintf(&b, "• %s %s %s ×%d\n", dateWithDay(e.Date), e.Person, sizeLabels[e.Size], e.Count)
		}
	}
	if len(changes.QuantityChanges) > 0 {
		b.WriteString("\n*■ 数量の変動*\n")
		qcs := append([]order.QuantityChange(nil), changes.QuantityChanges...)
		sort.Slice(qcs, func(i, j int) bool {
			if qcs[i].Date != qcs[j].Date {
				return qcs[i].Date < qcs[j].Date
			}
			return qcs[i].Size < qcs[j].Size
		})
		for _, qc := range qcs {
			fmt.Fprintf(&b, "• %s %s: %d個 → %d個\n", dateWithDay(qc.Date), sizeLabels[qc.Size], qc.Before, qc.After)
		}
	}
	return b.String()
}

func sortedEntries(entries []order.ChangeEntry) []order.ChangeEntry {
	sorted := append([]order.ChangeEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Person < sorted[j].Person
	})
	return sorted
}

// FormatInvoiceDiscrepancy renders the reconciliation alert with invoice and
// system values side by side.
func FormatInvoiceDiscrepancy(result invoice.Result, inv, system invoice.Summary) string {
	var b strings.Builder
	b.WriteString("⚠️ *請求書の金額不一致を検知しました*\n\n")
	b.WriteString("請求書の内容と、注文履歴の集計結果が一致しませんでした。\n確認をお願いします。\n\n")

	b.WriteString("*■ 差異の内容*\n")
	for _, diff := range result.Diffs {
		fmt.Fprintf(&b, "• %s\n", diff)
	}

	fmt.Fprintf(&b, "\n*■ 請求書データ*\n対象月: %s\n個数: %d個\n金額: %d円\n", inv.TargetMonth, inv.TotalCount, inv.TotalAmount)
	fmt.Fprintf(&b, "\n*■ システム集計データ*\n個数: %d個\n金額: %d円", system.TotalCount, system.TotalAmount)
	return b.String()
}

// FormatAnnouncement renders the order-app announcement for the next open
// week.
func FormatAnnouncement(periodStart, periodEnd, orderAppURL string) string {
	return fmt.Sprintf(
		"【来週の弁当注文受付中🍱】\n対象期間: %s〜%s\nこちらから注文してください: %s",
		dateWithDay(periodStart), dateWithDay(periodEnd), orderAppURL)
}
