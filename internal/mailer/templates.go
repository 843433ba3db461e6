package mailer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/interh852/lunch-order/internal/invoice"
	"github.com/interh852/lunch-order/internal/order"
)

var sizeLabels = map[order.SizeCategory]string{
	order.SizeLarge:   "大盛",
	order.SizeRegular: "普通",
	order.SizeSmall:   "小盛",
}

// OrderEmailMarkdown is the body of the weekly order email to the vendor.
func OrderEmailMarkdown(storeName, senderName string) string {
	return strings.Join([]string{
		storeName + "様",
		"",
		"いつもお世話になります。",
		senderName + "です。",
		"",
		"次回のお弁当のオーダーカードを添付の通り送付させて頂きます。",
		"",
		"以上、よろしくお願いいたします。",
	}, "\n")
}

// ChangeEmailMarkdown is the body of the order-change email, carrying the
// per-(date, size) quantity deltas so the vendor sees the new totals.
func ChangeEmailMarkdown(storeName, senderName string, changes order.ChangeSet) string {
	lines := []string{
		storeName + "様",
		"",
		"いつもお世話になります。",
		senderName + "です。",
		"",
		"お弁当の注文内容に変更がありましたので、更新したオーダーカードを添付の通り送付させて頂きます。",
	}

	if len(changes.QuantityChanges) > 0 {
		lines = append(lines, "", "【数量変更】")
		qcs := append([]order.QuantityChange(nil), changes.QuantityChanges...)
		sort.Slice(qcs, func(i, j int) bool {
			if qcs[i].Date != qcs[j].Date {
				return qcs[i].Date < qcs[j].Date
			}
			return qcs[i].Size < qcs[j].Size
		})
		for _, qc := range qcs {
			lines = append(lines, fmt.Sprintf("- %s %s: %d個 → %d個", qc.Date, sizeLabels[qc.Size], qc.Before, qc.After))
		}
	}

	lines = append(lines, "", "以上、よろしくお願いいたします。")
	return strings.Join(lines, "\n")
}

// InvoiceApprovalSubject is the subject of the monthly payment application.
func InvoiceApprovalSubject(targetMonth string) string {
	return fmt.Sprintf("【お弁当代申請】%s分請求書", targetMonth)
}

// InvoiceApprovalMarkdown is the body of the payment application sent to
// general affairs once an invoice reconciles cleanly.
func InvoiceApprovalMarkdown(generalAffairsName string, inv invoice.Summary) string {
	return strings.Join([]string{
		generalAffairsName + "様",
		"",
		"お疲れ様です。",
		fmt.Sprintf("%s分のお弁当代の請求書を受領しましたので、申請いたします。", inv.TargetMonth),
		"",
		"■請求内容",
		fmt.Sprintf("- 対象月: %s", inv.TargetMonth),
		fmt.Sprintf("- 個数: %d個", inv.TotalCount),
		fmt.Sprintf("- 金額: %d円", inv.TotalAmount),
		"",
		"請求書を添付いたしますので、ご確認のほどよろしくお願いいたします。",
	}, "\n")
}
