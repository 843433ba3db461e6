package ops

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/interh852/lunch-order/internal/db"
	"github.com/interh852/lunch-order/internal/drive"
	"github.com/interh852/lunch-order/internal/errors"
	"github.com/interh852/lunch-order/internal/gemini"
	"github.com/interh852/lunch-order/internal/invoice"
	"github.com/interh852/lunch-order/internal/mailer"
	"github.com/interh852/lunch-order/internal/order"
)

const (
	nextWeekKey    = "2025.12.15-12.19"
	currentWeekKey = "2025.12.08-12.12"
)

func markSent(f *testFixture, startDate, endDate string) {
	f.mail.sentPeriods[startDate+"|"+endDate] = true
}

func TestWeeklyOrder_CreatesDraftAndSnapshot(t *testing.T) {
	f := newFixture(t)
	f.ledger.menuDates["2025/12/15"] = true
	f.ledger.store = "ほか弁"
	f.ledger.orders = []order.Record{
		{Date: "2025/12/15", Person: "田中", Size: "大盛", Count: 1},
		{Date: "2025/12/16", Person: "佐藤", Size: "", Count: 2},
	}
	f.withOrderCard("2025.12")

	out, err := WeeklyOrder(context.Background(), f.env)
	require.NoError(t, err)
	require.False(t, out.Skipped)
	require.Equal(t, nextWeekKey, out.PeriodKey)
	require.Equal(t, 2, out.Orders)
	require.Equal(t, "draft-1", out.DraftID)

	require.Len(t, f.cards.writes, 1)
	require.Equal(t, []string{"2025/12/15", "2025/12/16", "2025/12/17", "2025/12/18", "2025/12/19"},
		f.cards.writes[0].dates)
	require.Equal(t, 1, f.cards.writes[0].agg["2025/12/15"].Large)
	require.Equal(t, 2, f.cards.writes[0].agg["2025/12/16"].Regular)

	require.Len(t, f.mail.drafts, 1)
	draft := f.mail.drafts[0]
	require.Equal(t, "orders@vendor.example", draft.To)
	require.Equal(t, "12/15~12/19のお弁当について", draft.Subject)
	require.Contains(t, draft.Markdown, "ほか弁")
	require.Len(t, draft.Attachments, 1)
	require.Equal(t, "オーダーカード2025.12.xlsx", draft.Attachments[0].Filename)
	require.Equal(t, []byte("xlsx-2025.12"), draft.Attachments[0].Data)

	saved, err := db.LoadSnapshot(f.env.DB, nextWeekKey)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	run, err := db.LatestRun(f.env.DB, "weekly-order")
	require.NoError(t, err)
	require.Equal(t, db.RunStatusOK, run.Status)
}

func TestWeeklyOrder_SkipsWhenEmailAlreadySent(t *testing.T) {
	f := newFixture(t)
	f.ledger.menuDates["2025/12/15"] = true
	markSent(f, "2025/12/15", "2025/12/19")

	out, err := WeeklyOrder(context.Background(), f.env)
	require.NoError(t, err)
	require.True(t, out.Skipped)
	require.Equal(t, "order email already sent", out.Reason)
	require.Empty(t, f.mail.drafts)
	require.Empty(t, f.cards.writes)

	run, err := db.LatestRun(f.env.DB, "weekly-order")
	require.NoError(t, err)
	require.Equal(t, db.RunStatusSkipped, run.Status)
}

func TestWeeklyOrder_SearchesLaterWeeksForMenu(t *testing.T) {
	f := newFixture(t)
	// Menu only exists two weeks out.
	f.ledger.menuDates["2025/12/22"] = true
	f.withOrderCard("2025.12")

	out, err := WeeklyOrder(context.Background(), f.env)
	require.NoError(t, err)
	require.False(t, out.Skipped)
	require.Equal(t, "2025.12.22-12.26", out.PeriodKey)
}

func TestWeeklyOrder_SkipsWhenNoMenuInHorizon(t *testing.T) {
	f := newFixture(t)

	out, err := WeeklyOrder(context.Background(), f.env)
	require.NoError(t, err)
	require.True(t, out.Skipped)
	require.Equal(t, "no menu within the search horizon", out.Reason)
	require.Empty(t, f.mail.drafts)
}

func TestWeeklyOrder_ConfigMissingAborts(t *testing.T) {
	f := newFixture(t)
	f.env.Cfg.SpreadsheetID = ""

	_, err := WeeklyOrder(context.Background(), f.env)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrConfigMissing))
}

func TestDetectChanges_BaselinesOnFirstRun(t *testing.T) {
	f := newFixture(t)
	markSent(f, "2025/12/08", "2025/12/12")
	markSent(f, "2025/12/15", "2025/12/19")
	f.ledger.orders = []order.Record{
		{Date: "2025/12/15", Person: "田中", Size: "L", Count: 1},
	}

	out, err := DetectChanges(context.Background(), f.env)
	require.NoError(t, err)
	require.Len(t, out.Weeks, 2)
	for _, week := range out.Weeks {
		require.True(t, week.Skipped)
		require.Equal(t, "baseline snapshot saved", week.Reason)
	}

	has, err := db.HasSnapshot(f.env.DB, nextWeekKey)
	require.NoError(t, err)
	require.True(t, has)

	require.Empty(t, f.notifier.posts)
	require.Empty(t, f.mail.drafts)
	require.Empty(t, f.cards.writes)
}

func TestDetectChanges_ReportsAddedOrders(t *testing.T) {
	f := newFixture(t)
	markSent(f, "2025/12/15", "2025/12/19")
	f.ledger.store = "ほか弁"
	f.withOrderCard("2025.12")

	previous := []order.Record{
		{Date: "2025/12/15", Person: "田中", Size: "large", Count: 1},
	}
	require.NoError(t, db.ReplaceSnapshot(f.env.DB, nextWeekKey, previous))

	f.ledger.orders = []order.Record{
		{Date: "2025/12/15", Person: "田中", Size: "large", Count: 1},
		{Date: "2025/12/16", Person: "鈴木", Size: "小盛", Count: 1},
	}

	out, err := DetectChanges(context.Background(), f.env)
	require.NoError(t, err)
	require.Len(t, out.Weeks, 2)

	current := out.Weeks[0]
	require.True(t, current.Skipped)
	require.Equal(t, "order email not sent", current.Reason)

	next := out.Weeks[1]
	require.False(t, next.Skipped)
	require.Equal(t, 1, next.Added)
	require.Equal(t, 0, next.Cancelled)

	require.Len(t, f.cards.writes, 1)

	require.Len(t, f.notifier.posts, 1)
	require.Contains(t, f.notifier.posts[0], "追加された注文")
	require.Contains(t, f.notifier.posts[0], "鈴木")

	require.Len(t, f.mail.drafts, 1)
	require.Contains(t, f.mail.drafts[0].Markdown, "【数量変更】")

	saved, err := db.LoadSnapshot(f.env.DB, nextWeekKey)
	require.NoError(t, err)
	require.Len(t, saved, 2)
}

func TestDetectChanges_NoChangesStaysQuiet(t *testing.T) {
	f := newFixture(t)
	markSent(f, "2025/12/15", "2025/12/19")

	records := []order.Record{
		{Date: "2025/12/15", Person: "田中", Size: "large", Count: 1},
	}
	require.NoError(t, db.ReplaceSnapshot(f.env.DB, nextWeekKey, records))
	f.ledger.orders = records

	out, err := DetectChanges(context.Background(), f.env)
	require.NoError(t, err)

	next := out.Weeks[1]
	require.True(t, next.Skipped)
	require.Equal(t, "no changes", next.Reason)
	require.Empty(t, f.notifier.posts)
	require.Empty(t, f.mail.drafts)
	require.Empty(t, f.cards.writes)
}

// invoiceLedger fills the fake ledger with n regular orders spread over
// December 2025.
func invoiceLedger(f *testFixture, n int) {
	for i := 0; i < n; i++ {
		f.ledger.orders = append(f.ledger.orders, order.Record{
			Date:   fmt.Sprintf("2025/12/%02d", i+1),
			Person: fmt.Sprintf("person%d", i),
			Count:  1,
		})
	}
}

func TestReconcileInvoice_MatchCreatesApprovalDraft(t *testing.T) {
	f := newFixture(t)
	invoiceLedger(f, 10) // tier 9-13, unit price 680

	pdf := mailer.InvoicePDF{
		Filename:  "invoice_202512.pdf",
		Data:      []byte("pdf-bytes"),
		MessageID: "msg-1",
	}
	f.mail.invoicePDFs = []mailer.InvoicePDF{pdf}
	f.extract.summaries = map[string]invoice.Summary{
		"pdf-bytes": {
			TargetMonth: "2025/12",
			TotalCount:  10,
			UnitPrice:   680,
			TotalAmount: 6800,
		},
	}

	out, err := ReconcileInvoice(context.Background(), f.env)
	require.NoError(t, err)
	require.Len(t, out.Invoices, 1)
	require.True(t, out.Invoices[0].Matched)
	require.Equal(t, "2025/12", out.Invoices[0].TargetMonth)

	require.Equal(t, []byte("pdf-bytes"), f.storage.savedPDFs["invoice_202512.pdf"])

	require.Len(t, f.mail.drafts, 1)
	draft := f.mail.drafts[0]
	require.Equal(t, "ga@company.example", draft.To)
	require.Contains(t, draft.Subject, "2025/12")
	require.Len(t, draft.Attachments, 1)
	require.Equal(t, "invoice_202512.pdf", draft.Attachments[0].Filename)

	require.Equal(t, []string{"msg-1"}, f.mail.processed)
	require.Empty(t, f.notifier.posts)
}

func TestReconcileInvoice_MismatchPostsAlert(t *testing.T) {
	f := newFixture(t)
	invoiceLedger(f, 10)

	pdf := mailer.InvoicePDF{Filename: "bad.pdf", Data: []byte("bad"), MessageID: "msg-2"}
	f.mail.invoicePDFs = []mailer.InvoicePDF{pdf}
	f.extract.summaries = map[string]invoice.Summary{
		"bad": {TargetMonth: "2025/12", TotalCount: 12, TotalAmount: 8160},
	}

	out, err := ReconcileInvoice(context.Background(), f.env)
	require.NoError(t, err)
	require.Len(t, out.Invoices, 1)
	require.False(t, out.Invoices[0].Matched)
	require.False(t, out.Invoices[0].Failed)

	require.Empty(t, f.mail.drafts)
	require.Len(t, f.notifier.posts, 1)
	require.Contains(t, f.notifier.posts[0], "不一致")

	// A mismatch is a terminal verdict for the document, not a retryable
	// failure, so the mail is still marked processed.
	require.Equal(t, []string{"msg-2"}, f.mail.processed)
}

func TestReconcileInvoice_BadDocumentAbortsOnlyItself(t *testing.T) {
	f := newFixture(t)
	invoiceLedger(f, 5) // tier 1-8, unit price 700

	f.mail.invoicePDFs = []mailer.InvoicePDF{
		{Filename: "broken.pdf", Data: []byte("broken"), MessageID: "msg-a"},
		{Filename: "good.pdf", Data: []byte("good"), MessageID: "msg-b"},
	}
	f.extract.extractErrs = map[string]error{
		"broken": errors.NewDataShape("invoice json", fmt.Errorf("not json")),
	}
	f.extract.summaries = map[string]invoice.Summary{
		"good": {TargetMonth: "2025/12", TotalCount: 5, UnitPrice: 700, TotalAmount: 3500},
	}

	out, err := ReconcileInvoice(context.Background(), f.env)
	require.NoError(t, err)
	require.Len(t, out.Invoices, 2)

	require.True(t, out.Invoices[0].Failed)
	require.Contains(t, out.Invoices[0].Reason, "extract")
	require.True(t, out.Invoices[1].Matched)

	require.Len(t, f.mail.drafts, 1)
	// Only the successfully handled mail is marked processed.
	require.Equal(t, []string{"msg-b"}, f.mail.processed)
}

func TestReconcileInvoice_NoMailSkips(t *testing.T) {
	f := newFixture(t)

	out, err := ReconcileInvoice(context.Background(), f.env)
	require.NoError(t, err)
	require.Empty(t, out.Invoices)

	run, err := db.LatestRun(f.env.DB, "reconcile-invoice")
	require.NoError(t, err)
	require.Equal(t, db.RunStatusSkipped, run.Status)
}

func TestNotifyOrders_PostsRoster(t *testing.T) {
	f := newFixture(t)
	f.ledger.menuDates["2025/12/15"] = true
	f.ledger.orders = []order.Record{
		{Date: "2025/12/15", Person: "田中", Size: "大盛", Count: 1},
		{Date: "2025/12/15", Person: "佐藤", Size: "", Count: 1},
	}

	out, err := NotifyOrders(context.Background(), f.env)
	require.NoError(t, err)
	require.False(t, out.Skipped)
	require.Equal(t, 2, out.Orders)

	require.Len(t, f.notifier.posts, 1)
	post := f.notifier.posts[0]
	require.Contains(t, post, "田中")
	require.Contains(t, post, "大盛")
	require.Contains(t, post, "12/15")
}

func TestNotifyOrders_SkipsOnceEmailSent(t *testing.T) {
	f := newFixture(t)
	f.ledger.menuDates["2025/12/15"] = true
	markSent(f, "2025/12/15", "2025/12/19")

	out, err := NotifyOrders(context.Background(), f.env)
	require.NoError(t, err)
	require.True(t, out.Skipped)
	require.Equal(t, "order email already sent", out.Reason)
	require.Empty(t, f.notifier.posts)
}

func TestAnnounce_PostsOrderAppLink(t *testing.T) {
	f := newFixture(t)
	f.ledger.menuDates["2025/12/15"] = true

	out, err := Announce(context.Background(), f.env)
	require.NoError(t, err)
	require.False(t, out.Skipped)
	require.Equal(t, nextWeekKey, out.PeriodKey)

	require.Len(t, f.notifier.posts, 1)
	require.Contains(t, f.notifier.posts[0], "https://example.com/order")
}

func TestAnnounce_SkipsWhenNoMenu(t *testing.T) {
	f := newFixture(t)

	out, err := Announce(context.Background(), f.env)
	require.NoError(t, err)
	require.True(t, out.Skipped)
	require.Empty(t, f.notifier.posts)
}

func TestProcessMenus_StampsDatesAndRenames(t *testing.T) {
	f := newFixture(t)
	f.storage.menuFiles = []drive.File{{ID: "f1", Name: "2025.12メニュー.pdf"}}
	f.storage.contents["f1"] = []byte("menu-pdf")
	f.extract.menuItems = []gemini.MenuItem{
		{Date: "12/17", StoreName: "ほか弁", Menu: "唐揚げ弁当"},
		{Date: "15", StoreName: "ほか弁", Menu: "鮭弁当"},
		{Date: "2025/12/16", StoreName: "ほか弁", Menu: "生姜焼き弁当"},
	}

	out, err := ProcessMenus(context.Background(), f.env)
	require.NoError(t, err)
	require.Len(t, out.Files, 1)
	require.False(t, out.Files[0].Failed)
	require.Equal(t, 3, out.Files[0].Rows)

	// Year-less dates are completed from the filename and sorted.
	require.Len(t, f.ledger.appended, 3)
	require.Equal(t, "2025/12/15", f.ledger.appended[0].Date)
	require.Equal(t, "2025/12/16", f.ledger.appended[1].Date)
	require.Equal(t, "2025/12/17", f.ledger.appended[2].Date)
	require.Equal(t, "鮭弁当", f.ledger.appended[0].Menu)

	require.Equal(t, "2025.12メニュー_processed.pdf", f.storage.renames["f1"])
}

func TestProcessMenus_ExtractFailureKeepsFileUnprocessed(t *testing.T) {
	f := newFixture(t)
	f.storage.menuFiles = []drive.File{
		{ID: "f1", Name: "2025.12.pdf"},
		{ID: "f2", Name: "2026.01.pdf"},
	}
	f.storage.contents["f1"] = []byte("bad-pdf")
	f.storage.contents["f2"] = []byte("good-pdf")
	f.extract.menuErrs = map[string]error{
		"bad-pdf": errors.NewDataShape("menu json", fmt.Errorf("not json")),
	}
	f.extract.menuItems = []gemini.MenuItem{{Date: "05", StoreName: "ほか弁", Menu: "幕の内弁当"}}

	out, err := ProcessMenus(context.Background(), f.env)
	require.NoError(t, err)
	require.Len(t, out.Files, 2)

	require.True(t, out.Files[0].Failed)
	require.Contains(t, out.Files[0].Reason, "extract")
	require.NotContains(t, f.storage.renames, "f1")

	require.False(t, out.Files[1].Failed)
	require.Equal(t, "2026/01/05", f.ledger.appended[0].Date)
	require.Equal(t, "2026.01_processed.pdf", f.storage.renames["f2"])
}

func TestProcessMenus_NoFilesSkips(t *testing.T) {
	f := newFixture(t)

	out, err := ProcessMenus(context.Background(), f.env)
	require.NoError(t, err)
	require.Empty(t, out.Files)

	run, err := db.LatestRun(f.env.DB, "process-menus")
	require.NoError(t, err)
	require.Equal(t, db.RunStatusSkipped, run.Status)
}

func TestRunJournalRecordsEachCommand(t *testing.T) {
	f := newFixture(t)

	_, err := Announce(context.Background(), f.env)
	require.NoError(t, err)

	run, err := db.LatestRun(f.env.DB, "announce")
	require.NoError(t, err)
	require.Equal(t, db.RunStatusSkipped, run.Status)
	require.NotNil(t, run.Note)
	require.Equal(t, "no menu within the search horizon", *run.Note)
}
