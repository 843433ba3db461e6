package ops

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/interh852/lunch-order/internal/config"
	"github.com/interh852/lunch-order/internal/db"
	"github.com/interh852/lunch-order/internal/drive"
	"github.com/interh852/lunch-order/internal/gemini"
	"github.com/interh852/lunch-order/internal/invoice"
	"github.com/interh852/lunch-order/internal/ledger"
	"github.com/interh852/lunch-order/internal/mailer"
	"github.com/interh852/lunch-order/internal/order"
	"github.com/interh852/lunch-order/internal/ordercard"
	"github.com/interh852/lunch-order/internal/pricing"
)

// testNow pins the clock to Thursday 2025/12/11: the current week is Dec
// 8-12 and the next week is Dec 15-19.
var testNow = time.Date(2025, 12, 11, 9, 0, 0, 0, time.Local)

type fakeLedger struct {
	orders    []order.Record
	store     string
	menuDates map[string]bool
	appended  []ledger.MenuRow
	err       error
}

func (f *fakeLedger) OrdersForDates(_ context.Context, dates []string) ([]order.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d] = true
	}
	var out []order.Record
	for _, r := range f.orders {
		if wanted[r.Date] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLedger) StoreNameForDates(context.Context, []string) (string, error) {
	return f.store, nil
}

func (f *fakeLedger) HasMenuForRange(_ context.Context, dates []string) (bool, error) {
	for _, d := range dates {
		if f.menuDates[d] {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedger) AppendMenuRows(_ context.Context, rows []ledger.MenuRow) error {
	f.appended = append(f.appended, rows...)
	return nil
}

type fakeMail struct {
	sentPeriods map[string]bool
	invoicePDFs []mailer.InvoicePDF
	drafts      []mailer.Draft
	processed   []string
	draftErr    error
}

func (f *fakeMail) OrderEmailSent(_ context.Context, startDate, endDate, _ string) (bool, error) {
	return f.sentPeriods[startDate+"|"+endDate], nil
}

func (f *fakeMail) SearchInvoicePDFs(context.Context, string) ([]mailer.InvoicePDF, error) {
	return f.invoicePDFs, nil
}

func (f *fakeMail) MarkProcessed(_ context.Context, messageID string) error {
	f.processed = append(f.processed, messageID)
	return nil
}

func (f *fakeMail) CreateDraft(_ context.Context, d mailer.Draft) (string, error) {
	if f.draftErr != nil {
		return "", f.draftErr
	}
	f.drafts = append(f.drafts, d)
	return fmt.Sprintf("draft-%d", len(f.drafts)), nil
}

type fakeStorage struct {
	menuFiles  []drive.File
	contents   map[string][]byte
	renames    map[string]string
	savedPDFs  map[string][]byte
	orderCards map[string]drive.File
	exports    map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		contents:   make(map[string][]byte),
		renames:    make(map[string]string),
		savedPDFs:  make(map[string][]byte),
		orderCards: make(map[string]drive.File),
		exports:    make(map[string][]byte),
	}
}

func (f *fakeStorage) ListUnprocessedMenuPDFs(context.Context, string) ([]drive.File, error) {
	return f.menuFiles, nil
}

func (f *fakeStorage) Download(_ context.Context, fileID string) ([]byte, error) {
	return f.contents[fileID], nil
}

func (f *fakeStorage) Rename(_ context.Context, fileID, newName string) error {
	f.renames[fileID] = newName
	return nil
}

func (f *fakeStorage) SavePDF(_ context.Context, _, name string, data []byte) (string, error) {
	f.savedPDFs[name] = data
	return "saved-" + name, nil
}

func (f *fakeStorage) FindOrderCard(_ context.Context, _, yearMonth string) (drive.File, error) {
	card, ok := f.orderCards[yearMonth]
	if !ok {
		return drive.File{}, fmt.Errorf("no order card for %s", yearMonth)
	}
	return card, nil
}

func (f *fakeStorage) ExportXLSX(_ context.Context, fileID string) ([]byte, error) {
	return f.exports[fileID], nil
}

type fakeExtractor struct {
	menuItems   []gemini.MenuItem
	menuErrs    map[string]error // keyed by pdf content
	summaries   map[string]invoice.Summary
	extractErrs map[string]error
}

func (f *fakeExtractor) ExtractMenu(_ context.Context, pdf []byte) ([]gemini.MenuItem, error) {
	if err := f.menuErrs[string(pdf)]; err != nil {
		return nil, err
	}
	return f.menuItems, nil
}

func (f *fakeExtractor) ExtractInvoice(_ context.Context, pdf []byte) (invoice.Summary, error) {
	if err := f.extractErrs[string(pdf)]; err != nil {
		return invoice.Summary{}, err
	}
	return f.summaries[string(pdf)], nil
}

type fakeNotifier struct {
	posts []string
}

func (f *fakeNotifier) Post(_ context.Context, _, text string) (string, error) {
	f.posts = append(f.posts, text)
	return "1234.5678", nil
}

type fakeCardWriter struct {
	writes []cardWrite
}

type cardWrite struct {
	agg   order.Aggregated
	dates []string
}

func (f *fakeCardWriter) WriteWeek(agg order.Aggregated, dates []string) (ordercard.CellDeltas, error) {
	f.writes = append(f.writes, cardWrite{agg: agg, dates: dates})
	return nil, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SpreadsheetID = "sheet-id"
	cfg.MenuFolderID = "menu-folder"
	cfg.OrderCardFolderID = "card-folder"
	cfg.InvoiceFolderID = "invoice-folder"
	cfg.Gemini.APIKey = "key"
	cfg.Gemini.MenuPrompt = "menu"
	cfg.Gemini.InvoicePrompt = "invoice"
	cfg.Slack.BotToken = "xoxb"
	cfg.Slack.ChannelID = "C123"
	cfg.Mail.VendorEmail = "orders@vendor.example"
	cfg.Mail.SenderName = "Suzuki"
	cfg.Mail.GeneralAffairsName = "Sato"
	cfg.Mail.GeneralAffairsEmail = "ga@company.example"
	cfg.Mail.InvoiceQuery = "from:billing@vendor.example has:attachment"
	cfg.OrderAppURL = "https://example.com/order"
	cfg.Prices.Flat = &pricing.FlatPrices{Range1To8: 700, Range9To13: 680, Range14Plus: 650}
	return cfg
}

type testFixture struct {
	env      *Env
	ledger   *fakeLedger
	mail     *fakeMail
	storage  *fakeStorage
	extract  *fakeExtractor
	notifier *fakeNotifier
	cards    *fakeCardWriter
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	f := &testFixture{
		ledger:   &fakeLedger{menuDates: make(map[string]bool)},
		mail:     &fakeMail{sentPeriods: make(map[string]bool)},
		storage:  newFakeStorage(),
		extract:  &fakeExtractor{},
		notifier: &fakeNotifier{},
		cards:    &fakeCardWriter{},
	}
	f.env = &Env{
		DB:       database,
		Cfg:      testConfig(),
		Log:      zap.NewNop().Sugar(),
		Ledger:   f.ledger,
		Mail:     f.mail,
		Storage:  f.storage,
		Extract:  f.extract,
		Notifier: f.notifier,
		CardWriterFor: func(context.Context, string) (CardWriter, error) {
			return f.cards, nil
		},
		Now: func() time.Time { return testNow },
	}
	return f
}

// withOrderCard registers an exportable order card for a month key.
func (f *testFixture) withOrderCard(yearMonth string) {
	id := "card-" + yearMonth
	f.storage.orderCards[yearMonth] = drive.File{ID: id, Name: drive.OrderCardName(yearMonth)}
	f.storage.exports[id] = []byte("xlsx-" + yearMonth)
}
