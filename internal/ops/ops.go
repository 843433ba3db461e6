// Package ops holds the workflow operations, one per cron entry point.
// Each operation validates configuration up front, records a run-journal
// row, and degrades per the shared error policy: a failed external call or
// malformed document aborts only the item it belongs to.
package ops

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/interh852/lunch-order/internal/chat"
	"github.com/interh852/lunch-order/internal/config"
	"github.com/interh852/lunch-order/internal/db"
	"github.com/interh852/lunch-order/internal/drive"
	"github.com/interh852/lunch-order/internal/gemini"
	"github.com/interh852/lunch-order/internal/invoice"
	"github.com/interh852/lunch-order/internal/ledger"
	"github.com/interh852/lunch-order/internal/mailer"
	"github.com/interh852/lunch-order/internal/order"
	"github.com/interh852/lunch-order/internal/ordercard"
)

// maxWeeksAhead bounds the search for the next week that has a menu.
const maxWeeksAhead = 4

// Ledger is the order-spreadsheet surface the operations use.
type Ledger interface {
	OrdersForDates(ctx context.Context, dates []string) ([]order.Record, error)
	StoreNameForDates(ctx context.Context, dates []string) (string, error)
	HasMenuForRange(ctx context.Context, dates []string) (bool, error)
	AppendMenuRows(ctx context.Context, rows []ledger.MenuRow) error
}

// Mail is the Gmail surface the operations use.
type Mail interface {
	OrderEmailSent(ctx context.Context, startDate, endDate, subjectKeyword string) (bool, error)
	SearchInvoicePDFs(ctx context.Context, query string) ([]mailer.InvoicePDF, error)
	MarkProcessed(ctx context.Context, messageID string) error
	CreateDraft(ctx context.Context, d mailer.Draft) (string, error)
}

// Storage is the Drive surface the operations use.
type Storage interface {
	ListUnprocessedMenuPDFs(ctx context.Context, folderID string) ([]drive.File, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	Rename(ctx context.Context, fileID, newName string) error
	SavePDF(ctx context.Context, folderID, name string, data []byte) (string, error)
	FindOrderCard(ctx context.Context, folderID, yearMonth string) (drive.File, error)
	ExportXLSX(ctx context.Context, fileID string) ([]byte, error)
}

// Extractor pulls structured data out of PDFs.
type Extractor interface {
	ExtractMenu(ctx context.Context, pdf []byte) ([]gemini.MenuItem, error)
	ExtractInvoice(ctx context.Context, pdf []byte) (invoice.Summary, error)
}

// CardWriter writes one week block of an order card.
type CardWriter interface {
	WriteWeek(agg order.Aggregated, dates []string) (ordercard.CellDeltas, error)
}

// Env bundles everything an operation needs. The card writer is a factory
// because each month lives in its own spreadsheet.
type Env struct {
	DB       *sql.DB
	Cfg      *config.Config
	Log      *zap.SugaredLogger
	Ledger   Ledger
	Mail     Mail
	Storage  Storage
	Extract  Extractor
	Notifier chat.Notifier

	// CardWriterFor opens the order card for a YYYY.MM month key.
	CardWriterFor func(ctx context.Context, yearMonth string) (CardWriter, error)

	// Now is the clock; tests pin it to a known week.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// startRun opens a run-journal row. Journal failures never block the
// workflow; they are logged and the run proceeds without a row.
func (e *Env) startRun(command string) string {
	id, err := db.StartRun(e.DB, command)
	if err != nil {
		e.Log.Warnw("failed to journal run start", "command", command, "error", err)
		return ""
	}
	return id
}

func (e *Env) finishRun(id, status, note string) {
	if id == "" {
		return
	}
	if err := db.FinishRun(e.DB, id, status, note); err != nil {
		e.Log.Warnw("failed to journal run finish", "id", id, "error", err)
	}
}

// findOpenWeek walks up to maxWeeksAhead weeks forward from now and returns
// the weekdays of the first week that has menu rows, or nil when none does.
func findOpenWeek(ctx context.Context, env *Env) ([]string, error) {
	base := env.now()
	for i := 0; i < maxWeeksAhead; i++ {
		dates := order.NextWeekdays(base)
		has, err := env.Ledger.HasMenuForRange(ctx, dates)
		if err != nil {
			return nil, err
		}
		if has {
			return dates, nil
		}
		env.Log.Infow("no menu for week, checking the next one", "start", dates[0])
		base = base.AddDate(0, 0, 7)
	}
	return nil, nil
}

// exportOrderCards exports the card spreadsheet of every month a period
// touches, as email attachments.
func exportOrderCards(ctx context.Context, env *Env, dates []string) ([]mailer.Attachment, error) {
	grouped := order.GroupByMonth(dates)

	var attachments []mailer.Attachment
	for _, yearMonth := range order.MonthKeys(grouped) {
		card, err := env.Storage.FindOrderCard(ctx, env.Cfg.OrderCardFolderID, yearMonth)
		if err != nil {
			return nil, err
		}
		data, err := env.Storage.ExportXLSX(ctx, card.ID)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, mailer.Attachment{
			Filename: card.Name + ".xlsx",
			MIMEType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:     data,
		})
	}
	return attachments, nil
}

// writeOrderCards rewrites the week blocks for a period, one card per month.
func writeOrderCards(ctx context.Context, env *Env, agg order.Aggregated, dates []string) error {
	grouped := order.GroupByMonth(dates)
	for _, yearMonth := range order.MonthKeys(grouped) {
		writer, err := env.CardWriterFor(ctx, yearMonth)
		if err != nil {
			return err
		}
		if _, err := writer.WriteWeek(agg, grouped[yearMonth]); err != nil {
			return err
		}
		env.Log.Infow("order card updated", "month", yearMonth)
	}
	return nil
}

// vendorGreetingName returns the store name for the email greeting, falling
// back to the vendor address's local part.
func vendorGreetingName(ctx context.Context, env *Env, dates []string) string {
	store, err := env.Ledger.StoreNameForDates(ctx, dates)
	if err != nil || store == "" {
		return localPart(env.Cfg.Mail.VendorEmail)
	}
	return store
}

func localPart(email string) string {
	for i, r := range email {
		if r == '@' {
			return email[:i]
		}
	}
	return email
}

// monthDates expands a YYYY/MM billing month into its calendar dates, for
// pulling the month's order rows from the ledger.
func monthDates(targetMonth string) ([]string, error) {
	start, err := time.Parse(order.MonthLayout, targetMonth)
	if err != nil {
		return nil, fmt.Errorf("invalid target month %q: %w", targetMonth, err)
	}
	var dates []string
	for d := start; d.Month() == start.Month(); d = d.AddDate(0, 0, 1) {
		dates = append(dates, order.FormatDate(d))
	}
	return dates, nil
}
