package ops

import (
	"context"
	"fmt"

	"github.com/interh852/lunch-order/internal/chat"
	"github.com/interh852/lunch-order/internal/db"
	"github.com/interh852/lunch-order/internal/invoice"
	"github.com/interh852/lunch-order/internal/mailer"
	"github.com/interh852/lunch-order/internal/pricing"
)

// InvoiceReport is the outcome for one invoice PDF.
type InvoiceReport struct {
	Filename    string `json:"filename"`
	TargetMonth string `json:"target_month,omitempty"`
	Matched     bool   `json:"matched"`
	Failed      bool   `json:"failed"`
	Reason      string `json:"reason,omitempty"`
}

// ReconcileInvoiceOutput contains the result of the ReconcileInvoice
// operation.
type ReconcileInvoiceOutput struct {
	Invoices []InvoiceReport `json:"invoices"`
}

// ReconcileInvoice pulls unprocessed invoice mail, extracts each PDF's
// billing summary, and checks it against the system's own aggregation of
// the month. A clean match becomes an approval draft for general affairs; a
// mismatch becomes a discrepancy alert. Invoices never auto-approve and
// mismatches are never dropped. Each PDF is independent: one bad document
// aborts only itself.
func ReconcileInvoice(ctx context.Context, env *Env) (*ReconcileInvoiceOutput, error) {
	if err := env.Cfg.Validate(); err != nil {
		return nil, err
	}
	runID := env.startRun("reconcile-invoice")

	pdfs, err := env.Mail.SearchInvoicePDFs(ctx, env.Cfg.Mail.InvoiceQuery)
	if err != nil {
		env.finishRun(runID, db.RunStatusFailed, err.Error())
		return nil, err
	}
	if len(pdfs) == 0 {
		env.Log.Infow("no invoice mail found")
		env.finishRun(runID, db.RunStatusSkipped, "no invoice mail")
		return &ReconcileInvoiceOutput{}, nil
	}

	out := &ReconcileInvoiceOutput{}
	matched := 0
	for _, pdf := range pdfs {
		report := reconcileOne(ctx, env, pdf)
		if report.Matched {
			matched++
		}
		out.Invoices = append(out.Invoices, report)
	}

	env.finishRun(runID, db.RunStatusOK,
		fmt.Sprintf("%d invoices, %d matched", len(out.Invoices), matched))
	return out, nil
}

func reconcileOne(ctx context.Context, env *Env, pdf mailer.InvoicePDF) InvoiceReport {
	report := InvoiceReport{Filename: pdf.Filename}
	fail := func(stage string, err error) InvoiceReport {
		report.Failed = true
		report.Reason = fmt.Sprintf("%s: %v", stage, err)
		env.Log.Errorw("invoice processing failed", "file", pdf.Filename, "stage", stage, "error", err)
		return report
	}

	if _, err := env.Storage.SavePDF(ctx, env.Cfg.InvoiceFolderID, pdf.Filename, pdf.Data); err != nil {
		return fail("save", err)
	}

	summary, err := env.Extract.ExtractInvoice(ctx, pdf.Data)
	if err != nil {
		return fail("extract", err)
	}
	report.TargetMonth = summary.TargetMonth

	system, err := aggregateSystemMonth(ctx, env, summary.TargetMonth)
	if err != nil {
		return fail("aggregate", err)
	}

	result := invoice.Reconcile(summary, system)
	report.Matched = result.IsMatch

	if result.IsMatch {
		env.Log.Infow("invoice reconciled", "month", summary.TargetMonth, "amount", summary.TotalAmount)
		_, err := env.Mail.CreateDraft(ctx, mailer.Draft{
			To:       env.Cfg.Mail.GeneralAffairsEmail,
			Subject:  mailer.InvoiceApprovalSubject(summary.TargetMonth),
			Markdown: mailer.InvoiceApprovalMarkdown(env.Cfg.Mail.GeneralAffairsName, summary),
			Attachments: []mailer.Attachment{
				{Filename: pdf.Filename, MIMEType: "application/pdf", Data: pdf.Data},
			},
		})
		if err != nil {
			return fail("draft", err)
		}
	} else {
		env.Log.Warnw("invoice mismatch", "month", summary.TargetMonth, "diffs", result.Diffs)
		message := chat.FormatInvoiceDiscrepancy(result, summary, system)
		if _, err := env.Notifier.Post(ctx, env.Cfg.Slack.ChannelID, message); err != nil {
			return fail("notify", err)
		}
	}

	if err := env.Mail.MarkProcessed(ctx, pdf.MessageID); err != nil {
		env.Log.Warnw("failed to mark invoice processed", "message", pdf.MessageID, "error", err)
	}
	return report
}

// aggregateSystemMonth prices the system's own view of a billing month.
func aggregateSystemMonth(ctx context.Context, env *Env, targetMonth string) (invoice.Summary, error) {
	dates, err := monthDates(targetMonth)
	if err != nil {
		return invoice.Summary{}, err
	}
	records, err := env.Ledger.OrdersForDates(ctx, dates)
	if err != nil {
		return invoice.Summary{}, err
	}
	return pricing.AggregateMonth(records, targetMonth, env.Cfg.Prices), nil
}
