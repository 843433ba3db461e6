package ops

import (
	"context"
	"fmt"

	"github.com/interh852/lunch-order/internal/chat"
	"github.com/interh852/lunch-order/internal/db"
	"github.com/interh852/lunch-order/internal/errors"
	"github.com/interh852/lunch-order/internal/mailer"
	"github.com/interh852/lunch-order/internal/order"
)

// WeekReport is the outcome of change detection for one week.
type WeekReport struct {
	PeriodKey string `json:"period_key"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
	Added     int    `json:"added"`
	Cancelled int    `json:"cancelled"`
}

// DetectChangesOutput contains the result of the DetectChanges operation.
type DetectChangesOutput struct {
	Weeks []WeekReport `json:"weeks"`
}

// DetectChanges compares the saved snapshot of each active week against the
// current ledger rows. When order lines were added or cancelled it rewrites
// the order card, replaces the snapshot, posts the change report, and
// leaves a change email draft with the updated cards attached.
func DetectChanges(ctx context.Context, env *Env) (*DetectChangesOutput, error) {
	if err := env.Cfg.Validate(); err != nil {
		return nil, err
	}
	runID := env.startRun("detect-changes")

	now := env.now()
	weeks := [][]string{
		order.CurrentWeekdays(now),
		order.NextWeekdays(now),
	}

	out := &DetectChangesOutput{}
	for _, dates := range weeks {
		report, err := detectWeekChanges(ctx, env, dates)
		if err != nil {
			env.finishRun(runID, db.RunStatusFailed, err.Error())
			return nil, err
		}
		out.Weeks = append(out.Weeks, report)
	}

	env.finishRun(runID, db.RunStatusOK, fmt.Sprintf("%d weeks checked", len(out.Weeks)))
	return out, nil
}

func detectWeekChanges(ctx context.Context, env *Env, dates []string) (WeekReport, error) {
	startDate, endDate := dates[0], dates[len(dates)-1]
	key := order.PeriodKey(startDate, endDate)
	report := WeekReport{PeriodKey: key}

	// Only weeks whose order email went out are under change watch.
	sent, err := env.Mail.OrderEmailSent(ctx, startDate, endDate, env.Cfg.Mail.OrderSubjectKeyword)
	if err != nil {
		return report, err
	}
	if !sent {
		report.Skipped = true
		report.Reason = "order email not sent"
		return report, nil
	}

	current, err := env.Ledger.OrdersForDates(ctx, dates)
	if err != nil {
		return report, err
	}

	previous, err := db.LoadSnapshot(env.DB, key)
	if errors.Is(err, errors.ErrNotFound) {
		// First run for this period: baseline only, nothing to report.
		if err := db.ReplaceSnapshot(env.DB, key, current); err != nil {
			return report, err
		}
		report.Skipped = true
		report.Reason = "baseline snapshot saved"
		env.Log.Infow("baseline snapshot saved", "period", key)
		return report, nil
	}
	if err != nil {
		return report, err
	}

	changes := order.Diff(previous, current)
	if !changes.HasChanges() {
		report.Skipped = true
		report.Reason = "no changes"
		return report, nil
	}
	report.Added = len(changes.Added)
	report.Cancelled = len(changes.Cancelled)
	env.Log.Infow("order changes detected", "period", key,
		"added", report.Added, "cancelled", report.Cancelled)

	agg := order.AggregateByDateAndSize(current)
	if err := writeOrderCards(ctx, env, agg, dates); err != nil {
		return report, err
	}

	if err := db.ReplaceSnapshot(env.DB, key, current); err != nil {
		return report, err
	}

	message := chat.FormatChangeReport(changes, startDate, endDate)
	if _, err := env.Notifier.Post(ctx, env.Cfg.Slack.ChannelID, message); err != nil {
		return report, err
	}

	if err := createChangeDraft(ctx, env, dates, changes); err != nil {
		return report, err
	}
	return report, nil
}

func createChangeDraft(ctx context.Context, env *Env, dates []string, changes order.ChangeSet) error {
	attachments, err := exportOrderCards(ctx, env, dates)
	if err != nil {
		return err
	}
	store := vendorGreetingName(ctx, env, dates)

	_, err = env.Mail.CreateDraft(ctx, mailer.Draft{
		To:          env.Cfg.Mail.VendorEmail,
		Subject:     mailer.OrderEmailSubject(dates[0], dates[len(dates)-1]),
		Markdown:    mailer.ChangeEmailMarkdown(store, env.Cfg.Mail.SenderName, changes),
		Attachments: attachments,
	})
	return err
}
